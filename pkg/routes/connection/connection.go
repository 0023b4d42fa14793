package connection

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/trellis/pkg/context"
	trelliserr "github.com/Ramsey-B/trellis/pkg/errors"
	"github.com/Ramsey-B/trellis/pkg/lifecycle"
	"github.com/Ramsey-B/trellis/pkg/models"
	"github.com/Ramsey-B/trellis/pkg/utils"
)

// Register registers connection request routes
func Register(g *echo.Group) {
	g.POST("", SubmitRequest)
	g.GET("", ListRequests)
	g.GET("/:id", GetRequest)
	g.POST("/:id/approve", ApproveRequest)
	g.POST("/:id/reject", RejectRequest)
	g.POST("/:id/cancel", CancelRequest)
	g.POST("/:id/unmatch", UnmatchRequest)
}

func actor(c echo.Context) (string, error) {
	userID := appctx.GetUserID(c.Request().Context())
	if userID == "" {
		return "", httperror.NewHTTPError(http.StatusUnauthorized, "missing user identity")
	}
	return userID, nil
}

// SubmitRequest creates a new pending connection request. The requester must
// be the authenticated user; the body's requester_id cannot name anyone else.
func SubmitRequest(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := actor(c)
	if err != nil {
		return err
	}

	input, err := utils.BindRequest[models.SubmitConnectionRequest](c)
	if err != nil {
		return err
	}
	if input.RequesterID != userID {
		return trelliserr.Unauthorized("requester must be the authenticated user")
	}

	ctx, service, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	request, err := service.Submit(ctx, input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, request)
}

// ListRequests lists the acting user's connection requests
func ListRequests(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := actor(c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	requests, err := service.ListForUser(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.ConnectionRequestListResponse{
		Items:      requests,
		TotalCount: len(requests),
	})
}

// GetRequest gets a connection request by id
func GetRequest(c echo.Context) error {
	ctx := c.Request().Context()
	requestID := c.Param("id")

	userID, err := actor(c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	request, err := service.GetRequest(ctx, requestID, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, request)
}

// ApproveRequest approves a pending request and returns the matched request
// together with the group it created
func ApproveRequest(c echo.Context) error {
	ctx := c.Request().Context()
	requestID := c.Param("id")

	userID, err := actor(c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	request, group, err := service.Approve(ctx, requestID, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"request":     request,
		"match_group": group,
	})
}

// RejectRequest rejects a pending request with a required reason
func RejectRequest(c echo.Context) error {
	ctx := c.Request().Context()
	requestID := c.Param("id")

	userID, err := actor(c)
	if err != nil {
		return err
	}

	input, err := utils.BindRequest[models.RejectConnectionRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	request, err := service.Reject(ctx, requestID, userID, input.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, request)
}

// CancelRequest cancels a pending request
func CancelRequest(c echo.Context) error {
	ctx := c.Request().Context()
	requestID := c.Param("id")

	userID, err := actor(c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	request, err := service.Cancel(ctx, requestID, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, request)
}

type unmatchRequest struct {
	Reason string `json:"reason"`
}

// UnmatchRequest dissolves a matched request and ends its group
func UnmatchRequest(c echo.Context) error {
	ctx := c.Request().Context()
	requestID := c.Param("id")

	userID, err := actor(c)
	if err != nil {
		return err
	}

	// Reason is optional; an empty body is fine.
	var input unmatchRequest
	_ = c.Bind(&input)

	ctx, service, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	request, err := service.Unmatch(ctx, requestID, userID, input.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, request)
}
