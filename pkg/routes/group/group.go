package group

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/trellis/internal/repositories/matchgroup"
	appctx "github.com/Ramsey-B/trellis/pkg/context"
	trelliserr "github.com/Ramsey-B/trellis/pkg/errors"
	"github.com/Ramsey-B/trellis/pkg/lifecycle"
	"github.com/Ramsey-B/trellis/pkg/models"
	"github.com/Ramsey-B/trellis/pkg/utils"
)

// Register registers match group routes
func Register(g *echo.Group) {
	g.GET("", ListGroups)
	g.GET("/:id", GetGroup)
	g.POST("/:id/activate", ActivateGroup)
	g.POST("/:id/property", AssignProperty)
}

func actor(c echo.Context) (string, error) {
	userID := appctx.GetUserID(c.Request().Context())
	if userID == "" {
		return "", httperror.NewHTTPError(http.StatusUnauthorized, "missing user identity")
	}
	return userID, nil
}

// ListGroups lists the acting user's match groups
func ListGroups(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := actor(c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*matchgroup.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	groups, err := repo.ListForUser(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.MatchGroupListResponse{
		Items:      groups,
		TotalCount: len(groups),
	})
}

// GetGroup gets a match group by id. Only members may read a group.
func GetGroup(c echo.Context) error {
	ctx := c.Request().Context()
	groupID := c.Param("id")

	userID, err := actor(c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*matchgroup.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	group, err := repo.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.HasMember(userID) {
		return trelliserr.Unauthorized("only a group member may view a group")
	}

	return c.JSON(http.StatusOK, group)
}

// ActivateGroup transitions a forming group to active
func ActivateGroup(c echo.Context) error {
	ctx := c.Request().Context()
	groupID := c.Param("id")

	userID, err := actor(c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	activated, err := service.ActivateGroup(ctx, groupID, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, activated)
}

// AssignProperty attaches a property to a housing group's empty slot. The
// repository enforces that only the group's landlord may do this.
func AssignProperty(c echo.Context) error {
	ctx := c.Request().Context()
	groupID := c.Param("id")

	userID, err := actor(c)
	if err != nil {
		return err
	}

	input, err := utils.BindRequest[models.AssignPropertyRequest](c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*matchgroup.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	group, err := repo.AssignProperty(ctx, groupID, userID, input.PropertyID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, group)
}
