package contact

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/trellis/pkg/context"
	"github.com/Ramsey-B/trellis/pkg/disclosure"
)

// Register registers contact disclosure routes
func Register(g *echo.Group) {
	g.GET("/:id/contact", RevealContact)
}

// RevealContact returns the counterpart's contact info for a group the acting
// user belongs to
func RevealContact(c echo.Context) error {
	ctx := c.Request().Context()
	groupID := c.Param("id")

	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "missing user identity")
	}

	ctx, gate, err := ectoinject.GetContext[*disclosure.Gate](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	info, err := gate.Reveal(ctx, groupID, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, info)
}
