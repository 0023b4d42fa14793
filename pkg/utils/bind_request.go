package utils

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
)

// BindRequest binds and validates the request body into a value of type T.
func BindRequest[T any](c echo.Context) (T, error) {
	var request T
	if err := c.Bind(&request); err != nil {
		return request, httperror.WrapError(http.StatusBadRequest, err)
	}

	request, err := Validate(request)
	if err != nil {
		return request, httperror.WrapError(http.StatusBadRequest, err)
	}

	return request, nil
}
