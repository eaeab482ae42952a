package handlers

import (
	"github.com/labstack/echo/v4"
)

type errorBody struct {
	Error string `json:"error"`
}

func errorResponse(c echo.Context, code int, message string) error {
	return c.JSON(code, errorBody{Error: message})
}
