package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/api"
)

// NewTestEcho はテスト用のEchoインスタンスを作成する
func NewTestEcho() *echo.Echo {
	e := echo.New()
	e.Binder = api.NewBinder()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	return e
}
