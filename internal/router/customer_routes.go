package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookyourshow/internal/handler"
	"github.com/iliyamo/bookyourshow/internal/middleware"
	"github.com/iliyamo/bookyourshow/internal/model"
)

// RegisterCustomer registers booking management and the booking UI flow.
// Every route requires a valid access token; admins may book too.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, f *handler.FlowHandler, jwtSecret string) {
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	}

	g := e.Group("/v1/bookings", auth...)
	g.POST("", b.Create)
	g.GET("", b.List)
	g.GET("/:id", b.Get)
	g.POST("/:id/cancel", b.Cancel)
	g.DELETE("/:id", b.Cancel)

	fg := e.Group("/v1/flow", auth...)
	fg.GET("", f.Get)
	fg.DELETE("", f.Reset)
	fg.POST("/actions", f.Act)
	fg.POST("/pay", f.Pay)
}
