package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookyourshow/internal/handler"
	"github.com/iliyamo/bookyourshow/internal/middleware"
	"github.com/iliyamo/bookyourshow/internal/model"
)

// RegisterAdmin registers the admin surface under /v1/admin.  All routes
// require the admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/dashboard", a.Dashboard)

	g.POST("/movies", a.CreateMovie)
	g.GET("/movies", a.ListMovies)

	g.POST("/theaters", a.CreateTheater)
	g.GET("/theaters", a.ListTheaters)
	g.POST("/theaters/:id/screens", a.CreateScreen)
	g.GET("/theaters/:id/screens", a.ListScreens)

	g.POST("/shows", a.CreateShow)
	g.GET("/shows", a.ListShows)
	g.GET("/shows/:id/seats-booked", a.ShowSeatsBooked)

	g.GET("/reports/bookings", a.BookingsReport())
	g.GET("/reports/revenue/movies", a.MovieRevenueReport())
	g.GET("/reports/revenue/theaters", a.TheaterRevenueReport())
	g.GET("/reports/customers", a.CustomersReport())
	g.GET("/reports/activity", a.ActivityReport())
}
