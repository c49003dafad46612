package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookyourshow/internal/handler"
	"github.com/iliyamo/bookyourshow/internal/middleware"
)

// RegisterRoutes registers the operational endpoints: the health check and
// the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, health *handler.HealthHandler, metrics http.Handler) {
	e.GET("/healthz", health.Health)
	e.GET("/metrics", echo.WrapHandler(metrics))
}

// RegisterAuth registers registration, login and token endpoints under
// /v1/auth and the protected /v1/me.  Logout accepts either a bearer token
// or a refresh token, so it is not behind JWTAuth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers the unauthenticated catalog.  cache wraps the
// read-mostly listings.  Movie details carry per-show seat counts, so
// they, released-count and seat maps always hit the database.
func RegisterPublic(e *echo.Echo, b *handler.BrowseHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/movies", b.SearchMovies, cache)
	e.GET("/v1/movies/now-showing", b.NowShowing, cache)
	e.GET("/v1/movies/released-count", b.ReleasedCount)
	e.GET("/v1/movies/:id", b.GetMovie)
	e.GET("/v1/theaters", b.ListTheaters, cache)
	e.GET("/v1/shows/:id/seats", b.ShowSeats)
}
