// Package handler exposes the HTTP handlers for the public catalog, auth,
// bookings, the admin surface and the booking UI flow.  Handlers validate
// input, call a repository or service and build echo.Map responses.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/bookyourshow/internal/model"
	"github.com/iliyamo/bookyourshow/internal/repository"
)

const (
	dateLayout     = "2006-01-02"
	authTimeout    = 5 * time.Second
	defaultPage    = 1
	defaultPerPage = 20
	maxPerPage     = 100
)

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func internalError(c echo.Context, msg string) error {
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// queryInt reads a positive integer query parameter, falling back to def
// when it is absent or malformed.
func queryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func movieJSON(m model.Movie) echo.Map {
	return echo.Map{
		"id":           m.ID,
		"title":        m.Title,
		"genre":        m.Genre,
		"duration_min": m.DurationMin,
		"rating":       m.Rating.StringFixed(1),
		"release_date": m.ReleaseDate.Format(dateLayout),
		"description":  m.Description,
	}
}

func showInfoJSON(si model.ShowInfo) echo.Map {
	return echo.Map{
		"id":           si.ID,
		"movie_id":     si.MovieID,
		"movie_title":  si.MovieTitle,
		"screen_id":    si.ScreenID,
		"screen_name":  si.ScreenName,
		"theater_id":   si.TheaterID,
		"theater_name": si.TheaterName,
		"show_time":    si.ShowTime,
		"price":        money(si.Price),
		"total_seats":  si.TotalSeats,
	}
}

func showListingJSON(l repository.ShowListing) echo.Map {
	m := showInfoJSON(l.Info)
	m["booked_seats"] = l.Booked
	m["seats_available"] = l.Available()
	return m
}

func theaterJSON(t model.Theater) echo.Map {
	return echo.Map{"id": t.ID, "name": t.Name, "location": t.Location}
}

func screenJSON(s model.Screen) echo.Map {
	return echo.Map{"id": s.ID, "theater_id": s.TheaterID, "screen_name": s.Name, "total_seats": s.TotalSeats}
}
