package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/bookyourshow/internal/model"
	"github.com/iliyamo/bookyourshow/internal/repository"
	"github.com/iliyamo/bookyourshow/internal/service"
)

type movieCatalog interface {
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
	Search(ctx context.Context, q repository.MovieSearchQuery) ([]model.Movie, int64, error)
	ListNowShowing(ctx context.Context, now time.Time) ([]repository.NowShowing, error)
	Genres(ctx context.Context) ([]string, error)
	CountReleased(ctx context.Context, day time.Time) (int64, error)
}

type theaterCatalog interface {
	List(ctx context.Context) ([]repository.TheaterListing, error)
}

type showCatalog interface {
	ListUpcomingByMovie(ctx context.Context, movieID uint64, now time.Time) ([]repository.ShowListing, error)
}

type seatMapper interface {
	SeatMap(ctx context.Context, showID uint64) (service.SeatMap, error)
}

// BrowseHandler serves the public catalog: movies, theaters and seat maps.
type BrowseHandler struct {
	Movies   movieCatalog
	Theaters theaterCatalog
	Shows    showCatalog
	Seats    seatMapper
	now      func() time.Time
}

func NewBrowseHandler(movies movieCatalog, theaters theaterCatalog, shows showCatalog, seats seatMapper) *BrowseHandler {
	return &BrowseHandler{
		Movies:   movies,
		Theaters: theaters,
		Shows:    shows,
		Seats:    seats,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NowShowing lists movies with upcoming shows and the genre filter values
// for the home page.
func (h *BrowseHandler) NowShowing(c echo.Context) error {
	ctx := c.Request().Context()
	list, err := h.Movies.ListNowShowing(ctx, h.now())
	if err != nil {
		return internalError(c, "failed to load movies")
	}
	genres, err := h.Movies.Genres(ctx)
	if err != nil {
		return internalError(c, "failed to load genres")
	}
	movies := make([]echo.Map, 0, len(list))
	for _, n := range list {
		m := movieJSON(n.Movie)
		m["show_count"] = n.ShowCount
		movies = append(movies, m)
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": movies, "genres": genres})
}

// SearchMovies filters movies by title text, genre and minimum rating.
// GET /v1/movies?q=&genre=&rating=&page=&page_size=
func (h *BrowseHandler) SearchMovies(c echo.Context) error {
	q := repository.MovieSearchQuery{
		Text:     strings.TrimSpace(c.QueryParam("q")),
		Genre:    strings.TrimSpace(c.QueryParam("genre")),
		Page:     queryInt(c, "page", defaultPage),
		PageSize: queryInt(c, "page_size", defaultPerPage),
	}
	if q.PageSize > maxPerPage {
		q.PageSize = maxPerPage
	}
	if raw := strings.TrimSpace(c.QueryParam("rating")); raw != "" {
		r, err := decimal.NewFromString(raw)
		if err != nil || r.IsNegative() {
			return badRequest(c, "invalid rating")
		}
		q.MinRating = &r
	}

	list, total, err := h.Movies.Search(c.Request().Context(), q)
	if err != nil {
		return internalError(c, "search failed")
	}
	movies := make([]echo.Map, 0, len(list))
	for _, m := range list {
		movies = append(movies, movieJSON(m))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"movies":    movies,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

// GetMovie returns one movie with its upcoming shows and their
// availability.
func (h *BrowseHandler) GetMovie(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid movie id")
	}
	ctx := c.Request().Context()
	m, err := h.Movies.GetByID(ctx, id)
	if errors.Is(err, repository.ErrMovieNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	if err != nil {
		return internalError(c, "failed to load movie")
	}
	listings, err := h.Shows.ListUpcomingByMovie(ctx, id, h.now())
	if err != nil {
		return internalError(c, "failed to load shows")
	}
	shows := make([]echo.Map, 0, len(listings))
	for _, l := range listings {
		shows = append(shows, showListingJSON(l))
	}
	return c.JSON(http.StatusOK, echo.Map{"movie": movieJSON(m), "shows": shows})
}

// ReleasedCount returns how many movies are released as of today.
// Clients poll it to notice new releases.
func (h *BrowseHandler) ReleasedCount(c echo.Context) error {
	today := h.now()
	n, err := h.Movies.CountReleased(c.Request().Context(), today)
	if err != nil {
		return internalError(c, "failed to count movies")
	}
	return c.JSON(http.StatusOK, echo.Map{"count": n, "date": today.Format(dateLayout)})
}

// ListTheaters returns every theater with its screen count.
func (h *BrowseHandler) ListTheaters(c echo.Context) error {
	list, err := h.Theaters.List(c.Request().Context())
	if err != nil {
		return internalError(c, "failed to load theaters")
	}
	out := make([]echo.Map, 0, len(list))
	for _, l := range list {
		t := theaterJSON(l.Theater)
		t["screen_count"] = l.ScreenCount
		out = append(out, t)
	}
	return c.JSON(http.StatusOK, echo.Map{"theaters": out})
}

// ShowSeats returns the seat map of a show.
func (h *BrowseHandler) ShowSeats(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	m, err := h.Seats.SeatMap(c.Request().Context(), id)
	if errors.Is(err, service.ErrShowNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
	}
	if err != nil {
		return internalError(c, "failed to load seats")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"show":      showInfoJSON(m.Show),
		"rows":      m.Rows,
		"occupied":  m.Occupied,
		"available": m.Available,
		"started":   m.Started,
	})
}
