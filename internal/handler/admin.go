package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/bookyourshow/internal/database"
	"github.com/iliyamo/bookyourshow/internal/model"
	"github.com/iliyamo/bookyourshow/internal/repository"
)

type movieAdmin interface {
	Create(ctx context.Context, m *model.Movie) error
	ListAll(ctx context.Context) ([]model.Movie, error)
}

type theaterAdmin interface {
	Create(ctx context.Context, t *model.Theater) error
	List(ctx context.Context) ([]repository.TheaterListing, error)
	CreateScreen(ctx context.Context, s *model.Screen) error
	ListScreens(ctx context.Context, theaterID uint64) ([]model.Screen, error)
	GetByID(ctx context.Context, id uint64) (model.Theater, error)
}

type showAdmin interface {
	Create(ctx context.Context, s *model.Show) error
	ListAll(ctx context.Context) ([]repository.ShowListing, error)
}

type reportSource interface {
	Totals(ctx context.Context) (repository.Totals, error)
	TopMovies(ctx context.Context, n int) ([]database.Row, error)
	Bookings(ctx context.Context) ([]database.Row, error)
	MovieRevenue(ctx context.Context) ([]database.Row, error)
	TheaterRevenue(ctx context.Context) ([]database.Row, error)
	Customers(ctx context.Context) ([]database.Row, error)
	Activity(ctx context.Context) ([]database.Row, error)
	SeatsBooked(ctx context.Context, showID uint64) (int64, error)
}

type activityFeed interface {
	RecentActivity(ctx context.Context, limit int) ([]repository.ActivityEntry, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

const (
	dashboardTopMovies = 3
	dashboardActivity  = 10
	maxScreenSeats     = 500
)

// AdminHandler serves the admin dashboard, catalog management and reports.
type AdminHandler struct {
	Movies   movieAdmin
	Theaters theaterAdmin
	Shows    showAdmin
	Reports  reportSource
	Activity activityFeed
	Cache    cacheInvalidator
	Log      *zap.Logger
}

func NewAdminHandler(movies movieAdmin, theaters theaterAdmin, shows showAdmin, reports reportSource,
	activity activityFeed, cache cacheInvalidator, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{
		Movies:   movies,
		Theaters: theaters,
		Shows:    shows,
		Reports:  reports,
		Activity: activity,
		Cache:    cache,
		Log:      log,
	}
}

// invalidate drops cached catalog responses after a write.  Failure only
// delays visibility until the entries expire.
func (h *AdminHandler) invalidate(ctx context.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Invalidate(ctx); err != nil {
		h.Log.Warn("cache invalidation failed", zap.Error(err))
	}
}

// Dashboard returns revenue and booking totals, the best-selling movies
// and the latest activity.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	totals, err := h.Reports.Totals(ctx)
	if err != nil {
		h.Log.Error("dashboard totals failed", zap.Error(err))
		return internalError(c, "failed to load dashboard")
	}
	top, err := h.Reports.TopMovies(ctx, dashboardTopMovies)
	if err != nil {
		h.Log.Error("dashboard top movies failed", zap.Error(err))
		return internalError(c, "failed to load dashboard")
	}
	recent, err := h.Activity.RecentActivity(ctx, dashboardActivity)
	if err != nil {
		h.Log.Error("dashboard activity failed", zap.Error(err))
		return internalError(c, "failed to load dashboard")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_revenue":   money(totals.Revenue),
		"total_bookings":  totals.Bookings,
		"top_movies":      top,
		"recent_activity": recent,
	})
}

type createMovieReq struct {
	Title       string          `json:"title"`
	Genre       string          `json:"genre"`
	DurationMin int             `json:"duration_min"`
	Rating      decimal.Decimal `json:"rating"`
	ReleaseDate string          `json:"release_date"`
	Description string          `json:"description"`
}

// CreateMovie adds a movie to the catalog.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var req createMovieReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Genre = strings.TrimSpace(req.Genre)
	if req.Title == "" || req.Genre == "" {
		return badRequest(c, "title and genre required")
	}
	if req.DurationMin <= 0 {
		return badRequest(c, "duration_min must be positive")
	}
	if req.Rating.IsNegative() || req.Rating.GreaterThan(decimal.NewFromInt(10)) {
		return badRequest(c, "rating must be between 0 and 10")
	}
	released, err := time.Parse(dateLayout, strings.TrimSpace(req.ReleaseDate))
	if err != nil {
		return badRequest(c, "release_date must be YYYY-MM-DD")
	}

	m := model.Movie{
		Title:       req.Title,
		Genre:       req.Genre,
		DurationMin: req.DurationMin,
		Rating:      req.Rating.Round(1),
		ReleaseDate: released,
		Description: strings.TrimSpace(req.Description),
	}
	ctx := c.Request().Context()
	if err := h.Movies.Create(ctx, &m); err != nil {
		h.Log.Error("create movie failed", zap.Error(err))
		return internalError(c, "create movie failed")
	}
	h.invalidate(ctx)
	return c.JSON(http.StatusCreated, movieJSON(m))
}

// ListMovies returns the whole catalog.
func (h *AdminHandler) ListMovies(c echo.Context) error {
	list, err := h.Movies.ListAll(c.Request().Context())
	if err != nil {
		return internalError(c, "failed to load movies")
	}
	out := make([]echo.Map, 0, len(list))
	for _, m := range list {
		out = append(out, movieJSON(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": out})
}

type createTheaterReq struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// CreateTheater adds a theater.
func (h *AdminHandler) CreateTheater(c echo.Context) error {
	var req createTheaterReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	t := model.Theater{Name: strings.TrimSpace(req.Name), Location: strings.TrimSpace(req.Location)}
	if t.Name == "" || t.Location == "" {
		return badRequest(c, "name and location required")
	}
	ctx := c.Request().Context()
	if err := h.Theaters.Create(ctx, &t); err != nil {
		h.Log.Error("create theater failed", zap.Error(err))
		return internalError(c, "create theater failed")
	}
	h.invalidate(ctx)
	return c.JSON(http.StatusCreated, theaterJSON(t))
}

// ListTheaters returns theaters with their screen counts.
func (h *AdminHandler) ListTheaters(c echo.Context) error {
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

type createScreenReq struct {
	Name       string `json:"screen_name"`
	TotalSeats int    `json:"total_seats"`
}

// CreateScreen adds a screen to a theater.
// POST /v1/admin/theaters/:id/screens
func (h *AdminHandler) CreateScreen(c echo.Context) error {
	theaterID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid theater id")
	}
	var req createScreenReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	s := model.Screen{TheaterID: theaterID, Name: strings.TrimSpace(req.Name), TotalSeats: req.TotalSeats}
	if s.Name == "" {
		return badRequest(c, "screen_name required")
	}
	if s.TotalSeats < 1 || s.TotalSeats > maxScreenSeats {
		return badRequest(c, "total_seats must be between 1 and 500")
	}

	ctx := c.Request().Context()
	switch err := h.Theaters.CreateScreen(ctx, &s); {
	case errors.Is(err, repository.ErrTheaterNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "theater not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "screen name already exists in this theater"})
	case err != nil:
		h.Log.Error("create screen failed", zap.Error(err))
		return internalError(c, "create screen failed")
	}
	h.invalidate(ctx)
	return c.JSON(http.StatusCreated, screenJSON(s))
}

// ListScreens returns the screens of one theater.
func (h *AdminHandler) ListScreens(c echo.Context) error {
	theaterID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid theater id")
	}
	ctx := c.Request().Context()
	t, err := h.Theaters.GetByID(ctx, theaterID)
	if errors.Is(err, repository.ErrTheaterNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "theater not found"})
	}
	if err != nil {
		return internalError(c, "failed to load theater")
	}
	screens, err := h.Theaters.ListScreens(ctx, theaterID)
	if err != nil {
		return internalError(c, "failed to load screens")
	}
	out := make([]echo.Map, 0, len(screens))
	for _, s := range screens {
		out = append(out, screenJSON(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"theater": theaterJSON(t), "screens": out})
}

type createShowReq struct {
	MovieID  uint64          `json:"movie_id"`
	ScreenID uint64          `json:"screen_id"`
	ShowTime time.Time       `json:"show_time"`
	Price    decimal.Decimal `json:"price"`
}

// CreateShow schedules a movie on a screen.  show_time is RFC 3339.
func (h *AdminHandler) CreateShow(c echo.Context) error {
	var req createShowReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.MovieID == 0 || req.ScreenID == 0 {
		return badRequest(c, "movie_id and screen_id required")
	}
	if req.ShowTime.IsZero() {
		return badRequest(c, "show_time required")
	}
	if !req.Price.IsPositive() {
		return badRequest(c, "price must be positive")
	}

	s := model.Show{MovieID: req.MovieID, ScreenID: req.ScreenID, ShowTime: req.ShowTime.UTC(), Price: req.Price.Round(2)}
	ctx := c.Request().Context()
	if err := h.Shows.Create(ctx, &s); err != nil {
		if errors.Is(err, repository.ErrReference) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie or screen not found"})
		}
		h.Log.Error("create show failed", zap.Error(err))
		return internalError(c, "create show failed")
	}
	h.invalidate(ctx)
	return c.JSON(http.StatusCreated, echo.Map{
		"id":        s.ID,
		"movie_id":  s.MovieID,
		"screen_id": s.ScreenID,
		"show_time": s.ShowTime,
		"price":     money(s.Price),
	})
}

// ListShows returns every show with its booked seat count.
func (h *AdminHandler) ListShows(c echo.Context) error {
	list, err := h.Shows.ListAll(c.Request().Context())
	if err != nil {
		return internalError(c, "failed to load shows")
	}
	out := make([]echo.Map, 0, len(list))
	for _, l := range list {
		out = append(out, showListingJSON(l))
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": out})
}

// ShowSeatsBooked returns the confirmed seat count of one show.
func (h *AdminHandler) ShowSeatsBooked(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	n, err := h.Reports.SeatsBooked(c.Request().Context(), id)
	if err != nil {
		return internalError(c, "failed to count seats")
	}
	return c.JSON(http.StatusOK, echo.Map{"show_id": id, "seats_booked": n})
}

// report adapts a row-returning query to a handler.
func (h *AdminHandler) report(name string, load func(context.Context) ([]database.Row, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		rows, err := load(c.Request().Context())
		if err != nil {
			h.Log.Error("report failed", zap.String("report", name), zap.Error(err))
			return internalError(c, "failed to load report")
		}
		if rows == nil {
			rows = []database.Row{}
		}
		return c.JSON(http.StatusOK, echo.Map{"report": name, "rows": rows})
	}
}

func (h *AdminHandler) BookingsReport() echo.HandlerFunc {
	return h.report("bookings", h.Reports.Bookings)
}

func (h *AdminHandler) MovieRevenueReport() echo.HandlerFunc {
	return h.report("movie_revenue", h.Reports.MovieRevenue)
}

func (h *AdminHandler) TheaterRevenueReport() echo.HandlerFunc {
	return h.report("theater_revenue", h.Reports.TheaterRevenue)
}

func (h *AdminHandler) CustomersReport() echo.HandlerFunc {
	return h.report("customers", h.Reports.Customers)
}

func (h *AdminHandler) ActivityReport() echo.HandlerFunc {
	return h.report("activity", h.Reports.Activity)
}
