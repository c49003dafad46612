package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/bookyourshow/internal/database"
	"github.com/iliyamo/bookyourshow/internal/flow"
	"github.com/iliyamo/bookyourshow/internal/model"
	"github.com/iliyamo/bookyourshow/internal/repository"
	"github.com/iliyamo/bookyourshow/internal/service"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// newContext builds an echo context for a JSON request.  A non-zero
// userID is installed the way JWTAuth does it.
func newContext(method, target, body string, userID uint64, role model.Role) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID > 0 {
		c.Set("user_id", userID)
		c.Set("name", "Asha")
		c.Set("role", string(role))
	}
	return c, rec
}

func withParam(c echo.Context, name, value string) echo.Context {
	c.SetParamNames(name)
	c.SetParamValues(value)
	return c
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, name, email, password string, role model.Role, cost int) (uint64, error) {
	args := m.Called(ctx, name, email, password, role, cost)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	return m.Called(ctx, userID, tokenHash, exp).Error(0)
}

func (m *mockTokens) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockTokens) RevokeByHash(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *mockTokens) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return m.Called(ctx, userID).Error(0)
}

type mockMovies struct{ mock.Mock }

func (m *mockMovies) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Movie), args.Error(1)
}

func (m *mockMovies) Search(ctx context.Context, q repository.MovieSearchQuery) ([]model.Movie, int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]model.Movie), args.Get(1).(int64), args.Error(2)
}

func (m *mockMovies) ListNowShowing(ctx context.Context, at time.Time) ([]repository.NowShowing, error) {
	args := m.Called(ctx, at)
	return args.Get(0).([]repository.NowShowing), args.Error(1)
}

func (m *mockMovies) Genres(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockMovies) CountReleased(ctx context.Context, day time.Time) (int64, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMovies) Create(ctx context.Context, mv *model.Movie) error {
	return m.Called(ctx, mv).Error(0)
}

func (m *mockMovies) ListAll(ctx context.Context) ([]model.Movie, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Movie), args.Error(1)
}

type mockTheaters struct{ mock.Mock }

func (m *mockTheaters) Create(ctx context.Context, t *model.Theater) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTheaters) List(ctx context.Context) ([]repository.TheaterListing, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.TheaterListing), args.Error(1)
}

func (m *mockTheaters) CreateScreen(ctx context.Context, s *model.Screen) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockTheaters) ListScreens(ctx context.Context, theaterID uint64) ([]model.Screen, error) {
	args := m.Called(ctx, theaterID)
	return args.Get(0).([]model.Screen), args.Error(1)
}

func (m *mockTheaters) GetByID(ctx context.Context, id uint64) (model.Theater, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Theater), args.Error(1)
}

type mockShows struct{ mock.Mock }

func (m *mockShows) ListUpcomingByMovie(ctx context.Context, movieID uint64, at time.Time) ([]repository.ShowListing, error) {
	args := m.Called(ctx, movieID, at)
	return args.Get(0).([]repository.ShowListing), args.Error(1)
}

func (m *mockShows) GetInfo(ctx context.Context, id uint64) (model.ShowInfo, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.ShowInfo), args.Error(1)
}

func (m *mockShows) Create(ctx context.Context, s *model.Show) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockShows) ListAll(ctx context.Context) ([]repository.ShowListing, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.ShowListing), args.Error(1)
}

type mockSeatMapper struct{ mock.Mock }

func (m *mockSeatMapper) SeatMap(ctx context.Context, showID uint64) (service.SeatMap, error) {
	args := m.Called(ctx, showID)
	return args.Get(0).(service.SeatMap), args.Error(1)
}

type mockBookings struct{ mock.Mock }

func (m *mockBookings) Book(ctx context.Context, req service.BookRequest) (*service.BookResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*service.BookResult)
	return res, args.Error(1)
}

func (m *mockBookings) Cancel(ctx context.Context, bookingID, userID uint64) (*service.CancelResult, error) {
	args := m.Called(ctx, bookingID, userID)
	res, _ := args.Get(0).(*service.CancelResult)
	return res, args.Error(1)
}

func (m *mockBookings) ListForUser(ctx context.Context, userID uint64) ([]repository.BookingSummary, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]repository.BookingSummary), args.Error(1)
}

func (m *mockBookings) GetForUser(ctx context.Context, bookingID, userID uint64) (repository.BookingSummary, error) {
	args := m.Called(ctx, bookingID, userID)
	return args.Get(0).(repository.BookingSummary), args.Error(1)
}

type mockReports struct{ mock.Mock }

func (m *mockReports) rows(ctx context.Context, name string) ([]database.Row, error) {
	args := m.MethodCalled(name, ctx)
	rows, _ := args.Get(0).([]database.Row)
	return rows, args.Error(1)
}

func (m *mockReports) Totals(ctx context.Context) (repository.Totals, error) {
	args := m.Called(ctx)
	return args.Get(0).(repository.Totals), args.Error(1)
}

func (m *mockReports) TopMovies(ctx context.Context, n int) ([]database.Row, error) {
	args := m.Called(ctx, n)
	rows, _ := args.Get(0).([]database.Row)
	return rows, args.Error(1)
}

func (m *mockReports) Bookings(ctx context.Context) ([]database.Row, error) {
	return m.rows(ctx, "Bookings")
}

func (m *mockReports) MovieRevenue(ctx context.Context) ([]database.Row, error) {
	return m.rows(ctx, "MovieRevenue")
}

func (m *mockReports) TheaterRevenue(ctx context.Context) ([]database.Row, error) {
	return m.rows(ctx, "TheaterRevenue")
}

func (m *mockReports) Customers(ctx context.Context) ([]database.Row, error) {
	return m.rows(ctx, "Customers")
}

func (m *mockReports) Activity(ctx context.Context) ([]database.Row, error) {
	return m.rows(ctx, "Activity")
}

func (m *mockReports) SeatsBooked(ctx context.Context, showID uint64) (int64, error) {
	args := m.Called(ctx, showID)
	return args.Get(0).(int64), args.Error(1)
}

type mockActivity struct{ mock.Mock }

func (m *mockActivity) RecentActivity(ctx context.Context, limit int) ([]repository.ActivityEntry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]repository.ActivityEntry), args.Error(1)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Invalidate(ctx context.Context) error { return m.Called(ctx).Error(0) }

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Load(ctx context.Context, userID uint64) (flow.Session, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(flow.Session), args.Bool(1), args.Error(2)
}

func (m *mockSessions) Save(ctx context.Context, sess flow.Session) error {
	return m.Called(ctx, sess).Error(0)
}

func (m *mockSessions) Delete(ctx context.Context, userID uint64) error {
	return m.Called(ctx, userID).Error(0)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }
