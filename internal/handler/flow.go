package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/bookyourshow/internal/flow"
	"github.com/iliyamo/bookyourshow/internal/middleware"
	"github.com/iliyamo/bookyourshow/internal/model"
	"github.com/iliyamo/bookyourshow/internal/repository"
	"github.com/iliyamo/bookyourshow/internal/service"
)

type sessionStore interface {
	Load(ctx context.Context, userID uint64) (flow.Session, bool, error)
	Save(ctx context.Context, sess flow.Session) error
	Delete(ctx context.Context, userID uint64) error
}

type showLookup interface {
	GetInfo(ctx context.Context, id uint64) (model.ShowInfo, error)
}

type movieLookup interface {
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
}

type booker interface {
	Book(ctx context.Context, req service.BookRequest) (*service.BookResult, error)
}

// FlowHandler drives the per-user page state of the booking UI.  Each
// request loads the caller's session, applies one action and stores the
// result.
type FlowHandler struct {
	Sessions sessionStore
	Movies   movieLookup
	Shows    showLookup
	Bookings booker
	Log      *zap.Logger
	now      func() time.Time
}

func NewFlowHandler(sessions sessionStore, movies movieLookup, shows showLookup, bookings booker, log *zap.Logger) *FlowHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FlowHandler{
		Sessions: sessions,
		Movies:   movies,
		Shows:    shows,
		Bookings: bookings,
		Log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// current loads the caller's session or starts one on the home page.
func (h *FlowHandler) current(c echo.Context) (flow.Session, error) {
	uid, _ := middleware.UserID(c)
	sess, ok, err := h.Sessions.Load(c.Request().Context(), uid)
	if err != nil {
		return flow.Session{}, err
	}
	if !ok {
		role, _ := model.ParseRole(middleware.Role(c))
		sess = flow.NewSession(uid, middleware.Name(c), role, h.now())
	}
	return sess, nil
}

// Get returns the caller's current page.
func (h *FlowHandler) Get(c echo.Context) error {
	if _, ok := middleware.UserID(c); !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Sessions == nil {
		return storeUnavailable(c)
	}
	sess, err := h.current(c)
	if err != nil {
		h.Log.Error("load flow session failed", zap.Error(err))
		return internalError(c, "failed to load session")
	}
	return c.JSON(http.StatusOK, echo.Map{"session": sess})
}

// Reset drops the caller's session; the next Get starts at home.
func (h *FlowHandler) Reset(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Sessions == nil {
		return storeUnavailable(c)
	}
	if err := h.Sessions.Delete(c.Request().Context(), uid); err != nil {
		h.Log.Error("delete flow session failed", zap.Error(err))
		return internalError(c, "failed to reset session")
	}
	return c.NoContent(http.StatusNoContent)
}

type actionReq struct {
	Type      flow.ActionType `json:"type"`
	MovieID   uint64          `json:"movie_id"`
	ShowID    uint64          `json:"show_id"`
	Seat      string          `json:"seat"`
	BookingID uint64          `json:"booking_id"`
}

// Act applies one action to the caller's session.
// POST /v1/flow/actions {type, movie_id, show_id, seat, booking_id}
func (h *FlowHandler) Act(c echo.Context) error {
	if _, ok := middleware.UserID(c); !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Sessions == nil {
		return storeUnavailable(c)
	}
	var req actionReq
	if err := c.Bind(&req); err != nil || req.Type == "" {
		return badRequest(c, "action type required")
	}
	if req.Type == flow.ActConfirmed {
		// Only a successful payment may confirm.
		return c.JSON(http.StatusConflict, echo.Map{"error": "use /v1/flow/pay to confirm a booking"})
	}

	sess, err := h.current(c)
	if err != nil {
		h.Log.Error("load flow session failed", zap.Error(err))
		return internalError(c, "failed to load session")
	}

	ctx := c.Request().Context()
	a := flow.Action{
		Type:      req.Type,
		MovieID:   req.MovieID,
		ShowID:    req.ShowID,
		Seat:      req.Seat,
		BookingID: req.BookingID,
		At:        h.now(),
	}
	if status, msg := h.prepare(ctx, sess, &a); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}

	next, err := flow.Apply(sess, a)
	if err != nil {
		return flowError(c, err)
	}
	if err := h.Sessions.Save(ctx, next); err != nil {
		h.Log.Error("save flow session failed", zap.Error(err))
		return internalError(c, "failed to save session")
	}
	return c.JSON(http.StatusOK, echo.Map{"session": next})
}

// prepare checks referenced movies and shows against the catalog and
// prices the selection for proceed_to_payment.  It returns a non-zero
// status when the action must be rejected.
func (h *FlowHandler) prepare(ctx context.Context, sess flow.Session, a *flow.Action) (int, string) {
	switch a.Type {
	case flow.ActSelectMovie:
		if a.MovieID == 0 {
			return 0, ""
		}
		if _, err := h.Movies.GetByID(ctx, a.MovieID); err != nil {
			if errors.Is(err, repository.ErrMovieNotFound) {
				return http.StatusNotFound, "movie not found"
			}
			return http.StatusInternalServerError, "failed to load movie"
		}

	case flow.ActSelectShow:
		page, ok := sess.Page.(flow.MovieDetails)
		if !ok || a.ShowID == 0 {
			return 0, ""
		}
		show, status, msg := h.show(ctx, a.ShowID)
		if status != 0 {
			return status, msg
		}
		if show.MovieID != page.MovieID {
			return http.StatusBadRequest, "show does not belong to the selected movie"
		}
		if show.Started(a.At) {
			return http.StatusConflict, "show has already started"
		}

	case flow.ActToggleSeat:
		page, ok := sess.Page.(flow.SeatSelection)
		if !ok {
			return 0, ""
		}
		show, status, msg := h.show(ctx, page.ShowID)
		if status != 0 {
			return status, msg
		}
		if !model.SeatInRange(model.NormalizeSeatLabel(a.Seat), show.TotalSeats) {
			return http.StatusBadRequest, "seat does not exist on this screen"
		}

	case flow.ActProceedToPayment:
		page, ok := sess.Page.(flow.SeatSelection)
		if !ok {
			return 0, ""
		}
		show, status, msg := h.show(ctx, page.ShowID)
		if status != 0 {
			return status, msg
		}
		a.Amount = show.Price.Mul(decimal.NewFromInt(int64(len(page.Seats))))
	}
	return 0, ""
}

func (h *FlowHandler) show(ctx context.Context, id uint64) (model.ShowInfo, int, string) {
	show, err := h.Shows.GetInfo(ctx, id)
	if errors.Is(err, repository.ErrShowNotFound) {
		return model.ShowInfo{}, http.StatusNotFound, "show not found"
	}
	if err != nil {
		return model.ShowInfo{}, http.StatusInternalServerError, "failed to load show"
	}
	return show, 0, ""
}

type payReq struct {
	PaymentMode string `json:"payment_mode"`
}

// Pay books the seats on the payment page and moves the caller to the
// confirmation page.  A failed booking leaves the session unchanged.
// POST /v1/flow/pay {payment_mode}
func (h *FlowHandler) Pay(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Sessions == nil {
		return storeUnavailable(c)
	}
	var req payReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	sess, err := h.current(c)
	if err != nil {
		h.Log.Error("load flow session failed", zap.Error(err))
		return internalError(c, "failed to load session")
	}
	page, ok := sess.Page.(flow.Payment)
	if !ok {
		return c.JSON(http.StatusConflict, echo.Map{"error": "not on the payment page"})
	}

	ctx := c.Request().Context()
	res, err := h.Bookings.Book(ctx, service.BookRequest{
		UserID:      uid,
		ShowID:      page.ShowID,
		Seats:       page.Seats,
		PaymentMode: req.PaymentMode,
	})
	if err != nil {
		return bookError(c, h.Log, err)
	}

	next, err := flow.Apply(sess, flow.Action{Type: flow.ActConfirmed, BookingID: res.BookingID, At: h.now()})
	if err != nil {
		return flowError(c, err)
	}
	if err := h.Sessions.Save(ctx, next); err != nil {
		// The booking is committed; the client can still see it under /v1/bookings.
		h.Log.Error("save flow session failed", zap.Uint64("booking_id", res.BookingID), zap.Error(err))
	}
	return c.JSON(http.StatusCreated, echo.Map{"session": next, "booking": bookResultJSON(res)})
}

// storeUnavailable answers flow requests while Redis is down.
func storeUnavailable(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session store unavailable"})
}

func flowError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, flow.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, flow.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	return internalError(c, "flow update failed")
}
