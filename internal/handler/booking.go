package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bookyourshow/internal/middleware"
	"github.com/iliyamo/bookyourshow/internal/repository"
	"github.com/iliyamo/bookyourshow/internal/service"
)

type bookingService interface {
	Book(ctx context.Context, req service.BookRequest) (*service.BookResult, error)
	Cancel(ctx context.Context, bookingID, userID uint64) (*service.CancelResult, error)
	ListForUser(ctx context.Context, userID uint64) ([]repository.BookingSummary, error)
	GetForUser(ctx context.Context, bookingID, userID uint64) (repository.BookingSummary, error)
}

// BookingHandler exposes a customer's bookings.
type BookingHandler struct {
	Bookings bookingService
	Log      *zap.Logger
}

func NewBookingHandler(svc bookingService, log *zap.Logger) *BookingHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingHandler{Bookings: svc, Log: log}
}

type createBookingReq struct {
	ShowID      uint64   `json:"show_id"`
	Seats       []string `json:"seats"`
	PaymentMode string   `json:"payment_mode"`
}

func bookResultJSON(r *service.BookResult) echo.Map {
	return echo.Map{
		"booking_id":      r.BookingID,
		"show_id":         r.ShowID,
		"movie_title":     r.MovieTitle,
		"theater_name":    r.TheaterName,
		"screen_name":     r.ScreenName,
		"show_time":       r.ShowTime,
		"seats":           r.Seats,
		"total_amount":    money(r.TotalAmount),
		"payment_mode":    r.PaymentMode,
		"transaction_ref": r.TransactionRef,
	}
}

// bookError maps a Book failure to its response.
func bookError(c echo.Context, log *zap.Logger, err error) error {
	var conflict *service.SeatConflictError
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    "seats already booked",
			"seats":    conflict.Seats,
			"messages": conflict.Messages(),
		})
	case errors.Is(err, service.ErrNoSeats),
		errors.Is(err, service.ErrInvalidPaymentMode),
		errors.Is(err, service.ErrInvalidSeats):
		return badRequest(c, err.Error())
	case errors.Is(err, service.ErrShowNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
	case errors.Is(err, service.ErrShowStarted):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	log.Error("booking failed", zap.Error(err))
	return internalError(c, "booking failed")
}

// Create books seats for the authenticated user.
// POST /v1/bookings {show_id, seats, payment_mode}
func (h *BookingHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.ShowID == 0 {
		return badRequest(c, "show_id required")
	}

	res, err := h.Bookings.Book(c.Request().Context(), service.BookRequest{
		UserID:      uid,
		ShowID:      req.ShowID,
		Seats:       req.Seats,
		PaymentMode: req.PaymentMode,
	})
	if err != nil {
		return bookError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, bookResultJSON(res))
}

// List returns the authenticated user's bookings, newest first.
func (h *BookingHandler) List(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Bookings.ListForUser(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("list bookings failed", zap.Uint64("user_id", uid), zap.Error(err))
		return internalError(c, "failed to load bookings")
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// Get returns one booking of the authenticated user.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	b, err := h.Bookings.GetForUser(c.Request().Context(), id, uid)
	if errors.Is(err, service.ErrBookingNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	if err != nil {
		return internalError(c, "failed to load booking")
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel cancels a confirmed booking of the authenticated user before
// its show starts.  Failures carry a machine-readable code.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}

	res, err := h.Bookings.Cancel(c.Request().Context(), id, uid)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{
			"success":      true,
			"booking_id":   res.BookingID,
			"message":      res.Message,
			"cancelled_at": res.CancelledAt,
		})
	case errors.Is(err, service.ErrBookingNotFound):
		return cancelError(c, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
	case errors.Is(err, service.ErrAlreadyCancelled):
		return cancelError(c, http.StatusConflict, "ALREADY_CANCELLED", "Booking is already cancelled")
	case errors.Is(err, service.ErrShowStarted):
		return cancelError(c, http.StatusPreconditionFailed, "SHOW_PAST", "Cannot cancel after the show has started")
	}
	h.Log.Error("cancel booking failed", zap.Uint64("booking_id", id), zap.Error(err))
	return cancelError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Cancellation failed, please try again later")
}

func cancelError(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "code": code, "error": msg})
}
