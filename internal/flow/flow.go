// Package flow models the reactive UI session of one user: the page the
// client is on and the selections made so far.  Sessions are values;
// Apply derives the next session from an action without touching the
// one it was given.
package flow

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bookyourshow/internal/model"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed on
	// the current page or lacks a required field.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrForbidden is returned when a customer asks for the admin page.
	ErrForbidden = errors.New("forbidden")
)

// PageKind tags the variants of Page.
type PageKind string

const (
	KindHome          PageKind = "home"
	KindMovieDetails  PageKind = "movie_details"
	KindSeatSelection PageKind = "seat_selection"
	KindPayment       PageKind = "payment"
	KindConfirmation  PageKind = "confirmation"
	KindProfile       PageKind = "profile"
	KindAdmin         PageKind = "admin"
)

// Page is one of Home, MovieDetails, SeatSelection, Payment,
// Confirmation, Profile or Admin.
type Page interface {
	Kind() PageKind
	page()
}

type Home struct{}

type MovieDetails struct {
	MovieID uint64
}

type SeatSelection struct {
	MovieID uint64
	ShowID  uint64
	Seats   []string
}

type Payment struct {
	MovieID uint64
	ShowID  uint64
	Seats   []string
	Amount  decimal.Decimal
}

type Confirmation struct {
	BookingID uint64
}

type Profile struct{}

type Admin struct{}

func (Home) Kind() PageKind          { return KindHome }
func (MovieDetails) Kind() PageKind  { return KindMovieDetails }
func (SeatSelection) Kind() PageKind { return KindSeatSelection }
func (Payment) Kind() PageKind       { return KindPayment }
func (Confirmation) Kind() PageKind  { return KindConfirmation }
func (Profile) Kind() PageKind       { return KindProfile }
func (Admin) Kind() PageKind         { return KindAdmin }

func (Home) page()          {}
func (MovieDetails) page()  {}
func (SeatSelection) page() {}
func (Payment) page()       {}
func (Confirmation) page()  {}
func (Profile) page()       {}
func (Admin) page()         {}

// Session is the UI state of one user.  Version grows by one with every
// applied action.
type Session struct {
	UserID    uint64
	Name      string
	Role      model.Role
	Page      Page
	Version   int64
	UpdatedAt time.Time
}

// NewSession starts a user on the home page.
func NewSession(userID uint64, name string, role model.Role, now time.Time) Session {
	return Session{UserID: userID, Name: name, Role: role, Page: Home{}, UpdatedAt: now}
}

// ActionType names a user action.
type ActionType string

const (
	ActSelectMovie      ActionType = "select_movie"
	ActSelectShow       ActionType = "select_show"
	ActToggleSeat       ActionType = "toggle_seat"
	ActProceedToPayment ActionType = "proceed_to_payment"
	ActConfirmed        ActionType = "confirmed"
	ActBack             ActionType = "back"
	ActHome             ActionType = "home"
	ActProfile          ActionType = "profile"
	ActAdmin            ActionType = "admin"
)

// Action is a user intent.  Only the fields of its Type are read.
// Amount is the price of the selected seats for proceed_to_payment and
// At stamps the resulting session.
type Action struct {
	Type      ActionType
	MovieID   uint64
	ShowID    uint64
	Seat      string
	BookingID uint64
	Amount    decimal.Decimal
	At        time.Time
}

// Apply returns the session that results from a on s.
func Apply(s Session, a Action) (Session, error) {
	next, err := transition(s, a)
	if err != nil {
		return s, err
	}
	out := s
	out.Page = next
	out.Version = s.Version + 1
	out.UpdatedAt = a.At
	return out, nil
}

func invalid(a Action, p Page, reason string) error {
	return fmt.Errorf("%w: %s on %s: %s", ErrInvalidTransition, a.Type, pageKind(p), reason)
}

func pageKind(p Page) PageKind {
	if p == nil {
		return KindHome
	}
	return p.Kind()
}

func transition(s Session, a Action) (Page, error) {
	switch a.Type {
	case ActHome:
		return Home{}, nil
	case ActProfile:
		return Profile{}, nil
	case ActAdmin:
		if s.Role != model.RoleAdmin {
			return nil, ErrForbidden
		}
		return Admin{}, nil

	case ActSelectMovie:
		if a.MovieID == 0 {
			return nil, invalid(a, s.Page, "movie_id required")
		}
		if _, paying := s.Page.(Payment); paying {
			return nil, invalid(a, s.Page, "go back before leaving payment")
		}
		return MovieDetails{MovieID: a.MovieID}, nil

	case ActSelectShow:
		p, ok := s.Page.(MovieDetails)
		if !ok {
			return nil, invalid(a, s.Page, "select a movie first")
		}
		if a.ShowID == 0 {
			return nil, invalid(a, s.Page, "show_id required")
		}
		return SeatSelection{MovieID: p.MovieID, ShowID: a.ShowID}, nil

	case ActToggleSeat:
		p, ok := s.Page.(SeatSelection)
		if !ok {
			return nil, invalid(a, s.Page, "select a show first")
		}
		seat := model.NormalizeSeatLabel(a.Seat)
		if _, ok := model.SeatIndex(seat); !ok {
			return nil, invalid(a, s.Page, "bad seat label")
		}
		return SeatSelection{MovieID: p.MovieID, ShowID: p.ShowID, Seats: toggle(p.Seats, seat)}, nil

	case ActProceedToPayment:
		p, ok := s.Page.(SeatSelection)
		if !ok {
			return nil, invalid(a, s.Page, "select seats first")
		}
		if len(p.Seats) == 0 {
			return nil, invalid(a, s.Page, "no seats selected")
		}
		if a.Amount.IsNegative() {
			return nil, invalid(a, s.Page, "negative amount")
		}
		return Payment{MovieID: p.MovieID, ShowID: p.ShowID, Seats: slices.Clone(p.Seats), Amount: a.Amount}, nil

	case ActConfirmed:
		if _, ok := s.Page.(Payment); !ok {
			return nil, invalid(a, s.Page, "nothing to confirm")
		}
		if a.BookingID == 0 {
			return nil, invalid(a, s.Page, "booking_id required")
		}
		return Confirmation{BookingID: a.BookingID}, nil

	case ActBack:
		switch p := s.Page.(type) {
		case MovieDetails, Confirmation, Profile, Admin:
			return Home{}, nil
		case SeatSelection:
			return MovieDetails{MovieID: p.MovieID}, nil
		case Payment:
			return SeatSelection{MovieID: p.MovieID, ShowID: p.ShowID, Seats: slices.Clone(p.Seats)}, nil
		}
		return nil, invalid(a, s.Page, "already home")
	}
	return nil, invalid(a, s.Page, "unknown action")
}

// toggle returns a new slice with seat added or removed.
func toggle(seats []string, seat string) []string {
	if i := slices.Index(seats, seat); i >= 0 {
		return slices.Delete(slices.Clone(seats), i, i+1)
	}
	return append(slices.Clone(seats), seat)
}
