package flow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bookyourshow/internal/model"
)

// pageRecord is the wire form of every Page variant.
type pageRecord struct {
	Kind      PageKind         `json:"kind"`
	MovieID   uint64           `json:"movie_id,omitempty"`
	ShowID    uint64           `json:"show_id,omitempty"`
	Seats     []string         `json:"seats,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	BookingID uint64           `json:"booking_id,omitempty"`
}

type sessionRecord struct {
	UserID    uint64     `json:"user_id"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	Page      pageRecord `json:"page"`
	Version   int64      `json:"version"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func encodePage(p Page) pageRecord {
	switch v := p.(type) {
	case MovieDetails:
		return pageRecord{Kind: KindMovieDetails, MovieID: v.MovieID}
	case SeatSelection:
		return pageRecord{Kind: KindSeatSelection, MovieID: v.MovieID, ShowID: v.ShowID, Seats: v.Seats}
	case Payment:
		amount := v.Amount
		return pageRecord{Kind: KindPayment, MovieID: v.MovieID, ShowID: v.ShowID, Seats: v.Seats, Amount: &amount}
	case Confirmation:
		return pageRecord{Kind: KindConfirmation, BookingID: v.BookingID}
	case Profile:
		return pageRecord{Kind: KindProfile}
	case Admin:
		return pageRecord{Kind: KindAdmin}
	}
	return pageRecord{Kind: KindHome}
}

func decodePage(r pageRecord) (Page, error) {
	switch r.Kind {
	case KindHome, "":
		return Home{}, nil
	case KindMovieDetails:
		return MovieDetails{MovieID: r.MovieID}, nil
	case KindSeatSelection:
		return SeatSelection{MovieID: r.MovieID, ShowID: r.ShowID, Seats: r.Seats}, nil
	case KindPayment:
		p := Payment{MovieID: r.MovieID, ShowID: r.ShowID, Seats: r.Seats}
		if r.Amount != nil {
			p.Amount = *r.Amount
		}
		return p, nil
	case KindConfirmation:
		return Confirmation{BookingID: r.BookingID}, nil
	case KindProfile:
		return Profile{}, nil
	case KindAdmin:
		return Admin{}, nil
	}
	return nil, fmt.Errorf("unknown page kind %q", r.Kind)
}

// MarshalJSON renders the session with its page as a tagged object.
func (s Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionRecord{
		UserID:    s.UserID,
		Name:      s.Name,
		Role:      s.Role,
		Page:      encodePage(s.Page),
		Version:   s.Version,
		UpdatedAt: s.UpdatedAt,
	})
}

// UnmarshalJSON restores a session written by MarshalJSON.
func (s *Session) UnmarshalJSON(b []byte) error {
	var r sessionRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	page, err := decodePage(r.Page)
	if err != nil {
		return err
	}
	*s = Session{UserID: r.UserID, Name: r.Name, Role: r.Role, Page: page, Version: r.Version, UpdatedAt: r.UpdatedAt}
	return nil
}
