package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Show represents a single scheduled screening of a movie on a screen
// at a specific time, with its own per-seat price.  A show is bookable
// only while ShowTime is in the future.
//
// Fields:
//  ID       – primary key identifier.
//  MovieID  – movie being screened.
//  ScreenID – screen hosting the show.
//  ShowTime – start time in UTC.
//  Price    – price of one seat.
type Show struct {
    ID       uint64          // shows.id
    MovieID  uint64          // shows.movie_id
    ScreenID uint64          // shows.screen_id
    ShowTime time.Time       // shows.show_time
    Price    decimal.Decimal // shows.price
}

// Started reports whether the show has begun at instant now.
func (s Show) Started(now time.Time) bool { return !s.ShowTime.After(now) }

// ShowInfo is a show joined with the names of its movie, screen and
// theater and the capacity of the screen.
type ShowInfo struct {
    Show
    MovieTitle  string
    ScreenName  string
    TheaterID   uint64
    TheaterName string
    TotalSeats  int
}
