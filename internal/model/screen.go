package model

// Screen represents an auditorium inside a theater.  Its capacity
// defines the seat map offered for every show scheduled on it.
//
// Fields:
//  ID         – primary key identifier.
//  TheaterID  – theater that owns the screen.
//  Name       – screen name, unique per theater.
//  TotalSeats – capacity of the screen; always greater than zero.
type Screen struct {
    ID         uint64 // screens.id
    TheaterID  uint64 // screens.theater_id
    Name       string // screens.screen_name
    TotalSeats int    // screens.total_seats
}
