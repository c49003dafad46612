package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Movie is a film that can be scheduled in shows.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title.
//  Genre       – single genre label used for filtering.
//  DurationMin – running time in minutes.
//  Rating      – audience rating on a 0-10 scale with one decimal.
//  ReleaseDate – date the movie becomes available.
//  Description – optional synopsis.
//  CreatedAt   – creation timestamp.
type Movie struct {
    ID          uint64          // movies.id
    Title       string          // movies.title
    Genre       string          // movies.genre
    DurationMin int             // movies.duration_min
    Rating      decimal.Decimal // movies.rating
    ReleaseDate time.Time       // movies.release_date
    Description string          // movies.description
    CreatedAt   time.Time       // movies.created_at
}
