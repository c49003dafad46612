package model

import "time"

// Theater represents a cinema venue.  A theater contains one or more
// screens.  This struct corresponds to a row in the `theaters` table.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the theater.
//  Location  – free-form address or city.
//  CreatedAt – timestamp when the theater was created.
type Theater struct {
    ID        uint64    // theaters.id
    Name      string    // theaters.name
    Location  string    // theaters.location
    CreatedAt time.Time // theaters.created_at
}
