// README: Shared identifiers and geographic value objects.
package types

import "github.com/google/uuid"

// ID is the textual form of a record UUID.
type ID string

// NewID returns a fresh random record ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// IsValidID reports whether v parses as a UUID.
func IsValidID(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero reports whether both coordinates are unset.
func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}
