// README: Match results and the read-only ports the finder scans.
package matching

import (
	"context"
	"time"

	"parcelway/internal/modules/parcel"
	"parcelway/internal/modules/trip"
	"parcelway/internal/types"
)

// Result pairs one parcel with one trip that passed the distance gate.
type Result struct {
	Trip          *trip.Trip     `json:"trip"`
	Parcel        *parcel.Parcel `json:"parcel"`
	// MatchScore is capped at 100, so every on-time pair inside the radius
	// reports 100. Callers that need to tell such pairs apart should rely on
	// the result order or on OriginDistanceKm and DestinationDistanceKm.
	MatchScore    float64        `json:"matchScore"`
	DistanceMatch bool           `json:"distanceMatch"`
	TimeMatch     bool           `json:"timeMatch"`

	OriginDistanceKm      float64 `json:"originDistanceKm"`
	DestinationDistanceKm float64 `json:"destinationDistanceKm"`

	// rank is the unclamped score used for ordering.
	rank float64
}

// ParcelSource is the parcel side of the candidate scan.
type ParcelSource interface {
	Get(ctx context.Context, id types.ID) (*parcel.Parcel, error)
	ListRequested(ctx context.Context) ([]*parcel.Parcel, error)
}

// TripSource is the trip side. Trips must come back with Parcels loaded.
type TripSource interface {
	Get(ctx context.Context, id types.ID) (*trip.Trip, error)
	ListPlannedWithCapacity(ctx context.Context) ([]*trip.Trip, error)
}

const (
	// maxEndpointKm is the distance gate applied to both route endpoints.
	maxEndpointKm = 50.0
	// maxScore caps the reported score.
	maxScore = 100.0
	// alertTTL bounds how long a sent alert suppresses repeats.
	alertTTL = 7 * 24 * time.Hour
)
