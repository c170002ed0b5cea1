package location

import (
	"context"
	"errors"

	"parcelway/internal/types"
)

var ErrAddressNotFound = errors.New("address not found")

// Geocoder resolves a free-text address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

// ResolvePoint returns p unchanged unless it is unset, in which case the
// address is geocoded. A nil geocoder leaves p as is.
func ResolvePoint(ctx context.Context, g Geocoder, address string, p types.Point) (types.Point, error) {
	if !p.IsZero() || g == nil || address == "" {
		return p, nil
	}
	return g.Geocode(ctx, address)
}
