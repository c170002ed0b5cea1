package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"parcelway/internal/modules/location"
	"parcelway/internal/types"
)

// GeocodeService resolves parcel and trip addresses via the Google Maps
// Geocoding API.
type GeocodeService struct {
	client *maps.Client
	region string
}

// NewGeocodeService creates a new GeocodeService with the given API Key.
// region biases results (ccTLD, e.g. "us"); empty means no bias.
func NewGeocodeService(apiKey, region string) (*GeocodeService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GeocodeService{client: client, region: region}, nil
}

// Geocode returns the coordinates of the best match for address.
func (s *GeocodeService) Geocode(ctx context.Context, address string) (types.Point, error) {
	r := &maps.GeocodingRequest{
		Address: address,
		Region:  s.region,
	}

	results, err := s.client.Geocode(ctx, r)
	if err != nil {
		return types.Point{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(results) == 0 {
		return types.Point{}, fmt.Errorf("%w: %q", location.ErrAddressNotFound, address)
	}

	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
