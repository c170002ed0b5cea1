// README: Great-circle distance helpers used by the route endpoint checks.
package location

import (
	"math"

	"parcelway/internal/types"
)

const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees. NaN coordinates yield NaN.
func HaversineKm(from, to types.Point) float64 {
	dLat := degreesToRadians(to.Lat - from.Lat)
	dLng := degreesToRadians(to.Lng - from.Lng)

	rLat1 := degreesToRadians(from.Lat)
	rLat2 := degreesToRadians(to.Lat)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
