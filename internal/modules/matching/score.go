// README: Pairwise parcel/trip scoring shared by both search directions.
package matching

import (
	"cmp"
	"math"
	"slices"

	"parcelway/internal/modules/location"
	"parcelway/internal/modules/parcel"
	"parcelway/internal/modules/trip"
)

// Evaluate scores a single parcel/trip pair. ok is false when either route
// endpoint is farther than maxEndpointKm apart; such pairs are not matches.
// Status and capacity are the caller's concern.
func Evaluate(p *parcel.Parcel, t *trip.Trip) (Result, bool) {
	originKm := location.HaversineKm(p.From, t.From)
	destKm := location.HaversineKm(p.To, t.To)

	// NaN compares false, so malformed coordinates fail here.
	if !(originKm <= maxEndpointKm && destKm <= maxEndpointKm) {
		return Result{}, false
	}

	timeMatch := !t.DepartureTime.Before(p.PickupAt) && !t.ArrivalTime.After(p.DeliverBy)

	raw := 50.0
	raw += math.Max(0, 25-originKm/2)
	raw += math.Max(0, 25-destKm/2)
	if timeMatch {
		raw += 50
	}

	return Result{
		Trip:                  t,
		Parcel:                p,
		MatchScore:            math.Min(raw, maxScore),
		DistanceMatch:         true,
		TimeMatch:             timeMatch,
		OriginDistanceKm:      originKm,
		DestinationDistanceKm: destKm,
		rank:                  raw,
	}, true
}

// sortByRank orders results by descending rank; equal ranks keep their
// encounter order.
func sortByRank(items []Result) {
	slices.SortStableFunc(items, func(a, b Result) int {
		return cmp.Compare(b.rank, a.rank)
	})
}
