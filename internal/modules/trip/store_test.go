// README: DB-backed trip store tests.
package trip

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parcelway/internal/modules/parcel"
	"parcelway/internal/testutil"
	"parcelway/internal/types"
)

func TestStoreLoadsParcelsAndFilters(t *testing.T) {
	db := testutil.Postgres(t)
	trips := NewService(NewStore(db), nil, nil)
	parcels := parcel.NewService(parcel.NewStore(db), nil, nil)
	ctx := context.Background()

	tr, err := trips.Create(ctx, validCreate("tr_store"))
	require.NoError(t, err)

	bus := validCreate("tr_other")
	bus.TransportType = TransportBus
	bus.FromLocation = "Boston"
	_, err = trips.Create(ctx, bus)
	require.NoError(t, err)

	pickup := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p, err := parcels.Create(ctx, parcel.CreateCommand{
		SenderID:     "s_store",
		FromLocation: "New York",
		ToLocation:   "Los Angeles",
		From:         tr.From,
		To:           tr.To,
		Size:         parcel.SizeMedium,
		PickupAt:     pickup,
		DeliverBy:    pickup.Add(96 * time.Hour),
	})
	require.NoError(t, err)
	_, err = parcels.Accept(ctx, parcel.AcceptCommand{ParcelID: p.ID, TripID: tr.ID, CarrierID: "tr_store"})
	require.NoError(t, err)

	got, err := trips.Get(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, got.Parcels, 1)
	assert.Equal(t, p.ID, got.Parcels[0].ID)
	assert.Equal(t, 2, got.RemainingCapacity())

	open, err := trips.ListPlannedWithCapacity(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, tr.ID, open[0].ID)

	buses, err := trips.List(ctx, Filter{TransportType: TransportBus})
	require.NoError(t, err)
	require.Len(t, buses, 1)
	assert.Equal(t, "Boston", buses[0].FromLocation)

	byCity, err := trips.List(ctx, Filter{From: "new york"})
	require.NoError(t, err)
	require.Len(t, byCity, 1)

	_, err = trips.Get(ctx, types.NewID())
	assert.ErrorIs(t, err, ErrNotFound)
}
