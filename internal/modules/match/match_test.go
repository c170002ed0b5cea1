package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parcelway/internal/modules/parcel"
	"parcelway/internal/modules/trip"
	"parcelway/internal/types"
)

type memRepo struct {
	mu    sync.Mutex
	items map[types.ID]*Match
	order []types.ID
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[types.ID]*Match{}}
}

func (m *memRepo) Create(_ context.Context, x *Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *x
	m.items[x.ID] = &cp
	m.order = append(m.order, x.ID)
	return nil
}

func (m *memRepo) Get(_ context.Context, id types.ID) (*Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *x
	return &cp, nil
}

func (m *memRepo) filter(keep func(*Match) bool) []*Match {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Match
	for _, id := range m.order {
		if x, ok := m.items[id]; ok && keep(x) {
			cp := *x
			out = append(out, &cp)
		}
	}
	return out
}

func (m *memRepo) ListForUser(_ context.Context, userID types.ID) ([]*Match, error) {
	return m.filter(func(x *Match) bool { return x.IsParticipant(userID) }), nil
}

func (m *memRepo) ListByParcel(_ context.Context, parcelID types.ID) ([]*Match, error) {
	return m.filter(func(x *Match) bool { return x.ParcelID == parcelID }), nil
}

func (m *memRepo) ListByTrip(_ context.Context, tripID types.ID) ([]*Match, error) {
	return m.filter(func(x *Match) bool { return x.TripID == tripID }), nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, notes *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.items[id]
	if !ok || x.Status != from || x.StatusVersion != version {
		return false, nil
	}
	x.Status = to
	x.StatusVersion++
	if notes != nil {
		x.Notes = *notes
	}
	return true, nil
}

func (m *memRepo) Delete(_ context.Context, id types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

type fakeParcels struct {
	items     map[types.ID]*parcel.Parcel
	acceptErr error
	accepted  []parcel.AcceptCommand
}

func (f *fakeParcels) Get(_ context.Context, id types.ID) (*parcel.Parcel, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, parcel.ErrNotFound
	}
	return p, nil
}

func (f *fakeParcels) Accept(_ context.Context, cmd parcel.AcceptCommand) (*parcel.Parcel, error) {
	if f.acceptErr != nil {
		return nil, f.acceptErr
	}
	f.accepted = append(f.accepted, cmd)
	p := f.items[cmd.ParcelID]
	p.Status = parcel.StatusAccepted
	return p, nil
}

type fakeTrips map[types.ID]*trip.Trip

func (f fakeTrips) Get(_ context.Context, id types.ID) (*trip.Trip, error) {
	t, ok := f[id]
	if !ok {
		return nil, trip.ErrNotFound
	}
	return t, nil
}

var (
	nyc = types.Point{Lat: 40.7128, Lng: -74.0060}
	la  = types.Point{Lat: 34.0522, Lng: -118.2437}
	phl = types.Point{Lat: 39.9526, Lng: -75.1652}
)

func fixture() (*Service, *fakeParcels) {
	pickup := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	parcels := &fakeParcels{items: map[types.ID]*parcel.Parcel{
		"p1": {ID: "p1", SenderID: "alice", From: nyc, To: la, PickupAt: pickup, DeliverBy: pickup.Add(240 * time.Hour), Status: parcel.StatusRequested},
	}}
	trips := fakeTrips{
		"t1": {ID: "t1", TravelerID: "bob", From: nyc, To: la, DepartureTime: pickup.Add(120 * time.Hour), ArrivalTime: pickup.Add(144 * time.Hour), AvailableCapacity: 2, Status: trip.StatusPlanned},
		"t2": {ID: "t2", TravelerID: "carol", From: phl, To: la, DepartureTime: pickup, ArrivalTime: pickup.Add(24 * time.Hour), AvailableCapacity: 2, Status: trip.StatusPlanned},
		"t3": {ID: "t3", TravelerID: "alice", From: nyc, To: la, AvailableCapacity: 1, Status: trip.StatusPlanned},
	}
	return NewService(newMemRepo(), parcels, trips), parcels
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusAccepted))
	assert.True(t, CanTransition(StatusPending, StatusRejected))
	assert.True(t, CanTransition(StatusAccepted, StatusCompleted))
	assert.False(t, CanTransition(StatusRejected, StatusAccepted))
	assert.False(t, CanTransition(StatusPending, StatusCompleted))
}

func TestCreateScoresPair(t *testing.T) {
	svc, _ := fixture()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateCommand{ParcelID: "p1", TripID: "t1", CallerID: "alice", Notes: "fragile"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, m.Status)
	assert.Equal(t, types.ID("bob"), m.TravelerID)
	require.NotNil(t, m.MatchScore)
	assert.Equal(t, 100.0, *m.MatchScore)

	far, err := svc.Create(ctx, CreateCommand{ParcelID: "p1", TripID: "t2", CallerID: "alice"})
	require.NoError(t, err)
	assert.Nil(t, far.MatchScore, "pairs outside the distance gate carry no score")
}

func TestCreateRejections(t *testing.T) {
	svc, _ := fixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCommand{ParcelID: "p1", TripID: "t1", CallerID: "bob"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Create(ctx, CreateCommand{ParcelID: "p1", TripID: "t3", CallerID: "alice"})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = svc.Create(ctx, CreateCommand{ParcelID: "nope", TripID: "t1", CallerID: "alice"})
	assert.ErrorIs(t, err, parcel.ErrNotFound)

	_, err = svc.Create(ctx, CreateCommand{ParcelID: "p1", TripID: "nope", CallerID: "alice"})
	assert.ErrorIs(t, err, trip.ErrNotFound)
}

func TestAccessChecks(t *testing.T) {
	svc, _ := fixture()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateCommand{ParcelID: "p1", TripID: "t1", CallerID: "alice"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, m.ID, "mallory")
	assert.ErrorIs(t, err, ErrForbidden)
	got, err := svc.Get(ctx, m.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	outsider, err := svc.ListByParcel(ctx, "p1", "mallory")
	require.NoError(t, err)
	assert.Empty(t, outsider)
	list, err := svc.ListByTrip(ctx, "t1", "bob")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	empty, err := svc.ListByTrip(ctx, "t2", "mallory")
	require.NoError(t, err)
	assert.Empty(t, empty)

	mine, err := svc.ListForUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestListingsHideOtherTravelersProposals(t *testing.T) {
	svc, _ := fixture()
	ctx := context.Background()

	toBob, err := svc.Create(ctx, CreateCommand{ParcelID: "p1", TripID: "t1", CallerID: "alice"})
	require.NoError(t, err)
	toCarol, err := svc.Create(ctx, CreateCommand{ParcelID: "p1", TripID: "t2", CallerID: "alice"})
	require.NoError(t, err)

	sender, err := svc.ListByParcel(ctx, "p1", "alice")
	require.NoError(t, err)
	assert.Len(t, sender, 2)

	bob, err := svc.ListByParcel(ctx, "p1", "bob")
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.Equal(t, toBob.ID, bob[0].ID)

	carol, err := svc.ListByParcel(ctx, "p1", "carol")
	require.NoError(t, err)
	require.Len(t, carol, 1)
	assert.Equal(t, toCarol.ID, carol[0].ID)

	onBobsTrip, err := svc.ListByTrip(ctx, "t1", "carol")
	require.NoError(t, err)
	assert.Empty(t, onBobsTrip)
}

func TestAcceptPutsParcelOnTrip(t *testing.T) {
	svc, parcels := fixture()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateCommand{ParcelID: "p1", TripID: "t1", CallerID: "alice"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, UpdateStatusCommand{MatchID: m.ID, ActorID: "alice", Status: StatusAccepted})
	assert.ErrorIs(t, err, ErrForbidden, "only the traveler accepts")

	note := "see you at the station"
	got, err := svc.UpdateStatus(ctx, UpdateStatusCommand{MatchID: m.ID, ActorID: "bob", Status: StatusAccepted, Notes: &note})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)
	assert.Equal(t, note, got.Notes)
	require.Len(t, parcels.accepted, 1)
	assert.Equal(t, parcel.AcceptCommand{ParcelID: "p1", TripID: "t1", CarrierID: "bob"}, parcels.accepted[0])

	got, err = svc.UpdateStatus(ctx, UpdateStatusCommand{MatchID: m.ID, ActorID: "alice", Status: StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	_, err = svc.UpdateStatus(ctx, UpdateStatusCommand{MatchID: m.ID, ActorID: "bob", Status: StatusCancelled})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAcceptFailureRevertsMatch(t *testing.T) {
	svc, parcels := fixture()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateCommand{ParcelID: "p1", TripID: "t1", CallerID: "alice"})
	require.NoError(t, err)

	parcels.acceptErr = parcel.ErrNoCapacity
	_, err = svc.UpdateStatus(ctx, UpdateStatusCommand{MatchID: m.ID, ActorID: "bob", Status: StatusAccepted})
	assert.ErrorIs(t, err, parcel.ErrNoCapacity)

	got, err := svc.Get(ctx, m.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestDeleteSenderOnly(t *testing.T) {
	svc, _ := fixture()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateCommand{ParcelID: "p1", TripID: "t1", CallerID: "alice"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, m.ID, "bob"), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, m.ID, "alice"))
	_, err = svc.Get(ctx, m.ID, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}
