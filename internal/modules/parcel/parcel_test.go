// README: Parcel service tests (lifecycle, authorization, capacity).
package parcel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parcelway/internal/modules/notification"
	"parcelway/internal/types"
)

type fakeTrip struct {
	traveler types.ID
	capacity int
	status   string
}

// memRepo is an in-memory Repository that mimics the store's locking rules.
type memRepo struct {
	mu      sync.Mutex
	parcels map[types.ID]*Parcel
	trips   map[types.ID]fakeTrip
}

func newMemRepo() *memRepo {
	return &memRepo{parcels: map[types.ID]*Parcel{}, trips: map[types.ID]fakeTrip{}}
}

func (m *memRepo) Create(_ context.Context, p *Parcel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.parcels[p.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, id types.ID) (*Parcel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parcels[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f Filter) ([]*Parcel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Parcel
	for _, p := range m.parcels {
		inWindow := f.PickupAfter.IsZero() || f.PickupBefore.IsZero() ||
			(!p.PickupAt.Before(f.PickupAfter) && !p.PickupAt.After(f.PickupBefore))
		if (f.Status == "" || p.Status == f.Status) && (f.Size == "" || p.Size == f.Size) && inWindow {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRepo) ListForUser(_ context.Context, userID types.ID) ([]*Parcel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Parcel
	for _, p := range m.parcels {
		if p.IsParticipant(userID) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRepo) ListRequested(ctx context.Context) ([]*Parcel, error) {
	return m.List(ctx, Filter{Status: StatusRequested})
}

func (m *memRepo) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parcels[id]
	if !ok || p.Status != from || p.StatusVersion != version {
		return false, nil
	}
	p.Status = to
	p.StatusVersion++
	if to == StatusRequested {
		p.TripID, p.CarrierID = nil, nil
	}
	return true, nil
}

func (m *memRepo) Assign(_ context.Context, id types.ID, version int, tripID, carrierID types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok || t.status != tripStatusPlanned {
		return ErrTripUnavailable
	}
	if t.traveler != carrierID {
		return ErrForbidden
	}
	accepted := 0
	for _, p := range m.parcels {
		if p.TripID != nil && *p.TripID == tripID && p.Status == StatusAccepted {
			accepted++
		}
	}
	if accepted >= t.capacity {
		return ErrNoCapacity
	}
	p, ok := m.parcels[id]
	if !ok || p.Status != StatusRequested || p.StatusVersion != version {
		return ErrConflict
	}
	p.Status = StatusAccepted
	p.StatusVersion++
	p.TripID = &tripID
	p.CarrierID = &carrierID
	return nil
}

type sentNotification struct {
	userID types.ID
	typ    notification.Type
	msg    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, userID types.ID, typ notification.Type, msg string, _ map[string]any) (*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{userID: userID, typ: typ, msg: msg})
	return &notification.Notification{UserID: userID, Type: typ, Message: msg}, nil
}

type stubGeocoder map[string]types.Point

func (g stubGeocoder) Geocode(_ context.Context, address string) (types.Point, error) {
	p, ok := g[address]
	if !ok {
		return types.Point{}, errors.New("unknown address")
	}
	return p, nil
}

var (
	nyc = types.Point{Lat: 40.7128, Lng: -74.0060}
	la  = types.Point{Lat: 34.0522, Lng: -118.2437}
)

func validCreate(sender types.ID) CreateCommand {
	pickup := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return CreateCommand{
		SenderID:     sender,
		FromLocation: "New York",
		ToLocation:   "Los Angeles",
		From:         nyc,
		To:           la,
		Size:         SizeSmall,
		PickupAt:     pickup,
		DeliverBy:    pickup.Add(72 * time.Hour),
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusRequested, StatusAccepted, true},
		{StatusRequested, StatusCancelled, true},
		{StatusAccepted, StatusInTransit, true},
		{StatusAccepted, StatusRequested, true}, // released from trip
		{StatusAccepted, StatusCancelled, true},
		{StatusInTransit, StatusDelivered, true},
		// terminal states
		{StatusDelivered, StatusRequested, false},
		{StatusCancelled, StatusRequested, false},
		// skipping states
		{StatusRequested, StatusDelivered, false},
		{StatusInTransit, StatusCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, validCreate("s1"))
	require.NoError(t, err)
	assert.Equal(t, StatusRequested, p.Status)
	assert.True(t, types.IsValidID(string(p.ID)))

	bad := validCreate("s1")
	bad.Size = "huge"
	_, err = svc.Create(ctx, bad)
	assert.ErrorIs(t, err, ErrBadRequest)

	bad = validCreate("s1")
	bad.DeliverBy = bad.PickupAt.Add(-time.Hour)
	_, err = svc.Create(ctx, bad)
	assert.ErrorIs(t, err, ErrBadRequest)

	bad = validCreate("")
	_, err = svc.Create(ctx, bad)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestCreateGeocodesMissingCoordinates(t *testing.T) {
	geo := stubGeocoder{"New York": nyc, "Los Angeles": la}
	svc := NewService(newMemRepo(), nil, geo)

	cmd := validCreate("s1")
	cmd.From, cmd.To = types.Point{}, types.Point{}
	p, err := svc.Create(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, nyc, p.From)
	assert.Equal(t, la, p.To)

	cmd.ToLocation = "Atlantis"
	_, err = svc.Create(context.Background(), cmd)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestAcceptNotifiesSenderAndCarrier(t *testing.T) {
	repo := newMemRepo()
	repo.trips["t1"] = fakeTrip{traveler: "c1", capacity: 1, status: tripStatusPlanned}
	notes := &recordingNotifier{}
	svc := NewService(repo, notes, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, validCreate("s1"))
	require.NoError(t, err)

	got, err := svc.Accept(ctx, AcceptCommand{ParcelID: p.ID, TripID: "t1", CarrierID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)
	require.NotNil(t, got.TripID)
	assert.Equal(t, types.ID("t1"), *got.TripID)

	require.Len(t, notes.sent, 2)
	assert.Equal(t, types.ID("s1"), notes.sent[0].userID)
	assert.Equal(t, notification.TypeParcelAccepted, notes.sent[0].typ)
	assert.Equal(t, "Your parcel from New York to Los Angeles has been accepted!", notes.sent[0].msg)
	assert.Equal(t, types.ID("c1"), notes.sent[1].userID)
}

func TestAcceptRejections(t *testing.T) {
	repo := newMemRepo()
	repo.trips["full"] = fakeTrip{traveler: "c1", capacity: 1, status: tripStatusPlanned}
	repo.trips["gone"] = fakeTrip{traveler: "c1", capacity: 5, status: "cancelled"}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, validCreate("s1"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, validCreate("s2"))
	require.NoError(t, err)

	_, err = svc.Accept(ctx, AcceptCommand{ParcelID: first.ID, TripID: "full", CarrierID: "c1"})
	require.NoError(t, err)

	_, err = svc.Accept(ctx, AcceptCommand{ParcelID: second.ID, TripID: "full", CarrierID: "c1"})
	assert.ErrorIs(t, err, ErrNoCapacity)

	_, err = svc.Accept(ctx, AcceptCommand{ParcelID: second.ID, TripID: "gone", CarrierID: "c1"})
	assert.ErrorIs(t, err, ErrTripUnavailable)

	_, err = svc.Accept(ctx, AcceptCommand{ParcelID: second.ID, TripID: "full", CarrierID: "someone"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Accept(ctx, AcceptCommand{ParcelID: second.ID, TripID: "full", CarrierID: "s2"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Accept(ctx, AcceptCommand{ParcelID: first.ID, TripID: "full", CarrierID: "c1"})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Accept(ctx, AcceptCommand{ParcelID: "missing", TripID: "full", CarrierID: "c1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusFlow(t *testing.T) {
	repo := newMemRepo()
	repo.trips["t1"] = fakeTrip{traveler: "c1", capacity: 2, status: tripStatusPlanned}
	notes := &recordingNotifier{}
	svc := NewService(repo, notes, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, validCreate("s1"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, UpdateStatusCommand{ParcelID: p.ID, ActorID: "s1", Status: StatusAccepted})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = svc.Accept(ctx, AcceptCommand{ParcelID: p.ID, TripID: "t1", CarrierID: "c1"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, UpdateStatusCommand{ParcelID: p.ID, ActorID: "stranger", Status: StatusInTransit})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateStatus(ctx, UpdateStatusCommand{ParcelID: p.ID, ActorID: "c1", Status: StatusDelivered})
	assert.ErrorIs(t, err, ErrInvalidState)

	got, err := svc.UpdateStatus(ctx, UpdateStatusCommand{ParcelID: p.ID, ActorID: "c1", Status: StatusInTransit})
	require.NoError(t, err)
	assert.Equal(t, StatusInTransit, got.Status)

	got, err = svc.UpdateStatus(ctx, UpdateStatusCommand{ParcelID: p.ID, ActorID: "c1", Status: StatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, got.Status)

	var statusChanges int
	for _, n := range notes.sent {
		if n.typ == notification.TypeParcelStatusChanged {
			statusChanges++
		}
	}
	// two transitions, each sent to sender and carrier
	assert.Equal(t, 4, statusChanges)
}

func TestReleaseDetachesTrip(t *testing.T) {
	repo := newMemRepo()
	repo.trips["t1"] = fakeTrip{traveler: "c1", capacity: 1, status: tripStatusPlanned}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, validCreate("s1"))
	require.NoError(t, err)
	_, err = svc.Accept(ctx, AcceptCommand{ParcelID: p.ID, TripID: "t1", CarrierID: "c1"})
	require.NoError(t, err)

	got, err := svc.UpdateStatus(ctx, UpdateStatusCommand{ParcelID: p.ID, ActorID: "c1", Status: StatusRequested})
	require.NoError(t, err)
	assert.Equal(t, StatusRequested, got.Status)
	assert.Nil(t, got.TripID)
	assert.Nil(t, got.CarrierID)
}

func TestCancelSenderOnly(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, validCreate("s1"))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, CancelCommand{ParcelID: p.ID, ActorID: "c1"})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Cancel(ctx, CancelCommand{ParcelID: p.ID, ActorID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	_, err = svc.Cancel(ctx, CancelCommand{ParcelID: p.ID, ActorID: "s1"})
	assert.ErrorIs(t, err, ErrInvalidState)
}
