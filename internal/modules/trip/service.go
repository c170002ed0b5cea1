// README: Trip service implements trip lifecycle and capacity queries.
package trip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"parcelway/internal/modules/location"
	"parcelway/internal/modules/notification"
	"parcelway/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("trip not found")
	ErrConflict     = errors.New("trip state conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrForbidden    = errors.New("forbidden")
)

type Repository interface {
	Create(ctx context.Context, t *Trip) error
	Get(ctx context.Context, id types.ID) (*Trip, error)
	List(ctx context.Context, f Filter) ([]*Trip, error)
	ListByTraveler(ctx context.Context, travelerID types.ID) ([]*Trip, error)
	ListPlannedWithCapacity(ctx context.Context) ([]*Trip, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID types.ID, typ notification.Type, message string, metadata map[string]any) (*notification.Notification, error)
}

type Service struct {
	store    Repository
	notifier Notifier
	geocoder location.Geocoder
	now      func() time.Time
}

func NewService(store Repository, notifier Notifier, geocoder location.Geocoder) *Service {
	return &Service{store: store, notifier: notifier, geocoder: geocoder, now: time.Now}
}

type CreateCommand struct {
	TravelerID        types.ID
	FromLocation      string
	ToLocation        string
	From              types.Point
	To                types.Point
	TransportType     TransportType
	DepartureTime     time.Time
	ArrivalTime       time.Time
	AvailableCapacity int
	Notes             string
}

type UpdateStatusCommand struct {
	TripID  types.ID
	ActorID types.ID
	Status  Status
}

type CancelCommand struct {
	TripID  types.ID
	ActorID types.ID
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Trip, error) {
	if cmd.TravelerID == "" || cmd.FromLocation == "" || cmd.ToLocation == "" {
		return nil, ErrBadRequest
	}
	if !cmd.TransportType.Valid() {
		return nil, fmt.Errorf("%w: unknown transport type %q", ErrBadRequest, cmd.TransportType)
	}
	if cmd.AvailableCapacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be at least 1", ErrBadRequest)
	}
	if cmd.DepartureTime.IsZero() || cmd.ArrivalTime.IsZero() || cmd.ArrivalTime.Before(cmd.DepartureTime) {
		return nil, fmt.Errorf("%w: arrival must not precede departure", ErrBadRequest)
	}

	from, err := location.ResolvePoint(ctx, s.geocoder, cmd.FromLocation, cmd.From)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving origin: %v", ErrBadRequest, err)
	}
	to, err := location.ResolvePoint(ctx, s.geocoder, cmd.ToLocation, cmd.To)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving destination: %v", ErrBadRequest, err)
	}

	now := s.now()
	t := &Trip{
		ID:                types.NewID(),
		TravelerID:        cmd.TravelerID,
		FromLocation:      cmd.FromLocation,
		ToLocation:        cmd.ToLocation,
		From:              from,
		To:                to,
		TransportType:     cmd.TransportType,
		DepartureTime:     cmd.DepartureTime,
		ArrivalTime:       cmd.ArrivalTime,
		AvailableCapacity: cmd.AvailableCapacity,
		Notes:             cmd.Notes,
		Status:            StatusPlanned,
		Parcels:           []AssignedParcel{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"trip_id": t.ID, "traveler_id": t.TravelerID}).Info("trip created")
	return t, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Trip, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Trip, error) {
	return s.store.List(ctx, f)
}

func (s *Service) ListByTraveler(ctx context.Context, travelerID types.ID) ([]*Trip, error) {
	return s.store.ListByTraveler(ctx, travelerID)
}

func (s *Service) ListPlannedWithCapacity(ctx context.Context) ([]*Trip, error) {
	return s.store.ListPlannedWithCapacity(ctx)
}

func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*Trip, error) {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if t.TravelerID != cmd.ActorID {
		return nil, ErrForbidden
	}
	if !CanTransition(t.Status, cmd.Status) {
		return nil, ErrInvalidState
	}
	if err := s.transition(ctx, t, cmd.Status); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, t.ID)
}

// Cancel withdraws a trip that has not started yet.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Trip, error) {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if t.TravelerID != cmd.ActorID {
		return nil, ErrForbidden
	}
	if t.Status != StatusPlanned {
		return nil, ErrInvalidState
	}
	if err := s.transition(ctx, t, StatusCancelled); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, t.ID)
}

func (s *Service) RemainingCapacity(ctx context.Context, id types.ID) (Capacity, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return Capacity{}, err
	}
	remaining := t.RemainingCapacity()
	return Capacity{
		TripID:            t.ID,
		AvailableCapacity: t.AvailableCapacity,
		Accepted:          t.AvailableCapacity - remaining,
		Remaining:         remaining,
	}, nil
}

func (s *Service) transition(ctx context.Context, t *Trip, to Status) error {
	ok, err := s.store.UpdateStatus(ctx, t.ID, t.Status, to, t.StatusVersion)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if s.notifier == nil {
		return nil
	}
	_, err = s.notifier.Notify(ctx, t.TravelerID, notification.TypeTripStatusChanged,
		fmt.Sprintf("Your trip status changed from %s to %s", t.Status, to),
		map[string]any{"tripId": t.ID, "oldStatus": t.Status, "newStatus": to})
	if err != nil {
		logrus.WithField("trip_id", t.ID).WithError(err).Warn("notify failed")
	}
	return nil
}
