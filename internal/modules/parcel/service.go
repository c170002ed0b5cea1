// README: Parcel service implements the parcel lifecycle and its notifications.
package parcel

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
	ErrInvalidState    = errors.New("invalid state transition")
	ErrNotFound        = errors.New("parcel not found")
	ErrConflict        = errors.New("parcel state conflict")
	ErrBadRequest      = errors.New("bad request")
	ErrForbidden       = errors.New("forbidden")
	ErrNoCapacity      = errors.New("trip has no remaining capacity")
	ErrTripUnavailable = errors.New("trip is not open for parcels")
)

type Repository interface {
	Create(ctx context.Context, p *Parcel) error
	Get(ctx context.Context, id types.ID) (*Parcel, error)
	List(ctx context.Context, f Filter) ([]*Parcel, error)
	ListForUser(ctx context.Context, userID types.ID) ([]*Parcel, error)
	ListRequested(ctx context.Context) ([]*Parcel, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error)
	Assign(ctx context.Context, id types.ID, version int, tripID, carrierID types.ID) error
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

// NewService wires the parcel store. notifier and geocoder may be nil.
func NewService(store Repository, notifier Notifier, geocoder location.Geocoder) *Service {
	return &Service{store: store, notifier: notifier, geocoder: geocoder, now: time.Now}
}

type CreateCommand struct {
	SenderID     types.ID
	FromLocation string
	ToLocation   string
	From         types.Point
	To           types.Point
	Size         Size
	Description  string
	Reward       *types.Money
	PickupAt     time.Time
	DeliverBy    time.Time
}

type UpdateStatusCommand struct {
	ParcelID types.ID
	ActorID  types.ID
	Status   Status
}

type AcceptCommand struct {
	ParcelID  types.ID
	TripID    types.ID
	CarrierID types.ID
}

type CancelCommand struct {
	ParcelID types.ID
	ActorID  types.ID
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Parcel, error) {
	if cmd.SenderID == "" || cmd.FromLocation == "" || cmd.ToLocation == "" {
		return nil, ErrBadRequest
	}
	if !cmd.Size.Valid() {
		return nil, fmt.Errorf("%w: unknown size %q", ErrBadRequest, cmd.Size)
	}
	if cmd.PickupAt.IsZero() || cmd.DeliverBy.IsZero() || cmd.DeliverBy.Before(cmd.PickupAt) {
		return nil, fmt.Errorf("%w: delivery date must not precede pickup date", ErrBadRequest)
	}
	if cmd.Reward != nil && cmd.Reward.Amount < 0 {
		return nil, fmt.Errorf("%w: negative reward", ErrBadRequest)
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
	p := &Parcel{
		ID:           types.NewID(),
		SenderID:     cmd.SenderID,
		FromLocation: cmd.FromLocation,
		ToLocation:   cmd.ToLocation,
		From:         from,
		To:           to,
		Size:         cmd.Size,
		Description:  cmd.Description,
		Reward:       cmd.Reward,
		PickupAt:     cmd.PickupAt,
		DeliverBy:    cmd.DeliverBy,
		Status:       StatusRequested,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"parcel_id": p.ID, "sender_id": p.SenderID}).Info("parcel created")
	return p, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Parcel, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Parcel, error) {
	return s.store.List(ctx, f)
}

// ListForUser returns the parcels userID sends or carries.
func (s *Service) ListForUser(ctx context.Context, userID types.ID) ([]*Parcel, error) {
	return s.store.ListForUser(ctx, userID)
}

func (s *Service) ListRequested(ctx context.Context) ([]*Parcel, error) {
	return s.store.ListRequested(ctx)
}

// UpdateStatus applies a lifecycle step requested by the sender or carrier.
// Acceptance goes through Accept, which also binds the trip.
func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*Parcel, error) {
	if cmd.Status == StatusAccepted {
		return nil, fmt.Errorf("%w: use accept to attach a parcel to a trip", ErrBadRequest)
	}
	p, err := s.store.Get(ctx, cmd.ParcelID)
	if err != nil {
		return nil, err
	}
	if !p.IsParticipant(cmd.ActorID) {
		return nil, ErrForbidden
	}
	if !CanTransition(p.Status, cmd.Status) {
		return nil, ErrInvalidState
	}
	if err := s.transition(ctx, p, cmd.Status); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, p.ID)
}

// Accept attaches a requested parcel to the carrier's planned trip.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*Parcel, error) {
	if cmd.TripID == "" || cmd.CarrierID == "" {
		return nil, ErrBadRequest
	}
	p, err := s.store.Get(ctx, cmd.ParcelID)
	if err != nil {
		return nil, err
	}
	if p.SenderID == cmd.CarrierID {
		return nil, fmt.Errorf("%w: sender cannot carry own parcel", ErrForbidden)
	}
	if !CanTransition(p.Status, StatusAccepted) {
		return nil, ErrInvalidState
	}
	if err := s.store.Assign(ctx, p.ID, p.StatusVersion, cmd.TripID, cmd.CarrierID); err != nil {
		return nil, err
	}

	s.notify(ctx, p.SenderID, notification.TypeParcelAccepted,
		fmt.Sprintf("Your parcel from %s to %s has been accepted!", p.FromLocation, p.ToLocation),
		map[string]any{"parcelId": p.ID, "carrierId": cmd.CarrierID, "tripId": cmd.TripID})
	s.notify(ctx, cmd.CarrierID, notification.TypeParcelAccepted,
		fmt.Sprintf("You accepted a parcel from %s to %s", p.FromLocation, p.ToLocation),
		map[string]any{"parcelId": p.ID, "tripId": cmd.TripID})

	return s.store.Get(ctx, p.ID)
}

// Cancel withdraws a parcel; only the sender may do so, and only before it
// is in transit.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Parcel, error) {
	p, err := s.store.Get(ctx, cmd.ParcelID)
	if err != nil {
		return nil, err
	}
	if p.SenderID != cmd.ActorID {
		return nil, ErrForbidden
	}
	if !CanTransition(p.Status, StatusCancelled) {
		return nil, ErrInvalidState
	}
	if err := s.transition(ctx, p, StatusCancelled); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, p.ID)
}

func (s *Service) transition(ctx context.Context, p *Parcel, to Status) error {
	ok, err := s.store.UpdateStatus(ctx, p.ID, p.Status, to, p.StatusVersion)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	meta := map[string]any{"parcelId": p.ID, "oldStatus": p.Status, "newStatus": to}
	s.notify(ctx, p.SenderID, notification.TypeParcelStatusChanged,
		fmt.Sprintf("Your parcel status changed from %s to %s", p.Status, to), meta)
	if p.CarrierID != nil {
		s.notify(ctx, *p.CarrierID, notification.TypeParcelStatusChanged,
			fmt.Sprintf("Parcel status changed from %s to %s", p.Status, to), meta)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, userID types.ID, typ notification.Type, msg string, meta map[string]any) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, userID, typ, msg, meta); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "type": typ}).WithError(err).Warn("notify failed")
	}
}
