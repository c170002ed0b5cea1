// README: Match service manages parcel/trip proposals between senders and travelers.
package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"parcelway/internal/modules/matching"
	"parcelway/internal/modules/parcel"
	"parcelway/internal/modules/trip"
	"parcelway/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("match not found")
	ErrConflict     = errors.New("match state conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrForbidden    = errors.New("forbidden")
)

type Repository interface {
	Create(ctx context.Context, m *Match) error
	Get(ctx context.Context, id types.ID) (*Match, error)
	ListForUser(ctx context.Context, userID types.ID) ([]*Match, error)
	ListByParcel(ctx context.Context, parcelID types.ID) ([]*Match, error)
	ListByTrip(ctx context.Context, tripID types.ID) ([]*Match, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, notes *string) (bool, error)
	Delete(ctx context.Context, id types.ID) (bool, error)
}

// Parcels is the part of the parcel service a match needs.
type Parcels interface {
	Get(ctx context.Context, id types.ID) (*parcel.Parcel, error)
	Accept(ctx context.Context, cmd parcel.AcceptCommand) (*parcel.Parcel, error)
}

type Trips interface {
	Get(ctx context.Context, id types.ID) (*trip.Trip, error)
}

type Service struct {
	store   Repository
	parcels Parcels
	trips   Trips
	now     func() time.Time
}

func NewService(store Repository, parcels Parcels, trips Trips) *Service {
	return &Service{store: store, parcels: parcels, trips: trips, now: time.Now}
}

type CreateCommand struct {
	ParcelID types.ID
	TripID   types.ID
	Notes    string
	CallerID types.ID
}

type UpdateStatusCommand struct {
	MatchID types.ID
	ActorID types.ID
	Status  Status
	Notes   *string
}

// Create proposes a trip for the caller's parcel. The stored score is the
// pairwise match score when the pair passes the distance gate.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Match, error) {
	if cmd.ParcelID == "" || cmd.TripID == "" {
		return nil, ErrBadRequest
	}
	p, err := s.parcels.Get(ctx, cmd.ParcelID)
	if err != nil {
		return nil, err
	}
	if p.SenderID != cmd.CallerID {
		return nil, ErrForbidden
	}
	t, err := s.trips.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if t.TravelerID == p.SenderID {
		return nil, fmt.Errorf("%w: cannot propose own trip", ErrBadRequest)
	}
	if p.Status != parcel.StatusRequested || t.Status != trip.StatusPlanned {
		return nil, ErrInvalidState
	}

	now := s.now()
	m := &Match{
		ID:         types.NewID(),
		ParcelID:   p.ID,
		TripID:     t.ID,
		SenderID:   p.SenderID,
		TravelerID: t.TravelerID,
		Status:     StatusPending,
		Notes:      cmd.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if r, ok := matching.Evaluate(p, t); ok {
		score := r.MatchScore
		m.MatchScore = &score
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"match_id": m.ID, "parcel_id": m.ParcelID, "trip_id": m.TripID}).Info("match proposed")
	return m, nil
}

func (s *Service) Get(ctx context.Context, id, callerID types.ID) (*Match, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsParticipant(callerID) {
		return nil, ErrForbidden
	}
	return m, nil
}

func (s *Service) ListForUser(ctx context.Context, userID types.ID) ([]*Match, error) {
	return s.store.ListForUser(ctx, userID)
}

func (s *Service) ListByParcel(ctx context.Context, parcelID, callerID types.ID) ([]*Match, error) {
	ms, err := s.store.ListByParcel(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	return visibleTo(ms, callerID), nil
}

func (s *Service) ListByTrip(ctx context.Context, tripID, callerID types.ID) ([]*Match, error) {
	ms, err := s.store.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return visibleTo(ms, callerID), nil
}

// visibleTo keeps the matches the caller takes part in. A traveler sees
// only their own proposal for a parcel, never a competing one.
func visibleTo(ms []*Match, callerID types.ID) []*Match {
	out := []*Match{}
	for _, m := range ms {
		if m.IsParticipant(callerID) {
			out = append(out, m)
		}
	}
	return out
}

// UpdateStatus applies a transition requested by a participant. Only the
// traveler accepts or rejects. Accepting also puts the parcel on the trip;
// if that fails the match goes back to pending.
func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*Match, error) {
	m, err := s.Get(ctx, cmd.MatchID, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if (cmd.Status == StatusAccepted || cmd.Status == StatusRejected) && m.TravelerID != cmd.ActorID {
		return nil, ErrForbidden
	}
	if !CanTransition(m.Status, cmd.Status) {
		return nil, ErrInvalidState
	}

	ok, err := s.store.UpdateStatus(ctx, m.ID, m.Status, cmd.Status, m.StatusVersion, cmd.Notes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	if cmd.Status == StatusAccepted {
		_, err := s.parcels.Accept(ctx, parcel.AcceptCommand{ParcelID: m.ParcelID, TripID: m.TripID, CarrierID: m.TravelerID})
		if err != nil {
			if _, rerr := s.store.UpdateStatus(ctx, m.ID, StatusAccepted, m.Status, m.StatusVersion+1, nil); rerr != nil {
				logrus.WithField("match_id", m.ID).WithError(rerr).Error("revert match after failed accept")
			}
			return nil, err
		}
	}
	return s.store.Get(ctx, m.ID)
}

// Delete removes a proposal; only its sender may do so.
func (s *Service) Delete(ctx context.Context, id, callerID types.ID) error {
	m, err := s.Get(ctx, id, callerID)
	if err != nil {
		return err
	}
	if m.SenderID != callerID {
		return ErrForbidden
	}
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
