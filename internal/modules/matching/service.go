// README: Matching service finds compatible parcel/trip pairs and sends match alerts.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"parcelway/internal/config"
	"parcelway/internal/modules/notification"
	"parcelway/internal/modules/parcel"
	"parcelway/internal/modules/trip"
	"parcelway/internal/types"
)

type AlertStore interface {
	MarkAlerted(ctx context.Context, tripID, parcelID types.ID) (bool, error)
	Forget(ctx context.Context, tripID, parcelID types.ID) error
}

type Notifier interface {
	Notify(ctx context.Context, userID types.ID, typ notification.Type, message string, metadata map[string]any) (*notification.Notification, error)
}

type Service struct {
	parcels  ParcelSource
	trips    TripSource
	alerts   AlertStore
	notifier Notifier
	cfg      config.MatchingConfig
}

// NewService builds the finder. alerts and notifier are only needed for
// RunAlerts and SweepAlerts and may be nil otherwise.
func NewService(parcels ParcelSource, trips TripSource, alerts AlertStore, notifier Notifier, cfg config.MatchingConfig) *Service {
	return &Service{parcels: parcels, trips: trips, alerts: alerts, notifier: notifier, cfg: cfg}
}

// FindForParcel returns the planned trips that can carry the parcel, best
// first. An unknown or non-requested parcel has no matches.
func (s *Service) FindForParcel(ctx context.Context, parcelID types.ID) ([]Result, error) {
	p, err := s.parcels.Get(ctx, parcelID)
	if errors.Is(err, parcel.ErrNotFound) {
		return []Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load parcel: %w", err)
	}
	if p.Status != parcel.StatusRequested {
		return []Result{}, nil
	}

	trips, err := s.trips.ListPlannedWithCapacity(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}

	results := []Result{}
	for _, t := range trips {
		if !open(t) {
			continue
		}
		if r, ok := Evaluate(p, t); ok {
			results = append(results, r)
		}
	}
	sortByRank(results)
	return results, nil
}

// FindForTrip returns the requested parcels the trip could carry, best
// first. An unknown, non-planned or full trip has no matches.
func (s *Service) FindForTrip(ctx context.Context, tripID types.ID) ([]Result, error) {
	t, err := s.trips.Get(ctx, tripID)
	if errors.Is(err, trip.ErrNotFound) {
		return []Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load trip: %w", err)
	}
	if !open(t) {
		return []Result{}, nil
	}

	parcels, err := s.parcels.ListRequested(ctx)
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}
	return matchTrip(t, parcels), nil
}

func matchTrip(t *trip.Trip, parcels []*parcel.Parcel) []Result {
	results := []Result{}
	for _, p := range parcels {
		if p.Status != parcel.StatusRequested {
			continue
		}
		if r, ok := Evaluate(p, t); ok {
			results = append(results, r)
		}
	}
	sortByRank(results)
	return results
}

// open reports whether a trip can still take parcels.
func open(t *trip.Trip) bool {
	return t.Status == trip.StatusPlanned && t.RemainingCapacity() > 0
}

// RunAlerts sweeps for new matches every matching.alert_tick_seconds until
// ctx is done. Alerts only inform parcel senders; nothing is assigned.
func (s *Service) RunAlerts(ctx context.Context) {
	if s.cfg.AlertTickSeconds <= 0 || s.alerts == nil || s.notifier == nil {
		logrus.Info("match alerts disabled")
		return
	}
	ticker := time.NewTicker(time.Duration(s.cfg.AlertTickSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent, err := s.SweepAlerts(ctx)
			if err != nil && ctx.Err() == nil {
				logrus.WithError(err).Warn("match alert sweep failed")
				continue
			}
			if sent > 0 {
				logrus.WithField("sent", sent).Info("match alerts sent")
			}
		}
	}
}

// SweepAlerts notifies parcel senders about matching trips they have not
// been told about yet and returns the number of alerts sent.
func (s *Service) SweepAlerts(ctx context.Context) (int, error) {
	if s.alerts == nil || s.notifier == nil {
		return 0, errors.New("match alerts not configured")
	}
	trips, err := s.trips.ListPlannedWithCapacity(ctx)
	if err != nil {
		return 0, fmt.Errorf("list trips: %w", err)
	}
	if len(trips) == 0 {
		return 0, nil
	}
	parcels, err := s.parcels.ListRequested(ctx)
	if err != nil {
		return 0, fmt.Errorf("list parcels: %w", err)
	}

	sent := 0
	for _, t := range trips {
		if !open(t) {
			continue
		}
		for _, r := range matchTrip(t, parcels) {
			if r.Parcel.SenderID == t.TravelerID {
				continue
			}
			ok, err := s.alerts.MarkAlerted(ctx, t.ID, r.Parcel.ID)
			if err != nil {
				return sent, fmt.Errorf("mark alert: %w", err)
			}
			if !ok {
				continue
			}
			if err := s.alert(ctx, r); err != nil {
				logrus.WithFields(logrus.Fields{"trip_id": t.ID, "parcel_id": r.Parcel.ID}).
					WithError(err).Warn("match alert failed")
				if err := s.alerts.Forget(ctx, t.ID, r.Parcel.ID); err != nil {
					return sent, fmt.Errorf("forget alert: %w", err)
				}
				continue
			}
			sent++
		}
	}
	return sent, nil
}

func (s *Service) alert(ctx context.Context, r Result) error {
	msg := fmt.Sprintf("A trip from %s to %s matches your parcel", r.Trip.FromLocation, r.Trip.ToLocation)
	_, err := s.notifier.Notify(ctx, r.Parcel.SenderID, notification.TypeTripMatchFound, msg, map[string]any{
		"tripId":     r.Trip.ID,
		"parcelId":   r.Parcel.ID,
		"matchScore": r.MatchScore,
		"timeMatch":  r.TimeMatch,
	})
	return err
}
