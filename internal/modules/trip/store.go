// README: Trip store backed by PostgreSQL. Trips are returned with their parcels loaded.
package trip

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parcelway/internal/types"
)

const tripColumns = `
	id, traveler_id, from_location, to_location,
	from_lat, from_lng, to_lat, to_lng, transport_type,
	departure_time, arrival_time, available_capacity, notes,
	status, status_version, created_at, updated_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, t *Trip) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trips (`+tripColumns+`)
		VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17
		)`,
		string(t.ID), string(t.TravelerID), t.FromLocation, t.ToLocation,
		t.From.Lat, t.From.Lng, t.To.Lat, t.To.Lng, string(t.TransportType),
		t.DepartureTime, t.ArrivalTime, t.AvailableCapacity, t.Notes,
		string(t.Status), t.StatusVersion, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Trip, error) {
	row := s.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, string(id))
	t, err := scanTrip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadParcels(ctx, []*Trip{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns trips matching the non-empty filter fields, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*Trip, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.Status != "" {
		add("status = ?", string(f.Status))
	}
	if f.TransportType != "" {
		add("transport_type = ?", string(f.TransportType))
	}
	if f.From != "" {
		add("from_location ILIKE ?", "%"+f.From+"%")
	}
	if f.To != "" {
		add("to_location ILIKE ?", "%"+f.To+"%")
	}
	if !f.DepartAfter.IsZero() && !f.DepartBefore.IsZero() {
		add("departure_time >= ?", f.DepartAfter)
		add("departure_time <= ?", f.DepartBefore)
	}
	q := `SELECT ` + tripColumns + ` FROM trips`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id`
	return s.query(ctx, q, args...)
}

func (s *Store) ListByTraveler(ctx context.Context, travelerID types.ID) ([]*Trip, error) {
	return s.query(ctx, `
		SELECT `+tripColumns+` FROM trips
		WHERE traveler_id = $1
		ORDER BY created_at DESC, id`, string(travelerID))
}

// ListPlannedWithCapacity returns planned trips with a non-zero declared
// capacity in a stable order. Remaining capacity is left to the caller.
func (s *Store) ListPlannedWithCapacity(ctx context.Context) ([]*Trip, error) {
	return s.query(ctx, `
		SELECT `+tripColumns+` FROM trips
		WHERE status = $1 AND available_capacity > 0
		ORDER BY created_at, id`, string(StatusPlanned))
}

// UpdateStatus moves a trip between statuses under optimistic locking.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trips
		SET status = $1,
			status_version = status_version + 1,
			updated_at = NOW()
		WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to), string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*Trip, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	trips, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Trip, error) {
		return scanTrip(row)
	})
	if err != nil {
		return nil, err
	}
	if err := s.loadParcels(ctx, trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// loadParcels fills Parcels for every trip with a single query.
func (s *Store) loadParcels(ctx context.Context, trips []*Trip) error {
	if len(trips) == 0 {
		return nil
	}
	byID := make(map[types.ID]*Trip, len(trips))
	ids := make([]string, 0, len(trips))
	for _, t := range trips {
		t.Parcels = []AssignedParcel{}
		byID[t.ID] = t
		ids = append(ids, string(t.ID))
	}

	rows, err := s.db.Query(ctx, `
		SELECT trip_id, id, status FROM parcels
		WHERE trip_id = ANY($1)
		ORDER BY created_at, id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tripID types.ID
		var p AssignedParcel
		if err := rows.Scan(&tripID, &p.ID, &p.Status); err != nil {
			return err
		}
		if t, ok := byID[tripID]; ok {
			t.Parcels = append(t.Parcels, p)
		}
	}
	return rows.Err()
}

func scanTrip(row pgx.Row) (*Trip, error) {
	var t Trip
	var notes sql.NullString
	err := row.Scan(
		&t.ID, &t.TravelerID, &t.FromLocation, &t.ToLocation,
		&t.From.Lat, &t.From.Lng, &t.To.Lat, &t.To.Lng, &t.TransportType,
		&t.DepartureTime, &t.ArrivalTime, &t.AvailableCapacity, &notes,
		&t.Status, &t.StatusVersion, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Notes = notes.String
	return &t, nil
}
