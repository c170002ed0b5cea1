// README: Parcel store backed by PostgreSQL.
package parcel

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

// tripStatusPlanned mirrors trip.StatusPlanned; the trip package depends on
// this one, so the literal is repeated here.
const tripStatusPlanned = "planned"

const parcelColumns = `
	id, sender_id, carrier_id, trip_id, from_location, to_location,
	from_lat, from_lng, to_lat, to_lng, size, description,
	reward_amount, reward_currency, desired_pickup_at, desired_delivery_at,
	status, status_version, created_at, updated_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, p *Parcel) error {
	var rewardAmount *int64
	var rewardCurrency *string
	if p.Reward != nil {
		rewardAmount = &p.Reward.Amount
		rewardCurrency = &p.Reward.Currency
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO parcels (`+parcelColumns+`)
		VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $18, $19, $20
		)`,
		string(p.ID), string(p.SenderID), toStringPtr(p.CarrierID), toStringPtr(p.TripID),
		p.FromLocation, p.ToLocation,
		p.From.Lat, p.From.Lng, p.To.Lat, p.To.Lng,
		string(p.Size), p.Description,
		rewardAmount, rewardCurrency,
		p.PickupAt, p.DeliverBy,
		string(p.Status), p.StatusVersion, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Parcel, error) {
	row := s.db.QueryRow(ctx, `SELECT `+parcelColumns+` FROM parcels WHERE id = $1`, string(id))
	p, err := scanParcel(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns parcels matching the non-empty filter fields, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*Parcel, error) {
	var where []string
	var args []any
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if f.Size != "" {
		args = append(args, string(f.Size))
		where = append(where, "size = $"+strconv.Itoa(len(args)))
	}
	if !f.PickupAfter.IsZero() && !f.PickupBefore.IsZero() {
		args = append(args, f.PickupAfter, f.PickupBefore)
		where = append(where, "desired_pickup_at BETWEEN $"+strconv.Itoa(len(args)-1)+" AND $"+strconv.Itoa(len(args)))
	}
	q := `SELECT ` + parcelColumns + ` FROM parcels`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id`
	return s.query(ctx, q, args...)
}

// ListForUser returns the parcels userID sends or carries.
func (s *Store) ListForUser(ctx context.Context, userID types.ID) ([]*Parcel, error) {
	return s.query(ctx, `
		SELECT `+parcelColumns+` FROM parcels
		WHERE sender_id = $1 OR carrier_id = $1
		ORDER BY created_at DESC, id`, string(userID))
}

// ListRequested returns every parcel still open for matching in a stable
// order, so repeated match searches see candidates in the same sequence.
func (s *Store) ListRequested(ctx context.Context) ([]*Parcel, error) {
	return s.query(ctx, `
		SELECT `+parcelColumns+` FROM parcels
		WHERE status = $1
		ORDER BY created_at, id`, string(StatusRequested))
}

// UpdateStatus moves a parcel from one status to another under optimistic
// locking. Moving back to requested detaches the carrier and trip.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE parcels
		SET status = $1,
			status_version = status_version + 1,
			trip_id = CASE WHEN $1 = 'requested' THEN NULL ELSE trip_id END,
			carrier_id = CASE WHEN $1 = 'requested' THEN NULL ELSE carrier_id END,
			updated_at = NOW()
		WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to), string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Assign accepts a requested parcel onto a trip. The trip row is locked so
// concurrent accepts cannot exceed its capacity.
func (s *Store) Assign(ctx context.Context, id types.ID, version int, tripID, carrierID types.ID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var travelerID, tripStatus string
	var capacity int
	err = tx.QueryRow(ctx, `
		SELECT traveler_id, available_capacity, status
		FROM trips WHERE id = $1
		FOR UPDATE`, string(tripID),
	).Scan(&travelerID, &capacity, &tripStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTripUnavailable
	}
	if err != nil {
		return err
	}
	if tripStatus != tripStatusPlanned {
		return ErrTripUnavailable
	}
	if travelerID != string(carrierID) {
		return ErrForbidden
	}

	var accepted int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM parcels
		WHERE trip_id = $1 AND status = $2`,
		string(tripID), string(StatusAccepted),
	).Scan(&accepted); err != nil {
		return err
	}
	if accepted >= capacity {
		return ErrNoCapacity
	}

	tag, err := tx.Exec(ctx, `
		UPDATE parcels
		SET status = $1,
			status_version = status_version + 1,
			trip_id = $2,
			carrier_id = $3,
			updated_at = NOW()
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(StatusAccepted), string(tripID), string(carrierID),
		string(id), string(StatusRequested), version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrConflict
	}
	return tx.Commit(ctx)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*Parcel, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Parcel
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanParcel(row pgx.Row) (*Parcel, error) {
	var p Parcel
	var carrierID, tripID, description, rewardCurrency sql.NullString
	var rewardAmount sql.NullInt64

	err := row.Scan(
		&p.ID, &p.SenderID, &carrierID, &tripID, &p.FromLocation, &p.ToLocation,
		&p.From.Lat, &p.From.Lng, &p.To.Lat, &p.To.Lng, &p.Size, &description,
		&rewardAmount, &rewardCurrency, &p.PickupAt, &p.DeliverBy,
		&p.Status, &p.StatusVersion, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CarrierID = toIDPtr(carrierID)
	p.TripID = toIDPtr(tripID)
	p.Description = description.String
	if rewardAmount.Valid {
		p.Reward = &types.Money{Amount: rewardAmount.Int64, Currency: rewardCurrency.String}
	}
	return &p, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toIDPtr(v sql.NullString) *types.ID {
	if !v.Valid {
		return nil
	}
	id := types.ID(v.String)
	return &id
}
