// README: Match store backed by PostgreSQL.
package match

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parcelway/internal/types"
)

const matchColumns = `
	id, parcel_id, trip_id, sender_id, traveler_id,
	status, status_version, match_score, notes, created_at, updated_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, m *Match) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(m.ID), string(m.ParcelID), string(m.TripID), string(m.SenderID), string(m.TravelerID),
		string(m.Status), m.StatusVersion, m.MatchScore, m.Notes, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Match, error) {
	m, err := scanMatch(s.db.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) ListForUser(ctx context.Context, userID types.ID) ([]*Match, error) {
	return s.query(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE sender_id = $1 OR traveler_id = $1
		ORDER BY created_at DESC, id`, string(userID))
}

func (s *Store) ListByParcel(ctx context.Context, parcelID types.ID) ([]*Match, error) {
	return s.query(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE parcel_id = $1
		ORDER BY created_at DESC, id`, string(parcelID))
}

func (s *Store) ListByTrip(ctx context.Context, tripID types.ID) ([]*Match, error) {
	return s.query(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE trip_id = $1
		ORDER BY created_at DESC, id`, string(tripID))
}

// UpdateStatus moves a match under optimistic locking. A nil notes keeps the
// stored notes.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, notes *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE matches
		SET status = $1,
			status_version = status_version + 1,
			notes = COALESCE($2, notes),
			updated_at = NOW()
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to), notes, string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Delete(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM matches WHERE id = $1`, string(id))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*Match, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Match, error) {
		return scanMatch(row)
	})
}

func scanMatch(row pgx.Row) (*Match, error) {
	var m Match
	var score sql.NullFloat64
	var notes sql.NullString
	err := row.Scan(
		&m.ID, &m.ParcelID, &m.TripID, &m.SenderID, &m.TravelerID,
		&m.Status, &m.StatusVersion, &score, &notes, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if score.Valid {
		m.MatchScore = &score.Float64
	}
	m.Notes = notes.String
	return &m, nil
}
