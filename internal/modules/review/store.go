// README: Review store backed by PostgreSQL.
package review

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"parcelway/internal/types"
)

const reviewColumns = `
	id, match_id, reviewer_id, reviewee_id, type,
	rating, comment, is_anonymous, created_at, updated_at`

const uniqueViolation = "23505"

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Create inserts a review. A second review of the same match by the same
// reviewer fails with ErrAlreadyReviewed.
func (s *Store) Create(ctx context.Context, r *Review) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO reviews (`+reviewColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(r.ID), string(r.MatchID), string(r.ReviewerID), string(r.RevieweeID), string(r.Type),
		r.Rating, r.Comment, r.IsAnonymous, r.CreatedAt, r.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyReviewed
	}
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Review, error) {
	r, err := scanReview(s.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) ExistsForReviewer(ctx context.Context, matchID, reviewerID types.ID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM reviews WHERE match_id = $1 AND reviewer_id = $2)`,
		string(matchID), string(reviewerID),
	).Scan(&exists)
	return exists, err
}

func (s *Store) ListByReviewee(ctx context.Context, userID types.ID) ([]*Review, error) {
	return s.query(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE reviewee_id = $1
		ORDER BY created_at DESC, id`, string(userID))
}

func (s *Store) ListByMatch(ctx context.Context, matchID types.ID) ([]*Review, error) {
	return s.query(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE match_id = $1
		ORDER BY created_at DESC, id`, string(matchID))
}

func (s *Store) Update(ctx context.Context, r *Review) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE reviews
		SET rating = $1, comment = $2, is_anonymous = $3, updated_at = $4
		WHERE id = $5`,
		r.Rating, r.Comment, r.IsAnonymous, r.UpdatedAt, string(r.ID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, string(id))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Summary aggregates in SQL; rounding happens in the service.
func (s *Store) Summary(ctx context.Context, userID types.ID) (float64, int, error) {
	var avg sql.NullFloat64
	var total int
	err := s.db.QueryRow(ctx, `
		SELECT AVG(rating)::DOUBLE PRECISION, COUNT(*)
		FROM reviews WHERE reviewee_id = $1`,
		string(userID),
	).Scan(&avg, &total)
	if err != nil {
		return 0, 0, err
	}
	return avg.Float64, total, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*Review, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Review, error) {
		return scanReview(row)
	})
}

func scanReview(row pgx.Row) (*Review, error) {
	var r Review
	var comment sql.NullString
	err := row.Scan(
		&r.ID, &r.MatchID, &r.ReviewerID, &r.RevieweeID, &r.Type,
		&r.Rating, &comment, &r.IsAnonymous, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Comment = comment.String
	return &r, nil
}
