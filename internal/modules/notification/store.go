// README: Notification store backed by PostgreSQL.
package notification

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parcelway/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, n *Notification) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, message, metadata, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(n.ID), string(n.UserID), string(n.Type), n.Message, n.Metadata, n.IsRead, n.CreatedAt,
	)
	return err
}

func (s *Store) ListByUser(ctx context.Context, userID types.ID, unreadOnly bool) ([]*Notification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, type, message, metadata, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = FALSE OR is_read = FALSE)
		ORDER BY created_at DESC, id`,
		string(userID), unreadOnly,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Notification, error) {
		var n Notification
		err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Metadata, &n.IsRead, &n.CreatedAt)
		return &n, err
	})
}

// MarkRead flags a single notification owned by userID as read. It reports
// false when no such notification exists.
func (s *Store) MarkRead(ctx context.Context, id, userID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = $2`,
		string(id), string(userID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID types.ID) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE user_id = $1 AND is_read = FALSE`,
		string(userID),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) CountUnread(ctx context.Context, userID types.ID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND is_read = FALSE`,
		string(userID),
	).Scan(&n)
	return n, err
}
