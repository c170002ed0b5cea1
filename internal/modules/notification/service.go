// README: Notification service persists notifications and optionally pushes them.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"parcelway/internal/types"
)

var (
	ErrNotFound   = errors.New("notification not found")
	ErrBadRequest = errors.New("bad request")
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID types.ID, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, id, userID types.ID) (bool, error)
	MarkAllRead(ctx context.Context, userID types.ID) (int64, error)
	CountUnread(ctx context.Context, userID types.ID) (int, error)
}

// Pusher delivers a stored notification to the user's devices.
type Pusher interface {
	Push(ctx context.Context, n *Notification) error
}

type Service struct {
	store  Repository
	pusher Pusher
	now    func() time.Time
}

// NewService wires the store and an optional pusher (nil disables push).
func NewService(store Repository, pusher Pusher) *Service {
	return &Service{store: store, pusher: pusher, now: time.Now}
}

// Notify stores a notification for userID. Push delivery is best effort: a
// failed push is logged and does not fail the call.
func (s *Service) Notify(ctx context.Context, userID types.ID, typ Type, message string, metadata map[string]any) (*Notification, error) {
	if userID == "" || message == "" {
		return nil, ErrBadRequest
	}
	n := &Notification{
		ID:        types.NewID(),
		UserID:    userID,
		Type:      typ,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: s.now(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("storing notification: %w", err)
	}
	if s.pusher != nil {
		if err := s.pusher.Push(ctx, n); err != nil {
			logrus.WithFields(logrus.Fields{
				"notification_id": n.ID,
				"user_id":         userID,
				"type":            typ,
			}).WithError(err).Warn("push delivery failed")
		}
	}
	return n, nil
}

func (s *Service) ListByUser(ctx context.Context, userID types.ID, unreadOnly bool) ([]*Notification, error) {
	return s.store.ListByUser(ctx, userID, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, id, userID types.ID) error {
	ok, err := s.store.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID types.ID) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context, userID types.ID) (int, error) {
	return s.store.CountUnread(ctx, userID)
}
