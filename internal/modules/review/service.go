// README: Review service enforces who may review whom and aggregates ratings.
package review

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"parcelway/internal/modules/match"
	"parcelway/internal/types"
)

var (
	ErrNotFound        = errors.New("review not found")
	ErrBadRequest      = errors.New("bad request")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("match is not completed")
	ErrAlreadyReviewed = errors.New("match already reviewed by this user")
)

type Repository interface {
	Create(ctx context.Context, r *Review) error
	Get(ctx context.Context, id types.ID) (*Review, error)
	ExistsForReviewer(ctx context.Context, matchID, reviewerID types.ID) (bool, error)
	ListByReviewee(ctx context.Context, userID types.ID) ([]*Review, error)
	ListByMatch(ctx context.Context, matchID types.ID) ([]*Review, error)
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id types.ID) (bool, error)
	Summary(ctx context.Context, userID types.ID) (avg float64, total int, err error)
}

// Matches resolves a match on behalf of a caller; non-participants get
// match.ErrForbidden.
type Matches interface {
	Get(ctx context.Context, id, callerID types.ID) (*match.Match, error)
}

type Service struct {
	store   Repository
	matches Matches
	now     func() time.Time
}

func NewService(store Repository, matches Matches) *Service {
	return &Service{store: store, matches: matches, now: time.Now}
}

type CreateCommand struct {
	MatchID     types.ID
	ReviewerID  types.ID
	RevieweeID  types.ID
	Rating      int
	Comment     string
	IsAnonymous bool
}

// UpdateCommand changes the fields that are set.
type UpdateCommand struct {
	ReviewID    types.ID
	ActorID     types.ID
	Rating      *int
	Comment     *string
	IsAnonymous *bool
}

func validRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// Create records the reviewer's rating of the other party of a completed
// match. Each participant reviews a match once.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Review, error) {
	if cmd.MatchID == "" || cmd.RevieweeID == "" {
		return nil, ErrBadRequest
	}
	if !validRating(cmd.Rating) {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrBadRequest, MinRating, MaxRating)
	}
	m, err := s.matches.Get(ctx, cmd.MatchID, cmd.ReviewerID)
	if errors.Is(err, match.ErrForbidden) {
		return nil, fmt.Errorf("%w: not part of this match", ErrForbidden)
	}
	if err != nil {
		return nil, err
	}
	if m.Status != match.StatusCompleted {
		return nil, ErrInvalidState
	}
	if cmd.RevieweeID == cmd.ReviewerID {
		return nil, fmt.Errorf("%w: cannot review yourself", ErrBadRequest)
	}
	if !m.IsParticipant(cmd.RevieweeID) {
		return nil, fmt.Errorf("%w: reviewee is not part of this match", ErrBadRequest)
	}

	exists, err := s.store.ExistsForReviewer(ctx, m.ID, cmd.ReviewerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	typ := TypeTravelerToSender
	if cmd.ReviewerID == m.SenderID {
		typ = TypeSenderToTraveler
	}
	now := s.now()
	r := &Review{
		ID:          types.NewID(),
		MatchID:     m.ID,
		ReviewerID:  cmd.ReviewerID,
		RevieweeID:  cmd.RevieweeID,
		Type:        typ,
		Rating:      cmd.Rating,
		Comment:     cmd.Comment,
		IsAnonymous: cmd.IsAnonymous,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"review_id": r.ID, "match_id": r.MatchID, "type": r.Type}).Info("review created")
	return r, nil
}

// Get returns a review to its reviewer or reviewee.
func (s *Service) Get(ctx context.Context, id, callerID types.ID) (*Review, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.ReviewerID != callerID && r.RevieweeID != callerID {
		return nil, ErrForbidden
	}
	return redact(r, callerID), nil
}

// ListForUser returns the reviews userID received.
func (s *Service) ListForUser(ctx context.Context, userID, callerID types.ID) ([]*Review, error) {
	rs, err := s.store.ListByReviewee(ctx, userID)
	if err != nil {
		return nil, err
	}
	return redactAll(rs, callerID), nil
}

func (s *Service) ListByMatch(ctx context.Context, matchID, callerID types.ID) ([]*Review, error) {
	rs, err := s.store.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return redactAll(rs, callerID), nil
}

func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Review, error) {
	r, err := s.store.Get(ctx, cmd.ReviewID)
	if err != nil {
		return nil, err
	}
	if r.ReviewerID != cmd.ActorID {
		return nil, ErrForbidden
	}
	if cmd.Rating != nil {
		if !validRating(*cmd.Rating) {
			return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrBadRequest, MinRating, MaxRating)
		}
		r.Rating = *cmd.Rating
	}
	if cmd.Comment != nil {
		r.Comment = *cmd.Comment
	}
	if cmd.IsAnonymous != nil {
		r.IsAnonymous = *cmd.IsAnonymous
	}
	r.UpdatedAt = s.now()
	if err := s.store.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes a review; only its author may do so.
func (s *Service) Delete(ctx context.Context, id, callerID types.ID) error {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.ReviewerID != callerID {
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

func (s *Service) AverageRating(ctx context.Context, userID types.ID) (Summary, error) {
	avg, total, err := s.store.Summary(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	if total == 0 {
		return Summary{UserID: userID}, nil
	}
	return Summary{UserID: userID, AverageRating: math.Round(avg*10) / 10, TotalReviews: total}, nil
}

// redact hides the author of an anonymous review from everyone but the
// author.
func redact(r *Review, callerID types.ID) *Review {
	if !r.IsAnonymous || r.ReviewerID == callerID {
		return r
	}
	cp := *r
	cp.ReviewerID = ""
	return &cp
}

func redactAll(rs []*Review, callerID types.ID) []*Review {
	out := make([]*Review, 0, len(rs))
	for _, r := range rs {
		out = append(out, redact(r, callerID))
	}
	return out
}
