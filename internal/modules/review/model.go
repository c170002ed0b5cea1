// README: Reviews exchanged between sender and traveler after a completed match.
package review

import (
	"time"

	"parcelway/internal/types"
)

type Type string

const (
	TypeSenderToTraveler Type = "sender_to_traveler"
	TypeTravelerToSender Type = "traveler_to_sender"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID          types.ID  `json:"id"`
	MatchID     types.ID  `json:"matchId"`
	ReviewerID  types.ID  `json:"reviewerId,omitempty"`
	RevieweeID  types.ID  `json:"revieweeId"`
	Type        Type      `json:"type"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	IsAnonymous bool      `json:"isAnonymous"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summary is a user's average rating over the reviews they received,
// rounded to one decimal. A user without reviews averages 0.
type Summary struct {
	UserID        types.ID `json:"userId"`
	AverageRating float64  `json:"averageRating"`
	TotalReviews  int      `json:"totalReviews"`
}
