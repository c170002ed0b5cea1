// README: Match proposals pairing a parcel with a trip.
package match

import (
	"time"

	"parcelway/internal/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Match struct {
	ID            types.ID  `json:"id"`
	ParcelID      types.ID  `json:"parcelId"`
	TripID        types.ID  `json:"tripId"`
	SenderID      types.ID  `json:"senderId"`
	TravelerID    types.ID  `json:"travelerId"`
	Status        Status    `json:"status"`
	StatusVersion int       `json:"-"`
	MatchScore    *float64  `json:"matchScore,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (m *Match) IsParticipant(uid types.ID) bool {
	return m.SenderID == uid || m.TravelerID == uid
}

var AllowedTransitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
