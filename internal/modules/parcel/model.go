// README: Parcel aggregate, size categories and status definitions.
package parcel

import (
	"time"

	"parcelway/internal/types"
)

type Status string

const (
	StatusRequested Status = "requested"
	StatusAccepted  Status = "accepted"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

type Size string

const (
	SizeSmall  Size = "small"  // fits in a bag
	SizeMedium Size = "medium" // small box
	SizeLarge  Size = "large"  // large box
)

func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

type Parcel struct {
	ID            types.ID     `json:"id"`
	SenderID      types.ID     `json:"senderId"`
	CarrierID     *types.ID    `json:"carrierId,omitempty"`
	TripID        *types.ID    `json:"tripId,omitempty"`
	FromLocation  string       `json:"fromLocation"`
	ToLocation    string       `json:"toLocation"`
	From          types.Point  `json:"from"`
	To            types.Point  `json:"to"`
	Size          Size         `json:"size"`
	Description   string       `json:"description,omitempty"`
	Reward        *types.Money `json:"reward,omitempty"`
	PickupAt      time.Time    `json:"desiredPickupDate"`
	DeliverBy     time.Time    `json:"desiredDeliveryDate"`
	Status        Status       `json:"status"`
	StatusVersion int          `json:"-"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// IsParticipant reports whether uid is the sender or the carrier.
func (p *Parcel) IsParticipant(uid types.ID) bool {
	return p.SenderID == uid || (p.CarrierID != nil && *p.CarrierID == uid)
}

// AllowedTransitions represents the parcel lifecycle as code. Releasing an
// accepted parcel (accepted -> requested) puts it back on the market.
var AllowedTransitions = map[Status][]Status{
	StatusRequested: {StatusAccepted, StatusCancelled},
	StatusAccepted:  {StatusInTransit, StatusCancelled, StatusRequested},
	StatusInTransit: {StatusDelivered},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Filter narrows List. The pickup window applies only when both bounds are
// set.
type Filter struct {
	Status       Status
	Size         Size
	PickupAfter  time.Time
	PickupBefore time.Time
}
