// README: Notification records delivered to senders and travelers.
package notification

import (
	"time"

	"parcelway/internal/types"
)

type Type string

const (
	TypeParcelAccepted      Type = "parcel_accepted"
	TypeTripMatchFound      Type = "trip_match_found"
	TypeParcelStatusChanged Type = "parcel_status_changed"
	TypeTripStatusChanged   Type = "trip_status_changed"
)

type Notification struct {
	ID        types.ID       `json:"id"`
	UserID    types.ID       `json:"userId"`
	Type      Type           `json:"type"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IsRead    bool           `json:"isRead"`
	CreatedAt time.Time      `json:"createdAt"`
}
