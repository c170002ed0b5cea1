// README: Trip aggregate, transport types and status definitions.
package trip

import (
	"time"

	"parcelway/internal/modules/parcel"
	"parcelway/internal/types"
)

type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type TransportType string

const (
	TransportCar   TransportType = "car"
	TransportBus   TransportType = "bus"
	TransportTrain TransportType = "train"
)

func (t TransportType) Valid() bool {
	switch t {
	case TransportCar, TransportBus, TransportTrain:
		return true
	}
	return false
}

// AssignedParcel is the slice of a parcel a trip needs for capacity accounting.
type AssignedParcel struct {
	ID     types.ID      `json:"id"`
	Status parcel.Status `json:"status"`
}

type Trip struct {
	ID                types.ID         `json:"id"`
	TravelerID        types.ID         `json:"travelerId"`
	FromLocation      string           `json:"fromLocation"`
	ToLocation        string           `json:"toLocation"`
	From              types.Point      `json:"from"`
	To                types.Point      `json:"to"`
	TransportType     TransportType    `json:"transportType"`
	DepartureTime     time.Time        `json:"departureTime"`
	ArrivalTime       time.Time        `json:"arrivalTime"`
	AvailableCapacity int              `json:"availableCapacity"`
	Notes             string           `json:"notes,omitempty"`
	Status            Status           `json:"status"`
	StatusVersion     int              `json:"-"`
	Parcels           []AssignedParcel `json:"parcels"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// RemainingCapacity is the number of further parcels the trip can take.
// Only accepted parcels hold a slot.
func (t *Trip) RemainingCapacity() int {
	used := 0
	for _, p := range t.Parcels {
		if p.Status == parcel.StatusAccepted {
			used++
		}
	}
	return t.AvailableCapacity - used
}

var AllowedTransitions = map[Status][]Status{
	StatusPlanned:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Filter narrows trip listings. From and To match case-insensitively as
// substrings of the location text. The departure window applies only when
// both bounds are set.
type Filter struct {
	Status        Status
	TransportType TransportType
	From          string
	To            string
	DepartAfter   time.Time
	DepartBefore  time.Time
}

// Capacity is the response shape of a capacity lookup.
type Capacity struct {
	TripID            types.ID `json:"tripId"`
	AvailableCapacity int      `json:"availableCapacity"`
	Accepted          int      `json:"accepted"`
	Remaining         int      `json:"remaining"`
}
