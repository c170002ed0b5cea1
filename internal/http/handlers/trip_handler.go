// README: Trip handlers for create/list/get, capacity, status changes and cancel.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parcelway/internal/modules/trip"
	"parcelway/internal/types"
)

type TripHandler struct {
	trip *trip.Service
}

func NewTripHandler(svc *trip.Service) *TripHandler {
	return &TripHandler{trip: svc}
}

type createTripReq struct {
	FromLocation      string             `json:"fromLocation" binding:"required"`
	ToLocation        string             `json:"toLocation" binding:"required"`
	FromLat           float64            `json:"fromLat"`
	FromLng           float64            `json:"fromLng"`
	ToLat             float64            `json:"toLat"`
	ToLng             float64            `json:"toLng"`
	TransportType     trip.TransportType `json:"transportType" binding:"required"`
	DepartureTime     time.Time          `json:"departureTime" binding:"required"`
	ArrivalTime       time.Time          `json:"arrivalTime" binding:"required"`
	AvailableCapacity int                `json:"availableCapacity" binding:"required,min=1"`
	Notes             string             `json:"notes"`
}

type updateTripStatusReq struct {
	Status trip.Status `json:"status" binding:"required"`
}

func (h *TripHandler) Create(c *gin.Context) {
	var req createTripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	t, err := h.trip.Create(c.Request.Context(), trip.CreateCommand{
		TravelerID:        callerID(c),
		FromLocation:      req.FromLocation,
		ToLocation:        req.ToLocation,
		From:              types.Point{Lat: req.FromLat, Lng: req.FromLng},
		To:                types.Point{Lat: req.ToLat, Lng: req.ToLng},
		TransportType:     req.TransportType,
		DepartureTime:     req.DepartureTime,
		ArrivalTime:       req.ArrivalTime,
		AvailableCapacity: req.AvailableCapacity,
		Notes:             req.Notes,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, t)
}

// List supports status, transportType, from, to and the RFC 3339
// departAfter/departBefore window as query params.
func (h *TripHandler) List(c *gin.Context) {
	f := trip.Filter{
		Status:        trip.Status(c.Query("status")),
		TransportType: trip.TransportType(c.Query("transportType")),
		From:          c.Query("from"),
		To:            c.Query("to"),
	}
	for name, dst := range map[string]*time.Time{"departAfter": &f.DepartAfter, "departBefore": &f.DepartBefore} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid "+name)
			return
		}
		*dst = ts
	}
	ts, err := h.trip.List(c.Request.Context(), f)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(ts))
}

func (h *TripHandler) Mine(c *gin.Context) {
	ts, err := h.trip.ListByTraveler(c.Request.Context(), callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(ts))
}

func (h *TripHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.trip.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

func (h *TripHandler) Capacity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	capacity, err := h.trip.RemainingCapacity(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, capacity)
}

func (h *TripHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateTripStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	t, err := h.trip.UpdateStatus(c.Request.Context(), trip.UpdateStatusCommand{
		TripID:  id,
		ActorID: callerID(c),
		Status:  req.Status,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

func (h *TripHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.trip.Cancel(c.Request.Context(), trip.CancelCommand{TripID: id, ActorID: callerID(c)})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}
