// README: Parcel handlers for create/list/get, status changes, accept and cancel.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parcelway/internal/modules/parcel"
	"parcelway/internal/types"
)

type ParcelHandler struct {
	parcel *parcel.Service
}

func NewParcelHandler(svc *parcel.Service) *ParcelHandler {
	return &ParcelHandler{parcel: svc}
}

type createParcelReq struct {
	FromLocation        string       `json:"fromLocation" binding:"required"`
	ToLocation          string       `json:"toLocation" binding:"required"`
	FromLat             float64      `json:"fromLat"`
	FromLng             float64      `json:"fromLng"`
	ToLat               float64      `json:"toLat"`
	ToLng               float64      `json:"toLng"`
	Size                parcel.Size  `json:"size" binding:"required"`
	Description         string       `json:"description"`
	Reward              *types.Money `json:"reward"`
	DesiredPickupDate   time.Time    `json:"desiredPickupDate" binding:"required"`
	DesiredDeliveryDate time.Time    `json:"desiredDeliveryDate" binding:"required"`
}

type updateParcelStatusReq struct {
	Status parcel.Status `json:"status" binding:"required"`
}

type acceptParcelReq struct {
	TripID string `json:"tripId" binding:"required,uuid"`
}

func (h *ParcelHandler) Create(c *gin.Context) {
	var req createParcelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.parcel.Create(c.Request.Context(), parcel.CreateCommand{
		SenderID:     callerID(c),
		FromLocation: req.FromLocation,
		ToLocation:   req.ToLocation,
		From:         types.Point{Lat: req.FromLat, Lng: req.FromLng},
		To:           types.Point{Lat: req.ToLat, Lng: req.ToLng},
		Size:         req.Size,
		Description:  req.Description,
		Reward:       req.Reward,
		PickupAt:     req.DesiredPickupDate,
		DeliverBy:    req.DesiredDeliveryDate,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, p)
}

// List returns parcels filtered by the optional status, size and RFC 3339
// fromDate/toDate pickup window query params.
func (h *ParcelHandler) List(c *gin.Context) {
	f := parcel.Filter{
		Status: parcel.Status(c.Query("status")),
		Size:   parcel.Size(c.Query("size")),
	}
	for name, dst := range map[string]*time.Time{"fromDate": &f.PickupAfter, "toDate": &f.PickupBefore} {
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
	ps, err := h.parcel.List(c.Request.Context(), f)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(ps))
}

func (h *ParcelHandler) Mine(c *gin.Context) {
	ps, err := h.parcel.ListForUser(c.Request.Context(), callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(ps))
}

func (h *ParcelHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.parcel.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *ParcelHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateParcelStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.parcel.UpdateStatus(c.Request.Context(), parcel.UpdateStatusCommand{
		ParcelID: id,
		ActorID:  callerID(c),
		Status:   req.Status,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

// Accept puts the parcel on one of the caller's trips.
func (h *ParcelHandler) Accept(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req acceptParcelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.parcel.Accept(c.Request.Context(), parcel.AcceptCommand{
		ParcelID:  id,
		TripID:    types.ID(req.TripID),
		CarrierID: callerID(c),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *ParcelHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.parcel.Cancel(c.Request.Context(), parcel.CancelCommand{ParcelID: id, ActorID: callerID(c)})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
