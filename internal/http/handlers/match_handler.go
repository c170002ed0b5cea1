// README: Match proposal handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parcelway/internal/modules/match"
	"parcelway/internal/types"
)

type MatchHandler struct {
	match *match.Service
}

func NewMatchHandler(svc *match.Service) *MatchHandler {
	return &MatchHandler{match: svc}
}

type createMatchReq struct {
	ParcelID string `json:"parcelId" binding:"required,uuid"`
	TripID   string `json:"tripId" binding:"required,uuid"`
	Notes    string `json:"notes"`
}

type updateMatchStatusReq struct {
	Status match.Status `json:"status" binding:"required"`
	Notes  *string      `json:"notes"`
}

func (h *MatchHandler) Create(c *gin.Context) {
	var req createMatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	m, err := h.match.Create(c.Request.Context(), match.CreateCommand{
		ParcelID: types.ID(req.ParcelID),
		TripID:   types.ID(req.TripID),
		Notes:    req.Notes,
		CallerID: callerID(c),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, m)
}

func (h *MatchHandler) List(c *gin.Context) {
	ms, err := h.match.ListForUser(c.Request.Context(), callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(ms))
}

func (h *MatchHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	m, err := h.match.Get(c.Request.Context(), id, callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, m)
}

func (h *MatchHandler) ByParcel(c *gin.Context) {
	id, ok := pathID(c, "parcelId")
	if !ok {
		return
	}
	ms, err := h.match.ListByParcel(c.Request.Context(), id, callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(ms))
}

func (h *MatchHandler) ByTrip(c *gin.Context) {
	id, ok := pathID(c, "tripId")
	if !ok {
		return
	}
	ms, err := h.match.ListByTrip(c.Request.Context(), id, callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(ms))
}

func (h *MatchHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateMatchStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	m, err := h.match.UpdateStatus(c.Request.Context(), match.UpdateStatusCommand{
		MatchID: id,
		ActorID: callerID(c),
		Status:  req.Status,
		Notes:   req.Notes,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, m)
}

func (h *MatchHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.match.Delete(c.Request.Context(), id, callerID(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
