// README: Match finder endpoints for parcels and trips.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parcelway/internal/modules/matching"
	"parcelway/internal/types"
)

type MatchingHandler struct {
	matching *matching.Service
}

func NewMatchingHandler(svc *matching.Service) *MatchingHandler {
	return &MatchingHandler{matching: svc}
}

// ForParcel lists trips for a parcel. Unknown and malformed ids both yield
// an empty list.
func (h *MatchingHandler) ForParcel(c *gin.Context) {
	id := c.Param("parcelId")
	if !types.IsValidID(id) {
		writeJSON(c, http.StatusOK, []matching.Result{})
		return
	}
	results, err := h.matching.FindForParcel(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, results)
}

func (h *MatchingHandler) ForTrip(c *gin.Context) {
	id := c.Param("tripId")
	if !types.IsValidID(id) {
		writeJSON(c, http.StatusOK, []matching.Result{})
		return
	}
	results, err := h.matching.FindForTrip(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, results)
}
