// README: Review handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parcelway/internal/modules/review"
	"parcelway/internal/types"
)

type ReviewHandler struct {
	review *review.Service
}

func NewReviewHandler(svc *review.Service) *ReviewHandler {
	return &ReviewHandler{review: svc}
}

type createReviewReq struct {
	MatchID     string `json:"matchId" binding:"required,uuid"`
	RevieweeID  string `json:"revieweeId" binding:"required"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
	IsAnonymous bool   `json:"isAnonymous"`
}

type updateReviewReq struct {
	Rating      *int    `json:"rating"`
	Comment     *string `json:"comment"`
	IsAnonymous *bool   `json:"isAnonymous"`
}

func (h *ReviewHandler) Create(c *gin.Context) {
	var req createReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.review.Create(c.Request.Context(), review.CreateCommand{
		MatchID:     types.ID(req.MatchID),
		ReviewerID:  callerID(c),
		RevieweeID:  types.ID(req.RevieweeID),
		Rating:      req.Rating,
		Comment:     req.Comment,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, r)
}

// ForUser lists the reviews a user received. User ids are auth uids, not UUIDs.
func (h *ReviewHandler) ForUser(c *gin.Context) {
	rs, err := h.review.ListForUser(c.Request.Context(), types.ID(c.Param("userId")), callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(rs))
}

func (h *ReviewHandler) Average(c *gin.Context) {
	sum, err := h.review.AverageRating(c.Request.Context(), types.ID(c.Param("userId")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, sum)
}

func (h *ReviewHandler) ForMatch(c *gin.Context) {
	id, ok := pathID(c, "matchId")
	if !ok {
		return
	}
	rs, err := h.review.ListByMatch(c.Request.Context(), id, callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(rs))
}

func (h *ReviewHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.review.Get(c.Request.Context(), id, callerID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *ReviewHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.review.Update(c.Request.Context(), review.UpdateCommand{
		ReviewID:    id,
		ActorID:     callerID(c),
		Rating:      req.Rating,
		Comment:     req.Comment,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.review.Delete(c.Request.Context(), id, callerID(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
