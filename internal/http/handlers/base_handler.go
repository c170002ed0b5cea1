// README: Base handler utilities (JSON helpers, caller identity, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"parcelway/internal/http/middleware"
	"parcelway/internal/modules/match"
	"parcelway/internal/modules/notification"
	"parcelway/internal/modules/parcel"
	"parcelway/internal/modules/review"
	"parcelway/internal/modules/trip"
	"parcelway/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// pathID reads a UUID path parameter. It writes a 400 and returns false when
// the value is malformed.
func pathID(c *gin.Context, name string) (types.ID, bool) {
	v := c.Param(name)
	if !types.IsValidID(v) {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return types.ID(v), true
}

func callerID(c *gin.Context) types.ID {
	return types.ID(middleware.CallerUID(c))
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, parcel.ErrBadRequest), errors.Is(err, trip.ErrBadRequest),
		errors.Is(err, match.ErrBadRequest), errors.Is(err, notification.ErrBadRequest),
		errors.Is(err, review.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, parcel.ErrForbidden), errors.Is(err, trip.ErrForbidden),
		errors.Is(err, match.ErrForbidden), errors.Is(err, review.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, parcel.ErrNotFound), errors.Is(err, trip.ErrNotFound),
		errors.Is(err, match.ErrNotFound), errors.Is(err, notification.ErrNotFound),
		errors.Is(err, review.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, parcel.ErrInvalidState), errors.Is(err, parcel.ErrConflict),
		errors.Is(err, parcel.ErrNoCapacity), errors.Is(err, parcel.ErrTripUnavailable),
		errors.Is(err, trip.ErrInvalidState), errors.Is(err, trip.ErrConflict),
		errors.Is(err, match.ErrInvalidState), errors.Is(err, match.ErrConflict),
		errors.Is(err, review.ErrInvalidState), errors.Is(err, review.ErrAlreadyReviewed):
		writeError(c, http.StatusConflict, err.Error())
	default:
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("request failed")
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
