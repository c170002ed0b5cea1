// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parcelway/internal/http/handlers"
	"parcelway/internal/http/middleware"
	"parcelway/internal/infra"
	"parcelway/internal/modules/match"
	"parcelway/internal/modules/matching"
	"parcelway/internal/modules/notification"
	"parcelway/internal/modules/parcel"
	"parcelway/internal/modules/review"
	"parcelway/internal/modules/trip"
)

type RouterDeps struct {
	Parcel       *parcel.Service
	Trip         *trip.Service
	Matching     *matching.Service
	Match        *match.Service
	Notification *notification.Service
	Review       *review.Service
	Verifier     infra.TokenVerifier
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	matchingHandler := handlers.NewMatchingHandler(deps.Matching)
	api.GET("/matching/parcel/:parcelId", matchingHandler.ForParcel)
	api.GET("/matching/trip/:tripId", matchingHandler.ForTrip)

	parcelHandler := handlers.NewParcelHandler(deps.Parcel)
	api.POST("/parcels", parcelHandler.Create)
	api.GET("/parcels", parcelHandler.List)
	api.GET("/parcels/mine", parcelHandler.Mine)
	api.GET("/parcels/:id", parcelHandler.Get)
	api.PATCH("/parcels/:id/status", parcelHandler.UpdateStatus)
	api.POST("/parcels/:id/accept", parcelHandler.Accept)
	api.POST("/parcels/:id/cancel", parcelHandler.Cancel)

	tripHandler := handlers.NewTripHandler(deps.Trip)
	api.POST("/trips", tripHandler.Create)
	api.GET("/trips", tripHandler.List)
	api.GET("/trips/mine", tripHandler.Mine)
	api.GET("/trips/:id", tripHandler.Get)
	api.GET("/trips/:id/capacity", tripHandler.Capacity)
	api.PATCH("/trips/:id/status", tripHandler.UpdateStatus)
	api.POST("/trips/:id/cancel", tripHandler.Cancel)

	matchHandler := handlers.NewMatchHandler(deps.Match)
	api.POST("/matches", matchHandler.Create)
	api.GET("/matches", matchHandler.List)
	api.GET("/matches/parcel/:parcelId", matchHandler.ByParcel)
	api.GET("/matches/trip/:tripId", matchHandler.ByTrip)
	api.GET("/matches/:id", matchHandler.Get)
	api.PATCH("/matches/:id/status", matchHandler.UpdateStatus)
	api.DELETE("/matches/:id", matchHandler.Delete)

	reviewHandler := handlers.NewReviewHandler(deps.Review)
	api.POST("/reviews", reviewHandler.Create)
	api.GET("/reviews/user/:userId", reviewHandler.ForUser)
	api.GET("/reviews/user/:userId/average", reviewHandler.Average)
	api.GET("/reviews/match/:matchId", reviewHandler.ForMatch)
	api.GET("/reviews/:id", reviewHandler.Get)
	api.PATCH("/reviews/:id", reviewHandler.Update)
	api.DELETE("/reviews/:id", reviewHandler.Delete)

	notificationHandler := handlers.NewNotificationHandler(deps.Notification)
	api.GET("/notifications", notificationHandler.List)
	api.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	api.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead)

	return r
}
