// README: Entry point; loads config, wires services, starts the HTTP server and the match alert sweeper.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"parcelway/internal/config"
	httptransport "parcelway/internal/http"
	"parcelway/internal/infra"
	"parcelway/internal/maps"
	"parcelway/internal/modules/location"
	"parcelway/internal/modules/match"
	"parcelway/internal/modules/matching"
	"parcelway/internal/modules/notification"
	"parcelway/internal/modules/parcel"
	"parcelway/internal/modules/review"
	"parcelway/internal/modules/trip"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	if err := infra.ConfigureLogging(cfg.Log.Level, cfg.Log.Format); err != nil {
		logrus.WithError(err).Fatal("configure logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		logrus.Fatal("PARCELWAY_FIREBASE_PROJECT_ID is required")
	}
	app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		logrus.WithError(err).Fatal("firebase init")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, app)
	if err != nil {
		logrus.WithError(err).Fatal("firebase auth init")
	}

	var pusher notification.Pusher
	if cfg.Firebase.PushEnabled {
		client, err := infra.NewMessaging(ctx, app)
		if err != nil {
			logrus.WithError(err).Fatal("firebase messaging init")
		}
		pusher = notification.NewFCMPusher(client)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("connect postgres")
	}
	defer dbPool.Close()

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		logrus.WithError(err).Fatal("connect redis")
	}
	defer redisClient.Close()

	var geocoder location.Geocoder
	if cfg.Maps.APIKey != "" {
		gs, err := maps.NewGeocodeService(cfg.Maps.APIKey, cfg.Maps.Region)
		if err != nil {
			logrus.WithError(err).Fatal("maps init")
		}
		geocoder = gs
	} else {
		logrus.Warn("maps.api_key not set; geocoding disabled")
	}

	notificationSvc := notification.NewService(notification.NewStore(dbPool), pusher)

	parcelStore := parcel.NewStore(dbPool)
	parcelSvc := parcel.NewService(parcelStore, notificationSvc, geocoder)

	tripStore := trip.NewStore(dbPool)
	tripSvc := trip.NewService(tripStore, notificationSvc, geocoder)

	matchingSvc := matching.NewService(parcelStore, tripStore, matching.NewStore(redisClient), notificationSvc, cfg.Matching)
	matchSvc := match.NewService(match.NewStore(dbPool), parcelSvc, tripSvc)
	reviewSvc := review.NewService(review.NewStore(dbPool), matchSvc)

	go matchingSvc.RunAlerts(ctx)

	server := httptransport.NewServer(cfg.HTTP.Addr, httptransport.RouterDeps{
		Parcel:       parcelSvc,
		Trip:         tripSvc,
		Matching:     matchingSvc,
		Match:        matchSvc,
		Notification: notificationSvc,
		Review:       reviewSvc,
		Verifier:     verifier,
	})
	logrus.WithField("addr", cfg.HTTP.Addr).Info("parcelway api listening")
	if err := server.Run(ctx); err != nil {
		logrus.WithError(err).Fatal("http server")
	}
}
