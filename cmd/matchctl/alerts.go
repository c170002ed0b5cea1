package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"parcelway/internal/infra"
	"parcelway/internal/modules/matching"
	"parcelway/internal/modules/notification"
	"parcelway/internal/modules/parcel"
	"parcelway/internal/modules/trip"
)

// alertsCmd runs one sweep, for cron setups that keep the API's ticker off.
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Run one match alert sweep",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := infra.NewDB(ctx, loaded.DB.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		rdb, err := infra.NewRedis(ctx, loaded.Redis.Addr)
		if err != nil {
			return err
		}
		defer rdb.Close()

		// Push is left to the API process; the sweep only stores notifications.
		notifier := notification.NewService(notification.NewStore(db), nil)
		svc := matching.NewService(parcel.NewStore(db), trip.NewStore(db), matching.NewStore(rdb), notifier, loaded.Matching)

		sent, err := svc.SweepAlerts(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d alerts sent\n", sent)
		return err
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}
