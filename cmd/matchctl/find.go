package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"parcelway/internal/infra"
	"parcelway/internal/modules/matching"
	"parcelway/internal/modules/parcel"
	"parcelway/internal/modules/trip"
	"parcelway/internal/types"
)

var parcelCmd = &cobra.Command{
	Use:   "parcel <parcel-id>",
	Short: "List planned trips that can carry a parcel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFind(cmd, args[0], func(ctx context.Context, svc *matching.Service, id types.ID) ([]matching.Result, error) {
			return svc.FindForParcel(ctx, id)
		})
	},
}

var tripCmd = &cobra.Command{
	Use:   "trip <trip-id>",
	Short: "List requested parcels a trip can carry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFind(cmd, args[0], func(ctx context.Context, svc *matching.Service, id types.ID) ([]matching.Result, error) {
			return svc.FindForTrip(ctx, id)
		})
	},
}

func init() {
	rootCmd.AddCommand(parcelCmd, tripCmd)
}

type findFunc func(ctx context.Context, svc *matching.Service, id types.ID) ([]matching.Result, error)

func runFind(cmd *cobra.Command, rawID string, find findFunc) error {
	if !types.IsValidID(rawID) {
		return fmt.Errorf("invalid id %q", rawID)
	}
	ctx := cmd.Context()

	db, err := infra.NewDB(ctx, loaded.DB.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := matching.NewService(parcel.NewStore(db), trip.NewStore(db), nil, nil, loaded.Matching)
	results, err := find(ctx, svc, types.ID(rawID))
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	return printResults(cmd.OutOrStdout(), results, asJSON)
}

func printResults(w io.Writer, results []matching.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "no matches")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tTRIP\tPARCEL\tORIGIN_KM\tDEST_KM\tTIME_MATCH")
	for _, r := range results {
		fmt.Fprintf(tw, "%.1f\t%s\t%s\t%.1f\t%.1f\t%t\n",
			r.MatchScore, r.Trip.ID, r.Parcel.ID, r.OriginDistanceKm, r.DestinationDistanceKm, r.TimeMatch)
	}
	return tw.Flush()
}
