// README: matchctl runs the match finder and the alert sweep from the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"parcelway/internal/config"
	"parcelway/internal/infra"
)

var rootCmd = &cobra.Command{
	Use:   "matchctl",
	Short: "Inspect parcel and trip matches",
	Long: `matchctl runs the parcel/trip match finder against the configured
database. Results are printed best match first, as a table or as JSON.

Configuration is read the same way the API reads it: PARCELWAY_* environment
variables plus an optional YAML file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("config")
		if file == "" {
			file = os.Getenv(config.ConfigFileEnv)
		}
		cfg, err := config.LoadFile(file)
		if err != nil {
			return err
		}
		loaded = cfg
		return infra.ConfigureLogging(cfg.Log.Level, cfg.Log.Format)
	},
}

// loaded is filled by the root pre-run hook.
var loaded config.Config

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (overrides "+config.ConfigFileEnv+")")
	rootCmd.PersistentFlags().Bool("json", false, "print results as JSON")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logrus.WithError(err).Error("matchctl failed")
		os.Exit(1)
	}
}
