package main

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	flagServer  string
	flagActor   string
	flagTimeout time.Duration
	flagVerbose bool

	logger *log.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mosaicctl",
		Short: "Manage microfrontend modules and releases",
		Long: `mosaicctl talks to an mfe-registry server.

It provides commands to:
  - Inspect the active module registry
  - Create, list, and deploy releases from YAML manifests
  - Publish module artifacts directly (hotfix path)
  - Probe artifact health`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(flagVerbose)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", serverFromEnv(), "mfe-registry base URL (env: MOSAIC_SERVER)")
	root.PersistentFlags().StringVar(&flagActor, "actor", "", "actor recorded in audit events (env: MOSAIC_ACTOR)")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", 15*time.Second, "request timeout")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "increase output verbosity")

	root.AddCommand(newRegistryCmd())
	root.AddCommand(newReleaseCmd())
	root.AddCommand(newPublishCmd())
	root.AddCommand(newHealthCmd())

	return root
}

func setupLogging(verbose bool) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: verbose,
	})
}

func serverFromEnv() string {
	if server := os.Getenv("MOSAIC_SERVER"); server != "" {
		return server
	}
	return "http://localhost:8080"
}

func actor() string {
	if flagActor != "" {
		return flagActor
	}
	return os.Getenv("MOSAIC_ACTOR")
}
