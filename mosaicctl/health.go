package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe artifact reachability for registered modules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient(flagServer, actor(), flagTimeout)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
			defer cancel()

			report, err := client.health(ctx, name)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODULE\tSTATUS\tVERSION")
			for _, module := range report.Modules {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", module.Name, module.Status, module.Version)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if report.Status != "ok" {
				return fmt.Errorf("registry degraded")
			}
			logger.Info("registry healthy", "modules", len(report.Modules))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "mfe", "", "probe a single module")
	return cmd
}
