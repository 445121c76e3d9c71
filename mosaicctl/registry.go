package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and manage the active module registry",
	}
	cmd.AddCommand(newRegistryListCmd())
	cmd.AddCommand(newRegistryEnableCmd())
	cmd.AddCommand(newRegistryDisableCmd())
	return cmd
}

func newRegistryListCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the active module map",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient(flagServer, actor(), flagTimeout)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
			defer cancel()

			registry, err := client.getRegistry(ctx, name)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(registry))
			for n := range registry {
				names = append(names, n)
			}
			sort.Strings(names)

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tVERSION\tSOURCE\tINTEGRITY")
			for _, n := range names {
				entry := registry[n]
				integrity := entry.Integrity
				if len(integrity) > 12 {
					integrity = integrity[:12] + "…"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n, entry.Version, entry.Source, integrity)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "limit to a single module")
	return cmd
}

func newRegistryEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <name>",
		Short: "Re-activate a module entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setActive(cmd.Context(), args[0], true)
		},
	}
}

func newRegistryDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <name>",
		Short: "Deactivate a module entry without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setActive(cmd.Context(), args[0], false)
		},
	}
}

func setActive(ctx context.Context, name string, active bool) error {
	client, err := newAPIClient(flagServer, actor(), flagTimeout)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, flagTimeout)
	defer cancel()

	if err := client.setActive(ctx, name, active); err != nil {
		return err
	}
	logger.Info("module updated", "name", name, "active", active)
	return nil
}
