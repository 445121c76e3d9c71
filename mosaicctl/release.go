package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Create, list, and deploy releases",
	}
	cmd.AddCommand(newReleaseCreateCmd())
	cmd.AddCommand(newReleaseListCmd())
	cmd.AddCommand(newReleaseDeployCmd())
	return cmd
}

func newReleaseCreateCmd() *cobra.Command {
	var manifestPath string
	var deployNow bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft release from a YAML manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			manifest, err := loadManifest(manifestPath)
			if err != nil {
				return err
			}

			client, err := newAPIClient(flagServer, actor(), flagTimeout)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
			defer cancel()

			rel, err := client.createRelease(ctx, manifest)
			if err != nil {
				return err
			}
			logger.Info("release created", "id", rel.ID, "version", rel.Version, "artifacts", len(rel.Artifacts))

			if !deployNow {
				fmt.Println(rel.ID)
				return nil
			}
			deployed, err := client.deployRelease(ctx, rel.ID)
			if err != nil {
				return err
			}
			logger.Info("release deployed", "id", deployed.ID, "version", deployed.Version)
			return nil
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "file", "f", "release.yaml", "release manifest path")
	cmd.Flags().BoolVar(&deployNow, "deploy", false, "deploy immediately after creating")
	return cmd
}

func newReleaseListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List releases, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient(flagServer, actor(), flagTimeout)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
			defer cancel()

			releases, err := client.listReleases(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tVERSION\tSTATUS\tARTIFACTS\tCREATED")
			for _, rel := range releases {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					rel.ID, rel.Version, rel.Status, len(rel.Artifacts), rel.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}

func newReleaseDeployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy <release-id>",
		Short: "Activate a release, archiving the previously active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(flagServer, actor(), flagTimeout)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
			defer cancel()

			rel, err := client.deployRelease(ctx, args[0])
			if err != nil {
				return err
			}
			logger.Info("release deployed", "id", rel.ID, "version", rel.Version, "artifacts", len(rel.Artifacts))
			return nil
		},
	}
}
