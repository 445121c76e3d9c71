package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
)

func newPublishCmd() *cobra.Command {
	var (
		name        string
		file        string
		route       string
		version     string
		description string
		variables   []string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a module artifact directly, bypassing the release flow",
		Long: `Publish uploads a bundled module file and upserts its registry entry
in one step. This is the hotfix path: the module goes live immediately,
independent of the active release.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			if strings.TrimSpace(file) == "" {
				return fmt.Errorf("--file is required")
			}
			if v := strings.TrimSpace(version); v != "" {
				if _, err := semver.NewVersion(v); err != nil {
					return fmt.Errorf("version %q: %w", v, err)
				}
			}

			code, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read module file: %w", err)
			}
			if len(code) == 0 {
				return fmt.Errorf("module file %s is empty", file)
			}

			vars, err := parseVariables(variables)
			if err != nil {
				return err
			}
			if route == "" {
				route = "/" + name
			}

			client, err := newAPIClient(flagServer, actor(), flagTimeout)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
			defer cancel()

			result, err := client.publish(ctx, name, string(code), route, version, description, vars)
			if err != nil {
				return err
			}
			logger.Info("module published",
				"name", name,
				"route", result.Route,
				"path", result.ModulePath,
				"integrity", result.Integrity,
			)
			fmt.Println(result.PreviewURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "module name")
	cmd.Flags().StringVarP(&file, "file", "f", "", "bundled module file (index.js)")
	cmd.Flags().StringVar(&route, "route", "", "route prefix (default /<name>)")
	cmd.Flags().StringVar(&version, "version", "", "semantic version")
	cmd.Flags().StringVar(&description, "description", "", "module description")
	cmd.Flags().StringArrayVar(&variables, "var", nil, "module variable, key=value (repeatable)")
	return cmd
}

func parseVariables(pairs []string) (domain.Variables, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := domain.Variables{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("variable %q must be key=value", pair)
		}
		vars[strings.TrimSpace(key)] = value
	}
	return vars, nil
}
