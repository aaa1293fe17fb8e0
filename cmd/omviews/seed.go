package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/emergent-company/omviews/internal/config"
	"github.com/emergent-company/omviews/internal/content"
	"github.com/emergent-company/omviews/internal/emergent"
)

func newSeedCommand(configPath *string) *cobra.Command {
	var (
		dryRun bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Register the omviews template pack with the Emergent project",
		Long: `Register the omviews template pack (every object and relationship type the
tools write) with the configured Emergent project and assign it. A pack with
the same version that is already installed is reused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			pack := content.TemplatePack(a.cfg.Server.Version)
			if dryRun {
				if output == outputText {
					output = outputJSON
				}
				return writeView(cmd.OutOrStdout(), output, pack)
			}
			if a.cfg.Store.Backend != config.BackendEmergent || a.cfg.Emergent.Token == "" {
				return errors.New("seed needs the emergent store and EMERGENT_TOKEN")
			}

			opts := emergent.DefaultOptions()
			opts.ProjectID = a.cfg.Emergent.ProjectID
			opts.RequestsPerSecond = a.cfg.Store.RequestsPerSecond
			client, err := emergent.NewClient(a.cfg.Emergent.URL, a.cfg.Emergent.Token, opts, a.logger)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			res, err := client.InstallPack(ctx, pack)
			if err != nil {
				return err
			}
			if output == outputText {
				return writeInstall(cmd.OutOrStdout(), pack, res)
			}
			return writeView(cmd.OutOrStdout(), output, res)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the pack instead of registering it")
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "Output format: text, json or yaml")
	return cmd
}

func writeInstall(w io.Writer, pack *emergent.Pack, res *emergent.PackInstall) error {
	state := "created and assigned"
	if res.AlreadyInstalled {
		state = "already installed"
	}
	_, err := fmt.Fprintf(w, "template pack %s v%s %s (id %s)\n%d object types, %d relationship types compiled\n",
		pack.Name, pack.Version, state, res.PackID, len(res.ObjectTypes), len(res.RelationshipTypes))
	return err
}
