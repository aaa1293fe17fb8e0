// Command omviews serves open metadata views over the Emergent graph.
//
// "omviews serve" runs the MCP server over stdio or HTTP. "omviews get"
// prints a single view from the command line.
//
// Configuration comes from an optional TOML file (--config or
// OMVIEWS_CONFIG) overlaid with environment variables:
//
//	EMERGENT_TOKEN        - Project-scoped token (emt_*) for Emergent API
//	EMERGENT_URL          - Emergent server URL (default: http://localhost:3002)
//	OMVIEWS_STORE         - emergent or memory (default: emergent)
//	OMVIEWS_TRANSPORT     - stdio or http (default: stdio)
//	OMVIEWS_LOG_LEVEL     - Log level: debug, info, warn, error (default: info)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "omviews: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "omviews",
		Short: "Open metadata views over the Emergent graph",
		Long: `omviews exposes collections, contact details, information supply chains,
solution blueprints and solution components as MCP tools, backed by the
Emergent knowledge graph.`,
		Example: `  # Run as an MCP subprocess
  omviews serve

  # Run the HTTP transport against an in-memory store
  omviews serve --http :8080 --store memory

  # Print a solution component with its Mermaid graph
  omviews get component 6f1c... --mermaid`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file (default $OMVIEWS_CONFIG)")

	cmd.AddCommand(newServeCommand(&configPath))
	cmd.AddCommand(newGetCommand(&configPath))
	cmd.AddCommand(newSweepCommand(&configPath))
	cmd.AddCommand(newSeedCommand(&configPath))
	cmd.AddCommand(newInfoCommand())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the omviews version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "omviews %s\n", Version)
			return nil
		},
	})
	return cmd
}
