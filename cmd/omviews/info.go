package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emergent-company/omviews/internal/config"
	"github.com/emergent-company/omviews/internal/mcp"
	"github.com/emergent-company/omviews/internal/store"
	"github.com/emergent-company/omviews/internal/store/memstore"
)

// toolGroups orders the tool listing; a tool lands in the first matching group.
var toolGroups = []struct {
	title  string
	prefix string
}{
	{"Collections", "om_collection_"},
	{"Digital products", "om_digital_product_"},
	{"Agreements", "om_agreement_"},
	{"Contacts", "om_contact_"},
	{"Supply chains", "om_supply_chain_"},
	{"Solutions", "om_solution_"},
	{"Maintenance", "om_anchor_"},
}

func newInfoCommand() *cobra.Command {
	var opencode, claude, cursor bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Describe the server and print MCP client configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch {
			case opencode:
				printClientConfig(w, "OpenCode", ".opencode.json or opencode.json")
			case claude:
				printClientConfig(w, "Claude Desktop", "claude_desktop_config.json")
			case cursor:
				printClientConfig(w, "Cursor", ".cursor/mcp.json")
			default:
				printGeneralInfo(w, infoRegistry())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opencode, "opencode", false, "show OpenCode MCP client configuration")
	cmd.Flags().BoolVar(&claude, "claude", false, "show Claude Desktop MCP client configuration")
	cmd.Flags().BoolVar(&cursor, "cursor", false, "show Cursor MCP client configuration")
	cmd.MarkFlagsMutuallyExclusive("opencode", "claude", "cursor")
	return cmd
}

// infoRegistry wires the full tool set over an empty store so the listing
// always matches what serve registers.
func infoRegistry() *mcp.Registry {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newApp(config.Default(), store.Static{Store: memstore.New()}, logger).registry
}

func printGeneralInfo(w io.Writer, reg *mcp.Registry) {
	fmt.Fprintf(w, `omviews %s: open metadata views MCP server

omviews is a Model Context Protocol (MCP) server backed by the Emergent
knowledge graph. It manages collections and digital products, contact
details, information supply chains and solution blueprints, and renders
their relationships as Mermaid graphs.

TRANSPORT MODES

  stdio (default)
    Communicates over stdin/stdout using JSON-RPC 2.0. Used when launched
    as a subprocess by an MCP client.

    Requires: EMERGENT_TOKEN (project-scoped token, emt_*)

  http (omviews serve --http :8080)
    Runs as a standalone HTTP server (MCP Streamable HTTP transport).
    Clients send their own Emergent token as the Bearer header in each
    request.

    Endpoint:      POST /mcp
    Health check:  GET /health
    Metrics:       GET /metrics

`, Version)

	fmt.Fprint(w, toolListing(reg))

	fmt.Fprint(w, `PROMPTS

  omviews-guide                Usage guide (focus: collections/contacts/
                               solutions/lifecycle)
  omviews-model-supply-chain   Steps to model one information supply chain

RESOURCES

  omviews://type-model       Element types, relationships and classifications
  omviews://content-status   Content status lifecycle
  omviews://tool-reference   One line per tool

CLIENT CONFIGURATION

  To see configuration for a specific MCP client, run:

    omviews info --opencode    OpenCode (.opencode.json)
    omviews info --claude      Claude Desktop (claude_desktop_config.json)
    omviews info --cursor      Cursor (.cursor/mcp.json)
`)
}

// toolListing groups the registered tool names under toolGroups.
func toolListing(reg *mcp.Registry) string {
	tools := reg.List()
	grouped := make([][]string, len(toolGroups))
	var other []string
	for _, t := range tools {
		placed := false
		for i, g := range toolGroups {
			if strings.HasPrefix(t.Name, g.prefix) {
				grouped[i] = append(grouped[i], t.Name)
				placed = true
				break
			}
		}
		if !placed {
			other = append(other, t.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TOOLS (%d)\n\n", len(tools))
	for i, g := range toolGroups {
		if len(grouped[i]) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s (%d):\n", g.title, len(grouped[i]))
		writeWrapped(&b, grouped[i])
	}
	if len(other) > 0 {
		fmt.Fprintf(&b, "  Other (%d):\n", len(other))
		writeWrapped(&b, other)
	}
	b.WriteString("\n")
	return b.String()
}

func writeWrapped(b *strings.Builder, names []string) {
	const indent, width = "    ", 76
	line := indent
	for i, n := range names {
		item := n
		if i < len(names)-1 {
			item += ","
		}
		if len(line) > len(indent) && len(line)+1+len(item) > width {
			b.WriteString(line + "\n")
			line = indent
		}
		if len(line) > len(indent) {
			line += " "
		}
		line += item
	}
	b.WriteString(line + "\n")
}

func printClientConfig(w io.Writer, client, file string) {
	printStdioConfig(w, client, file, `{
  "mcpServers": {
    "omviews": {
      "command": "omviews",
      "args": ["serve"],
      "env": {
        "EMERGENT_TOKEN": "emt_your_token_here",
        "EMERGENT_URL": "https://your-emergent-instance.com"
      }
    }
  }
}`)

	printHTTPConfig(w, client, file, `{
  "mcpServers": {
    "omviews": {
      "type": "streamable-http",
      "url": "http://your-omviews-server:8080/mcp",
      "headers": {
        "Authorization": "Bearer emt_your_token_here"
      }
    }
  }
}`)
}

func printStdioConfig(w io.Writer, client, file, snippet string) {
	fmt.Fprintf(w, `%s: stdio mode
%s

Add to %s:

%s

The EMERGENT_TOKEN is your Emergent project token (emt_*).
omviews runs as a subprocess, so no server is needed.

`, client, strings.Repeat("-", len(client)+12), file, snippet)
}

func printHTTPConfig(w io.Writer, client, file, snippet string) {
	fmt.Fprintf(w, `%s: HTTP mode (remote server)
%s

Add to %s:

%s

The Authorization header contains your Emergent project token (emt_*).
omviews passes it through to Emergent on your behalf.

`, client, strings.Repeat("-", len(client)+28), file, snippet)
}
