package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/emergent-company/omviews/internal/emergent"
	"github.com/emergent-company/omviews/internal/tools/params"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// viewFunc fetches one view by GUID as of an optional effective time.
type viewFunc func(ctx context.Context, a *app, guid string, at *time.Time) (any, error)

var viewKinds = map[string]viewFunc{
	"collection": func(ctx context.Context, a *app, guid string, at *time.Time) (any, error) {
		return a.collections.GetCollectionByGUID(ctx, guid, at)
	},
	"collection-graph": func(ctx context.Context, a *app, guid string, at *time.Time) (any, error) {
		return a.collections.GetCollectionGraph(ctx, guid, at)
	},
	"contact": func(ctx context.Context, a *app, guid string, at *time.Time) (any, error) {
		return a.contacts.GetContactDetailsByGUID(ctx, guid, at)
	},
	"supply-chain": func(ctx context.Context, a *app, guid string, at *time.Time) (any, error) {
		return a.solutions.GetInformationSupplyChainByGUID(ctx, guid, at)
	},
	"blueprint": func(ctx context.Context, a *app, guid string, at *time.Time) (any, error) {
		return a.solutions.GetSolutionBlueprintByGUID(ctx, guid, at)
	},
	"component": func(ctx context.Context, a *app, guid string, at *time.Time) (any, error) {
		return a.solutions.GetSolutionComponentByGUID(ctx, guid, at)
	},
	"role": func(ctx context.Context, a *app, guid string, at *time.Time) (any, error) {
		return a.solutions.GetSolutionRoleByGUID(ctx, guid, at)
	},
}

func kindNames() []string {
	names := make([]string, 0, len(viewKinds))
	for k := range viewKinds {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func newGetCommand(configPath *string) *cobra.Command {
	var (
		output      string
		effective   string
		mermaidOnly bool
	)

	cmd := &cobra.Command{
		Use:   "get <kind> <guid>",
		Short: "Print one view",
		Long:  "Print one view. Kinds: " + strings.Join(kindNames(), ", ") + ".",
		Example: `  omviews get supply-chain 0d9c... -o yaml
  omviews get collection-graph 41aa... --mermaid`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return kindNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := params.Time(effective, "--at")
			if err != nil {
				return err
			}
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if a.cfg.Emergent.Token != "" {
				ctx = emergent.WithToken(ctx, a.cfg.Emergent.Token)
			}
			view, err := a.view(ctx, args[0], args[1], at)
			if err != nil {
				return err
			}
			if mermaidOnly {
				return writeMermaid(cmd.OutOrStdout(), view)
			}
			return writeView(cmd.OutOrStdout(), output, view)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	cmd.Flags().StringVar(&effective, "at", "", "Effective time (RFC3339)")
	cmd.Flags().BoolVar(&mermaidOnly, "mermaid", false, "Print only the Mermaid graph")
	return cmd
}

func (a *app) view(ctx context.Context, kind, guid string, at *time.Time) (any, error) {
	fetch, ok := viewKinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q (want one of %s)", kind, strings.Join(kindNames(), ", "))
	}
	return fetch(ctx, a, guid, at)
}

// generic re-encodes a view through JSON so every format shares the JSON field names.
func generic(view any) (map[string]any, error) {
	b, err := json.Marshal(view)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func writeView(w io.Writer, format string, view any) error {
	switch format {
	case outputJSON:
		encoded, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(encoded))
		return err
	case outputYAML:
		m, err := generic(view)
		if err != nil {
			return err
		}
		encoded, err := yaml.Marshal(m)
		if err != nil {
			return err
		}
		_, err = w.Write(encoded)
		return err
	case outputText:
		m, err := generic(view)
		if err != nil {
			return err
		}
		return renderText(w, m)
	default:
		return fmt.Errorf("invalid output format %q: use text, json or yaml", format)
	}
}

func writeMermaid(w io.Writer, view any) error {
	m, err := generic(view)
	if err != nil {
		return err
	}
	graph, _ := m["mermaidGraph"].(string)
	if graph == "" {
		return fmt.Errorf("this view has no Mermaid graph")
	}
	_, err = fmt.Fprintln(w, graph)
	return err
}

// renderText prints a one-line header and the Mermaid graph when the view has one.
func renderText(w io.Writer, m map[string]any) error {
	el := m
	if root, ok := m["collection"].(map[string]any); ok {
		el = root
	}
	header, _ := el["elementHeader"].(map[string]any)
	props, _ := el["properties"].(map[string]any)
	typeName, _ := header["typeName"].(string)
	guid, _ := header["guid"].(string)
	name, _ := props["qualifiedName"].(string)
	for _, k := range []string{"displayName", "name"} {
		if name != "" {
			break
		}
		name, _ = props[k].(string)
	}
	if _, err := fmt.Fprintf(w, "%s %s (%s)\n", typeName, name, guid); err != nil {
		return err
	}
	if status, _ := props["contentStatus"].(string); status != "" {
		if _, err := fmt.Fprintf(w, "status: %s\n", status); err != nil {
			return err
		}
	}
	if graph, _ := m["mermaidGraph"].(string); graph != "" {
		if _, err := fmt.Fprintf(w, "\n%s\n", graph); err != nil {
			return err
		}
	}
	return nil
}
