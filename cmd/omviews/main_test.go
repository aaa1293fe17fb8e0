package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/emergent-company/omviews/internal/config"
	"github.com/emergent-company/omviews/internal/store"
	"github.com/emergent-company/omviews/internal/store/memstore"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMemory
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newApp(cfg, store.Static{Store: memstore.New()}, logger)
}

// create runs a create tool and returns the new GUID.
func create(t *testing.T, a *app, tool, args string) string {
	t.Helper()
	res, err := a.registry.Get(tool).Execute(context.Background(), json.RawMessage(args))
	require.NoError(t, err)
	require.False(t, res.IsError, res.Content[0].Text)
	var out struct {
		GUID string `json:"guid"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &out))
	return out.GUID
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestNewProvider(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()

	cfg.Store.Backend = config.BackendMemory
	p, err := newProvider(cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, store.Static{}, p)

	cfg.Store.Backend = "redis"
	_, err = newProvider(cfg, logger)
	assert.ErrorContains(t, err, "redis")
}

func TestViewOutputs(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	chain := create(t, a, "om_supply_chain_create",
		`{"properties":{"qualifiedName":"InformationSupplyChain::orders","displayName":"Orders"}}`)

	view, err := a.view(ctx, "supply-chain", chain, nil)
	require.NoError(t, err)

	var text bytes.Buffer
	require.NoError(t, writeView(&text, outputText, view))
	assert.Contains(t, text.String(), "InformationSupplyChain InformationSupplyChain::orders ("+chain+")")

	var js bytes.Buffer
	require.NoError(t, writeView(&js, outputJSON, view))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Contains(t, decoded, "elementHeader")

	var y bytes.Buffer
	require.NoError(t, writeView(&y, outputYAML, view))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(y.Bytes(), &fromYAML))
	header, ok := fromYAML["elementHeader"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, chain, header["guid"])

	assert.Error(t, writeView(&y, "xml", view))
}

func TestViewMermaid(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	coll := create(t, a, "om_collection_create",
		`{"properties":{"qualifiedName":"Collection::docs","displayName":"Docs"}}`)

	graph, err := a.view(ctx, "collection-graph", coll, nil)
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, writeMermaid(&out, graph))
	assert.Contains(t, out.String(), "flowchart")

	out.Reset()
	require.NoError(t, writeView(&out, outputText, graph))
	assert.Contains(t, out.String(), "Collection::docs")

	plain, err := a.view(ctx, "collection", coll, nil)
	require.NoError(t, err)
	assert.Error(t, writeMermaid(&out, plain))
}

func TestViewUnknownKind(t *testing.T) {
	a := newTestApp(t)
	_, err := a.view(context.Background(), "widget", "x", nil)
	assert.ErrorContains(t, err, "unknown kind")
	assert.Contains(t, kindNames(), "component")
}

func TestToolListing(t *testing.T) {
	listing := toolListing(infoRegistry())
	assert.Contains(t, listing, "  Collections (")
	assert.Contains(t, listing, "  Maintenance (1):\n    om_anchor_sweep\n")
	assert.NotContains(t, listing, "Other (")
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "omviews dev\n", out.String())

	out.Reset()
	cmd = newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"info", "--cursor"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), ".cursor/mcp.json")
	assert.Contains(t, out.String(), `"args": ["serve"]`)
}

func TestSeedDryRun(t *testing.T) {
	t.Setenv("OMVIEWS_CONFIG", "")
	t.Setenv("OMVIEWS_STORE", "memory")
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"seed", "--dry-run", "-o", "yaml"})
	require.NoError(t, cmd.Execute())

	var pack map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &pack))
	assert.Equal(t, "omviews", pack["name"])
	assert.NotEmpty(t, pack["object_type_schemas"])
}

func TestSeedNeedsEmergent(t *testing.T) {
	t.Setenv("OMVIEWS_CONFIG", "")
	t.Setenv("OMVIEWS_STORE", "memory")
	cmd := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"seed"})
	assert.ErrorContains(t, cmd.Execute(), "EMERGENT_TOKEN")
}
