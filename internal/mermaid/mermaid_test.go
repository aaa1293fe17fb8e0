package mermaid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestRenderHeaderAndNodes(t *testing.T) {
	g := New(Title("Collection", "Sales", "c1"), LeftRight)
	assert.True(t, g.AddNode("c1", "Collection", "Sales", Rect))
	assert.True(t, g.AddNode("m1", "Asset", `Say "hi"`, Rounded))
	g.AddLine("c1", "m1", "member", Solid)

	want := "---\n" +
		"title: \"Collection - Sales [c1]\"\n" +
		"---\n" +
		"flowchart LR\n" +
		"%%{init: {\"flowchart\": {\"htmlLabels\": false}} }%%\n\n" +
		"c1@{ shape: rect, label: \"*Collection*\n**Sales**\"}\n" +
		"m1@{ shape: rounded, label: \"*Asset*\n**Say #quot;hi#quot;**\"}\n" +
		"c1-->|member|m1\n"
	assert.Equal(t, want, g.String())
}

func TestDuplicateNodesAndLines(t *testing.T) {
	g := New("t", "")
	assert.True(t, g.AddNode("a", "T", "first", ""))
	assert.False(t, g.AddNode("a", "T", "second", Rect))
	assert.False(t, g.AddNode("", "T", "blank", Rect))
	g.AddNode("b", "T", "b", Rect)
	g.AddLine("a", "b", "x", Solid)
	g.AddLine("a", "b", "x", Solid)

	out := g.String()
	assert.Equal(t, 1, strings.Count(out, "a@{"))
	assert.Contains(t, out, "**first**")
	assert.Equal(t, 1, strings.Count(out, "a-->|x|b"))
	assert.Equal(t, 2, g.NodeCount())
	assert.Contains(t, out, "flowchart LR\n")
}

func TestLinesToUndeclaredNodesAreSkipped(t *testing.T) {
	g := New("t", TopDown)
	g.AddNode("a", "T", "a", Rect)
	g.AddLine("a", "ghost", "", Solid)
	g.AddLine("a", "a", "", Dotted)

	out := g.String()
	assert.NotContains(t, out, "ghost")
	assert.Contains(t, out, "a-.->a\n")
	assert.Contains(t, out, "flowchart TD\n")
}

func TestSubgraphs(t *testing.T) {
	g := New("t", LeftRight)
	g.AddNode("s1", "Segment", "one", Rect)
	g.AddSubgraph("chain", "Chain", "s1", "missing")
	g.AddSubgraph("empty", "Nothing", "missing")

	out := g.String()
	assert.Contains(t, out, "subgraph chain [\"Chain\"]\n  s1\nend\n")
	assert.NotContains(t, out, "missing")
	assert.NotContains(t, out, "Nothing")
}

func TestLineLabelEscaping(t *testing.T) {
	g := New("t", LeftRight)
	g.AddNode("a", "T", "a", Rect)
	g.AddNode("b", "T", "b", Rect)
	g.AddLine("a", "b", `a|"b"`, Solid)
	assert.Contains(t, g.String(), "a-->|a#124;#quot;b#quot;|b\n")
}

func TestTitleFrontmatterIsValidYAML(t *testing.T) {
	title := Title("Collection", "Sales: \"EMEA\"\nrev\\2", "c1")
	out := New(title, LeftRight).String()

	parts := strings.SplitN(out, "---\n", 3)
	require.Len(t, parts, 3)
	var front struct {
		Title string `yaml:"title"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &front))
	assert.Equal(t, title, front.Title)
	assert.Equal(t, 1, strings.Count(parts[1], "\n"))
}
