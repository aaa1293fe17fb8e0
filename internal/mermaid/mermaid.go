// Package mermaid renders Mermaid flowchart text for assembled metadata views.
package mermaid

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction is the flowchart layout direction.
type Direction string

const (
	LeftRight Direction = "LR"
	TopDown   Direction = "TD"
)

// Shape names a Mermaid node shape.
type Shape string

const (
	Rect       Shape = "rect"
	Rounded    Shape = "rounded"
	Stadium    Shape = "stadium"
	Subprocess Shape = "subproc"
	Hexagon    Shape = "hex"
	Cylinder   Shape = "cyl"
	Document   Shape = "doc"
	Flag       Shape = "flag"
)

// LineStyle selects a solid or dotted connector.
type LineStyle int

const (
	Solid LineStyle = iota
	Dotted
)

// Node is one element in the chart. ID is normally the element GUID.
type Node struct {
	ID       string
	TypeName string
	Label    string
	Shape    Shape
}

// Line connects two declared nodes.
type Line struct {
	From  string
	To    string
	Label string
	Style LineStyle
}

// Subgraph groups declared nodes under a title.
type Subgraph struct {
	ID      string
	Title   string
	NodeIDs []string
}

// Graph accumulates nodes, lines and subgraphs in insertion order.
type Graph struct {
	title     string
	direction Direction
	nodes     []Node
	nodeIndex map[string]int
	lines     []Line
	lineSeen  map[string]bool
	subgraphs []Subgraph
}

// New starts an empty graph.
func New(title string, direction Direction) *Graph {
	if direction == "" {
		direction = LeftRight
	}
	return &Graph{
		title:     title,
		direction: direction,
		nodeIndex: make(map[string]int),
		lineSeen:  make(map[string]bool),
	}
}

// Title formats the conventional chart title for the element at the root of a view.
func Title(typeName, name, guid string) string {
	return fmt.Sprintf("%s - %s [%s]", typeName, name, guid)
}

// AddNode declares a node. It returns false if the id was already declared;
// the first declaration wins.
func (g *Graph) AddNode(id, typeName, label string, shape Shape) bool {
	if id == "" {
		return false
	}
	if _, ok := g.nodeIndex[id]; ok {
		return false
	}
	if shape == "" {
		shape = Rect
	}
	g.nodeIndex[id] = len(g.nodes)
	g.nodes = append(g.nodes, Node{ID: id, TypeName: typeName, Label: label, Shape: shape})
	return true
}

// HasNode reports whether id has been declared.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

// AddLine records a connector. Identical connectors are recorded once.
func (g *Graph) AddLine(from, to, label string, style LineStyle) {
	key := fmt.Sprintf("%s|%s|%s|%d", from, to, label, style)
	if g.lineSeen[key] {
		return
	}
	g.lineSeen[key] = true
	g.lines = append(g.lines, Line{From: from, To: to, Label: label, Style: style})
}

// AddSubgraph groups nodes. Members that are not declared by render time are left out.
func (g *Graph) AddSubgraph(id, title string, nodeIDs ...string) {
	g.subgraphs = append(g.subgraphs, Subgraph{ID: id, Title: title, NodeIDs: nodeIDs})
}

// NodeCount is the number of declared nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// String renders the flowchart.
func (g *Graph) String() string {
	var sb strings.Builder

	sb.WriteString("---\n")
	// Go quoting escapes are a subset of YAML double-quoted escapes.
	fmt.Fprintf(&sb, "title: %s\n", strconv.Quote(g.title))
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "flowchart %s\n", g.direction)
	sb.WriteString("%%{init: {\"flowchart\": {\"htmlLabels\": false}} }%%\n\n")

	for _, n := range g.nodes {
		fmt.Fprintf(&sb, "%s@{ shape: %s, label: \"*%s*\n**%s**\"}\n",
			n.ID, n.Shape, escape(n.TypeName), escape(n.Label))
	}

	for _, sg := range g.subgraphs {
		var members []string
		for _, id := range sg.NodeIDs {
			if g.HasNode(id) {
				members = append(members, id)
			}
		}
		if len(members) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "subgraph %s [\"%s\"]\n", sg.ID, escape(sg.Title))
		for _, id := range members {
			fmt.Fprintf(&sb, "  %s\n", id)
		}
		sb.WriteString("end\n")
	}

	for _, l := range g.lines {
		if !g.HasNode(l.From) || !g.HasNode(l.To) {
			continue
		}
		arrow := "-->"
		if l.Style == Dotted {
			arrow = "-.->"
		}
		if l.Label == "" {
			fmt.Fprintf(&sb, "%s%s%s\n", l.From, arrow, l.To)
			continue
		}
		fmt.Fprintf(&sb, "%s%s|%s|%s\n", l.From, arrow, escapeLineLabel(l.Label), l.To)
	}

	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

func escapeLineLabel(s string) string {
	return strings.ReplaceAll(escape(s), "|", "#124;")
}
