// Package janitor finds anchored elements whose anchor has gone away.
// Deleting through omviews removes anchored elements with their anchor, but
// anchors deleted directly in the graph leave the dependents behind.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/handlers"
	"github.com/emergent-company/omviews/internal/handlers/contactdetails"
	"github.com/emergent-company/omviews/internal/handlers/solutions"
	"github.com/emergent-company/omviews/internal/mcp"
	"github.com/emergent-company/omviews/internal/store"
	"github.com/emergent-company/omviews/internal/tools/params"
)

// AnchoredTypes are the element types created with a mandatory anchor.
var AnchoredTypes = []string{
	contactdetails.TypeContactDetails,
	solutions.TypeInformationSupplyChainSegment,
}

// Issue is one orphaned element.
type Issue struct {
	GUID          string `json:"guid"`
	TypeName      string `json:"typeName"`
	QualifiedName string `json:"qualifiedName,omitempty"`
	AnchorGUID    string `json:"anchorGUID"`
	Deleted       bool   `json:"deleted"`
}

// Report summarizes a sweep.
type Report struct {
	Timestamp    string         `json:"timestamp"`
	EntityCounts map[string]int `json:"entityCounts"`
	IssuesFound  int            `json:"issuesFound"`
	Deleted      int            `json:"deleted"`
	Issues       []Issue        `json:"issues"`
	Summary      string         `json:"summary"`
}

// Sweeper checks anchored elements against their anchors.
type Sweeper struct {
	base  *handlers.Base
	types []string
}

// NewSweeper creates a sweeper over types, or AnchoredTypes when none are given.
func NewSweeper(base *handlers.Base, types ...string) *Sweeper {
	if len(types) == 0 {
		types = AnchoredTypes
	}
	return &Sweeper{base: base, types: types}
}

// Sweep lists every element of the sweeper's types and reports those whose
// anchor no longer exists. With deleteOrphans set the orphans are deleted.
// A failed delete is logged and leaves the issue marked as not deleted.
func (w *Sweeper) Sweep(ctx context.Context, deleteOrphans bool) (*Report, error) {
	s, err := w.base.Store(ctx)
	if err != nil {
		return nil, err
	}
	logger := w.base.Logger()
	logger.Info("starting anchor sweep", "types", w.types, "delete_orphans", deleteOrphans)

	report := &Report{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		EntityCounts: make(map[string]int),
		Issues:       make([]Issue, 0),
	}
	missing := make(map[string]bool)

	for _, typeName := range w.types {
		els, err := store.AllPages(ctx, w.base.MaxPageSize(), func(ctx context.Context, page store.Paging) ([]*store.Element, error) {
			return s.FindElements(ctx, &store.Query{TypeName: typeName, Paging: page})
		})
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", typeName, err)
		}
		report.EntityCounts[typeName] = len(els)

		for _, el := range els {
			anchor := el.AnchorGUID()
			if anchor == "" || anchor == el.GUID {
				continue
			}
			gone, err := anchorMissing(ctx, s, anchor, missing)
			if err != nil {
				return nil, err
			}
			if !gone {
				continue
			}
			issue := Issue{GUID: el.GUID, TypeName: el.TypeName, QualifiedName: el.QualifiedName, AnchorGUID: anchor}
			if deleteOrphans {
				if err := s.DeleteElement(ctx, el.GUID); err != nil {
					logger.Error("deleting orphan", "guid", el.GUID, "error", err)
				} else {
					issue.Deleted = true
					report.Deleted++
				}
			}
			report.Issues = append(report.Issues, issue)
		}
	}

	report.IssuesFound = len(report.Issues)
	report.Summary = summary(report)
	logger.Info("anchor sweep complete", "issues", report.IssuesFound, "deleted", report.Deleted)
	return report, nil
}

func anchorMissing(ctx context.Context, s store.Store, guid string, cache map[string]bool) (bool, error) {
	if gone, ok := cache[guid]; ok {
		return gone, nil
	}
	_, err := s.GetElement(ctx, guid)
	switch {
	case err == nil:
		cache[guid] = false
	case faults.IsCategory(err, faults.NotFound):
		cache[guid] = true
	default:
		return false, fmt.Errorf("checking anchor %s: %w", guid, err)
	}
	return cache[guid], nil
}

func summary(r *Report) string {
	if r.IssuesFound == 0 {
		return "No orphaned elements found."
	}
	if r.Deleted > 0 {
		return fmt.Sprintf("Found %d orphaned elements, deleted %d.", r.IssuesFound, r.Deleted)
	}
	return fmt.Sprintf("Found %d orphaned elements. Run with delete_orphans to remove them.", r.IssuesFound)
}

type sweepParams struct {
	DeleteOrphans bool     `json:"delete_orphans,omitempty"`
	Types         []string `json:"types,omitempty"`
}

// Register adds om_anchor_sweep to reg.
func Register(reg *mcp.Registry, base *handlers.Base) {
	reg.Register(mcp.NewTool("om_anchor_sweep",
		`Find anchored elements (contact details, supply chain segments) whose anchor no longer exists.
Set delete_orphans to remove them. types overrides the element types checked.`,
		params.Schema(
			params.Bool("delete_orphans", "Delete the orphaned elements"),
			params.Strings("types", "Element type names to check"),
		),
		func(ctx context.Context, p sweepParams) (any, error) {
			for _, t := range p.Types {
				if t == "" {
					return nil, faults.Invalidf("types must not contain empty names")
				}
			}
			return NewSweeper(base, p.Types...).Sweep(ctx, p.DeleteOrphans)
		}))
}
