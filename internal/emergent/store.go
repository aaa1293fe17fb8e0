package emergent

import (
	"context"
	"fmt"
	"regexp"
	"slices"

	"github.com/emergent-company/emergent/apps/server-go/pkg/sdk/graph"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/store"
)

const (
	defaultLimit      = 100
	fallbackScanLimit = 1000
)

// toElement converts a graph object into a store element. The canonical ID is
// the element GUID because it survives property updates. The qualifiedName
// property wins over the key since updates can change it.
func toElement(obj *graph.GraphObject) *store.Element {
	el := &store.Element{
		GUID:            obj.ID,
		TypeName:        obj.Type,
		Classifications: slices.Clone(obj.Labels),
		Properties:      make(map[string]any, len(obj.Properties)),
	}
	if obj.CanonicalID != "" {
		el.GUID = obj.CanonicalID
	}
	if obj.Key != nil {
		el.QualifiedName = *obj.Key
	}
	if qn, ok := obj.Properties[store.PropQualifiedName].(string); ok && qn != "" {
		el.QualifiedName = qn
	}
	for k, v := range obj.Properties {
		el.Properties[k] = v
	}
	return el
}

func toElements(objs []*graph.GraphObject) []*store.Element {
	out := make([]*store.Element, 0, len(objs))
	for _, obj := range objs {
		if obj != nil {
			out = append(out, toElement(obj))
		}
	}
	return out
}

func toRelationship(rel *graph.GraphRelationship) *store.Relationship {
	r := &store.Relationship{
		GUID:       rel.ID,
		TypeName:   rel.Type,
		End1GUID:   rel.SrcID,
		End2GUID:   rel.DstID,
		Properties: make(map[string]any, len(rel.Properties)),
	}
	for k, v := range rel.Properties {
		r.Properties[k] = v
	}
	return r
}

// limitFor asks the server for enough rows to cover the window; the window
// itself is applied client side.
func limitFor(p store.Paging) int {
	size := p.PageSize
	if size <= 0 {
		size = defaultLimit
	}
	return p.StartFrom + size
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateElement creates a graph object with the element's type, key, properties and labels.
func (c *Client) CreateElement(ctx context.Context, el *store.NewElement) (*store.Element, error) {
	var obj *graph.GraphObject
	err := c.withRetry(ctx, fmt.Sprintf("create %s object", el.TypeName), func() error {
		var createErr error
		obj, createErr = c.sdk.Graph.CreateObject(ctx, &graph.CreateObjectRequest{
			Type:       el.TypeName,
			Key:        strPtr(el.QualifiedName),
			Properties: el.Properties,
			Labels:     el.Classifications,
		})
		return createErr
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("created object", "type", el.TypeName, "id", obj.ID, "key", el.QualifiedName)
	return toElement(obj), nil
}

// GetElement retrieves a graph object by ID.
func (c *Client) GetElement(ctx context.Context, guid string) (*store.Element, error) {
	obj, err := c.getObject(ctx, guid)
	if err != nil {
		return nil, err
	}
	return toElement(obj), nil
}

func (c *Client) getObject(ctx context.Context, guid string) (*graph.GraphObject, error) {
	var obj *graph.GraphObject
	err := c.withRetry(ctx, fmt.Sprintf("get object %s", guid), func() error {
		var getErr error
		obj, getErr = c.sdk.Graph.GetObject(ctx, guid)
		return getErr
	})
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, faults.NotFoundf("element %s not found", guid)
	}
	return obj, nil
}

// UpdateElement patches a graph object. Replacing properties nulls every
// existing key that is not in props.
func (c *Client) UpdateElement(ctx context.Context, guid string, props map[string]any, classifications []string, replaceProperties bool) (*store.Element, error) {
	patch := make(map[string]any, len(props))
	if replaceProperties {
		existing, err := c.GetElement(ctx, guid)
		if err != nil {
			return nil, err
		}
		for k := range existing.Properties {
			patch[k] = nil
		}
	}
	for k, v := range props {
		patch[k] = v
	}

	var obj *graph.GraphObject
	err := c.withRetry(ctx, fmt.Sprintf("update object %s", guid), func() error {
		req := &graph.UpdateObjectRequest{
			Properties: patch,
		}
		if classifications != nil {
			req.Labels = classifications
			replaceLabels := true
			req.ReplaceLabels = &replaceLabels
		}
		var updateErr error
		obj, updateErr = c.sdk.Graph.UpdateObject(ctx, guid, req)
		return updateErr
	})
	if err != nil {
		return nil, err
	}
	return toElement(obj), nil
}

// DeleteElement soft-deletes a graph object.
func (c *Client) DeleteElement(ctx context.Context, guid string) error {
	return c.withRetry(ctx, fmt.Sprintf("delete object %s", guid), func() error {
		return c.sdk.Graph.DeleteObject(ctx, guid)
	})
}

// FindElements lists objects by type, key, labels and property equality.
func (c *Client) FindElements(ctx context.Context, q *store.Query) ([]*store.Element, error) {
	if q == nil {
		q = &store.Query{}
	}
	opts := &graph.ListObjectsOptions{
		Type:   q.TypeName,
		Key:    q.QualifiedName,
		Labels: q.Classifications,
		Limit:  limitFor(q.Paging),
	}
	for name, value := range q.Properties {
		opts.PropertyFilters = append(opts.PropertyFilters, graph.PropertyFilter{
			Path:  name,
			Op:    "eq",
			Value: fmt.Sprint(value),
		})
	}
	objs, err := c.listObjects(ctx, opts)
	if err != nil {
		return nil, err
	}
	return store.Window(toElements(objs), q.Paging), nil
}

// SearchElements uses full-text search for literal search strings and falls
// back to listing the type and matching client side.
func (c *Client) SearchElements(ctx context.Context, typeName, searchString string, paging store.Paging) ([]*store.Element, error) {
	re, err := store.CompileSearch(searchString)
	if err != nil {
		return nil, err
	}

	if store.IsLiteralSearch(searchString) {
		opts := &graph.FTSSearchOptions{
			Query: searchString,
			Limit: limitFor(paging),
		}
		if typeName != "" {
			opts.Types = []string{typeName}
		}
		var resp *graph.SearchResponse
		ftsErr := c.withRetry(ctx, "FTS search", func() error {
			var searchErr error
			resp, searchErr = c.sdk.Graph.FTSSearch(ctx, opts)
			return searchErr
		})
		if ftsErr != nil {
			c.logger.Debug("FTS search failed, falling back to scan", "error", ftsErr)
		} else {
			hits := make([]*graph.GraphObject, 0, len(resp.Data))
			for _, item := range resp.Data {
				hits = append(hits, item.Object)
			}
			if matched := matchSearch(hits, re); len(matched) > 0 {
				return store.Window(matched, paging), nil
			}
			c.logger.Debug("no FTS hit matches the search, falling back to scan", "hits", len(hits))
		}
	}

	objs, err := c.listObjects(ctx, &graph.ListObjectsOptions{
		Type:  typeName,
		Limit: fallbackScanLimit,
	})
	if err != nil {
		return nil, err
	}
	if len(objs) >= fallbackScanLimit {
		c.logger.Warn("search scan hit its limit, results may be incomplete",
			"type", typeName, "search", searchString, "limit", fallbackScanLimit)
	}
	return store.Window(matchSearch(objs, re), paging), nil
}

// matchSearch keeps the objects that match the search expression. FTS
// ranks on stems, so its hits can include near misses.
func matchSearch(objs []*graph.GraphObject, re *regexp.Regexp) []*store.Element {
	var matched []*store.Element
	for _, el := range toElements(objs) {
		if store.MatchesSearch(el, re) {
			matched = append(matched, el)
		}
	}
	return matched
}

func (c *Client) listObjects(ctx context.Context, opts *graph.ListObjectsOptions) ([]*graph.GraphObject, error) {
	var items []*graph.GraphObject
	err := c.withRetry(ctx, "list objects", func() error {
		resp, listErr := c.sdk.Graph.ListObjects(ctx, opts)
		if listErr != nil {
			return listErr
		}
		items = resp.Items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CreateRelationship creates a relationship from end1 to end2.
func (c *Client) CreateRelationship(ctx context.Context, typeName, end1GUID, end2GUID string, props map[string]any) (*store.Relationship, error) {
	var rel *graph.GraphRelationship
	err := c.withRetry(ctx, fmt.Sprintf("create %s relationship", typeName), func() error {
		var createErr error
		rel, createErr = c.sdk.Graph.CreateRelationship(ctx, &graph.CreateRelationshipRequest{
			Type:       typeName,
			SrcID:      end1GUID,
			DstID:      end2GUID,
			Properties: props,
		})
		return createErr
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("created relationship", "type", typeName, "src", end1GUID, "dst", end2GUID, "id", rel.ID)
	r := toRelationship(rel)
	r.End1GUID, r.End2GUID = end1GUID, end2GUID
	return r, nil
}

// DeleteRelationship soft-deletes a relationship.
func (c *Client) DeleteRelationship(ctx context.Context, guid string) error {
	return c.withRetry(ctx, fmt.Sprintf("delete relationship %s", guid), func() error {
		return c.sdk.Graph.DeleteRelationship(ctx, guid)
	})
}

// ListRelationships lists relationships by type and ends. Ends are element
// GUIDs (canonical IDs) but the server may have stored a version ID, so each
// end is queried under every ID it has had here, and the ends of the results
// are rewritten to canonical IDs.
func (c *Client) ListRelationships(ctx context.Context, q *store.RelationshipQuery) ([]*store.Relationship, error) {
	if q == nil {
		q = &store.RelationshipQuery{}
	}
	idx := make(canonicalIndex)
	end1, err := c.endIDs(ctx, q.End1GUID, idx)
	if err != nil {
		return nil, err
	}
	end2, err := c.endIDs(ctx, q.End2GUID, idx)
	if err != nil {
		return nil, err
	}

	var batches [][]*graph.GraphRelationship
	for _, src := range end1.variants() {
		for _, dst := range end2.variants() {
			items, err := c.listRelationships(ctx, &graph.ListRelationshipsOptions{
				Type:  q.TypeName,
				SrcID: src,
				DstID: dst,
				Limit: limitFor(q.Paging),
			})
			if err != nil {
				return nil, err
			}
			batches = append(batches, items)
		}
	}
	c.resolveEnds(ctx, slices.Concat(batches...), idx)
	return store.Window(mergeRelationships(batches, idx), q.Paging), nil
}

// endIDs resolves an element GUID to both of its IDs. An element that no
// longer exists is matched by the given GUID alone so that dangling
// relationships stay visible.
func (c *Client) endIDs(ctx context.Context, guid string, idx canonicalIndex) (IDSet, error) {
	if guid == "" {
		return nil, nil
	}
	obj, err := c.getObject(ctx, guid)
	if faults.IsCategory(err, faults.NotFound) {
		return NewIDSet(guid, ""), nil
	}
	if err != nil {
		return nil, err
	}
	idx.add(obj)
	return NewIDSet(obj.ID, obj.CanonicalID), nil
}

// resolveEnds adds the far ends of items to idx with one batch fetch. A
// failed fetch leaves those ends as stored.
func (c *Client) resolveEnds(ctx context.Context, items []*graph.GraphRelationship, idx canonicalIndex) {
	ids := idx.unknown(items)
	if len(ids) == 0 {
		return
	}
	var objs []*graph.GraphObject
	err := c.withRetry(ctx, "get objects batch", func() error {
		var getErr error
		objs, getErr = c.sdk.Graph.GetObjects(ctx, ids)
		return getErr
	})
	if err != nil {
		c.logger.Warn("could not resolve relationship ends", "count", len(ids), "error", err)
		return
	}
	for _, obj := range objs {
		idx.add(obj)
	}
}

func (c *Client) listRelationships(ctx context.Context, opts *graph.ListRelationshipsOptions) ([]*graph.GraphRelationship, error) {
	var items []*graph.GraphRelationship
	err := c.withRetry(ctx, "list relationships", func() error {
		resp, listErr := c.sdk.Graph.ListRelationships(ctx, opts)
		if listErr != nil {
			return listErr
		}
		items = resp.Items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
