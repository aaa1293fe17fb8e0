// Package memstore is an in-memory store.Store. It backs the test suites and
// the `--store memory` development mode.
package memstore

import (
	"context"
	"reflect"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/store"
)

// Store keeps elements and relationships in insertion order.
type Store struct {
	mu            sync.RWMutex
	elements      map[string]*store.Element
	elementOrder  []string
	relationships map[string]*store.Relationship
	relOrder      []string
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		elements:      make(map[string]*store.Element),
		relationships: make(map[string]*store.Relationship),
	}
}

func (s *Store) CreateElement(_ context.Context, el *store.NewElement) (*store.Element, error) {
	if el == nil || el.TypeName == "" {
		return nil, faults.Invalidf("element type name is required")
	}
	props := make(map[string]any, len(el.Properties))
	for k, v := range el.Properties {
		props[k] = v
	}
	stored := &store.Element{
		GUID:            uuid.NewString(),
		TypeName:        el.TypeName,
		QualifiedName:   el.QualifiedName,
		Classifications: slices.Clone(el.Classifications),
		Properties:      props,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[stored.GUID] = stored
	s.elementOrder = append(s.elementOrder, stored.GUID)
	return cloneElement(stored), nil
}

func (s *Store) GetElement(_ context.Context, guid string) (*store.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.elements[guid]
	if !ok {
		return nil, faults.NotFoundf("element %s not found", guid)
	}
	return cloneElement(el), nil
}

func (s *Store) UpdateElement(_ context.Context, guid string, props map[string]any, classifications []string, replaceProperties bool) (*store.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.elements[guid]
	if !ok {
		return nil, faults.NotFoundf("element %s not found", guid)
	}
	if replaceProperties {
		el.Properties = make(map[string]any, len(props))
	}
	for k, v := range props {
		if v == nil {
			delete(el.Properties, k)
			continue
		}
		el.Properties[k] = v
	}
	if qn, ok := props[store.PropQualifiedName].(string); ok && qn != "" {
		el.QualifiedName = qn
	}
	if classifications != nil {
		el.Classifications = slices.Clone(classifications)
	}
	return cloneElement(el), nil
}

func (s *Store) DeleteElement(_ context.Context, guid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.elements[guid]; !ok {
		return faults.NotFoundf("element %s not found", guid)
	}
	delete(s.elements, guid)
	for id, rel := range s.relationships {
		if rel.End1GUID == guid || rel.End2GUID == guid {
			delete(s.relationships, id)
		}
	}
	return nil
}

func (s *Store) FindElements(_ context.Context, q *store.Query) ([]*store.Element, error) {
	if q == nil {
		q = &store.Query{}
	}
	want, err := store.ToProperties(q.Properties)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*store.Element
	for _, guid := range s.elementOrder {
		el, ok := s.elements[guid]
		if !ok {
			continue
		}
		if q.TypeName != "" && el.TypeName != q.TypeName {
			continue
		}
		if q.QualifiedName != "" && el.QualifiedName != q.QualifiedName {
			continue
		}
		if !hasProperties(el, want) || !hasClassifications(el, q.Classifications) {
			continue
		}
		matched = append(matched, el)
	}
	return cloneElements(store.Window(matched, q.Paging)), nil
}

func (s *Store) SearchElements(_ context.Context, typeName, searchString string, paging store.Paging) ([]*store.Element, error) {
	re, err := store.CompileSearch(searchString)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*store.Element
	for _, guid := range s.elementOrder {
		el, ok := s.elements[guid]
		if !ok {
			continue
		}
		if typeName != "" && el.TypeName != typeName {
			continue
		}
		if store.MatchesSearch(el, re) {
			matched = append(matched, el)
		}
	}
	return cloneElements(store.Window(matched, paging)), nil
}

func (s *Store) CreateRelationship(_ context.Context, typeName, end1GUID, end2GUID string, props map[string]any) (*store.Relationship, error) {
	if typeName == "" {
		return nil, faults.Invalidf("relationship type name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, end := range []string{end1GUID, end2GUID} {
		if _, ok := s.elements[end]; !ok {
			return nil, faults.NotFoundf("element %s not found", end)
		}
	}
	rel := &store.Relationship{
		GUID:       uuid.NewString(),
		TypeName:   typeName,
		End1GUID:   end1GUID,
		End2GUID:   end2GUID,
		Properties: make(map[string]any, len(props)),
	}
	for k, v := range props {
		rel.Properties[k] = v
	}
	s.relationships[rel.GUID] = rel
	s.relOrder = append(s.relOrder, rel.GUID)
	return cloneRelationship(rel), nil
}

func (s *Store) DeleteRelationship(_ context.Context, guid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.relationships[guid]; !ok {
		return faults.NotFoundf("relationship %s not found", guid)
	}
	delete(s.relationships, guid)
	return nil
}

func (s *Store) ListRelationships(_ context.Context, q *store.RelationshipQuery) ([]*store.Relationship, error) {
	if q == nil {
		q = &store.RelationshipQuery{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*store.Relationship
	for _, guid := range s.relOrder {
		rel, ok := s.relationships[guid]
		if !ok {
			continue
		}
		if q.TypeName != "" && rel.TypeName != q.TypeName {
			continue
		}
		if q.End1GUID != "" && rel.End1GUID != q.End1GUID {
			continue
		}
		if q.End2GUID != "" && rel.End2GUID != q.End2GUID {
			continue
		}
		matched = append(matched, rel)
	}
	window := store.Window(matched, q.Paging)
	out := make([]*store.Relationship, len(window))
	for i, rel := range window {
		out[i] = cloneRelationship(rel)
	}
	return out, nil
}

// Len returns the number of live elements.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements)
}

func hasProperties(el *store.Element, want map[string]any) bool {
	for k, v := range want {
		if !reflect.DeepEqual(el.Properties[k], v) {
			return false
		}
	}
	return true
}

func hasClassifications(el *store.Element, want []string) bool {
	for _, c := range want {
		if !el.HasClassification(c) {
			return false
		}
	}
	return true
}

func cloneElement(el *store.Element) *store.Element {
	props := make(map[string]any, len(el.Properties))
	for k, v := range el.Properties {
		props[k] = v
	}
	return &store.Element{
		GUID:            el.GUID,
		TypeName:        el.TypeName,
		QualifiedName:   el.QualifiedName,
		Classifications: slices.Clone(el.Classifications),
		Properties:      props,
	}
}

func cloneElements(els []*store.Element) []*store.Element {
	out := make([]*store.Element, len(els))
	for i, el := range els {
		out[i] = cloneElement(el)
	}
	return out
}

func cloneRelationship(rel *store.Relationship) *store.Relationship {
	props := make(map[string]any, len(rel.Properties))
	for k, v := range rel.Properties {
		props[k] = v
	}
	return &store.Relationship{
		GUID:       rel.GUID,
		TypeName:   rel.TypeName,
		End1GUID:   rel.End1GUID,
		End2GUID:   rel.End2GUID,
		Properties: props,
	}
}
