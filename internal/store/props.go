package store

import (
	"encoding/json"
	"fmt"
)

// ToProperties converts a typed bean to a property bag via JSON round-trip.
func ToProperties(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal properties: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal to map: %w", err)
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

// FromProperties converts a property bag into a typed bean.
func FromProperties[T any](props map[string]any) (*T, error) {
	if props == nil {
		props = make(map[string]any)
	}
	b, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("marshal properties: %w", err)
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("unmarshal to %T: %w", v, err)
	}
	return &v, nil
}

// Merge returns a copy of base overlaid with overlay.
func Merge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
