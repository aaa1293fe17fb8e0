package store

import "time"

// IsEffective reports whether a property bag with optional effectiveFrom /
// effectiveTo RFC3339 timestamps is valid at the instant at. A nil instant
// disables the filter.
func IsEffective(props map[string]any, at *time.Time) bool {
	if at == nil || props == nil {
		return true
	}
	if from, ok := timeProperty(props, PropEffectiveFrom); ok && at.Before(from) {
		return false
	}
	if to, ok := timeProperty(props, PropEffectiveTo); ok && !at.Before(to) {
		return false
	}
	return true
}

// EffectiveElements filters elements to those effective at the instant.
func EffectiveElements(elements []*Element, at *time.Time) []*Element {
	if at == nil {
		return elements
	}
	out := make([]*Element, 0, len(elements))
	for _, el := range elements {
		if IsEffective(el.Properties, at) {
			out = append(out, el)
		}
	}
	return out
}

func timeProperty(props map[string]any, name string) (time.Time, bool) {
	s, ok := props[name].(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
