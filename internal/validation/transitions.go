package validation

import (
	"github.com/emergent-company/omviews/internal/faults"
)

// Content status values carried by collections, supply chains, blueprints and components.
const (
	StatusDraft      = "DRAFT"
	StatusPrepared   = "PREPARED"
	StatusProposed   = "PROPOSED"
	StatusApproved   = "APPROVED"
	StatusRejected   = "REJECTED"
	StatusActive     = "ACTIVE"
	StatusDeprecated = "DEPRECATED"
	StatusOther      = "OTHER"
)

// DefaultStatus is stamped on elements created without an explicit status.
const DefaultStatus = StatusActive

var contentTransitions = map[string][]string{
	StatusDraft:      {StatusPrepared, StatusProposed, StatusActive},
	StatusPrepared:   {StatusDraft, StatusProposed},
	StatusProposed:   {StatusApproved, StatusRejected, StatusDraft},
	StatusApproved:   {StatusActive, StatusDraft},
	StatusRejected:   {StatusDraft},
	StatusActive:     {StatusDeprecated, StatusDraft},
	StatusDeprecated: {StatusActive, StatusOther},
	StatusOther:      {StatusDraft},
}

// KnownStatuses lists the content status vocabulary in lifecycle order.
func KnownStatuses() []string {
	return []string{StatusDraft, StatusPrepared, StatusProposed, StatusApproved, StatusRejected, StatusActive, StatusDeprecated, StatusOther}
}

// AllowedTransitions lists the statuses an element in status from may move to.
func AllowedTransitions(from string) []string {
	return append([]string(nil), contentTransitions[from]...)
}

// IsKnownStatus reports whether status is a recognised content status.
func IsKnownStatus(status string) bool {
	_, ok := contentTransitions[status]
	return ok
}

// StatusTransition checks that an element may move from one content status
// to another. Force skips the transition table but not the vocabulary check.
func StatusTransition(from, to string, force bool) error {
	if !IsKnownStatus(to) {
		return faults.Invalidf("unknown status %q", to)
	}
	if from == "" {
		from = DefaultStatus
	}
	if from == to {
		return faults.Conflictf("already in status %s", to)
	}
	if force {
		return nil
	}
	if !isAllowedTransition(from, to, contentTransitions) {
		return faults.Conflictf("cannot transition from %s to %s", from, to)
	}
	return nil
}

func isAllowedTransition(from, to string, transitions map[string][]string) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}
