package handler

import (
	"time"

	"github.com/lib/pq"
)

// normalizeRoles rewrites a decoded JSON roles array into the pq type the
// roles column expects.
func normalizeRoles(fields map[string]any) {
	raw, ok := fields["roles"].([]any)
	if !ok {
		return
	}
	roles := make(pq.StringArray, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			roles = append(roles, s)
		}
	}
	fields["roles"] = roles
}

// normalizeTimestamp parses an RFC3339 string field into time.Time in place.
// Reports false when the value is a string but not a parseable timestamp.
func normalizeTimestamp(fields map[string]any, key string) bool {
	raw, ok := fields[key].(string)
	if !ok {
		return true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return false
	}
	fields[key] = t
	return true
}
