package services

import (
	"sort"
	"strings"
)

// requireFields collects the names of required fields whose value is empty
// and returns them as a single ValidationError. It reports every missing
// field at once, so a form round-trip fixes everything in one pass.
//
// The helper is composed into each service rather than inherited: the entity
// lifecycles diverge too much for a shared base type to be worth it.
func requireFields(fields map[string]string) *ValidationError {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	// Deterministic order for tests and API clients.
	sort.Strings(missing)
	return &ValidationError{Fields: missing}
}
