package recipe

import (
	"errors"
	"fmt"
)

// FixtureError reports a malformed or ambiguous fixture definition.
//
// Fixture errors are fatal: the scenario aborts before the resolver is
// ever invoked, since a broken fixture cannot produce a meaningful
// verdict either way.
type FixtureError struct {
	// Recipe identifies the offending recipe (name or name/version).
	// May be empty when the problem spans the whole set.
	Recipe string

	// Reason is a human-readable description of the defect.
	Reason string
}

// Error implements the error interface.
func (e *FixtureError) Error() string {
	if e.Recipe != "" {
		return fmt.Sprintf("fixture error: %s: %s", e.Recipe, e.Reason)
	}
	return fmt.Sprintf("fixture error: %s", e.Reason)
}

// IsFixtureError reports whether err is (or wraps) a FixtureError.
func IsFixtureError(err error) bool {
	var fe *FixtureError
	return errors.As(err, &fe)
}
