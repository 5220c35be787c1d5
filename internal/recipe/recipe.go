// Package recipe models the synthetic package fixtures the harness feeds
// to the resolver under test: a package name, a concrete version, and an
// ordered list of version-ranged requirements. Each recipe renders
// itself as a minimal conanfile.py; resolution needs declarations, not
// build logic.
package recipe

import (
	"fmt"
	"regexp"
)

// validName matches acceptable package names. Conan is stricter than
// this in places, but lowercase alphanumerics with _ . + - cover every
// fixture the harness generates and keep rendered file paths safe.
var validName = regexp.MustCompile(`^[a-z0-9_][a-z0-9_+.-]*$`)

// Requirement declares one dependency edge of a recipe.
type Requirement struct {
	// Dep is the required package's name.
	Dep string

	// Range selects acceptable versions of Dep.
	Range Range

	// Test marks the edge as a test_requires rather than a requires.
	// Declaration order of test requirements is significant to the
	// resolver behavior under investigation, so it is preserved.
	Test bool

	// Unresolved flags an edge whose target is deliberately absent
	// from the fixture set, for negative-path scenarios. The fixture
	// builder rejects dangling edges that are not flagged.
	Unresolved bool
}

// Ref returns the requirement in Conan reference form, e.g.
// "util/[>=1.5 <2.0]" or "util/1.9" for a pin.
func (q Requirement) Ref() string {
	return q.Dep + "/" + q.Range.String()
}

// Recipe is one synthetic package fixture.
//
// Identity is the (Name, Version) pair; a fixture set holding two
// recipes with equal identity is ambiguous by construction.
type Recipe struct {
	Name     string
	Version  Version
	Requires []Requirement
}

// New constructs a recipe, validating name and version.
func New(name, version string, requires ...Requirement) (Recipe, error) {
	if !validName.MatchString(name) {
		return Recipe{}, &FixtureError{Recipe: name, Reason: "invalid package name"}
	}
	v, err := ParseVersion(version)
	if err != nil {
		return Recipe{}, &FixtureError{Recipe: name, Reason: err.Error()}
	}
	return Recipe{Name: name, Version: v, Requires: requires}, nil
}

// Ref returns the recipe's Conan reference, e.g. "util/1.9".
func (r Recipe) Ref() string {
	return fmt.Sprintf("%s/%s", r.Name, r.Version)
}

// Identity returns the recipe's unique identity within a fixture set.
// It is the same string as Ref; identity and reference coincide.
func (r Recipe) Identity() string { return r.Ref() }

// WithRequires appends a regular requirement and returns the recipe,
// allowing fixture literals to be built fluently.
func (r Recipe) WithRequires(dep string, rng Range) Recipe {
	r.Requires = append(r.Requires, Requirement{Dep: dep, Range: rng})
	return r
}

// WithTestRequires appends a test requirement and returns the recipe.
func (r Recipe) WithTestRequires(dep string, rng Range) Recipe {
	r.Requires = append(r.Requires, Requirement{Dep: dep, Range: rng, Test: true})
	return r
}
