package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/resolvecheck/internal/fixture"
	"github.com/roach88/resolvecheck/internal/recipe"
	"github.com/roach88/resolvecheck/internal/verify"
)

// Scenario describes one reproduction case: a synthetic fixture graph,
// the root to resolve, and the outcome the run asserts.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what resolver behavior the scenario probes.
	Description string `yaml:"description"`

	// Root names the recipe the resolver is pointed at.
	Root string `yaml:"root"`

	// Recipes defines the fixture set, in declaration order.
	Recipes []RecipeSpec `yaml:"recipes"`

	// Expect is the asserted outcome: either a version mapping or a
	// conflict. Authored once, never mutated during a run.
	Expect verify.Expected `yaml:"expect"`

	// Repeat reruns the scenario in fresh sandboxes this many times
	// and reports any divergence between runs. Values below 2 mean a
	// single run.
	Repeat int `yaml:"repeat,omitempty"`
}

// RecipeSpec is the descriptor form of one recipe fixture.
type RecipeSpec struct {
	Name     string        `yaml:"name"`
	Version  string        `yaml:"version"`
	Requires []RequireSpec `yaml:"requires,omitempty"`
}

// RequireSpec is the descriptor form of one requirement edge.
type RequireSpec struct {
	// Dep is the required package name.
	Dep string `yaml:"dep"`

	// Range is the version-range expression, e.g. "[>=1.5 <2.0]".
	Range string `yaml:"range"`

	// Test declares the edge as a test_requires.
	Test bool `yaml:"test,omitempty"`

	// Unresolved marks a deliberately dangling edge for negative
	// scenarios.
	Unresolved bool `yaml:"unresolved,omitempty"`
}

// FixtureSet compiles the scenario's recipe descriptors into a
// validated fixture set. Descriptor defects surface as FixtureErrors.
func (s *Scenario) FixtureSet() (*fixture.Set, error) {
	set := &fixture.Set{Root: s.Root}
	for _, spec := range s.Recipes {
		r, err := recipe.New(spec.Name, spec.Version)
		if err != nil {
			return nil, err
		}
		for _, q := range spec.Requires {
			rng, err := recipe.ParseRange(q.Range)
			if err != nil {
				return nil, &recipe.FixtureError{Recipe: r.Identity(), Reason: err.Error()}
			}
			r.Requires = append(r.Requires, recipe.Requirement{
				Dep:        q.Dep,
				Range:      rng,
				Test:       q.Test,
				Unresolved: q.Unresolved,
			})
		}
		set.Recipes = append(set.Recipes, r)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so a typo like "expects:" fails loudly instead of
// silently asserting nothing.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// validateScenario checks required fields. Fixture-level validation
// (identities, dangling edges, range syntax) happens in FixtureSet.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Root == "" {
		return fmt.Errorf("root is required")
	}
	if len(s.Recipes) == 0 {
		return fmt.Errorf("recipes list is required and must be non-empty")
	}
	for i, r := range s.Recipes {
		if r.Name == "" {
			return fmt.Errorf("recipes[%d]: name is required", i)
		}
		if r.Version == "" {
			return fmt.Errorf("recipes[%d]: version is required", i)
		}
		for j, q := range r.Requires {
			if q.Dep == "" {
				return fmt.Errorf("recipes[%d].requires[%d]: dep is required", i, j)
			}
			if q.Range == "" {
				return fmt.Errorf("recipes[%d].requires[%d]: range is required", i, j)
			}
		}
	}
	if !s.Expect.Conflict && len(s.Expect.Versions) == 0 {
		return fmt.Errorf("expect must name versions or set conflict: true")
	}
	if s.Expect.Conflict && len(s.Expect.Versions) > 0 {
		return fmt.Errorf("expect cannot both name versions and set conflict: true")
	}
	if s.Repeat < 0 {
		return fmt.Errorf("repeat must be non-negative")
	}
	return nil
}
