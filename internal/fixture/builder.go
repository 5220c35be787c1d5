// Package fixture assembles recipe fixtures into an on-disk dependency
// graph the resolver under test can consume. The builder validates the
// set (unique identities, no dangling edges) and materializes one
// directory per recipe; it never sorts by dependency order, since
// deriving the graph from declarations is exactly the resolver's job.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/resolvecheck/internal/recipe"
)

// Set is an ordered collection of recipe fixtures plus the name of the
// root recipe the resolver is pointed at.
type Set struct {
	// Root names the recipe the resolver resolves. It must appear in
	// Recipes exactly once (any version).
	Root string

	// Recipes in declaration order. Materialization preserves this
	// order; it is topologically irrelevant to the resolver.
	Recipes []recipe.Recipe
}

// Validate checks the set for construction-time defects.
//
// Two recipes sharing a (name, version) identity make the fixture
// ambiguous and are rejected. A requirement naming a package no recipe
// in the set provides is rejected unless flagged Unresolved. Both are
// FixtureErrors: fatal, pre-invocation.
func (s *Set) Validate() error {
	if len(s.Recipes) == 0 {
		return &recipe.FixtureError{Reason: "fixture set is empty"}
	}
	if s.Root == "" {
		return &recipe.FixtureError{Reason: "fixture set has no root recipe"}
	}

	identities := make(map[string]bool, len(s.Recipes))
	names := make(map[string]bool, len(s.Recipes))
	for _, r := range s.Recipes {
		id := r.Identity()
		if identities[id] {
			return &recipe.FixtureError{Recipe: id, Reason: "duplicate recipe identity"}
		}
		identities[id] = true
		names[r.Name] = true
	}

	if !names[s.Root] {
		return &recipe.FixtureError{Recipe: s.Root, Reason: "root recipe not in fixture set"}
	}

	for _, r := range s.Recipes {
		for _, q := range r.Requires {
			if q.Unresolved {
				continue
			}
			if !names[q.Dep] {
				return &recipe.FixtureError{
					Recipe: r.Identity(),
					Reason: fmt.Sprintf("requirement %q matches no recipe in the set", q.Ref()),
				}
			}
		}
	}

	return nil
}

// RootRecipes returns the recipes carrying the root name, in declaration
// order. Usually exactly one; multiple root versions are legal as long
// as identities differ.
func (s *Set) RootRecipes() []recipe.Recipe {
	var roots []recipe.Recipe
	for _, r := range s.Recipes {
		if r.Name == s.Root {
			roots = append(roots, r)
		}
	}
	return roots
}

// DeclaredRange returns the range a recipe in the set declares on dep,
// if any. Used by the assertion engine's graph-consistency check.
func (s *Set) DeclaredRange(from, dep string) (recipe.Range, bool) {
	for _, r := range s.Recipes {
		if r.Name != from {
			continue
		}
		for _, q := range r.Requires {
			if q.Dep == dep {
				return q.Range, true
			}
		}
	}
	return recipe.Range{}, false
}

// Materialize validates the set and writes each recipe under dir as
// <name>-<version>/conanfile.py. It returns the directory of the first
// root recipe. Writes happen under dir only; the caller points dir
// inside a sandbox.
func (s *Set) Materialize(dir string) (rootDir string, err error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	for _, r := range s.Recipes {
		recipeDir := filepath.Join(dir, fmt.Sprintf("%s-%s", r.Name, r.Version))
		if err := os.MkdirAll(recipeDir, 0o755); err != nil {
			return "", fmt.Errorf("create recipe dir for %s: %w", r.Identity(), err)
		}
		path := filepath.Join(recipeDir, "conanfile.py")
		if err := os.WriteFile(path, []byte(r.Conanfile()), 0o644); err != nil {
			return "", fmt.Errorf("write conanfile for %s: %w", r.Identity(), err)
		}
		if r.Name == s.Root && rootDir == "" {
			rootDir = recipeDir
		}
	}

	return rootDir, nil
}

// RecipeDirs returns, in declaration order, the directories Materialize
// would (or did) use for each recipe under dir, excluding root recipes.
// The invocation wrapper exports these into the sandboxed cache before
// resolving the root.
func (s *Set) RecipeDirs(dir string) []string {
	var dirs []string
	for _, r := range s.Recipes {
		if r.Name == s.Root {
			continue
		}
		dirs = append(dirs, filepath.Join(dir, fmt.Sprintf("%s-%s", r.Name, r.Version)))
	}
	return dirs
}
