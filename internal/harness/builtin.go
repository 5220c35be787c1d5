package harness

import "github.com/roach88/resolvecheck/internal/verify"

// Builtins returns the embedded reproduction scenarios. Each call
// returns fresh values; callers may not mutate a scenario another run
// is using.
func Builtins() []*Scenario {
	return []*Scenario{
		diamondIntersection(),
		disjointConflict(),
		testRequiresOrder(),
	}
}

// BuiltinNames lists the embedded scenario names in run order.
func BuiltinNames() []string {
	var names []string
	for _, s := range Builtins() {
		names = append(names, s.Name)
	}
	return names
}

// diamondIntersection probes the core diamond case: two consumers
// constrain the same transitive dependency with overlapping ranges.
// The intersection is [1.5, 2.0); 1.9 is the only available version
// inside it, so any other pick, or a conflict, is a resolver bug.
func diamondIntersection() *Scenario {
	return &Scenario{
		Name:        "diamond-intersection",
		Description: "overlapping ranges on a shared transitive dep must resolve inside the intersection",
		Root:        "app",
		Recipes: []RecipeSpec{
			{Name: "util", Version: "1.0"},
			{Name: "util", Version: "1.5"},
			{Name: "util", Version: "1.9"},
			{Name: "util", Version: "2.5"},
			{Name: "lib_a", Version: "0.1.0", Requires: []RequireSpec{
				{Dep: "util", Range: "[>=1.0 <2.0]"},
			}},
			{Name: "lib_b", Version: "0.1.0", Requires: []RequireSpec{
				{Dep: "util", Range: "[>=1.5 <3.0]"},
			}},
			{Name: "app", Version: "0.1.0", Requires: []RequireSpec{
				{Dep: "lib_a", Range: "[>=0.1.0]"},
				{Dep: "lib_b", Range: "[>=0.1.0]"},
			}},
		},
		Expect: verify.Expected{Versions: map[string]string{"util": "1.9"}},
	}
}

// disjointConflict probes the negative path: disjoint ranges on the
// shared dependency leave an empty intersection, so a successful
// resolution of any version is itself the bug signal.
func disjointConflict() *Scenario {
	return &Scenario{
		Name:        "disjoint-conflict",
		Description: "disjoint ranges on a shared transitive dep must produce a conflict, not a pick",
		Root:        "app",
		Recipes: []RecipeSpec{
			{Name: "util", Version: "1.2"},
			{Name: "util", Version: "2.5"},
			{Name: "lib_a", Version: "0.1.0", Requires: []RequireSpec{
				{Dep: "util", Range: "[>=1.0 <1.5]"},
			}},
			{Name: "lib_b", Version: "0.1.0", Requires: []RequireSpec{
				{Dep: "util", Range: "[>=2.0 <3.0]"},
			}},
			{Name: "app", Version: "0.1.0", Requires: []RequireSpec{
				{Dep: "lib_a", Range: "[>=0.1.0]"},
				{Dep: "lib_b", Range: "[>=0.1.0]"},
			}},
		},
		Expect: verify.Expected{Conflict: true},
	}
}

// testRequiresOrder reproduces the originally observed failure: two
// consumers declare the same test_requires set in opposite order under
// an open range. Resolution must not depend on declaration order; both
// consumers resolve against the same fixture set, so util must land on
// the same version either way.
func testRequiresOrder() *Scenario {
	return &Scenario{
		Name:        "test-requires-order",
		Description: "test_requires declaration order must not change range resolution",
		Root:        "lib_c",
		Recipes: []RecipeSpec{
			{Name: "util", Version: "0.1.0"},
			{Name: "lib_a", Version: "0.1.0", Requires: []RequireSpec{
				{Dep: "util", Range: "[>=0.1.0]"},
			}},
			// lib_b lists util before lib_a and resolves fine; lib_c
			// lists lib_a first, which is the order that failed.
			{Name: "lib_b", Version: "0.1.0", Requires: []RequireSpec{
				{Dep: "util", Range: "[>=0.1.0]", Test: true},
				{Dep: "lib_a", Range: "[>=0.1.0]", Test: true},
			}},
			{Name: "lib_c", Version: "0.1.0", Requires: []RequireSpec{
				{Dep: "lib_a", Range: "[>=0.1.0]", Test: true},
				{Dep: "util", Range: "[>=0.1.0]", Test: true},
			}},
		},
		Expect: verify.Expected{Versions: map[string]string{
			"util":  "0.1.0",
			"lib_a": "0.1.0",
		}},
		Repeat: 2,
	}
}
