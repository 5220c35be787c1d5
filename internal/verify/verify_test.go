package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/resolvecheck/internal/fixture"
	"github.com/roach88/resolvecheck/internal/recipe"
	"github.com/roach88/resolvecheck/internal/resolver"
)

func resolved(pairs map[string]string, edges ...resolver.Edge) *resolver.Outcome {
	versions := make(map[string]recipe.Version, len(pairs))
	for name, v := range pairs {
		versions[name] = recipe.MustVersion(v)
	}
	return &resolver.Outcome{Resolution: &resolver.Resolution{Versions: versions, Edges: edges}}
}

func conflicted(desc string) *resolver.Outcome {
	return &resolver.Outcome{Conflict: &resolver.Conflict{Description: desc}}
}

func TestEvaluate_Pass(t *testing.T) {
	expected := Expected{Versions: map[string]string{"util": "1.9"}}
	v := Evaluate(expected, resolved(map[string]string{
		"app": "0.1.0", "lib_a": "0.1.0", "lib_b": "0.1.0", "util": "1.9",
	}), nil)

	assert.Equal(t, KindPass, v.Kind)
	assert.True(t, v.Pass())
	assert.Empty(t, v.Discrepancies)
}

func TestEvaluate_SemanticVersionEquality(t *testing.T) {
	// 1.9 and 1.9.0 are the same version.
	expected := Expected{Versions: map[string]string{"util": "1.9.0"}}
	v := Evaluate(expected, resolved(map[string]string{"util": "1.9"}), nil)
	assert.True(t, v.Pass())
}

func TestEvaluate_Mismatch_CollectsAll(t *testing.T) {
	expected := Expected{Versions: map[string]string{
		"util":  "1.9",
		"extra": "2.0",
		"gone":  "3.0",
	}}
	v := Evaluate(expected, resolved(map[string]string{
		"util":  "2.5", // outside the intersection
		"extra": "2.0",
	}), nil)

	require.Equal(t, KindMismatch, v.Kind)
	// One run reports every divergence, not just the first.
	require.Len(t, v.Discrepancies, 2)
	assert.Equal(t, Discrepancy{Package: "gone", Expected: "3.0", Actual: "absent from resolved graph"}, v.Discrepancies[0])
	assert.Equal(t, Discrepancy{Package: "util", Expected: "1.9", Actual: "2.5"}, v.Discrepancies[1])
}

func TestEvaluate_ExtraPackagesTolerated(t *testing.T) {
	expected := Expected{Versions: map[string]string{"util": "1.9"}}
	v := Evaluate(expected, resolved(map[string]string{
		"util": "1.9", "surprise": "4.2",
	}), nil)
	assert.True(t, v.Pass())
}

func TestEvaluate_ExtraPackagesDisallowed(t *testing.T) {
	expected := Expected{
		Versions:      map[string]string{"util": "1.9"},
		DisallowExtra: true,
	}
	v := Evaluate(expected, resolved(map[string]string{
		"util": "1.9", "surprise": "4.2",
	}), nil)

	require.Equal(t, KindMismatch, v.Kind)
	require.Len(t, v.Discrepancies, 1)
	assert.Equal(t, "surprise", v.Discrepancies[0].Package)
}

func TestEvaluate_ExpectedConflictGotConflict(t *testing.T) {
	expected := Expected{Conflict: true}
	v := Evaluate(expected, conflicted("ERROR: Version conflict between util ranges"), nil)

	assert.True(t, v.Pass())
	assert.Contains(t, v.Detail, "Version conflict")
}

func TestEvaluate_ExpectedConflictGotSuccess(t *testing.T) {
	// Empty intersection, yet the resolver picked something: a
	// distinct verdict kind, not a version mismatch.
	expected := Expected{Conflict: true}
	v := Evaluate(expected, resolved(map[string]string{"util": "1.2"}), nil)

	assert.Equal(t, KindExpectedConflictGotSuccess, v.Kind)
	assert.False(t, v.Pass())
	assert.Contains(t, v.Detail, "util=1.2")
}

func TestEvaluate_ExpectedSuccessGotConflict(t *testing.T) {
	expected := Expected{Versions: map[string]string{"util": "1.9"}}
	v := Evaluate(expected, conflicted("ERROR: Version conflict"), nil)

	assert.Equal(t, KindExpectedSuccessGotConflict, v.Kind)
	assert.False(t, v.Pass())
}

func TestEvaluate_DuplicateVersionIslands(t *testing.T) {
	out := resolved(map[string]string{"util": "1.9"})
	out.Resolution.Duplicates = []string{"util"}

	v := Evaluate(Expected{Versions: map[string]string{"util": "1.9"}}, out, nil)
	require.Equal(t, KindMismatch, v.Kind)
	assert.Equal(t, "a single resolved version", v.Discrepancies[0].Expected)
}

func TestEvaluate_EdgeConsistency(t *testing.T) {
	libA, err := recipe.New("lib_a", "0.1.0")
	require.NoError(t, err)
	libA = libA.WithRequires("util", recipe.MustRange("[>=1.0 <2.0]"))
	util, err := recipe.New("util", "2.5")
	require.NoError(t, err)

	set := &fixture.Set{Root: "lib_a", Recipes: []recipe.Recipe{libA, util}}

	// Resolver claims success but the chosen util violates lib_a's range.
	out := resolved(
		map[string]string{"lib_a": "0.1.0", "util": "2.5"},
		resolver.Edge{From: "lib_a", To: "util", ToVersion: recipe.MustVersion("2.5")},
	)

	v := Evaluate(Expected{Versions: map[string]string{"lib_a": "0.1.0"}}, out, set)
	require.Equal(t, KindMismatch, v.Kind)
	require.Len(t, v.Discrepancies, 1)
	assert.Equal(t, "util", v.Discrepancies[0].Package)
	assert.Contains(t, v.Discrepancies[0].Expected, "[>=1.0 <2.0]")
	assert.Contains(t, v.Discrepancies[0].Expected, "lib_a")
}

func TestDiscrepancy_String(t *testing.T) {
	d := Discrepancy{Package: "util", Expected: "1.9", Actual: "2.5"}
	assert.Equal(t, "util: expected 1.9, got 2.5", d.String())
}
