// Package verify compares an actual resolution outcome against a
// scenario's expected outcome and produces a verdict. Every divergence
// is collected before returning, so one run reports all discrepancies
// instead of aborting at the first.
package verify

import (
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/resolvecheck/internal/fixture"
	"github.com/roach88/resolvecheck/internal/recipe"
	"github.com/roach88/resolvecheck/internal/resolver"
)

// Expected is the outcome a scenario asserts. Authored once, never
// mutated during a run.
type Expected struct {
	// Versions maps package name to the version that should be
	// chosen. Resolved packages absent from this map are ignored
	// unless DisallowExtra is set.
	Versions map[string]string `yaml:"versions,omitempty" json:"versions,omitempty"`

	// Conflict, when true, asserts that resolution must fail with a
	// version conflict; any successful resolution is then a bug
	// signal.
	Conflict bool `yaml:"conflict,omitempty" json:"conflict,omitempty"`

	// DisallowExtra makes resolved packages outside Versions a
	// failure.
	DisallowExtra bool `yaml:"disallow_extra,omitempty" json:"disallow_extra,omitempty"`
}

// Kind classifies a verdict.
type Kind string

const (
	// KindPass: the outcome matched the expectation.
	KindPass Kind = "pass"

	// KindMismatch: resolution succeeded as expected but one or more
	// versions diverged; see the discrepancy list.
	KindMismatch Kind = "mismatch"

	// KindExpectedSuccessGotConflict: the scenario expected a
	// resolution but the resolver reported a conflict.
	KindExpectedSuccessGotConflict Kind = "expected_success_got_conflict"

	// KindExpectedConflictGotSuccess: the scenario expected a
	// conflict but the resolver picked versions anyway.
	KindExpectedConflictGotSuccess Kind = "expected_conflict_got_success"

	// KindTimeout: the resolver exceeded the invocation bound.
	KindTimeout Kind = "timeout"

	// KindResolverError: the resolver process failed in a way that is
	// neither a conflict nor a timeout (crash, unexpected exit).
	KindResolverError Kind = "resolver_error"

	// KindSetupError: the scenario never reached assertion because
	// fixtures or the sandbox could not be set up.
	KindSetupError Kind = "setup_error"
)

// Discrepancy is one named divergence between expected and actual.
type Discrepancy struct {
	Package  string `json:"package"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// String renders the discrepancy for the text report.
func (d Discrepancy) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", d.Package, d.Expected, d.Actual)
}

// Verdict is the assertion engine's answer for one scenario run.
type Verdict struct {
	Kind          Kind          `json:"kind"`
	Discrepancies []Discrepancy `json:"discrepancies,omitempty"`

	// Detail carries context: the resolver's conflict diagnostic, the
	// setup error message, or empty.
	Detail string `json:"detail,omitempty"`
}

// Pass reports whether the verdict is a pass.
func (v Verdict) Pass() bool { return v.Kind == KindPass }

// Evaluate compares the outcome against the expectation. The fixture
// set, when provided, enables the graph-consistency check: every
// resolved edge must satisfy the range its depender declared.
func Evaluate(expected Expected, outcome *resolver.Outcome, set *fixture.Set) Verdict {
	if expected.Conflict {
		if outcome.Resolved() {
			return Verdict{
				Kind:   KindExpectedConflictGotSuccess,
				Detail: fmt.Sprintf("resolver chose %s despite an empty intersection", resolvedSummary(outcome.Resolution)),
			}
		}
		return Verdict{Kind: KindPass, Detail: outcome.Conflict.Description}
	}

	if !outcome.Resolved() {
		return Verdict{
			Kind:   KindExpectedSuccessGotConflict,
			Detail: outcome.Conflict.Description,
		}
	}

	res := outcome.Resolution
	actual := normalizedVersions(res)
	var discrepancies []Discrepancy

	for _, name := range sortedKeys(expected.Versions) {
		want, err := recipe.ParseVersion(expected.Versions[name])
		if err != nil {
			discrepancies = append(discrepancies, Discrepancy{
				Package:  name,
				Expected: expected.Versions[name],
				Actual:   fmt.Sprintf("unparseable expectation: %v", err),
			})
			continue
		}
		got, ok := actual[norm.NFC.String(name)]
		if !ok {
			discrepancies = append(discrepancies, Discrepancy{
				Package:  name,
				Expected: want.String(),
				Actual:   "absent from resolved graph",
			})
			continue
		}
		if !got.Equal(want) {
			discrepancies = append(discrepancies, Discrepancy{
				Package:  name,
				Expected: want.String(),
				Actual:   got.String(),
			})
		}
	}

	for _, name := range res.Duplicates {
		discrepancies = append(discrepancies, Discrepancy{
			Package:  name,
			Expected: "a single resolved version",
			Actual:   "multiple versions in the graph",
		})
	}

	if expected.DisallowExtra {
		expectedNames := make(map[string]bool, len(expected.Versions))
		for name := range expected.Versions {
			expectedNames[norm.NFC.String(name)] = true
		}
		for _, name := range sortedKeys(actual) {
			if !expectedNames[name] {
				discrepancies = append(discrepancies, Discrepancy{
					Package:  name,
					Expected: "absent (extra packages disallowed)",
					Actual:   actual[name].String(),
				})
			}
		}
	}

	if set != nil {
		discrepancies = append(discrepancies, checkEdges(res, set)...)
	}

	if len(discrepancies) > 0 {
		return Verdict{Kind: KindMismatch, Discrepancies: discrepancies}
	}
	return Verdict{Kind: KindPass}
}

// checkEdges verifies that every resolved edge satisfies the range the
// depending fixture declared. A resolver picking a version outside a
// declared range has produced an invalid graph even if the top-level
// version map looks plausible.
func checkEdges(res *resolver.Resolution, set *fixture.Set) []Discrepancy {
	var out []Discrepancy
	for _, e := range res.Edges {
		rng, ok := set.DeclaredRange(e.From, e.To)
		if !ok {
			continue
		}
		if !rng.Matches(e.ToVersion) {
			out = append(out, Discrepancy{
				Package:  e.To,
				Expected: fmt.Sprintf("a version satisfying %s (declared by %s)", rng, e.From),
				Actual:   e.ToVersion.String(),
			})
		}
	}
	return out
}

// normalizedVersions returns the resolution's version map with NFC
// normalized names. Resolver output crosses a process boundary; both
// sides of every comparison are normalized the same way.
func normalizedVersions(res *resolver.Resolution) map[string]recipe.Version {
	out := make(map[string]recipe.Version, len(res.Versions))
	for name, v := range res.Versions {
		out[norm.NFC.String(name)] = v
	}
	return out
}

// resolvedSummary renders "name=version" pairs sorted by name.
func resolvedSummary(res *resolver.Resolution) string {
	names := sortedKeys(res.Versions)
	s := ""
	for i, name := range names {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s=%s", name, res.Versions[name])
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
