package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/resolvecheck/internal/verify"
)

// reportView is the stable subset of a result used for golden
// comparison. The trace is excluded: it contains sandbox paths, which
// differ per run by design.
type reportView struct {
	Scenario string            `json:"scenario"`
	Verdict  verify.Verdict    `json:"verdict"`
	Resolved map[string]string `json:"resolved,omitempty"`
	Conflict string            `json:"conflict,omitempty"`
}

// Snapshot renders results as indented JSON with deterministic
// ordering (input order for scenarios, sorted keys for maps).
func Snapshot(results []*Result) ([]byte, error) {
	views := make([]reportView, len(results))
	for i, r := range results {
		views[i] = reportView{
			Scenario: r.Scenario,
			Verdict:  r.Verdict,
			Resolved: r.Resolved,
			Conflict: r.Conflict,
		}
	}
	return json.MarshalIndent(views, "", "  ")
}

// AssertGolden compares the results snapshot against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, results []*Result) {
	t.Helper()

	data, err := Snapshot(results)
	if err != nil {
		t.Fatalf("snapshot results: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
