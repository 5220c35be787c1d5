// Package harness orchestrates one reproduction scenario end to end:
// build the fixture graph, provision a sandbox, drive the external
// resolver, assert the outcome, and tear everything down. A single run
// walks the states
//
//	Built → Sandboxed → Invoked → {Resolved | Failed} → Asserted → TornDown
//
// with teardown guaranteed on every path, including setup errors and
// cancellation; an unrecoverable setup error jumps straight to TornDown
// and yields a setup-error verdict instead of an assertion verdict.
// Every transition is recorded in a per-run in-memory trace store.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/roach88/resolvecheck/internal/resolver"
	"github.com/roach88/resolvecheck/internal/sandbox"
	"github.com/roach88/resolvecheck/internal/store"
	"github.com/roach88/resolvecheck/internal/testutil"
	"github.com/roach88/resolvecheck/internal/verify"
)

// Run states, recorded in the trace store.
const (
	StateBuilt     = "built"
	StateSandboxed = "sandboxed"
	StateInvoked   = "invoked"
	StateResolved  = "resolved"
	StateFailed    = "failed"
	StateAsserted  = "asserted"
	StateTornDown  = "torn_down"
)

// Options configures scenario execution.
type Options struct {
	// Binary is the resolver executable (default: resolver.DefaultBinary).
	Binary string

	// Timeout bounds each resolver invocation
	// (default: resolver.DefaultTimeout).
	Timeout time.Duration

	// SandboxParent is where sandboxes are allocated (default: the
	// system temp dir).
	SandboxParent string

	// Logger receives run diagnostics (default: discard).
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Result is the outcome of executing one scenario.
type Result struct {
	Scenario string         `json:"scenario"`
	Verdict  verify.Verdict `json:"verdict"`

	// Resolved maps package name to chosen version when resolution
	// succeeded.
	Resolved map[string]string `json:"resolved,omitempty"`

	// Conflict carries the resolver's diagnostic when it reported a
	// conflict.
	Conflict string `json:"conflict,omitempty"`

	// Trace is the recorded run trace, in sequence order.
	Trace []store.Event `json:"trace,omitempty"`
}

// Pass reports whether the scenario passed.
func (r *Result) Pass() bool { return r.Verdict.Pass() }

// Run executes a scenario and returns its result. Run never returns a
// partial result: setup failures yield a setup-error verdict, resolver
// failures yield timeout/resolver-error verdicts, and teardown runs in
// all cases. With Repeat > 1 the scenario runs in that many fresh
// sandboxes and divergent outcomes are reported as determinism
// discrepancies on the first run's result.
func Run(ctx context.Context, sc *Scenario, opts Options) *Result {
	first := runOnce(ctx, sc, opts)
	if sc.Repeat < 2 {
		return first
	}

	for i := 1; i < sc.Repeat; i++ {
		next := runOnce(ctx, sc, opts)
		for _, d := range diverge(first, next, i) {
			first.Verdict.Discrepancies = append(first.Verdict.Discrepancies, d)
			first.Verdict.Kind = verify.KindMismatch
		}
	}
	return first
}

// diverge compares a repeat run against the first and names every
// difference. Identical scenarios in isolated sandboxes must yield
// identical resolution results.
func diverge(first, next *Result, attempt int) []verify.Discrepancy {
	var out []verify.Discrepancy
	if first.Verdict.Kind != next.Verdict.Kind {
		return append(out, verify.Discrepancy{
			Package:  "(determinism)",
			Expected: fmt.Sprintf("verdict %s on every run", first.Verdict.Kind),
			Actual:   fmt.Sprintf("verdict %s on run %d", next.Verdict.Kind, attempt+1),
		})
	}
	if first.Conflict != next.Conflict {
		out = append(out, verify.Discrepancy{
			Package:  "(determinism)",
			Expected: fmt.Sprintf("conflict %q on every run", first.Conflict),
			Actual:   fmt.Sprintf("conflict %q on run %d", next.Conflict, attempt+1),
		})
	}

	// The resolved package sets must be identical, not merely agree on
	// shared names: a package appearing or vanishing between runs is a
	// divergence even though extra packages pass assertion by default.
	names := make(map[string]bool, len(first.Resolved)+len(next.Resolved))
	for name := range first.Resolved {
		names[name] = true
	}
	for name := range next.Resolved {
		names[name] = true
	}
	for _, name := range sortedNames(names) {
		v, inFirst := first.Resolved[name]
		nv, inNext := next.Resolved[name]
		switch {
		case inFirst && !inNext:
			out = append(out, verify.Discrepancy{
				Package:  name,
				Expected: fmt.Sprintf("%s on every run", v),
				Actual:   fmt.Sprintf("absent on run %d", attempt+1),
			})
		case !inFirst && inNext:
			out = append(out, verify.Discrepancy{
				Package:  name,
				Expected: "absent, as on run 1",
				Actual:   fmt.Sprintf("%s on run %d", nv, attempt+1),
			})
		case v != nv:
			out = append(out, verify.Discrepancy{
				Package:  name,
				Expected: fmt.Sprintf("%s on every run", v),
				Actual:   fmt.Sprintf("%s on run %d", nv, attempt+1),
			})
		}
	}
	return out
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// runOnce executes a single isolated run of the scenario.
func runOnce(ctx context.Context, sc *Scenario, opts Options) *Result {
	result := &Result{Scenario: sc.Name}

	st, err := store.Open(":memory:")
	if err != nil {
		result.Verdict = verify.Verdict{
			Kind:   verify.KindSetupError,
			Detail: fmt.Sprintf("open trace store: %v", err),
		}
		return result
	}
	defer st.Close()

	clock := testutil.NewSeqClock()
	trace := func(phase, detail string) {
		if err := st.AppendEvent(ctx, clock.Next(), phase, detail); err != nil {
			opts.logger().Warn("trace event dropped", "phase", phase, "err", err)
		}
	}

	if err := st.BeginRun(ctx, sc.Name, StateBuilt); err != nil {
		result.Verdict = verify.Verdict{
			Kind:   verify.KindSetupError,
			Detail: fmt.Sprintf("begin run: %v", err),
		}
		return result
	}

	result.Verdict = runPhases(ctx, sc, opts, st, trace, result)

	if err := st.SetVerdict(ctx, string(result.Verdict.Kind), result.Verdict.Detail); err != nil {
		opts.logger().Warn("verdict not recorded", "err", err)
	}
	if events, err := st.ReadEvents(ctx); err == nil {
		result.Trace = events
	}
	return result
}

// runPhases walks the state machine. Sandbox teardown is deferred here
// so it runs on every exit path before the caller reads the trace.
func runPhases(ctx context.Context, sc *Scenario, opts Options, st *store.Store, trace func(phase, detail string), result *Result) verify.Verdict {
	logger := opts.logger()
	setState := func(state string) {
		if err := st.SetState(ctx, state); err != nil {
			logger.Warn("state not recorded", "state", state, "err", err)
		}
	}

	setupError := func(stage string, err error) verify.Verdict {
		trace(StateFailed, err.Error())
		logger.Error("scenario setup failed", "scenario", sc.Name, "stage", stage, "err", err)
		// A resolver stall is a timeout wherever it happens, not just
		// during the graph resolution itself.
		kind := verify.KindSetupError
		if resolver.IsTimeout(err) {
			kind = verify.KindTimeout
		}
		return verify.Verdict{
			Kind:   kind,
			Detail: fmt.Sprintf("%s: %v", stage, err),
		}
	}

	// Built: compile and validate the fixture set.
	set, err := sc.FixtureSet()
	if err != nil {
		return setupError("fixture", err)
	}
	trace(StateBuilt, fmt.Sprintf("%d recipes, root %s", len(set.Recipes), set.Root))

	// Sandboxed: isolated environment, removal guaranteed from here on.
	sb, err := sandbox.New(opts.SandboxParent)
	if err != nil {
		setState(StateTornDown)
		return setupError("sandbox", err)
	}
	defer func() {
		if err := sb.Remove(); err != nil {
			logger.Error("sandbox teardown failed", "dir", sb.Dir(), "err", err)
		}
		setState(StateTornDown)
		trace(StateTornDown, "sandbox removed")
	}()

	rootDir, err := set.Materialize(sb.WorkDir())
	if err != nil {
		return setupError("materialize", err)
	}
	setState(StateSandboxed)
	trace(StateSandboxed, sb.Dir())

	iv := &resolver.Invoker{Binary: opts.Binary, Timeout: opts.Timeout, Logger: logger}
	if err := iv.Prepare(ctx, sb); err != nil {
		return setupError("prepare", err)
	}
	for _, dir := range set.RecipeDirs(sb.WorkDir()) {
		if err := iv.Export(ctx, sb, dir); err != nil {
			return setupError("export", err)
		}
	}

	// Invoked: the one suspending operation, bounded by the timeout.
	setState(StateInvoked)
	trace(StateInvoked, "graph info "+rootDir)
	outcome, err := iv.GraphInfo(ctx, sb, rootDir)
	if err != nil {
		setState(StateFailed)
		trace(StateFailed, err.Error())
		if resolver.IsTimeout(err) {
			return verify.Verdict{Kind: verify.KindTimeout, Detail: err.Error()}
		}
		return verify.Verdict{Kind: verify.KindResolverError, Detail: err.Error()}
	}

	if outcome.Resolved() {
		setState(StateResolved)
		result.Resolved = make(map[string]string, len(outcome.Resolution.Versions))
		for name, v := range outcome.Resolution.Versions {
			result.Resolved[name] = v.String()
		}
		trace(StateResolved, resolvedDetail(result.Resolved))
	} else {
		setState(StateFailed)
		result.Conflict = outcome.Conflict.Description
		trace(StateFailed, outcome.Conflict.Description)
	}

	verdict := verify.Evaluate(sc.Expect, outcome, set)
	setState(StateAsserted)
	trace(StateAsserted, string(verdict.Kind))
	return verdict
}

// resolvedDetail renders the resolved map sorted for the trace.
func resolvedDetail(resolved map[string]string) string {
	names := make([]string, 0, len(resolved))
	for name := range resolved {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(name + "/" + resolved[name])
	}
	return b.String()
}
