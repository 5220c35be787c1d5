package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/resolvecheck/internal/harness"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Binary     string        // resolver executable
	Timeout    time.Duration // per-invocation bound
	Filter     string        // glob on scenario names
	Parallel   int           // concurrent scenario runs
	SandboxDir string        // parent for sandbox allocation
	ShowTrace  bool          // include the run trace in text output
}

// RunReport is the aggregate result payload.
type RunReport struct {
	Scenarios []*harness.Result `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [scenarios-dir]",
		Short: "Run reproduction scenarios against the package manager",
		Long: `Run reproduction scenarios. With no argument the embedded scenarios
run; with a directory argument every .yaml/.yml scenario file in it is
loaded and run.

Each scenario gets a fresh sandbox holding the package manager's home
and cache; the sandbox is removed on every exit path.

Exit codes:
  0 - all scenarios passed
  1 - one or more scenarios failed
  2 - command error (bad paths, unloadable scenarios)

Examples:
  resolvecheck run
  resolvecheck run ./scenarios --filter "diamond-*"
  resolvecheck run --conan /usr/local/bin/conan --timeout 2m
  resolvecheck run --parallel 4 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runScenarios(cmd, opts, dir)
		},
	}

	cmd.Flags().StringVar(&opts.Binary, "conan", "conan", "package manager executable")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 60*time.Second, "per-invocation resolution timeout")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by name glob")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 1, "number of scenarios to run concurrently")
	cmd.Flags().StringVar(&opts.SandboxDir, "sandbox-dir", "", "parent directory for sandboxes (default: system temp)")
	cmd.Flags().BoolVar(&opts.ShowTrace, "trace", false, "print the run trace for each scenario")

	return cmd
}

func runScenarios(cmd *cobra.Command, opts *RunOptions, dir string) error {
	scenarios, err := loadScenarios(dir, opts.Filter)
	if err != nil {
		return err
	}

	if len(scenarios) == 0 {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), CLIResponse{
				Status: "ok",
				Data:   RunReport{Scenarios: []*harness.Result{}},
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios matched.")
		return nil
	}

	hopts := harness.Options{
		Binary:        opts.Binary,
		Timeout:       opts.Timeout,
		SandboxParent: opts.SandboxDir,
		Logger:        runLogger(cmd.ErrOrStderr(), opts.Verbose),
	}

	results := harness.RunAll(cmd.Context(), scenarios, hopts, opts.Parallel)

	report := RunReport{Scenarios: results, Total: len(results)}
	for _, r := range results {
		if r.Pass() {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	if opts.Format == "json" {
		return outputRunJSON(cmd.OutOrStdout(), report)
	}
	return outputRunText(cmd.OutOrStdout(), report, opts.ShowTrace)
}

// loadScenarios returns the builtins, or the scenarios found in dir,
// filtered by name glob.
func loadScenarios(dir, filter string) ([]*harness.Scenario, error) {
	var scenarios []*harness.Scenario

	if dir == "" {
		scenarios = harness.Builtins()
	} else {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
		}
		files, err := findScenarioFiles(dir)
		if err != nil {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("scan scenarios: %v", err))
		}
		for _, f := range files {
			sc, err := harness.LoadScenario(f)
			if err != nil {
				return nil, &ExitError{Code: ExitCommandError, Message: "load scenario", Err: err}
			}
			scenarios = append(scenarios, sc)
		}
	}

	if filter == "" {
		return scenarios, nil
	}
	var matched []*harness.Scenario
	for _, sc := range scenarios {
		ok, err := filepath.Match(filter, sc.Name)
		if err != nil {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid filter pattern %q: %v", filter, err))
		}
		if ok {
			matched = append(matched, sc)
		}
	}
	return matched, nil
}

// findScenarioFiles walks dir for .yaml/.yml files, sorted by path.
func findScenarioFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func runLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func outputRunJSON(w io.Writer, report RunReport) error {
	resp := CLIResponse{Status: "ok", Data: report}
	if report.Failed > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    "E_SCENARIOS_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", report.Failed),
		}
	}
	if err := writeJSON(w, resp); err != nil {
		return err
	}
	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	return nil
}

func outputRunText(w io.Writer, report RunReport, showTrace bool) error {
	for _, r := range report.Scenarios {
		if r.Pass() {
			fmt.Fprintf(w, "✓ %s\n", r.Scenario)
		} else {
			fmt.Fprintf(w, "✗ %s (%s)\n", r.Scenario, r.Verdict.Kind)
			if r.Verdict.Detail != "" {
				fmt.Fprintf(w, "  %s\n", r.Verdict.Detail)
			}
			for _, d := range r.Verdict.Discrepancies {
				fmt.Fprintf(w, "  %s\n", d)
			}
		}
		if showTrace {
			for _, e := range r.Trace {
				fmt.Fprintf(w, "    [%d] %s %s\n", e.Seq, e.Phase, e.Detail)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run Summary: %d passed, %d failed, %d total\n",
		report.Passed, report.Failed, report.Total)

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
