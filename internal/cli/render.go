package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/resolvecheck/internal/harness"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Scenario string // builtin scenario name
	File     string // scenario YAML file
	OutDir   string // destination directory
}

// renderResult is the JSON payload of a render.
type renderResult struct {
	Scenario string   `json:"scenario"`
	RootDir  string   `json:"root_dir"`
	Recipes  []string `json:"recipes"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write a scenario's recipe fixtures to a directory",
		Long: `Render a scenario's recipe fixtures to disk without running the
resolver. Useful for inspecting the generated package definitions or
reproducing a case by hand.

Examples:
  resolvecheck render --scenario diamond-intersection --out ./fixtures
  resolvecheck render --file ./scenarios/case.yaml --out ./fixtures`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderScenario(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "embedded scenario name to render")
	cmd.Flags().StringVar(&opts.File, "file", "", "scenario YAML file to render")
	cmd.Flags().StringVar(&opts.OutDir, "out", "", "destination directory (required)")
	cmd.MarkFlagRequired("out")

	return cmd
}

func renderScenario(cmd *cobra.Command, opts *RenderOptions) error {
	if (opts.Scenario == "") == (opts.File == "") {
		return NewExitError(ExitCommandError, "exactly one of --scenario or --file is required")
	}

	var sc *harness.Scenario
	if opts.File != "" {
		loaded, err := harness.LoadScenario(opts.File)
		if err != nil {
			return &ExitError{Code: ExitCommandError, Message: "load scenario", Err: err}
		}
		sc = loaded
	} else {
		for _, b := range harness.Builtins() {
			if b.Name == opts.Scenario {
				sc = b
				break
			}
		}
		if sc == nil {
			return NewExitError(ExitCommandError,
				fmt.Sprintf("unknown scenario %q: known scenarios are %v", opts.Scenario, harness.BuiltinNames()))
		}
	}

	set, err := sc.FixtureSet()
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "invalid fixture set", Err: err}
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return &ExitError{Code: ExitCommandError, Message: "create output directory", Err: err}
	}
	rootDir, err := set.Materialize(opts.OutDir)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "write fixtures", Err: err}
	}

	var refs []string
	for _, r := range set.Recipes {
		refs = append(refs, r.Ref())
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{
			Status: "ok",
			Data:   renderResult{Scenario: sc.Name, RootDir: rootDir, Recipes: refs},
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Rendered %d recipe(s) for %s\n", len(set.Recipes), sc.Name)
	for _, ref := range refs {
		fmt.Fprintf(w, "  %s\n", ref)
	}
	fmt.Fprintf(w, "Root: %s\n", rootDir)
	return nil
}
