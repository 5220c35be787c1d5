package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/resolvecheck/internal/harness"
)

// scenarioSummary is the list payload for one scenario.
type scenarioSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Root        string `json:"root"`
	Recipes     int    `json:"recipes"`
	Repeat      int    `json:"repeat,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the embedded reproduction scenarios",
		Long: `List the embedded scenarios that run when no scenarios directory is
given to the run command.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios := harness.Builtins()

			if rootOpts.Format == "json" {
				summaries := make([]scenarioSummary, 0, len(scenarios))
				for _, sc := range scenarios {
					summaries = append(summaries, scenarioSummary{
						Name:        sc.Name,
						Description: sc.Description,
						Root:        sc.Root,
						Recipes:     len(sc.Recipes),
						Repeat:      sc.Repeat,
					})
				}
				return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: summaries})
			}

			w := cmd.OutOrStdout()
			for _, sc := range scenarios {
				fmt.Fprintf(w, "%s\n", sc.Name)
				fmt.Fprintf(w, "    %s\n", sc.Description)
				fmt.Fprintf(w, "    root: %s, recipes: %d\n", sc.Root, len(sc.Recipes))
			}
			return nil
		},
	}
	return cmd
}
