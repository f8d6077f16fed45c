package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iceout/aidd-plugin-sub002/internal/legacy/researcherctx"
)

// NewResearcherContextCommand creates the hidden, deprecated
// researcher-context alias. It exists so scripted callers of the removed
// CLI keep working; the shim warns on stderr and forwards to the research
// stage entrypoint.
func NewResearcherContextCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:        "researcher-context [args...]",
		Short:      "Deprecated: forwards to the research stage",
		Hidden:     true,
		Deprecated: "use 'aidd stage researcher' instead",
		// Arguments belong to the research stage entrypoint, not cobra.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := researcherctx.Main(args); code != 0 {
				return NewExitError(code, fmt.Sprintf("researcher-context exited with status %d", code))
			}
			return nil
		},
	}
	return cmd
}
