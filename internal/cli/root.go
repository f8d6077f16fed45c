package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iceout/aidd-plugin-sub002/internal/ideprofiles"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Profile       string
	Format        string // "json" | "text"
	ProfileConfig string // optional YAML profile overrides
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the aidd CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "aidd",
		Short: "AIDD - feature-dev stage dispatcher",
		Long:  "Dispatches feature-dev workflow stage commands to their skill entrypoints.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.ProfileConfig != "" {
				overrides, err := ideprofiles.LoadOverrides(opts.ProfileConfig)
				if err != nil {
					return err
				}
				if err := ideprofiles.ApplyOverrides(overrides); err != nil {
					return err
				}
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.Profile, "profile", "p", "", "ide profile (kimi|codex|cursor); auto-detected when empty")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ProfileConfig, "profile-config", "", "YAML file with profile overrides")

	// Add subcommands
	cmd.AddCommand(NewStageCommand(opts))
	cmd.AddCommand(NewProfilesCommand(opts))
	cmd.AddCommand(NewResearcherContextCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
