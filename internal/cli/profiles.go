package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iceout/aidd-plugin-sub002/internal/ideprofiles"
)

// profileSummary is the JSON payload for one IDE profile.
type profileSummary struct {
	Name           string   `json:"name"`
	Default        bool     `json:"default"`
	SkillsDirs     []string `json:"skills_dirs"`
	TimeoutSec     int      `json:"timeout_sec"`
	MaxStdoutBytes int      `json:"max_stdout_bytes"`
	MaxStderrBytes int      `json:"max_stderr_bytes"`
	PermissionMode string   `json:"permission_mode"`
}

// NewProfilesCommand creates the profiles command.
func NewProfilesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List supported IDE profiles",
		Long: `List the IDE profiles the dispatcher can run under, including any
values merged from --profile-config.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listProfiles(rootOpts, cmd)
		},
	}
	return cmd
}

func listProfiles(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	summaries := make([]profileSummary, 0, len(ideprofiles.Supported()))
	for _, name := range ideprofiles.Supported() {
		p, err := ideprofiles.Resolve(name)
		if err != nil {
			return err
		}
		summaries = append(summaries, profileSummary{
			Name:           p.Name,
			Default:        p.Name == ideprofiles.DefaultProfile,
			SkillsDirs:     p.SkillsDirs,
			TimeoutSec:     p.TimeoutSec,
			MaxStdoutBytes: p.MaxStdoutBytes,
			MaxStderrBytes: p.MaxStderrBytes,
			PermissionMode: p.PermissionMode,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(summaries)
	}

	var b strings.Builder
	for _, s := range summaries {
		marker := " "
		if s.Default {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %-8s timeout=%ds skills=%s\n",
			marker, s.Name, s.TimeoutSec, strings.Join(s.SkillsDirs, ","))
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}
