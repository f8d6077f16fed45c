package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iceout/aidd-plugin-sub002/internal/dispatch"
)

// StageOptions holds flags for the stage command.
type StageOptions struct {
	*RootOptions
	Ticket string
	Dir    string
	List   bool
}

// stageSummary is the JSON payload for a dispatched stage run.
type stageSummary struct {
	RunID      string `json:"run_id"`
	Command    string `json:"command"`
	Stage      string `json:"stage,omitempty"`
	Profile    string `json:"profile"`
	Ticket     string `json:"ticket,omitempty"`
	ReturnCode int    `json:"returncode"`
}

// NewStageCommand creates the stage command.
func NewStageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stage <command> [args...]",
		Short: "Dispatch a workflow stage command",
		Long: `Dispatch a workflow stage command to its skill entrypoint.

The command may carry a host prefix (e.g. /flow:aidd-plan-flow or
$aidd:plan-new); legacy flow aliases resolve to their successors. The
process exit code equals the entrypoint's exit code.

Example:
  aidd stage researcher --ticket P4-1001
  aidd stage /flow:aidd-qa-flow -- --strict
  aidd stage --list`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Ticket, "ticket", "", "feature ticket (defaults to docs/.active.json)")
	cmd.Flags().StringVar(&opts.Dir, "dir", "", "workspace directory (defaults to the current directory)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list dispatchable commands and exit")

	return cmd
}

func runStage(opts *StageOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if opts.List {
		return listStages(opts, formatter)
	}
	if len(args) == 0 {
		return NewExitError(ExitCommandError, "stage command is required (or use --list)")
	}

	result, err := dispatch.Dispatch(cmd.Context(), args[0], dispatch.Options{
		Ticket:  opts.Ticket,
		Argv:    args[1:],
		Dir:     opts.Dir,
		Profile: opts.Profile,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "dispatch failed", err)
	}

	if opts.Format == "json" {
		if err := formatter.Success(stageSummary{
			RunID:      result.RunID,
			Command:    result.Target.ResolvedCommand,
			Stage:      result.Target.Spec.Stage,
			Profile:    result.Profile,
			Ticket:     result.Ticket,
			ReturnCode: result.ReturnCode,
		}); err != nil {
			return err
		}
	} else {
		io.WriteString(cmd.OutOrStdout(), result.Stdout)
		io.WriteString(cmd.ErrOrStderr(), result.Stderr)
	}

	if result.ReturnCode != 0 {
		return NewExitError(result.ReturnCode,
			fmt.Sprintf("stage %q exited with status %d", result.Target.ResolvedCommand, result.ReturnCode))
	}
	return nil
}

func listStages(opts *StageOptions, formatter *OutputFormatter) error {
	if opts.Format == "json" {
		tableJSON, err := dispatch.TableJSON()
		if err != nil {
			return err
		}
		return formatter.Success(json.RawMessage(tableJSON))
	}
	io.WriteString(formatter.Writer, dispatch.FormatTable())
	return nil
}
