// Package dispatch routes stage commands to their skill entrypoints. It
// owns the command table, legacy alias resolution, and the pre-flight
// state transitions that run before an entrypoint.
package dispatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/iceout/aidd-plugin-sub002/internal/cmdrunner"
	"github.com/iceout/aidd-plugin-sub002/internal/events"
	"github.com/iceout/aidd-plugin-sub002/internal/ideprofiles"
	"github.com/iceout/aidd-plugin-sub002/internal/workspace"
)

// Spec describes one dispatchable stage command.
type Spec struct {
	Command          string
	Stage            string
	Entrypoint       string
	TicketRequired   bool
	InjectTicketFlag bool
	RequiresWorkflow bool
	SetFeature       bool
	SetStage         bool
}

// Target is a resolved dispatch request.
type Target struct {
	RawCommand       string
	RequestedCommand string
	ResolvedCommand  string
	IsLegacyAlias    bool
	Spec             Spec
}

// Result captures one dispatched stage run.
type Result struct {
	RunID         string
	Target        Target
	Profile       string
	Ticket        string
	WorkspaceRoot string
	ProjectRoot   string
	ReturnCode    int
	Stdout        string
	Stderr        string
	Command       []string
}

// DefaultInterpreter runs skill entrypoint scripts.
const DefaultInterpreter = "python3"

// DefaultEventLog is where dispatch events land, relative to the
// workflow root.
var DefaultEventLog = filepath.Join("logs", "dispatch.jsonl")

// stageSpec builds the common spec shape; the init flow overrides every
// flag off.
func stageSpec(command, stage, entrypoint string) Spec {
	return Spec{
		Command:          command,
		Stage:            stage,
		Entrypoint:       entrypoint,
		TicketRequired:   true,
		InjectTicketFlag: true,
		RequiresWorkflow: true,
		SetFeature:       true,
		SetStage:         true,
	}
}

var specs = map[string]Spec{
	"aidd-init-flow": {
		Command:    "aidd-init-flow",
		Entrypoint: "skills/aidd-init/runtime/init.py",
	},
	"idea-new":       stageSpec("idea-new", "idea", "skills/idea-new/runtime/analyst_check.py"),
	"researcher":     stageSpec("researcher", "research", "skills/researcher/runtime/research.py"),
	"plan-new":       stageSpec("plan-new", "plan", "skills/plan-new/runtime/research_check.py"),
	"review-spec":    stageSpec("review-spec", "review-spec", "skills/review-spec/runtime/prd_review_cli.py"),
	"spec-interview": stageSpec("spec-interview", "spec-interview", "skills/spec-interview/runtime/spec_interview.py"),
	"tasks-new":      stageSpec("tasks-new", "tasklist", "skills/tasks-new/runtime/tasks_new.py"),
	"implement":      stageSpec("implement", "implement", "skills/implement/runtime/implement_run.py"),
	"review":         stageSpec("review", "review", "skills/review/runtime/review_run.py"),
	"qa":             stageSpec("qa", "qa", "skills/qa/runtime/qa.py"),
}

var legacyAliases = map[string]string{
	"aidd-idea-flow":      "idea-new",
	"aidd-research-flow":  "researcher",
	"aidd-plan-flow":      "plan-new",
	"aidd-implement-flow": "implement",
	"aidd-review-flow":    "review",
	"aidd-qa-flow":        "qa",
	"aidd-init":           "aidd-init-flow",
}

// SupportedCommands returns the dispatchable command names in sorted
// order.
func SupportedCommands() []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NormalizeCommand strips the profile's host prefix and canonicalizes
// separators: lowercase, underscores and whitespace fold to hyphens, runs
// collapse, edges trim.
func NormalizeCommand(command string, p ideprofiles.Profile) string {
	raw := ideprofiles.StripHostPrefix(command, p)
	if raw == "" {
		return ""
	}
	normalized := strings.Map(func(r rune) rune {
		switch r {
		case '_', ' ', '\t', '\n', '\r':
			return '-'
		}
		return r
	}, strings.ToLower(strings.TrimSpace(raw)))
	for strings.Contains(normalized, "--") {
		normalized = strings.ReplaceAll(normalized, "--", "-")
	}
	return strings.Trim(normalized, "-")
}

// ResolveTarget maps a raw command to its spec, following legacy flow
// aliases.
func ResolveTarget(command string, p ideprofiles.Profile) (Target, error) {
	requested := NormalizeCommand(command, p)
	if requested == "" {
		return Target{}, fmt.Errorf("command name is required")
	}

	resolved, isAlias := legacyAliases[requested]
	if !isAlias {
		resolved = requested
	}
	spec, ok := specs[resolved]
	if !ok {
		return Target{}, fmt.Errorf("unsupported stage command %q. Supported: %s",
			command, strings.Join(SupportedCommands(), ", "))
	}

	return Target{
		RawCommand:       command,
		RequestedCommand: requested,
		ResolvedCommand:  resolved,
		IsLegacyAlias:    isAlias,
		Spec:             spec,
	}, nil
}

// Options tunes one dispatch.
type Options struct {
	Ticket      string
	Argv        []string
	Dir         string // working directory; empty means the process cwd
	Profile     string // explicit profile name; empty auto-selects
	Check       bool   // entrypoint non-zero exit becomes an error
	Interpreter string // script interpreter; empty means DefaultInterpreter
	EventLog    string // event log path relative to the workflow root; empty means DefaultEventLog
}

// Dispatch resolves and runs a stage command: profile and target
// resolution, workspace checks, ticket resolution, active-state
// transitions, then the entrypoint itself. Every run is recorded in the
// workflow's dispatch event log.
func Dispatch(ctx context.Context, command string, opts Options) (Result, error) {
	profile, err := ideprofiles.Select(command, opts.Profile, nil)
	if err != nil {
		return Result{}, err
	}
	target, err := ResolveTarget(command, profile)
	if err != nil {
		return Result{}, err
	}
	pluginRoot, err := workspace.PluginRoot()
	if err != nil {
		return Result{}, err
	}
	env := cmdrunner.BuildEnv(pluginRoot, profile, nil, nil)

	var workspaceRoot, projectRoot string
	if target.Spec.RequiresWorkflow {
		workspaceRoot, projectRoot, err = workspace.RequireWorkflowRoot(opts.Dir)
		if err != nil {
			return Result{}, err
		}
	} else {
		workspaceRoot, err = absDir(opts.Dir)
		if err != nil {
			return Result{}, err
		}
		projectRoot = filepath.Join(workspaceRoot, workspace.ProjectSubdir)
	}

	ticket, err := resolveTicket(projectRoot, opts.Ticket)
	if err != nil {
		return Result{}, err
	}
	if target.Spec.TicketRequired && ticket == "" {
		return Result{}, fmt.Errorf(
			"ticket is required for %q; pass ticket or set docs/.active.json first",
			target.ResolvedCommand)
	}

	interpreter := opts.Interpreter
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}

	if target.Spec.SetFeature && ticket != "" {
		if err := runStateScript(ctx, pluginRoot, "set_active_feature.py", []string{ticket},
			workspaceRoot, profile, env, interpreter); err != nil {
			return Result{}, err
		}
	}
	if target.Spec.SetStage && target.Spec.Stage != "" {
		if err := runStateScript(ctx, pluginRoot, "set_active_stage.py", []string{target.Spec.Stage},
			workspaceRoot, profile, env, interpreter); err != nil {
			return Result{}, err
		}
	}

	scriptPath := filepath.Join(pluginRoot, target.Spec.Entrypoint)
	if !fileExists(scriptPath) {
		return Result{}, fmt.Errorf("entrypoint not found: %s", scriptPath)
	}

	stageArgv := append([]string(nil), opts.Argv...)
	if target.Spec.InjectTicketFlag && ticket != "" && !containsFlag(stageArgv, "--ticket") {
		stageArgv = append([]string{"--ticket", ticket}, stageArgv...)
	}

	commandLine := append([]string{interpreter, scriptPath}, stageArgv...)
	runResult, runErr := cmdrunner.Run(ctx, commandLine, cmdrunner.Options{
		Dir:          workspaceRoot,
		Profile:      profile,
		Env:          env,
		Check:        opts.Check,
		ErrorContext: fmt.Sprintf("dispatch failed for %q", target.ResolvedCommand),
	})
	if runErr != nil && runResult.Command == nil {
		// The process never ran; nothing to record.
		return Result{}, runErr
	}

	result := Result{
		RunID:         uuid.NewString(),
		Target:        target,
		Profile:       profile.Name,
		Ticket:        ticket,
		WorkspaceRoot: workspaceRoot,
		ProjectRoot:   projectRoot,
		ReturnCode:    runResult.ReturnCode,
		Stdout:        runResult.Stdout,
		Stderr:        runResult.Stderr,
		Command:       runResult.Command,
	}

	eventLog := opts.EventLog
	if eventLog == "" {
		eventLog = DefaultEventLog
	}
	if err := events.Append(filepath.Join(projectRoot, eventLog), events.Record{
		RunID:      result.RunID,
		Timestamp:  events.Timestamp(),
		Command:    target.ResolvedCommand,
		Stage:      target.Spec.Stage,
		Ticket:     ticket,
		Profile:    profile.Name,
		ReturnCode: result.ReturnCode,
	}); err != nil {
		return result, fmt.Errorf("recording dispatch event: %w", err)
	}

	return result, runErr
}

func resolveTicket(projectRoot, explicit string) (string, error) {
	if provided := strings.TrimSpace(explicit); provided != "" {
		return provided, nil
	}
	return workspace.ActiveTicket(projectRoot)
}

func runStateScript(ctx context.Context, pluginRoot, script string, args []string,
	dir string, profile ideprofiles.Profile, env map[string]string, interpreter string) error {
	scriptPath := filepath.Join(pluginRoot, "skills", "aidd-flow-state", "runtime", script)
	if !fileExists(scriptPath) {
		return fmt.Errorf("state script not found: %s", scriptPath)
	}
	_, err := cmdrunner.Run(ctx, append([]string{interpreter, scriptPath}, args...), cmdrunner.Options{
		Dir:          dir,
		Profile:      profile,
		Env:          env,
		Check:        true,
		ErrorContext: fmt.Sprintf("state transition via %s failed", script),
	})
	return err
}

func containsFlag(argv []string, flag string) bool {
	prefix := flag + "="
	for _, arg := range argv {
		if arg == flag || strings.HasPrefix(arg, prefix) {
			return true
		}
	}
	return false
}

func absDir(dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}
		return cwd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory %s: %w", dir, err)
	}
	return abs, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
