// Package cmdrunner executes skill entrypoints and other subprocesses with
// the per-profile resource limits the plugin enforces: wall-clock timeout
// and bounded captured output.
package cmdrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iceout/aidd-plugin-sub002/internal/ideprofiles"
	"github.com/iceout/aidd-plugin-sub002/internal/workspace"
)

// TimeoutReturnCode mirrors the conventional exit status of timeout(1).
const TimeoutReturnCode = 124

// Result captures a finished subprocess.
type Result struct {
	Command         []string
	Dir             string
	ReturnCode      int
	Stdout          string
	Stderr          string
	TimedOut        bool
	StdoutTruncated bool
	StderrTruncated bool
}

// OK reports whether the process exited zero.
func (r Result) OK() bool {
	return r.ReturnCode == 0
}

// Options tunes a single run. Zero values defer to the profile.
type Options struct {
	Dir            string
	Profile        ideprofiles.Profile
	Env            map[string]string // nil inherits the process environment
	Timeout        time.Duration     // 0 uses Profile.TimeoutSec
	MaxStdoutBytes int               // 0 uses Profile.MaxStdoutBytes
	MaxStderrBytes int               // 0 uses Profile.MaxStderrBytes
	Check          bool              // non-zero exit becomes an error
	ErrorContext   string            // prefixed onto Check errors
}

// Run executes command under the options' limits. A timeout is reported
// in the Result (return code 124 plus a stderr marker), not as an error;
// errors are reserved for processes that could not run at all and, in
// Check mode, non-zero exits.
func Run(ctx context.Context, command []string, opts Options) (Result, error) {
	if len(command) == 0 {
		return Result{}, errors.New("command is required")
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Duration(opts.Profile.TimeoutSec) * time.Second
	}
	stdoutLimit := opts.MaxStdoutBytes
	if stdoutLimit == 0 {
		stdoutLimit = opts.Profile.MaxStdoutBytes
	}
	stderrLimit := opts.MaxStderrBytes
	if stderrLimit == 0 {
		stderrLimit = opts.Profile.MaxStderrBytes
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, command[0], command[1:]...)
	cmd.Dir = opts.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Don't let output copying from a surviving grandchild stall Wait
	// past the deadline.
	cmd.WaitDelay = time.Second
	if opts.Env != nil {
		cmd.Env = formatEnv(opts.Env)
	}

	result := Result{Command: append([]string(nil), command...), Dir: opts.Dir}

	runErr := cmd.Run()
	stdoutText := stdout.String()
	stderrText := stderr.String()
	switch {
	case runErr == nil:
		// exit 0
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		result.ReturnCode = TimeoutReturnCode
		timeoutMsg := fmt.Sprintf("[aidd] ERROR: command timed out after %.3fs", timeout.Seconds())
		stderrText = strings.TrimSpace(stderrText + "\n" + timeoutMsg)
	default:
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return Result{}, fmt.Errorf("running %s: %w", command[0], runErr)
		}
		result.ReturnCode = exitErr.ExitCode()
	}

	result.Stdout, result.StdoutTruncated = truncate(stdoutText, stdoutLimit)
	result.Stderr, result.StderrTruncated = truncate(stderrText, stderrLimit)

	if opts.Check && !result.OK() {
		summary := strings.TrimSpace(result.Stderr)
		if summary == "" {
			summary = strings.TrimSpace(result.Stdout)
		}
		if opts.ErrorContext != "" {
			return result, fmt.Errorf("%s: %s", opts.ErrorContext, summary)
		}
		return result, errors.New(summary)
	}
	return result, nil
}

// BuildEnv constructs the environment for skill entrypoints: the base
// environment (process environment when base is nil) plus the AIDD
// variables, the profile's overrides, and any caller extras.
func BuildEnv(pluginRoot string, profile ideprofiles.Profile, base, extra map[string]string) map[string]string {
	env := make(map[string]string)
	if base == nil {
		for _, kv := range os.Environ() {
			if key, value, found := strings.Cut(kv, "="); found {
				env[key] = value
			}
		}
	} else {
		for key, value := range base {
			env[key] = value
		}
	}

	skillsDirs := ideprofiles.DiscoverSkillsDirs(profile, env, false)
	if len(skillsDirs) == 0 {
		skillsDirs = ideprofiles.DiscoverSkillsDirs(profile, env, true)
	}

	env[workspace.EnvRoot] = pluginRoot
	env[ideprofiles.EnvProfile] = profile.Name
	env[ideprofiles.EnvSkillsDirs] = ideprofiles.FormatSkillsDirs(skillsDirs)
	if len(skillsDirs) > 0 {
		env["AIDD_PRIMARY_SKILLS_DIR"] = skillsDirs[0]
	}
	for key, value := range profile.EnvOverrides {
		env[key] = value
	}
	for key, value := range extra {
		env[key] = value
	}
	return env
}

// truncate bounds text to maxBytes, appending a marker when anything was
// cut. The cut lands on a rune boundary.
func truncate(text string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return text, false
	}
	cut := text[:maxBytes]
	// Drop a rune the cut split in half; earlier bytes stay as-is.
	for i := 0; i < utf8.UTFMax-1 && len(cut) > 0; i++ {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	suffix := fmt.Sprintf("\n[aidd] output truncated to %d bytes.", maxBytes)
	return strings.TrimRight(cut, " \t\r\n") + suffix, true
}

func formatEnv(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	formatted := make([]string, 0, len(env))
	for _, key := range keys {
		formatted = append(formatted, key+"="+env[key])
	}
	return formatted
}
