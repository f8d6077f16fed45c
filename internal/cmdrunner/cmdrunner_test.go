package cmdrunner

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iceout/aidd-plugin-sub002/internal/ideprofiles"
	"github.com/iceout/aidd-plugin-sub002/internal/workspace"
)

func testProfile() ideprofiles.Profile {
	return ideprofiles.Profile{
		Name:           "kimi",
		TimeoutSec:     30,
		MaxStdoutBytes: 50_000,
		MaxStderrBytes: 20_000,
	}
}

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	result, err := Run(context.Background(), []string{"sh", "-c", "echo out; echo err >&2"}, Options{
		Dir:     t.TempDir(),
		Profile: testProfile(),
	})
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
	assert.False(t, result.TimedOut)
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	result, err := Run(context.Background(), []string{"sh", "-c", "exit 3"}, Options{
		Dir:     t.TempDir(),
		Profile: testProfile(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ReturnCode)
	assert.False(t, result.OK())
}

func TestRunMissingBinaryIsAnError(t *testing.T) {
	_, err := Run(context.Background(), []string{"definitely-not-a-binary-7f3a"}, Options{
		Dir:     t.TempDir(),
		Profile: testProfile(),
	})
	require.Error(t, err)
}

func TestRunTimeout(t *testing.T) {
	result, err := Run(context.Background(), []string{"sh", "-c", "sleep 5"}, Options{
		Dir:     t.TempDir(),
		Profile: testProfile(),
		Timeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.True(t, result.TimedOut)
	assert.Equal(t, TimeoutReturnCode, result.ReturnCode)
	assert.Contains(t, result.Stderr, "[aidd] ERROR: command timed out after")
}

func TestRunTruncatesOutput(t *testing.T) {
	result, err := Run(context.Background(), []string{"sh", "-c", "printf 'aaaaaaaaaaaaaaaaaaaa'"}, Options{
		Dir:            t.TempDir(),
		Profile:        testProfile(),
		MaxStdoutBytes: 10,
	})
	require.NoError(t, err)
	assert.True(t, result.StdoutTruncated)
	assert.True(t, strings.HasPrefix(result.Stdout, "aaaaaaaaaa"))
	assert.Contains(t, result.Stdout, "[aidd] output truncated to 10 bytes.")
	assert.False(t, result.StderrTruncated)
}

func TestRunCheckMode(t *testing.T) {
	t.Run("failure with context", func(t *testing.T) {
		result, err := Run(context.Background(), []string{"sh", "-c", "echo boom >&2; exit 1"}, Options{
			Dir:          t.TempDir(),
			Profile:      testProfile(),
			Check:        true,
			ErrorContext: "dispatch failed for 'qa'",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dispatch failed for 'qa': boom")
		assert.Equal(t, 1, result.ReturnCode)
	})

	t.Run("success", func(t *testing.T) {
		_, err := Run(context.Background(), []string{"sh", "-c", "exit 0"}, Options{
			Dir:     t.TempDir(),
			Profile: testProfile(),
			Check:   true,
		})
		require.NoError(t, err)
	})
}

func TestRunUsesProvidedEnv(t *testing.T) {
	result, err := Run(context.Background(), []string{"sh", "-c", "printf '%s' \"$AIDD_PROBE\""}, Options{
		Dir:     t.TempDir(),
		Profile: testProfile(),
		Env:     map[string]string{"PATH": "/usr/bin:/bin", "AIDD_PROBE": "probe-value"},
	})
	require.NoError(t, err)
	assert.Equal(t, "probe-value", result.Stdout)
}

func TestBuildEnv(t *testing.T) {
	skills := t.TempDir()
	profile := testProfile()
	profile.EnvOverrides = map[string]string{ideprofiles.EnvHost: "kimi"}
	base := map[string]string{
		"PATH":                    "/usr/bin:/bin",
		ideprofiles.EnvSkillsDirs: skills,
	}

	env := BuildEnv("/opt/aidd", profile, base, map[string]string{"EXTRA": "1"})

	assert.Equal(t, "/opt/aidd", env[workspace.EnvRoot])
	assert.Equal(t, "kimi", env[ideprofiles.EnvProfile])
	assert.Equal(t, skills, env[ideprofiles.EnvSkillsDirs])
	assert.Equal(t, skills, env["AIDD_PRIMARY_SKILLS_DIR"])
	assert.Equal(t, "kimi", env[ideprofiles.EnvHost])
	assert.Equal(t, "1", env["EXTRA"])
	assert.Equal(t, "/usr/bin:/bin", env["PATH"])
}

func TestBuildEnvFallsBackToMissingDirs(t *testing.T) {
	profile := testProfile()
	profile.SkillsDirs = []string{"/definitely/not/there"}

	env := BuildEnv("/opt/aidd", profile, map[string]string{}, nil)

	assert.Equal(t, "/definitely/not/there", env[ideprofiles.EnvSkillsDirs])
	assert.Equal(t, "/definitely/not/there", env["AIDD_PRIMARY_SKILLS_DIR"])
}

func TestTruncate(t *testing.T) {
	text, truncated := truncate("short", 100)
	assert.Equal(t, "short", text)
	assert.False(t, truncated)

	text, truncated = truncate("0123456789abcdef", 8)
	assert.True(t, truncated)
	assert.Equal(t, "01234567\n[aidd] output truncated to 8 bytes.", text)
}
