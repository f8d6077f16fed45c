package ideprofiles

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Override is a partial profile loaded from a YAML override file. Nil
// fields leave the built-in value untouched.
type Override struct {
	SkillsDirs     []string          `yaml:"skills_dirs"`
	TimeoutSec     *int              `yaml:"timeout_sec"`
	MaxStdoutBytes *int              `yaml:"max_stdout_bytes"`
	MaxStderrBytes *int              `yaml:"max_stderr_bytes"`
	PermissionMode *string           `yaml:"permission_mode"`
	EnvOverrides   map[string]string `yaml:"env_overrides"`
}

// LoadOverrides reads a YAML override file mapping profile names to
// partial profiles. A missing file yields an empty map.
func LoadOverrides(path string) (map[string]Override, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Override{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile overrides %s: %w", path, err)
	}

	overrides := map[string]Override{}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parsing profile overrides %s: %w", path, err)
	}
	return overrides, nil
}

// ApplyOverrides merges the overrides into the profile table. Unknown
// profile names and non-positive limits are rejected before anything is
// changed.
func ApplyOverrides(overrides map[string]Override) error {
	for name, override := range overrides {
		normalized := NormalizeName(name)
		if _, ok := profiles[normalized]; !ok {
			return fmt.Errorf("unknown profile %q in overrides. Supported: %s",
				name, strings.Join(Supported(), ", "))
		}
		if err := validateOverride(name, override); err != nil {
			return err
		}
	}

	for name, override := range overrides {
		normalized := NormalizeName(name)
		p := profiles[normalized]
		if len(override.SkillsDirs) > 0 {
			p.SkillsDirs = append([]string(nil), override.SkillsDirs...)
		}
		if override.TimeoutSec != nil {
			p.TimeoutSec = *override.TimeoutSec
		}
		if override.MaxStdoutBytes != nil {
			p.MaxStdoutBytes = *override.MaxStdoutBytes
		}
		if override.MaxStderrBytes != nil {
			p.MaxStderrBytes = *override.MaxStderrBytes
		}
		if override.PermissionMode != nil {
			p.PermissionMode = *override.PermissionMode
		}
		if len(override.EnvOverrides) > 0 {
			p.EnvOverrides = cloneEnv(p.EnvOverrides)
			for key, value := range override.EnvOverrides {
				p.EnvOverrides[key] = value
			}
		}
		profiles[normalized] = p
	}
	return nil
}

// ResetOverrides restores the built-in profile table. Intended for tests.
func ResetOverrides() {
	profiles = builtinProfiles()
}

func validateOverride(name string, override Override) error {
	if override.TimeoutSec != nil && *override.TimeoutSec <= 0 {
		return fmt.Errorf("profile %q: timeout_sec must be positive", name)
	}
	if override.MaxStdoutBytes != nil && *override.MaxStdoutBytes <= 0 {
		return fmt.Errorf("profile %q: max_stdout_bytes must be positive", name)
	}
	if override.MaxStderrBytes != nil && *override.MaxStderrBytes <= 0 {
		return fmt.Errorf("profile %q: max_stderr_bytes must be positive", name)
	}
	return nil
}

func cloneEnv(env map[string]string) map[string]string {
	cloned := make(map[string]string, len(env))
	for key, value := range env {
		cloned[key] = value
	}
	return cloned
}
