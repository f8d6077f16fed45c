// Package ideprofiles describes the IDE hosts the plugin can run under and
// how stage commands addressed to each host are recognized and resourced.
package ideprofiles

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Profile captures the per-host execution contract: how commands are
// prefixed, where skills are installed, and subprocess resource limits.
type Profile struct {
	Name              string
	CommandLeaders    []string
	CommandNamespaces []string
	SkillsDirs        []string
	TimeoutSec        int
	MaxStdoutBytes    int
	MaxStderrBytes    int
	PermissionMode    string
	EnvOverrides      map[string]string
}

// DefaultProfile is used when no host can be detected.
const DefaultProfile = "kimi"

// Environment variables consulted during profile and skills-dir resolution.
const (
	EnvProfile    = "AIDD_IDE_PROFILE"
	EnvHost       = "AIDD_HOST"
	EnvSkillsDirs = "AIDD_SKILLS_DIRS"
)

func builtinProfiles() map[string]Profile {
	return map[string]Profile{
		"kimi": {
			Name:              "kimi",
			CommandLeaders:    []string{"/"},
			CommandNamespaces: []string{"skill", "flow", "feature-dev-aidd", "aidd"},
			SkillsDirs:        []string{"~/.config/agents/skills"},
			TimeoutSec:        180,
			MaxStdoutBytes:    50_000,
			MaxStderrBytes:    20_000,
			PermissionMode:    "default",
			EnvOverrides:      map[string]string{EnvHost: "kimi"},
		},
		"codex": {
			Name:              "codex",
			CommandLeaders:    []string{"$", "/"},
			CommandNamespaces: []string{"aidd", "skill", "flow", "feature-dev-aidd"},
			SkillsDirs:        []string{"~/.codex/skills"},
			TimeoutSec:        180,
			MaxStdoutBytes:    50_000,
			MaxStderrBytes:    20_000,
			PermissionMode:    "default",
			EnvOverrides:      map[string]string{EnvHost: "codex"},
		},
		"cursor": {
			Name:              "cursor",
			CommandLeaders:    []string{"/"},
			CommandNamespaces: []string{"aidd", "skill", "flow", "feature-dev-aidd"},
			SkillsDirs:        []string{"~/.cursor/skills"},
			TimeoutSec:        180,
			MaxStdoutBytes:    50_000,
			MaxStderrBytes:    20_000,
			PermissionMode:    "default",
			EnvOverrides:      map[string]string{EnvHost: "cursor"},
		},
	}
}

// profiles is the active table; overrides replace entries wholesale.
var profiles = builtinProfiles()

// NormalizeName canonicalizes a profile name for lookup.
func NormalizeName(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "_", "-")
}

// Supported returns the known profile names in sorted order.
func Supported() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up a profile by name. An empty name falls back to the
// AIDD_IDE_PROFILE environment variable, then to the default profile.
func Resolve(name string) (Profile, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		normalized = NormalizeName(os.Getenv(EnvProfile))
	}
	if normalized == "" {
		normalized = DefaultProfile
	}
	resolved, ok := profiles[normalized]
	if !ok {
		return Profile{}, fmt.Errorf("unsupported ide profile %q. Supported: %s",
			normalized, strings.Join(Supported(), ", "))
	}
	return resolved, nil
}

// Select picks the profile for a command. Precedence: explicit name, the
// command's own leader syntax, environment (AIDD_IDE_PROFILE then
// AIDD_HOST), a single detected skills installation, then the default.
// A nil env means the process environment.
func Select(command, explicit string, env map[string]string) (Profile, error) {
	if explicit != "" {
		return Resolve(explicit)
	}
	envMap := environ(env)
	if p, ok := profileFromCommand(command); ok {
		return p, nil
	}
	if p, ok := profileFromEnv(envMap); ok {
		return p, nil
	}
	if detected := detectInstalled(); len(detected) == 1 {
		return detected[0], nil
	}
	return profiles[DefaultProfile], nil
}

// StripHostPrefix removes the leader character and a recognized namespace
// from a raw command, leaving the bare stage command. Unrecognized
// prefixes are preserved.
func StripHostPrefix(command string, p Profile) string {
	raw := strings.TrimSpace(command)
	if raw == "" {
		return ""
	}

	stripped := raw
	for _, leader := range p.CommandLeaders {
		if strings.HasPrefix(stripped, leader) {
			stripped = strings.TrimSpace(stripped[len(leader):])
			break
		}
	}

	if prefix, suffix, found := strings.Cut(stripped, ":"); found {
		if containsNamespace(p.CommandNamespaces, prefix) {
			return strings.TrimSpace(suffix)
		}
	}
	parts := strings.Fields(stripped)
	if len(parts) >= 2 && containsNamespace(p.CommandNamespaces, parts[0]) {
		return strings.TrimSpace(strings.Join(parts[1:], " "))
	}
	return stripped
}

// DiscoverSkillsDirs resolves the skills directories for a profile. An
// AIDD_SKILLS_DIRS entry in env overrides the profile's defaults. Unless
// includeMissing is set, directories that do not exist are dropped.
func DiscoverSkillsDirs(p Profile, env map[string]string, includeMissing bool) []string {
	envMap := environ(env)
	if overridden := ParseSkillsDirs(envMap[EnvSkillsDirs]); len(overridden) > 0 {
		return filterDirs(overridden, includeMissing)
	}
	return filterDirs(expandedSkillsDirs(p), includeMissing)
}

// ParseSkillsDirs splits an AIDD_SKILLS_DIRS value into expanded,
// deduplicated paths.
func ParseSkillsDirs(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var paths []string
	for _, part := range strings.Split(raw, string(os.PathListSeparator)) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		paths = append(paths, expandUser(part))
	}
	return dedupe(paths)
}

// FormatSkillsDirs joins paths with the platform list separator, the
// inverse of ParseSkillsDirs.
func FormatSkillsDirs(paths []string) string {
	return strings.Join(paths, string(os.PathListSeparator))
}

func profileFromCommand(command string) (Profile, bool) {
	text := strings.TrimLeft(command, " \t")
	if strings.HasPrefix(text, "$") {
		return profiles["codex"], true
	}
	return Profile{}, false
}

func profileFromEnv(env map[string]string) (Profile, bool) {
	if p, ok := profiles[NormalizeName(env[EnvProfile])]; ok {
		return p, true
	}
	if p, ok := profiles[NormalizeName(env[EnvHost])]; ok {
		return p, true
	}
	return Profile{}, false
}

// detectInstalled probes each profile's default skills locations; the
// AIDD_SKILLS_DIRS override is deliberately not consulted here since it
// does not identify a host.
func detectInstalled() []Profile {
	var detected []Profile
	for _, name := range Supported() {
		p := profiles[name]
		if hasInstalledSkills(p) {
			detected = append(detected, p)
		}
	}
	return detected
}

func hasInstalledSkills(p Profile) bool {
	for _, dir := range filterDirs(expandedSkillsDirs(p), false) {
		if skillsDirHasInstallation(dir) {
			return true
		}
	}
	return false
}

func skillsDirHasInstallation(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	if fileExists(filepath.Join(dir, "aidd-core", "SKILL.md")) {
		return true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() && fileExists(filepath.Join(dir, entry.Name(), "SKILL.md")) {
			return true
		}
	}
	return false
}

func expandedSkillsDirs(p Profile) []string {
	expanded := make([]string, 0, len(p.SkillsDirs))
	for _, dir := range p.SkillsDirs {
		expanded = append(expanded, expandUser(dir))
	}
	return expanded
}

func filterDirs(paths []string, includeMissing bool) []string {
	deduped := dedupe(paths)
	if includeMissing {
		return deduped
	}
	var existing []string
	for _, path := range deduped {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			existing = append(existing, path)
		}
	}
	return existing
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	var result []string
	for _, path := range paths {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		result = append(result, path)
	}
	return result
}

func containsNamespace(namespaces []string, candidate string) bool {
	normalized := NormalizeName(candidate)
	for _, ns := range namespaces {
		if ns == normalized {
			return true
		}
	}
	return false
}

func expandUser(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func environ(env map[string]string) map[string]string {
	if env != nil {
		return env
	}
	result := make(map[string]string)
	for _, kv := range os.Environ() {
		if key, value, found := strings.Cut(kv, "="); found {
			result[key] = value
		}
	}
	return result
}
