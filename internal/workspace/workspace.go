// Package workspace resolves the directories the plugin operates on: the
// plugin installation root, the workspace a stage command runs in, and the
// workflow directory holding the project's aidd artifacts.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ProjectSubdir is the workflow directory created inside a workspace.
const ProjectSubdir = "aidd"

// Environment variables consumed during resolution.
const (
	EnvRoot                 = "AIDD_ROOT"
	EnvAllowPluginWorkspace = "AIDD_ALLOW_PLUGIN_WORKSPACE"
)

// pluginMarker identifies the plugin repository itself.
const pluginMarker = ".aidd-plugin"

// workspaceMarkers bound the upward search for an existing workflow dir.
var workspaceMarkers = []string{".git", pluginMarker, "pyproject.toml", "go.mod"}

// ActiveState mirrors docs/.active.json inside the workflow directory.
type ActiveState struct {
	Ticket             string `json:"ticket,omitempty"`
	SlugHint           string `json:"slug_hint,omitempty"`
	Stage              string `json:"stage,omitempty"`
	WorkItem           string `json:"work_item,omitempty"`
	LastReviewReportID string `json:"last_review_report_id,omitempty"`
	UpdatedAt          string `json:"updated_at,omitempty"`
}

// activeStateFile is relative to the workflow (project) root.
var activeStateFile = filepath.Join("docs", ".active.json")

// PluginRoot returns the plugin installation root from AIDD_ROOT.
func PluginRoot() (string, error) {
	raw := strings.TrimSpace(os.Getenv(EnvRoot))
	if raw == "" {
		return "", errors.New("AIDD_ROOT is required to run AIDD tools")
	}
	abs, err := filepath.Abs(expandUser(raw))
	if err != nil {
		return "", fmt.Errorf("resolving AIDD_ROOT: %w", err)
	}
	return abs, nil
}

// ResolveRoots resolves (workspaceRoot, projectRoot) for any path inside a
// workspace:
//   - a target inside an existing aidd/ directory uses that directory as
//     the workflow root;
//   - a target that is the workflow root itself has its parent as the
//     workspace;
//   - otherwise the target is the workspace root and the workflow lives at
//     <target>/aidd.
//
// The upward search stops at the first directory carrying a workspace
// marker.
func ResolveRoots(target string) (string, string, error) {
	abs, err := absTarget(target)
	if err != nil {
		return "", "", err
	}

	boundary := findWorkspaceBoundary(abs)
	for dir := abs; ; dir = filepath.Dir(dir) {
		if filepath.Base(dir) == ProjectSubdir {
			workspace := filepath.Dir(dir)
			if err := guardPluginWorkspace(workspace); err != nil {
				return "", "", err
			}
			return workspace, dir, nil
		}
		candidate := filepath.Join(dir, ProjectSubdir)
		if isDir(candidate) {
			if err := guardPluginWorkspace(dir); err != nil {
				return "", "", err
			}
			return dir, candidate, nil
		}
		if dir == boundary || filepath.Dir(dir) == dir {
			break
		}
	}

	if err := guardPluginWorkspace(abs); err != nil {
		return "", "", err
	}
	return abs, filepath.Join(abs, ProjectSubdir), nil
}

// RequireWorkflowRoot resolves roots and demands an initialized workflow
// (an existing aidd/docs directory).
func RequireWorkflowRoot(target string) (string, string, error) {
	workspaceRoot, projectRoot, err := ResolveRoots(target)
	if err != nil {
		return "", "", err
	}
	if !isDir(projectRoot) {
		return "", "", fmt.Errorf(
			"workflow not found at %s; run aidd-init from the workspace root (templates install into ./%s)",
			projectRoot, ProjectSubdir)
	}
	if !isDir(filepath.Join(projectRoot, "docs")) {
		return "", "", fmt.Errorf(
			"workflow files not found at %s; bootstrap via aidd-init from the workspace root",
			filepath.Join(projectRoot, "docs"))
	}
	return workspaceRoot, projectRoot, nil
}

// ReadActiveState loads docs/.active.json from the workflow root. A
// missing file yields the zero state; malformed JSON is an error.
func ReadActiveState(projectRoot string) (ActiveState, error) {
	raw, err := os.ReadFile(filepath.Join(projectRoot, activeStateFile))
	if errors.Is(err, os.ErrNotExist) {
		return ActiveState{}, nil
	}
	if err != nil {
		return ActiveState{}, fmt.Errorf("reading active state: %w", err)
	}
	var state ActiveState
	if err := json.Unmarshal(raw, &state); err != nil {
		return ActiveState{}, fmt.Errorf("failed to parse %s: %w", activeStateFile, err)
	}
	return state, nil
}

// ActiveTicket returns the active ticket, falling back to the slug hint.
func ActiveTicket(projectRoot string) (string, error) {
	state, err := ReadActiveState(projectRoot)
	if err != nil {
		return "", err
	}
	if ticket := strings.TrimSpace(state.Ticket); ticket != "" {
		return ticket, nil
	}
	return strings.TrimSpace(state.SlugHint), nil
}

// guardPluginWorkspace refuses to treat the plugin repository itself as a
// workspace for runtime artifacts. AIDD_ALLOW_PLUGIN_WORKSPACE=1 escapes
// the guard for plugin development.
func guardPluginWorkspace(workspaceRoot string) error {
	if strings.TrimSpace(os.Getenv(EnvAllowPluginWorkspace)) == "1" {
		return nil
	}
	raw := strings.TrimSpace(os.Getenv(EnvRoot))
	if raw == "" {
		return nil
	}
	pluginRoot, err := filepath.Abs(expandUser(raw))
	if err != nil {
		return nil
	}
	if workspaceRoot != pluginRoot {
		return nil
	}
	if !pathExists(filepath.Join(pluginRoot, pluginMarker)) {
		return nil
	}
	return errors.New(
		"refusing to use plugin repository as workspace root for runtime artifacts; " +
			"run commands from the project workspace root")
}

func findWorkspaceBoundary(target string) string {
	for dir := target; ; dir = filepath.Dir(dir) {
		for _, marker := range workspaceMarkers {
			if pathExists(filepath.Join(dir, marker)) {
				return dir
			}
		}
		if filepath.Dir(dir) == dir {
			return ""
		}
	}
}

func absTarget(target string) (string, error) {
	if target == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}
		return cwd, nil
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolving target %s: %w", target, err)
	}
	return abs, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func expandUser(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}
