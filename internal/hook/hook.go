// Package hook installs the prepare-commit-msg git hook that fills the
// commit message buffer with a generated draft.
package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// markerLine identifies hook scripts written by this tool. Uninstall only
// removes scripts that carry it, never a user's own hook.
const markerLine = "# installed by gitquill"

const hookName = "prepare-commit-msg"

// script receives the hook arguments: message file, commit source, sha.
// Sources like "merge" or "message" (-m) already have content, so the hook
// only runs for plain commits.
const script = `#!/bin/sh
` + markerLine + `

MSG_FILE="$1"
SOURCE="$2"

if [ -n "$SOURCE" ]; then
    exit 0
fi

gitquill commit --hook --message-file "$MSG_FILE" || exit 0
`

// Manager installs and removes the hook inside one repository.
type Manager struct {
	gitDir string
}

// NewManager creates a Manager for the repository whose .git directory is
// gitDir.
func NewManager(gitDir string) *Manager {
	return &Manager{gitDir: gitDir}
}

func (m *Manager) hookPath() string {
	return filepath.Join(m.gitDir, "hooks", hookName)
}

// Install writes the hook script. It refuses to overwrite an existing hook
// that was not written by this tool.
func (m *Manager) Install() error {
	path := m.hookPath()

	if existing, err := os.ReadFile(path); err == nil {
		if !strings.Contains(string(existing), markerLine) {
			return fmt.Errorf("a %s hook already exists at %s; remove it first", hookName, path)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to inspect existing hook: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		return fmt.Errorf("failed to write hook: %w", err)
	}
	return nil
}

// Uninstall removes the hook if it carries the marker line. A missing hook
// is not an error.
func (m *Manager) Uninstall() error {
	path := m.hookPath()

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read hook: %w", err)
	}
	if !strings.Contains(string(content), markerLine) {
		return fmt.Errorf("%s hook at %s was not installed by this tool; refusing to remove it", hookName, path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove hook: %w", err)
	}
	return nil
}

// IsInstalled reports whether the tool's hook is present.
func (m *Manager) IsInstalled() bool {
	content, err := os.ReadFile(m.hookPath())
	if err != nil {
		return false
	}
	return strings.Contains(string(content), markerLine)
}
