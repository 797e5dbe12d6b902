//go:build linux

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func installLoginItem(appName, execPath string) error {
	entryPath, err := desktopEntryPath(appName)
	if err != nil {
		return fmt.Errorf("launch at login: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(entryPath), 0o755); err != nil {
		return fmt.Errorf("launch at login: create autostart dir: %w", err)
	}
	if err := os.WriteFile(entryPath, []byte(buildDesktopEntry(appName, execPath)), 0o644); err != nil {
		return fmt.Errorf("launch at login: write desktop entry: %w", err)
	}
	return nil
}

func removeLoginItem(appName string) error {
	entryPath, err := desktopEntryPath(appName)
	if err != nil {
		return fmt.Errorf("launch at login: %w", err)
	}
	if err := os.Remove(entryPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("launch at login: remove desktop entry: %w", err)
	}
	return nil
}

func loginItemInstalled(appName string) bool {
	entryPath, err := desktopEntryPath(appName)
	if err != nil {
		return false
	}
	_, err = os.Stat(entryPath)
	return err == nil
}

func desktopEntryPath(appName string) (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "autostart", slug(appName)+".desktop"), nil
}

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config")
}

func buildDesktopEntry(appName, execPath string) string {
	execLine := execPath
	if strings.Contains(execLine, " ") && !strings.HasPrefix(execLine, `"`) {
		execLine = `"` + execLine + `"`
	}

	return fmt.Sprintf(
		`[Desktop Entry]
Type=Application
Name=%s
Comment=Work session tracker
Exec=%s
Icon=appointment-soon
X-GNOME-Autostart-enabled=true
Terminal=false
`,
		appName,
		execLine,
	)
}
