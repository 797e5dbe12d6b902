//go:build !linux && !darwin && !windows

package platform

import (
	"errors"
	"path/filepath"
)

var errLoginItemUnsupported = errors.New("launch at login unsupported on this platform")

func installLoginItem(appName, execPath string) error { return errLoginItemUnsupported }

func removeLoginItem(appName string) error { return nil }

func loginItemInstalled(appName string) bool { return false }

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config")
}
