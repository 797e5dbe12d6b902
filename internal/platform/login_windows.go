//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

const registryRunKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

func installLoginItem(appName, execPath string) error {
	output, err := exec.Command(
		"reg", "add", registryRunKey,
		"/v", appName,
		"/t", "REG_SZ",
		"/d", quoteWindowsPath(execPath),
		"/f",
	).CombinedOutput()
	if err != nil {
		return fmt.Errorf("launch at login: reg add: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func removeLoginItem(appName string) error {
	if !loginItemInstalled(appName) {
		return nil
	}
	output, err := exec.Command("reg", "delete", registryRunKey, "/v", appName, "/f").CombinedOutput()
	if err != nil {
		return fmt.Errorf("launch at login: reg delete: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func loginItemInstalled(appName string) bool {
	return exec.Command("reg", "query", registryRunKey, "/v", appName).Run() == nil
}

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, "AppData", "Roaming")
}

func quoteWindowsPath(execPath string) string {
	return `"` + strings.Trim(execPath, `"`) + `"`
}
