package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Service defines the OS integration the tracker needs.
type Service interface {
	// DataDir returns (and creates) the per-user directory for appName.
	DataDir(appName string) (string, error)
	SetLaunchAtLogin(appName, execPath string, enabled bool) error
	LaunchAtLoginEnabled(appName string) bool
}

type platformService struct{}

// NewService returns a platform-specific implementation.
func NewService() Service {
	return &platformService{}
}

func (service *platformService) DataDir(appName string) (string, error) {
	if strings.TrimSpace(appName) == "" {
		return "", fmt.Errorf("data dir: app name is empty")
	}
	root, err := configRoot()
	if err != nil {
		return "", fmt.Errorf("data dir: %w", err)
	}
	dir := filepath.Join(root, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("data dir: create %s: %w", dir, err)
	}
	return dir, nil
}

func (service *platformService) SetLaunchAtLogin(appName, execPath string, enabled bool) error {
	if appName == "" {
		return fmt.Errorf("launch at login: app name is empty")
	}
	if !enabled {
		return removeLoginItem(appName)
	}
	if execPath == "" {
		return fmt.Errorf("launch at login: exec path is empty")
	}
	return installLoginItem(appName, execPath)
}

func (service *platformService) LaunchAtLoginEnabled(appName string) bool {
	if appName == "" {
		return false
	}
	return loginItemInstalled(appName)
}

// configRoot resolves the OS-standard configuration directory.
func configRoot() (string, error) {
	configDir, err := os.UserConfigDir()
	if err == nil && configDir != "" {
		return configDir, nil
	}

	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", err
		}
		return "", homeErr
	}
	return fallbackConfigDir(homeDir), nil
}

func slug(appName string) string {
	name := strings.ToLower(strings.TrimSpace(appName))
	if name == "" {
		name = "worktrail"
	}
	return strings.ReplaceAll(name, " ", "-")
}
