package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"worktrail/internal/ui/preferences"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	AutoRestEnabled        *bool `yaml:"auto_rest_enabled"`
	IdleThresholdMinutes   int   `yaml:"idle_threshold_minutes"`
	CaptureEnabled         *bool `yaml:"capture_enabled"`
	CaptureIntervalMinutes int   `yaml:"capture_interval_minutes"`
	LaunchAtLogin          bool  `yaml:"launch_at_login"`
}

// LoadSettingsFile reads user preferences from configPath.
// If the file does not exist, default settings are returned.
func LoadSettingsFile(configPath string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()
	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettingsFile writes user preferences to configPath.
func SaveSettingsFile(configPath string, settings preferences.Settings) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	autoRest := settings.AutoRestEnabled
	capture := settings.CaptureEnabled
	fileData := yamlSettings{
		AutoRestEnabled:        &autoRest,
		IdleThresholdMinutes:   int(settings.IdleThreshold / time.Minute),
		CaptureEnabled:         &capture,
		CaptureIntervalMinutes: int(settings.CaptureInterval / time.Minute),
		LaunchAtLogin:          settings.LaunchAtLogin,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := writeFileAtomic(configPath, serialized); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// SettingsFile returns the settings file location inside dataDir.
func SettingsFile(dataDir string) string {
	return filepath.Join(dataDir, settingsFileName)
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if fileData.AutoRestEnabled != nil {
		settings.AutoRestEnabled = *fileData.AutoRestEnabled
	}
	if fileData.IdleThresholdMinutes > 0 {
		settings.IdleThreshold = time.Duration(fileData.IdleThresholdMinutes) * time.Minute
	}
	if fileData.CaptureEnabled != nil {
		settings.CaptureEnabled = *fileData.CaptureEnabled
	}
	if fileData.CaptureIntervalMinutes > 0 {
		settings.CaptureInterval = time.Duration(fileData.CaptureIntervalMinutes) * time.Minute
	}
	settings.LaunchAtLogin = fileData.LaunchAtLogin
}
