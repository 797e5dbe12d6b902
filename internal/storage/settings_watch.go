package storage

import (
	"fmt"
	"log"
	"path/filepath"

	"worktrail/internal/ui/preferences"

	"github.com/fsnotify/fsnotify"
)

// SettingsWatcher reloads the settings file when it changes on disk.
type SettingsWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchSettings calls onChange with freshly loaded settings every time
// configPath is written or replaced. The parent directory is watched so
// editors that rename over the file are seen too.
func WatchSettings(configPath string, onChange func(preferences.Settings)) (*SettingsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch settings: %w", err)
	}
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch settings: %w", err)
	}

	settingsWatcher := &SettingsWatcher{watcher: watcher, done: make(chan struct{})}
	go settingsWatcher.run(filepath.Clean(configPath), onChange)
	return settingsWatcher, nil
}

// Close stops watching and waits for the loop to exit.
func (settingsWatcher *SettingsWatcher) Close() error {
	err := settingsWatcher.watcher.Close()
	<-settingsWatcher.done
	return err
}

func (settingsWatcher *SettingsWatcher) run(configPath string, onChange func(preferences.Settings)) {
	defer close(settingsWatcher.done)
	for {
		select {
		case event, ok := <-settingsWatcher.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != configPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			settings, err := LoadSettingsFile(configPath)
			if err != nil {
				log.Printf("settings watch: %v", err)
				continue
			}
			onChange(settings)
		case err, ok := <-settingsWatcher.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("settings watch: %v", err)
		}
	}
}
