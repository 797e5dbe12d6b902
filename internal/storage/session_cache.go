package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"worktrail/internal/core/model"
)

const sessionCacheFileName = "session_cache.json"

// SessionCache persists the presentation layer's last known session state.
type SessionCache struct {
	path string
	mu   sync.Mutex
}

// NewSessionCache stores the snapshot under baseDir.
func NewSessionCache(baseDir string) *SessionCache {
	return &SessionCache{path: filepath.Join(baseDir, sessionCacheFileName)}
}

// Load returns the stored snapshot. A missing file reports ok=false.
func (cache *SessionCache) Load() (model.CacheSnapshot, bool, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	var snapshot model.CacheSnapshot
	data, err := os.ReadFile(cache.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snapshot, false, nil
		}
		return snapshot, false, fmt.Errorf("read session cache: %w", err)
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.CacheSnapshot{}, false, fmt.Errorf("parse session cache: %w", err)
	}
	return snapshot, true, nil
}

// Save replaces the stored snapshot.
func (cache *SessionCache) Save(snapshot model.CacheSnapshot) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session cache: %w", err)
	}
	if err := writeFileAtomic(cache.path, data); err != nil {
		return fmt.Errorf("write session cache: %w", err)
	}
	return nil
}
