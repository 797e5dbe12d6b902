package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const screenshotsDirName = "screenshots"

// Screenshots stores captured images under a per-date directory, with the
// session id as the file name prefix.
type Screenshots struct {
	baseDir string
}

// NewScreenshots roots the store at baseDir.
func NewScreenshots(baseDir string) *Screenshots {
	return &Screenshots{baseDir: filepath.Join(baseDir, screenshotsDirName)}
}

// SaveScreenshot writes data as a PNG tagged with sessionID.
func (shots *Screenshots) SaveScreenshot(sessionID string, takenAt time.Time, data []byte) error {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) {
		return fmt.Errorf("save screenshot: invalid session id %q", sessionID)
	}
	dir := filepath.Join(shots.baseDir, takenAt.Format(dateLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save screenshot: create directory: %w", err)
	}
	name := fmt.Sprintf("%s_%d.png", sessionID, takenAt.UnixMilli())
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("save screenshot: %w", err)
	}
	return nil
}

// ListForSession returns the screenshot paths of sessionID, oldest first.
func (shots *Screenshots) ListForSession(sessionID string) ([]string, error) {
	pattern := filepath.Join(shots.baseDir, "*", sessionID+"_*.png")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list screenshots: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// DeleteForSession removes every screenshot of sessionID.
func (shots *Screenshots) DeleteForSession(sessionID string) error {
	paths, err := shots.ListForSession(sessionID)
	if err != nil {
		return err
	}
	var errs []error
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("delete screenshots: %w", errors.Join(errs...))
	}
	return nil
}
