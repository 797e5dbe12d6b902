//go:build darwin

package platform

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"worktrail/internal/core/capture"
)

type screencaptureSource struct {
	path string
}

func newScreenSource() capture.Source {
	path, err := exec.LookPath("screencapture")
	if err != nil {
		return unsupportedScreenSource{}
	}
	return screencaptureSource{path: path}
}

func (source screencaptureSource) Capture() ([]byte, error) {
	dir, err := os.MkdirTemp("", "worktrail-shot-")
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	defer os.RemoveAll(dir)

	target := filepath.Join(dir, "shot.png")
	if output, err := exec.Command(source.path, "-x", "-t", "png", target).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("screencapture: %w: %s", err, output)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		// screencapture exits cleanly without writing when screen recording
		// permission is missing.
		return nil, capture.ErrUnsupported
	}
	return data, nil
}
