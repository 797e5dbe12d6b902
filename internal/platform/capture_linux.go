//go:build linux

package platform

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"worktrail/internal/core/capture"
)

// commandScreenSource runs a screenshot tool that writes PNG to stdout.
type commandScreenSource struct {
	name string
	args []string
}

func newScreenSource() capture.Source {
	wayland := strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland")
	candidates := []commandScreenSource{
		{name: "import", args: []string{"-window", "root", "png:-"}},
		{name: "grim", args: []string{"-t", "png", "-"}},
	}
	if wayland {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}
	for _, candidate := range candidates {
		path, err := exec.LookPath(candidate.name)
		if err != nil {
			continue
		}
		candidate.name = path
		return candidate
	}
	return unsupportedScreenSource{}
}

func (source commandScreenSource) Capture() ([]byte, error) {
	output, err := exec.Command(source.name, source.args...).Output()
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("screenshot: empty output")
	}
	return output, nil
}
