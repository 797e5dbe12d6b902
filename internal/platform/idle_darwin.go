//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"worktrail/internal/core/idle"
)

var hidIdlePattern = regexp.MustCompile(`"HIDIdleTime"\s*=\s*(\d+)`)

// ioregQuerier reads HIDIdleTime (nanoseconds) from the IOHIDSystem entry.
type ioregQuerier struct {
	path string
}

func newIdleQuerier() idle.Querier {
	path, err := exec.LookPath("ioreg")
	if err != nil {
		return nil
	}
	return &ioregQuerier{path: path}
}

func (querier *ioregQuerier) IdleDuration() (time.Duration, error) {
	output, err := exec.Command(querier.path, "-c", "IOHIDSystem", "-d", "4").Output()
	if err != nil {
		return 0, fmt.Errorf("ioreg: %w", err)
	}
	return parseHIDIdleTime(output)
}

func parseHIDIdleTime(output []byte) (time.Duration, error) {
	match := hidIdlePattern.FindSubmatch(output)
	if match == nil {
		return 0, idle.ErrUnsupported
	}
	nanos, err := strconv.ParseInt(string(match[1]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse HIDIdleTime: %w", err)
	}
	return time.Duration(nanos), nil
}
