//go:build !linux && !darwin

package platform

import "worktrail/internal/core/capture"

func newScreenSource() capture.Source {
	return unsupportedScreenSource{}
}
