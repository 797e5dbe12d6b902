package platform

import "worktrail/internal/core/capture"

// NewScreenSource returns the screenshot command available on this system.
// Capture reports capture.ErrUnsupported when there is none.
func NewScreenSource() capture.Source {
	return newScreenSource()
}

type unsupportedScreenSource struct{}

func (unsupportedScreenSource) Capture() ([]byte, error) {
	return nil, capture.ErrUnsupported
}
