package platform

import "worktrail/internal/core/idle"

// NewIdleQuerier returns the native idle query for this system, or nil when
// none is available and activity tracking must be used instead. A returned
// querier may also implement io.Closer.
func NewIdleQuerier() idle.Querier {
	return newIdleQuerier()
}
