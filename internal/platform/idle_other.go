//go:build !linux && !darwin && !windows

package platform

import "worktrail/internal/core/idle"

func newIdleQuerier() idle.Querier {
	return nil
}
