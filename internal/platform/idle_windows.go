//go:build windows

package platform

import (
	"fmt"
	"syscall"
	"time"
	"unsafe"

	"worktrail/internal/core/idle"
)

var (
	procGetLastInputInfo = syscall.NewLazyDLL("user32.dll").NewProc("GetLastInputInfo")
	procGetTickCount64   = syscall.NewLazyDLL("kernel32.dll").NewProc("GetTickCount64")
)

type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

type lastInputQuerier struct{}

func newIdleQuerier() idle.Querier {
	if procGetLastInputInfo.Find() != nil || procGetTickCount64.Find() != nil {
		return nil
	}
	return lastInputQuerier{}
}

func (lastInputQuerier) IdleDuration() (time.Duration, error) {
	info := lastInputInfo{cbSize: uint32(unsafe.Sizeof(lastInputInfo{}))}
	result, _, err := procGetLastInputInfo.Call(uintptr(unsafe.Pointer(&info)))
	if result == 0 {
		return 0, fmt.Errorf("get last input info: %w", err)
	}

	ticks, _, _ := procGetTickCount64.Call()
	// dwTime wraps every ~49.7 days; compare in 32 bits.
	idleMillis := uint32(uint64(ticks)) - info.dwTime
	return time.Duration(idleMillis) * time.Millisecond, nil
}
