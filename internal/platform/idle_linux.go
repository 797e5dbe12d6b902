//go:build linux

package platform

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"worktrail/internal/core/idle"
)

type busIdleMethod struct {
	destination string
	path        dbus.ObjectPath
	method      string
}

var busIdleMethods = []busIdleMethod{
	{
		destination: "org.gnome.Mutter.IdleMonitor",
		path:        "/org/gnome/Mutter/IdleMonitor/Core",
		method:      "org.gnome.Mutter.IdleMonitor.GetIdletime",
	},
	{
		destination: "org.freedesktop.ScreenSaver",
		path:        "/org/freedesktop/ScreenSaver",
		method:      "org.freedesktop.ScreenSaver.GetSessionIdleTime",
	},
}

// busIdleQuerier asks the desktop session over D-Bus. Works on Wayland.
type busIdleQuerier struct {
	conn   *dbus.Conn
	method busIdleMethod
}

// xprintidleQuerier shells out to xprintidle on X11 sessions.
type xprintidleQuerier struct {
	path string
}

func newIdleQuerier() idle.Querier {
	querier, err := newBusIdleQuerier()
	if err == nil {
		return querier
	}
	log.Printf("idle: dbus unavailable: %v", err)

	path, err := exec.LookPath("xprintidle")
	if err != nil {
		return nil
	}
	if strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland") {
		return nil
	}
	return &xprintidleQuerier{path: path}
}

func newBusIdleQuerier() (*busIdleQuerier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	var errs []error
	for _, method := range busIdleMethods {
		querier := &busIdleQuerier{conn: conn, method: method}
		if _, err := querier.IdleDuration(); err != nil {
			errs = append(errs, err)
			continue
		}
		return querier, nil
	}
	conn.Close()
	return nil, errors.Join(errs...)
}

func (querier *busIdleQuerier) IdleDuration() (time.Duration, error) {
	call := querier.conn.Object(querier.method.destination, querier.method.path).Call(querier.method.method, 0)
	if call.Err != nil {
		if notSupported(call.Err) {
			return 0, idle.ErrUnsupported
		}
		return 0, fmt.Errorf("%s: %w", querier.method.method, call.Err)
	}
	if len(call.Body) != 1 {
		return 0, fmt.Errorf("%s: unexpected reply %v", querier.method.method, call.Body)
	}
	switch value := call.Body[0].(type) {
	case uint64:
		return time.Duration(value) * time.Millisecond, nil
	case uint32:
		return time.Duration(value) * time.Millisecond, nil
	default:
		return 0, fmt.Errorf("%s: unexpected reply type %T", querier.method.method, value)
	}
}

func (querier *busIdleQuerier) Close() error {
	return querier.conn.Close()
}

func (querier *xprintidleQuerier) IdleDuration() (time.Duration, error) {
	output, err := exec.Command(querier.path).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	idleMillis, err := strconv.ParseInt(strings.TrimSpace(string(output)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}

func notSupported(err error) bool {
	var busErr dbus.Error
	if errors.As(err, &busErr) {
		return strings.HasSuffix(busErr.Name, ".NotSupported")
	}
	var busErrPtr *dbus.Error
	if errors.As(err, &busErrPtr) {
		return strings.HasSuffix(busErrPtr.Name, ".NotSupported")
	}
	return false
}
