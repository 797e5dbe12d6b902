package platform

import (
	"fmt"
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleInstanceRejectsSecondHolder(t *testing.T) {
	dataDir := t.TempDir()
	activated := make(chan struct{}, 1)
	guard, err := AcquireSingleInstance("WorkTrail", dataDir, func() { activated <- struct{}{} })
	if err != nil {
		t.Skipf("port unavailable in this environment: %v", err)
	}

	_, err = AcquireSingleInstance("WorkTrail", dataDir, nil)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.NotEmpty(t, guard.Address())
	select {
	case <-activated:
	case <-time.After(2 * time.Second):
		t.Fatal("running instance was not asked to activate")
	}

	require.NoError(t, guard.Release())
	again, err := AcquireSingleInstance("WorkTrail", dataDir, nil)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestSingleInstanceAllowsOtherDataDir(t *testing.T) {
	first, err := AcquireSingleInstance("WorkTrail", t.TempDir(), nil)
	if err != nil {
		t.Skipf("port unavailable in this environment: %v", err)
	}
	defer first.Release()

	second, err := AcquireSingleInstance("WorkTrail", t.TempDir(), nil)
	require.NoError(t, err)
	defer second.Release()
	assert.NotEqual(t, first.Address(), second.Address())
}

func TestSingleInstanceSkipsForeignListener(t *testing.T) {
	dataDir := t.TempDir()
	base := instancePort(instanceToken("WorkTrail", dataDir))
	foreign, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", base))
	if err != nil {
		t.Skipf("port unavailable in this environment: %v", err)
	}
	defer foreign.Close()

	guard, err := AcquireSingleInstance("WorkTrail", dataDir, nil)
	require.NoError(t, err)
	defer guard.Release()
	assert.Equal(t, fmt.Sprintf("127.0.0.1:%d", probePort(base, 1)), guard.Address())
}

func TestInstancePortStaysInRange(t *testing.T) {
	for _, token := range []string{"", instanceToken("WorkTrail", "/tmp/a"), "another app"} {
		port := instancePort(token)
		assert.GreaterOrEqual(t, port, minInstancePort)
		assert.LessOrEqual(t, port, maxInstancePort)
		assert.Equal(t, port, instancePort(token))
	}
	assert.Equal(t, minInstancePort, probePort(maxInstancePort, 1))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "worktrail", slug("  "))
	assert.Equal(t, "work-trail", slug("Work Trail"))
}

func TestLaunchAtLoginRoundTrip(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("writes to the user registry")
	}
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	service := NewService()
	dir, err := service.DataDir("WorkTrailTest")
	require.NoError(t, err)
	assert.DirExists(t, dir)

	if err := service.SetLaunchAtLogin("WorkTrailTest", "/usr/local/bin/worktrail", true); err != nil {
		t.Skipf("launch at login unavailable: %v", err)
	}
	assert.True(t, service.LaunchAtLoginEnabled("WorkTrailTest"))
	require.NoError(t, service.SetLaunchAtLogin("WorkTrailTest", "", false))
	assert.False(t, service.LaunchAtLoginEnabled("WorkTrailTest"))
	require.NoError(t, service.SetLaunchAtLogin("WorkTrailTest", "", false))
}
