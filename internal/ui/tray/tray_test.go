package tray

import (
	"testing"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDesktop struct {
	menus []*fyne.Menu
}

func (desk *fakeDesktop) SetSystemTrayMenu(menu *fyne.Menu) {
	desk.menus = append(desk.menus, menu)
}

func (desk *fakeDesktop) SetSystemTrayIcon(fyne.Resource) {}

func (desk *fakeDesktop) SetSystemTrayWindow(fyne.Window) {}

func (desk *fakeDesktop) last() *fyne.Menu {
	return desk.menus[len(desk.menus)-1]
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Not working", Status{}.Label())
	assert.Equal(t, "Working · Report (00:10:00)", Status{Running: true, Title: "Report", Elapsed: "00:10:00"}.Label())
	assert.Equal(t, "Paused · Report (00:10:00)", Status{Running: true, Paused: true, Title: "Report", Elapsed: "00:10:00"}.Label())
	assert.Equal(t, "Resting · Report (00:10:00)", Status{Running: true, Paused: true, Resting: true, Title: "Report", Elapsed: "00:10:00"}.Label())
}

func TestMenuFollowsStatus(t *testing.T) {
	desk := &fakeDesktop{}
	started := 0
	manager := New(desk, Callbacks{OnStartStop: func() { started++ }})

	menu := desk.last()
	assert.Equal(t, "WorkTrail", menu.Label)
	assert.Equal(t, "Start work", manager.startItem.Label)
	assert.True(t, manager.pauseItem.Disabled)

	manager.startItem.Action()
	assert.Equal(t, 1, started)

	manager.SetStatus(Status{Running: true, Paused: true, Title: "Report", Elapsed: "00:01:00"})
	assert.Equal(t, "Stop work", manager.startItem.Label)
	assert.Equal(t, "Resume", manager.pauseItem.Label)
	assert.False(t, manager.pauseItem.Disabled)
	assert.True(t, manager.activityItem.Disabled)

	manager.SetStatus(Status{Running: true, Paused: true, Resting: true, Title: "Report"})
	assert.Equal(t, "Pause", manager.pauseItem.Label)
	assert.True(t, manager.pauseItem.Disabled)
	assert.False(t, manager.activityItem.Disabled)
	assert.Len(t, desk.menus, 3)

	manager.activityItem.Action()
}

func TestClosedManagerLeavesTrayAlone(t *testing.T) {
	desk := &fakeDesktop{}
	manager := New(desk, Callbacks{})
	require.NoError(t, manager.Close())

	manager.SetStatus(Status{Running: true, Title: "Report"})
	assert.Len(t, desk.menus, 1)
	assert.Equal(t, Status{}, manager.Status())
}
