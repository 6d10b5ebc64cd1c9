package viewer

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/belphemur/canteen-menu/internal/menuapi"
	"github.com/belphemur/canteen-menu/internal/navigator"
	"github.com/belphemur/canteen-menu/internal/viewhelpers"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Dates(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	dates, _ := args.Get(0).([]string)
	return dates, args.Error(1)
}

func (m *mockSource) Menu(ctx context.Context, date string) (menuapi.Menu, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(menuapi.Menu), args.Error(1)
}

func (m *mockSource) CheckNow(ctx context.Context, force bool) (menuapi.CheckResult, error) {
	args := m.Called(ctx, force)
	return args.Get(0).(menuapi.CheckResult), args.Error(1)
}

type mockChecker struct {
	mock.Mock
}

func (m *mockChecker) Check(ctx context.Context, menu menuapi.Menu) error {
	return m.Called(ctx, menu).Error(0)
}

// fakeDisplay records everything the controller shows
type fakeDisplay struct {
	mu        sync.Mutex
	panel     string
	loading   string
	menu      *menuapi.Menu
	errPanel  *viewhelpers.ErrorPanel
	label     string
	buttons   navigator.Buttons
	navCalls  int
	busy      bool
	busyLabel string
	busyLog   []bool
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{busyLabel: "🔄 Force Rescan"}
}

func (d *fakeDisplay) targets() Display {
	return Display{Panel: d, Label: d, Nav: d, Rescan: d}
}

func (d *fakeDisplay) ShowLoading(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.panel, d.loading, d.menu, d.errPanel = "loading", text, nil, nil
}

func (d *fakeDisplay) ShowMenu(menu menuapi.Menu) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.panel, d.menu, d.errPanel = "menu", &menu, nil
}

func (d *fakeDisplay) ShowError(panel viewhelpers.ErrorPanel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.panel, d.menu, d.errPanel = "error", nil, &panel
}

func (d *fakeDisplay) SetDateLabel(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.label = text
}

func (d *fakeDisplay) SetButtons(buttons navigator.Buttons) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buttons = buttons
	d.navCalls++
}

func (d *fakeDisplay) Label() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busyLabel
}

func (d *fakeDisplay) SetBusy(busy bool, label string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.busy, d.busyLabel = busy, label
	d.busyLog = append(d.busyLog, busy)
}

func (d *fakeDisplay) snapshot() fakeDisplay {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fakeDisplay{
		panel:     d.panel,
		loading:   d.loading,
		menu:      d.menu,
		errPanel:  d.errPanel,
		label:     d.label,
		buttons:   d.buttons,
		navCalls:  d.navCalls,
		busy:      d.busy,
		busyLabel: d.busyLabel,
		busyLog:   append([]bool(nil), d.busyLog...),
	}
}
