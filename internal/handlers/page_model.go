package handlers

import (
	"html/template"
	"sync"

	"github.com/rs/zerolog"

	"github.com/belphemur/canteen-menu/internal/logging"
	"github.com/belphemur/canteen-menu/internal/menuapi"
	"github.com/belphemur/canteen-menu/internal/navigator"
	"github.com/belphemur/canteen-menu/internal/theme"
	"github.com/belphemur/canteen-menu/internal/viewer"
	"github.com/belphemur/canteen-menu/internal/viewhelpers"
)

// DefaultRescanLabel is the idle label of the rescan button
const DefaultRescanLabel = "🔄 Force Rescan"

// PageModel holds what the served page shows. The viewer controller writes to
// it; the home handler renders snapshots of it. The theme is per viewer and
// lives in ThemeView instead.
type PageModel struct {
	mu         sync.RWMutex
	panel      template.HTML
	loading    bool
	dateLabel  string
	buttons    navigator.Buttons
	rescan     string
	rescanBusy bool
	logger     zerolog.Logger
}

var (
	_ viewer.MenuPanel   = (*PageModel)(nil)
	_ viewer.DateLabel   = (*PageModel)(nil)
	_ viewer.NavControls = (*PageModel)(nil)
	_ viewer.BusyControl = (*PageModel)(nil)
	_ theme.Control      = (*ThemeView)(nil)
)

// NewPageModel creates an empty page: loading placeholder, inert navigation
func NewPageModel() *PageModel {
	return &PageModel{
		panel:   viewhelpers.RenderLoading("Loading..."),
		loading: true,
		buttons: navigator.ComputeButtons("", nil, ""),
		rescan:  DefaultRescanLabel,
		logger:  logging.GetLogger("page-model"),
	}
}

// Display returns the page as the controller's set of display targets
func (p *PageModel) Display() viewer.Display {
	return viewer.Display{Panel: p, Label: p, Nav: p, Rescan: p}
}

// ShowLoading implements viewer.MenuPanel
func (p *PageModel) ShowLoading(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.panel = viewhelpers.RenderLoading(text)
	p.loading = true
}

// ShowMenu implements viewer.MenuPanel
func (p *PageModel) ShowMenu(menu menuapi.Menu) {
	html, err := viewhelpers.RenderMenu(menu)
	if err != nil {
		p.logger.Error().Err(err).Str("date", menu.Date).Msg("Failed to render menu")
		p.ShowError(viewhelpers.ErrorPanel{Message: "Error loading menu: " + err.Error(), Action: viewhelpers.RetryAction})
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.panel = html
	p.loading = false
}

// ShowError implements viewer.MenuPanel
func (p *PageModel) ShowError(panel viewhelpers.ErrorPanel) {
	html, err := viewhelpers.RenderError(panel)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to render error panel")
		html = template.HTML(`<div class="error"><p>` + template.HTMLEscapeString(panel.Message) + `</p></div>`)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.panel = html
	p.loading = false
}

// SetDateLabel implements viewer.DateLabel
func (p *PageModel) SetDateLabel(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dateLabel = text
}

// SetButtons implements viewer.NavControls
func (p *PageModel) SetButtons(buttons navigator.Buttons) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buttons = buttons
}

// Label implements viewer.BusyControl
func (p *PageModel) Label() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rescan
}

// SetBusy implements viewer.BusyControl
func (p *PageModel) SetBusy(busy bool, label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rescanBusy = busy
	p.rescan = label
}

// ThemeView is the theme of one rendered page
type ThemeView struct {
	Active theme.Theme
	Style  theme.ButtonStyle
}

// SetTheme implements theme.Control
func (v *ThemeView) SetTheme(active theme.Theme, style theme.ButtonStyle) {
	v.Active = active
	v.Style = style
}

// PageView is a point-in-time copy of the page used by templates
type PageView struct {
	Panel       template.HTML
	Loading     bool
	DateLabel   string
	Buttons     navigator.Buttons
	RescanLabel string
	RescanBusy  bool
}

// AutoRefresh reports whether the page should reload itself to pick up pending work
func (v PageView) AutoRefresh() bool {
	return v.Loading || v.RescanBusy
}

// Snapshot returns the current page
func (p *PageModel) Snapshot() PageView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PageView{
		Panel:       p.panel,
		Loading:     p.loading,
		DateLabel:   p.dateLabel,
		Buttons:     p.buttons,
		RescanLabel: p.rescan,
		RescanBusy:  p.rescanBusy,
	}
}
