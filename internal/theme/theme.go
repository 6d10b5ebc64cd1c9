// Package theme keeps the light/dark preference and the style of the toggle control.
package theme

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/belphemur/canteen-menu/internal/constants"
	"github.com/belphemur/canteen-menu/internal/logging"
	"github.com/belphemur/canteen-menu/internal/signals"
)

// Theme is the page color scheme
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Parse returns the theme named by s; ok is false for anything else
func Parse(s string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	}
	return "", false
}

// Toggle returns the opposite theme
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// ButtonStyle describes the toggle control. It advertises the theme a click switches to.
type ButtonStyle struct {
	Label      string
	Background string
	Foreground string
}

// StyleFor returns the toggle style while t is active
func StyleFor(t Theme) ButtonStyle {
	if t == Dark {
		return ButtonStyle{Label: "☀️ Light Mode", Background: "#f1c40f", Foreground: "#333"}
	}
	return ButtonStyle{Label: "🌙 Dark Mode", Background: "#34495e", Foreground: "white"}
}

// Store persists the chosen theme
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Control is the UI element showing the toggle for one rendered page
type Control interface {
	SetTheme(active Theme, style ButtonStyle)
}

// Manager resolves and toggles the theme
type Manager struct {
	store  Store
	logger zerolog.Logger
}

// NewManager creates a theme manager
func NewManager(store Store) *Manager {
	return &Manager{
		store:  store,
		logger: logging.GetLogger("theme"),
	}
}

// Resolve returns the persisted theme, or system when none is stored. It never writes.
func (m *Manager) Resolve(ctx context.Context, system Theme) Theme {
	if _, ok := Parse(string(system)); !ok {
		system = Light
	}
	value, found, err := m.store.Get(ctx, constants.PreferenceTheme)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to read theme preference, using system preference")
		return system
	}
	if !found {
		return system
	}
	saved, ok := Parse(value)
	if !ok {
		m.logger.Warn().Str("value", value).Msg("Ignoring invalid stored theme")
		return system
	}
	return saved
}

// Init resolves the effective theme for a viewer whose system preference is
// system and styles that viewer's control for it. control may be nil.
func (m *Manager) Init(ctx context.Context, system Theme, control Control) Theme {
	active := m.Resolve(ctx, system)
	if control != nil {
		control.SetTheme(active, StyleFor(active))
	}
	return active
}

// Toggle flips the effective theme and persists the result. Open pages pick
// it up from ThemeChanged.
func (m *Manager) Toggle(ctx context.Context, system Theme) (Theme, error) {
	next := m.Resolve(ctx, system).Toggle()
	if err := m.store.Set(ctx, constants.PreferenceTheme, string(next)); err != nil {
		return "", fmt.Errorf("failed to save theme: %w", err)
	}
	m.logger.Info().Str("theme", string(next)).Msg("Theme toggled")

	signals.EmitThemeChanged(ctx, string(next))
	return next, nil
}

