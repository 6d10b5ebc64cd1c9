package signals

import (
	"context"

	"github.com/maniartech/signals"
)

// MenuRenderedData contains data associated with a successfully rendered menu
type MenuRenderedData struct {
	Date string
	Seq  uint64
}

// ThemeChangedData contains data associated with a theme toggle
type ThemeChangedData struct {
	Theme string
}

// Signal definitions using generics
var MenuRendered = signals.New[MenuRenderedData]()
var ThemeChanged = signals.New[ThemeChangedData]()

// EmitMenuRendered emits a signal when a menu response was accepted and displayed
func EmitMenuRendered(ctx context.Context, date string, seq uint64) {
	MenuRendered.Emit(ctx, MenuRenderedData{
		Date: date,
		Seq:  seq,
	})
}

// EmitThemeChanged emits a signal when the user toggles the theme
func EmitThemeChanged(ctx context.Context, theme string) {
	ThemeChanged.Emit(ctx, ThemeChangedData{
		Theme: theme,
	})
}

// OnMenuRendered registers a handler for menu rendered events
func OnMenuRendered(handler func(ctx context.Context, data MenuRenderedData), key ...string) {
	if len(key) > 0 {
		MenuRendered.AddListener(handler, key[0])
	} else {
		MenuRendered.AddListener(handler)
	}
}

// OnThemeChanged registers a handler for theme change events
func OnThemeChanged(handler func(ctx context.Context, data ThemeChangedData), key ...string) {
	if len(key) > 0 {
		ThemeChanged.AddListener(handler, key[0])
	} else {
		ThemeChanged.AddListener(handler)
	}
}

// RemoveListeners unregisters keyed handlers from both signals
func RemoveListeners(key string) {
	MenuRendered.RemoveListener(key)
	ThemeChanged.RemoveListener(key)
}
