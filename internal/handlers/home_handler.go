package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/belphemur/canteen-menu/internal/theme"
)

// colorSchemeHint is the client hint carrying the browser's prefers-color-scheme
const colorSchemeHint = "Sec-CH-Prefers-Color-Scheme"

// ThemeManager resolves and toggles the page theme
type ThemeManager interface {
	Init(ctx context.Context, system theme.Theme, control theme.Control) theme.Theme
	Toggle(ctx context.Context, system theme.Theme) (theme.Theme, error)
}

// HomeHandler serves the menu page
type HomeHandler struct {
	*BaseHandler
	Theme ThemeManager
}

// NewHomeHandler creates a new home page handler
func NewHomeHandler(baseHandler *BaseHandler, themeManager ThemeManager) *HomeHandler {
	return &HomeHandler{
		BaseHandler: baseHandler,
		Theme:       themeManager,
	}
}

// RegisterRoutes registers home page related routes
func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleHome)
}

// HomePageData contains data for the home page template
type HomePageData struct {
	BasePageData
	Page         PageView
	Theme        ThemeView
	ErrorMessage string
}

// handleHome renders the current page state
func (h *HomeHandler) handleHome(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleHome").Logger()
	handlerLogger.Debug().Str("method", r.Method).Msg("Handling home page request")

	// Ask the browser for its color scheme on the next requests
	w.Header().Set("Accept-CH", colorSchemeHint)
	w.Header().Set("Critical-CH", colorSchemeHint)
	w.Header().Add("Vary", colorSchemeHint)
	w.Header().Set("Cache-Control", "no-store")

	// The theme depends on this browser's hint, so it is resolved per request
	var themeView ThemeView
	active := h.Theme.Init(r.Context(), systemTheme(r), &themeView)
	handlerLogger.Debug().Str("theme", string(active)).Msg("Theme resolved")

	data := HomePageData{
		BasePageData: h.NewBasePageData(r),
		Page:         h.Page.Snapshot(),
		Theme:        themeView,
		ErrorMessage: h.processMessages(r, handlerLogger),
	}

	h.RenderTemplate(w, "home.html", data)
}

// processMessages extracts and translates the error code from the query parameters
func (h *HomeHandler) processMessages(r *http.Request, logger zerolog.Logger) string {
	errorCode := r.URL.Query().Get("error")
	if errorCode == "" {
		return ""
	}
	errorMessage := GetErrorMessage(errorCode)
	logger.Debug().Str("error_code", errorCode).Str("error_message", errorMessage).Msg("Processing error message")
	return errorMessage
}

// systemTheme reads the browser color scheme hint; light when absent
func systemTheme(r *http.Request) theme.Theme {
	hint := strings.Trim(strings.TrimSpace(r.Header.Get(colorSchemeHint)), `"`)
	if t, ok := theme.Parse(hint); ok {
		return t
	}
	return theme.Light
}
