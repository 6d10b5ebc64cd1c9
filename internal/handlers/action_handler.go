package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/belphemur/canteen-menu/internal/navigator"
	"github.com/belphemur/canteen-menu/internal/viewer"
)

// MenuController is what the page actions drive
type MenuController interface {
	NavigateDay(ctx context.Context, dir navigator.Direction) error
	GoToToday(ctx context.Context) error
	FetchLatest(ctx context.Context) error
	ForceCheck(ctx context.Context) error
	ForceRescan(ctx context.Context) error
	Rescanning() bool
}

// ActionHandler turns page buttons into controller calls. Menu work runs in the
// background so the browser is redirected straight away and sees the placeholder.
type ActionHandler struct {
	*BaseHandler
	Controller MenuController
	Theme      ThemeManager

	baseCtx context.Context
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewActionHandler creates the action handler. Background work is bound to baseCtx.
func NewActionHandler(baseHandler *BaseHandler, controller MenuController, themeManager ThemeManager, baseCtx context.Context, timeout time.Duration) *ActionHandler {
	return &ActionHandler{
		BaseHandler: baseHandler,
		Controller:  controller,
		Theme:       themeManager,
		baseCtx:     baseCtx,
		timeout:     timeout,
	}
}

// RegisterRoutes registers the action routes
func (h *ActionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/actions", func(r chi.Router) {
		r.Post("/prev", h.handlePrev)
		r.Post("/next", h.handleNext)
		r.Post("/today", h.handleToday)
		r.Post("/retry", h.handleRetry)
		r.Post("/check", h.handleCheck)
		r.Post("/rescan", h.handleRescan)
		r.Post("/theme", h.handleTheme)
		r.NotFound(h.handleUnknown)
		r.MethodNotAllowed(h.handleUnknown)
	})
}

// handleUnknown sends stale or hand-written action links back to the page
func (h *ActionHandler) handleUnknown(w http.ResponseWriter, r *http.Request) {
	h.logger.Warn().Str("method", r.Method).Str("path", r.URL.Path).Msg("Unknown action")
	redirectHome(w, r, ErrCodeUnknownAction)
}

func (h *ActionHandler) handlePrev(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "prev", func(ctx context.Context) error {
		return h.Controller.NavigateDay(ctx, navigator.Older)
	})
}

func (h *ActionHandler) handleNext(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "next", func(ctx context.Context) error {
		return h.Controller.NavigateDay(ctx, navigator.Newer)
	})
}

func (h *ActionHandler) handleToday(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "today", h.Controller.GoToToday)
}

func (h *ActionHandler) handleRetry(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "retry", h.Controller.FetchLatest)
}

func (h *ActionHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, "check", h.Controller.ForceCheck)
}

func (h *ActionHandler) handleRescan(w http.ResponseWriter, r *http.Request) {
	if h.Controller.Rescanning() {
		h.logger.Info().Msg("Rescan requested while one is running")
		redirectHome(w, r, ErrCodeRescanInProgress)
		return
	}
	h.dispatch(w, r, "rescan", h.Controller.ForceRescan)
}

// handleTheme toggles synchronously so the redirected page already has the new theme
func (h *ActionHandler) handleTheme(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleTheme").Logger()

	active, err := h.Theme.Toggle(r.Context(), systemTheme(r))
	if err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to toggle theme")
		redirectHome(w, r, ErrCodeThemeSaveFailed)
		return
	}
	handlerLogger.Debug().Str("theme", string(active)).Msg("Theme toggled")
	redirectHome(w, r, "")
}

// dispatch runs fn in the background and redirects to the page
func (h *ActionHandler) dispatch(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context) error) {
	logger := h.logger.With().Str("action", action).Logger()
	logger.Debug().Msg("Dispatching action")

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(h.baseCtx, h.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			switch {
			case errors.Is(err, viewer.ErrSuperseded):
				logger.Debug().Msg("Action superseded by a newer request")
			case errors.Is(err, viewer.ErrRescanInProgress):
				logger.Info().Msg("Rescan already in progress")
			default:
				logger.Warn().Err(err).Msg("Action failed")
			}
		}
	}()

	redirectHome(w, r, "")
}

// Wait blocks until all dispatched actions have finished
func (h *ActionHandler) Wait() {
	h.wg.Wait()
}

func redirectHome(w http.ResponseWriter, r *http.Request, errorCode string) {
	target := "/"
	if errorCode != "" {
		target += "?" + url.Values{"error": {errorCode}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
