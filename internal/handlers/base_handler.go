package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/belphemur/canteen-menu/internal/constants"
	"github.com/belphemur/canteen-menu/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// BaseHandler contains common handler functionality
type BaseHandler struct {
	tmpl        *template.Template
	Page        *PageModel
	logger      zerolog.Logger
	cssETag     string // ETag of the stylesheet, used to bust caches
	faviconETag string
}

// NewBaseHandler creates a common base handler with shared components
func NewBaseHandler(page *PageModel, cssETag, faviconETag string) (*BaseHandler, error) {
	logger := logging.GetLogger("base-handler")
	logger.Debug().Msg("Parsing templates")

	funcMap := template.FuncMap{
		"disabledIf": func(b bool) template.HTMLAttr {
			if b {
				return "disabled"
			}
			return ""
		},
	}

	// Parse only layout.html initially
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse templates")
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	logger.Debug().Msg("Templates parsed successfully")

	return &BaseHandler{
		tmpl:        tmpl,
		Page:        page,
		logger:      logger,
		cssETag:     cssETag,
		faviconETag: faviconETag,
	}, nil
}

// RenderTemplate renders a template with the given data
func (h *BaseHandler) RenderTemplate(w http.ResponseWriter, name string, data interface{}) {
	h.logger.Debug().Str("template_name", name).Msg("Executing template")

	// Clone the base template (which contains layout.html)
	tmpl, err := h.tmpl.Clone()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to clone template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Parse the specific page template into the clone
	_, err = tmpl.ParseFS(templateFS, "templates/"+name)
	if err != nil {
		h.logger.Error().Err(err).Str("template", name).Msg("Failed to parse page template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		h.logger.Error().Err(err).Str("template", name).Msg("Failed to execute template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// BasePageData contains common data for all pages
type BasePageData struct {
	AppName     string
	CurrentYear int
	CurrentPath string
	CSSETag     string
	FaviconETag string
}

// NewBasePageData creates a new BasePageData with common fields populated
func (h *BaseHandler) NewBasePageData(r *http.Request) BasePageData {
	return BasePageData{
		AppName:     constants.AppName,
		CurrentYear: time.Now().Year(),
		CurrentPath: r.URL.Path,
		CSSETag:     h.cssETag,
		FaviconETag: h.faviconETag,
	}
}
