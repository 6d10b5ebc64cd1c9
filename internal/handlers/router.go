package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/belphemur/canteen-menu/internal/logging"
)

// Routes is implemented by every handler that contributes routes
type Routes interface {
	RegisterRoutes(r chi.Router)
}

// NewRouter assembles the chi router with the shared middleware and the given handlers
func NewRouter(handlers ...Routes) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logging.GetLogger("http")))
	r.Use(middleware.Recoverer)

	for _, h := range handlers {
		h.RegisterRoutes(r)
	}
	return r
}

// requestLogger logs every request with zerolog once it completes
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("Request handled")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
