package handlers

import (
	stdlog "log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// NewRouter builds the finder API router.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	SetupRoutes(r, h)
	return r
}

// SetupRoutes configures all finder API routes.
func SetupRoutes(r chi.Router, h *Handler) {
	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  stdlog.New(&log.Logger, "", 0),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(allowAnyOrigin)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     corsMethods,
		AllowedHeaders:     corsHeaders,
		OptionsPassthrough: true,
	}))
	r.Use(answerOptions)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.NotFound)

	// Health check
	r.Get("/health", h.HealthCheck)

	// Documentation
	r.Get("/docs", h.ServeSwaggerUI)
	r.Get("/docs/", h.ServeSwaggerUI)
	r.Get("/docs/openapi.yaml", h.ServeOpenAPISpec)

	// WiFi
	r.Get("/api/wifi/status", h.GetWiFiStatus)
	r.Post("/api/wifi/config", h.PostWiFiConfig)

	// System
	r.Get("/api/system/info", h.GetSystemInfo)
	r.Post("/api/system/command", h.PostSystemCommand)
}

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsHeaders = []string{"Content-Type"}
)

// allowAnyOrigin sets the permissive CORS headers on every response,
// whether or not the request carries an Origin header.
func allowAnyOrigin(next http.Handler) http.Handler {
	methods := strings.Join(corsMethods, ", ")
	headers := strings.Join(corsHeaders, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		next.ServeHTTP(w, r)
	})
}

// answerOptions replies 200 with an empty body to every OPTIONS request,
// after the CORS handler has set its preflight headers.
func answerOptions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
