package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)

	// No timeout on the websocket; it lives as long as the viewer.
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		if h.staticServer != nil {
			r.Handle("/static/*", http.StripPrefix("/static/", h.staticServer))
		}

		// Board page
		r.Get("/", h.handleIndex)

		// Game API (public)
		r.Get("/api/board", h.handleGetBoard)
		r.Post("/api/board", h.handleNewGame)
		r.Post("/api/board/reveal", h.handleReveal)
		r.Get("/api/board/qr", h.handleBoardQR)
		r.Get("/api/status", h.handleStatus)

		// Auth routes (public)
		r.Get("/admin/login", h.handleLoginPage)
		r.Post("/admin/login", h.handleLogin)
		r.Post("/admin/logout", h.handleLogout)

		// Admin pages (protected)
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAuth)
			r.Get("/admin", h.handleAdminDashboard)
		})

		// Admin API (protected)
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAuthAPI)
			r.Get("/api/admin/cache", h.handleGetCacheStats)
			r.Delete("/api/admin/cache", h.handleClearCache)
			r.Post("/api/admin/cache/prune", h.handlePruneCache)
		})
	})

	return r
}
