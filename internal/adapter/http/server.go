// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"

	"itemboard/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth       *app.AuthService
	items      *app.ItemService
	oidcConfig OIDCConfig
	webDir     string
}

// New creates a Server wired to the given application services.
func New(auth *app.AuthService, items *app.ItemService, oidcCfg OIDCConfig, webDir string) *Server {
	return &Server{auth: auth, items: items, oidcConfig: oidcCfg, webDir: webDir}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(requestMetrics)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})
		api.Get("/config", s.handleConfig)

		api.Post("/auth/register", s.handleRegister)
		api.Post("/auth/login", s.handleLogin)
		api.Post("/auth/logout", s.handleLogout)
		api.Get("/auth/sso/login", s.handleSSOLogin)
		api.Get("/auth/sso/callback", s.handleSSOCallback)

		api.Group(func(pr chi.Router) {
			pr.Use(s.authMiddleware)
			pr.Get("/auth/me", s.handleMe)
			pr.Route("/items", func(ir chi.Router) {
				ir.Get("/", s.handleItemsList)
				ir.Post("/", s.handleItemCreate)
				ir.Get("/stream", s.handleItemsStream)
				ir.Put("/{id}", s.handleItemUpdate)
				ir.Delete("/{id}", s.handleItemDelete)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.NotFound(spaFromDisk(s.webDir).ServeHTTP)

	return withNoCache(r)
}
