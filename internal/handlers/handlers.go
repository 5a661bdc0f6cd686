package handlers

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/abrezinsky/jeopardy/internal/auth"
	"github.com/abrezinsky/jeopardy/internal/logger"
	"github.com/abrezinsky/jeopardy/internal/services"
	"github.com/abrezinsky/jeopardy/internal/websocket"
)

// NewStaticServer creates a static file server from an fs.FS
func NewStaticServer(staticFS fs.FS) http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// AdminPageData holds the data passed to admin templates
type AdminPageData struct {
	Title     string
	PageTitle string
	ActiveNav string
	SourceURL string
}

// Templates holds all parsed HTML templates
type Templates struct {
	Index          *template.Template
	AdminLogin     *template.Template
	AdminDashboard *template.Template
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Game         services.GameServicer
	Cache        services.CacheServicer
	Auth         *auth.Auth
	Hub          *websocket.Hub
	Log          logger.Logger
	SourceURL    string
	templates    *Templates
	staticServer http.Handler
}

// New creates a new Handlers instance with all dependencies
func New(
	game services.GameServicer,
	cache services.CacheServicer,
	templatesFS fs.FS,
	staticServer http.Handler,
	adminAuth *auth.Auth,
	hub *websocket.Hub,
	log logger.Logger,
) (*Handlers, error) {
	templates, err := loadTemplates(templatesFS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return &Handlers{
		Game:         game,
		Cache:        cache,
		Auth:         adminAuth,
		Hub:          hub,
		Log:          log,
		templates:    templates,
		staticServer: staticServer,
	}, nil
}

// NewForTesting creates a Handlers instance without loading templates (for testing API endpoints)
func NewForTesting(game services.GameServicer, cache services.CacheServicer) *Handlers {
	return &Handlers{
		Game:  game,
		Cache: cache,
		Auth:  auth.New("test-password"),
		Log:   logger.NewNop(),
		// templates left nil - API endpoints don't use templates
	}
}

// loadTemplates parses all templates once at startup
func loadTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{}
	var err error

	if t.Index, err = template.ParseFS(templatesFS, "index.html"); err != nil {
		return nil, fmt.Errorf("index template: %w", err)
	}
	if t.AdminLogin, err = template.ParseFS(templatesFS, "admin/login.html"); err != nil {
		return nil, fmt.Errorf("admin login template: %w", err)
	}
	if t.AdminDashboard, err = template.ParseFS(templatesFS, "admin/layout.html", "admin/dashboard.html"); err != nil {
		return nil, fmt.Errorf("admin dashboard template: %w", err)
	}

	return t, nil
}

// render executes a page template, logging failures
func (h *Handlers) render(w http.ResponseWriter, status int, tmpl *template.Template, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	var err error
	if name == "" {
		err = tmpl.Execute(w, data)
	} else {
		err = tmpl.ExecuteTemplate(w, name, data)
	}
	if err != nil {
		h.Log.Error("Template render failed", "template", tmpl.Name(), "error", err)
	}
}
