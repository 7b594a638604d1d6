// Package ui serves the HTML run browser and mounts the JSON API under /api.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"gocausal/app"
	"gocausal/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App represents the UI application
type App struct {
	router    *chi.Mux
	service   *app.DiscoveryService
	templates *template.Template
	logger    *internal.Logger
}

// NewApp creates the UI. api is mounted at /api; it may be nil.
func NewApp(service *app.DiscoveryService, api http.Handler, logger *internal.Logger) (*App, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		service:   service,
		templates: templates,
		logger:    internal.OrDefault(logger).With("ui"),
	}

	a.setupMiddleware()
	a.setupRoutes(api)
	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes(api http.Handler) {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/runs/{id}", a.handleRun)
	a.router.Get("/runs/{id}/report.md", a.handleRunMarkdown)

	if api != nil {
		a.router.Mount("/api", http.StripPrefix("/api", api))
	}
}

// ServeHTTP lets the app be used as a handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// renderTemplate executes a named template
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.logger.Error("template %s: %v", templateName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
