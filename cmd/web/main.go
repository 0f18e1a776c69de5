package main

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/crucial707/irrigation-dashboard/internal/middleware"
	"github.com/crucial707/irrigation-dashboard/internal/models"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

//go:embed templates
var templatesFS embed.FS

const (
	defaultPort = "3000"
	defaultAPI  = "http://localhost:8080"
	envWebPort  = "IRRIGATION_WEB_PORT"
	envAPIURL   = "IRRIGATION_API_URL"
)

var pages = []string{"home.html", "schedules.html", "settings.html", "about.html"}

var templates = mustLoadTemplates()

func main() {
	port := getEnv(envWebPort, defaultPort)
	apiBase := getEnv(envAPIURL, defaultAPI)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logger.Info("web UI running", "addr", "http://localhost:"+port, "api", apiBase)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           newRouter(apiBase, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("web server failed", "error", err)
		os.Exit(1)
	}
}

func newRouter(apiBase string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.RequestLog(logger))
	r.Use(middleware.SecurityHeaders(false, middleware.WebContentSecurityPolicy))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Get("/", home(apiBase))
	r.Post("/suggestion/{decision}", suggestionDecision(apiBase))
	r.Get("/schedules", schedulesPage(apiBase))
	r.Post("/schedules", scheduleCreate(apiBase))
	r.Post("/schedules/{id}/delete", scheduleDelete(apiBase))
	r.Get("/settings", settingsPage(apiBase))
	r.Post("/settings/theme", themeToggle(apiBase))
	r.Get("/about", about(apiBase))
	return r
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var funcs = template.FuncMap{
	"hour": func(h int) string { return fmt.Sprintf("%02d:00", h) },
	"date": func(d models.Date) string {
		if d.IsZero() {
			return ""
		}
		return fmt.Sprintf("%02d-%02d-%04d", d.Day, int(d.Month), d.Year)
	},
	"window": func(w models.Window) string {
		if !w.Complete() {
			return "incomplete"
		}
		s, e := w.Bounds()
		return fmt.Sprintf("%02d:00 - %02d:00", s, e)
	},
	"add": func(a, b int) int { return a + b },
}

// mustLoadTemplates parses layout.html together with each page.
func mustLoadTemplates() map[string]*template.Template {
	out := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t := template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name))
		out[name] = t
	}
	return out
}

// render fetches the current theme and executes the page inside the layout.
func render(w http.ResponseWriter, apiBase, name string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	var theme struct {
		Theme string `json:"theme"`
	}
	if err := getJSON(apiBase, "/settings/theme", &theme); err != nil || theme.Theme == "" {
		theme.Theme = "light"
	}
	data["Theme"] = theme.Theme
	renderTemplate(w, name, data)
}

func renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	t, ok := templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("template execute", "template", name, "error", err)
	}
}
