package httpserver

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	custommw "finitefield.org/trip-planner/internal/httpserver/middleware"
	"finitefield.org/trip-planner/internal/i18n"
	"finitefield.org/trip-planner/internal/observability"
	"finitefield.org/trip-planner/internal/planner"
)

// Config holds runtime options for the planner HTTP server.
type Config struct {
	Address  string
	Logger   *zap.Logger
	Bundle   *i18n.Bundle
	Registry *planner.Registry
	// DataDir is served read-only under /data; empty disables the route.
	DataDir string
	// Templates holds layouts/*.tmpl and partials/*.tmpl.
	Templates fs.FS
	// Assets is served under /assets.
	Assets fs.FS
	// Dev reparses templates on every request and disables asset caching.
	Dev            bool
	SessionKey     []byte
	SecureCookies  bool
	SessionMaxAge  time.Duration
	RequestTimeout time.Duration
}

// New constructs the HTTP server with middleware stack and routes.
func New(cfg Config) (*http.Server, error) {
	if cfg.Bundle == nil {
		return nil, errors.New("httpserver: locale bundle is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("httpserver: session registry is required")
	}
	if cfg.Templates == nil {
		return nil, errors.New("httpserver: templates are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	views, err := newTemplateSet(cfg.Templates, cfg.Dev)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, views: views}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.RequestLogger(cfg.Logger))
	router.Use(chimw.Recoverer)
	router.Use(chimw.Compress(5))
	router.Use(chimw.Timeout(cfg.RequestTimeout))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Assets != nil {
		router.Handle("/assets/*", custommw.AssetsWithCache(cfg.Assets, "/assets", cfg.Dev))
	}
	if strings.TrimSpace(cfg.DataDir) != "" {
		router.With(custommw.NoStore()).Handle("/data/*",
			http.StripPrefix("/data", http.FileServer(http.Dir(cfg.DataDir))))
	}

	router.Group(func(r chi.Router) {
		r.Use(custommw.HTMX())
		r.Use(custommw.NoStore())
		r.Use(custommw.Session(custommw.SessionConfig{
			Key:    cfg.SessionKey,
			Secure: cfg.SecureCookies,
			MaxAge: cfg.SessionMaxAge,
		}))
		r.Use(custommw.Locale(cfg.Bundle))

		r.Get("/", a.page)
		RegisterFragment(r, "/views/{view}", a.viewFragment)
		RegisterFragment(r, "/days/{day}", a.dayFragment)
		RegisterFragment(r, "/cards/{id}", a.cardFragment)
	})

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}, nil
}

// RegisterFragment registers a GET handler intended for htmx fragment rendering.
func RegisterFragment(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.With(custommw.RequireHTMX()).Get(pattern, handler)
}
