package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"finitefield.org/trip-planner/internal/config"
	"finitefield.org/trip-planner/internal/days"
	"finitefield.org/trip-planner/internal/httpserver"
	"finitefield.org/trip-planner/internal/observability"
	"finitefield.org/trip-planner/internal/planner"
	"finitefield.org/trip-planner/public"
	"finitefield.org/trip-planner/templates"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var o flagOverrides
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the itinerary web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(o)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&o.addr, "addr", "", "listen address (overrides PLANNER_ADDR)")
	o.register(cmd)
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := observability.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	bundle, err := loadBundle(cfg)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	catalog, err := loadContent(cfg)
	if err != nil {
		return err
	}
	tmpl, assets, err := siteFiles(cfg)
	if err != nil {
		return err
	}

	loader := days.NewLoader(newSource(cfg))
	registry := planner.NewRegistry(cfg.SessionTTL, func() *planner.Controller {
		return planner.NewController(planner.Options{
			Days:       cfg.Days,
			DefaultDay: cfg.DefaultDay,
			Loader:     loader,
			Content:    catalog,
			DriveURL:   cfg.DriveURL,
		})
	})

	var key []byte
	if cfg.SessionKey != "" {
		key = []byte(cfg.SessionKey)
	} else {
		logger.Warn("using ephemeral session signing key; set PLANNER_SESSION_KEY to keep sessions across restarts")
	}

	srv, err := httpserver.New(httpserver.Config{
		Address:       cfg.Addr,
		Logger:        logger,
		Bundle:        bundle,
		Registry:      registry,
		DataDir:       cfg.DataDir,
		Templates:     tmpl,
		Assets:        assets,
		Dev:           cfg.Dev,
		SessionKey:    key,
		SecureCookies: cfg.SecureCookies,
		SessionMaxAge: cfg.SessionTTL,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("planner listening",
			zap.String("addr", cfg.Addr),
			zap.Bool("dev", cfg.Dev),
			zap.String("source", loader.Source().Name()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		registry.Run(gctx, time.Minute)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("planner shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// siteFiles returns the template and asset trees: the embedded copies, or the
// on-disk directories in dev mode so edits show up on reload.
func siteFiles(cfg config.Config) (fs.FS, fs.FS, error) {
	if cfg.Dev {
		return os.DirFS(cfg.Templates), os.DirFS(filepath.Join(cfg.Public, "assets")), nil
	}
	assets, err := fs.Sub(public.FS(), "assets")
	if err != nil {
		return nil, nil, fmt.Errorf("embedded assets: %w", err)
	}
	return templates.FS(), assets, nil
}
