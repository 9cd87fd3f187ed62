package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"finitefield.org/trip-planner/internal/config"
	"finitefield.org/trip-planner/internal/content"
	"finitefield.org/trip-planner/internal/days"
	"finitefield.org/trip-planner/internal/i18n"
	"finitefield.org/trip-planner/locales"
)

var supportedLanguages = []string{"zh-TW", "en", "ja"}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "planner",
		Short: "Trip itinerary planner",
		Long: `Planner serves a mobile itinerary page built from per-day JSON documents
stored under data/days/day<N>.json, and offers tooling to validate and preview them.`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newCheckCmd(), newRenderCmd())
	return root
}

// flagOverrides holds command-line values that win over the environment.
type flagOverrides struct {
	addr    string
	dataDir string
	dataURL string
}

func (o *flagOverrides) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.dataDir, "data-dir", "", "directory holding days/day<N>.json (overrides PLANNER_DATA_DIR)")
	cmd.Flags().StringVar(&o.dataURL, "data-url", "", "base URL serving data/days/day<N>.json (overrides PLANNER_DATA_URL)")
}

// loadConfig reads the environment and applies non-empty flag overrides.
func loadConfig(o flagOverrides) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if v := strings.TrimSpace(o.addr); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(o.dataDir); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(o.dataURL); v != "" {
		cfg.DataURL = v
	}
	return cfg, cfg.Validate()
}

func loadBundle(cfg config.Config) (*i18n.Bundle, error) {
	if dir := strings.TrimSpace(cfg.Locales); dir != "" {
		return i18n.Load(dir, cfg.DefaultLang, supportedLanguages)
	}
	return i18n.LoadFS(locales.FS(), cfg.DefaultLang, supportedLanguages)
}

func newSource(cfg config.Config) days.Source {
	if u := strings.TrimSpace(cfg.DataURL); u != "" {
		return days.NewHTTPSource(u, cfg.FetchTimeout)
	}
	return days.NewDirSource(filepath.Join(cfg.DataDir, "days"))
}

func loadContent(cfg config.Config) (*content.Catalog, error) {
	catalog, err := content.Load(cfg.ContentFile, cfg.DriveURL)
	if err != nil {
		return nil, fmt.Errorf("load placeholder content: %w", err)
	}
	return catalog, nil
}
