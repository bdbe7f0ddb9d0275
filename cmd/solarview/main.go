package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recera/solarview/internal/cache"
	"github.com/recera/solarview/internal/config"
	"github.com/recera/solarview/pkg/debug"
	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/minimap"
	"github.com/recera/solarview/pkg/snapshot"
	"github.com/recera/solarview/pkg/workspace"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// Persistent flags
var (
	configPath string
	debugLog   bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "solarview",
		Short: "Solarview - interactive solar plant schematics",
		Long: `Solarview renders a solar plant as SMBs, strings and panels on a pannable,
zoomable surface with a mini-map overview. Serve it to browsers, explore it in the
terminal, or render static snapshots.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to solarview.yaml")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable component debug logging")

	// Add commands
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newExploreCommand())
	rootCmd.AddCommand(newConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads and validates the configuration, then applies --debug
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debugLog {
		cfg.Log.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return cfg, nil
}

func enableDebug(cfg *config.Config) {
	if cfg.Log.Debug {
		debug.EnableLogging(nil)
	}
}

func workspaceOptions(cfg *config.Config) workspace.Options {
	return workspace.Options{
		Layout: cfg.LayoutSpec(),
		MiniMap: minimap.Options{
			Ratio:  cfg.MiniMap.Ratio,
			Source: cfg.MiniMap.Source,
		},
		Metrics: grid.DefaultMetrics(),
	}
}

func snapshotRenderer(cfg *config.Config, withCache bool) (*snapshot.Renderer, error) {
	opts := snapshot.DefaultOptions()
	opts.Width, opts.Height = cfg.Snapshot.Width, cfg.Snapshot.Height

	var c *cache.Cache
	if withCache {
		c = cache.New(cache.Config{
			MaxSize:  cfg.Snapshot.CacheSize,
			MaxAge:   cfg.Snapshot.CacheTTL,
			Strategy: cache.ParseStrategy(cfg.Snapshot.CacheStrategy),
		})
	}
	return snapshot.NewRenderer(opts, c)
}
