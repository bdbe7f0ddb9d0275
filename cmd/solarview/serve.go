package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/recera/solarview/internal/config"
	"github.com/recera/solarview/internal/layoutfeed"
	"github.com/recera/solarview/internal/server"
	"github.com/recera/solarview/pkg/live"
	"github.com/recera/solarview/pkg/viewport"
)

func newServeCommand() *cobra.Command {
	var port int
	var host string
	var watchDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the schematic to browsers",
		Long: `Starts the HTTP server. Each browser tab gets a live session whose viewport
runs on the server; layout files under --watch are reloaded as they change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// CLI takes precedence over the config file
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("watch") {
				cfg.Layout.WatchDir = watchDir
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().StringVarP(&host, "host", "H", "localhost", "Host to bind to")
	cmd.Flags().StringVarP(&watchDir, "watch", "w", "", "Directory of *.layout.yaml files to follow")

	return cmd
}

func runServe(cfg *config.Config) error {
	enableDebug(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := layoutfeed.NewFeed(cfg.LayoutSpec())
	if dir := cfg.Layout.WatchDir; dir != "" {
		watcher, err := layoutfeed.NewWatcher(dir, cfg.Layout.Pattern, feed)
		if err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		defer watcher.Close()
		watcher.MaxPanels = cfg.Layout.MaxPanels
		if err := watcher.Scan(); err != nil {
			log.Printf("[Layout] Initial scan failed: %v", err)
		}
		go func() {
			if err := watcher.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("[Layout] Watcher stopped: %v", err)
			}
		}()
		log.Printf("[Layout] Watching %s for %s", dir, cfg.Layout.Pattern)
	}

	liveServer := live.NewServer(live.Options{
		Workspace:     workspaceOptions(cfg),
		MiniMapBounds: cfg.MiniMapBounds(),
		SendBuffer:    cfg.Server.SendBuffer,
		MaxPanels:     cfg.Layout.MaxPanels,
		CheckOrigin:   server.CheckOrigin(cfg.Server.AllowedOrigins),
	})

	renderer, err := snapshotRenderer(cfg, true)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:           cfg.Addr(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Surface:        viewport.Size{W: cfg.Surface.Width, H: cfg.Surface.Height},
		MiniMapBounds:  cfg.MiniMapBounds(),
		Workspace:      workspaceOptions(cfg),
		MaxPanels:      cfg.Layout.MaxPanels,
	}, feed, liveServer, renderer)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("[Server] Shutting down...")
		cancel()

		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Server] Shutdown error: %v", err)
		}
	}()

	return srv.Start()
}
