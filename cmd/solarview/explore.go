package main

import (
	"context"
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/recera/solarview/internal/config"
	"github.com/recera/solarview/internal/layoutfeed"
	"github.com/recera/solarview/internal/tui"
	"github.com/recera/solarview/pkg/grid"
)

func newExploreCommand() *cobra.Command {
	var watchDir string

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Explore the schematic in the terminal",
		Long:  `Opens the schematic in the terminal. Drag to pan, scroll to zoom, click the mini-map to jump.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("watch") {
				cfg.Layout.WatchDir = watchDir
			}
			return runExplore(cfg)
		},
	}

	cmd.Flags().StringVarP(&watchDir, "watch", "w", "", "Directory of *.layout.yaml files to follow")
	return cmd
}

func runExplore(cfg *config.Config) error {
	// The terminal belongs to the UI; logs go to a file or nowhere
	if cfg.Log.Debug {
		f, err := tea.LogToFile("solarview-debug.log", "debug")
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer f.Close()
		enableDebug(cfg)
	} else {
		log.SetOutput(io.Discard)
	}

	opts := workspaceOptions(cfg)
	p := tea.NewProgram(tui.NewModel(&opts), tea.WithAltScreen(), tea.WithMouseCellMotion())

	if dir := cfg.Layout.WatchDir; dir != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		feed := layoutfeed.NewFeed(cfg.LayoutSpec())
		watcher, err := layoutfeed.NewWatcher(dir, cfg.Layout.Pattern, feed)
		if err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		defer watcher.Close()
		watcher.MaxPanels = cfg.Layout.MaxPanels

		feed.Subscribe(func(spec grid.LayoutSpec) { p.Send(tui.LayoutMsg(spec)) })
		go func() {
			if err := watcher.Scan(); err != nil {
				log.Printf("[Layout] Initial scan failed: %v", err)
			}
			watcher.Run(ctx)
		}()
	}

	_, err := p.Run()
	return err
}
