package main

import (
	"context"
	"fmt"

	"github.com/chazu/spatial/pkg/canvas"
	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the canvas window",
	Args:  cobra.NoArgs,
	RunE:  runDesktop,
}

func init() {
	runCmd.Flags().String("watch", "", "layout script to re-import whenever it changes")
	rootCmd.AddCommand(runCmd)
}

func runDesktop(cmd *cobra.Command, _ []string) error {
	w, err := openWorkspace()
	if err != nil {
		return err
	}
	defer w.Close()
	w.autosave()

	mode, _ := canvas.ParseMode(w.cfg.Mode)
	app := NewApp(w.store, float64(w.cfg.Viewport.Width), float64(w.cfg.Viewport.Height), mode, w.log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watch, _ := cmd.Flags().GetString("watch")
	if watch != "" {
		imp := func(source string) {
			res := app.Import(source)
			for _, e := range res.Errors {
				w.log.WithField("file", watch).Warn(e.Message)
			}
		}
		if err := watchLayout(ctx, watch, imp, w.log); err != nil {
			return fmt.Errorf("watch: %w", err)
		}
	}

	return wails.Run(&options.App{
		Title:            "Spatial",
		Width:            w.cfg.Window.Width,
		Height:           w.cfg.Window.Height,
		AssetServer:      &assetserver.Options{Assets: assets},
		BackgroundColour: &options.RGBA{R: 255, G: 255, B: 255, A: 1},
		OnStartup:        app.startup,
		Bind:             []interface{}{app},
	})
}
