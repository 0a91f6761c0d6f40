package main

import (
	"embed"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/vellum/pkg/config"
	"github.com/chazu/vellum/pkg/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg := config.Default()
	logging.SetLogger(cfg.Logger(os.Stderr))
	app := NewAppWithConfig(cfg)

	err := wails.Run(&options.App{
		Title:  "Vellum",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind:       []interface{}{app},
	})
	if err != nil {
		logging.Logger().Error("wails run failed", "error", err)
		os.Exit(1)
	}
}
