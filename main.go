package main

import (
	"embed"

	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"clinicchat/internal/config"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("dotenv not loaded")
	}

	app := NewApp()
	err := wails.Run(&options.App{
		Title:     "Clinic Chat",
		Width:     880,
		Height:    720,
		MinWidth:  520,
		MinHeight: 480,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: app.startup,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("application exited")
	}
}
