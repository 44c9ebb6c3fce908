package main

import (
	"digitpad/internal/config"
	"digitpad/internal/logger"
	ui "digitpad/internal/ui"
	"digitpad/processing/inference"
	"digitpad/processing/normalize"
	"digitpad/processing/predictor"
	"digitpad/processing/stroke"

	"fyne.io/fyne/v2/app"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.LoadConfigFile(config.DefaultConfigPath)
	logger.Setup(cfg.LogLevel)

	model := inference.Open(cfg.Model, cfg.InputSize)
	adapter := inference.NewAdapter(model, cfg.Model.Classes)
	defer func() {
		if err := adapter.Close(); err != nil {
			log.Warn().Err(err).Msg("close model")
		}
	}()

	pred := predictor.New(normalize.New(cfg.InputSize, cfg.GetFilter()), adapter)
	pred.Start()
	defer pred.Stop()

	canvas := stroke.New(cfg.CanvasSize, cfg.GetStrokeWidth())

	log.Info().
		Int("canvas", cfg.CanvasSize).
		Int("stroke_width", cfg.GetStrokeWidth()).
		Str("filter", string(cfg.GetFilter())).
		Bool("model_loaded", adapter.Available()).
		Msg("starting digit drawer")

	a := ui.CreateApp(app.New(), pred, canvas, cfg)

	a.Run()
}
