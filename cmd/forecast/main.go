// Command forecast trains the next-day usage model and writes the prediction
// artifact the dashboard serves. It reads the usage and weather exports from
// the data folder, so run it after a collection cycle.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/skortchmar/livewire/forecast"
	"github.com/skortchmar/livewire/internal/config"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	dataFolder := flag.String("data", cfg.Data.Folder, "folder holding usage/weather exports and model artifacts")
	retrain := flag.Bool("retrain", false, "retrain even when a saved model exists")
	flag.Parse()

	predictor := forecast.NewPredictor(*dataFolder)

	if !*retrain && predictor.ModelExists() {
		if err := predictor.LoadModel(); err != nil {
			log.Fatal().Err(err).Msg("load model")
		}
		log.Info().Str("folder", *dataFolder).Msg("loaded saved model")
	} else {
		metrics, err := predictor.Train()
		if err != nil {
			log.Fatal().Err(err).Msg("train model")
		}
		log.Info().
			Float64("mae", metrics.MAE).
			Float64("rmse", metrics.RMSE).
			Float64("r2", metrics.R2).
			Msg("model trained")
		if err := predictor.SaveModel(); err != nil {
			log.Fatal().Err(err).Msg("save model")
		}
	}

	predictions, err := predictor.PredictNextDay()
	if err != nil {
		log.Fatal().Err(err).Msg("predict next day")
	}
	if err := predictor.WritePredictions(predictions); err != nil {
		log.Fatal().Err(err).Msg("write predictions")
	}
	log.Info().Int("intervals", len(predictions)).Msg("predictions written")
}
