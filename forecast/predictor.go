package forecast

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skortchmar/livewire/electricity"
	"github.com/skortchmar/livewire/weather"
)

const (
	// stepsPerDay is the number of quarter-hour intervals in a forecast.
	stepsPerDay = 96

	// holdoutFraction of the most recent samples is kept for evaluation.
	holdoutFraction = 0.2

	// defaultLambda is a light regularization; the features are few and the
	// design matrix is well conditioned.
	defaultLambda = 1.0
)

// Artifact names inside the data folder. The usage and weather inputs are
// named by their producers (electricity.UsageDocumentName and
// weather.WeatherDocumentName).
const (
	ModelFileName       = "forecast_model.json"
	PredictionsFileName = "predictions.json"
)

// Prediction is one forecast step.
type Prediction struct {
	Timestamp    string  `json:"timestamp"`
	PredictedKWh float64 `json:"predicted_kwh"`
}

// PredictionsDocument is the JSON artifact served by /api/predictions.
type PredictionsDocument struct {
	Metadata struct {
		GeneratedAt       time.Time `json:"generated_at"`
		ForecastHorizon   string    `json:"forecast_horizon"`
		ForecastIntervals int       `json:"forecast_intervals"`
	} `json:"metadata"`
	Predictions []Prediction `json:"predictions"`
}

// Predictor orchestrates training and next-day prediction over the documents
// in the data folder.
type Predictor struct {
	dataFolder string
	model      *Ridge
	trained    bool
}

// NewPredictor creates a predictor over the given data folder.
func NewPredictor(dataFolder string) *Predictor {
	return &Predictor{
		dataFolder: dataFolder,
		model:      NewRidge(defaultLambda),
	}
}

// Train fits the model on all available intervals, holding out the most
// recent 20% chronologically for evaluation, then refits on everything.
func (p *Predictor) Train() (Metrics, error) {
	meter, weather, err := p.loadData()
	if err != nil {
		return Metrics{}, err
	}

	samples := BuildTrainingSet(meter, weather)
	if len(samples) < stepsPerDay {
		return Metrics{}, fmt.Errorf("only %d usable samples; need at least one full day", len(samples))
	}
	log.Info().Int("samples", len(samples)).Msg("training set built")

	split := len(samples) - int(float64(len(samples))*holdoutFraction)
	train, test := samples[:split], samples[split:]

	if err := p.model.Fit(featureMatrix(train), targetVector(train)); err != nil {
		return Metrics{}, err
	}
	metrics := Evaluate(p.model, test)
	log.Info().
		Float64("mae", metrics.MAE).
		Float64("rmse", metrics.RMSE).
		Float64("r2", metrics.R2).
		Msg("hold-out performance")

	// Final fit on the full history.
	if err := p.model.Fit(featureMatrix(samples), targetVector(samples)); err != nil {
		return Metrics{}, err
	}
	p.trained = true
	return metrics, nil
}

// PredictNextDay forecasts the 96 intervals of the day after the last meter
// reading. Missing lag or weather data is an error: the forecast needs the
// full previous day on both axes.
func (p *Predictor) PredictNextDay() ([]Prediction, error) {
	if !p.trained {
		return nil, fmt.Errorf("model must be trained or loaded before prediction")
	}

	meter, weather, err := p.loadData()
	if err != nil {
		return nil, err
	}

	last := meter.Last()
	midnight := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, last.Location()).AddDate(0, 0, 1)

	predictions := make([]Prediction, 0, stepsPerDay)
	for k := 0; k < stepsPerDay; k++ {
		ts := midnight.Add(time.Duration(k) * 15 * time.Minute)
		yesterday := ts.Add(-lag)

		lag24h, ok := meter.At(yesterday)
		if !ok {
			return nil, fmt.Errorf("missing meter reading for %s; cannot build 24h-lag feature", yesterday.Format(time.RFC3339))
		}
		w, ok := weather[yesterday.Truncate(time.Hour)]
		if !ok {
			return nil, fmt.Errorf("missing weather for hour %s; cannot build weather features", yesterday.Truncate(time.Hour).Format(time.RFC3339))
		}

		predicted := p.model.Predict(FeatureRow(ts, w, lag24h))
		predictions = append(predictions, Prediction{
			Timestamp:    ts.Format("2006-01-02T15:04:05"),
			PredictedKWh: max(0, predicted),
		})
	}
	return predictions, nil
}

// SaveModel persists the fitted weights.
func (p *Predictor) SaveModel() error {
	if !p.trained {
		return fmt.Errorf("train the model before saving")
	}
	raw, err := marshalModel(p.model)
	if err != nil {
		return err
	}
	path := filepath.Join(p.dataFolder, ModelFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// LoadModel restores previously saved weights.
func (p *Predictor) LoadModel() error {
	raw, err := os.ReadFile(filepath.Join(p.dataFolder, ModelFileName))
	if err != nil {
		return err
	}
	model, err := unmarshalModel(raw)
	if err != nil {
		return err
	}
	p.model = model
	p.trained = true
	return nil
}

// ModelExists reports whether a saved model is present in the data folder.
func (p *Predictor) ModelExists() bool {
	_, err := os.Stat(filepath.Join(p.dataFolder, ModelFileName))
	return err == nil
}

// WritePredictions persists the forecast document for the HTTP layer.
func (p *Predictor) WritePredictions(predictions []Prediction) error {
	var doc PredictionsDocument
	doc.Metadata.GeneratedAt = time.Now()
	doc.Metadata.ForecastHorizon = "next_calendar_day"
	doc.Metadata.ForecastIntervals = stepsPerDay
	doc.Predictions = predictions

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(p.dataFolder, PredictionsFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func (p *Predictor) loadData() (*MeterSeries, WeatherHourly, error) {
	meter, err := LoadMeterSeries(filepath.Join(p.dataFolder, electricity.UsageDocumentName))
	if err != nil {
		return nil, nil, err
	}
	weatherHourly, err := LoadWeatherHourly(filepath.Join(p.dataFolder, weather.WeatherDocumentName))
	if err != nil {
		return nil, nil, err
	}
	return meter, weatherHourly, nil
}

func featureMatrix(samples []Sample) [][]float64 {
	features := make([][]float64, len(samples))
	for i, s := range samples {
		features[i] = s.Features
	}
	return features
}

func targetVector(samples []Sample) []float64 {
	targets := make([]float64, len(samples))
	for i, s := range samples {
		targets[i] = s.Target
	}
	return targets
}
