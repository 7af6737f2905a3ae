package forecast_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skortchmar/livewire/electricity"
	"github.com/skortchmar/livewire/forecast"
	"github.com/skortchmar/livewire/weather"
)

// consumptionAt is the synthetic meter signal: a pure daily pattern, so the
// 24h lag reproduces it exactly and the model can learn it.
func consumptionAt(ts time.Time) float64 {
	return 0.5 + 0.03*float64(ts.Hour()) + 0.002*float64(ts.Minute())
}

// writeTestData writes usage and weather documents covering days full days
// starting at start (midnight) into folder.
func writeTestData(t *testing.T, folder string, start time.Time, days int) {
	t.Helper()

	type usageRow struct {
		StartTime      string  `json:"start_time"`
		ConsumptionKWh float64 `json:"consumption_kwh"`
	}
	var usage []usageRow
	for k := 0; k < days*96; k++ {
		ts := start.Add(time.Duration(k) * 15 * time.Minute)
		usage = append(usage, usageRow{
			StartTime:      ts.Format("2006-01-02T15:04:05"),
			ConsumptionKWh: consumptionAt(ts),
		})
	}

	type weatherRow struct {
		Timestamp            string  `json:"timestamp"`
		TemperatureF         float64 `json:"temperature_f"`
		ApparentTemperatureF float64 `json:"apparent_temperature_f"`
		HumidityPercent      float64 `json:"humidity_percent"`
		WindSpeedMPH         float64 `json:"wind_speed_mph"`
		CloudCoverPercent    float64 `json:"cloud_cover_percent"`
	}
	var hours []weatherRow
	for k := 0; k < (days+1)*24; k++ {
		ts := start.Add(time.Duration(k) * time.Hour)
		hours = append(hours, weatherRow{
			Timestamp:            ts.Format("2006-01-02T15:04"),
			TemperatureF:         70 + 0.1*float64(ts.Hour()),
			ApparentTemperatureF: 72,
			HumidityPercent:      55,
			WindSpeedMPH:         6,
			CloudCoverPercent:    30,
		})
	}

	writeDoc := func(name string, rows any) {
		raw, err := json.Marshal(map[string]any{"data": rows})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(folder, name), raw, 0o644))
	}
	writeDoc(electricity.UsageDocumentName, usage)
	writeDoc(weather.WeatherDocumentName, hours)
}

func TestPredictorTrainAndPredict(t *testing.T) {
	folder := t.TempDir()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	writeTestData(t, folder, start, 4)

	predictor := forecast.NewPredictor(folder)

	metrics, err := predictor.Train()
	require.NoError(t, err)
	require.Less(t, metrics.MAE, 0.05, "daily-periodic signal should be learnable")
	require.Greater(t, metrics.R2, 0.95)

	predictions, err := predictor.PredictNextDay()
	require.NoError(t, err)
	require.Len(t, predictions, 96)

	// The forecast day starts at midnight after the last reading.
	require.Equal(t, "2025-06-05T00:00:00", predictions[0].Timestamp)
	require.Equal(t, "2025-06-05T23:45:00", predictions[95].Timestamp)

	for _, p := range predictions {
		ts, err := time.Parse("2006-01-02T15:04:05", p.Timestamp)
		require.NoError(t, err)
		require.InDelta(t, consumptionAt(ts), p.PredictedKWh, 0.1)
		require.GreaterOrEqual(t, p.PredictedKWh, 0.0)
	}
}

func TestPredictor_PredictBeforeTrain(t *testing.T) {
	predictor := forecast.NewPredictor(t.TempDir())
	_, err := predictor.PredictNextDay()
	require.Error(t, err)
}

func TestPredictor_TrainNeedsData(t *testing.T) {
	t.Run("missing files", func(t *testing.T) {
		predictor := forecast.NewPredictor(t.TempDir())
		_, err := predictor.Train()
		require.Error(t, err)
	})

	t.Run("too few samples", func(t *testing.T) {
		folder := t.TempDir()
		// One day means no interval has a 24h lag.
		writeTestData(t, folder, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 1)
		predictor := forecast.NewPredictor(folder)
		_, err := predictor.Train()
		require.Error(t, err)
	})
}

func TestPredictor_SaveAndLoadModel(t *testing.T) {
	folder := t.TempDir()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	writeTestData(t, folder, start, 4)

	trained := forecast.NewPredictor(folder)
	_, err := trained.Train()
	require.NoError(t, err)

	require.False(t, trained.ModelExists())
	require.NoError(t, trained.SaveModel())
	require.True(t, trained.ModelExists())

	restored := forecast.NewPredictor(folder)
	require.NoError(t, restored.LoadModel())

	want, err := trained.PredictNextDay()
	require.NoError(t, err)
	got, err := restored.PredictNextDay()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestPredictor_SaveBeforeTrain(t *testing.T) {
	predictor := forecast.NewPredictor(t.TempDir())
	require.Error(t, predictor.SaveModel())
}

func TestPredictor_WritePredictions(t *testing.T) {
	folder := t.TempDir()
	predictor := forecast.NewPredictor(folder)

	predictions := []forecast.Prediction{
		{Timestamp: "2025-06-05T00:00:00", PredictedKWh: 0.5},
	}
	require.NoError(t, predictor.WritePredictions(predictions))

	raw, err := os.ReadFile(filepath.Join(folder, forecast.PredictionsFileName))
	require.NoError(t, err)

	var doc forecast.PredictionsDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Equal(t, "next_calendar_day", doc.Metadata.ForecastHorizon)
	require.Equal(t, 96, doc.Metadata.ForecastIntervals)
	require.Equal(t, predictions, doc.Predictions)
}
