package weather_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skortchmar/livewire/internal/utils"
	"github.com/skortchmar/livewire/weather"
)

// hourlyPayload builds an Open-Meteo hourly response for the given timestamps
// with a constant temperature.
func hourlyPayload(timestamps []string, tempF float64) map[string]any {
	n := len(timestamps)
	column := make([]*float64, n)
	for i := range column {
		column[i] = utils.Ptr(tempF)
	}
	return map[string]any{
		"hourly": map[string]any{
			"time":                 timestamps,
			"temperature_2m":       column,
			"relative_humidity_2m": column,
			"apparent_temperature": column,
			"precipitation":        column,
			"cloud_cover":          column,
			"wind_speed_10m":       column,
		},
	}
}

func TestClientHistorical_ChunksRequests(t *testing.T) {
	var requests []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, map[string]string{
			"start_date": r.URL.Query().Get("start_date"),
			"end_date":   r.URL.Query().Get("end_date"),
			"tz":         r.URL.Query().Get("timezone"),
			"unit":       r.URL.Query().Get("temperature_unit"),
		})
		json.NewEncoder(w).Encode(hourlyPayload([]string{"2025-04-01T00:00"}, 55))
	}))
	defer srv.Close()

	client := weather.NewClient(40.7589, -73.9851,
		weather.WithBaseURLs(srv.URL, srv.URL),
		weather.WithHTTPClient(srv.Client()),
		weather.WithNoDelay(),
	)

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	points, err := client.Historical(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, points, 2, "one point per chunk")

	require.Len(t, requests, 2)
	require.Equal(t, "2025-04-01", requests[0]["start_date"])
	require.Equal(t, "2025-05-01", requests[0]["end_date"])
	require.Equal(t, "2025-05-02", requests[1]["start_date"])
	require.Equal(t, "2025-05-20", requests[1]["end_date"])
	require.Equal(t, "America/New_York", requests[0]["tz"])
	require.Equal(t, "fahrenheit", requests[0]["unit"])
}

func TestClientHistorical_ErrorStopsCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := weather.NewClient(40.7589, -73.9851,
		weather.WithBaseURLs(srv.URL, srv.URL),
		weather.WithHTTPClient(srv.Client()),
		weather.WithNoDelay(),
	)

	_, err := client.Historical(context.Background(),
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestClientCurrentAndForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "7", r.URL.Query().Get("past_days"))
		require.Equal(t, "30", r.URL.Query().Get("forecast_days"))
		json.NewEncoder(w).Encode(hourlyPayload([]string{"2025-06-01T00:00", "2025-06-01T01:00"}, 72))
	}))
	defer srv.Close()

	client := weather.NewClient(40.7589, -73.9851,
		weather.WithBaseURLs(srv.URL, srv.URL),
		weather.WithHTTPClient(srv.Client()),
	)

	points, err := client.CurrentAndForecast(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, "2025-06-01T00:00", points[0].Timestamp)
	require.Equal(t, 72.0, *points[0].TemperatureF)
}

func TestClient_NullHoursStayNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"hourly": map[string]any{
				"time":           []string{"2025-06-01T00:00"},
				"temperature_2m": []any{nil},
			},
		})
	}))
	defer srv.Close()

	client := weather.NewClient(40.7589, -73.9851,
		weather.WithBaseURLs(srv.URL, srv.URL),
		weather.WithHTTPClient(srv.Client()),
	)

	points, err := client.CurrentAndForecast(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 1)
	require.Nil(t, points[0].TemperatureF)
	require.Nil(t, points[0].WindSpeedMPH)
}

func TestMerge(t *testing.T) {
	historical := []weather.Point{
		{Timestamp: "2025-06-01T00:00", TemperatureF: utils.Ptr(60.0)},
		{Timestamp: "2025-06-01T01:00", TemperatureF: utils.Ptr(61.0)},
	}
	current := []weather.Point{
		{Timestamp: "2025-06-01T01:00", TemperatureF: utils.Ptr(99.0)}, // overlapping hour
		{Timestamp: "2025-05-31T23:00", TemperatureF: utils.Ptr(58.0)},
	}

	merged := weather.Merge(historical, current)
	require.Len(t, merged, 3)

	// Sorted by timestamp.
	require.Equal(t, "2025-05-31T23:00", merged[0].Timestamp)
	require.Equal(t, "2025-06-01T00:00", merged[1].Timestamp)
	require.Equal(t, "2025-06-01T01:00", merged[2].Timestamp)

	// The archive value wins for the overlapping hour.
	require.Equal(t, 61.0, *merged[2].TemperatureF)
}
