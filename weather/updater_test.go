package weather_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skortchmar/livewire/weather"
)

func TestStore(t *testing.T) {
	store := weather.NewStore()

	_, ok := store.Get()
	require.False(t, ok, "empty store reports no document")
	require.True(t, store.LastUpdated().IsZero())

	doc := &weather.Document{Status: "success"}
	store.Set(doc)

	got, ok := store.Get()
	require.True(t, ok)
	require.Same(t, doc, got)
	require.False(t, store.LastUpdated().IsZero())
}

func TestUpdaterUpdateOnce(t *testing.T) {
	archive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(hourlyPayload([]string{"2025-05-02T00:00", "2025-05-02T01:00"}, 55))
	}))
	defer archive.Close()

	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(hourlyPayload([]string{"2025-05-02T01:00", "2025-06-02T00:00"}, 70))
	}))
	defer forecast.Close()

	client := weather.NewClient(40.7589, -73.9851,
		weather.WithBaseURLs(archive.URL, forecast.URL),
		weather.WithHTTPClient(archive.Client()),
		weather.WithNoDelay(),
	)
	store := weather.NewStore()
	updater := weather.NewUpdater(client, store, time.Hour)

	require.NoError(t, updater.UpdateOnce(context.Background()))

	doc, ok := store.Get()
	require.True(t, ok)
	require.Equal(t, "success", doc.Status)
	require.Len(t, doc.WeatherData, 3, "overlapping hour deduplicated")
	require.Equal(t, 3, doc.Metadata.TotalRecords)
	require.Equal(t, "2025-05-02", doc.Metadata.StartDate)
	require.Equal(t, "2025-06-02", doc.Metadata.EndDate)
	require.Equal(t, "NYC (Central Park)", doc.Metadata.Location)
	require.True(t, doc.Metadata.IncludesForecast)

	// The archive reading wins for the overlapping hour.
	require.Equal(t, 55.0, *doc.WeatherData[1].TemperatureF)
}

func TestUpdaterUpdateOnce_FetchFailureKeepsOldDocument(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer failing.Close()

	client := weather.NewClient(40.7589, -73.9851,
		weather.WithBaseURLs(failing.URL, failing.URL),
		weather.WithHTTPClient(failing.Client()),
		weather.WithNoDelay(),
	)
	store := weather.NewStore()
	previous := &weather.Document{Status: "success"}
	store.Set(previous)

	updater := weather.NewUpdater(client, store, time.Hour)
	require.Error(t, updater.UpdateOnce(context.Background()))

	doc, ok := store.Get()
	require.True(t, ok)
	require.Same(t, previous, doc)
}

func TestUpdaterRun_StopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(hourlyPayload([]string{"2025-06-01T00:00"}, 70))
	}))
	defer srv.Close()

	client := weather.NewClient(40.7589, -73.9851,
		weather.WithBaseURLs(srv.URL, srv.URL),
		weather.WithHTTPClient(srv.Client()),
		weather.WithNoDelay(),
	)
	updater := weather.NewUpdater(client, weather.NewStore(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- updater.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		// Cancellation is a clean stop, not a failure to report upward.
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("updater did not stop on cancellation")
	}
}
