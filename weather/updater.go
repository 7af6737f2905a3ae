package weather

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

const locationLabel = "NYC (Central Park)"

// WeatherDocumentName is the weather export consumed by the forecast
// pipeline.
const WeatherDocumentName = "weather_data.json"

// Updater periodically refreshes the weather store. Run it once from main;
// it stops when the context is cancelled.
type Updater struct {
	client     *Client
	store      *Store
	interval   time.Duration
	dataFolder string
	nowTime    func() time.Time
}

// UpdaterOption modifies an Updater instance.
type UpdaterOption func(*Updater)

// WithDataFolder also exports each collected document as a JSON file for the
// offline forecast pipeline.
func WithDataFolder(folder string) UpdaterOption {
	return func(u *Updater) {
		u.dataFolder = folder
	}
}

// NewUpdater creates an updater refreshing store every interval.
func NewUpdater(client *Client, store *Store, interval time.Duration, options ...UpdaterOption) *Updater {
	u := &Updater{
		client:   client,
		store:    store,
		interval: interval,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(u)
	}
	return u
}

// Run updates immediately, then on every tick until ctx is done. A failed
// update keeps the previous document and retries on the next tick.
// Cancellation is the normal way to stop the loop, so it returns nil.
func (u *Updater) Run(ctx context.Context) error {
	if err := u.UpdateOnce(ctx); err != nil {
		log.Error().Str("error", err.Error()).Msg("initial weather update failed")
	}

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := u.UpdateOnce(ctx); err != nil {
				log.Error().Str("error", err.Error()).Msg("weather update failed")
			}
		}
	}
}

// UpdateOnce collects a full weather document and stores it: archived history
// for the last 30 days (the archive stops ~8 days back) merged with the
// forecast API's recent past + forecast horizon.
func (u *Updater) UpdateOnce(ctx context.Context) error {
	now := u.nowTime()
	start := now.AddDate(0, 0, -30)
	historicalEnd := now.AddDate(0, 0, -8)

	var historical []Point
	if historicalEnd.After(start) {
		var err error
		historical, err = u.client.Historical(ctx, start, historicalEnd)
		if err != nil {
			return err
		}
	}

	current, err := u.client.CurrentAndForecast(ctx)
	if err != nil {
		return err
	}

	merged := Merge(historical, current)

	startDate := start.Format("2006-01-02")
	endDate := now.Format("2006-01-02")
	if len(merged) > 0 {
		startDate = dateOf(merged[0].Timestamp)
		endDate = dateOf(merged[len(merged)-1].Timestamp)
	}

	doc := &Document{
		Status:      "success",
		WeatherData: merged,
		Metadata: Metadata{
			CollectionDate: now,
			StartDate:      startDate,
			EndDate:        endDate,
			TotalRecords:   len(merged),
			Location:       locationLabel,
			Sources: []string{
				"Open-Meteo Archive API (historical)",
				"Open-Meteo Forecast API (current + forecast)",
			},
			IncludesForecast: true,
			ForecastDays:     forecastDays,
		},
	}
	u.store.Set(doc)

	if u.dataFolder != "" {
		if err := writeWeatherDocument(u.dataFolder, doc); err != nil {
			log.Warn().Str("error", err.Error()).Msg("weather export failed")
		}
	}
	log.Info().Int("records", len(merged)).Msg("weather data updated")
	return nil
}

// writeWeatherDocument exports the document with its points under "data",
// the shape the forecast pipeline reads.
func writeWeatherDocument(folder string, doc *Document) error {
	raw, err := json.MarshalIndent(struct {
		Data     []Point  `json:"data"`
		Metadata Metadata `json:"metadata"`
	}{Data: doc.WeatherData, Metadata: doc.Metadata}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(folder, WeatherDocumentName), raw, 0o644)
}

// dateOf trims an Open-Meteo hourly timestamp ("2006-01-02T15:04") to its day.
func dateOf(timestamp string) string {
	if len(timestamp) >= 10 {
		return timestamp[:10]
	}
	return timestamp
}
