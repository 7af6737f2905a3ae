// Package weather collects hourly weather for the dashboard's location from
// the free Open-Meteo APIs: the archive API for history (which trails ~1 week
// behind) and the forecast API for the recent past plus the forecast horizon.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"
)

const (
	archiveBaseURL  = "https://archive-api.open-meteo.com/v1/archive"
	forecastBaseURL = "https://api.open-meteo.com/v1/forecast"

	// chunkDelay spaces archive requests out of politeness to the free API.
	chunkDelay = 1 * time.Second

	pastDays     = 7
	forecastDays = 30
)

var hourlyFields = []string{
	"temperature_2m",
	"relative_humidity_2m",
	"apparent_temperature",
	"precipitation",
	"cloud_cover",
	"wind_speed_10m",
}

// Point is one hour of weather. Fields are pointers because Open-Meteo
// reports null for hours it has no data for.
type Point struct {
	Timestamp            string   `json:"timestamp"`
	TemperatureF         *float64 `json:"temperature_f"`
	ApparentTemperatureF *float64 `json:"apparent_temperature_f"`
	HumidityPercent      *float64 `json:"humidity_percent"`
	PrecipitationInch    *float64 `json:"precipitation_inch"`
	CloudCoverPercent    *float64 `json:"cloud_cover_percent"`
	WindSpeedMPH         *float64 `json:"wind_speed_mph"`
}

// Client fetches hourly weather for a fixed location.
type Client struct {
	httpClient  *http.Client
	archiveURL  string
	forecastURL string
	latitude    float64
	longitude   float64
	timezone    string
	sleep       func(ctx context.Context, d time.Duration)
}

// ClientOption modifies a Client instance.
type ClientOption func(*Client)

// WithBaseURLs overrides the API endpoints (primarily for testing).
func WithBaseURLs(archive, forecast string) ClientOption {
	return func(c *Client) {
		c.archiveURL = archive
		c.forecastURL = forecast
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithNoDelay disables the politeness delay between archive chunks (tests).
func WithNoDelay() ClientOption {
	return func(c *Client) {
		c.sleep = func(context.Context, time.Duration) {}
	}
}

// NewClient creates a weather client for the given coordinates.
func NewClient(latitude, longitude float64, options ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		archiveURL:  archiveBaseURL,
		forecastURL: forecastBaseURL,
		latitude:    latitude,
		longitude:   longitude,
		timezone:    "America/New_York",
		sleep: func(ctx context.Context, d time.Duration) {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
			}
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

type hourlyResponse struct {
	Hourly struct {
		Time                []string   `json:"time"`
		Temperature2m       []*float64 `json:"temperature_2m"`
		RelativeHumidity2m  []*float64 `json:"relative_humidity_2m"`
		ApparentTemperature []*float64 `json:"apparent_temperature"`
		Precipitation       []*float64 `json:"precipitation"`
		CloudCover          []*float64 `json:"cloud_cover"`
		WindSpeed10m        []*float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
}

// Historical fetches archived hourly weather between start and end, one
// month-sized chunk per request. The archive trails the present by about a
// week, so end should be at least 8 days back.
func (c *Client) Historical(ctx context.Context, start, end time.Time) ([]Point, error) {
	var points []Point

	for current := start; current.Before(end); {
		chunkEnd := current.AddDate(0, 1, 0)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		params := c.baseParams()
		params.Set("start_date", current.Format("2006-01-02"))
		params.Set("end_date", chunkEnd.Format("2006-01-02"))

		chunk, err := c.fetch(ctx, c.archiveURL, params)
		if err != nil {
			return nil, fmt.Errorf("archive chunk %s..%s: %w",
				current.Format("2006-01-02"), chunkEnd.Format("2006-01-02"), err)
		}
		points = append(points, chunk...)

		current = chunkEnd.AddDate(0, 0, 1)
		if current.Before(end) {
			c.sleep(ctx, chunkDelay)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
	}
	return points, nil
}

// CurrentAndForecast fetches the last week plus the forecast horizon.
func (c *Client) CurrentAndForecast(ctx context.Context) ([]Point, error) {
	params := c.baseParams()
	params.Set("past_days", strconv.Itoa(pastDays))
	params.Set("forecast_days", strconv.Itoa(forecastDays))
	return c.fetch(ctx, c.forecastURL, params)
}

// Merge combines historical and current/forecast points, preferring the
// historical value for duplicate hours, sorted by timestamp.
func Merge(historical, current []Point) []Point {
	seen := make(map[string]struct{}, len(historical))
	merged := make([]Point, 0, len(historical)+len(current))
	for _, p := range historical {
		seen[p.Timestamp] = struct{}{}
		merged = append(merged, p)
	}
	for _, p := range current {
		if _, dup := seen[p.Timestamp]; dup {
			continue
		}
		merged = append(merged, p)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	return merged
}

func (c *Client) baseParams() url.Values {
	return url.Values{
		"latitude":           {strconv.FormatFloat(c.latitude, 'f', 4, 64)},
		"longitude":          {strconv.FormatFloat(c.longitude, 'f', 4, 64)},
		"hourly":             hourlyFields,
		"temperature_unit":   {"fahrenheit"},
		"wind_speed_unit":    {"mph"},
		"precipitation_unit": {"inch"},
		"timezone":           {c.timezone},
	}
}

func (c *Client) fetch(ctx context.Context, baseURL string, params url.Values) ([]Point, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("open-meteo returned status %d", resp.StatusCode)
	}

	var decoded hourlyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}

	hourly := decoded.Hourly
	points := make([]Point, 0, len(hourly.Time))
	for i, ts := range hourly.Time {
		points = append(points, Point{
			Timestamp:            ts,
			TemperatureF:         at(hourly.Temperature2m, i),
			ApparentTemperatureF: at(hourly.ApparentTemperature, i),
			HumidityPercent:      at(hourly.RelativeHumidity2m, i),
			PrecipitationInch:    at(hourly.Precipitation, i),
			CloudCoverPercent:    at(hourly.CloudCover, i),
			WindSpeedMPH:         at(hourly.WindSpeed10m, i),
		})
	}
	return points, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
