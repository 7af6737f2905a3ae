// Package forecast is the offline pipeline that predicts the next calendar
// day's electricity consumption in 96 quarter-hour steps from lagged usage
// and hourly weather. It runs from cmd/forecast against the JSON documents
// the collection jobs write into the data folder.
package forecast

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"
)

var tzSuffix = regexp.MustCompile(`[+-]\d{2}:\d{2}$|Z$`)

// MeterSeries is the quarter-hour consumption history indexed by interval
// start.
type MeterSeries struct {
	byTime map[time.Time]float64
	times  []time.Time
}

// WeatherHour is the hourly weather snapshot used as features.
type WeatherHour struct {
	TemperatureF         float64
	ApparentTemperatureF float64
	HumidityPercent      float64
	WindSpeedMPH         float64
	CloudCoverPercent    float64
}

// WeatherHourly indexes weather by the hour it describes.
type WeatherHourly map[time.Time]WeatherHour

type usageFile struct {
	Data []struct {
		StartTime      string  `json:"start_time"`
		ConsumptionKWh float64 `json:"consumption_kwh"`
	} `json:"data"`
}

type weatherFile struct {
	Data []struct {
		Timestamp            string   `json:"timestamp"`
		TemperatureF         *float64 `json:"temperature_f"`
		ApparentTemperatureF *float64 `json:"apparent_temperature_f"`
		HumidityPercent      *float64 `json:"humidity_percent"`
		WindSpeedMPH         *float64 `json:"wind_speed_mph"`
		CloudCoverPercent    *float64 `json:"cloud_cover_percent"`
	} `json:"data"`
}

// LoadMeterSeries reads the electricity usage document. Rows with unparsable
// timestamps are dropped.
func LoadMeterSeries(path string) (*MeterSeries, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file usageFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	series := &MeterSeries{byTime: make(map[time.Time]float64, len(file.Data))}
	for _, row := range file.Data {
		ts, err := parseLocalTime(row.StartTime)
		if err != nil {
			continue
		}
		if _, dup := series.byTime[ts]; !dup {
			series.times = append(series.times, ts)
		}
		series.byTime[ts] = row.ConsumptionKWh
	}
	sort.Slice(series.times, func(i, j int) bool { return series.times[i].Before(series.times[j]) })
	if len(series.times) == 0 {
		return nil, fmt.Errorf("%s holds no usable meter readings", path)
	}
	return series, nil
}

// LoadWeatherHourly reads the weather document, keeping only hours with every
// feature present.
func LoadWeatherHourly(path string) (WeatherHourly, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file weatherFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	hourly := make(WeatherHourly, len(file.Data))
	for _, row := range file.Data {
		ts, err := parseLocalTime(row.Timestamp)
		if err != nil {
			continue
		}
		if row.TemperatureF == nil || row.ApparentTemperatureF == nil ||
			row.HumidityPercent == nil || row.WindSpeedMPH == nil || row.CloudCoverPercent == nil {
			continue
		}
		hourly[ts.Truncate(time.Hour)] = WeatherHour{
			TemperatureF:         *row.TemperatureF,
			ApparentTemperatureF: *row.ApparentTemperatureF,
			HumidityPercent:      *row.HumidityPercent,
			WindSpeedMPH:         *row.WindSpeedMPH,
			CloudCoverPercent:    *row.CloudCoverPercent,
		}
	}
	if len(hourly) == 0 {
		return nil, fmt.Errorf("%s holds no usable weather hours", path)
	}
	return hourly, nil
}

// At returns the consumption at the exact interval start.
func (s *MeterSeries) At(ts time.Time) (float64, bool) {
	v, ok := s.byTime[ts]
	return v, ok
}

// Times returns the sorted interval starts.
func (s *MeterSeries) Times() []time.Time {
	return s.times
}

// Last returns the latest interval start.
func (s *MeterSeries) Last() time.Time {
	return s.times[len(s.times)-1]
}

// parseLocalTime parses collected timestamps as wall-clock time, dropping any
// timezone suffix so meter and weather rows line up on the same axis.
func parseLocalTime(value string) (time.Time, error) {
	trimmed := tzSuffix.ReplaceAllString(value, "")
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", value)
}
