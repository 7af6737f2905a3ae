package forecast

import "time"

// FeatureColumns is the fixed feature order fed to the regressor.
var FeatureColumns = []string{
	"hour",
	"day_of_week",
	"month",
	"is_weekend",
	"is_peak_hour",
	"is_summer",
	"is_winter",
	"temperature_f",
	"apparent_temperature_f",
	"humidity_percent",
	"wind_speed_mph",
	"cloud_cover_percent",
	"temp_deviation",
	"heating_degree",
	"cooling_degree",
	"cons_kwh_lag_24h",
}

const (
	comfortBaseF = 65.0
	coolingBaseF = 75.0
	lag          = 24 * time.Hour
)

// Sample is one 15-minute training row.
type Sample struct {
	Timestamp time.Time
	Features  []float64
	Target    float64
}

// BuildTrainingSet turns the meter history into samples. A row exists for an
// interval only when both the consumption exactly 24h earlier and the weather
// for the interval's hour are available.
func BuildTrainingSet(meter *MeterSeries, weather WeatherHourly) []Sample {
	samples := make([]Sample, 0, len(meter.Times()))
	for _, ts := range meter.Times() {
		lagged, ok := meter.At(ts.Add(-lag))
		if !ok {
			continue
		}
		w, ok := weather[ts.Truncate(time.Hour)]
		if !ok {
			continue
		}
		target, _ := meter.At(ts)
		samples = append(samples, Sample{
			Timestamp: ts,
			Features:  FeatureRow(ts, w, lagged),
			Target:    target,
		})
	}
	return samples
}

// FeatureRow builds the feature vector for one interval, in FeatureColumns
// order.
func FeatureRow(ts time.Time, w WeatherHour, lag24h float64) []float64 {
	hour := ts.Hour()
	dow := mondayIndexed(ts.Weekday())
	month := int(ts.Month())

	isWeekend := boolToFloat(dow >= 5)
	isPeak := boolToFloat(hour >= 12 && hour < 20 && dow < 5)
	isSummer := boolToFloat(month >= 6 && month <= 8)
	isWinter := boolToFloat(month == 12 || month <= 2)

	return []float64{
		float64(hour),
		float64(dow),
		float64(month),
		isWeekend,
		isPeak,
		isSummer,
		isWinter,
		w.TemperatureF,
		w.ApparentTemperatureF,
		w.HumidityPercent,
		w.WindSpeedMPH,
		w.CloudCoverPercent,
		w.TemperatureF - comfortBaseF,
		max(0, comfortBaseF-w.TemperatureF),
		max(0, w.TemperatureF-coolingBaseF),
		lag24h,
	}
}

// mondayIndexed maps time.Weekday (Sunday=0) onto Monday=0..Sunday=6.
func mondayIndexed(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
