package config

import "time"

type UtilityConfig struct {
	// Name selects the utility adapter ("coned", "comed", "bge", ...).
	Name string `env:"UTILITY" envDefault:"coned"`

	// TOTPSecret, when set, lets the client answer MFA challenges itself
	// instead of prompting the caller.
	TOTPSecret string `env:"CONED_TOTP_SECRET"`
}

type WeatherConfig struct {
	// Latitude/Longitude default to Central Park, NYC.
	Latitude  float64 `env:"WEATHER_LATITUDE" envDefault:"40.7589"`
	Longitude float64 `env:"WEATHER_LONGITUDE" envDefault:"-73.9851"`

	// UpdateInterval is how often the background updater refreshes weather.
	UpdateInterval time.Duration `env:"WEATHER_UPDATE_INTERVAL" envDefault:"6h"`
}

func (c *WeatherConfig) Sanitize() {
	if c.UpdateInterval <= 0 {
		c.UpdateInterval = 6 * time.Hour
	}
}

type DataConfig struct {
	// Folder holds collected documents and the offline pipeline's artifacts.
	Folder string `env:"DATA_FOLDER" envDefault:"./data"`
}
