package weather

import (
	"sync"
	"time"
)

// Metadata describes one weather collection run.
type Metadata struct {
	CollectionDate   time.Time `json:"collection_date"`
	StartDate        string    `json:"start_date"`
	EndDate          string    `json:"end_date"`
	TotalRecords     int       `json:"total_records"`
	Location         string    `json:"location"`
	Sources          []string  `json:"sources"`
	IncludesForecast bool      `json:"includes_forecast"`
	ForecastDays     int       `json:"forecast_days"`
}

// Document is the stored weather payload served to the front end.
type Document struct {
	Status      string   `json:"status"`
	WeatherData []Point  `json:"weather_data"`
	Metadata    Metadata `json:"metadata"`
}

// Store holds the latest weather document in memory. The updater is the only
// writer; HTTP handlers read concurrently.
type Store struct {
	mu          sync.RWMutex
	doc         *Document
	lastUpdated time.Time
}

// NewStore creates an empty weather store.
func NewStore() *Store {
	return &Store{}
}

// Set replaces the stored document.
func (s *Store) Set(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.lastUpdated = time.Now()
}

// Get returns the stored document, or ok=false before the first update.
func (s *Store) Get() (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil, false
	}
	return s.doc, true
}

// LastUpdated returns when the document was last replaced.
func (s *Store) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}
