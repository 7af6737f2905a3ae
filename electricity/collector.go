// Package electricity collects 15-minute usage and billing forecasts from the
// utility on behalf of an authenticated session.
package electricity

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	interrors "github.com/skortchmar/livewire/internal/errors"
	"github.com/skortchmar/livewire/opower"
)

const (
	// chunkDays bounds each usage-read request; the utility API rejects wide
	// quarter-hour ranges.
	chunkDays = 7

	// historyDays is how far back the collection window reaches.
	historyDays = 30
)

// UsageAPI is the slice of the opower client the collector needs.
type UsageAPI interface {
	Accounts(ctx context.Context, token string) ([]opower.Account, error)
	UsageReads(ctx context.Context, token string, account opower.Account, aggregate opower.AggregateType, start, end time.Time) ([]opower.UsageRead, error)
	RealtimeUsageReads(ctx context.Context, token string, account opower.Account) ([]opower.UsageRead, error)
	Forecasts(ctx context.Context, token string) ([]opower.Forecast, error)
}

// UsagePoint is one quarter-hour interval in the collected document.
type UsagePoint struct {
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ConsumptionKWh float64   `json:"consumption_kwh"`
	ProvidedCost   *float64  `json:"provided_cost"`
}

// ForecastInfo is the billing-period forecast for an electric account.
type ForecastInfo struct {
	BillStartDate   string  `json:"bill_start_date"`
	BillEndDate     string  `json:"bill_end_date"`
	CurrentDate     string  `json:"current_date"`
	UnitOfMeasure   string  `json:"unit_of_measure"`
	UsageToDate     float64 `json:"usage_to_date"`
	CostToDate      float64 `json:"cost_to_date"`
	ForecastedUsage float64 `json:"forecasted_usage"`
	ForecastedCost  float64 `json:"forecasted_cost"`
	TypicalUsage    float64 `json:"typical_usage"`
	TypicalCost     float64 `json:"typical_cost"`
	AccountID       string  `json:"account_id"`
}

// Metadata describes one collection run.
type Metadata struct {
	CollectionDate time.Time `json:"collection_date"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	TotalRecords   int       `json:"total_records"`
}

// Result is the combined document served to the front end.
type Result struct {
	Status       string         `json:"status"`
	UsageData    []UsagePoint   `json:"usage_data"`
	ForecastData []ForecastInfo `json:"forecast_data"`
	Metadata     Metadata       `json:"metadata"`
}

// Collector drives usage and forecast collection through a UsageAPI.
type Collector struct {
	api     UsageAPI
	nowTime func() time.Time
}

// CollectorOption modifies a Collector instance.
type CollectorOption func(*Collector)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) CollectorOption {
	return func(c *Collector) {
		c.nowTime = nowFunc
	}
}

// NewCollector creates a collector over the given API.
func NewCollector(api UsageAPI, options ...CollectorOption) *Collector {
	c := &Collector{api: api, nowTime: time.Now}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Collect gathers the last 30 days of quarter-hour usage plus the billing
// forecast for the customer's electric account.
func (c *Collector) Collect(ctx context.Context, token string) (*Result, error) {
	// A token past its exp claim cannot authorize reads; force a re-login
	// instead of burning requests.
	if expiry, err := opower.TokenExpiry(token); err == nil && c.nowTime().After(expiry) {
		return nil, interrors.ErrNoAccessToken
	}

	account, err := c.ElectricAccount(ctx, token)
	if err != nil {
		return nil, err
	}

	now := c.nowTime()
	start := now.AddDate(0, 0, -historyDays)
	end := now.AddDate(0, 0, 1)

	usage, err := c.CollectUsage(ctx, token, account, start, end)
	if err != nil {
		return nil, err
	}

	forecasts, err := c.CollectForecasts(ctx, token)
	if err != nil {
		// Forecast data is a nice-to-have; usage alone still renders.
		log.Warn().Str("error", err.Error()).Msg("forecast collection failed")
		forecasts = nil
	}

	status := "success"
	if len(usage) == 0 {
		status = "no_data"
	}
	return &Result{
		Status:       status,
		UsageData:    usage,
		ForecastData: forecasts,
		Metadata: Metadata{
			CollectionDate: now,
			StartDate:      start.Format("2006-01-02"),
			EndDate:        end.Format("2006-01-02"),
			TotalRecords:   len(usage),
		},
	}, nil
}

// ElectricAccount picks the first electric account read at quarter-hour
// resolution.
func (c *Collector) ElectricAccount(ctx context.Context, token string) (opower.Account, error) {
	accounts, err := c.api.Accounts(ctx, token)
	if err != nil {
		return opower.Account{}, err
	}
	if len(accounts) == 0 {
		return opower.Account{}, interrors.ErrNoAccounts
	}
	for _, account := range accounts {
		if account.MeterType == opower.MeterElec && account.ReadResolution == opower.ResolutionQuarterHour {
			return account, nil
		}
	}
	return opower.Account{}, interrors.ErrNoElectricAccount
}

// CollectUsage reads quarter-hour usage in week-sized chunks, appends the
// realtime reads for the freshest data, and dedupes on interval start. A
// failed chunk is logged and skipped; partial history is better than none.
func (c *Collector) CollectUsage(ctx context.Context, token string, account opower.Account, start, end time.Time) ([]UsagePoint, error) {
	var reads []opower.UsageRead

	for current := start; current.Before(end); {
		chunkEnd := current.AddDate(0, 0, chunkDays)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		chunk, err := c.api.UsageReads(ctx, token, account, opower.AggregateQuarterHour, current, chunkEnd)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().
				Str("start", current.Format("2006-01-02")).
				Str("end", chunkEnd.Format("2006-01-02")).
				Str("error", err.Error()).
				Msg("usage chunk failed")
		} else {
			reads = append(reads, chunk...)
		}
		current = chunkEnd
	}

	realtime, err := c.api.RealtimeUsageReads(ctx, token, account)
	if err != nil {
		log.Warn().Str("error", err.Error()).Msg("realtime reads failed")
	} else {
		reads = append(reads, realtime...)
	}

	seen := make(map[time.Time]struct{}, len(reads))
	points := make([]UsagePoint, 0, len(reads))
	for _, read := range reads {
		if _, dup := seen[read.StartTime]; dup {
			continue
		}
		seen[read.StartTime] = struct{}{}
		points = append(points, UsagePoint{
			StartTime:      read.StartTime,
			EndTime:        read.EndTime,
			ConsumptionKWh: read.Consumption,
			// Cost is not available on usage reads.
			ProvidedCost: nil,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].StartTime.Before(points[j].StartTime) })
	return points, nil
}

// CollectForecasts returns the billing forecasts for electric meters only.
func (c *Collector) CollectForecasts(ctx context.Context, token string) ([]ForecastInfo, error) {
	forecasts, err := c.api.Forecasts(ctx, token)
	if err != nil {
		return nil, err
	}

	infos := make([]ForecastInfo, 0, len(forecasts))
	for _, f := range forecasts {
		if f.Account.MeterType != opower.MeterElec {
			continue
		}
		infos = append(infos, ForecastInfo{
			BillStartDate:   f.StartDate.Format("2006-01-02"),
			BillEndDate:     f.EndDate.Format("2006-01-02"),
			CurrentDate:     f.CurrentDate.Format("2006-01-02"),
			UnitOfMeasure:   string(f.UnitOfMeasure),
			UsageToDate:     f.UsageToDate,
			CostToDate:      f.CostToDate,
			ForecastedUsage: f.ForecastedUsage,
			ForecastedCost:  f.ForecastedCost,
			TypicalUsage:    f.TypicalUsage,
			TypicalCost:     f.TypicalCost,
			AccountID:       f.Account.UtilityAccountID,
		})
	}
	return infos, nil
}
