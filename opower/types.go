// Package opower is a client for the opower.com JSON API used by utility
// companies for historical and forecasted usage/cost data. Login flows are
// per-utility; data reads go through the shared edge API with a bearer token.
package opower

import "time"

type MeterType string

const (
	MeterElec MeterType = "ELEC"
	MeterGas  MeterType = "GAS"
)

type UnitOfMeasure string

const (
	UnitKWH   UnitOfMeasure = "KWH"
	UnitTherm UnitOfMeasure = "THERM"
)

// AggregateType selects the resolution of usage reads.
type AggregateType string

const (
	AggregateBill        AggregateType = "bill"
	AggregateDay         AggregateType = "day"
	AggregateHour        AggregateType = "hour"
	AggregateQuarterHour AggregateType = "quarter_hour"
)

// ReadResolution is the finest resolution a meter supports.
type ReadResolution string

const (
	ResolutionBilling     ReadResolution = "BILLING"
	ResolutionDay         ReadResolution = "DAY"
	ResolutionHour        ReadResolution = "HOUR"
	ResolutionQuarterHour ReadResolution = "QUARTER_HOUR"
)

// Account is a utility account attached to the customer.
type Account struct {
	UUID             string
	UtilityAccountID string
	MeterType        MeterType
	ReadResolution   ReadResolution
}

// UsageRead is one metered interval.
type UsageRead struct {
	StartTime   time.Time
	EndTime     time.Time
	Consumption float64
}

// Forecast is the utility's billing-period projection for one account.
type Forecast struct {
	Account         Account
	StartDate       time.Time
	EndDate         time.Time
	CurrentDate     time.Time
	UnitOfMeasure   UnitOfMeasure
	UsageToDate     float64
	CostToDate      float64
	ForecastedUsage float64
	ForecastedCost  float64
	TypicalUsage    float64
	TypicalCost     float64
}
