package opower

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ApiError is returned for non-2xx responses from the opower edge API.
type ApiError struct {
	StatusCode int
	URL        string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("opower api: %s returned status %d", e.URL, e.StatusCode)
}

type accountsResponse struct {
	Accounts []struct {
		UUID             string `json:"uuid"`
		UtilityAccountID string `json:"utilityAccountId"`
		MeterType        string `json:"meterType"`
		ReadResolution   string `json:"readResolution"`
	} `json:"accounts"`
}

type readsResponse struct {
	Reads []struct {
		StartTime   time.Time `json:"startTime"`
		EndTime     time.Time `json:"endTime"`
		Consumption struct {
			Value float64 `json:"value"`
		} `json:"consumption"`
	} `json:"reads"`
}

type forecastResponse struct {
	AccountForecasts []struct {
		AccountUUID      string  `json:"accountUuid"`
		UtilityAccountID string  `json:"utilityAccountId"`
		MeterType        string  `json:"meterType"`
		StartDate        string  `json:"startDate"`
		EndDate          string  `json:"endDate"`
		CurrentDate      string  `json:"currentDate"`
		UnitOfMeasure    string  `json:"unitOfMeasure"`
		UsageToDate      float64 `json:"usageToDate"`
		CostToDate       float64 `json:"costToDate"`
		ForecastedUsage  float64 `json:"forecastedUsage"`
		ForecastedCost   float64 `json:"forecastedCost"`
		TypicalUsage     float64 `json:"typicalUsage"`
		TypicalCost      float64 `json:"typicalCost"`
	} `json:"accountForecasts"`
}

// Accounts lists the customer's utility accounts.
func (c *Client) Accounts(ctx context.Context, token string) ([]Account, error) {
	endpoint := fmt.Sprintf("%s/ei/edge/apis/multi-account-v1/cws/%s/customers/current/accounts",
		c.apiBase(), c.utility.Subdomain())

	var resp accountsResponse
	if err := c.getJSON(ctx, endpoint, token, &resp); err != nil {
		return nil, err
	}

	accounts := make([]Account, 0, len(resp.Accounts))
	for _, a := range resp.Accounts {
		accounts = append(accounts, Account{
			UUID:             a.UUID,
			UtilityAccountID: a.UtilityAccountID,
			MeterType:        MeterType(a.MeterType),
			ReadResolution:   ReadResolution(a.ReadResolution),
		})
	}
	return accounts, nil
}

// UsageReads returns metered usage for an account between start and end at
// the requested aggregation.
func (c *Client) UsageReads(ctx context.Context, token string, account Account, aggregate AggregateType, start, end time.Time) ([]UsageRead, error) {
	endpoint := fmt.Sprintf("%s/ei/edge/apis/DataBrowser-v1/cws/utilities/%s/utilityAccounts/%s/reads?%s",
		c.apiBase(), c.utility.Subdomain(), url.PathEscape(account.UUID),
		url.Values{
			"aggregateType": {string(aggregate)},
			"startDate":     {start.Format("2006-01-02")},
			"endDate":       {end.Format("2006-01-02")},
		}.Encode())

	var resp readsResponse
	if err := c.getJSON(ctx, endpoint, token, &resp); err != nil {
		return nil, err
	}
	return convertReads(resp), nil
}

// RealtimeUsageReads returns the most recent (~24h) quarter-hour reads, which
// lag less than the DataBrowser endpoint.
func (c *Client) RealtimeUsageReads(ctx context.Context, token string, account Account) ([]UsageRead, error) {
	endpoint := fmt.Sprintf("%s/ei/edge/apis/usage-realtime-v1/cws/%s/accounts/%s/reads",
		c.apiBase(), c.utility.Subdomain(), url.PathEscape(account.UUID))

	var resp readsResponse
	if err := c.getJSON(ctx, endpoint, token, &resp); err != nil {
		return nil, err
	}
	return convertReads(resp), nil
}

// Forecasts returns the utility's billing-period forecast per account.
func (c *Client) Forecasts(ctx context.Context, token string) ([]Forecast, error) {
	endpoint := fmt.Sprintf("%s/ei/edge/apis/bill-forecast-cws-v1/cws/%s/customers/current/combined-forecast",
		c.apiBase(), c.utility.Subdomain())

	var resp forecastResponse
	if err := c.getJSON(ctx, endpoint, token, &resp); err != nil {
		return nil, err
	}

	forecasts := make([]Forecast, 0, len(resp.AccountForecasts))
	for _, f := range resp.AccountForecasts {
		forecast := Forecast{
			Account: Account{
				UUID:             f.AccountUUID,
				UtilityAccountID: f.UtilityAccountID,
				MeterType:        MeterType(f.MeterType),
			},
			UnitOfMeasure:   UnitOfMeasure(f.UnitOfMeasure),
			UsageToDate:     f.UsageToDate,
			CostToDate:      f.CostToDate,
			ForecastedUsage: f.ForecastedUsage,
			ForecastedCost:  f.ForecastedCost,
			TypicalUsage:    f.TypicalUsage,
			TypicalCost:     f.TypicalCost,
		}
		forecast.StartDate, _ = time.Parse("2006-01-02", f.StartDate)
		forecast.EndDate, _ = time.Parse("2006-01-02", f.EndDate)
		forecast.CurrentDate, _ = time.Parse("2006-01-02", f.CurrentDate)
		forecasts = append(forecasts, forecast)
	}
	return forecasts, nil
}

func convertReads(resp readsResponse) []UsageRead {
	reads := make([]UsageRead, 0, len(resp.Reads))
	for _, r := range resp.Reads {
		reads = append(reads, UsageRead{
			StartTime:   r.StartTime,
			EndTime:     r.EndTime,
			Consumption: r.Consumption.Value,
		})
	}
	return reads
}

func (c *Client) getJSON(ctx context.Context, endpoint, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.transport.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &ApiError{StatusCode: resp.StatusCode, URL: endpoint}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
