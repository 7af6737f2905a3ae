package opower_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skortchmar/livewire/opower"
)

func newAPIClient(t *testing.T, handler http.Handler) (*opower.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := opower.NewClient("coned", opower.WithTransport(opower.Transport{
		HTTPClient: srv.Client(),
		APIBase:    srv.URL,
	}))
	require.NoError(t, err)
	return client, srv
}

func TestClientAccounts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ei/edge/apis/multi-account-v1/cws/cned/customers/current/accounts", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"accounts": []map[string]string{
				{"uuid": "elec-uuid", "utilityAccountId": "100200", "meterType": "ELEC", "readResolution": "QUARTER_HOUR"},
				{"uuid": "gas-uuid", "utilityAccountId": "100201", "meterType": "GAS", "readResolution": "BILL"},
			},
		})
	})

	client, _ := newAPIClient(t, mux)
	accounts, err := client.Accounts(context.Background(), "test-token")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, opower.MeterElec, accounts[0].MeterType)
	require.Equal(t, opower.ResolutionQuarterHour, accounts[0].ReadResolution)
	require.Equal(t, opower.MeterGas, accounts[1].MeterType)
}

func TestClientUsageReads(t *testing.T) {
	var gotQuery map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ei/edge/apis/DataBrowser-v1/cws/utilities/cned/utilityAccounts/elec-uuid/reads", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"aggregateType": r.URL.Query().Get("aggregateType"),
			"startDate":     r.URL.Query().Get("startDate"),
			"endDate":       r.URL.Query().Get("endDate"),
		}
		json.NewEncoder(w).Encode(map[string]any{
			"reads": []map[string]any{
				{
					"startTime":   "2025-06-01T00:00:00Z",
					"endTime":     "2025-06-01T00:15:00Z",
					"consumption": map[string]float64{"value": 0.42},
				},
			},
		})
	})

	client, _ := newAPIClient(t, mux)
	account := opower.Account{UUID: "elec-uuid", MeterType: opower.MeterElec}
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	reads, err := client.UsageReads(context.Background(), "test-token", account, opower.AggregateQuarterHour, start, end)
	require.NoError(t, err)
	require.Len(t, reads, 1)
	require.Equal(t, 0.42, reads[0].Consumption)
	require.Equal(t, "QUARTER_HOUR", gotQuery["aggregateType"])
	require.Equal(t, "2025-06-01", gotQuery["startDate"])
	require.Equal(t, "2025-06-08", gotQuery["endDate"])
}

func TestClientRealtimeUsageReads(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ei/edge/apis/usage-realtime-v1/cws/cned/accounts/elec-uuid/reads", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"reads": []map[string]any{
				{
					"startTime":   "2025-06-01T10:00:00Z",
					"endTime":     "2025-06-01T10:15:00Z",
					"consumption": map[string]float64{"value": 0.17},
				},
			},
		})
	})

	client, _ := newAPIClient(t, mux)
	reads, err := client.RealtimeUsageReads(context.Background(), "test-token", opower.Account{UUID: "elec-uuid"})
	require.NoError(t, err)
	require.Len(t, reads, 1)
	require.Equal(t, 0.17, reads[0].Consumption)
}

func TestClientForecasts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ei/edge/apis/bill-forecast-cws-v1/cws/cned/customers/current/combined-forecast", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"accountForecasts": []map[string]any{
				{
					"accountUuid":      "elec-uuid",
					"utilityAccountId": "100200",
					"meterType":        "ELEC",
					"startDate":        "2025-05-15",
					"endDate":          "2025-06-14",
					"currentDate":      "2025-06-01",
					"unitOfMeasure":    "KWH",
					"usageToDate":      120.5,
					"costToDate":       38.2,
					"forecastedUsage":  240.0,
					"forecastedCost":   76.0,
					"typicalUsage":     230.0,
					"typicalCost":      73.5,
				},
			},
		})
	})

	client, _ := newAPIClient(t, mux)
	forecasts, err := client.Forecasts(context.Background(), "test-token")
	require.NoError(t, err)
	require.Len(t, forecasts, 1)

	f := forecasts[0]
	require.Equal(t, opower.MeterElec, f.Account.MeterType)
	require.Equal(t, opower.UnitKWH, f.UnitOfMeasure)
	require.Equal(t, 240.0, f.ForecastedUsage)
	require.Equal(t, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC), f.StartDate)
}

func TestClientAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	})

	client, _ := newAPIClient(t, mux)
	_, err := client.Accounts(context.Background(), "stale-token")
	require.Error(t, err)

	var apiErr *opower.ApiError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
