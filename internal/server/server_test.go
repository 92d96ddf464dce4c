package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cybership/rating/internal/server"
	"github.com/cybership/rating/internal/telemetry"
	"github.com/cybership/rating/pkg/carrier"
	"github.com/cybership/rating/pkg/carrier/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Prometheus collectors register globally, so the whole test binary
// shares one Metrics instance.
var testMetrics = telemetry.NewMetrics()

func newTestHandler(clients ...*mock.Client) http.Handler {
	registry := carrier.NewRegistry()
	for _, c := range clients {
		registry.Register(c)
	}
	srv := server.New(server.Config{Port: 0}, carrier.NewService(registry),
		otelzap.New(zap.NewNop()), testMetrics)
	return srv.Handler()
}

func ratesBody() map[string]any {
	return map[string]any{
		"origin": map[string]any{
			"addressLines":      []string{"2311 York Rd"},
			"city":              "Timonium",
			"stateProvinceCode": "MD",
			"postalCode":        "21093",
			"countryCode":       "US",
		},
		"destination": map[string]any{
			"addressLines":      []string{"100 Main St"},
			"city":              "Alpharetta",
			"stateProvinceCode": "GA",
			"postalCode":        "30005",
			"countryCode":       "US",
		},
		"parcel": map[string]any{
			"weightLbs": 5,
			"lengthIn":  10,
			"widthIn":   8,
			"heightIn":  6,
		},
	}
}

func postRates(t *testing.T, handler http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/rates", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRates_Success(t *testing.T) {
	handler := newTestHandler(mock.New("ups"))

	rec := postRates(t, handler, ratesBody())

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RequestID string `json:"requestId"`
		Quotes    []struct {
			Carrier              string `json:"carrier"`
			ServiceCode          string `json:"serviceCode"`
			Amount               string `json:"amount"`
			Currency             string `json:"currency"`
			EstimatedTransitDays *int   `json:"estimatedTransitDays"`
		} `json:"quotes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	require.Len(t, resp.Quotes, 2)
	assert.Equal(t, "ups", resp.Quotes[0].Carrier)
	assert.Equal(t, "STANDARD", resp.Quotes[0].ServiceCode)
	assert.Equal(t, "15.82", resp.Quotes[0].Amount)
	assert.Equal(t, "USD", resp.Quotes[0].Currency)
	require.NotNil(t, resp.Quotes[0].EstimatedTransitDays)
	assert.Equal(t, 4, *resp.Quotes[0].EstimatedTransitDays)
}

func TestRates_ExplicitCarrier(t *testing.T) {
	upsClient := mock.New("ups")
	fedexClient := mock.New("fedex")
	handler := newTestHandler(upsClient, fedexClient)

	body := ratesBody()
	body["carrierId"] = "fedex"
	rec := postRates(t, handler, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, upsClient.Calls())
	assert.Equal(t, 1, fedexClient.Calls())
}

func TestRates_MethodNotAllowed(t *testing.T) {
	handler := newTestHandler(mock.New("ups"))

	req := httptest.NewRequest(http.MethodGet, "/v1/rates", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRates_InvalidJSON(t *testing.T) {
	handler := newTestHandler(mock.New("ups"))

	req := httptest.NewRequest(http.MethodPost, "/v1/rates", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRates_ValidationFailure(t *testing.T) {
	client := mock.New("ups")
	handler := newTestHandler(client)

	body := ratesBody()
	body["parcel"].(map[string]any)["weightLbs"] = -1
	rec := postRates(t, handler, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, client.Calls())

	var resp struct {
		Error struct {
			Kind      string `json:"kind"`
			Retryable bool   `json:"retryable"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(carrier.ErrorValidation), resp.Error.Kind)
	assert.False(t, resp.Error.Retryable)
}

func TestRates_ErrorKindToHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *carrier.Error
		status int
	}{
		{"bad request", carrier.NewBadRequest("invalid address", 400, "110208"), http.StatusBadRequest},
		{"rate limited", carrier.NewRateLimited("throttled", 429), http.StatusTooManyRequests},
		{"timeout", carrier.NewTimeout("too slow"), http.StatusGatewayTimeout},
		{"carrier error", carrier.NewCarrierError("upstream broke", 500, ""), http.StatusBadGateway},
		{"network error", carrier.NewNetworkError("unreachable", nil), http.StatusBadGateway},
		{"token expired", carrier.NewAuthTokenExpired("refresh failed"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := mock.New("ups")
			client.OnGetRates = func(ctx context.Context, req *carrier.RateRequest) (*carrier.RateQuoteResult, error) {
				return nil, tt.err
			}
			handler := newTestHandler(client)

			rec := postRates(t, handler, ratesBody())

			assert.Equal(t, tt.status, rec.Code)

			var resp struct {
				Error struct {
					Kind      string `json:"kind"`
					Message   string `json:"message"`
					Retryable bool   `json:"retryable"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.err.Kind), resp.Error.Kind)
			assert.Equal(t, tt.err.Message, resp.Error.Message)
			assert.Equal(t, tt.err.Retryable, resp.Error.Retryable)
		})
	}
}

func TestRates_UnknownCarrier(t *testing.T) {
	handler := newTestHandler(mock.New("ups"))

	body := ratesBody()
	body["carrierId"] = "dhl"
	rec := postRates(t, handler, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported carrier")
}
