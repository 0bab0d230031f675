package carrier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid config", func(*Config) {}, nil},
		{"missing api key", func(c *Config) { c.APIKey = "" }, ErrConfigMissingAPIKey},
		{"relative base url", func(c *Config) { c.BaseURL = "api.easypost.com" }, ErrConfigInvalidBaseURL},
		{"ftp base url", func(c *Config) { c.BaseURL = "ftp://api.easypost.com" }, ErrConfigInvalidBaseURL},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrConfigInvalidTimeout},
		{"negative qps", func(c *Config) { c.RateLimitQPS = -1 }, ErrConfigInvalidRate},
		{"limiter disabled", func(c *Config) { c.RateLimitQPS = 0 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("EZTK_test")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	_, err := NewClient(nil)
	assert.ErrorIs(t, err, ErrConfigMissingAPIKey)

	_, err = NewClient(&Config{BaseURL: DefaultBaseURL, Timeout: time.Second})
	assert.ErrorIs(t, err, ErrConfigMissingAPIKey)
}

// ---------------------------------------------------------------------------
// Client Tests
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := NewConfig("EZTK_test")
	cfg.BaseURL = srv.URL
	cfg.RateLimitQPS = 0
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := io.WriteString(w, body)
	require.NoError(t, err)
}

const shipmentJSON = `{
	"id": "shp_123",
	"to_address": {"name": "Jane Doe", "street1": "1 Main St", "city": "Boston", "state": "MA", "zip": "02101", "country": "us"},
	"from_address": {"name": "Warehouse", "street1": "9 Dock Rd", "country": "US"},
	"rates": [
		{"id": "rate_1", "carrier": "USPS", "service": "Priority", "rate": "7.58", "currency": "USD", "delivery_days": 2},
		{"id": "rate_2", "carrier": "UPSDAP", "service": "Ground", "rate": 11.2, "currency": "USD", "delivery_days": null}
	],
	"messages": [{"carrier": "FedEx", "type": "rate_error", "message": "account not enabled"}]
}`

func TestClient_CreateQuote(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/shipments", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "EZTK_test", user)
		assert.Empty(t, pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusCreated, shipmentJSON)
	})

	customs := &shipment.CustomsDeclaration{
		Items: []shipment.CustomsItem{{
			Description: "T-shirt", Quantity: 2, Value: decimal.RequireFromString("12.50"),
			WeightOz: 8, HSCode: "6109.10", OriginCountry: "US",
		}},
		SignerName:   "Shipping Manager",
		Incoterm:     shipment.IncotermDDU,
		ContentsType: "merchandise",
		Certified:    true,
	}
	quote, err := c.CreateQuote(context.Background(), shipment.QuoteRequest{
		To:        shipment.Address{Name: "Jane Doe", Street1: "1 Main St", Country: "GB"},
		From:      shipment.Address{Name: "Warehouse", Street1: "9 Dock Rd", Country: "US"},
		Parcel:    shipment.Parcel{Length: 10, Width: 8, Height: 4, WeightOz: 16},
		Customs:   customs,
		Reference: "line-3",
	})
	require.NoError(t, err)

	body := got["shipment"].(map[string]any)
	assert.Equal(t, "line-3", body["reference"])
	assert.Equal(t, float64(16), body["parcel"].(map[string]any)["weight"])
	info := body["customs_info"].(map[string]any)
	assert.Equal(t, "Shipping Manager", info["customs_signer"])
	assert.Equal(t, true, info["customs_certify"])
	item := info["customs_items"].([]any)[0].(map[string]any)
	assert.Equal(t, "6109.10", item["hs_tariff_number"])
	assert.Equal(t, "12.5", item["value"])
	assert.Equal(t, "DDU", body["options"].(map[string]any)["incoterm"])

	assert.Equal(t, "shp_123", quote.ID)
	require.Len(t, quote.Rates, 2)
	assert.True(t, decimal.RequireFromString("7.58").Equal(quote.Rates[0].Price))
	require.NotNil(t, quote.Rates[0].DeliveryDays)
	assert.Equal(t, 2, *quote.Rates[0].DeliveryDays)
	assert.True(t, decimal.RequireFromString("11.2").Equal(quote.Rates[1].Price))
	assert.Nil(t, quote.Rates[1].DeliveryDays)
	assert.Equal(t, "US", quote.ToAddress.Country)
	assert.Equal(t, []string{"FedEx: account not enabled"}, quote.Messages)
	assert.Same(t, customs, quote.Customs)
}

func TestClient_CreateQuote_Domestic(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var got map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.NotContains(t, got["shipment"], "customs_info")
		assert.NotContains(t, got["shipment"], "options")
		writeJSON(t, w, http.StatusCreated, shipmentJSON)
	})

	_, err := c.CreateQuote(context.Background(), shipment.QuoteRequest{})
	require.NoError(t, err)
}

func TestClient_Purchase(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/shipments/shp_123/buy", r.URL.Path)
		var got buyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "rate_1", got.Rate.ID)
		writeJSON(t, w, http.StatusOK, `{
			"id": "shp_123",
			"tracking_code": "9400100000000000000000",
			"selected_rate": {"id": "rate_1", "carrier": "USPS", "rate": "7.58"},
			"postage_label": {"label_url": "https://labels.example/shp_123.png"}
		}`)
	})

	label, err := c.Purchase(context.Background(), "shp_123", "rate_1")
	require.NoError(t, err)
	assert.Equal(t, "9400100000000000000000", label.TrackingCode)
	assert.Equal(t, "https://labels.example/shp_123.png", label.LabelURL)
	assert.Equal(t, "rate_1", label.RateID)
}

func TestClient_RetrieveQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/shipments/shp_123", r.URL.Path)
		assert.Empty(t, r.Header.Get("Content-Type"))
		writeJSON(t, w, http.StatusOK, shipmentJSON)
	})

	quote, err := c.RetrieveQuote(context.Background(), "shp_123")
	require.NoError(t, err)
	assert.Equal(t, []string{"rate_1", "rate_2"}, quote.RateIDs())
	assert.Nil(t, quote.Customs)
}

func TestClient_VerifyAddress(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantStatus shipment.VerificationStatus
		wantWarn   []string
		wantErrs   []string
	}{
		{
			name:       "verified",
			response:   `{"street1": "1 MAIN ST", "zip": "02101-1234", "country": "US", "verifications": {"delivery": {"success": true, "errors": []}}}`,
			wantStatus: shipment.VerificationSuccess,
		},
		{
			name:       "verified with corrections",
			response:   `{"street1": "1 MAIN ST", "country": "US", "verifications": {"delivery": {"success": true, "errors": [{"code": "E.ADDRESS.SECONDARY", "field": "street2", "message": "Missing unit", "suggestion": "APT 2"}]}}}`,
			wantStatus: shipment.VerificationWarning,
			wantWarn:   []string{"street2: Missing unit (suggestion: APT 2)"},
		},
		{
			name:       "not deliverable",
			response:   `{"street1": "1 Nowhere", "country": "US", "verifications": {"delivery": {"success": false, "errors": [{"message": "Address not found"}]}}}`,
			wantStatus: shipment.VerificationFailure,
			wantErrs:   []string{"Address not found"},
		},
		{
			name:       "no verification block",
			response:   `{"street1": "1 MAIN ST", "country": "US"}`,
			wantStatus: shipment.VerificationSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v2/addresses", r.URL.Path)
				var got verifyRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				assert.Equal(t, []string{"delivery"}, got.Verify)
				assert.Equal(t, "fedex", got.VerifyCarrier)
				writeJSON(t, w, http.StatusOK, tt.response)
			})

			v, err := c.VerifyAddress(context.Background(), shipment.Address{Street1: "1 main st", Country: "US"}, "FEDEX")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, v.Status())
			assert.Equal(t, tt.wantWarn, v.Warnings)
			assert.Equal(t, tt.wantErrs, v.Errors)
			require.NotNil(t, v.Corrected)
			assert.Equal(t, "US", v.Corrected.Country)
		})
	}
}

func TestClient_ErrorEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnprocessableEntity, `{"error": {
			"code": "SHIPMENT.INVALID_PARAMS",
			"message": "Unable to create shipment",
			"errors": [
				{"field": "to_address.zip", "message": "is invalid"},
				{"field": "parcel.weight", "message": "must be positive"}
			]
		}}`)
	})

	_, err := c.CreateQuote(context.Background(), shipment.QuoteRequest{})
	require.Error(t, err)

	var gwErr *shipment.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusUnprocessableEntity, gwErr.StatusCode)
	assert.Equal(t, "SHIPMENT.INVALID_PARAMS: Unable to create shipment (to_address.zip: is invalid; parcel.weight: must be positive)", err.Error())
	assert.ErrorIs(t, err, shipment.ErrGatewayRejected)
	assert.Equal(t, shipment.ErrorKindGateway, shipment.ClassifyError(err))
}

func TestClient_ErrorWithoutEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	_, err := c.RetrieveQuote(context.Background(), "shp_1")
	var gwErr *shipment.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "HTTP_502", gwErr.Code)
	assert.Equal(t, "Bad Gateway", gwErr.Message)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Purchase(ctx, "shp_1", "rate_1")
	require.Error(t, err)
	assert.ErrorIs(t, err, shipment.ErrGatewayTimeout)
	assert.Equal(t, shipment.ErrorKindTimeout, shipment.ClassifyError(err))
}

func TestClient_MalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"id": `)
	})

	_, err := c.RetrieveQuote(context.Background(), "shp_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse retrieve_quote response")
}

func TestClient_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusOK, shipmentJSON)
	}))
	defer srv.Close()

	cfg := NewConfig("EZTK_test")
	cfg.BaseURL = srv.URL
	cfg.RateLimitQPS = 1
	cfg.RateLimitBurst = 1
	c, err := NewClient(cfg)
	require.NoError(t, err)

	_, err = c.RetrieveQuote(context.Background(), "shp_1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = c.RetrieveQuote(ctx, "shp_1")
	require.Error(t, err)
	assert.Equal(t, shipment.ErrorKindTimeout, shipment.ClassifyError(err))
	assert.Equal(t, int32(1), calls.Load())
}
