// Package carrier implements the carrier gateway over a REST/JSON shipping API.
package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/erp/bulkship/internal/infrastructure/logger"
	"github.com/erp/bulkship/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024

// Client implements shipment.CarrierGateway
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *telemetry.BatchMetrics
	logger     *zap.Logger
}

// Option is a functional option for Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics records call latency on m
func WithMetrics(m *telemetry.BatchMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the fallback logger used when the context carries none
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client with the given configuration
func NewClient(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigMissingAPIKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if cfg.RateLimitQPS > 0 {
		limit = rate.Limit(cfg.RateLimitQPS)
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateQuote creates a shipment and returns its rates
func (c *Client) CreateQuote(ctx context.Context, req shipment.QuoteRequest) (*shipment.Quote, error) {
	var body createShipmentRequest
	body.Shipment.ToAddress = toAddressPayload(req.To)
	body.Shipment.FromAddress = toAddressPayload(req.From)
	body.Shipment.Parcel = parcelPayload{
		Length: req.Parcel.Length,
		Width:  req.Parcel.Width,
		Height: req.Parcel.Height,
		Weight: req.Parcel.WeightOz,
	}
	body.Shipment.Reference = req.Reference
	if req.Customs != nil {
		body.Shipment.CustomsInfo = toCustomsPayload(req.Customs)
		body.Shipment.Options = &shipmentOptions{Incoterm: string(req.Customs.Incoterm)}
	}

	var resp shipmentResponse
	if err := c.do(ctx, "create_quote", http.MethodPost, "/v2/shipments", body, &resp); err != nil {
		return nil, err
	}
	return resp.toQuote(req.Customs), nil
}

// Purchase buys the rate on an existing shipment
func (c *Client) Purchase(ctx context.Context, quoteID, rateID string) (*shipment.Label, error) {
	var body buyRequest
	body.Rate.ID = rateID

	var resp shipmentResponse
	path := "/v2/shipments/" + url.PathEscape(quoteID) + "/buy"
	if err := c.do(ctx, "purchase", http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}

	label := &shipment.Label{TrackingCode: resp.TrackingCode, RateID: rateID}
	if resp.PostageLabel != nil {
		label.LabelURL = resp.PostageLabel.LabelURL
	}
	if resp.SelectedRate != nil && resp.SelectedRate.ID != "" {
		label.RateID = resp.SelectedRate.ID
	}
	return label, nil
}

// VerifyAddress creates a verified address
func (c *Client) VerifyAddress(ctx context.Context, addr shipment.Address, carrierHint string) (*shipment.Verification, error) {
	body := verifyRequest{
		Address:       toAddressPayload(addr),
		Verify:        []string{"delivery"},
		VerifyCarrier: strings.ToLower(carrierHint),
	}

	var resp addressResponse
	if err := c.do(ctx, "verify_address", http.MethodPost, "/v2/addresses", body, &resp); err != nil {
		return nil, err
	}
	return resp.toVerification(), nil
}

// RetrieveQuote fetches an existing shipment
func (c *Client) RetrieveQuote(ctx context.Context, quoteID string) (*shipment.Quote, error) {
	var resp shipmentResponse
	if err := c.do(ctx, "retrieve_quote", http.MethodGet, "/v2/shipments/"+url.PathEscape(quoteID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toQuote(nil), nil
}

// do sends one rate-limited request and decodes the JSON response into out
func (c *Client) do(ctx context.Context, operation, method, path string, in, out any) (err error) {
	ctx, span := telemetry.StartClientSpan(ctx, "carrier."+operation,
		"http.method", method,
		"http.path", path,
	)
	start := time.Now()
	defer func() {
		c.metrics.RecordGatewayCall(ctx, operation, time.Since(start), err)
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetOK(span)
		}
		span.End()
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			// the wait would run past the deadline
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return c.transportError(operation, err)
	}

	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("carrier: failed to marshal %s request: %w", operation, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.BaseURL, "/")+path, reqBody)
	if err != nil {
		return fmt.Errorf("carrier: failed to create request: %w", err)
	}
	req.SetBasicAuth(c.config.APIKey, "")
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return c.transportError(operation, err)
	}

	telemetry.SetAttributes(span, "http.status_code", resp.StatusCode)

	if resp.StatusCode >= 400 {
		gwErr := decodeError(resp.StatusCode, body)
		c.log(ctx).Error("Carrier request rejected",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("code", gwErr.Code),
			zap.String("error", gwErr.Flatten()),
		)
		return gwErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("carrier: failed to parse %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) log(ctx context.Context) *zap.Logger {
	return logger.LOr(ctx, c.logger)
}

// transportError maps network failures; timeouts wrap ErrGatewayTimeout
func (c *Client) transportError(operation string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %v", shipment.ErrGatewayTimeout, operation, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("carrier: %s canceled: %w", operation, err)
	}
	return fmt.Errorf("carrier: %s failed: %w", operation, err)
}

// decodeError reads the provider error envelope, falling back to the HTTP status
func decodeError(status int, body []byte) *shipment.GatewayError {
	gwErr := &shipment.GatewayError{StatusCode: status}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		gwErr.Code = env.Error.Code
		gwErr.Message = env.Error.Message
		gwErr.Details = env.Error.Errors
	}
	if gwErr.Code == "" {
		gwErr.Code = fmt.Sprintf("HTTP_%d", status)
	}
	if gwErr.Message == "" {
		gwErr.Message = http.StatusText(status)
	}
	return gwErr
}

var _ shipment.CarrierGateway = (*Client)(nil)
