// Package ups provides integration with the UPS Rating API.
package ups

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cybership/rating/pkg/carrier"
	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierID = carrier.CarrierUPS

// ratingVersion pins the UPS Rating API version segment.
const ratingVersion = "v2409"

// transIDMaxLen is the UPS limit on the transId correlation header.
const transIDMaxLen = 32

// Config holds UPS configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	// TransactionSrc tags every rating call for UPS-side attribution.
	TransactionSrc string
	Timeout        time.Duration
	UseMock        bool // when true, uses the canned mock transport
}

// Client is the UPS carrier adapter. It implements carrier.Carrier and
// owns the orchestration around one rating call: build the wire request,
// acquire a token, send, classify, retry once on a rejected token, parse.
type Client struct {
	config    Config
	auth      *AuthClient
	transport Transport
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new UPS client. If cfg.UseMock is true it uses the
// canned mock transport instead of real HTTP.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var transport Transport
	if cfg.UseMock {
		transport = NewMockTransport()
	} else {
		transport = NewHTTPTransport(cfg.Timeout)
	}
	return NewWithTransport(cfg, transport, logger, tracer)
}

// NewWithTransport creates a UPS client over a custom transport. This is
// how tests inject stub transports.
func NewWithTransport(cfg Config, transport Transport, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		auth:      NewAuthClient(cfg, transport, cfg.Timeout),
		transport: transport,
		logger:    logger,
		tracer:    tracer,
	}
}

// CarrierID returns the carrier identifier.
func (c *Client) CarrierID() string {
	return carrierID
}

// SupportedOperations returns the operations this adapter can execute.
func (c *Client) SupportedOperations() []carrier.Operation {
	return []carrier.Operation{carrier.OperationRate}
}

// GetRates returns rate quotes from UPS. A service-level hint on the
// request selects single-service (Rate) mode; without one UPS shops all
// applicable services.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) (*carrier.RateQuoteResult, error) {
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "ups.rate")
		defer span.End()
	}

	option := requestOption(req)
	endpoint := fmt.Sprintf("%s/api/rating/%s/%s",
		strings.TrimSuffix(c.config.BaseURL, "/"), ratingVersion, option)
	payload := BuildRateRequest(req)
	requestID := newRequestID()

	c.logger.Info("Getting UPS rates",
		zap.String("request_id", requestID),
		zap.String("request_option", option),
		zap.String("origin_postal", req.Origin.PostalCode),
		zap.String("destination_postal", req.Destination.PostalCode),
	)

	token, err := c.auth.Token(ctx)
	if err != nil {
		c.logger.Error("UPS token acquisition failed", zap.Error(err))
		return nil, err
	}

	resp, err := c.send(ctx, endpoint, payload, token, requestID)
	if err != nil {
		if isTimeout(err) {
			return nil, carrier.NewTimeout("UPS rating request timed out")
		}
		return nil, carrier.NewNetworkError("UPS rating request failed", err)
	}

	// A 401 here means the server rejected a token we believed valid.
	// Refresh and re-issue the identical request exactly once; a second
	// failure of any sort means the credential subsystem is unhealthy,
	// which is distinct from a first-attempt auth failure.
	if resp.Status == 401 {
		c.logger.Warn("UPS rejected bearer token, refreshing",
			zap.String("request_id", requestID))
		token, err = c.auth.Refresh(ctx)
		if err == nil {
			resp, err = c.send(ctx, endpoint, payload, token, requestID)
		}
		if err != nil || resp.Status == 401 {
			return nil, carrier.NewAuthTokenExpired("UPS token expired and refresh failed")
		}
	}

	if err := c.classify(resp, requestID); err != nil {
		return nil, err
	}

	quotes := ParseRateResponse(resp.Body)
	c.logger.Info("UPS rates received",
		zap.String("request_id", requestID),
		zap.Int("quote_count", len(quotes)),
	)
	return &carrier.RateQuoteResult{Quotes: quotes, RequestID: requestID}, nil
}

func (c *Client) send(ctx context.Context, endpoint string, payload RateRequestWrapper, token, requestID string) (*Response, error) {
	transID := requestID
	if len(transID) > transIDMaxLen {
		transID = transID[:transIDMaxLen]
	}
	return c.transport.Post(ctx, endpoint, payload, RequestOptions{
		Headers: map[string]string{
			"Authorization":  "Bearer " + token,
			"transId":        transID,
			"transactionSrc": c.config.TransactionSrc,
		},
		Timeout: c.config.Timeout,
	})
}

// classify maps a non-2xx rating response to the error taxonomy. The
// total mapping: 429 rate limited, 400/403 bad request with the
// carrier's first structured message when present, anything else a
// carrier error retryable only for 5xx. 401 never reaches here; the
// refresh-retry above absorbs it.
func (c *Client) classify(resp *Response, requestID string) error {
	switch {
	case resp.Status == 200:
		return nil
	case resp.Status == 429:
		c.logger.Warn("UPS rate limit exceeded", zap.String("request_id", requestID))
		return carrier.NewRateLimited("UPS rate limit exceeded", resp.Status)
	case resp.Status == 400 || resp.Status == 403:
		msg, code := firstRatingError(resp.Body)
		if msg == "" {
			msg = fmt.Sprintf("UPS returned %d", resp.Status)
		}
		return carrier.NewBadRequest(msg, resp.Status, code)
	default:
		return carrier.NewCarrierError(
			fmt.Sprintf("UPS rating returned %d", resp.Status), resp.Status, "")
	}
}

// newRequestID generates the per-call correlation id attached to the
// outbound request. Client-generated, not carrier-issued; the same id is
// reused on the 401 retry so both attempts trace as one logical call.
func newRequestID() string {
	return fmt.Sprintf("ups-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:7])
}

var _ carrier.Carrier = (*Client)(nil)
