// Package server exposes the rating service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cybership/rating/internal/telemetry"
	"github.com/cybership/rating/pkg/carrier"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server for the rating service.
type Server struct {
	port    int
	service *carrier.Service
	logger  *otelzap.Logger
	metrics *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, service *carrier.Service, logger *otelzap.Logger, metrics *telemetry.Metrics) *Server {
	return &Server{
		port:    cfg.Port,
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Handler builds the route mux. Exposed so tests can drive the server
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/rates", s.handleRates)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Request/response JSON shapes.

type addressPayload struct {
	AddressLines      []string `json:"addressLines"`
	City              string   `json:"city"`
	StateProvinceCode string   `json:"stateProvinceCode,omitempty"`
	PostalCode        string   `json:"postalCode"`
	CountryCode       string   `json:"countryCode"`
	Residential       bool     `json:"residential,omitempty"`
}

type parcelPayload struct {
	WeightLbs float64 `json:"weightLbs"`
	LengthIn  float64 `json:"lengthIn"`
	WidthIn   float64 `json:"widthIn"`
	HeightIn  float64 `json:"heightIn"`
}

type ratesRequest struct {
	CarrierID    string         `json:"carrierId,omitempty"`
	Origin       addressPayload `json:"origin"`
	Destination  addressPayload `json:"destination"`
	Parcel       parcelPayload  `json:"parcel"`
	ServiceLevel string         `json:"serviceLevel,omitempty"`
}

type quotePayload struct {
	Carrier              string          `json:"carrier"`
	ServiceCode          string          `json:"serviceCode"`
	ServiceName          string          `json:"serviceName"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	EstimatedTransitDays *int            `json:"estimatedTransitDays,omitempty"`
}

type ratesResponse struct {
	RequestID string         `json:"requestId"`
	Quotes    []quotePayload `json:"quotes"`
}

type errorBody struct {
	Kind        carrier.ErrorKind `json:"kind"`
	Message     string            `json:"message"`
	StatusCode  int               `json:"statusCode,omitempty"`
	CarrierCode string            `json:"carrierCode,omitempty"`
	Retryable   bool              `json:"retryable"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeError(w, carrier.NewValidationError("method not allowed, use POST"), http.StatusMethodNotAllowed)
		return
	}

	var req ratesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, carrier.NewValidationError("invalid JSON: "+err.Error()), http.StatusBadRequest)
		return
	}

	carrierID := req.CarrierID
	if carrierID == "" {
		carrierID = carrier.CarrierUPS
	}

	start := time.Now()
	result, err := s.service.GetRates(r.Context(), toRateRequest(&req), carrierID)
	duration := time.Since(start).Seconds()

	if err != nil {
		s.metrics.RecordRequest(carrierID, "error", duration)
		s.metrics.RecordError(carrierID, string(carrier.KindOf(err)))
		s.logger.Warn("Rating request failed",
			zap.String("carrier", carrierID),
			zap.Error(err),
		)
		s.writeCarrierError(w, err)
		return
	}

	s.metrics.RecordRequest(carrierID, "ok", duration)

	quotes := make([]quotePayload, len(result.Quotes))
	for i, q := range result.Quotes {
		quotes[i] = quotePayload{
			Carrier:              q.CarrierID,
			ServiceCode:          q.ServiceCode,
			ServiceName:          q.ServiceName,
			Amount:               q.Amount,
			Currency:             q.Currency,
			EstimatedTransitDays: q.EstimatedTransitDays,
		}
	}
	json.NewEncoder(w).Encode(ratesResponse{
		RequestID: result.RequestID,
		Quotes:    quotes,
	})
}

func toRateRequest(req *ratesRequest) *carrier.RateRequest {
	return &carrier.RateRequest{
		Origin:       toAddress(req.Origin),
		Destination:  toAddress(req.Destination),
		Parcel:       carrier.Parcel(req.Parcel),
		ServiceLevel: req.ServiceLevel,
	}
}

func toAddress(a addressPayload) carrier.Address {
	return carrier.Address{
		AddressLines:      a.AddressLines,
		City:              a.City,
		StateProvinceCode: a.StateProvinceCode,
		PostalCode:        a.PostalCode,
		CountryCode:       a.CountryCode,
		Residential:       a.Residential,
	}
}

// writeCarrierError translates the error taxonomy to HTTP. Client-side
// rejections map to 400, throttling to 429, timeouts to 504, everything
// else the carrier or network did wrong to 502.
func (s *Server) writeCarrierError(w http.ResponseWriter, err error) {
	var cerr *carrier.Error
	if !errors.As(err, &cerr) {
		cerr = carrier.NewCarrierError(err.Error(), 0, "")
	}

	status := http.StatusBadGateway
	switch cerr.Kind {
	case carrier.ErrorValidation, carrier.ErrorBadRequest:
		status = http.StatusBadRequest
	case carrier.ErrorRateLimited:
		status = http.StatusTooManyRequests
	case carrier.ErrorTimeout:
		status = http.StatusGatewayTimeout
	}

	s.writeError(w, cerr, status)
}

func (s *Server) writeError(w http.ResponseWriter, cerr *carrier.Error, status int) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{
		Kind:        cerr.Kind,
		Message:     cerr.Message,
		StatusCode:  cerr.StatusCode,
		CarrierCode: cerr.CarrierCode,
		Retryable:   cerr.Retryable,
	}})
}
