// Package mock provides a mock carrier implementation for testing.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cybership/rating/pkg/carrier"
	"github.com/shopspring/decimal"
)

// Client is a mock carrier for testing. By default it answers with two
// canned quotes; OnGetRates overrides per test, and Calls counts how
// many rate requests reached the adapter.
type Client struct {
	id         string
	operations []carrier.Operation

	OnGetRates func(ctx context.Context, req *carrier.RateRequest) (*carrier.RateQuoteResult, error)

	mu    sync.Mutex
	calls int
}

// New creates a mock carrier supporting the rate operation.
func New(id string) *Client {
	return &Client{
		id:         id,
		operations: []carrier.Operation{carrier.OperationRate},
	}
}

// NewWithOperations creates a mock carrier with an explicit operation
// set; an empty set makes every dispatch fail the support check.
func NewWithOperations(id string, ops []carrier.Operation) *Client {
	return &Client{id: id, operations: ops}
}

// CarrierID returns the mock carrier identifier.
func (c *Client) CarrierID() string {
	return c.id
}

// SupportedOperations returns the configured operation set.
func (c *Client) SupportedOperations() []carrier.Operation {
	return c.operations
}

// Calls returns how many rate requests reached this mock.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// GetRates returns mock quotes.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) (*carrier.RateQuoteResult, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	if c.OnGetRates != nil {
		return c.OnGetRates(ctx, req)
	}

	ground := 4
	express := 1
	return &carrier.RateQuoteResult{
		RequestID: fmt.Sprintf("%s-%d", c.id, time.Now().UnixNano()),
		Quotes: []carrier.RateQuote{
			{
				CarrierID:            c.id,
				ServiceCode:          "STANDARD",
				ServiceName:          fmt.Sprintf("%s Standard", c.id),
				Amount:               decimal.NewFromFloat(15.82),
				Currency:             "USD",
				EstimatedTransitDays: &ground,
			},
			{
				CarrierID:            c.id,
				ServiceCode:          "EXPRESS",
				ServiceName:          fmt.Sprintf("%s Express", c.id),
				Amount:               decimal.NewFromFloat(29.95),
				Currency:             "USD",
				EstimatedTransitDays: &express,
			},
		},
	}, nil
}

var _ carrier.Carrier = (*Client)(nil)
