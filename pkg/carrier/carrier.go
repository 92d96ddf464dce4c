// Package carrier provides an abstraction layer for parcel-carrier rating.
package carrier

import (
	"context"
)

// Operation identifies a carrier capability.
type Operation string

const (
	// OperationRate is the rate-quoting operation.
	OperationRate Operation = "rate"
)

// Carrier defines the interface that all carrier adapters must implement.
type Carrier interface {
	// CarrierID returns the carrier identifier (e.g., "ups").
	CarrierID() string

	// SupportedOperations returns the operations this adapter can execute.
	SupportedOperations() []Operation

	// GetRates returns rate quotes for a validated rate request.
	GetRates(ctx context.Context, req *RateRequest) (*RateQuoteResult, error)
}
