package carrier

import (
	"context"
	"fmt"
)

// Service is the public entry point for rate quoting. It validates the
// request, resolves the carrier adapter, and delegates. Validation
// failures and unsupported carriers surface as VALIDATION_ERROR before
// any network call is made.
type Service struct {
	registry *Registry
}

// NewService creates a rating service over a populated registry.
func NewService(registry *Registry) *Service {
	return &Service{registry: registry}
}

// GetRates returns normalized quotes for the request from the named
// carrier. An empty carrierID defaults to UPS.
func (s *Service) GetRates(ctx context.Context, req *RateRequest, carrierID string) (*RateQuoteResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	if carrierID == "" {
		carrierID = CarrierUPS
	}
	c, ok := s.registry.Get(carrierID)
	if !ok {
		return nil, NewValidationError(fmt.Sprintf("unsupported carrier: %s", carrierID))
	}
	if !supportsOperation(c, OperationRate) {
		return nil, NewValidationError(fmt.Sprintf("carrier %s does not support the rate operation", carrierID))
	}

	return c.GetRates(ctx, req)
}

func supportsOperation(c Carrier, op Operation) bool {
	for _, supported := range c.SupportedOperations() {
		if supported == op {
			return true
		}
	}
	return false
}
