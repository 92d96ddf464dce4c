package carrier

import (
	"github.com/shopspring/decimal"
)

// Supported carrier identifiers.
const (
	CarrierUPS = "ups"
)

// Address represents a shipping address. All dimensions of the request
// are assumed normalized before a carrier adapter sees them; addresses
// are constructed once per request and never mutated.
type Address struct {
	// AddressLines holds 1-3 street lines, most specific first.
	AddressLines []string
	City         string
	// StateProvinceCode is a 2-letter code, empty when not applicable.
	StateProvinceCode string
	PostalCode        string
	// CountryCode is ISO 3166-1 alpha-2, e.g. "US".
	CountryCode string
	Residential bool
}

// Parcel represents a single package. Weight is in pounds and
// dimensions in inches; no unit conversion happens anywhere downstream.
type Parcel struct {
	WeightLbs float64
	LengthIn  float64
	WidthIn   float64
	HeightIn  float64
}

// RateRequest is a carrier-agnostic rate quote request.
type RateRequest struct {
	Origin      Address
	Destination Address
	Parcel      Parcel
	// ServiceLevel is an optional free-form hint ("ground",
	// "next_day_air", ...). Empty means quote all applicable services.
	ServiceLevel string
}

// RateQuote is a single normalized quote from a carrier.
type RateQuote struct {
	CarrierID   string
	ServiceCode string
	ServiceName string
	// Amount is the total charge in the carrier's currency. When the
	// carrier returns a negotiated (account-specific) charge it takes
	// precedence over the published one.
	Amount   decimal.Decimal
	Currency string
	// EstimatedTransitDays is nil when the carrier did not provide a
	// usable transit estimate.
	EstimatedTransitDays *int
}

// RateQuoteResult is the ordered quote list for one rating call plus the
// correlation id the client attached to the outbound request. The id is
// client-generated, not carrier-issued.
type RateQuoteResult struct {
	Quotes    []RateQuote
	RequestID string
}
