package ups

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cybership/rating/pkg/carrier"
	"github.com/shopspring/decimal"
)

// UPS Rating API wire shapes and the pure mapping between them and the
// domain model.

const (
	packagingCode = "02" // customer-supplied package
	dimensionUOM  = "IN"
	weightUOM     = "LBS"
)

// serviceLevelCodes maps the domain service-level hints to UPS service
// codes. An unrecognized hint is passed through as a literal code rather
// than rejected; UPS accepts more codes than this table names.
var serviceLevelCodes = map[string]string{
	"ground":              "03",
	"next_day_air":        "01",
	"second_day_air":      "02",
	"three_day_select":    "12",
	"worldwide_express":   "07",
	"worldwide_expedited": "08",
}

// ServiceLevelCode resolves a service-level hint to the UPS code used on
// the wire.
func ServiceLevelCode(level string) string {
	if code, ok := serviceLevelCodes[level]; ok {
		return code
	}
	return level
}

// RateRequestWrapper is the top-level UPS Rating request payload.
type RateRequestWrapper struct {
	RateRequest RateRequestBody `json:"RateRequest"`
}

type RateRequestBody struct {
	Request  RequestSection `json:"Request"`
	Shipment Shipment       `json:"Shipment"`
}

type RequestSection struct {
	RequestOption string `json:"RequestOption"`
}

type Shipment struct {
	Shipper        Party          `json:"Shipper"`
	ShipTo         Party          `json:"ShipTo"`
	ShipFrom       Party          `json:"ShipFrom"`
	PaymentDetails PaymentDetails `json:"PaymentDetails"`
	Service        *Service       `json:"Service,omitempty"`
	NumOfPieces    string         `json:"NumOfPieces"`
	Package        Package        `json:"Package"`
}

type Party struct {
	Name          string  `json:"Name"`
	Address       Address `json:"Address"`
	ShipperNumber *string `json:"ShipperNumber,omitempty"`
}

type Address struct {
	AddressLine                 []string `json:"AddressLine"`
	City                        string   `json:"City"`
	StateProvinceCode           string   `json:"StateProvinceCode,omitempty"`
	PostalCode                  string   `json:"PostalCode"`
	CountryCode                 string   `json:"CountryCode"`
	ResidentialAddressIndicator string   `json:"ResidentialAddressIndicator,omitempty"`
}

type PaymentDetails struct {
	ShipmentCharge []ShipmentCharge `json:"ShipmentCharge"`
}

type ShipmentCharge struct {
	Type        string      `json:"Type"`
	BillShipper BillShipper `json:"BillShipper"`
}

type BillShipper struct {
	AccountNumber string `json:"AccountNumber"`
}

type Service struct {
	Code        string `json:"Code"`
	Description string `json:"Description"`
}

type Package struct {
	PackagingType CodeDescription `json:"PackagingType"`
	Dimensions    Dimensions      `json:"Dimensions"`
	PackageWeight Weight          `json:"PackageWeight"`
}

type CodeDescription struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

type Dimensions struct {
	UnitOfMeasurement CodeDescription `json:"UnitOfMeasurement"`
	Length            string          `json:"Length"`
	Width             string          `json:"Width"`
	Height            string          `json:"Height"`
}

type Weight struct {
	UnitOfMeasurement CodeDescription `json:"UnitOfMeasurement"`
	Weight            string          `json:"Weight"`
}

// RateResponseWrapper is the top-level UPS Rating response payload.
type RateResponseWrapper struct {
	RateResponse *struct {
		RatedShipment []RatedShipment `json:"RatedShipment"`
	} `json:"RateResponse"`
}

// RatedShipment is one service quote inside a rating response.
type RatedShipment struct {
	Service *struct {
		Code        string `json:"Code"`
		Description string `json:"Description"`
	} `json:"Service"`
	TotalCharge           *Charge `json:"TotalCharge"`
	NegotiatedRateCharges *struct {
		TotalCharge *Charge `json:"TotalCharge"`
	} `json:"NegotiatedRateCharges"`
	GuaranteedDelivery *struct {
		BusinessDaysInTransit string `json:"BusinessDaysInTransit"`
	} `json:"GuaranteedDelivery"`
}

type Charge struct {
	CurrencyCode  string `json:"CurrencyCode"`
	MonetaryValue string `json:"MonetaryValue"`
}

// ratingErrorResponse is the structured error body UPS attaches to 4xx
// rating responses.
type ratingErrorResponse struct {
	Response *struct {
		Errors []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"response"`
}

// tokenResponse is the OAuth token endpoint success body.
type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   json.Number `json:"expires_in"`
	IssuedAt    string      `json:"issued_at"`
}

// tokenErrorResponse is the OAuth token endpoint failure body.
type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// requestOption returns "Rate" (single service) when a service-level
// hint is present and "Shop" (all applicable services) otherwise.
func requestOption(req *carrier.RateRequest) string {
	if req.ServiceLevel != "" {
		return "Rate"
	}
	return "Shop"
}

func toAPIAddress(addr carrier.Address) Address {
	lines := addr.AddressLines
	if len(lines) > 3 {
		lines = lines[:3]
	}
	w := Address{
		AddressLine:       lines,
		City:              addr.City,
		StateProvinceCode: addr.StateProvinceCode,
		PostalCode:        addr.PostalCode,
		CountryCode:       addr.CountryCode,
	}
	if addr.Residential {
		w.ResidentialAddressIndicator = "Y"
	}
	return w
}

func toAPIPackage(p carrier.Parcel) Package {
	return Package{
		PackagingType: CodeDescription{Code: packagingCode, Description: "Package"},
		Dimensions: Dimensions{
			UnitOfMeasurement: CodeDescription{Code: dimensionUOM, Description: "Inches"},
			Length:            formatDimension(p.LengthIn),
			Width:             formatDimension(p.WidthIn),
			Height:            formatDimension(p.HeightIn),
		},
		PackageWeight: Weight{
			UnitOfMeasurement: CodeDescription{Code: weightUOM, Description: "Pounds"},
			Weight:            formatDimension(p.WeightLbs),
		},
	}
}

// formatDimension serializes a dimension or weight the way UPS expects:
// a plain decimal string, no unit conversion.
func formatDimension(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// BuildRateRequest translates a validated domain request into the UPS
// wire payload. Pure; no I/O.
func BuildRateRequest(req *carrier.RateRequest) RateRequestWrapper {
	emptyShipperNumber := ""
	shipment := Shipment{
		Shipper: Party{
			Name:          "Shipper",
			Address:       toAPIAddress(req.Origin),
			ShipperNumber: &emptyShipperNumber,
		},
		ShipTo: Party{
			Name:    "ShipTo",
			Address: toAPIAddress(req.Destination),
		},
		ShipFrom: Party{
			Name:    "ShipFrom",
			Address: toAPIAddress(req.Origin),
		},
		// Billing configuration is out of scope for rating; UPS still
		// requires the block, so the account is left blank.
		PaymentDetails: PaymentDetails{
			ShipmentCharge: []ShipmentCharge{
				{Type: "01", BillShipper: BillShipper{AccountNumber: ""}},
			},
		},
		NumOfPieces: "1",
		Package:     toAPIPackage(req.Parcel),
	}

	if req.ServiceLevel != "" {
		shipment.Service = &Service{
			Code:        ServiceLevelCode(req.ServiceLevel),
			Description: req.ServiceLevel,
		}
	}

	return RateRequestWrapper{
		RateRequest: RateRequestBody{
			Request:  RequestSection{RequestOption: requestOption(req)},
			Shipment: shipment,
		},
	}
}

// ParseRatedShipment converts one rated-shipment entry to a quote. The
// second return is false when the entry carries no usable monetary
// amount; such entries are skipped, not errors, so one malformed service
// in a Shop response cannot fail the whole call.
func ParseRatedShipment(rs *RatedShipment) (carrier.RateQuote, bool) {
	var serviceCode, serviceName string
	if rs.Service != nil {
		serviceCode = rs.Service.Code
		serviceName = rs.Service.Description
	}
	if serviceName == "" {
		serviceName = serviceCode
		if serviceName == "" {
			serviceName = "Unknown"
		}
	}

	// Negotiated rates reflect the account's actual cost and take
	// precedence over the published charge.
	charge := rs.TotalCharge
	if rs.NegotiatedRateCharges != nil && rs.NegotiatedRateCharges.TotalCharge != nil {
		charge = rs.NegotiatedRateCharges.TotalCharge
	}
	if charge == nil || charge.MonetaryValue == "" {
		return carrier.RateQuote{}, false
	}

	amount, err := decimal.NewFromString(charge.MonetaryValue)
	if err != nil || amount.IsNegative() {
		return carrier.RateQuote{}, false
	}

	currency := charge.CurrencyCode
	if currency == "" {
		currency = "USD"
	}

	quote := carrier.RateQuote{
		CarrierID:   carrier.CarrierUPS,
		ServiceCode: serviceCode,
		ServiceName: serviceName,
		Amount:      amount,
		Currency:    currency,
	}

	if rs.GuaranteedDelivery != nil {
		if days, err := strconv.Atoi(strings.TrimSpace(rs.GuaranteedDelivery.BusinessDaysInTransit)); err == nil {
			quote.EstimatedTransitDays = &days
		}
	}

	return quote, true
}

// ParseRateResponse extracts quotes from a rating response body. Output
// order matches the carrier's response order; entries without a usable
// amount are dropped, so the result can be shorter than the input. A
// body without a rated-shipment list yields an empty slice, not an
// error.
func ParseRateResponse(body []byte) []carrier.RateQuote {
	var wrapper RateResponseWrapper
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil
	}
	if wrapper.RateResponse == nil {
		return nil
	}

	quotes := make([]carrier.RateQuote, 0, len(wrapper.RateResponse.RatedShipment))
	for i := range wrapper.RateResponse.RatedShipment {
		if quote, ok := ParseRatedShipment(&wrapper.RateResponse.RatedShipment[i]); ok {
			quotes = append(quotes, quote)
		}
	}
	return quotes
}

// firstRatingError extracts the first structured error message and code
// from a 4xx rating response body, if the body has the expected shape.
func firstRatingError(body []byte) (message, code string) {
	var wrapper ratingErrorResponse
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return "", ""
	}
	if wrapper.Response == nil || len(wrapper.Response.Errors) == 0 {
		return "", ""
	}
	return wrapper.Response.Errors[0].Message, wrapper.Response.Errors[0].Code
}
