package carrier

import (
	"fmt"
	"math"
)

// Field shape limits enforced before a request reaches any adapter.
const (
	maxAddressLines    = 3
	maxAddressLineLen  = 35
	maxCityLen         = 30
	maxPostalCodeLen   = 9
	maxServiceLevelLen = 50
)

// Validate checks a rate request against the domain schema. It returns
// nil or a VALIDATION_ERROR naming the first offending field; it never
// performs I/O.
func Validate(req *RateRequest) error {
	if req == nil {
		return NewValidationError("rate request is required")
	}
	if err := validateAddress("origin", &req.Origin); err != nil {
		return err
	}
	if err := validateAddress("destination", &req.Destination); err != nil {
		return err
	}
	if err := validateParcel(&req.Parcel); err != nil {
		return err
	}
	if len(req.ServiceLevel) > maxServiceLevelLen {
		return NewValidationError(fmt.Sprintf("serviceLevel: must be at most %d characters", maxServiceLevelLen))
	}
	return nil
}

func validateAddress(field string, addr *Address) error {
	if len(addr.AddressLines) < 1 || len(addr.AddressLines) > maxAddressLines {
		return NewValidationError(fmt.Sprintf("%s.addressLines: must contain 1 to %d lines", field, maxAddressLines))
	}
	for i, line := range addr.AddressLines {
		if line == "" || len(line) > maxAddressLineLen {
			return NewValidationError(fmt.Sprintf("%s.addressLines[%d]: must be 1 to %d characters", field, i, maxAddressLineLen))
		}
	}
	if addr.City == "" || len(addr.City) > maxCityLen {
		return NewValidationError(fmt.Sprintf("%s.city: must be 1 to %d characters", field, maxCityLen))
	}
	if addr.StateProvinceCode != "" && len(addr.StateProvinceCode) != 2 {
		return NewValidationError(fmt.Sprintf("%s.stateProvinceCode: must be exactly 2 characters", field))
	}
	if addr.PostalCode == "" || len(addr.PostalCode) > maxPostalCodeLen {
		return NewValidationError(fmt.Sprintf("%s.postalCode: must be 1 to %d characters", field, maxPostalCodeLen))
	}
	if len(addr.CountryCode) != 2 {
		return NewValidationError(fmt.Sprintf("%s.countryCode: must be exactly 2 characters", field))
	}
	return nil
}

func validateParcel(p *Parcel) error {
	dims := []struct {
		name  string
		value float64
	}{
		{"parcel.weightLbs", p.WeightLbs},
		{"parcel.lengthIn", p.LengthIn},
		{"parcel.widthIn", p.WidthIn},
		{"parcel.heightIn", p.HeightIn},
	}
	for _, d := range dims {
		if d.value <= 0 || math.IsInf(d.value, 0) || math.IsNaN(d.value) {
			return NewValidationError(fmt.Sprintf("%s: must be a positive finite number", d.name))
		}
	}
	return nil
}
