package types

import "strings"

// ShippingInfo is the destination captured at checkout time.
type ShippingInfo struct {
	Address   string `json:"address" validate:"required"`
	ContactNo string `json:"contactNo" validate:"required"`
	City      string `json:"city" validate:"required"`
}

// Normalize trims surrounding whitespace from every field.
func (s ShippingInfo) Normalize() ShippingInfo {
	return ShippingInfo{
		Address:   strings.TrimSpace(s.Address),
		ContactNo: strings.TrimSpace(s.ContactNo),
		City:      strings.TrimSpace(s.City),
	}
}

// Complete reports whether all required fields are present.
func (s ShippingInfo) Complete() bool {
	n := s.Normalize()
	return n.Address != "" && n.ContactNo != "" && n.City != ""
}
