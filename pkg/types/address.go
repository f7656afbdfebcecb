package types

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// ShippingAddress is the delivery address snapshot copied onto orders and
// saved on the customer profile.
type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required,max=120"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       string `json:"city" validate:"required,max=80"`
	State      string `json:"state" validate:"required,max=80"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"omitempty,max=56"`
}

// IsZero reports whether no address has been provided.
func (a ShippingAddress) IsZero() bool {
	return strings.TrimSpace(a.Line1) == "" && strings.TrimSpace(a.City) == ""
}

// Value marshals the address into JSON.
func (a ShippingAddress) Value() (driver.Value, error) {
	if !a.IsZero() && strings.TrimSpace(a.PostalCode) == "" {
		return nil, fmt.Errorf("shipping address: missing postal code")
	}
	return jsonValue(a)
}

// Scan decodes the JSON column.
func (a *ShippingAddress) Scan(value interface{}) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}
	var out ShippingAddress
	if err := scanJSON("shipping address", value, &out); err != nil {
		return err
	}
	*a = out
	return nil
}
