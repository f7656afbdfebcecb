package types

import (
	"database/sql/driver"
	"time"
)

// PaymentRecord captures what the client reported about the payment.
type PaymentRecord struct {
	ID     string     `json:"id"`
	Status string     `json:"status"`
	PaidAt *time.Time `json:"paidAt,omitempty"`
}

func (p PaymentRecord) Value() (driver.Value, error) {
	return jsonValue(p)
}

func (p *PaymentRecord) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentRecord{}
		return nil
	}
	var out PaymentRecord
	if err := scanJSON("payment record", value, &out); err != nil {
		return err
	}
	*p = out
	return nil
}
