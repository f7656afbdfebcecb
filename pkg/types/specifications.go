package types

import (
	"database/sql/driver"
	"strings"
)

// Specification is one key/value attribute shown on a product page.
type Specification struct {
	Key   string `json:"key" validate:"required,max=80"`
	Value string `json:"value" validate:"required,max=200"`
}

// Specifications is persisted as a JSON array.
type Specifications []Specification

// Value marshals the list into JSON, storing an empty array for nil.
func (s Specifications) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return jsonValue([]Specification(s))
}

// Scan decodes a JSON array into the list.
func (s *Specifications) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var out []Specification
	if err := scanJSON("specifications", value, &out); err != nil {
		return err
	}
	*s = out
	return nil
}

// Normalize trims entries and drops those with an empty key.
func (s Specifications) Normalize() Specifications {
	out := make(Specifications, 0, len(s))
	for _, spec := range s {
		key := strings.TrimSpace(spec.Key)
		if key == "" {
			continue
		}
		out = append(out, Specification{Key: key, Value: strings.TrimSpace(spec.Value)})
	}
	return out
}
