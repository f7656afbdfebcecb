package enums

import (
	"fmt"
	"strings"
)

// CustomRequestStatus tracks a custom pottery request through negotiation.
type CustomRequestStatus string

const (
	CustomRequestStatusPending  CustomRequestStatus = "pending"
	CustomRequestStatusPriced   CustomRequestStatus = "priced"
	CustomRequestStatusRejected CustomRequestStatus = "rejected"
	// CustomRequestStatusOrdered marks a priced request that has been bought.
	CustomRequestStatusOrdered CustomRequestStatus = "ordered"
)

var validCustomRequestStatuses = []CustomRequestStatus{
	CustomRequestStatusPending,
	CustomRequestStatusPriced,
	CustomRequestStatusRejected,
	CustomRequestStatusOrdered,
}

// String implements fmt.Stringer.
func (s CustomRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CustomRequestStatus.
func (s CustomRequestStatus) IsValid() bool {
	for _, candidate := range validCustomRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCustomRequestStatus converts raw input into a CustomRequestStatus.
func ParseCustomRequestStatus(value string) (CustomRequestStatus, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validCustomRequestStatuses {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid custom request status %q", value)
}
