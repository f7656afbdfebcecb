package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
)

// InsufficientStockMessage is the validation message returned for oversold lines.
const InsufficientStockMessage = "insufficient stock"

// StockValidationInput describes one requested product line.
type StockValidationInput struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
	Requested   int
}

// StockViolationDetail exposes the data returned to callers when a validation fails.
type StockViolationDetail struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name,omitempty"`
	AvailableQty int       `json:"available_qty"`
	RequestedQty int       `json:"requested_qty"`
}

// ValidateQuantities rejects lines that request fewer than one unit.
func ValidateQuantities(items []StockValidationInput) error {
	for _, item := range items {
		if item.Requested < 1 {
			return pkgerrors.Invalid("quantity", fmt.Sprintf("must be at least 1 for product %s", item.ProductID))
		}
	}
	return nil
}

// ValidateStock ensures every line can be served from the units currently on hand.
func ValidateStock(items []StockValidationInput) error {
	var violations []StockViolationDetail
	for _, item := range items {
		if item.Requested > item.Available {
			violations = append(violations, StockViolationDetail{
				ProductID:    item.ProductID,
				ProductName:  item.ProductName,
				AvailableQty: item.Available,
				RequestedQty: item.Requested,
			})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return InsufficientStock(violations...)
}

// InsufficientStock builds the validation error for oversold lines.
func InsufficientStock(violations ...StockViolationDetail) error {
	return pkgerrors.New(pkgerrors.CodeValidation, InsufficientStockMessage).WithDetails(map[string]any{
		"violations": violations,
	})
}
