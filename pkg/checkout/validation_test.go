package checkout

import (
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
)

func TestValidateStock_NoViolations(t *testing.T) {
	items := []StockValidationInput{
		{ProductID: uuid.New(), ProductName: "Exact Fit", Available: 2, Requested: 2},
		{ProductID: uuid.New(), ProductName: "Plenty", Available: 100, Requested: 1},
	}
	if err := ValidateStock(items); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStock_Violations(t *testing.T) {
	items := []StockValidationInput{
		{ProductID: uuid.New(), ProductName: "Short", Available: 3, Requested: 5},
		{ProductID: uuid.New(), ProductName: "Gone", Available: 0, Requested: 1},
		{ProductID: uuid.New(), ProductName: "Fine", Available: 4, Requested: 1},
	}
	err := ValidateStock(items)
	if err == nil {
		t.Fatal("expected error for oversold lines")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected pkgerrors.Error, got %T", err)
	}
	if typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected code %s, got %s", pkgerrors.CodeValidation, typed.Code())
	}
	if typed.Message() != InsufficientStockMessage {
		t.Fatalf("unexpected message %q", typed.Message())
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	violations, ok := details["violations"].([]StockViolationDetail)
	if !ok {
		t.Fatalf("expected violations slice, got %T", details["violations"])
	}
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(violations))
	}
	if violations[1].ProductName != "Gone" || violations[1].AvailableQty != 0 {
		t.Fatalf("unexpected violation %+v", violations[1])
	}
}

func TestValidateQuantities(t *testing.T) {
	if err := ValidateQuantities([]StockValidationInput{{ProductID: uuid.New(), Requested: 1}}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	err := ValidateQuantities([]StockValidationInput{{ProductID: uuid.New(), Requested: 0}})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
