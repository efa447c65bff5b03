package utils

import (
	"errors"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("Product", 42)
	if err.Error() != "Product not found (id=42)" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	// callers that don't care which entity was missing match the sentinel
	if !errors.Is(err, ErrorRecordNotFound) {
		t.Fatalf("expected errors.Is(err, ErrorRecordNotFound) to hold")
	}

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected errors.As to yield *NotFoundError")
	}
	if notFound.EntityType != "Product" || notFound.Id != 42 {
		t.Fatalf("unexpected fields: %+v", notFound)
	}
}

func TestInvalidStateTransitionError(t *testing.T) {
	err := NewInvalidStateTransitionError("Delivered", "cancel")
	if err.Error() != "cannot cancel in Delivered state" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	var transition *InvalidStateTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected errors.As to yield *InvalidStateTransitionError")
	}
	if transition.CurrentState != "Delivered" || transition.AttemptedOperation != "cancel" {
		t.Fatalf("unexpected fields: %+v", transition)
	}
}

func TestInsufficientStockError(t *testing.T) {
	err := NewInsufficientStockError(7, 5, 3)
	if err.Error() != "insufficient stock on hand for product 7 (requested=5, available=3)" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	var stock *InsufficientStockError
	if !errors.As(err, &stock) {
		t.Fatalf("expected errors.As to yield *InsufficientStockError")
	}
	if stock.ProductId != 7 || stock.Requested != 5 || stock.Available != 3 {
		t.Fatalf("unexpected fields: %+v", stock)
	}

	// stock shortage is not a missing record
	if errors.Is(err, ErrorRecordNotFound) {
		t.Fatalf("InsufficientStockError must not match ErrorRecordNotFound")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("quantity", "must be positive")
	if err.Error() != "quantity: must be positive" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected errors.As to yield *ValidationError")
	}
	if validation.Field != "quantity" || validation.Reason != "must be positive" {
		t.Fatalf("unexpected fields: %+v", validation)
	}
}
