package utils

import (
	"errors"
	"fmt"
)

// ErrorRecordNotFound is the base sentinel for missing records. NotFoundError
// unwraps to it so errors.Is(err, ErrorRecordNotFound) works at call sites
// that don't care which entity was missing.
var ErrorRecordNotFound = errors.New("record not found")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	EntityType string
	Id         int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found (id=%d)", e.EntityType, e.Id)
}

func (e *NotFoundError) Unwrap() error { return ErrorRecordNotFound }

func NewNotFoundError(entityType string, id int) error {
	return &NotFoundError{EntityType: entityType, Id: id}
}

// InvalidStateTransitionError reports an operation invoked outside its
// state-machine guard. CurrentState is left as it was.
type InvalidStateTransitionError struct {
	CurrentState       string
	AttemptedOperation string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s in %s state", e.AttemptedOperation, e.CurrentState)
}

func NewInvalidStateTransitionError(currentState string, attemptedOperation string) error {
	return &InvalidStateTransitionError{CurrentState: currentState, AttemptedOperation: attemptedOperation}
}

// InsufficientStockError reports a decrement that would take stock below zero.
type InsufficientStockError struct {
	ProductId int
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock on hand for product %d (requested=%d, available=%d)",
		e.ProductId, e.Requested, e.Available)
}

func NewInsufficientStockError(productId int, requested int, available int) error {
	return &InsufficientStockError{ProductId: productId, Requested: requested, Available: available}
}

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NewValidationError(field string, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
