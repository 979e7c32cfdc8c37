package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateKey is returned when a transaction touches the same key twice.
	ErrDuplicateKey = errors.New("transaction touches the same key more than once")

	// ErrEmptyTransaction is returned when TransactWrite is called with no items.
	ErrEmptyTransaction = errors.New("transaction has no items")

	// ErrInvalidStartKey is returned when a query's StartKey lies outside its prefix.
	ErrInvalidStartKey = errors.New("start key does not match query prefix")
)

// CancellationReason explains the outcome of one item in a rejected transaction.
type CancellationReason string

const (
	// ReasonNone means the item's condition held.
	ReasonNone CancellationReason = "None"

	// ReasonConditionalCheckFailed means the item's condition did not hold.
	ReasonConditionalCheckFailed CancellationReason = "ConditionalCheckFailed"
)

// TransactionCanceledError reports a transaction rejected because at least one
// condition failed. Nothing was written.
type TransactionCanceledError struct {
	// Reasons has one entry per transaction item, in request order.
	Reasons []CancellationReason
}

// Error implements the error interface.
func (e *TransactionCanceledError) Error() string {
	parts := make([]string, len(e.Reasons))
	for i, r := range e.Reasons {
		parts[i] = string(r)
	}
	return fmt.Sprintf("transaction canceled, reasons [%s]", strings.Join(parts, ", "))
}

// Failed returns the indexes of the items whose condition failed.
func (e *TransactionCanceledError) Failed() []int {
	var idx []int
	for i, r := range e.Reasons {
		if r == ReasonConditionalCheckFailed {
			idx = append(idx, i)
		}
	}
	return idx
}

// FailedAt reports whether the item at index i failed its condition.
func (e *TransactionCanceledError) FailedAt(i int) bool {
	return i >= 0 && i < len(e.Reasons) && e.Reasons[i] == ReasonConditionalCheckFailed
}

// IsTransactionCanceled checks if an error is a *TransactionCanceledError.
func IsTransactionCanceled(err error) bool {
	var tce *TransactionCanceledError
	return errors.As(err, &tce)
}

// AsTransactionCanceled extracts a *TransactionCanceledError from err.
func AsTransactionCanceled(err error) (*TransactionCanceledError, bool) {
	var tce *TransactionCanceledError
	if errors.As(err, &tce) {
		return tce, true
	}
	return nil, false
}
