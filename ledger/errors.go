/*
errors.go - Centralized error types for the finance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Store implementations and the API layer wrap or classify these.

ERROR CATEGORIES:
  1. Not-found errors  - Referenced entity missing or outside owner scope
  2. Validation errors - Malformed input, rejected before any write
  3. Funds errors      - Floor policy would be violated
  4. Consistency errors - Partial multi-step failures, detected drift
  5. Concurrency errors - Conflicting concurrent modification

USAGE:
  if errors.Is(err, ledger.ErrInsufficientFunds) { ... }

  var pf *ledger.PartialFailureError
  if errors.As(err, &pf) { ... }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAccountNotFound is returned when an account id does not resolve
	// under the caller's owner scope.
	ErrAccountNotFound = errors.New("account not found")

	// ErrCategoryNotFound is returned when a referenced category is missing.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrTransactionNotFound is returned when a transaction is missing.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrTransferNotFound is returned when a transfer record is missing.
	ErrTransferNotFound = errors.New("transfer not found")

	// ErrBudgetNotFound is returned when a budget is missing.
	ErrBudgetNotFound = errors.New("budget not found")

	// ErrGoalNotFound is returned when a goal is missing.
	ErrGoalNotFound = errors.New("goal not found")

	// ErrBillNotFound is returned when a bill is missing.
	ErrBillNotFound = errors.New("bill not found")

	// ErrInsufficientFunds is returned when a debit would take a balance
	// below zero and the engine enforces the non-negative floor.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict is returned when a concurrent modification is detected.
	// Callers may retry the whole operation.
	ErrConflict = errors.New("concurrent modification detected")

	// ErrPartialFailure is returned when a multi-step mutation succeeded on
	// step one but could not complete nor compensate step two.
	ErrPartialFailure = errors.New("partial failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError rejects malformed input before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientFundsError reports a floor violation with the balance that was
// read inside the same logical operation. Under concurrent sessions that read
// can be momentarily stale; the storage-level conditional update is what
// actually enforces the floor.
type InsufficientFundsError struct {
	AccountID AccountID
	Available Money
	Requested Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on account %s: available %s, requested %s",
		e.AccountID, e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// PartialFailureError reports a multi-step mutation that applied its first
// balance effect but failed before the second, with compensation also
// failing. The account named in Unapplied holds the uncorrected side.
// Reconcile finds and repairs the resulting drift.
type PartialFailureError struct {
	Op        string // "create", "update", "delete", "transfer"
	Applied   AccountID
	Unapplied AccountID
	Cause     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s partially failed: adjusted %s but not %s: %v",
		e.Op, e.Applied, e.Unapplied, e.Cause)
}

func (e *PartialFailureError) Unwrap() error {
	return ErrPartialFailure
}

// Drift describes a stored balance that disagrees with the balance derived
// from the account's recorded history.
type Drift struct {
	AccountID AccountID
	Stored    Money
	Computed  Money
}

// Delta returns stored minus computed.
func (d Drift) Delta() Money {
	return d.Stored.Sub(d.Computed)
}

func (d Drift) String() string {
	return fmt.Sprintf("account %s: stored %s, computed %s",
		d.AccountID, d.Stored.StringFixed(2), d.Computed.StringFixed(2))
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrTransferNotFound) ||
		errors.Is(err, ErrBudgetNotFound) ||
		errors.Is(err, ErrGoalNotFound) ||
		errors.Is(err, ErrBillNotFound)
}

// IsClientError returns true if the error is due to invalid client input
// rather than an engine or storage fault.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInsufficientFunds) ||
		IsNotFound(err)
}
