/*
lifecycle.go - Transaction lifecycle manager

PURPOSE:
  Orchestrates create/update/delete of a transaction together with the
  matching balance adjustment so the pair behaves as one logical operation.
  No durably observable state has a transaction row without its balance
  effect, or a balance effect without its row.

STATE MACHINE:
  {proposed}  -> Create -> {persisted, balance applied}
  {persisted} -> Update -> {persisted, balance reapplied}
  {persisted} -> Delete -> {removed, balance reverted}

ATOMICITY:
  When the store implements TxStore (all bundled stores do), each operation
  runs inside one storage transaction. On a plain Store the manager falls
  back to ordered steps with compensating reversals; if a compensation
  itself fails the caller gets PartialFailureError and the reconciliation
  sweep will find and repair the drift.

UPDATE SEMANTICS:
  Updating reverses the old effect on the old account and applies the new
  effect on the new account. When both accounts are the same the two deltas
  collapse into a single adjustment, so no intermediate balance is ever
  stored.

RETRIES:
  The only silent retry is on ErrConflict (optimistic concurrency), bounded
  and logged. Every other error propagates to the caller untouched.

SEE ALSO:
  - balance.go: delta application
  - transfer.go: the two-account sibling of Update-across-accounts
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// conflictRetries bounds the documented retry on ErrConflict.
const conflictRetries = 3

// Manager orchestrates transaction mutations and their balance effects.
type Manager struct {
	store  Store
	engine *Engine
	log    *zap.Logger
}

// NewManager creates a manager sharing the engine's store and floor policy.
func NewManager(store Store, engine *Engine, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, engine: engine, log: log}
}

// =============================================================================
// VALIDATION
// =============================================================================

func validateTransactionInput(tx Transaction) error {
	if strings.TrimSpace(tx.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if !tx.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if tx.Type != TxIncome && tx.Type != TxExpense {
		return &ValidationError{Field: "type", Reason: "must be income or expense"}
	}
	if tx.AccountID == "" {
		return &ValidationError{Field: "accountId", Reason: "required"}
	}
	if tx.CategoryID == "" {
		return &ValidationError{Field: "categoryId", Reason: "required"}
	}
	if tx.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	return nil
}

// checkReferences verifies the account and category resolve under the owner
// scope before anything is written.
func (m *Manager) checkReferences(ctx context.Context, owner OwnerID, tx Transaction) error {
	if _, err := m.store.GetAccount(ctx, owner, tx.AccountID); err != nil {
		return err
	}
	if _, err := m.store.GetCategory(ctx, owner, tx.CategoryID); err != nil {
		return err
	}
	return nil
}

// =============================================================================
// CREATE
// =============================================================================

// CreateTransaction validates the input, persists the row, and applies the
// signed amount to the account balance as one unit. The returned transaction
// carries the generated ID and creation timestamp.
func (m *Manager) CreateTransaction(ctx context.Context, owner OwnerID, tx Transaction) (Transaction, error) {
	tx.Amount = tx.Amount.Round(2)
	if err := validateTransactionInput(tx); err != nil {
		return Transaction{}, err
	}
	tx.OwnerID = owner
	if err := m.checkReferences(ctx, owner, tx); err != nil {
		return Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = TransactionID(uuid.NewString())
	}
	tx.CreatedAt = time.Now().UTC()

	err := m.withConflictRetry(func() error {
		return m.runCreate(ctx, owner, &tx)
	})
	if err != nil {
		return Transaction{}, err
	}

	m.log.Info("transaction created",
		zap.String("id", string(tx.ID)),
		zap.String("account", string(tx.AccountID)),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.StringFixed(2)))
	return tx, nil
}

func (m *Manager) runCreate(ctx context.Context, owner OwnerID, tx *Transaction) error {
	atomic, err := InTx(ctx, m.store, func(s Store) error {
		if err := s.InsertTransaction(ctx, tx); err != nil {
			return err
		}
		_, err := m.engine.applyDelta(ctx, s, owner, tx.AccountID, tx.SignedAmount())
		return err
	})
	if err == nil || atomic {
		return err
	}

	// Fallback path: the row may have landed without its balance effect.
	// Compensate by removing it again.
	if delErr := m.store.DeleteTransaction(ctx, owner, tx.ID); delErr != nil &&
		!errors.Is(delErr, ErrTransactionNotFound) {
		return &PartialFailureError{Op: "create", Unapplied: tx.AccountID, Cause: err}
	}
	return err
}

// =============================================================================
// UPDATE
// =============================================================================

// UpdateTransaction replaces a persisted transaction with the given fields,
// reversing the old balance effect and applying the new one. Moving the
// transaction to a different account adjusts both accounts; the total across
// all accounts is unchanged by construction.
func (m *Manager) UpdateTransaction(ctx context.Context, owner OwnerID, updated Transaction) (Transaction, error) {
	updated.Amount = updated.Amount.Round(2)
	if updated.ID == "" {
		return Transaction{}, &ValidationError{Field: "id", Reason: "required"}
	}
	if err := validateTransactionInput(updated); err != nil {
		return Transaction{}, err
	}

	old, err := m.store.GetTransaction(ctx, owner, updated.ID)
	if err != nil {
		return Transaction{}, err
	}
	updated.OwnerID = owner
	updated.CreatedAt = old.CreatedAt
	if err := m.checkReferences(ctx, owner, updated); err != nil {
		return Transaction{}, err
	}

	err = m.withConflictRetry(func() error {
		return m.runUpdate(ctx, owner, old, updated)
	})
	if err != nil {
		return Transaction{}, err
	}

	m.log.Info("transaction updated",
		zap.String("id", string(updated.ID)),
		zap.String("account", string(updated.AccountID)),
		zap.String("amount", updated.Amount.StringFixed(2)))
	return updated, nil
}

func (m *Manager) runUpdate(ctx context.Context, owner OwnerID, old, updated Transaction) error {
	reverse := old.SignedAmount().Neg()
	forward := updated.SignedAmount()

	rowUpdated, reversed := false, false
	atomic, err := InTx(ctx, m.store, func(s Store) error {
		if err := s.UpdateTransaction(ctx, owner, updated); err != nil {
			return err
		}
		rowUpdated = true
		if old.AccountID == updated.AccountID {
			// Same account: one combined delta, no intermediate balance.
			combined := reverse.Add(forward)
			if combined.IsZero() {
				return nil
			}
			_, err := m.engine.applyDelta(ctx, s, owner, old.AccountID, combined)
			return err
		}
		if _, err := m.engine.applyDelta(ctx, s, owner, old.AccountID, reverse); err != nil {
			return err
		}
		reversed = true
		_, err := m.engine.applyDelta(ctx, s, owner, updated.AccountID, forward)
		return err
	})
	if err == nil || atomic {
		return err
	}

	// Fallback: undo only the steps that actually applied. The reverse delta
	// itself can be the failing step (the old account may no longer afford
	// reversing an income), so restoring it unconditionally would credit
	// money that was never taken.
	if reversed {
		if _, compErr := m.store.AdjustBalance(ctx, owner, old.AccountID, reverse.Neg(), true); compErr != nil {
			return &PartialFailureError{Op: "update", Applied: old.AccountID, Unapplied: updated.AccountID, Cause: err}
		}
	}
	if rowUpdated {
		if rowErr := m.store.UpdateTransaction(ctx, owner, old); rowErr != nil &&
			!errors.Is(rowErr, ErrTransactionNotFound) {
			return &PartialFailureError{Op: "update", Applied: old.AccountID, Unapplied: updated.AccountID, Cause: err}
		}
	}
	return err
}

// =============================================================================
// DELETE
// =============================================================================

// DeleteTransaction reverts the transaction's balance effect and removes the
// row as one unit. Reverting an expense credits the account, so the floor
// never applies; reverting an income debits it and goes through the same
// uniform floor policy as any other debit.
func (m *Manager) DeleteTransaction(ctx context.Context, owner OwnerID, id TransactionID) error {
	tx, err := m.store.GetTransaction(ctx, owner, id)
	if err != nil {
		return err
	}

	err = m.withConflictRetry(func() error {
		return m.runDelete(ctx, owner, tx)
	})
	if err != nil {
		return err
	}

	m.log.Info("transaction deleted",
		zap.String("id", string(id)),
		zap.String("account", string(tx.AccountID)))
	return nil
}

func (m *Manager) runDelete(ctx context.Context, owner OwnerID, tx Transaction) error {
	reverse := tx.SignedAmount().Neg()

	atomic, err := InTx(ctx, m.store, func(s Store) error {
		if err := s.DeleteTransaction(ctx, owner, tx.ID); err != nil {
			return err
		}
		_, err := m.engine.applyDelta(ctx, s, owner, tx.AccountID, reverse)
		return err
	})
	if err == nil || atomic {
		return err
	}

	// Fallback: the row is gone but the reversal failed. Re-insert the row
	// so no money vanishes.
	restored := tx
	if insErr := m.store.InsertTransaction(ctx, &restored); insErr != nil {
		return &PartialFailureError{Op: "delete", Unapplied: tx.AccountID, Cause: err}
	}
	return err
}

// =============================================================================
// READS
// =============================================================================

// GetTransaction returns one transaction under the owner scope.
func (m *Manager) GetTransaction(ctx context.Context, owner OwnerID, id TransactionID) (Transaction, error) {
	return m.store.GetTransaction(ctx, owner, id)
}

// ListTransactions returns the owner's transactions, optionally filtered.
func (m *Manager) ListTransactions(ctx context.Context, owner OwnerID, f TransactionFilter) ([]Transaction, error) {
	return m.store.ListTransactions(ctx, owner, f)
}

// =============================================================================
// RETRY
// =============================================================================

func (m *Manager) withConflictRetry(op func() error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = op()
		if err == nil || !IsRetryable(err) {
			return err
		}
		m.log.Debug("retrying after conflict", zap.Int("attempt", attempt+1))
	}
	return fmt.Errorf("giving up after %d conflict retries: %w", conflictRetries, err)
}
