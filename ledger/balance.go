/*
balance.go - Balance engine: apply, recompute, reconcile

PURPOSE:
  The one place account balances change. The stored balance field is the
  single source of truth; it moves only through ApplyDelta, which delegates
  to the store's atomic increment. Recompute derives the balance an account
  ought to have from its opening balance and recorded history, and is used
  strictly for reconciliation, never as a parallel authority.

WHY NOT RECOMPUTE-ON-READ?
  Recomputing on every read while also writing a stored field creates two
  authorities that diverge under concurrent sessions. We keep the stored
  field for O(1) reads and make drift detectable: Reconcile compares every
  stored balance against its recomputed value and can repair the stored
  side.

FLOOR POLICY:
  AllowNegative decides, once, whether debits may take a balance below
  zero. The same switch governs expense creation, edits, and transfers.
  Deleting an expense only ever credits the account back, so no check
  applies there.

SEE ALSO:
  - store.go: AdjustBalance contract
  - lifecycle.go: callers pairing deltas with transaction rows
*/
package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine applies balance deltas and reconciles stored balances against the
// transaction history.
type Engine struct {
	store Store
	log   *zap.Logger

	// AllowNegative disables the non-negative floor on debits.
	AllowNegative bool
}

// NewEngine creates an engine over the given store. A nil logger is replaced
// with a no-op one.
func NewEngine(store Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, log: log}
}

// ApplyDelta adds a signed amount to the account's stored balance and
// returns the new balance. Positive deltas are credits (income, expense
// reversal), negative deltas are debits. The update is a single atomic
// storage operation, so two concurrent deltas on the same account both land.
func (e *Engine) ApplyDelta(ctx context.Context, owner OwnerID, id AccountID, delta Money) (Money, error) {
	return e.applyDelta(ctx, e.store, owner, id, delta)
}

// applyDelta is ApplyDelta against an explicit store, so the lifecycle
// manager can route deltas through a transactional view.
func (e *Engine) applyDelta(ctx context.Context, s Store, owner OwnerID, id AccountID, delta Money) (Money, error) {
	newBalance, err := s.AdjustBalance(ctx, owner, id, delta, e.AllowNegative)
	if err != nil {
		return decimal.Zero, err
	}
	e.log.Debug("applied balance delta",
		zap.String("account", string(id)),
		zap.String("delta", delta.StringFixed(2)),
		zap.String("balance", newBalance.StringFixed(2)))
	return newBalance, nil
}

// Recompute derives the balance the account ought to have: its opening
// balance, plus the signed sum of its transactions, plus transfers in, minus
// transfers out. A missing or foreign account surfaces as ErrAccountNotFound
// rather than an empty sum.
func (e *Engine) Recompute(ctx context.Context, owner OwnerID, id AccountID) (Money, error) {
	a, err := e.store.GetAccount(ctx, owner, id)
	if err != nil {
		return decimal.Zero, err
	}
	txs, err := e.store.ListTransactions(ctx, owner, TransactionFilter{AccountID: &id})
	if err != nil {
		return decimal.Zero, fmt.Errorf("recompute %s: %w", id, err)
	}
	sum := a.OpeningBalance
	for _, tx := range txs {
		sum = sum.Add(tx.SignedAmount())
	}
	transfers, err := e.store.ListTransfers(ctx, owner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("recompute %s: %w", id, err)
	}
	for _, tr := range transfers {
		if tr.DestID == id {
			sum = sum.Add(tr.Amount)
		}
		if tr.SourceID == id {
			sum = sum.Sub(tr.Amount)
		}
	}
	return sum, nil
}

// Reconcile compares every stored balance in the owner's scope against its
// recomputed value and returns the accounts that drifted. It must not run
// concurrently with in-flight mutations for the same accounts; the sweep is
// a quiescent-state check.
func (e *Engine) Reconcile(ctx context.Context, owner OwnerID) ([]Drift, error) {
	accounts, err := e.store.ListAccounts(ctx, owner)
	if err != nil {
		return nil, err
	}

	var drifts []Drift
	for _, a := range accounts {
		computed, err := e.Recompute(ctx, owner, a.ID)
		if err != nil {
			return nil, err
		}
		if !a.Balance.Equal(computed) {
			d := Drift{AccountID: a.ID, Stored: a.Balance, Computed: computed}
			e.log.Warn("balance drift detected",
				zap.String("account", string(a.ID)),
				zap.String("stored", d.Stored.StringFixed(2)),
				zap.String("computed", d.Computed.StringFixed(2)))
			drifts = append(drifts, d)
		}
	}
	return drifts, nil
}

// RepairDrift corrects the stored balances named in drifts so they match
// their recomputed values. Repairs bypass the floor: a drifted account may
// legitimately land negative once corrected.
func (e *Engine) RepairDrift(ctx context.Context, owner OwnerID, drifts []Drift) error {
	for _, d := range drifts {
		if _, err := e.store.AdjustBalance(ctx, owner, d.AccountID, d.Delta().Neg(), true); err != nil {
			return fmt.Errorf("repair %s: %w", d.AccountID, err)
		}
		e.log.Info("repaired balance drift",
			zap.String("account", string(d.AccountID)),
			zap.String("correction", d.Delta().Neg().StringFixed(2)))
	}
	return nil
}
