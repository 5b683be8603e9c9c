/*
transfer.go - Two-account transfer operation

PURPOSE:
  Debits one account and credits another atomically from the caller's
  perspective, recording a Transfer row alongside. The debit goes through
  the same floor policy as any expense; a transfer that would overdraw the
  source is rejected with both balances untouched.

FAILURE SEMANTICS:
  On a transactional store the whole operation is one unit. On the fallback
  path a failure between the debit and the credit triggers a compensating
  reversal of the debit; if that reversal also fails the caller receives
  PartialFailureError, which names the account left uncorrected, instead of
  a silent half-transfer.
*/
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransferInput is the caller's intent for a transfer.
type TransferInput struct {
	SourceID    AccountID
	DestID      AccountID
	Amount      Money
	Description string
	Date        time.Time
}

// Transfer moves amount from the source account to the destination account
// and records the movement. The conservation law holds in every outcome:
// either both balances move by amount, or neither does, or the error names
// the inconsistent account.
func (m *Manager) Transfer(ctx context.Context, owner OwnerID, in TransferInput) (Transfer, error) {
	in.Amount = in.Amount.Round(2)
	if in.SourceID == "" || in.DestID == "" {
		return Transfer{}, &ValidationError{Field: "account", Reason: "source and destination required"}
	}
	if in.SourceID == in.DestID {
		return Transfer{}, &ValidationError{Field: "destinationId", Reason: "must differ from source"}
	}
	if !in.Amount.IsPositive() {
		return Transfer{}, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	// Both ends must resolve before anything moves.
	if _, err := m.store.GetAccount(ctx, owner, in.SourceID); err != nil {
		return Transfer{}, err
	}
	if _, err := m.store.GetAccount(ctx, owner, in.DestID); err != nil {
		return Transfer{}, err
	}

	rec := Transfer{
		ID:          TransferID(uuid.NewString()),
		SourceID:    in.SourceID,
		DestID:      in.DestID,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
		OwnerID:     owner,
		CreatedAt:   time.Now().UTC(),
	}

	err := m.withConflictRetry(func() error {
		return m.runTransfer(ctx, owner, rec)
	})
	if err != nil {
		return Transfer{}, err
	}

	m.log.Info("transfer completed",
		zap.String("id", string(rec.ID)),
		zap.String("source", string(rec.SourceID)),
		zap.String("destination", string(rec.DestID)),
		zap.String("amount", rec.Amount.StringFixed(2)))
	return rec, nil
}

func (m *Manager) runTransfer(ctx context.Context, owner OwnerID, rec Transfer) error {
	debited, credited := false, false
	atomic, err := InTx(ctx, m.store, func(s Store) error {
		if _, err := m.engine.applyDelta(ctx, s, owner, rec.SourceID, rec.Amount.Neg()); err != nil {
			return err
		}
		debited = true
		if _, err := m.engine.applyDelta(ctx, s, owner, rec.DestID, rec.Amount); err != nil {
			return err
		}
		credited = true
		return s.InsertTransfer(ctx, &rec)
	})
	if err == nil || atomic {
		return err
	}

	// Fallback: reverse whatever half landed so both balances return to
	// their prior values.
	if credited {
		if _, compErr := m.store.AdjustBalance(ctx, owner, rec.DestID, rec.Amount.Neg(), true); compErr != nil {
			return &PartialFailureError{Op: "transfer", Applied: rec.DestID, Unapplied: rec.SourceID, Cause: err}
		}
	}
	if debited {
		if _, compErr := m.store.AdjustBalance(ctx, owner, rec.SourceID, rec.Amount, true); compErr != nil {
			return &PartialFailureError{Op: "transfer", Applied: rec.DestID, Unapplied: rec.SourceID, Cause: err}
		}
	}
	return err
}

// ListTransfers returns the owner's transfer history.
func (m *Manager) ListTransfers(ctx context.Context, owner OwnerID) ([]Transfer, error) {
	return m.store.ListTransfers(ctx, owner)
}
