/*
store.go - Persistence interface for the finance engine

PURPOSE:
  Defines the contract between the domain logic and the database. Different
  implementations back it with SQLite, PostgreSQL, or memory.

OWNER SCOPING:
  Every method takes an OwnerID and must behave as if rows belonging to
  other owners do not exist. This is a security invariant, not a filter:
  a cross-owner read or write returns the not-found sentinel.

THE UNIT OF ATOMICITY:
  AdjustBalance is the only way a balance changes. Implementations perform
  it as a single conditional update (balance = balance + delta, optionally
  guarded by the non-negative floor), never as a read in application code
  followed by a write. Two concurrent deltas on the same account must both
  land; the naive read-modify-write loses one.

TRANSACTIONS:
  TxStore adds WithTx for multi-row atomicity. The lifecycle manager uses it
  to make insert-transaction + adjust-balance a single unit; stores that
  cannot provide it fall back to compensating actions (see lifecycle.go).

IMPLEMENTATIONS:
  - ledger/store/memory.go: in-memory, for tests and dev
  - store/sqlite:           database/sql + mattn/go-sqlite3
  - store/postgres:         jackc/pgx/v5

SEE ALSO:
  - balance.go: engine built on AdjustBalance
  - lifecycle.go: orchestration built on WithTx
*/
package ledger

import (
	"context"
	"time"
)

// TransactionFilter narrows ListTransactions. Nil fields match everything.
type TransactionFilter struct {
	AccountID  *AccountID
	CategoryID *CategoryID
	Type       *TransactionType
	From       *time.Time
	To         *time.Time
}

// Store handles persistence of all owner-scoped entities.
type Store interface {
	// Accounts
	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, owner OwnerID, id AccountID) (Account, error)
	ListAccounts(ctx context.Context, owner OwnerID) ([]Account, error)
	UpdateAccount(ctx context.Context, owner OwnerID, id AccountID, name string, typ AccountType) (Account, error)
	DeleteAccount(ctx context.Context, owner OwnerID, id AccountID) error

	// AdjustBalance atomically adds delta to the account's stored balance
	// and returns the new balance. When allowNegative is false and the
	// result would be negative, no change is made and the error unwraps to
	// ErrInsufficientFunds. The increment and the floor check are one
	// storage-level operation.
	AdjustBalance(ctx context.Context, owner OwnerID, id AccountID, delta Money, allowNegative bool) (Money, error)

	// Transactions
	InsertTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, owner OwnerID, id TransactionID) (Transaction, error)
	ListTransactions(ctx context.Context, owner OwnerID, f TransactionFilter) ([]Transaction, error)
	UpdateTransaction(ctx context.Context, owner OwnerID, tx Transaction) error
	DeleteTransaction(ctx context.Context, owner OwnerID, id TransactionID) error

	// Categories
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, owner OwnerID, id CategoryID) (Category, error)
	ListCategories(ctx context.Context, owner OwnerID) ([]Category, error)
	UpdateCategory(ctx context.Context, owner OwnerID, c Category) error
	DeleteCategory(ctx context.Context, owner OwnerID, id CategoryID) error

	// Budgets
	CreateBudget(ctx context.Context, b *Budget) error
	GetBudget(ctx context.Context, owner OwnerID, id BudgetID) (Budget, error)
	ListBudgets(ctx context.Context, owner OwnerID) ([]Budget, error)
	UpdateBudget(ctx context.Context, owner OwnerID, b Budget) error
	DeleteBudget(ctx context.Context, owner OwnerID, id BudgetID) error

	// Goals
	CreateGoal(ctx context.Context, g *Goal) error
	GetGoal(ctx context.Context, owner OwnerID, id GoalID) (Goal, error)
	ListGoals(ctx context.Context, owner OwnerID) ([]Goal, error)
	UpdateGoal(ctx context.Context, owner OwnerID, g Goal) error
	DeleteGoal(ctx context.Context, owner OwnerID, id GoalID) error

	// Bills
	CreateBill(ctx context.Context, b *Bill) error
	GetBill(ctx context.Context, owner OwnerID, id BillID) (Bill, error)
	ListBills(ctx context.Context, owner OwnerID) ([]Bill, error)
	UpdateBill(ctx context.Context, owner OwnerID, b Bill) error
	DeleteBill(ctx context.Context, owner OwnerID, id BillID) error

	// Transfers (history records; balance effects go through AdjustBalance)
	InsertTransfer(ctx context.Context, t *Transfer) error
	ListTransfers(ctx context.Context, owner OwnerID) ([]Transfer, error)

	// ListOwners returns every owner with at least one account. Used by the
	// reconciliation sweeper.
	ListOwners(ctx context.Context) ([]OwnerID, error)
}

// TxStore wraps Store with multi-row transaction support.
// If fn returns an error the transaction is rolled back, otherwise committed.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}

// InTx runs fn inside a storage transaction when the store supports it, and
// falls back to running fn directly otherwise. Callers on the fallback path
// are responsible for their own compensation (see lifecycle.go).
func InTx(ctx context.Context, s Store, fn func(Store) error) (atomic bool, err error) {
	if ts, ok := s.(TxStore); ok {
		return true, ts.WithTx(ctx, fn)
	}
	return false, fn(s)
}
