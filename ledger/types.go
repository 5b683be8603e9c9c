/*
Package ledger provides the core personal-finance engine.

PURPOSE:
  This package contains the domain model and algorithms for keeping account
  balances consistent under transaction mutations. Every income/expense
  recorded, edited, moved between accounts, or removed must leave each
  account's stored balance equal to its opening balance plus the signed
  sum of its transactions and transfers.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: fixed-point monetary amounts (decimal, two fraction digits)
  - Account: a balance-bearing container (checking, savings, wallet, ...)
  - Transaction: a single income or expense against one account
  - Transfer: an atomic two-account debit/credit pair
  - Budget, Goal, Bill: derived-progress entities with no balance semantics

DESIGN PRINCIPLES:
  1. One source of truth: the stored balance, adjusted by a single atomic
     storage-level increment. Recompute-from-transactions exists only as a
     reconciliation pass (see balance.go), never as a second authority.
  2. Precision: decimal.Decimal everywhere, no floats in money paths.
  3. Ownership: every entity belongs to exactly one owner, and every store
     call is scoped to that owner. A row outside the scope is not found.

SEE ALSO:
  - balance.go: balance engine (apply delta, recompute, reconcile)
  - lifecycle.go: transaction create/update/delete orchestration
  - transfer.go: two-account transfer operation
  - store.go: persistence interfaces
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// Money is a monetary amount with two fraction digits.
type Money = decimal.Decimal

// NewMoney builds an amount from units and cents, e.g. NewMoney(12, 50) = 12.50.
func NewMoney(units int64, cents int64) Money {
	return decimal.NewFromInt(units*100 + cents).Div(decimal.NewFromInt(100))
}

// ParseMoney parses a decimal string and normalizes it to two fraction digits.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(2), nil
}

// MustMoney is ParseMoney for literals in tests and fixtures.
func MustMoney(s string) Money {
	d, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	OwnerID       string
	AccountID     string
	TransactionID string
	CategoryID    string
	BudgetID      string
	GoalID        string
	TransferID    string
	BillID        string
)

// =============================================================================
// ACCOUNT
// =============================================================================

type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountWallet     AccountType = "wallet"
	AccountInvestment AccountType = "investment"
)

// ValidAccountType reports whether t is one of the known account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountChecking, AccountSavings, AccountWallet, AccountInvestment:
		return true
	}
	return false
}

// Account holds a stored balance. The balance is authoritative: it is only
// ever changed through Store.AdjustBalance, and Reconcile can verify it
// against the balance derived from the account's recorded history.
type Account struct {
	ID   AccountID
	Name string
	Type AccountType

	// Balance is the stored balance, adjusted only through AdjustBalance.
	Balance Money

	// OpeningBalance is the balance the account was created with. It is
	// immutable and anchors reconciliation: the expected balance is
	// OpeningBalance plus the signed sum of transactions and transfers.
	OpeningBalance Money

	OwnerID   OwnerID
	CreatedAt time.Time
}

// =============================================================================
// TRANSACTION
// =============================================================================

type TransactionType string

const (
	TxIncome  TransactionType = "income"
	TxExpense TransactionType = "expense"
)

// Transaction records one income or expense. Amount is always positive; the
// type determines the sign applied to the account balance.
type Transaction struct {
	ID          TransactionID
	Title       string
	Amount      Money // always > 0
	Type        TransactionType
	CategoryID  CategoryID
	AccountID   AccountID
	Date        time.Time
	Description string
	OwnerID     OwnerID
	CreatedAt   time.Time
}

// SignedAmount returns the amount with the sign its type applies to the
// account balance: positive for income, negative for expense.
func (t Transaction) SignedAmount() Money {
	if t.Type == TxExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Signed applies a transaction type's sign to a positive amount.
func Signed(amount Money, typ TransactionType) Money {
	if typ == TxExpense {
		return amount.Neg()
	}
	return amount
}

// =============================================================================
// CATEGORY
// =============================================================================

// Category labels transactions and budgets. No balance semantics.
type Category struct {
	ID        CategoryID
	Name      string
	Color     string
	Icon      string
	OwnerID   OwnerID
	CreatedAt time.Time
}

// =============================================================================
// BUDGET / GOAL
// =============================================================================

type BudgetPeriod string

const (
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"
)

// Budget caps spending in one category per period. The consumed percentage
// is derived from transactions, never stored.
type Budget struct {
	ID         BudgetID
	CategoryID CategoryID
	Limit      Money
	Period     BudgetPeriod
	OwnerID    OwnerID
	CreatedAt  time.Time
}

// Goal tracks saving toward a target amount by a target date.
type Goal struct {
	ID            GoalID
	Title         string
	TargetAmount  Money
	CurrentAmount Money
	TargetDate    time.Time
	OwnerID       OwnerID
	CreatedAt     time.Time
}

// =============================================================================
// TRANSFER
// =============================================================================

// Transfer records a completed two-account movement. The balance effects are
// applied by the transfer operation; the record itself is history.
type Transfer struct {
	ID          TransferID
	SourceID    AccountID
	DestID      AccountID
	Amount      Money // always > 0
	Description string
	Date        time.Time
	OwnerID     OwnerID
	CreatedAt   time.Time
}

// =============================================================================
// BILL
// =============================================================================

type BillType string

const (
	BillPayable    BillType = "payable"
	BillReceivable BillType = "receivable"
)

type BillStatus string

const (
	BillPending  BillStatus = "pending"
	BillPaid     BillStatus = "paid"
	BillReceived BillStatus = "received"
	BillLate     BillStatus = "late"
)

// Bill is an upcoming payable or receivable. A pending bill whose due date
// has passed reads back as late (see progress.go).
type Bill struct {
	ID          BillID
	Type        BillType
	Description string
	CategoryID  CategoryID
	Amount      Money
	DueDate     time.Time
	Status      BillStatus
	Recurring   bool
	OwnerID     OwnerID
	CreatedAt   time.Time
}
