/*
entities.go - CRUD orchestration for the non-transaction entities

Accounts, categories, budgets, goals, and bills have no multi-step failure
semantics; the manager only validates input, fills identities, and delegates
to the store. Account deletion is the one exception worth care: it refuses
to drop an account that still has transactions, since that would orphan the
history the reconciliation pass depends on.
*/
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// CreateAccount validates and persists a new account with its opening balance.
func (m *Manager) CreateAccount(ctx context.Context, owner OwnerID, a Account) (Account, error) {
	if strings.TrimSpace(a.Name) == "" {
		return Account{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !ValidAccountType(a.Type) {
		return Account{}, &ValidationError{Field: "type", Reason: "unknown account type"}
	}
	a.Balance = a.Balance.Round(2)
	if a.Balance.IsNegative() && !m.engine.AllowNegative {
		return Account{}, &ValidationError{Field: "balance", Reason: "opening balance must not be negative"}
	}
	a.OpeningBalance = a.Balance
	if a.ID == "" {
		a.ID = AccountID(uuid.NewString())
	}
	a.OwnerID = owner
	a.CreatedAt = time.Now().UTC()
	if err := m.store.CreateAccount(ctx, &a); err != nil {
		return Account{}, err
	}
	return a, nil
}

// GetAccount returns one account under the owner scope.
func (m *Manager) GetAccount(ctx context.Context, owner OwnerID, id AccountID) (Account, error) {
	return m.store.GetAccount(ctx, owner, id)
}

// ListAccounts returns the owner's accounts.
func (m *Manager) ListAccounts(ctx context.Context, owner OwnerID) ([]Account, error) {
	return m.store.ListAccounts(ctx, owner)
}

// RenameAccount updates an account's display name and type. The balance is
// untouchable here; it only moves through transactions and transfers.
func (m *Manager) RenameAccount(ctx context.Context, owner OwnerID, id AccountID, name string, typ AccountType) (Account, error) {
	if strings.TrimSpace(name) == "" {
		return Account{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !ValidAccountType(typ) {
		return Account{}, &ValidationError{Field: "type", Reason: "unknown account type"}
	}
	return m.store.UpdateAccount(ctx, owner, id, name, typ)
}

// DeleteAccount removes an empty account. An account with transactions must
// have them deleted or moved first.
func (m *Manager) DeleteAccount(ctx context.Context, owner OwnerID, id AccountID) error {
	txs, err := m.store.ListTransactions(ctx, owner, TransactionFilter{AccountID: &id})
	if err != nil {
		return err
	}
	if len(txs) > 0 {
		return &ValidationError{Field: "accountId", Reason: "account still has transactions"}
	}
	return m.store.DeleteAccount(ctx, owner, id)
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (m *Manager) CreateCategory(ctx context.Context, owner OwnerID, c Category) (Category, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Category{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if c.ID == "" {
		c.ID = CategoryID(uuid.NewString())
	}
	c.OwnerID = owner
	c.CreatedAt = time.Now().UTC()
	if err := m.store.CreateCategory(ctx, &c); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (m *Manager) ListCategories(ctx context.Context, owner OwnerID) ([]Category, error) {
	return m.store.ListCategories(ctx, owner)
}

func (m *Manager) UpdateCategory(ctx context.Context, owner OwnerID, c Category) (Category, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Category{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if err := m.store.UpdateCategory(ctx, owner, c); err != nil {
		return Category{}, err
	}
	return m.store.GetCategory(ctx, owner, c.ID)
}

func (m *Manager) DeleteCategory(ctx context.Context, owner OwnerID, id CategoryID) error {
	return m.store.DeleteCategory(ctx, owner, id)
}

// =============================================================================
// BUDGETS
// =============================================================================

func (m *Manager) CreateBudget(ctx context.Context, owner OwnerID, b Budget) (Budget, error) {
	if !b.Limit.IsPositive() {
		return Budget{}, &ValidationError{Field: "limit", Reason: "must be positive"}
	}
	if b.Period != PeriodMonthly && b.Period != PeriodYearly {
		return Budget{}, &ValidationError{Field: "period", Reason: "must be monthly or yearly"}
	}
	if _, err := m.store.GetCategory(ctx, owner, b.CategoryID); err != nil {
		return Budget{}, err
	}
	b.Limit = b.Limit.Round(2)
	if b.ID == "" {
		b.ID = BudgetID(uuid.NewString())
	}
	b.OwnerID = owner
	b.CreatedAt = time.Now().UTC()
	if err := m.store.CreateBudget(ctx, &b); err != nil {
		return Budget{}, err
	}
	return b, nil
}

func (m *Manager) ListBudgets(ctx context.Context, owner OwnerID) ([]Budget, error) {
	return m.store.ListBudgets(ctx, owner)
}

func (m *Manager) UpdateBudget(ctx context.Context, owner OwnerID, b Budget) (Budget, error) {
	if !b.Limit.IsPositive() {
		return Budget{}, &ValidationError{Field: "limit", Reason: "must be positive"}
	}
	if b.Period != PeriodMonthly && b.Period != PeriodYearly {
		return Budget{}, &ValidationError{Field: "period", Reason: "must be monthly or yearly"}
	}
	b.Limit = b.Limit.Round(2)
	if err := m.store.UpdateBudget(ctx, owner, b); err != nil {
		return Budget{}, err
	}
	return m.store.GetBudget(ctx, owner, b.ID)
}

func (m *Manager) DeleteBudget(ctx context.Context, owner OwnerID, id BudgetID) error {
	return m.store.DeleteBudget(ctx, owner, id)
}

// =============================================================================
// GOALS
// =============================================================================

func (m *Manager) CreateGoal(ctx context.Context, owner OwnerID, g Goal) (Goal, error) {
	if strings.TrimSpace(g.Title) == "" {
		return Goal{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if !g.TargetAmount.IsPositive() {
		return Goal{}, &ValidationError{Field: "targetAmount", Reason: "must be positive"}
	}
	if g.CurrentAmount.IsNegative() {
		return Goal{}, &ValidationError{Field: "currentAmount", Reason: "must not be negative"}
	}
	g.TargetAmount = g.TargetAmount.Round(2)
	g.CurrentAmount = g.CurrentAmount.Round(2)
	if g.ID == "" {
		g.ID = GoalID(uuid.NewString())
	}
	g.OwnerID = owner
	g.CreatedAt = time.Now().UTC()
	if err := m.store.CreateGoal(ctx, &g); err != nil {
		return Goal{}, err
	}
	return g, nil
}

func (m *Manager) ListGoals(ctx context.Context, owner OwnerID) ([]Goal, error) {
	return m.store.ListGoals(ctx, owner)
}

func (m *Manager) UpdateGoal(ctx context.Context, owner OwnerID, g Goal) (Goal, error) {
	if !g.TargetAmount.IsPositive() {
		return Goal{}, &ValidationError{Field: "targetAmount", Reason: "must be positive"}
	}
	g.TargetAmount = g.TargetAmount.Round(2)
	g.CurrentAmount = g.CurrentAmount.Round(2)
	if err := m.store.UpdateGoal(ctx, owner, g); err != nil {
		return Goal{}, err
	}
	return m.store.GetGoal(ctx, owner, g.ID)
}

func (m *Manager) DeleteGoal(ctx context.Context, owner OwnerID, id GoalID) error {
	return m.store.DeleteGoal(ctx, owner, id)
}

// =============================================================================
// BILLS
// =============================================================================

func (m *Manager) CreateBill(ctx context.Context, owner OwnerID, b Bill) (Bill, error) {
	if strings.TrimSpace(b.Description) == "" {
		return Bill{}, &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if b.Type != BillPayable && b.Type != BillReceivable {
		return Bill{}, &ValidationError{Field: "type", Reason: "must be payable or receivable"}
	}
	if !b.Amount.IsPositive() {
		return Bill{}, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if b.DueDate.IsZero() {
		return Bill{}, &ValidationError{Field: "dueDate", Reason: "required"}
	}
	if _, err := m.store.GetCategory(ctx, owner, b.CategoryID); err != nil {
		return Bill{}, err
	}
	b.Amount = b.Amount.Round(2)
	if b.Status == "" {
		b.Status = BillPending
	}
	if b.ID == "" {
		b.ID = BillID(uuid.NewString())
	}
	b.OwnerID = owner
	b.CreatedAt = time.Now().UTC()
	if err := m.store.CreateBill(ctx, &b); err != nil {
		return Bill{}, err
	}
	return b, nil
}

func (m *Manager) UpdateBill(ctx context.Context, owner OwnerID, b Bill) (Bill, error) {
	if !b.Amount.IsPositive() {
		return Bill{}, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	b.Amount = b.Amount.Round(2)
	if err := m.store.UpdateBill(ctx, owner, b); err != nil {
		return Bill{}, err
	}
	return m.store.GetBill(ctx, owner, b.ID)
}

func (m *Manager) DeleteBill(ctx context.Context, owner OwnerID, id BillID) error {
	return m.store.DeleteBill(ctx, owner, id)
}
