// Package store provides the in-memory Store implementation, used by tests
// and the dev server.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/centavo/finance-engine/ledger"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Memory implements ledger.TxStore with plain maps behind one mutex. The
// mutex is the unit of atomicity: AdjustBalance reads and writes the balance
// under a single critical section, so concurrent deltas cannot lose updates.
type Memory struct {
	mu sync.RWMutex

	accounts     map[ledger.AccountID]ledger.Account
	transactions map[ledger.TransactionID]ledger.Transaction
	categories   map[ledger.CategoryID]ledger.Category
	budgets      map[ledger.BudgetID]ledger.Budget
	goals        map[ledger.GoalID]ledger.Goal
	bills        map[ledger.BillID]ledger.Bill
	transfers    map[ledger.TransferID]ledger.Transfer
}

func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[ledger.AccountID]ledger.Account),
		transactions: make(map[ledger.TransactionID]ledger.Transaction),
		categories:   make(map[ledger.CategoryID]ledger.Category),
		budgets:      make(map[ledger.BudgetID]ledger.Budget),
		goals:        make(map[ledger.GoalID]ledger.Goal),
		bills:        make(map[ledger.BillID]ledger.Bill),
		transfers:    make(map[ledger.TransferID]ledger.Transfer),
	}
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (m *Memory) CreateAccount(_ context.Context, a *ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = *a
	return nil
}

func (m *Memory) GetAccount(_ context.Context, owner ledger.OwnerID, id ledger.AccountID) (ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getAccountLocked(owner, id)
}

func (m *Memory) getAccountLocked(owner ledger.OwnerID, id ledger.AccountID) (ledger.Account, error) {
	a, ok := m.accounts[id]
	if !ok || a.OwnerID != owner {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	return a, nil
}

func (m *Memory) ListAccounts(_ context.Context, owner ledger.OwnerID) ([]ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.Account
	for _, a := range m.accounts {
		if a.OwnerID == owner {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateAccount(_ context.Context, owner ledger.OwnerID, id ledger.AccountID, name string, typ ledger.AccountType) (ledger.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.getAccountLocked(owner, id)
	if err != nil {
		return ledger.Account{}, err
	}
	a.Name = name
	a.Type = typ
	m.accounts[id] = a
	return a, nil
}

func (m *Memory) DeleteAccount(_ context.Context, owner ledger.OwnerID, id ledger.AccountID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.getAccountLocked(owner, id); err != nil {
		return err
	}
	delete(m.accounts, id)
	return nil
}

func (m *Memory) AdjustBalance(_ context.Context, owner ledger.OwnerID, id ledger.AccountID, delta ledger.Money, allowNegative bool) (ledger.Money, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adjustBalanceLocked(owner, id, delta, allowNegative)
}

func (m *Memory) adjustBalanceLocked(owner ledger.OwnerID, id ledger.AccountID, delta ledger.Money, allowNegative bool) (ledger.Money, error) {
	a, err := m.getAccountLocked(owner, id)
	if err != nil {
		return ledger.Money{}, err
	}
	next := a.Balance.Add(delta)
	if next.IsNegative() && !allowNegative {
		return ledger.Money{}, &ledger.InsufficientFundsError{
			AccountID: id,
			Available: a.Balance,
			Requested: delta.Neg(),
		}
	}
	a.Balance = next
	m.accounts[id] = a
	return next, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (m *Memory) InsertTransaction(_ context.Context, tx *ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = *tx
	return nil
}

func (m *Memory) GetTransaction(_ context.Context, owner ledger.OwnerID, id ledger.TransactionID) (ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getTransactionLocked(owner, id)
}

func (m *Memory) getTransactionLocked(owner ledger.OwnerID, id ledger.TransactionID) (ledger.Transaction, error) {
	tx, ok := m.transactions[id]
	if !ok || tx.OwnerID != owner {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	return tx, nil
}

func (m *Memory) ListTransactions(_ context.Context, owner ledger.OwnerID, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listTransactionsLocked(owner, f)
}

func (m *Memory) listTransactionsLocked(owner ledger.OwnerID, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	for _, tx := range m.transactions {
		if tx.OwnerID != owner {
			continue
		}
		if f.AccountID != nil && tx.AccountID != *f.AccountID {
			continue
		}
		if f.CategoryID != nil && tx.CategoryID != *f.CategoryID {
			continue
		}
		if f.Type != nil && tx.Type != *f.Type {
			continue
		}
		if f.From != nil && tx.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && tx.Date.After(*f.To) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *Memory) UpdateTransaction(_ context.Context, owner ledger.OwnerID, tx ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateTransactionLocked(owner, tx)
}

func (m *Memory) updateTransactionLocked(owner ledger.OwnerID, tx ledger.Transaction) error {
	if _, err := m.getTransactionLocked(owner, tx.ID); err != nil {
		return err
	}
	tx.OwnerID = owner
	m.transactions[tx.ID] = tx
	return nil
}

func (m *Memory) DeleteTransaction(_ context.Context, owner ledger.OwnerID, id ledger.TransactionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteTransactionLocked(owner, id)
}

func (m *Memory) deleteTransactionLocked(owner ledger.OwnerID, id ledger.TransactionID) error {
	if _, err := m.getTransactionLocked(owner, id); err != nil {
		return err
	}
	delete(m.transactions, id)
	return nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (m *Memory) CreateCategory(_ context.Context, c *ledger.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = *c
	return nil
}

func (m *Memory) GetCategory(_ context.Context, owner ledger.OwnerID, id ledger.CategoryID) (ledger.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[id]
	if !ok || c.OwnerID != owner {
		return ledger.Category{}, ledger.ErrCategoryNotFound
	}
	return c, nil
}

func (m *Memory) ListCategories(_ context.Context, owner ledger.OwnerID) ([]ledger.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.Category
	for _, c := range m.categories {
		if c.OwnerID == owner {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) UpdateCategory(_ context.Context, owner ledger.OwnerID, c ledger.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.categories[c.ID]
	if !ok || existing.OwnerID != owner {
		return ledger.ErrCategoryNotFound
	}
	c.OwnerID = owner
	c.CreatedAt = existing.CreatedAt
	m.categories[c.ID] = c
	return nil
}

func (m *Memory) DeleteCategory(_ context.Context, owner ledger.OwnerID, id ledger.CategoryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.categories[id]
	if !ok || c.OwnerID != owner {
		return ledger.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

// =============================================================================
// BUDGETS
// =============================================================================

func (m *Memory) CreateBudget(_ context.Context, b *ledger.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets[b.ID] = *b
	return nil
}

func (m *Memory) GetBudget(_ context.Context, owner ledger.OwnerID, id ledger.BudgetID) (ledger.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.budgets[id]
	if !ok || b.OwnerID != owner {
		return ledger.Budget{}, ledger.ErrBudgetNotFound
	}
	return b, nil
}

func (m *Memory) ListBudgets(_ context.Context, owner ledger.OwnerID) ([]ledger.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.Budget
	for _, b := range m.budgets {
		if b.OwnerID == owner {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateBudget(_ context.Context, owner ledger.OwnerID, b ledger.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.budgets[b.ID]
	if !ok || existing.OwnerID != owner {
		return ledger.ErrBudgetNotFound
	}
	b.OwnerID = owner
	b.CreatedAt = existing.CreatedAt
	m.budgets[b.ID] = b
	return nil
}

func (m *Memory) DeleteBudget(_ context.Context, owner ledger.OwnerID, id ledger.BudgetID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.budgets[id]
	if !ok || b.OwnerID != owner {
		return ledger.ErrBudgetNotFound
	}
	delete(m.budgets, id)
	return nil
}

// =============================================================================
// GOALS
// =============================================================================

func (m *Memory) CreateGoal(_ context.Context, g *ledger.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals[g.ID] = *g
	return nil
}

func (m *Memory) GetGoal(_ context.Context, owner ledger.OwnerID, id ledger.GoalID) (ledger.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.goals[id]
	if !ok || g.OwnerID != owner {
		return ledger.Goal{}, ledger.ErrGoalNotFound
	}
	return g, nil
}

func (m *Memory) ListGoals(_ context.Context, owner ledger.OwnerID) ([]ledger.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.Goal
	for _, g := range m.goals {
		if g.OwnerID == owner {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateGoal(_ context.Context, owner ledger.OwnerID, g ledger.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.goals[g.ID]
	if !ok || existing.OwnerID != owner {
		return ledger.ErrGoalNotFound
	}
	g.OwnerID = owner
	g.CreatedAt = existing.CreatedAt
	m.goals[g.ID] = g
	return nil
}

func (m *Memory) DeleteGoal(_ context.Context, owner ledger.OwnerID, id ledger.GoalID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.goals[id]
	if !ok || g.OwnerID != owner {
		return ledger.ErrGoalNotFound
	}
	delete(m.goals, id)
	return nil
}

// =============================================================================
// BILLS
// =============================================================================

func (m *Memory) CreateBill(_ context.Context, b *ledger.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bills[b.ID] = *b
	return nil
}

func (m *Memory) GetBill(_ context.Context, owner ledger.OwnerID, id ledger.BillID) (ledger.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bills[id]
	if !ok || b.OwnerID != owner {
		return ledger.Bill{}, ledger.ErrBillNotFound
	}
	return b, nil
}

func (m *Memory) ListBills(_ context.Context, owner ledger.OwnerID) ([]ledger.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.Bill
	for _, b := range m.bills {
		if b.OwnerID == owner {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (m *Memory) UpdateBill(_ context.Context, owner ledger.OwnerID, b ledger.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.bills[b.ID]
	if !ok || existing.OwnerID != owner {
		return ledger.ErrBillNotFound
	}
	b.OwnerID = owner
	b.CreatedAt = existing.CreatedAt
	m.bills[b.ID] = b
	return nil
}

func (m *Memory) DeleteBill(_ context.Context, owner ledger.OwnerID, id ledger.BillID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bills[id]
	if !ok || b.OwnerID != owner {
		return ledger.ErrBillNotFound
	}
	delete(m.bills, id)
	return nil
}

// =============================================================================
// TRANSFERS
// =============================================================================

func (m *Memory) InsertTransfer(_ context.Context, t *ledger.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers[t.ID] = *t
	return nil
}

func (m *Memory) ListTransfers(_ context.Context, owner ledger.OwnerID) ([]ledger.Transfer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.Transfer
	for _, t := range m.transfers {
		if t.OwnerID == owner {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// =============================================================================
// OWNERS
// =============================================================================

func (m *Memory) ListOwners(_ context.Context) ([]ledger.OwnerID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[ledger.OwnerID]bool)
	var out []ledger.OwnerID
	for _, a := range m.accounts {
		if !seen[a.OwnerID] {
			seen[a.OwnerID] = true
			out = append(out, a.OwnerID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// =============================================================================
// TRANSACTIONAL VIEW
// =============================================================================

// WithTx executes fn atomically: the mutex is held for the whole call and a
// snapshot is restored if fn fails, so partial writes are never visible.
func (m *Memory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&memView{parent: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	accounts     map[ledger.AccountID]ledger.Account
	transactions map[ledger.TransactionID]ledger.Transaction
	transfers    map[ledger.TransferID]ledger.Transfer
}

// snapshot copies only the tables lifecycle operations touch.
func (m *Memory) snapshot() memSnapshot {
	s := memSnapshot{
		accounts:     make(map[ledger.AccountID]ledger.Account, len(m.accounts)),
		transactions: make(map[ledger.TransactionID]ledger.Transaction, len(m.transactions)),
		transfers:    make(map[ledger.TransferID]ledger.Transfer, len(m.transfers)),
	}
	for k, v := range m.accounts {
		s.accounts[k] = v
	}
	for k, v := range m.transactions {
		s.transactions[k] = v
	}
	for k, v := range m.transfers {
		s.transfers[k] = v
	}
	return s
}

func (m *Memory) restore(s memSnapshot) {
	m.accounts = s.accounts
	m.transactions = s.transactions
	m.transfers = s.transfers
}

// memView is the Store handed to WithTx callbacks. The parent's lock is
// already held for the whole transaction, so every method works on the maps
// directly; re-locking would self-deadlock.
type memView struct {
	parent *Memory
}

func (v *memView) CreateAccount(_ context.Context, a *ledger.Account) error {
	v.parent.accounts[a.ID] = *a
	return nil
}

func (v *memView) GetAccount(_ context.Context, owner ledger.OwnerID, id ledger.AccountID) (ledger.Account, error) {
	return v.parent.getAccountLocked(owner, id)
}

func (v *memView) ListAccounts(_ context.Context, owner ledger.OwnerID) ([]ledger.Account, error) {
	var out []ledger.Account
	for _, a := range v.parent.accounts {
		if a.OwnerID == owner {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (v *memView) UpdateAccount(_ context.Context, owner ledger.OwnerID, id ledger.AccountID, name string, typ ledger.AccountType) (ledger.Account, error) {
	a, err := v.parent.getAccountLocked(owner, id)
	if err != nil {
		return ledger.Account{}, err
	}
	a.Name = name
	a.Type = typ
	v.parent.accounts[id] = a
	return a, nil
}

func (v *memView) DeleteAccount(_ context.Context, owner ledger.OwnerID, id ledger.AccountID) error {
	if _, err := v.parent.getAccountLocked(owner, id); err != nil {
		return err
	}
	delete(v.parent.accounts, id)
	return nil
}

func (v *memView) AdjustBalance(_ context.Context, owner ledger.OwnerID, id ledger.AccountID, delta ledger.Money, allowNegative bool) (ledger.Money, error) {
	return v.parent.adjustBalanceLocked(owner, id, delta, allowNegative)
}

func (v *memView) InsertTransaction(_ context.Context, tx *ledger.Transaction) error {
	v.parent.transactions[tx.ID] = *tx
	return nil
}

func (v *memView) GetTransaction(_ context.Context, owner ledger.OwnerID, id ledger.TransactionID) (ledger.Transaction, error) {
	return v.parent.getTransactionLocked(owner, id)
}

func (v *memView) ListTransactions(_ context.Context, owner ledger.OwnerID, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	return v.parent.listTransactionsLocked(owner, f)
}

func (v *memView) UpdateTransaction(_ context.Context, owner ledger.OwnerID, tx ledger.Transaction) error {
	return v.parent.updateTransactionLocked(owner, tx)
}

func (v *memView) DeleteTransaction(_ context.Context, owner ledger.OwnerID, id ledger.TransactionID) error {
	return v.parent.deleteTransactionLocked(owner, id)
}

func (v *memView) InsertTransfer(_ context.Context, t *ledger.Transfer) error {
	v.parent.transfers[t.ID] = *t
	return nil
}

func (v *memView) ListTransfers(ctx context.Context, owner ledger.OwnerID) ([]ledger.Transfer, error) {
	var out []ledger.Transfer
	for _, t := range v.parent.transfers {
		if t.OwnerID == owner {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (v *memView) CreateCategory(_ context.Context, c *ledger.Category) error {
	v.parent.categories[c.ID] = *c
	return nil
}

func (v *memView) GetCategory(_ context.Context, owner ledger.OwnerID, id ledger.CategoryID) (ledger.Category, error) {
	c, ok := v.parent.categories[id]
	if !ok || c.OwnerID != owner {
		return ledger.Category{}, ledger.ErrCategoryNotFound
	}
	return c, nil
}

func (v *memView) ListCategories(_ context.Context, owner ledger.OwnerID) ([]ledger.Category, error) {
	var out []ledger.Category
	for _, c := range v.parent.categories {
		if c.OwnerID == owner {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (v *memView) UpdateCategory(_ context.Context, owner ledger.OwnerID, c ledger.Category) error {
	existing, ok := v.parent.categories[c.ID]
	if !ok || existing.OwnerID != owner {
		return ledger.ErrCategoryNotFound
	}
	c.OwnerID = owner
	c.CreatedAt = existing.CreatedAt
	v.parent.categories[c.ID] = c
	return nil
}

func (v *memView) DeleteCategory(_ context.Context, owner ledger.OwnerID, id ledger.CategoryID) error {
	c, ok := v.parent.categories[id]
	if !ok || c.OwnerID != owner {
		return ledger.ErrCategoryNotFound
	}
	delete(v.parent.categories, id)
	return nil
}

func (v *memView) CreateBudget(_ context.Context, b *ledger.Budget) error {
	v.parent.budgets[b.ID] = *b
	return nil
}

func (v *memView) GetBudget(_ context.Context, owner ledger.OwnerID, id ledger.BudgetID) (ledger.Budget, error) {
	b, ok := v.parent.budgets[id]
	if !ok || b.OwnerID != owner {
		return ledger.Budget{}, ledger.ErrBudgetNotFound
	}
	return b, nil
}

func (v *memView) ListBudgets(_ context.Context, owner ledger.OwnerID) ([]ledger.Budget, error) {
	var out []ledger.Budget
	for _, b := range v.parent.budgets {
		if b.OwnerID == owner {
			out = append(out, b)
		}
	}
	return out, nil
}

func (v *memView) UpdateBudget(_ context.Context, owner ledger.OwnerID, b ledger.Budget) error {
	existing, ok := v.parent.budgets[b.ID]
	if !ok || existing.OwnerID != owner {
		return ledger.ErrBudgetNotFound
	}
	b.OwnerID = owner
	b.CreatedAt = existing.CreatedAt
	v.parent.budgets[b.ID] = b
	return nil
}

func (v *memView) DeleteBudget(_ context.Context, owner ledger.OwnerID, id ledger.BudgetID) error {
	b, ok := v.parent.budgets[id]
	if !ok || b.OwnerID != owner {
		return ledger.ErrBudgetNotFound
	}
	delete(v.parent.budgets, id)
	return nil
}

func (v *memView) CreateGoal(_ context.Context, g *ledger.Goal) error {
	v.parent.goals[g.ID] = *g
	return nil
}

func (v *memView) GetGoal(_ context.Context, owner ledger.OwnerID, id ledger.GoalID) (ledger.Goal, error) {
	g, ok := v.parent.goals[id]
	if !ok || g.OwnerID != owner {
		return ledger.Goal{}, ledger.ErrGoalNotFound
	}
	return g, nil
}

func (v *memView) ListGoals(_ context.Context, owner ledger.OwnerID) ([]ledger.Goal, error) {
	var out []ledger.Goal
	for _, g := range v.parent.goals {
		if g.OwnerID == owner {
			out = append(out, g)
		}
	}
	return out, nil
}

func (v *memView) UpdateGoal(_ context.Context, owner ledger.OwnerID, g ledger.Goal) error {
	existing, ok := v.parent.goals[g.ID]
	if !ok || existing.OwnerID != owner {
		return ledger.ErrGoalNotFound
	}
	g.OwnerID = owner
	g.CreatedAt = existing.CreatedAt
	v.parent.goals[g.ID] = g
	return nil
}

func (v *memView) DeleteGoal(_ context.Context, owner ledger.OwnerID, id ledger.GoalID) error {
	g, ok := v.parent.goals[id]
	if !ok || g.OwnerID != owner {
		return ledger.ErrGoalNotFound
	}
	delete(v.parent.goals, id)
	return nil
}

func (v *memView) CreateBill(_ context.Context, b *ledger.Bill) error {
	v.parent.bills[b.ID] = *b
	return nil
}

func (v *memView) GetBill(_ context.Context, owner ledger.OwnerID, id ledger.BillID) (ledger.Bill, error) {
	b, ok := v.parent.bills[id]
	if !ok || b.OwnerID != owner {
		return ledger.Bill{}, ledger.ErrBillNotFound
	}
	return b, nil
}

func (v *memView) ListBills(_ context.Context, owner ledger.OwnerID) ([]ledger.Bill, error) {
	var out []ledger.Bill
	for _, b := range v.parent.bills {
		if b.OwnerID == owner {
			out = append(out, b)
		}
	}
	return out, nil
}

func (v *memView) UpdateBill(_ context.Context, owner ledger.OwnerID, b ledger.Bill) error {
	existing, ok := v.parent.bills[b.ID]
	if !ok || existing.OwnerID != owner {
		return ledger.ErrBillNotFound
	}
	b.OwnerID = owner
	b.CreatedAt = existing.CreatedAt
	v.parent.bills[b.ID] = b
	return nil
}

func (v *memView) DeleteBill(_ context.Context, owner ledger.OwnerID, id ledger.BillID) error {
	b, ok := v.parent.bills[id]
	if !ok || b.OwnerID != owner {
		return ledger.ErrBillNotFound
	}
	delete(v.parent.bills, id)
	return nil
}

func (v *memView) ListOwners(_ context.Context) ([]ledger.OwnerID, error) {
	seen := make(map[ledger.OwnerID]bool)
	var out []ledger.OwnerID
	for _, a := range v.parent.accounts {
		if !seen[a.OwnerID] {
			seen[a.OwnerID] = true
			out = append(out, a.OwnerID)
		}
	}
	return out, nil
}

// Interface check: the view must satisfy the full Store contract.
var _ ledger.Store = (*memView)(nil)
var _ ledger.TxStore = (*Memory)(nil)
