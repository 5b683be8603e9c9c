/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.Store and ledger.TxStore using database/sql with
  mattn/go-sqlite3. The same SQL shapes apply to PostgreSQL with minor
  dialect differences (see store/postgres).

MONEY REPRESENTATION:
  Monetary columns are INTEGER cents. That keeps the balance increment a
  pure integer expression the database can evaluate atomically:

    UPDATE accounts SET balance_cents = balance_cents + ?
    WHERE id = ? AND user_id = ?
      AND (? OR balance_cents + ? >= 0)
    RETURNING balance_cents

  One statement both applies the delta and enforces the non-negative floor,
  so two concurrent sessions can never lose an update and never observe an
  intermediate balance.

OWNER SCOPING:
  Every statement filters by user_id. A row owned by someone else scans as
  no-rows and maps to the entity's not-found sentinel.

CONNECTIONS:
  The pool is capped at one connection. SQLite allows a single writer, and
  one connection also makes ":memory:" databases behave (each pooled
  connection would otherwise get its own empty database). WithTx therefore
  serializes naturally with all other calls.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: interface definitions
  - ledger/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/centavo/finance-engine/ledger"
)

// Store implements ledger.TxStore over SQLite.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) a SQLite database. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		balance_cents INTEGER NOT NULL DEFAULT 0,
		opening_cents INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		title TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		tx_type TEXT NOT NULL,
		tx_date TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_user_account
		ON transactions(user_id, account_id);
	-- Budget progress is the hot read: expenses by category within a period.
	CREATE INDEX IF NOT EXISTS idx_transactions_user_category_date
		ON transactions(user_id, category_id, tx_date);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_categories_user ON categories(user_id);

	CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		limit_cents INTEGER NOT NULL,
		period TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_budgets_user ON budgets(user_id);

	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		target_cents INTEGER NOT NULL,
		current_cents INTEGER NOT NULL DEFAULT 0,
		target_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id);

	CREATE TABLE IF NOT EXISTS bills (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		bill_type TEXT NOT NULL,
		description TEXT NOT NULL,
		category_id TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		recurring INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bills_user_due ON bills(user_id, due_date);

	CREATE TABLE IF NOT EXISTS transfers (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		source_id TEXT NOT NULL,
		dest_id TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		description TEXT,
		transfer_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transfers_user ON transfers(user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

// querier is satisfied by both *sql.DB and *sql.Tx, so every statement can
// run either standalone or inside WithTx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func toCents(m ledger.Money) int64 {
	return m.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}

func fromCents(c int64) ledger.Money {
	return decimal.NewFromInt(c).Div(decimal.NewFromInt(100))
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *Store) CreateAccount(ctx context.Context, a *ledger.Account) error {
	return createAccount(ctx, s.db, a)
}

func createAccount(ctx context.Context, q querier, a *ledger.Account) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, type, balance_cents, opening_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, a.Name, a.Type, toCents(a.Balance), toCents(a.OpeningBalance), fmtTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, owner ledger.OwnerID, id ledger.AccountID) (ledger.Account, error) {
	return getAccount(ctx, s.db, owner, id)
}

func getAccount(ctx context.Context, q querier, owner ledger.OwnerID, id ledger.AccountID) (ledger.Account, error) {
	var (
		a            ledger.Account
		cents        int64
		openingCents int64
		createdAt    string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, balance_cents, opening_cents, created_at
		FROM accounts WHERE id = ? AND user_id = ?`, id, owner).
		Scan(&a.ID, &a.OwnerID, &a.Name, &a.Type, &cents, &openingCents, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to scan account: %w", err)
	}
	a.Balance = fromCents(cents)
	a.OpeningBalance = fromCents(openingCents)
	a.CreatedAt = parseTime(createdAt)
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context, owner ledger.OwnerID) ([]ledger.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, balance_cents, opening_cents, created_at
		FROM accounts WHERE user_id = ?
		ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var out []ledger.Account
	for rows.Next() {
		var (
			a            ledger.Account
			cents        int64
			openingCents int64
			createdAt    string
		)
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Type, &cents, &openingCents, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.Balance = fromCents(cents)
		a.OpeningBalance = fromCents(openingCents)
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAccount(ctx context.Context, owner ledger.OwnerID, id ledger.AccountID, name string, typ ledger.AccountType) (ledger.Account, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, type = ? WHERE id = ? AND user_id = ?`,
		name, typ, id, owner)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	return s.GetAccount(ctx, owner, id)
}

func (s *Store) DeleteAccount(ctx context.Context, owner ledger.OwnerID, id ledger.AccountID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func (s *Store) AdjustBalance(ctx context.Context, owner ledger.OwnerID, id ledger.AccountID, delta ledger.Money, allowNegative bool) (ledger.Money, error) {
	return adjustBalance(ctx, s.db, owner, id, delta, allowNegative)
}

func adjustBalance(ctx context.Context, q querier, owner ledger.OwnerID, id ledger.AccountID, delta ledger.Money, allowNegative bool) (ledger.Money, error) {
	cents := toCents(delta)

	var newCents int64
	err := q.QueryRowContext(ctx, `
		UPDATE accounts SET balance_cents = balance_cents + ?
		WHERE id = ? AND user_id = ?
		  AND (? OR balance_cents + ? >= 0)
		RETURNING balance_cents`,
		cents, id, owner, allowNegative, cents).Scan(&newCents)
	if err == nil {
		return fromCents(newCents), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("failed to adjust balance: %w", err)
	}

	// No row updated: distinguish a missing account from a floor violation.
	var current int64
	err = q.QueryRowContext(ctx,
		`SELECT balance_cents FROM accounts WHERE id = ? AND user_id = ?`,
		id, owner).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ledger.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}
	return decimal.Zero, &ledger.InsufficientFundsError{
		AccountID: id,
		Available: fromCents(current),
		Requested: delta.Neg(),
	}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

const transactionColumns = `id, user_id, account_id, category_id, title, amount_cents, tx_type, tx_date, description, created_at`

func (s *Store) InsertTransaction(ctx context.Context, tx *ledger.Transaction) error {
	return insertTransaction(ctx, s.db, tx)
}

func insertTransaction(ctx context.Context, q querier, tx *ledger.Transaction) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.OwnerID, tx.AccountID, tx.CategoryID, tx.Title,
		toCents(tx.Amount), tx.Type, fmtTime(tx.Date), tx.Description, fmtTime(tx.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, owner ledger.OwnerID, id ledger.TransactionID) (ledger.Transaction, error) {
	return getTransaction(ctx, s.db, owner, id)
}

func getTransaction(ctx context.Context, q querier, owner ledger.OwnerID, id ledger.TransactionID) (ledger.Transaction, error) {
	var (
		tx          ledger.Transaction
		cents       int64
		date        string
		description sql.NullString
		createdAt   string
	)
	err := q.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE id = ? AND user_id = ?`, id, owner).
		Scan(&tx.ID, &tx.OwnerID, &tx.AccountID, &tx.CategoryID, &tx.Title,
			&cents, &tx.Type, &date, &description, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}
	tx.Amount = fromCents(cents)
	tx.Date = parseTime(date)
	tx.Description = description.String
	tx.CreatedAt = parseTime(createdAt)
	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, owner ledger.OwnerID, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	return listTransactions(ctx, s.db, owner, f)
}

func listTransactions(ctx context.Context, q querier, owner ledger.OwnerID, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{owner}

	if f.AccountID != nil {
		query += ` AND account_id = ?`
		args = append(args, *f.AccountID)
	}
	if f.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *f.CategoryID)
	}
	if f.Type != nil {
		query += ` AND tx_type = ?`
		args = append(args, *f.Type)
	}
	if f.From != nil {
		query += ` AND tx_date >= ?`
		args = append(args, fmtTime(*f.From))
	}
	if f.To != nil {
		query += ` AND tx_date <= ?`
		args = append(args, fmtTime(*f.To))
	}
	query += ` ORDER BY tx_date DESC, created_at DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		var (
			tx          ledger.Transaction
			cents       int64
			date        string
			description sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&tx.ID, &tx.OwnerID, &tx.AccountID, &tx.CategoryID, &tx.Title,
			&cents, &tx.Type, &date, &description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Amount = fromCents(cents)
		tx.Date = parseTime(date)
		tx.Description = description.String
		tx.CreatedAt = parseTime(createdAt)
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTransaction(ctx context.Context, owner ledger.OwnerID, tx ledger.Transaction) error {
	return updateTransaction(ctx, s.db, owner, tx)
}

func updateTransaction(ctx context.Context, q querier, owner ledger.OwnerID, tx ledger.Transaction) error {
	res, err := q.ExecContext(ctx, `
		UPDATE transactions
		SET account_id = ?, category_id = ?, title = ?, amount_cents = ?,
		    tx_type = ?, tx_date = ?, description = ?
		WHERE id = ? AND user_id = ?`,
		tx.AccountID, tx.CategoryID, tx.Title, toCents(tx.Amount),
		tx.Type, fmtTime(tx.Date), tx.Description, tx.ID, owner)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrTransactionNotFound
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, owner ledger.OwnerID, id ledger.TransactionID) error {
	return deleteTransaction(ctx, s.db, owner, id)
}

func deleteTransaction(ctx context.Context, q querier, owner ledger.OwnerID, id ledger.TransactionID) error {
	res, err := q.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrTransactionNotFound
	}
	return nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (s *Store) CreateCategory(ctx context.Context, c *ledger.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, color, icon, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Color, c.Icon, fmtTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (s *Store) GetCategory(ctx context.Context, owner ledger.OwnerID, id ledger.CategoryID) (ledger.Category, error) {
	var (
		c         ledger.Category
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, color, icon, created_at
		FROM categories WHERE id = ? AND user_id = ?`, id, owner).
		Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &c.Icon, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Category{}, ledger.ErrCategoryNotFound
	}
	if err != nil {
		return ledger.Category{}, fmt.Errorf("failed to scan category: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, owner ledger.OwnerID) ([]ledger.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, color, icon, created_at
		FROM categories WHERE user_id = ? ORDER BY name ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []ledger.Category
	for rows.Next() {
		var (
			c         ledger.Category
			createdAt string
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &c.Icon, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.CreatedAt = parseTime(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCategory(ctx context.Context, owner ledger.OwnerID, c ledger.Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, color = ?, icon = ?
		WHERE id = ? AND user_id = ?`,
		c.Name, c.Color, c.Icon, c.ID, owner)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrCategoryNotFound
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, owner ledger.OwnerID, id ledger.CategoryID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrCategoryNotFound
	}
	return nil
}

// =============================================================================
// BUDGETS
// =============================================================================

func (s *Store) CreateBudget(ctx context.Context, b *ledger.Budget) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category_id, limit_cents, period, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.CategoryID, toCents(b.Limit), b.Period, fmtTime(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert budget: %w", err)
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, owner ledger.OwnerID, id ledger.BudgetID) (ledger.Budget, error) {
	var (
		b         ledger.Budget
		cents     int64
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, limit_cents, period, created_at
		FROM budgets WHERE id = ? AND user_id = ?`, id, owner).
		Scan(&b.ID, &b.OwnerID, &b.CategoryID, &cents, &b.Period, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Budget{}, ledger.ErrBudgetNotFound
	}
	if err != nil {
		return ledger.Budget{}, fmt.Errorf("failed to scan budget: %w", err)
	}
	b.Limit = fromCents(cents)
	b.CreatedAt = parseTime(createdAt)
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, owner ledger.OwnerID) ([]ledger.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category_id, limit_cents, period, created_at
		FROM budgets WHERE user_id = ? ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	var out []ledger.Budget
	for rows.Next() {
		var (
			b         ledger.Budget
			cents     int64
			createdAt string
		)
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.CategoryID, &cents, &b.Period, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		b.Limit = fromCents(cents)
		b.CreatedAt = parseTime(createdAt)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBudget(ctx context.Context, owner ledger.OwnerID, b ledger.Budget) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE budgets SET category_id = ?, limit_cents = ?, period = ?
		WHERE id = ? AND user_id = ?`,
		b.CategoryID, toCents(b.Limit), b.Period, b.ID, owner)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrBudgetNotFound
	}
	return nil
}

func (s *Store) DeleteBudget(ctx context.Context, owner ledger.OwnerID, id ledger.BudgetID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrBudgetNotFound
	}
	return nil
}

// =============================================================================
// GOALS
// =============================================================================

func (s *Store) CreateGoal(ctx context.Context, g *ledger.Goal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, title, target_cents, current_cents, target_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerID, g.Title, toCents(g.TargetAmount), toCents(g.CurrentAmount),
		fmtTime(g.TargetDate), fmtTime(g.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	return nil
}

func (s *Store) GetGoal(ctx context.Context, owner ledger.OwnerID, id ledger.GoalID) (ledger.Goal, error) {
	var (
		g           ledger.Goal
		target, cur int64
		targetDate  string
		createdAt   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, target_cents, current_cents, target_date, created_at
		FROM goals WHERE id = ? AND user_id = ?`, id, owner).
		Scan(&g.ID, &g.OwnerID, &g.Title, &target, &cur, &targetDate, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Goal{}, ledger.ErrGoalNotFound
	}
	if err != nil {
		return ledger.Goal{}, fmt.Errorf("failed to scan goal: %w", err)
	}
	g.TargetAmount = fromCents(target)
	g.CurrentAmount = fromCents(cur)
	g.TargetDate = parseTime(targetDate)
	g.CreatedAt = parseTime(createdAt)
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, owner ledger.OwnerID) ([]ledger.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, target_cents, current_cents, target_date, created_at
		FROM goals WHERE user_id = ? ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var out []ledger.Goal
	for rows.Next() {
		var (
			g           ledger.Goal
			target, cur int64
			targetDate  string
			createdAt   string
		)
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Title, &target, &cur, &targetDate, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		g.TargetAmount = fromCents(target)
		g.CurrentAmount = fromCents(cur)
		g.TargetDate = parseTime(targetDate)
		g.CreatedAt = parseTime(createdAt)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) UpdateGoal(ctx context.Context, owner ledger.OwnerID, g ledger.Goal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE goals SET title = ?, target_cents = ?, current_cents = ?, target_date = ?
		WHERE id = ? AND user_id = ?`,
		g.Title, toCents(g.TargetAmount), toCents(g.CurrentAmount),
		fmtTime(g.TargetDate), g.ID, owner)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrGoalNotFound
	}
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, owner ledger.OwnerID, id ledger.GoalID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrGoalNotFound
	}
	return nil
}

// =============================================================================
// BILLS
// =============================================================================

func (s *Store) CreateBill(ctx context.Context, b *ledger.Bill) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bills (id, user_id, bill_type, description, category_id, amount_cents, due_date, status, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.Type, b.Description, b.CategoryID, toCents(b.Amount),
		fmtTime(b.DueDate), b.Status, b.Recurring, fmtTime(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}
	return nil
}

func (s *Store) GetBill(ctx context.Context, owner ledger.OwnerID, id ledger.BillID) (ledger.Bill, error) {
	var (
		b         ledger.Bill
		cents     int64
		dueDate   string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, bill_type, description, category_id, amount_cents, due_date, status, recurring, created_at
		FROM bills WHERE id = ? AND user_id = ?`, id, owner).
		Scan(&b.ID, &b.OwnerID, &b.Type, &b.Description, &b.CategoryID, &cents,
			&dueDate, &b.Status, &b.Recurring, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Bill{}, ledger.ErrBillNotFound
	}
	if err != nil {
		return ledger.Bill{}, fmt.Errorf("failed to scan bill: %w", err)
	}
	b.Amount = fromCents(cents)
	b.DueDate = parseTime(dueDate)
	b.CreatedAt = parseTime(createdAt)
	return b, nil
}

func (s *Store) ListBills(ctx context.Context, owner ledger.OwnerID) ([]ledger.Bill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, bill_type, description, category_id, amount_cents, due_date, status, recurring, created_at
		FROM bills WHERE user_id = ? ORDER BY due_date ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	var out []ledger.Bill
	for rows.Next() {
		var (
			b         ledger.Bill
			cents     int64
			dueDate   string
			createdAt string
		)
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Type, &b.Description, &b.CategoryID,
			&cents, &dueDate, &b.Status, &b.Recurring, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		b.Amount = fromCents(cents)
		b.DueDate = parseTime(dueDate)
		b.CreatedAt = parseTime(createdAt)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBill(ctx context.Context, owner ledger.OwnerID, b ledger.Bill) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bills SET bill_type = ?, description = ?, category_id = ?, amount_cents = ?,
		                 due_date = ?, status = ?, recurring = ?
		WHERE id = ? AND user_id = ?`,
		b.Type, b.Description, b.CategoryID, toCents(b.Amount),
		fmtTime(b.DueDate), b.Status, b.Recurring, b.ID, owner)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrBillNotFound
	}
	return nil
}

func (s *Store) DeleteBill(ctx context.Context, owner ledger.OwnerID, id ledger.BillID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bills WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrBillNotFound
	}
	return nil
}

// =============================================================================
// TRANSFERS
// =============================================================================

func (s *Store) InsertTransfer(ctx context.Context, t *ledger.Transfer) error {
	return insertTransfer(ctx, s.db, t)
}

func insertTransfer(ctx context.Context, q querier, t *ledger.Transfer) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO transfers (id, user_id, source_id, dest_id, amount_cents, description, transfer_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.SourceID, t.DestID, toCents(t.Amount),
		t.Description, fmtTime(t.Date), fmtTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}
	return nil
}

func (s *Store) ListTransfers(ctx context.Context, owner ledger.OwnerID) ([]ledger.Transfer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, source_id, dest_id, amount_cents, description, transfer_date, created_at
		FROM transfers WHERE user_id = ? ORDER BY transfer_date DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var out []ledger.Transfer
	for rows.Next() {
		var (
			t           ledger.Transfer
			cents       int64
			description sql.NullString
			date        string
			createdAt   string
		)
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.SourceID, &t.DestID, &cents,
			&description, &date, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		t.Amount = fromCents(cents)
		t.Description = description.String
		t.Date = parseTime(date)
		t.CreatedAt = parseTime(createdAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

// =============================================================================
// OWNERS
// =============================================================================

func (s *Store) ListOwners(ctx context.Context) ([]ledger.OwnerID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM accounts ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query owners: %w", err)
	}
	defer rows.Close()

	var out []ledger.OwnerID
	for rows.Next() {
		var o ledger.OwnerID
		if err := rows.Scan(&o); err != nil {
			return nil, fmt.Errorf("failed to scan owner: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx executes fn within one database transaction. The lifecycle manager
// relies on this to make a transaction row and its balance adjustment a
// single unit.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore routes the statements a lifecycle operation issues through the
// open sql.Tx. Entity CRUD that never runs inside WithTx delegates to the
// parent connection.
type txStore struct {
	tx     *sql.Tx
	parent *Store
}

var _ ledger.Store = (*txStore)(nil)

func (ts *txStore) CreateAccount(ctx context.Context, a *ledger.Account) error {
	return createAccount(ctx, ts.tx, a)
}

func (ts *txStore) GetAccount(ctx context.Context, owner ledger.OwnerID, id ledger.AccountID) (ledger.Account, error) {
	return getAccount(ctx, ts.tx, owner, id)
}

func (ts *txStore) AdjustBalance(ctx context.Context, owner ledger.OwnerID, id ledger.AccountID, delta ledger.Money, allowNegative bool) (ledger.Money, error) {
	return adjustBalance(ctx, ts.tx, owner, id, delta, allowNegative)
}

func (ts *txStore) InsertTransaction(ctx context.Context, tx *ledger.Transaction) error {
	return insertTransaction(ctx, ts.tx, tx)
}

func (ts *txStore) GetTransaction(ctx context.Context, owner ledger.OwnerID, id ledger.TransactionID) (ledger.Transaction, error) {
	return getTransaction(ctx, ts.tx, owner, id)
}

func (ts *txStore) ListTransactions(ctx context.Context, owner ledger.OwnerID, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	return listTransactions(ctx, ts.tx, owner, f)
}

func (ts *txStore) UpdateTransaction(ctx context.Context, owner ledger.OwnerID, tx ledger.Transaction) error {
	return updateTransaction(ctx, ts.tx, owner, tx)
}

func (ts *txStore) DeleteTransaction(ctx context.Context, owner ledger.OwnerID, id ledger.TransactionID) error {
	return deleteTransaction(ctx, ts.tx, owner, id)
}

func (ts *txStore) InsertTransfer(ctx context.Context, t *ledger.Transfer) error {
	return insertTransfer(ctx, ts.tx, t)
}

// The remaining entity methods never run inside a lifecycle transaction:
// lifecycle operations only touch accounts, transactions, and transfers.
// They delegate to the parent pool, which is capped at one connection held
// by the open tx, so calling any of them from a WithTx callback would
// deadlock. Route new lifecycle statements through ts.tx like the methods
// above.

func (ts *txStore) ListAccounts(ctx context.Context, owner ledger.OwnerID) ([]ledger.Account, error) {
	return ts.parent.ListAccounts(ctx, owner)
}

func (ts *txStore) UpdateAccount(ctx context.Context, owner ledger.OwnerID, id ledger.AccountID, name string, typ ledger.AccountType) (ledger.Account, error) {
	return ts.parent.UpdateAccount(ctx, owner, id, name, typ)
}

func (ts *txStore) DeleteAccount(ctx context.Context, owner ledger.OwnerID, id ledger.AccountID) error {
	return ts.parent.DeleteAccount(ctx, owner, id)
}

func (ts *txStore) CreateCategory(ctx context.Context, c *ledger.Category) error {
	return ts.parent.CreateCategory(ctx, c)
}

func (ts *txStore) GetCategory(ctx context.Context, owner ledger.OwnerID, id ledger.CategoryID) (ledger.Category, error) {
	return ts.parent.GetCategory(ctx, owner, id)
}

func (ts *txStore) ListCategories(ctx context.Context, owner ledger.OwnerID) ([]ledger.Category, error) {
	return ts.parent.ListCategories(ctx, owner)
}

func (ts *txStore) UpdateCategory(ctx context.Context, owner ledger.OwnerID, c ledger.Category) error {
	return ts.parent.UpdateCategory(ctx, owner, c)
}

func (ts *txStore) DeleteCategory(ctx context.Context, owner ledger.OwnerID, id ledger.CategoryID) error {
	return ts.parent.DeleteCategory(ctx, owner, id)
}

func (ts *txStore) CreateBudget(ctx context.Context, b *ledger.Budget) error {
	return ts.parent.CreateBudget(ctx, b)
}

func (ts *txStore) GetBudget(ctx context.Context, owner ledger.OwnerID, id ledger.BudgetID) (ledger.Budget, error) {
	return ts.parent.GetBudget(ctx, owner, id)
}

func (ts *txStore) ListBudgets(ctx context.Context, owner ledger.OwnerID) ([]ledger.Budget, error) {
	return ts.parent.ListBudgets(ctx, owner)
}

func (ts *txStore) UpdateBudget(ctx context.Context, owner ledger.OwnerID, b ledger.Budget) error {
	return ts.parent.UpdateBudget(ctx, owner, b)
}

func (ts *txStore) DeleteBudget(ctx context.Context, owner ledger.OwnerID, id ledger.BudgetID) error {
	return ts.parent.DeleteBudget(ctx, owner, id)
}

func (ts *txStore) CreateGoal(ctx context.Context, g *ledger.Goal) error {
	return ts.parent.CreateGoal(ctx, g)
}

func (ts *txStore) GetGoal(ctx context.Context, owner ledger.OwnerID, id ledger.GoalID) (ledger.Goal, error) {
	return ts.parent.GetGoal(ctx, owner, id)
}

func (ts *txStore) ListGoals(ctx context.Context, owner ledger.OwnerID) ([]ledger.Goal, error) {
	return ts.parent.ListGoals(ctx, owner)
}

func (ts *txStore) UpdateGoal(ctx context.Context, owner ledger.OwnerID, g ledger.Goal) error {
	return ts.parent.UpdateGoal(ctx, owner, g)
}

func (ts *txStore) DeleteGoal(ctx context.Context, owner ledger.OwnerID, id ledger.GoalID) error {
	return ts.parent.DeleteGoal(ctx, owner, id)
}

func (ts *txStore) CreateBill(ctx context.Context, b *ledger.Bill) error {
	return ts.parent.CreateBill(ctx, b)
}

func (ts *txStore) GetBill(ctx context.Context, owner ledger.OwnerID, id ledger.BillID) (ledger.Bill, error) {
	return ts.parent.GetBill(ctx, owner, id)
}

func (ts *txStore) ListBills(ctx context.Context, owner ledger.OwnerID) ([]ledger.Bill, error) {
	return ts.parent.ListBills(ctx, owner)
}

func (ts *txStore) UpdateBill(ctx context.Context, owner ledger.OwnerID, b ledger.Bill) error {
	return ts.parent.UpdateBill(ctx, owner, b)
}

func (ts *txStore) DeleteBill(ctx context.Context, owner ledger.OwnerID, id ledger.BillID) error {
	return ts.parent.DeleteBill(ctx, owner, id)
}

func (ts *txStore) ListTransfers(ctx context.Context, owner ledger.OwnerID) ([]ledger.Transfer, error) {
	return ts.parent.ListTransfers(ctx, owner)
}

func (ts *txStore) ListOwners(ctx context.Context) ([]ledger.OwnerID, error) {
	return ts.parent.ListOwners(ctx)
}

var _ ledger.TxStore = (*Store)(nil)
