/*
Package postgres provides the PostgreSQL-backed implementation of the
storage interfaces.

PURPOSE:
  Implements ledger.Store and ledger.TxStore on a pgxpool.Pool. Mirrors
  store/sqlite: monetary columns are BIGINT cents, every statement is
  owner-scoped, and AdjustBalance is a single conditional UPDATE so the
  database serializes concurrent balance changes.

TRANSACTIONS:
  WithTx wraps fn in a pgx transaction. Unlike SQLite there is no
  single-writer restriction; row locks taken by the balance UPDATE are what
  keep concurrent lifecycle operations consistent.

SEE ALSO:
  - ledger/store.go: interface definitions
  - store/sqlite/sqlite.go: the reference implementation these queries mirror
*/
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/centavo/finance-engine/ledger"
)

// Store implements ledger.TxStore over PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and migrates the schema.
func New(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		balance_cents BIGINT NOT NULL DEFAULT 0,
		opening_cents BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		title TEXT NOT NULL,
		amount_cents BIGINT NOT NULL,
		tx_type TEXT NOT NULL,
		tx_date TIMESTAMPTZ NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_user_account
		ON transactions(user_id, account_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_user_category_date
		ON transactions(user_id, category_id, tx_date);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_categories_user ON categories(user_id);

	CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		limit_cents BIGINT NOT NULL,
		period TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_budgets_user ON budgets(user_id);

	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		target_cents BIGINT NOT NULL,
		current_cents BIGINT NOT NULL DEFAULT 0,
		target_date TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id);

	CREATE TABLE IF NOT EXISTS bills (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		bill_type TEXT NOT NULL,
		description TEXT NOT NULL,
		category_id TEXT NOT NULL,
		amount_cents BIGINT NOT NULL,
		due_date TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bills_user_due ON bills(user_id, due_date);

	CREATE TABLE IF NOT EXISTS transfers (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		source_id TEXT NOT NULL,
		dest_id TEXT NOT NULL,
		amount_cents BIGINT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		transfer_date TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transfers_user ON transfers(user_id);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconnCommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgconnCommandTag narrows pgconn.CommandTag to what this package reads.
type pgconnCommandTag interface {
	RowsAffected() int64
}

// poolQuerier adapts *pgxpool.Pool to querier (Exec returns a concrete
// CommandTag, not an interface).
type poolQuerier struct{ pool *pgxpool.Pool }

func (p poolQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconnCommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

func (p poolQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

func (p poolQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// txQuerier adapts pgx.Tx to querier.
type txQuerier struct{ tx pgx.Tx }

func (t txQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconnCommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}

func (t txQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}

func (t txQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

func (s *Store) q() querier {
	return poolQuerier{pool: s.pool}
}

func toCents(m ledger.Money) int64 {
	return m.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}

func fromCents(c int64) ledger.Money {
	return decimal.NewFromInt(c).Div(decimal.NewFromInt(100))
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *Store) CreateAccount(ctx context.Context, a *ledger.Account) error {
	return createAccount(ctx, s.q(), a)
}

func createAccount(ctx context.Context, q querier, a *ledger.Account) error {
	_, err := q.Exec(ctx, `
		INSERT INTO accounts (id, user_id, name, type, balance_cents, opening_cents, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.OwnerID, a.Name, a.Type, toCents(a.Balance), toCents(a.OpeningBalance), a.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, owner ledger.OwnerID, id ledger.AccountID) (ledger.Account, error) {
	return getAccount(ctx, s.q(), owner, id)
}

func getAccount(ctx context.Context, q querier, owner ledger.OwnerID, id ledger.AccountID) (ledger.Account, error) {
	var (
		a            ledger.Account
		cents        int64
		openingCents int64
	)
	err := q.QueryRow(ctx, `
		SELECT id, user_id, name, type, balance_cents, opening_cents, created_at
		FROM accounts WHERE id = $1 AND user_id = $2`, id, owner).
		Scan(&a.ID, &a.OwnerID, &a.Name, &a.Type, &cents, &openingCents, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to scan account: %w", err)
	}
	a.Balance = fromCents(cents)
	a.OpeningBalance = fromCents(openingCents)
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context, owner ledger.OwnerID) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, type, balance_cents, opening_cents, created_at
		FROM accounts WHERE user_id = $1 ORDER BY created_at DESC`, owner)
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
		)
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Type, &cents, &openingCents, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.Balance = fromCents(cents)
		a.OpeningBalance = fromCents(openingCents)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAccount(ctx context.Context, owner ledger.OwnerID, id ledger.AccountID, name string, typ ledger.AccountType) (ledger.Account, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts SET name = $1, type = $2 WHERE id = $3 AND user_id = $4`,
		name, typ, id, owner)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	return s.GetAccount(ctx, owner, id)
}

func (s *Store) DeleteAccount(ctx context.Context, owner ledger.OwnerID, id ledger.AccountID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM accounts WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func (s *Store) AdjustBalance(ctx context.Context, owner ledger.OwnerID, id ledger.AccountID, delta ledger.Money, allowNegative bool) (ledger.Money, error) {
	return adjustBalance(ctx, s.q(), owner, id, delta, allowNegative)
}

func adjustBalance(ctx context.Context, q querier, owner ledger.OwnerID, id ledger.AccountID, delta ledger.Money, allowNegative bool) (ledger.Money, error) {
	cents := toCents(delta)

	var newCents int64
	err := q.QueryRow(ctx, `
		UPDATE accounts SET balance_cents = balance_cents + $1
		WHERE id = $2 AND user_id = $3
		  AND ($4 OR balance_cents + $1 >= 0)
		RETURNING balance_cents`,
		cents, id, owner, allowNegative).Scan(&newCents)
	if err == nil {
		return fromCents(newCents), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("failed to adjust balance: %w", err)
	}

	var current int64
	err = q.QueryRow(ctx,
		`SELECT balance_cents FROM accounts WHERE id = $1 AND user_id = $2`,
		id, owner).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
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
	return insertTransaction(ctx, s.q(), tx)
}

func insertTransaction(ctx context.Context, q querier, tx *ledger.Transaction) error {
	_, err := q.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tx.ID, tx.OwnerID, tx.AccountID, tx.CategoryID, tx.Title,
		toCents(tx.Amount), tx.Type, tx.Date.UTC(), tx.Description, tx.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, owner ledger.OwnerID, id ledger.TransactionID) (ledger.Transaction, error) {
	return getTransaction(ctx, s.q(), owner, id)
}

func getTransaction(ctx context.Context, q querier, owner ledger.OwnerID, id ledger.TransactionID) (ledger.Transaction, error) {
	var (
		tx    ledger.Transaction
		cents int64
	)
	err := q.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE id = $1 AND user_id = $2`, id, owner).
		Scan(&tx.ID, &tx.OwnerID, &tx.AccountID, &tx.CategoryID, &tx.Title,
			&cents, &tx.Type, &tx.Date, &tx.Description, &tx.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}
	tx.Amount = fromCents(cents)
	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, owner ledger.OwnerID, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	return listTransactions(ctx, s.q(), owner, f)
}

func listTransactions(ctx context.Context, q querier, owner ledger.OwnerID, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`
	args := []any{owner}

	n := 1
	add := func(clause string, arg any) {
		n++
		query += fmt.Sprintf(clause, n)
		args = append(args, arg)
	}
	if f.AccountID != nil {
		add(` AND account_id = $%d`, *f.AccountID)
	}
	if f.CategoryID != nil {
		add(` AND category_id = $%d`, *f.CategoryID)
	}
	if f.Type != nil {
		add(` AND tx_type = $%d`, *f.Type)
	}
	if f.From != nil {
		add(` AND tx_date >= $%d`, f.From.UTC())
	}
	if f.To != nil {
		add(` AND tx_date <= $%d`, f.To.UTC())
	}
	query += ` ORDER BY tx_date DESC, created_at DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		var (
			tx    ledger.Transaction
			cents int64
		)
		if err := rows.Scan(&tx.ID, &tx.OwnerID, &tx.AccountID, &tx.CategoryID, &tx.Title,
			&cents, &tx.Type, &tx.Date, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Amount = fromCents(cents)
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTransaction(ctx context.Context, owner ledger.OwnerID, tx ledger.Transaction) error {
	return updateTransaction(ctx, s.q(), owner, tx)
}

func updateTransaction(ctx context.Context, q querier, owner ledger.OwnerID, tx ledger.Transaction) error {
	tag, err := q.Exec(ctx, `
		UPDATE transactions
		SET account_id = $1, category_id = $2, title = $3, amount_cents = $4,
		    tx_type = $5, tx_date = $6, description = $7
		WHERE id = $8 AND user_id = $9`,
		tx.AccountID, tx.CategoryID, tx.Title, toCents(tx.Amount),
		tx.Type, tx.Date.UTC(), tx.Description, tx.ID, owner)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrTransactionNotFound
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, owner ledger.OwnerID, id ledger.TransactionID) error {
	return deleteTransaction(ctx, s.q(), owner, id)
}

func deleteTransaction(ctx context.Context, q querier, owner ledger.OwnerID, id ledger.TransactionID) error {
	tag, err := q.Exec(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrTransactionNotFound
	}
	return nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (s *Store) CreateCategory(ctx context.Context, c *ledger.Category) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO categories (id, user_id, name, color, icon, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.OwnerID, c.Name, c.Color, c.Icon, c.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (s *Store) GetCategory(ctx context.Context, owner ledger.OwnerID, id ledger.CategoryID) (ledger.Category, error) {
	var c ledger.Category
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, color, icon, created_at
		FROM categories WHERE id = $1 AND user_id = $2`, id, owner).
		Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &c.Icon, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Category{}, ledger.ErrCategoryNotFound
	}
	if err != nil {
		return ledger.Category{}, fmt.Errorf("failed to scan category: %w", err)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, owner ledger.OwnerID) ([]ledger.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, color, icon, created_at
		FROM categories WHERE user_id = $1 ORDER BY name ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []ledger.Category
	for rows.Next() {
		var c ledger.Category
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &c.Icon, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCategory(ctx context.Context, owner ledger.OwnerID, c ledger.Category) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE categories SET name = $1, color = $2, icon = $3
		WHERE id = $4 AND user_id = $5`,
		c.Name, c.Color, c.Icon, c.ID, owner)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrCategoryNotFound
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, owner ledger.OwnerID, id ledger.CategoryID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrCategoryNotFound
	}
	return nil
}

// =============================================================================
// BUDGETS
// =============================================================================

func (s *Store) CreateBudget(ctx context.Context, b *ledger.Budget) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO budgets (id, user_id, category_id, limit_cents, period, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.OwnerID, b.CategoryID, toCents(b.Limit), b.Period, b.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert budget: %w", err)
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, owner ledger.OwnerID, id ledger.BudgetID) (ledger.Budget, error) {
	var (
		b     ledger.Budget
		cents int64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, category_id, limit_cents, period, created_at
		FROM budgets WHERE id = $1 AND user_id = $2`, id, owner).
		Scan(&b.ID, &b.OwnerID, &b.CategoryID, &cents, &b.Period, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Budget{}, ledger.ErrBudgetNotFound
	}
	if err != nil {
		return ledger.Budget{}, fmt.Errorf("failed to scan budget: %w", err)
	}
	b.Limit = fromCents(cents)
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, owner ledger.OwnerID) ([]ledger.Budget, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, category_id, limit_cents, period, created_at
		FROM budgets WHERE user_id = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	var out []ledger.Budget
	for rows.Next() {
		var (
			b     ledger.Budget
			cents int64
		)
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.CategoryID, &cents, &b.Period, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		b.Limit = fromCents(cents)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBudget(ctx context.Context, owner ledger.OwnerID, b ledger.Budget) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE budgets SET category_id = $1, limit_cents = $2, period = $3
		WHERE id = $4 AND user_id = $5`,
		b.CategoryID, toCents(b.Limit), b.Period, b.ID, owner)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrBudgetNotFound
	}
	return nil
}

func (s *Store) DeleteBudget(ctx context.Context, owner ledger.OwnerID, id ledger.BudgetID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrBudgetNotFound
	}
	return nil
}

// =============================================================================
// GOALS
// =============================================================================

func (s *Store) CreateGoal(ctx context.Context, g *ledger.Goal) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO goals (id, user_id, title, target_cents, current_cents, target_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID, g.OwnerID, g.Title, toCents(g.TargetAmount), toCents(g.CurrentAmount),
		g.TargetDate.UTC(), g.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	return nil
}

func (s *Store) GetGoal(ctx context.Context, owner ledger.OwnerID, id ledger.GoalID) (ledger.Goal, error) {
	var (
		g           ledger.Goal
		target, cur int64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, title, target_cents, current_cents, target_date, created_at
		FROM goals WHERE id = $1 AND user_id = $2`, id, owner).
		Scan(&g.ID, &g.OwnerID, &g.Title, &target, &cur, &g.TargetDate, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Goal{}, ledger.ErrGoalNotFound
	}
	if err != nil {
		return ledger.Goal{}, fmt.Errorf("failed to scan goal: %w", err)
	}
	g.TargetAmount = fromCents(target)
	g.CurrentAmount = fromCents(cur)
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, owner ledger.OwnerID) ([]ledger.Goal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, target_cents, current_cents, target_date, created_at
		FROM goals WHERE user_id = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var out []ledger.Goal
	for rows.Next() {
		var (
			g           ledger.Goal
			target, cur int64
		)
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Title, &target, &cur, &g.TargetDate, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		g.TargetAmount = fromCents(target)
		g.CurrentAmount = fromCents(cur)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) UpdateGoal(ctx context.Context, owner ledger.OwnerID, g ledger.Goal) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE goals SET title = $1, target_cents = $2, current_cents = $3, target_date = $4
		WHERE id = $5 AND user_id = $6`,
		g.Title, toCents(g.TargetAmount), toCents(g.CurrentAmount),
		g.TargetDate.UTC(), g.ID, owner)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrGoalNotFound
	}
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, owner ledger.OwnerID, id ledger.GoalID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrGoalNotFound
	}
	return nil
}

// =============================================================================
// BILLS
// =============================================================================

func (s *Store) CreateBill(ctx context.Context, b *ledger.Bill) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bills (id, user_id, bill_type, description, category_id, amount_cents, due_date, status, recurring, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.OwnerID, b.Type, b.Description, b.CategoryID, toCents(b.Amount),
		b.DueDate.UTC(), b.Status, b.Recurring, b.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}
	return nil
}

func (s *Store) GetBill(ctx context.Context, owner ledger.OwnerID, id ledger.BillID) (ledger.Bill, error) {
	var (
		b     ledger.Bill
		cents int64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, bill_type, description, category_id, amount_cents, due_date, status, recurring, created_at
		FROM bills WHERE id = $1 AND user_id = $2`, id, owner).
		Scan(&b.ID, &b.OwnerID, &b.Type, &b.Description, &b.CategoryID, &cents,
			&b.DueDate, &b.Status, &b.Recurring, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Bill{}, ledger.ErrBillNotFound
	}
	if err != nil {
		return ledger.Bill{}, fmt.Errorf("failed to scan bill: %w", err)
	}
	b.Amount = fromCents(cents)
	return b, nil
}

func (s *Store) ListBills(ctx context.Context, owner ledger.OwnerID) ([]ledger.Bill, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, bill_type, description, category_id, amount_cents, due_date, status, recurring, created_at
		FROM bills WHERE user_id = $1 ORDER BY due_date ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	var out []ledger.Bill
	for rows.Next() {
		var (
			b     ledger.Bill
			cents int64
		)
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Type, &b.Description, &b.CategoryID,
			&cents, &b.DueDate, &b.Status, &b.Recurring, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		b.Amount = fromCents(cents)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBill(ctx context.Context, owner ledger.OwnerID, b ledger.Bill) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE bills SET bill_type = $1, description = $2, category_id = $3, amount_cents = $4,
		                 due_date = $5, status = $6, recurring = $7
		WHERE id = $8 AND user_id = $9`,
		b.Type, b.Description, b.CategoryID, toCents(b.Amount),
		b.DueDate.UTC(), b.Status, b.Recurring, b.ID, owner)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrBillNotFound
	}
	return nil
}

func (s *Store) DeleteBill(ctx context.Context, owner ledger.OwnerID, id ledger.BillID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM bills WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrBillNotFound
	}
	return nil
}

// =============================================================================
// TRANSFERS
// =============================================================================

func (s *Store) InsertTransfer(ctx context.Context, t *ledger.Transfer) error {
	return insertTransfer(ctx, s.q(), t)
}

func insertTransfer(ctx context.Context, q querier, t *ledger.Transfer) error {
	_, err := q.Exec(ctx, `
		INSERT INTO transfers (id, user_id, source_id, dest_id, amount_cents, description, transfer_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.OwnerID, t.SourceID, t.DestID, toCents(t.Amount),
		t.Description, t.Date.UTC(), t.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}
	return nil
}

func (s *Store) ListTransfers(ctx context.Context, owner ledger.OwnerID) ([]ledger.Transfer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, source_id, dest_id, amount_cents, description, transfer_date, created_at
		FROM transfers WHERE user_id = $1 ORDER BY transfer_date DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var out []ledger.Transfer
	for rows.Next() {
		var (
			t     ledger.Transfer
			cents int64
		)
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.SourceID, &t.DestID, &cents,
			&t.Description, &t.Date, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		t.Amount = fromCents(cents)
		out = append(out, t)
	}
	return out, rows.Err()
}

// =============================================================================
// OWNERS
// =============================================================================

func (s *Store) ListOwners(ctx context.Context) ([]ledger.OwnerID, error) {
	rows, err := s.pool.Query(ctx,
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

// WithTx executes fn within one database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&txStore{q: txQuerier{tx: tx}, parent: s}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// txStore routes lifecycle statements through the open pgx.Tx. Entity CRUD
// that never runs inside WithTx delegates to the parent pool.
type txStore struct {
	q      txQuerier
	parent *Store
}

var _ ledger.Store = (*txStore)(nil)

func (ts *txStore) CreateAccount(ctx context.Context, a *ledger.Account) error {
	return createAccount(ctx, ts.q, a)
}

func (ts *txStore) GetAccount(ctx context.Context, owner ledger.OwnerID, id ledger.AccountID) (ledger.Account, error) {
	return getAccount(ctx, ts.q, owner, id)
}

func (ts *txStore) AdjustBalance(ctx context.Context, owner ledger.OwnerID, id ledger.AccountID, delta ledger.Money, allowNegative bool) (ledger.Money, error) {
	return adjustBalance(ctx, ts.q, owner, id, delta, allowNegative)
}

func (ts *txStore) InsertTransaction(ctx context.Context, tx *ledger.Transaction) error {
	return insertTransaction(ctx, ts.q, tx)
}

func (ts *txStore) GetTransaction(ctx context.Context, owner ledger.OwnerID, id ledger.TransactionID) (ledger.Transaction, error) {
	return getTransaction(ctx, ts.q, owner, id)
}

func (ts *txStore) ListTransactions(ctx context.Context, owner ledger.OwnerID, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	return listTransactions(ctx, ts.q, owner, f)
}

func (ts *txStore) UpdateTransaction(ctx context.Context, owner ledger.OwnerID, tx ledger.Transaction) error {
	return updateTransaction(ctx, ts.q, owner, tx)
}

func (ts *txStore) DeleteTransaction(ctx context.Context, owner ledger.OwnerID, id ledger.TransactionID) error {
	return deleteTransaction(ctx, ts.q, owner, id)
}

func (ts *txStore) InsertTransfer(ctx context.Context, t *ledger.Transfer) error {
	return insertTransfer(ctx, ts.q, t)
}

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
