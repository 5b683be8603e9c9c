package ledger_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centavo/finance-engine/ledger"
	memstore "github.com/centavo/finance-engine/ledger/store"
)

// =============================================================================
// CREATE
// =============================================================================

func TestCreateTransaction_IncomeCreditsAccount(t *testing.T) {
	// GIVEN: An account with balance 100.00
	// WHEN: Recording an income of 250.00
	// THEN: The row is persisted and the balance becomes 350.00

	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Checking", "100.00")
	cat := env.seedCategory(t, owner, "Salary")

	tx, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "paycheck", Amount: ledger.MustMoney("250.00"), Type: ledger.TxIncome,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 1),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	assert.False(t, tx.CreatedAt.IsZero())

	stored, err := env.manager.GetTransaction(ctx, owner, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "paycheck", stored.Title)

	assert.True(t, env.balanceOf(t, owner, acc.ID).Equal(ledger.MustMoney("350.00")))
}

func TestCreateTransaction_ExpenseDebitsAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Checking", "100.00")
	cat := env.seedCategory(t, owner, "Food")

	_, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "groceries", Amount: ledger.MustMoney("30.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 5),
	})
	require.NoError(t, err)

	assert.True(t, env.balanceOf(t, owner, acc.ID).Equal(ledger.MustMoney("70.00")))
}

func TestCreateTransaction_InsufficientFundsLeavesNoRow(t *testing.T) {
	// GIVEN: An account with balance 10.00
	// WHEN: Recording an expense of 10.01
	// THEN: The operation fails and neither the row nor the balance changed

	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Checking", "10.00")
	cat := env.seedCategory(t, owner, "Food")

	_, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "too much", Amount: ledger.MustMoney("10.01"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 5),
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	txs, err := env.manager.ListTransactions(ctx, owner, ledger.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.True(t, env.balanceOf(t, owner, acc.ID).Equal(ledger.MustMoney("10.00")))
}

func TestCreateTransaction_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Checking", "100.00")
	cat := env.seedCategory(t, owner, "Food")

	valid := ledger.Transaction{
		Title: "ok", Amount: ledger.MustMoney("5.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 5),
	}

	cases := []struct {
		name   string
		mutate func(*ledger.Transaction)
		field  string
	}{
		{"blank title", func(tx *ledger.Transaction) { tx.Title = "  " }, "title"},
		{"zero amount", func(tx *ledger.Transaction) { tx.Amount = ledger.MustMoney("0") }, "amount"},
		{"negative amount", func(tx *ledger.Transaction) { tx.Amount = ledger.MustMoney("-5.00") }, "amount"},
		{"bad type", func(tx *ledger.Transaction) { tx.Type = "loan" }, "type"},
		{"missing account", func(tx *ledger.Transaction) { tx.AccountID = "" }, "accountId"},
		{"missing category", func(tx *ledger.Transaction) { tx.CategoryID = "" }, "categoryId"},
		{"missing date", func(tx *ledger.Transaction) { tx.Date = time.Time{} }, "date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := valid
			tc.mutate(&tx)
			_, err := env.manager.CreateTransaction(ctx, owner, tx)
			var verr *ledger.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestCreateTransaction_UnknownReferences(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Checking", "100.00")
	cat := env.seedCategory(t, owner, "Food")

	_, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "x", Amount: ledger.MustMoney("5.00"), Type: ledger.TxExpense,
		AccountID: "ghost", CategoryID: cat.ID, Date: date(2026, time.August, 5),
	})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	_, err = env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "x", Amount: ledger.MustMoney("5.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: "ghost", Date: date(2026, time.August, 5),
	})
	assert.ErrorIs(t, err, ledger.ErrCategoryNotFound)
}

// =============================================================================
// UPDATE
// =============================================================================

func TestUpdateTransaction_SameAccountAppliesDifference(t *testing.T) {
	// GIVEN: Balance 100.00 and a persisted expense of 30.00 (balance 70.00)
	// WHEN: Changing the amount to 50.00
	// THEN: The balance lands on 50.00, never passing through 100.00

	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Checking", "100.00")
	cat := env.seedCategory(t, owner, "Food")

	tx, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "dinner", Amount: ledger.MustMoney("30.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 5),
	})
	require.NoError(t, err)
	require.True(t, env.balanceOf(t, owner, acc.ID).Equal(ledger.MustMoney("70.00")))

	tx.Amount = ledger.MustMoney("50.00")
	_, err = env.manager.UpdateTransaction(ctx, owner, tx)
	require.NoError(t, err)

	assert.True(t, env.balanceOf(t, owner, acc.ID).Equal(ledger.MustMoney("50.00")))
}

func TestUpdateTransaction_TypeFlip(t *testing.T) {
	// GIVEN: An expense of 30.00 on a 70.00 balance
	// WHEN: Flipping it to an income of 30.00
	// THEN: The combined delta of +60.00 is applied

	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Checking", "100.00")
	cat := env.seedCategory(t, owner, "Misc")

	tx, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "refunded order", Amount: ledger.MustMoney("30.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 5),
	})
	require.NoError(t, err)

	tx.Type = ledger.TxIncome
	_, err = env.manager.UpdateTransaction(ctx, owner, tx)
	require.NoError(t, err)

	assert.True(t, env.balanceOf(t, owner, acc.ID).Equal(ledger.MustMoney("130.00")))
}

func TestUpdateTransaction_MoveAcrossAccounts(t *testing.T) {
	// GIVEN: An expense on account A
	// WHEN: Moving it to account B
	// THEN: A gets the effect reversed, B gets it applied, total is conserved

	ctx := context.Background()
	env := newTestEnv(t)
	a := env.seedAccount(t, owner, "A", "100.00")
	b := env.seedAccount(t, owner, "B", "50.00")
	cat := env.seedCategory(t, owner, "Food")

	tx, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "lunch", Amount: ledger.MustMoney("30.00"), Type: ledger.TxExpense,
		AccountID: a.ID, CategoryID: cat.ID, Date: date(2026, time.August, 5),
	})
	require.NoError(t, err)

	tx.AccountID = b.ID
	_, err = env.manager.UpdateTransaction(ctx, owner, tx)
	require.NoError(t, err)

	balA := env.balanceOf(t, owner, a.ID)
	balB := env.balanceOf(t, owner, b.ID)
	assert.True(t, balA.Equal(ledger.MustMoney("100.00")))
	assert.True(t, balB.Equal(ledger.MustMoney("20.00")))
	assert.True(t, balA.Add(balB).Equal(ledger.MustMoney("120.00")))
}

func TestUpdateTransaction_NoChangeIsNoop(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Checking", "100.00")
	cat := env.seedCategory(t, owner, "Food")

	tx, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "lunch", Amount: ledger.MustMoney("30.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 5),
	})
	require.NoError(t, err)

	tx.Title = "late lunch"
	_, err = env.manager.UpdateTransaction(ctx, owner, tx)
	require.NoError(t, err)

	assert.True(t, env.balanceOf(t, owner, acc.ID).Equal(ledger.MustMoney("70.00")))
	stored, err := env.manager.GetTransaction(ctx, owner, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "late lunch", stored.Title)
}

func TestUpdateTransaction_UnknownID(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Checking", "100.00")
	cat := env.seedCategory(t, owner, "Food")

	_, err := env.manager.UpdateTransaction(ctx, owner, ledger.Transaction{
		ID: "ghost", Title: "x", Amount: ledger.MustMoney("5.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 5),
	})
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

// =============================================================================
// DELETE
// =============================================================================

func TestDeleteTransaction_RevertsEffect(t *testing.T) {
	// GIVEN: An expense of 30.00 recorded on a 100.00 balance
	// WHEN: Deleting it
	// THEN: The row is gone and the balance is back at 100.00

	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Checking", "100.00")
	cat := env.seedCategory(t, owner, "Food")

	tx, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "lunch", Amount: ledger.MustMoney("30.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 5),
	})
	require.NoError(t, err)

	require.NoError(t, env.manager.DeleteTransaction(ctx, owner, tx.ID))

	_, err = env.manager.GetTransaction(ctx, owner, tx.ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
	assert.True(t, env.balanceOf(t, owner, acc.ID).Equal(ledger.MustMoney("100.00")))
}

func TestDeleteTransaction_IncomeReversalHitsFloor(t *testing.T) {
	// GIVEN: Income 100.00 then expense 80.00, leaving 20.00
	// WHEN: Deleting the income, which would debit 100.00
	// THEN: The floor rejects it and the row survives

	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Checking", "0.00")
	cat := env.seedCategory(t, owner, "Misc")

	income, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "paycheck", Amount: ledger.MustMoney("100.00"), Type: ledger.TxIncome,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 1),
	})
	require.NoError(t, err)
	_, err = env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "rent", Amount: ledger.MustMoney("80.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 2),
	})
	require.NoError(t, err)

	err = env.manager.DeleteTransaction(ctx, owner, income.ID)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	_, err = env.manager.GetTransaction(ctx, owner, income.ID)
	assert.NoError(t, err)
	assert.True(t, env.balanceOf(t, owner, acc.ID).Equal(ledger.MustMoney("20.00")))
}

// =============================================================================
// OWNER SCOPING
// =============================================================================

func TestLifecycle_OwnerScope(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Checking", "100.00")
	cat := env.seedCategory(t, owner, "Food")

	tx, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "lunch", Amount: ledger.MustMoney("30.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 5),
	})
	require.NoError(t, err)

	intruder := ledger.OwnerID("user-2")

	_, err = env.manager.GetTransaction(ctx, intruder, tx.ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)

	err = env.manager.DeleteTransaction(ctx, intruder, tx.ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)

	tx.Title = "hijacked"
	_, err = env.manager.UpdateTransaction(ctx, intruder, tx)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)

	assert.True(t, env.balanceOf(t, owner, acc.ID).Equal(ledger.MustMoney("70.00")))
}

// =============================================================================
// STORED == DERIVED INVARIANT
// =============================================================================

func TestLifecycle_StoredMatchesDerivedAfterMixedSequence(t *testing.T) {
	// GIVEN: A reproducible random mix of creates, updates and deletes
	// WHEN: The dust settles
	// THEN: The stored balance equals the recomputed one on every account

	ctx := context.Background()
	env := newTestEnv(t)
	env.engine.AllowNegative = true
	cat := env.seedCategory(t, owner, "Misc")

	accounts := []ledger.Account{
		env.seedAccount(t, owner, "A", "0.00"),
		env.seedAccount(t, owner, "B", "0.00"),
		env.seedAccount(t, owner, "C", "0.00"),
	}

	rng := rand.New(rand.NewSource(42))
	var live []ledger.Transaction
	for i := 0; i < 200; i++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(live) == 0:
			typ := ledger.TxIncome
			if rng.Intn(2) == 0 {
				typ = ledger.TxExpense
			}
			tx, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
				Title:      "t",
				Amount:     ledger.NewMoney(0, int64(rng.Intn(10000)+1)),
				Type:       typ,
				AccountID:  accounts[rng.Intn(len(accounts))].ID,
				CategoryID: cat.ID,
				Date:       date(2026, time.August, rng.Intn(28)+1),
			})
			require.NoError(t, err)
			live = append(live, tx)
		case op == 1:
			i := rng.Intn(len(live))
			tx := live[i]
			tx.Amount = ledger.NewMoney(0, int64(rng.Intn(10000)+1))
			tx.AccountID = accounts[rng.Intn(len(accounts))].ID
			updated, err := env.manager.UpdateTransaction(ctx, owner, tx)
			require.NoError(t, err)
			live[i] = updated
		default:
			i := rng.Intn(len(live))
			require.NoError(t, env.manager.DeleteTransaction(ctx, owner, live[i].ID))
			live = append(live[:i], live[i+1:]...)
		}
	}

	for _, acc := range accounts {
		stored := env.balanceOf(t, owner, acc.ID)
		computed, err := env.engine.Recompute(ctx, owner, acc.ID)
		require.NoError(t, err)
		assert.True(t, stored.Equal(computed),
			"account %s: stored %s != computed %s", acc.Name, stored, computed)
	}
}

// =============================================================================
// COMPENSATION ON NON-TRANSACTIONAL STORES
// =============================================================================

// faultStore hides WithTx from the memory store and injects failures, forcing
// the manager onto its compensation path.
type faultStore struct {
	ledger.Store
	failAdjust bool
	failDelete bool
}

var errInjected = errors.New("injected storage failure")

func (f *faultStore) AdjustBalance(ctx context.Context, o ledger.OwnerID, id ledger.AccountID, delta ledger.Money, allowNegative bool) (ledger.Money, error) {
	if f.failAdjust {
		return ledger.Money{}, errInjected
	}
	return f.Store.AdjustBalance(ctx, o, id, delta, allowNegative)
}

func (f *faultStore) DeleteTransaction(ctx context.Context, o ledger.OwnerID, id ledger.TransactionID) error {
	if f.failDelete {
		return errInjected
	}
	return f.Store.DeleteTransaction(ctx, o, id)
}

func newFaultEnv(t *testing.T) (*faultStore, *ledger.Manager, *ledger.Engine) {
	t.Helper()
	fs := &faultStore{Store: memstore.NewMemory()}
	engine := ledger.NewEngine(fs, nil)
	return fs, ledger.NewManager(fs, engine, nil), engine
}

func TestCreateTransaction_FallbackCompensatesFailedDelta(t *testing.T) {
	// GIVEN: A store without transactions whose balance writes fail
	// WHEN: Creating a transaction
	// THEN: The inserted row is removed again and the original error surfaces

	ctx := context.Background()
	fs, manager, _ := newFaultEnv(t)

	acc, err := manager.CreateAccount(ctx, owner, ledger.Account{
		Name: "Checking", Type: ledger.AccountChecking, Balance: ledger.MustMoney("100.00"),
	})
	require.NoError(t, err)
	cat, err := manager.CreateCategory(ctx, owner, ledger.Category{Name: "Food"})
	require.NoError(t, err)

	fs.failAdjust = true
	_, err = manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "lunch", Amount: ledger.MustMoney("30.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 5),
	})
	require.ErrorIs(t, err, errInjected)
	assert.NotErrorIs(t, err, ledger.ErrPartialFailure)

	fs.failAdjust = false
	txs, err := manager.ListTransactions(ctx, owner, ledger.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestCreateTransaction_PartialFailureWhenCompensationFails(t *testing.T) {
	// GIVEN: A store where both the delta and the compensating delete fail
	// WHEN: Creating a transaction
	// THEN: The caller gets a partial-failure error naming the account

	ctx := context.Background()
	fs, manager, engine := newFaultEnv(t)

	acc, err := manager.CreateAccount(ctx, owner, ledger.Account{
		Name: "Checking", Type: ledger.AccountChecking, Balance: ledger.MustMoney("100.00"),
	})
	require.NoError(t, err)
	cat, err := manager.CreateCategory(ctx, owner, ledger.Category{Name: "Food"})
	require.NoError(t, err)

	fs.failAdjust = true
	fs.failDelete = true
	_, err = manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "lunch", Amount: ledger.MustMoney("30.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 5),
	})

	var pf *ledger.PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "create", pf.Op)
	assert.Equal(t, acc.ID, pf.Unapplied)
	assert.ErrorIs(t, pf.Cause, errInjected)

	// The sweep finds the stranded row and repairs the account.
	fs.failAdjust = false
	fs.failDelete = false
	drifts, err := engine.Reconcile(ctx, owner)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	require.NoError(t, engine.RepairDrift(ctx, owner, drifts))

	drifts, err = engine.Reconcile(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestDeleteTransaction_FallbackRestoresRow(t *testing.T) {
	// GIVEN: A store without transactions whose balance writes fail
	// WHEN: Deleting a transaction and the reversal fails
	// THEN: The row is re-inserted so no money vanishes

	ctx := context.Background()
	fs, manager, _ := newFaultEnv(t)

	acc, err := manager.CreateAccount(ctx, owner, ledger.Account{
		Name: "Checking", Type: ledger.AccountChecking, Balance: ledger.MustMoney("100.00"),
	})
	require.NoError(t, err)
	cat, err := manager.CreateCategory(ctx, owner, ledger.Category{Name: "Food"})
	require.NoError(t, err)

	tx, err := manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "lunch", Amount: ledger.MustMoney("30.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 5),
	})
	require.NoError(t, err)

	fs.failAdjust = true
	err = manager.DeleteTransaction(ctx, owner, tx.ID)
	require.ErrorIs(t, err, errInjected)

	fs.failAdjust = false
	restored, err := manager.GetTransaction(ctx, owner, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, restored.ID)

	a, err := fs.GetAccount(ctx, owner, acc.ID)
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(ledger.MustMoney("70.00")))
}

func TestUpdateTransaction_FallbackWhenReverseDeltaFails(t *testing.T) {
	// GIVEN: A store without transactions and an income whose account has
	//        since been spent below the income amount
	// WHEN: Moving the income to another account, so reversing it on the
	//       old account violates the floor
	// THEN: The row is restored, neither balance moves, and both accounts
	//       still match their recomputed values

	ctx := context.Background()
	fs, manager, engine := newFaultEnv(t)

	checking, err := manager.CreateAccount(ctx, owner, ledger.Account{
		Name: "Checking", Type: ledger.AccountChecking, Balance: ledger.MustMoney("0.00"),
	})
	require.NoError(t, err)
	savings, err := manager.CreateAccount(ctx, owner, ledger.Account{
		Name: "Savings", Type: ledger.AccountSavings, Balance: ledger.MustMoney("0.00"),
	})
	require.NoError(t, err)
	cat, err := manager.CreateCategory(ctx, owner, ledger.Category{Name: "Salary"})
	require.NoError(t, err)

	income, err := manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "paycheck", Amount: ledger.MustMoney("100.00"), Type: ledger.TxIncome,
		AccountID: checking.ID, CategoryID: cat.ID, Date: date(2026, time.August, 1),
	})
	require.NoError(t, err)
	_, err = manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "rent", Amount: ledger.MustMoney("80.00"), Type: ledger.TxExpense,
		AccountID: checking.ID, CategoryID: cat.ID, Date: date(2026, time.August, 2),
	})
	require.NoError(t, err)

	moved := income
	moved.AccountID = savings.ID
	_, err = manager.UpdateTransaction(ctx, owner, moved)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	kept, err := manager.GetTransaction(ctx, owner, income.ID)
	require.NoError(t, err)
	assert.Equal(t, checking.ID, kept.AccountID)

	for _, acc := range []ledger.Account{checking, savings} {
		got, err := fs.GetAccount(ctx, owner, acc.ID)
		require.NoError(t, err)
		derived, err := engine.Recompute(ctx, owner, acc.ID)
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(derived),
			"%s: stored %s vs recomputed %s", acc.Name, got.Balance, derived)
	}

	got, err := fs.GetAccount(ctx, owner, checking.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(ledger.MustMoney("20.00")))
}

func TestLifecycle_CheckingAccountEditSequence(t *testing.T) {
	// GIVEN: A checking account opened with 1000.00
	// WHEN: Recording an expense and an income, raising the expense, then
	//       deleting the income
	// THEN: The stored balance tracks every step and always equals the
	//       recomputed value

	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Checking", "1000.00")
	cat := env.seedCategory(t, owner, "Household")

	expense, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "rent", Amount: ledger.MustMoney("200.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 1),
	})
	require.NoError(t, err)
	assert.True(t, env.balanceOf(t, owner, acc.ID).Equal(ledger.MustMoney("800.00")))

	income, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "refund", Amount: ledger.MustMoney("50.00"), Type: ledger.TxIncome,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 2),
	})
	require.NoError(t, err)
	assert.True(t, env.balanceOf(t, owner, acc.ID).Equal(ledger.MustMoney("850.00")))

	raised := expense
	raised.Amount = ledger.MustMoney("300.00")
	_, err = env.manager.UpdateTransaction(ctx, owner, raised)
	require.NoError(t, err)

	derived, err := env.engine.Recompute(ctx, owner, acc.ID)
	require.NoError(t, err)
	stored := env.balanceOf(t, owner, acc.ID)
	assert.True(t, stored.Equal(derived), "stored %s vs recomputed %s", stored, derived)
	assert.True(t, stored.Equal(ledger.MustMoney("750.00")))

	require.NoError(t, env.manager.DeleteTransaction(ctx, owner, income.ID))
	after := env.balanceOf(t, owner, acc.ID)
	assert.True(t, after.Equal(stored.Sub(ledger.MustMoney("50.00"))))

	derived, err = env.engine.Recompute(ctx, owner, acc.ID)
	require.NoError(t, err)
	assert.True(t, after.Equal(derived))
}
