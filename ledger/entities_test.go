package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centavo/finance-engine/ledger"
)

func TestCreateAccount_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.manager.CreateAccount(ctx, owner, ledger.Account{Name: " ", Type: ledger.AccountChecking})
	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = env.manager.CreateAccount(ctx, owner, ledger.Account{Name: "x", Type: "offshore"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Field)

	_, err = env.manager.CreateAccount(ctx, owner, ledger.Account{
		Name: "x", Type: ledger.AccountChecking, Balance: ledger.MustMoney("-1.00"),
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "balance", verr.Field)
}

func TestCreateAccount_NegativeOpeningBalanceWithFloorOff(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.engine.AllowNegative = true

	a, err := env.manager.CreateAccount(ctx, owner, ledger.Account{
		Name: "Overdrawn", Type: ledger.AccountChecking, Balance: ledger.MustMoney("-25.00"),
	})
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(ledger.MustMoney("-25.00")))
}

func TestRenameAccount_KeepsBalance(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Old name", "75.00")

	updated, err := env.manager.RenameAccount(ctx, owner, acc.ID, "New name", ledger.AccountSavings)
	require.NoError(t, err)
	assert.Equal(t, "New name", updated.Name)
	assert.Equal(t, ledger.AccountSavings, updated.Type)
	assert.True(t, updated.Balance.Equal(ledger.MustMoney("75.00")))
}

func TestDeleteAccount_RefusesWhenTransactionsExist(t *testing.T) {
	// GIVEN: An account with one recorded transaction
	// WHEN: Deleting the account
	// THEN: The deletion is refused; after the transaction goes, it succeeds

	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.seedAccount(t, owner, "Checking", "100.00")
	cat := env.seedCategory(t, owner, "Food")

	tx, err := env.manager.CreateTransaction(ctx, owner, ledger.Transaction{
		Title: "lunch", Amount: ledger.MustMoney("30.00"), Type: ledger.TxExpense,
		AccountID: acc.ID, CategoryID: cat.ID, Date: date(2026, time.August, 5),
	})
	require.NoError(t, err)

	err = env.manager.DeleteAccount(ctx, owner, acc.ID)
	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "accountId", verr.Field)

	require.NoError(t, env.manager.DeleteTransaction(ctx, owner, tx.ID))
	require.NoError(t, env.manager.DeleteAccount(ctx, owner, acc.ID))

	_, err = env.manager.GetAccount(ctx, owner, acc.ID)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestCategoryAndBudgetLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	cat := env.seedCategory(t, owner, "Food")

	cat.Name = "Groceries"
	updated, err := env.manager.UpdateCategory(ctx, owner, cat)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", updated.Name)

	_, err = env.manager.CreateBudget(ctx, owner, ledger.Budget{
		CategoryID: "ghost", Limit: ledger.MustMoney("100.00"), Period: ledger.PeriodMonthly,
	})
	assert.ErrorIs(t, err, ledger.ErrCategoryNotFound)

	budget, err := env.manager.CreateBudget(ctx, owner, ledger.Budget{
		CategoryID: cat.ID, Limit: ledger.MustMoney("100.00"), Period: ledger.PeriodMonthly,
	})
	require.NoError(t, err)

	budget.Limit = ledger.MustMoney("150.00")
	updatedBudget, err := env.manager.UpdateBudget(ctx, owner, budget)
	require.NoError(t, err)
	assert.True(t, updatedBudget.Limit.Equal(ledger.MustMoney("150.00")))

	require.NoError(t, env.manager.DeleteBudget(ctx, owner, budget.ID))
	_, err = env.manager.BudgetProgress(ctx, owner, budget.ID, date(2026, time.August, 20))
	assert.ErrorIs(t, err, ledger.ErrBudgetNotFound)
}

func TestCreateBill_DefaultsToPending(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	cat := env.seedCategory(t, owner, "Utilities")

	bill, err := env.manager.CreateBill(ctx, owner, ledger.Bill{
		Type: ledger.BillPayable, Description: "water",
		CategoryID: cat.ID, Amount: ledger.MustMoney("35.00"),
		DueDate: date(2026, time.September, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.BillPending, bill.Status)
}
