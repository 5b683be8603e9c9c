package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centavo/finance-engine/api"
	"github.com/centavo/finance-engine/ledger"
	memstore "github.com/centavo/finance-engine/ledger/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testServer struct {
	router http.Handler
	store  *memstore.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memstore.NewMemory()
	engine := ledger.NewEngine(store, nil)
	manager := ledger.NewManager(store, engine, nil)
	h := api.NewHandler(manager, engine, nil)
	return &testServer{router: api.NewRouter(h), store: store}
}

// do issues a request as the given owner and decodes the JSON response into
// out (when non-nil).
func (ts *testServer) do(t *testing.T, owner, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if owner != "" {
		req.Header.Set("X-User-ID", owner)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec
}

func (ts *testServer) createAccount(t *testing.T, owner, name, balance string) api.AccountDTO {
	t.Helper()
	var dto api.AccountDTO
	rec := ts.do(t, owner, http.MethodPost, "/api/accounts", map[string]string{
		"name": name, "type": "checking", "balance": balance,
	}, &dto)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return dto
}

func (ts *testServer) createCategory(t *testing.T, owner, name string) api.CategoryDTO {
	t.Helper()
	var dto api.CategoryDTO
	rec := ts.do(t, owner, http.MethodPost, "/api/categories", map[string]string{"name": name}, &dto)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return dto
}

func today() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// =============================================================================
// AUTH AND HEALTH
// =============================================================================

func TestOwnerHeaderRequired(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "", http.MethodGet, "/api/accounts", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, "", http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestAccountEndpoints(t *testing.T) {
	ts := newTestServer(t)

	acc := ts.createAccount(t, "user-1", "Checking", "100.00")
	assert.NotEmpty(t, acc.ID)
	assert.Equal(t, "100.00", acc.Balance)
	assert.Equal(t, "100.00", acc.OpeningBalance)

	var got api.AccountDTO
	rec := ts.do(t, "user-1", http.MethodGet, "/api/accounts/"+acc.ID, nil, &got)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, acc.ID, got.ID)

	// The update surface has no balance field.
	var renamed api.AccountDTO
	rec = ts.do(t, "user-1", http.MethodPut, "/api/accounts/"+acc.ID, map[string]string{
		"name": "Main", "type": "savings",
	}, &renamed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Main", renamed.Name)
	assert.Equal(t, "100.00", renamed.Balance)

	// Cross-owner access reads as not found.
	rec = ts.do(t, "user-2", http.MethodGet, "/api/accounts/"+acc.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, "user-1", http.MethodDelete, "/api/accounts/"+acc.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateAccount_InvalidInput(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "user-1", http.MethodPost, "/api/accounts", map[string]string{
		"name": "", "type": "checking", "balance": "10.00",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, "user-1", http.MethodPost, "/api/accounts", map[string]string{
		"name": "x", "type": "checking", "balance": "not-a-number",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestTransactionEndpoints(t *testing.T) {
	// GIVEN: An account with 100.00
	// WHEN: Creating, updating, and deleting an expense over HTTP
	// THEN: Each response reflects the balance rules of the domain layer

	ts := newTestServer(t)
	acc := ts.createAccount(t, "user-1", "Checking", "100.00")
	cat := ts.createCategory(t, "user-1", "Food")

	var tx api.TransactionDTO
	rec := ts.do(t, "user-1", http.MethodPost, "/api/transactions", map[string]string{
		"title": "groceries", "amount": "30.00", "type": "expense",
		"account_id": acc.ID, "category_id": cat.ID, "date": today(),
	}, &tx)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "30.00", tx.Amount)

	var after api.AccountDTO
	ts.do(t, "user-1", http.MethodGet, "/api/accounts/"+acc.ID, nil, &after)
	assert.Equal(t, "70.00", after.Balance)

	var updated api.TransactionDTO
	rec = ts.do(t, "user-1", http.MethodPut, "/api/transactions/"+tx.ID, map[string]string{
		"title": "groceries", "amount": "50.00", "type": "expense",
		"account_id": acc.ID, "category_id": cat.ID, "date": today(),
	}, &updated)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ts.do(t, "user-1", http.MethodGet, "/api/accounts/"+acc.ID, nil, &after)
	assert.Equal(t, "50.00", after.Balance)

	rec = ts.do(t, "user-1", http.MethodDelete, "/api/transactions/"+tx.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	ts.do(t, "user-1", http.MethodGet, "/api/accounts/"+acc.ID, nil, &after)
	assert.Equal(t, "100.00", after.Balance)
}

func TestCreateTransaction_InsufficientFunds(t *testing.T) {
	ts := newTestServer(t)
	acc := ts.createAccount(t, "user-1", "Checking", "10.00")
	cat := ts.createCategory(t, "user-1", "Food")

	rec := ts.do(t, "user-1", http.MethodPost, "/api/transactions", map[string]string{
		"title": "too much", "amount": "10.01", "type": "expense",
		"account_id": acc.ID, "category_id": cat.ID, "date": today(),
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var after api.AccountDTO
	ts.do(t, "user-1", http.MethodGet, "/api/accounts/"+acc.ID, nil, &after)
	assert.Equal(t, "10.00", after.Balance)
}

func TestListTransactions_Filtered(t *testing.T) {
	ts := newTestServer(t)
	acc := ts.createAccount(t, "user-1", "Checking", "1000.00")
	food := ts.createCategory(t, "user-1", "Food")
	rent := ts.createCategory(t, "user-1", "Rent")

	for _, spec := range []struct{ title, amount, cat string }{
		{"groceries", "30.00", food.ID},
		{"restaurant", "45.00", food.ID},
		{"rent", "800.00", rent.ID},
	} {
		rec := ts.do(t, "user-1", http.MethodPost, "/api/transactions", map[string]string{
			"title": spec.title, "amount": spec.amount, "type": "expense",
			"account_id": acc.ID, "category_id": spec.cat, "date": today(),
		}, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	var all []api.TransactionDTO
	rec := ts.do(t, "user-1", http.MethodGet, "/api/transactions", nil, &all)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, all, 3)

	var byCategory []api.TransactionDTO
	rec = ts.do(t, "user-1", http.MethodGet, "/api/transactions?category_id="+food.ID, nil, &byCategory)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, byCategory, 2)
}

// =============================================================================
// TRANSFERS
// =============================================================================

func TestTransferEndpoint(t *testing.T) {
	ts := newTestServer(t)
	src := ts.createAccount(t, "user-1", "Checking", "100.00")
	dst := ts.createAccount(t, "user-1", "Savings", "0.00")

	var transfer api.TransferDTO
	rec := ts.do(t, "user-1", http.MethodPost, "/api/transfers", map[string]string{
		"source_id": src.ID, "dest_id": dst.ID, "amount": "40.00",
	}, &transfer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "40.00", transfer.Amount)

	var a, b api.AccountDTO
	ts.do(t, "user-1", http.MethodGet, "/api/accounts/"+src.ID, nil, &a)
	ts.do(t, "user-1", http.MethodGet, "/api/accounts/"+dst.ID, nil, &b)
	assert.Equal(t, "60.00", a.Balance)
	assert.Equal(t, "40.00", b.Balance)

	// Same-account transfers are a validation error.
	rec = ts.do(t, "user-1", http.MethodPost, "/api/transfers", map[string]string{
		"source_id": src.ID, "dest_id": src.ID, "amount": "5.00",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Overdrawing the source is rejected with 422.
	rec = ts.do(t, "user-1", http.MethodPost, "/api/transfers", map[string]string{
		"source_id": src.ID, "dest_id": dst.ID, "amount": "60.01",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var history []api.TransferDTO
	rec = ts.do(t, "user-1", http.MethodGet, "/api/transfers", nil, &history)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, history, 1)
}

// =============================================================================
// BUDGETS AND GOALS
// =============================================================================

func TestBudgetProgressEndpoint(t *testing.T) {
	ts := newTestServer(t)
	acc := ts.createAccount(t, "user-1", "Checking", "1000.00")
	cat := ts.createCategory(t, "user-1", "Food")

	var budget api.BudgetDTO
	rec := ts.do(t, "user-1", http.MethodPost, "/api/budgets", map[string]string{
		"category_id": cat.ID, "limit": "200.00", "period": "monthly",
	}, &budget)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, "user-1", http.MethodPost, "/api/transactions", map[string]string{
		"title": "groceries", "amount": "150.00", "type": "expense",
		"account_id": acc.ID, "category_id": cat.ID, "date": today(),
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var progress api.BudgetProgressDTO
	rec = ts.do(t, "user-1", http.MethodGet, fmt.Sprintf("/api/budgets/%s/progress", budget.ID), nil, &progress)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "150.00", progress.Spent)
	assert.Equal(t, 75, progress.Pct)
	assert.Equal(t, "warning", progress.Status)

	rec = ts.do(t, "user-1", http.MethodGet, "/api/budgets/ghost/progress", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGoalProgressEndpoint(t *testing.T) {
	ts := newTestServer(t)

	target := time.Now().UTC().Add(30 * 24 * time.Hour).Format(time.RFC3339)
	var goal api.GoalDTO
	rec := ts.do(t, "user-1", http.MethodPost, "/api/goals", map[string]string{
		"title": "vacation", "target_amount": "1000.00",
		"current_amount": "250.00", "target_date": target,
	}, &goal)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var progress api.GoalProgressDTO
	rec = ts.do(t, "user-1", http.MethodGet, fmt.Sprintf("/api/goals/%s/progress", goal.ID), nil, &progress)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, progress.Pct)
	assert.Equal(t, "active", progress.Status)
	assert.Equal(t, 30, progress.RemainingDays)
}

// =============================================================================
// BILLS
// =============================================================================

func TestBillEndpoints(t *testing.T) {
	ts := newTestServer(t)
	cat := ts.createCategory(t, "user-1", "Utilities")

	overdueDate := time.Now().UTC().Add(-72 * time.Hour).Format(time.RFC3339)
	var bill api.BillDTO
	rec := ts.do(t, "user-1", http.MethodPost, "/api/bills", map[string]any{
		"type": "payable", "description": "electricity",
		"category_id": cat.ID, "amount": "80.00", "due_date": overdueDate,
	}, &bill)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "pending", bill.Status)

	// The listing shows (and persists) the overdue bill as late.
	var bills []api.BillDTO
	rec = ts.do(t, "user-1", http.MethodGet, "/api/bills", nil, &bills)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, bills, 1)
	assert.Equal(t, "late", bills[0].Status)

	var paid api.BillDTO
	rec = ts.do(t, "user-1", http.MethodPut, "/api/bills/"+bill.ID, map[string]any{
		"type": "payable", "description": "electricity",
		"category_id": cat.ID, "amount": "80.00", "due_date": overdueDate,
		"status": "paid",
	}, &paid)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "paid", paid.Status)
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func TestReconcileEndpoint(t *testing.T) {
	// GIVEN: A stored balance corrupted away from the history
	// WHEN: Reconciling, then reconciling with repair
	// THEN: The drift is reported, repaired, and gone

	ts := newTestServer(t)
	acc := ts.createAccount(t, "user-1", "Checking", "100.00")

	_, err := ts.store.AdjustBalance(context.Background(), "user-1", ledger.AccountID(acc.ID), ledger.MustMoney("-25.00"), true)
	require.NoError(t, err)

	var resp api.ReconcileResponse
	rec := ts.do(t, "user-1", http.MethodPost, "/api/reconcile", nil, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Drifts, 1)
	assert.Equal(t, acc.ID, resp.Drifts[0].AccountID)
	assert.Equal(t, "75.00", resp.Drifts[0].Stored)
	assert.Equal(t, "100.00", resp.Drifts[0].Computed)
	assert.False(t, resp.Repaired)

	rec = ts.do(t, "user-1", http.MethodPost, "/api/reconcile?repair=true", nil, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Repaired)

	rec = ts.do(t, "user-1", http.MethodPost, "/api/reconcile", nil, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp.Drifts)

	var after api.AccountDTO
	ts.do(t, "user-1", http.MethodGet, "/api/accounts/"+acc.ID, nil, &after)
	assert.Equal(t, "100.00", after.Balance)
}

func TestInvalidJSONBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", bytes.NewBufferString("{not json"))
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
