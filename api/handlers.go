/*
handlers.go - HTTP API handlers for the finance engine

PURPOSE:
  Exposes the balance engine and transaction lifecycle via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                    List accounts
    POST   /api/accounts                    Create account
    GET    /api/accounts/{id}               Get account
    PUT    /api/accounts/{id}               Rename/retype account
    DELETE /api/accounts/{id}               Delete account (no transactions)
    GET    /api/accounts/{id}/recompute     Balance recomputed from the log

  Transactions:
    GET    /api/transactions                List (filterable)
    POST   /api/transactions                Create (adjusts balance)
    GET    /api/transactions/{id}           Get
    PUT    /api/transactions/{id}           Update (reverse + apply)
    DELETE /api/transactions/{id}           Delete (reverses effect)

  Transfers:
    GET    /api/transfers                   List
    POST   /api/transfers                   Move money between accounts

  Categories, budgets, goals, bills: standard CRUD, plus
    GET    /api/budgets/{id}/progress
    GET    /api/goals/{id}/progress

  Reconciliation:
    POST   /api/reconcile                   Detect (and optionally repair) drift

OWNER SCOPING:
  Every request carries the owner in the X-User-ID header. The ownerCtx
  middleware rejects requests without it; handlers never see another
  owner's rows.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found (including cross-owner access)
  - 409: Concurrent-modification conflict
  - 422: Insufficient funds
  - 500: Partial failure, internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - ledger/lifecycle.go: The operations these handlers delegate to
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/centavo/finance-engine/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Manager *ledger.Manager
	Engine  *ledger.Engine
	Log     *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewHandler creates a new handler around the domain layer.
func NewHandler(manager *ledger.Manager, engine *ledger.Engine, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Manager: manager,
		Engine:  engine,
		Log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type ownerKey struct{}

// ownerCtx extracts the X-User-ID header and stores it in the request
// context. Requests without it are rejected before reaching a handler.
func ownerCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get("X-User-ID")
		if owner == "" {
			writeError(w, http.StatusUnauthorized, "Missing X-User-ID header", nil)
			return
		}
		ctx := context.WithValue(r.Context(), ownerKey{}, ledger.OwnerID(owner))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerFrom(r *http.Request) ledger.OwnerID {
	owner, _ := r.Context().Value(ownerKey{}).(ledger.OwnerID)
	return owner
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns the owner's accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Manager.ListAccounts(r.Context(), ownerFrom(r))
	if err != nil {
		writeDomainError(w, "Failed to list accounts", err)
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount creates an account with an opening balance.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	balance, err := parseMoneyField(req.Balance, "balance")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid balance", err)
		return
	}

	account, err := h.Manager.CreateAccount(r.Context(), ownerFrom(r), ledger.Account{
		Name:    req.Name,
		Type:    ledger.AccountType(req.Type),
		Balance: balance,
	})
	if err != nil {
		writeDomainError(w, "Failed to create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(account))
}

// GetAccount returns one account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))
	account, err := h.Manager.GetAccount(r.Context(), ownerFrom(r), id)
	if err != nil {
		writeDomainError(w, "Failed to get account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// UpdateAccount renames or retypes an account. The balance is not
// writable here.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := ledger.AccountID(chi.URLParam(r, "id"))
	account, err := h.Manager.RenameAccount(r.Context(), ownerFrom(r), id, req.Name, ledger.AccountType(req.Type))
	if err != nil {
		writeDomainError(w, "Failed to update account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// DeleteAccount removes an account that has no transactions.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))
	if err := h.Manager.DeleteAccount(r.Context(), ownerFrom(r), id); err != nil {
		writeDomainError(w, "Failed to delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecomputeBalance returns the balance derived from the account's recorded
// history, alongside the stored one.
func (h *Handler) RecomputeBalance(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)
	id := ledger.AccountID(chi.URLParam(r, "id"))

	account, err := h.Manager.GetAccount(r.Context(), owner, id)
	if err != nil {
		writeDomainError(w, "Failed to get account", err)
		return
	}
	computed, err := h.Engine.Recompute(r.Context(), owner, id)
	if err != nil {
		writeDomainError(w, "Failed to recompute balance", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"account_id": string(id),
		"stored":     account.Balance.StringFixed(2),
		"computed":   computed.StringFixed(2),
	})
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns the owner's transactions, optionally filtered by
// account_id, category_id, type, from, to.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	txs, err := h.Manager.ListTransactions(r.Context(), ownerFrom(r), filter)
	if err != nil {
		writeDomainError(w, "Failed to list transactions", err)
		return
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTransaction records a transaction and applies its effect to the
// account balance.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.decodeTransaction(w, r)
	if !ok {
		return
	}

	created, err := h.Manager.CreateTransaction(r.Context(), ownerFrom(r), tx)
	if err != nil {
		writeDomainError(w, "Failed to create transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(created))
}

// GetTransaction returns one transaction.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))
	tx, err := h.Manager.GetTransaction(r.Context(), ownerFrom(r), id)
	if err != nil {
		writeDomainError(w, "Failed to get transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// UpdateTransaction replaces a transaction's fields; the old balance effect
// is reversed and the new one applied.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.decodeTransaction(w, r)
	if !ok {
		return
	}
	tx.ID = ledger.TransactionID(chi.URLParam(r, "id"))

	updated, err := h.Manager.UpdateTransaction(r.Context(), ownerFrom(r), tx)
	if err != nil {
		writeDomainError(w, "Failed to update transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(updated))
}

// DeleteTransaction removes a transaction and reverses its balance effect.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))
	if err := h.Manager.DeleteTransaction(r.Context(), ownerFrom(r), id); err != nil {
		writeDomainError(w, "Failed to delete transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeTransaction(w http.ResponseWriter, r *http.Request) (ledger.Transaction, bool) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return ledger.Transaction{}, false
	}

	amount, err := parseMoneyField(req.Amount, "amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return ledger.Transaction{}, false
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return ledger.Transaction{}, false
	}

	return ledger.Transaction{
		Title:       req.Title,
		Amount:      amount,
		Type:        ledger.TransactionType(req.Type),
		CategoryID:  ledger.CategoryID(req.CategoryID),
		AccountID:   ledger.AccountID(req.AccountID),
		Date:        date,
		Description: req.Description,
	}, true
}

// =============================================================================
// TRANSFER HANDLERS
// =============================================================================

// ListTransfers returns the owner's transfer history.
func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.Manager.ListTransfers(r.Context(), ownerFrom(r))
	if err != nil {
		writeDomainError(w, "Failed to list transfers", err)
		return
	}

	dtos := make([]TransferDTO, len(transfers))
	for i, t := range transfers {
		dtos[i] = toTransferDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTransfer moves money between two of the owner's accounts.
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseMoneyField(req.Amount, "amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	transfer, err := h.Manager.Transfer(r.Context(), ownerFrom(r), ledger.TransferInput{
		SourceID:    ledger.AccountID(req.SourceID),
		DestID:      ledger.AccountID(req.DestID),
		Amount:      amount,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		writeDomainError(w, "Failed to transfer", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransferDTO(transfer))
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

// ListCategories returns the owner's categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Manager.ListCategories(r.Context(), ownerFrom(r))
	if err != nil {
		writeDomainError(w, "Failed to list categories", err)
		return
	}

	dtos := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = toCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCategory creates a category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	category, err := h.Manager.CreateCategory(r.Context(), ownerFrom(r), ledger.Category{
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		writeDomainError(w, "Failed to create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(category))
}

// UpdateCategory updates a category's fields.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	category, err := h.Manager.UpdateCategory(r.Context(), ownerFrom(r), ledger.Category{
		ID:    ledger.CategoryID(chi.URLParam(r, "id")),
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		writeDomainError(w, "Failed to update category", err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(category))
}

// DeleteCategory removes a category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := ledger.CategoryID(chi.URLParam(r, "id"))
	if err := h.Manager.DeleteCategory(r.Context(), ownerFrom(r), id); err != nil {
		writeDomainError(w, "Failed to delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BUDGET HANDLERS
// =============================================================================

// ListBudgets returns the owner's budgets.
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.Manager.ListBudgets(r.Context(), ownerFrom(r))
	if err != nil {
		writeDomainError(w, "Failed to list budgets", err)
		return
	}

	dtos := make([]BudgetDTO, len(budgets))
	for i, b := range budgets {
		dtos[i] = toBudgetDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBudget creates a spending budget for a category.
func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	budget, ok := h.decodeBudget(w, r)
	if !ok {
		return
	}

	created, err := h.Manager.CreateBudget(r.Context(), ownerFrom(r), budget)
	if err != nil {
		writeDomainError(w, "Failed to create budget", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetDTO(created))
}

// UpdateBudget updates a budget's category, limit, or period.
func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	budget, ok := h.decodeBudget(w, r)
	if !ok {
		return
	}
	budget.ID = ledger.BudgetID(chi.URLParam(r, "id"))

	updated, err := h.Manager.UpdateBudget(r.Context(), ownerFrom(r), budget)
	if err != nil {
		writeDomainError(w, "Failed to update budget", err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetDTO(updated))
}

// DeleteBudget removes a budget.
func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := ledger.BudgetID(chi.URLParam(r, "id"))
	if err := h.Manager.DeleteBudget(r.Context(), ownerFrom(r), id); err != nil {
		writeDomainError(w, "Failed to delete budget", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBudgetProgress returns spent/limit/pct/status for the current period.
func (h *Handler) GetBudgetProgress(w http.ResponseWriter, r *http.Request) {
	id := ledger.BudgetID(chi.URLParam(r, "id"))
	progress, err := h.Manager.BudgetProgress(r.Context(), ownerFrom(r), id, h.now())
	if err != nil {
		writeDomainError(w, "Failed to compute budget progress", err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetProgressDTO(progress))
}

func (h *Handler) decodeBudget(w http.ResponseWriter, r *http.Request) (ledger.Budget, bool) {
	var req BudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return ledger.Budget{}, false
	}
	limit, err := parseMoneyField(req.Limit, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return ledger.Budget{}, false
	}
	return ledger.Budget{
		CategoryID: ledger.CategoryID(req.CategoryID),
		Limit:      limit,
		Period:     ledger.BudgetPeriod(req.Period),
	}, true
}

// =============================================================================
// GOAL HANDLERS
// =============================================================================

// ListGoals returns the owner's savings goals.
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.Manager.ListGoals(r.Context(), ownerFrom(r))
	if err != nil {
		writeDomainError(w, "Failed to list goals", err)
		return
	}

	dtos := make([]GoalDTO, len(goals))
	for i, g := range goals {
		dtos[i] = toGoalDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateGoal creates a savings goal.
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	goal, ok := h.decodeGoal(w, r)
	if !ok {
		return
	}

	created, err := h.Manager.CreateGoal(r.Context(), ownerFrom(r), goal)
	if err != nil {
		writeDomainError(w, "Failed to create goal", err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalDTO(created))
}

// UpdateGoal updates a goal's fields, including progress contributions.
func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	goal, ok := h.decodeGoal(w, r)
	if !ok {
		return
	}
	goal.ID = ledger.GoalID(chi.URLParam(r, "id"))

	updated, err := h.Manager.UpdateGoal(r.Context(), ownerFrom(r), goal)
	if err != nil {
		writeDomainError(w, "Failed to update goal", err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalDTO(updated))
}

// DeleteGoal removes a goal.
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	id := ledger.GoalID(chi.URLParam(r, "id"))
	if err := h.Manager.DeleteGoal(r.Context(), ownerFrom(r), id); err != nil {
		writeDomainError(w, "Failed to delete goal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGoalProgress returns pct/remaining days/status for a goal.
func (h *Handler) GetGoalProgress(w http.ResponseWriter, r *http.Request) {
	id := ledger.GoalID(chi.URLParam(r, "id"))
	progress, err := h.Manager.GoalProgress(r.Context(), ownerFrom(r), id, h.now())
	if err != nil {
		writeDomainError(w, "Failed to compute goal progress", err)
		return
	}
	writeJSON(w, http.StatusOK, GoalProgressDTO{
		GoalID:        string(progress.GoalID),
		Pct:           progress.Pct,
		RemainingDays: progress.RemainingDays,
		Status:        string(progress.Status),
	})
}

func (h *Handler) decodeGoal(w http.ResponseWriter, r *http.Request) (ledger.Goal, bool) {
	var req GoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return ledger.Goal{}, false
	}
	target, err := parseMoneyField(req.TargetAmount, "target_amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid target amount", err)
		return ledger.Goal{}, false
	}
	current, err := parseMoneyField(req.CurrentAmount, "current_amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid current amount", err)
		return ledger.Goal{}, false
	}
	targetDate, err := parseDateField(req.TargetDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid target date", err)
		return ledger.Goal{}, false
	}
	return ledger.Goal{
		Title:         req.Title,
		TargetAmount:  target,
		CurrentAmount: current,
		TargetDate:    targetDate,
	}, true
}

// =============================================================================
// BILL HANDLERS
// =============================================================================

// ListBills returns the owner's bills with overdue pending bills shown as
// late.
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.Manager.ListBills(r.Context(), ownerFrom(r), h.now())
	if err != nil {
		writeDomainError(w, "Failed to list bills", err)
		return
	}

	dtos := make([]BillDTO, len(bills))
	for i, b := range bills {
		dtos[i] = toBillDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBill records a payable or receivable.
func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	bill, ok := h.decodeBill(w, r)
	if !ok {
		return
	}

	created, err := h.Manager.CreateBill(r.Context(), ownerFrom(r), bill)
	if err != nil {
		writeDomainError(w, "Failed to create bill", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBillDTO(created))
}

// UpdateBill updates a bill, including marking it paid or received.
func (h *Handler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	bill, ok := h.decodeBill(w, r)
	if !ok {
		return
	}
	bill.ID = ledger.BillID(chi.URLParam(r, "id"))

	updated, err := h.Manager.UpdateBill(r.Context(), ownerFrom(r), bill)
	if err != nil {
		writeDomainError(w, "Failed to update bill", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTO(updated))
}

// DeleteBill removes a bill.
func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	id := ledger.BillID(chi.URLParam(r, "id"))
	if err := h.Manager.DeleteBill(r.Context(), ownerFrom(r), id); err != nil {
		writeDomainError(w, "Failed to delete bill", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeBill(w http.ResponseWriter, r *http.Request) (ledger.Bill, bool) {
	var req BillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return ledger.Bill{}, false
	}
	amount, err := parseMoneyField(req.Amount, "amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return ledger.Bill{}, false
	}
	dueDate, err := parseDateField(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid due date", err)
		return ledger.Bill{}, false
	}
	return ledger.Bill{
		Type:        ledger.BillType(req.Type),
		Description: req.Description,
		CategoryID:  ledger.CategoryID(req.CategoryID),
		Amount:      amount,
		DueDate:     dueDate,
		Status:      ledger.BillStatus(req.Status),
		Recurring:   req.Recurring,
	}, true
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// Reconcile checks every account of the owner for drift between the stored
// balance and the recorded history. With ?repair=true, detected drift is
// corrected.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)

	drifts, err := h.Engine.Reconcile(r.Context(), owner)
	if err != nil {
		writeDomainError(w, "Failed to reconcile", err)
		return
	}

	resp := ReconcileResponse{Drifts: make([]DriftDTO, len(drifts))}
	for i, d := range drifts {
		resp.Drifts[i] = toDriftDTO(d)
	}

	if r.URL.Query().Get("repair") == "true" && len(drifts) > 0 {
		if err := h.Engine.RepairDrift(r.Context(), owner, drifts); err != nil {
			writeDomainError(w, "Failed to repair drift", err)
			return
		}
		resp.Repaired = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func parseMoneyField(s, field string) (ledger.Money, error) {
	if s == "" {
		return ledger.Money{}, &ledger.ValidationError{Field: field, Reason: "required"}
	}
	return ledger.ParseMoney(s)
}

func parseDateField(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseTransactionFilter(r *http.Request) (ledger.TransactionFilter, error) {
	var f ledger.TransactionFilter
	q := r.URL.Query()

	if v := q.Get("account_id"); v != "" {
		id := ledger.AccountID(v)
		f.AccountID = &id
	}
	if v := q.Get("category_id"); v != "" {
		id := ledger.CategoryID(v)
		f.CategoryID = &id
	}
	if v := q.Get("type"); v != "" {
		typ := ledger.TransactionType(v)
		f.Type = &typ
	}
	if v := q.Get("from"); v != "" {
		t, err := parseDateField(v)
		if err != nil {
			return f, err
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseDateField(v)
		if err != nil {
			return f, err
		}
		f.To = &t
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	case errors.Is(err, ledger.ErrConflict):
		writeError(w, http.StatusConflict, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
