/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts travel as decimal strings ("149.90"), never floats. Requests are
  parsed with ledger.ParseMoney; responses are formatted with two fraction
  digits.

VALIDATION:
  Validation is done in the domain layer, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: Domain model
*/
package api

import (
	"time"

	"github.com/centavo/finance-engine/ledger"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountDTO represents an account in API responses.
type AccountDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	Balance        string `json:"balance"`
	OpeningBalance string `json:"opening_balance"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// CreateAccountRequest is the request to create an account.
type CreateAccountRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Balance string `json:"balance"`
}

// UpdateAccountRequest renames or retypes an account. Balance is absent on
// purpose: balances only change through transactions and transfers.
type UpdateAccountRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func toAccountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{
		ID:             string(a.ID),
		Name:           a.Name,
		Type:           string(a.Type),
		Balance:        a.Balance.StringFixed(2),
		OpeningBalance: a.OpeningBalance.StringFixed(2),
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// TransactionDTO represents a transaction in API responses.
type TransactionDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	CategoryID  string `json:"category_id"`
	AccountID   string `json:"account_id"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// TransactionRequest is the request body for creating or updating a
// transaction.
type TransactionRequest struct {
	Title       string `json:"title"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	CategoryID  string `json:"category_id"`
	AccountID   string `json:"account_id"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          string(tx.ID),
		Title:       tx.Title,
		Amount:      tx.Amount.StringFixed(2),
		Type:        string(tx.Type),
		CategoryID:  string(tx.CategoryID),
		AccountID:   string(tx.AccountID),
		Date:        tx.Date.Format(time.RFC3339),
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// TRANSFERS
// =============================================================================

// TransferDTO represents a completed transfer in API responses.
type TransferDTO struct {
	ID          string `json:"id"`
	SourceID    string `json:"source_id"`
	DestID      string `json:"dest_id"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
}

// TransferRequest is the request to move money between two accounts.
type TransferRequest struct {
	SourceID    string `json:"source_id"`
	DestID      string `json:"dest_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func toTransferDTO(t ledger.Transfer) TransferDTO {
	return TransferDTO{
		ID:          string(t.ID),
		SourceID:    string(t.SourceID),
		DestID:      string(t.DestID),
		Amount:      t.Amount.StringFixed(2),
		Description: t.Description,
		Date:        t.Date.Format(time.RFC3339),
	}
}

// =============================================================================
// CATEGORIES
// =============================================================================

// CategoryDTO represents a category in API responses.
type CategoryDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// CategoryRequest is the request body for creating or updating a category.
type CategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func toCategoryDTO(c ledger.Category) CategoryDTO {
	return CategoryDTO{
		ID:    string(c.ID),
		Name:  c.Name,
		Color: c.Color,
		Icon:  c.Icon,
	}
}

// =============================================================================
// BUDGETS
// =============================================================================

// BudgetDTO represents a budget in API responses.
type BudgetDTO struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Limit      string `json:"limit"`
	Period     string `json:"period"`
}

// BudgetRequest is the request body for creating or updating a budget.
type BudgetRequest struct {
	CategoryID string `json:"category_id"`
	Limit      string `json:"limit"`
	Period     string `json:"period"`
}

// BudgetProgressDTO is the consumed state of a budget for the current
// period.
type BudgetProgressDTO struct {
	BudgetID string `json:"budget_id"`
	Spent    string `json:"spent"`
	Limit    string `json:"limit"`
	Pct      int    `json:"pct"`
	Status   string `json:"status"`
}

func toBudgetDTO(b ledger.Budget) BudgetDTO {
	return BudgetDTO{
		ID:         string(b.ID),
		CategoryID: string(b.CategoryID),
		Limit:      b.Limit.StringFixed(2),
		Period:     string(b.Period),
	}
}

func toBudgetProgressDTO(p ledger.BudgetProgress) BudgetProgressDTO {
	return BudgetProgressDTO{
		BudgetID: string(p.BudgetID),
		Spent:    p.Spent.StringFixed(2),
		Limit:    p.Limit.StringFixed(2),
		Pct:      p.Pct,
		Status:   string(p.Status),
	}
}

// =============================================================================
// GOALS
// =============================================================================

// GoalDTO represents a savings goal in API responses.
type GoalDTO struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	TargetAmount  string `json:"target_amount"`
	CurrentAmount string `json:"current_amount"`
	TargetDate    string `json:"target_date"`
}

// GoalRequest is the request body for creating or updating a goal.
type GoalRequest struct {
	Title         string `json:"title"`
	TargetAmount  string `json:"target_amount"`
	CurrentAmount string `json:"current_amount"`
	TargetDate    string `json:"target_date"`
}

// GoalProgressDTO is the derived completion state of a goal.
type GoalProgressDTO struct {
	GoalID        string `json:"goal_id"`
	Pct           int    `json:"pct"`
	RemainingDays int    `json:"remaining_days"`
	Status        string `json:"status"`
}

func toGoalDTO(g ledger.Goal) GoalDTO {
	return GoalDTO{
		ID:            string(g.ID),
		Title:         g.Title,
		TargetAmount:  g.TargetAmount.StringFixed(2),
		CurrentAmount: g.CurrentAmount.StringFixed(2),
		TargetDate:    g.TargetDate.Format(time.RFC3339),
	}
}

// =============================================================================
// BILLS
// =============================================================================

// BillDTO represents a payable or receivable in API responses.
type BillDTO struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	Amount      string `json:"amount"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	Recurring   bool   `json:"recurring"`
}

// BillRequest is the request body for creating or updating a bill.
type BillRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	Amount      string `json:"amount"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	Recurring   bool   `json:"recurring"`
}

func toBillDTO(b ledger.Bill) BillDTO {
	return BillDTO{
		ID:          string(b.ID),
		Type:        string(b.Type),
		Description: b.Description,
		CategoryID:  string(b.CategoryID),
		Amount:      b.Amount.StringFixed(2),
		DueDate:     b.DueDate.Format(time.RFC3339),
		Status:      string(b.Status),
		Recurring:   b.Recurring,
	}
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// DriftDTO reports one account whose stored balance disagrees with the
// balance derived from its recorded history.
type DriftDTO struct {
	AccountID string `json:"account_id"`
	Stored    string `json:"stored"`
	Computed  string `json:"computed"`
	Delta     string `json:"delta"`
}

// ReconcileResponse is the result of a reconciliation pass.
type ReconcileResponse struct {
	Drifts   []DriftDTO `json:"drifts"`
	Repaired bool       `json:"repaired"`
}

func toDriftDTO(d ledger.Drift) DriftDTO {
	return DriftDTO{
		AccountID: string(d.AccountID),
		Stored:    d.Stored.StringFixed(2),
		Computed:  d.Computed.StringFixed(2),
		Delta:     d.Delta().StringFixed(2),
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the JSON body returned for all error statuses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
