/*
progress.go - Derived budget, goal, and bill state

PURPOSE:
  Read-only calculations over the stored entities. Nothing here mutates a
  balance; the only write is the pending-to-late bill status flip, which
  mirrors what the listing path has always persisted.

STATUS BANDS:
  Budgets compare spent against the limit exactly (decimal), not via the
  rounded display percentage: one cent under the limit is still "warning"
  even though it rounds to 100%.
*/
package ledger

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BUDGET PROGRESS
// =============================================================================

type BudgetStatus string

const (
	BudgetNominal  BudgetStatus = "nominal"  // below 75% of the limit
	BudgetWarning  BudgetStatus = "warning"  // 75% up to (but not at) the limit
	BudgetExceeded BudgetStatus = "exceeded" // at or over the limit
)

// BudgetProgress is the consumed state of a budget for the current period.
type BudgetProgress struct {
	BudgetID BudgetID
	Spent    Money
	Limit    Money
	Pct      int // min(round(spent/limit*100), 100)
	Status   BudgetStatus
}

var warnThreshold = decimal.NewFromFloat(0.75)

// CalcBudgetProgress sums the expense transactions in the budget's category
// whose date falls in the period containing now.
func CalcBudgetProgress(b Budget, txs []Transaction, now time.Time) BudgetProgress {
	period := PeriodFor(now, b.Period)

	spent := decimal.Zero
	for _, tx := range txs {
		if tx.Type != TxExpense || tx.CategoryID != b.CategoryID {
			continue
		}
		if period.Contains(tx.Date.UTC()) {
			spent = spent.Add(tx.Amount)
		}
	}

	p := BudgetProgress{BudgetID: b.ID, Spent: spent, Limit: b.Limit, Status: BudgetNominal}
	if !b.Limit.IsPositive() {
		return p
	}

	ratio := spent.Div(b.Limit)
	pct := ratio.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if pct > 100 {
		pct = 100
	}
	p.Pct = int(pct)

	switch {
	case spent.GreaterThanOrEqual(b.Limit):
		p.Status = BudgetExceeded
	case ratio.GreaterThanOrEqual(warnThreshold):
		p.Status = BudgetWarning
	}
	return p
}

// BudgetProgress loads the budget and its category's transactions and
// returns the consumed state for the period containing now.
func (m *Manager) BudgetProgress(ctx context.Context, owner OwnerID, id BudgetID, now time.Time) (BudgetProgress, error) {
	b, err := m.store.GetBudget(ctx, owner, id)
	if err != nil {
		return BudgetProgress{}, err
	}
	expense := TxExpense
	period := PeriodFor(now, b.Period)
	txs, err := m.store.ListTransactions(ctx, owner, TransactionFilter{
		CategoryID: &b.CategoryID,
		Type:       &expense,
		From:       &period.Start,
		To:         &period.End,
	})
	if err != nil {
		return BudgetProgress{}, err
	}
	return CalcBudgetProgress(b, txs, now), nil
}

// =============================================================================
// GOAL PROGRESS
// =============================================================================

type GoalStatus string

const (
	GoalActive   GoalStatus = "active"    // target date in the future
	GoalDueToday GoalStatus = "due_today" // target date is today
	GoalExpired  GoalStatus = "expired"   // target date passed
)

// GoalProgress is the derived completion state of a savings goal.
type GoalProgress struct {
	GoalID        GoalID
	Pct           int // min(round(current/target*100), 100)
	RemainingDays int // ceil(targetDate - now), negative when expired
	Status        GoalStatus
}

// CalcGoalProgress derives the goal's completion percentage and countdown.
func CalcGoalProgress(g Goal, now time.Time) GoalProgress {
	p := GoalProgress{GoalID: g.ID}

	if g.TargetAmount.IsPositive() {
		pct := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
		if pct > 100 {
			pct = 100
		}
		if pct < 0 {
			pct = 0
		}
		p.Pct = int(pct)
	}

	p.RemainingDays = int(math.Ceil(g.TargetDate.Sub(now).Hours() / 24))
	switch {
	case p.RemainingDays < 0:
		p.Status = GoalExpired
	case p.RemainingDays == 0:
		p.Status = GoalDueToday
	default:
		p.Status = GoalActive
	}
	return p
}

// GoalProgress loads the goal and returns its derived completion state.
func (m *Manager) GoalProgress(ctx context.Context, owner OwnerID, id GoalID, now time.Time) (GoalProgress, error) {
	g, err := m.store.GetGoal(ctx, owner, id)
	if err != nil {
		return GoalProgress{}, err
	}
	return CalcGoalProgress(g, now), nil
}

// =============================================================================
// BILL STATUS
// =============================================================================

// EffectiveBillStatus returns the status a bill should show now: a pending
// bill past its due date is late.
func EffectiveBillStatus(b Bill, now time.Time) BillStatus {
	if b.Status == BillPending && b.DueDate.Before(now) {
		return BillLate
	}
	return b.Status
}

// ListBills returns the owner's bills with overdue pending bills flipped to
// late. The flip is persisted so the stored status catches up with reality.
func (m *Manager) ListBills(ctx context.Context, owner OwnerID, now time.Time) ([]Bill, error) {
	bills, err := m.store.ListBills(ctx, owner)
	if err != nil {
		return nil, err
	}
	for i, b := range bills {
		effective := EffectiveBillStatus(b, now)
		if effective == b.Status {
			continue
		}
		b.Status = effective
		if err := m.store.UpdateBill(ctx, owner, b); err != nil {
			return nil, err
		}
		bills[i] = b
	}
	return bills, nil
}
