package models

import "time"

// TransactionFilter selects which storage query a listing uses.
// Precedence: date range, then budget period, then category.
type TransactionFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	BudgetMonth *int
	BudgetYear  *int
	Category    *string
}

func (f TransactionFilter) HasDateRange() bool {
	return f.StartDate != nil || f.EndDate != nil
}

func (f TransactionFilter) HasBudgetPeriod() bool {
	return f.BudgetMonth != nil && f.BudgetYear != nil
}
