package models

import "github.com/shopspring/decimal"

// IncomeExpenseStats represents income and expense totals over a set of transactions
type IncomeExpenseStats struct {
	Income     string `json:"income"`
	Expense    string `json:"expense"`
	NetBalance string `json:"netBalance"`
	Count      int    `json:"count"`
}

// Summarize totals income and expense amounts. Signs are ignored; the
// transaction type decides the side. Unparseable amounts are skipped.
func Summarize(txs []Transaction) IncomeExpenseStats {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txs {
		amount, err := t.Amount.Decimal()
		if err != nil {
			continue
		}
		switch t.Type {
		case TypeIncome:
			income = income.Add(amount.Abs())
		case TypeExpense:
			expense = expense.Add(amount.Abs())
		}
	}
	return IncomeExpenseStats{
		Income:     income.StringFixed(2),
		Expense:    expense.StringFixed(2),
		NetBalance: income.Sub(expense).StringFixed(2),
		Count:      len(txs),
	}
}
