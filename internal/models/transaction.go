package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the storage and wire format of transaction dates
const DateLayout = "2006-01-02"

// Transaction types
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Transaction represents a single income or expense entry
type Transaction struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"-"` // owner, stripped from responses
	Date          string         `json:"date"`
	Description   string         `json:"description"`
	Amount        DecimalString  `json:"amount"`
	Category      string         `json:"category"`
	Subcategory   *string        `json:"subcategory"`
	Type          string         `json:"type"`
	PaymentMethod *string        `json:"paymentMethod"`
	IsRecurring   *bool          `json:"isRecurring"`
	Frequency     *string        `json:"frequency"`
	HasEndDate    *bool          `json:"hasEndDate"`
	EndDate       *string        `json:"endDate"`
	NextDueDate   *string        `json:"nextDueDate"`
	BudgetMonth   *int           `json:"budgetMonth"`
	BudgetYear    *int           `json:"budgetYear"`
	Balance       *DecimalString `json:"balance"`
	Reference     *string        `json:"reference"`
	Notes         *string        `json:"notes"`
	ImportHash    *string        `json:"importHash"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     *time.Time     `json:"updatedAt,omitempty"`
}

// TransactionInput holds the client supplied fields of a new transaction.
// UserID is filled from the authenticated principal.
type TransactionInput struct {
	UserID        int64          `json:"-"`
	Date          string         `json:"date"`
	Description   string         `json:"description"`
	Amount        DecimalString  `json:"amount"`
	Category      string         `json:"category"`
	Subcategory   *string        `json:"subcategory"`
	Type          string         `json:"type"`
	PaymentMethod *string        `json:"paymentMethod"`
	IsRecurring   *bool          `json:"isRecurring"`
	Frequency     *string        `json:"frequency"`
	HasEndDate    *bool          `json:"hasEndDate"`
	EndDate       *string        `json:"endDate"`
	NextDueDate   *string        `json:"nextDueDate"`
	BudgetMonth   *int           `json:"budgetMonth"`
	BudgetYear    *int           `json:"budgetYear"`
	Balance       *DecimalString `json:"balance"`
	Reference     *string        `json:"reference"`
	Notes         *string        `json:"notes"`
	ImportHash    *string        `json:"importHash"`
}

// DecimalString is a decimal number kept in its textual form.
// JSON numbers are accepted on input and always written back as strings.
type DecimalString string

func (d *DecimalString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		return nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = DecimalString(strings.TrimSpace(s))
	default:
		// Keep whatever was sent; Validate rejects non-numeric values with a field message.
		*d = DecimalString(raw)
	}
	return nil
}

// Decimal parses the value
func (d DecimalString) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(string(d))
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 and returns the UTC calendar date at midnight.
// Timestamps with an offset are converted to UTC before the day is taken.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func validDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

func validDecimal(d DecimalString) bool {
	_, err := d.Decimal()
	return err == nil
}

func validType(t string) bool {
	return t == TypeIncome || t == TypeExpense
}

func validBudgetMonth(m int) bool {
	return m >= 1 && m <= 12
}

// Validate checks the input and returns the first failing rule as a *ValidationError
func (in TransactionInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Description) == "":
		return NewValidationError("description is required")
	case !validDate(in.Date):
		return NewValidationError("invalid date format")
	case !validDecimal(in.Amount):
		return NewValidationError("invalid amount")
	case !validType(in.Type):
		return NewValidationError("invalid transaction type")
	}
	if in.EndDate != nil && !validDate(*in.EndDate) {
		return NewValidationError("invalid date format")
	}
	if in.NextDueDate != nil && !validDate(*in.NextDueDate) {
		return NewValidationError("invalid date format")
	}
	if in.BudgetMonth != nil && !validBudgetMonth(*in.BudgetMonth) {
		return NewValidationError("invalid budget month")
	}
	if in.Balance != nil && !validDecimal(*in.Balance) {
		return NewValidationError("invalid balance")
	}
	if in.Frequency != nil && !ValidFrequency(*in.Frequency) {
		return NewValidationError("invalid frequency")
	}
	return nil
}

// Normalize rewrites dates to DateLayout and fills a missing next due date
// for recurring entries. The input must already be valid.
func (in TransactionInput) Normalize() TransactionInput {
	out := in
	out.Description = strings.TrimSpace(in.Description)
	out.Date = normalizeDate(in.Date)
	out.EndDate = normalizeDatePtr(in.EndDate)
	out.NextDueDate = normalizeDatePtr(in.NextDueDate)
	if out.NextDueDate == nil {
		out.NextDueDate = scheduledDueDate(out.Date, out.IsRecurring, out.Frequency)
	}
	if out.ImportHash != nil && strings.TrimSpace(*out.ImportHash) == "" {
		out.ImportHash = nil
	}
	return out
}

// scheduledDueDate is the first due date after date for a recurring entry, or nil
func scheduledDueDate(date string, isRecurring *bool, frequency *string) *string {
	if isRecurring == nil || !*isRecurring || frequency == nil {
		return nil
	}
	start, err := ParseDate(date)
	if err != nil {
		return nil
	}
	next, ok := NextDueDate(start, *frequency)
	if !ok {
		return nil
	}
	s := next.Format(DateLayout)
	return &s
}

// NewTransaction builds the stored record for an input
func NewTransaction(id int64, in TransactionInput, now time.Time) Transaction {
	return Transaction{
		ID:            id,
		UserID:        in.UserID,
		Date:          in.Date,
		Description:   in.Description,
		Amount:        in.Amount,
		Category:      in.Category,
		Subcategory:   in.Subcategory,
		Type:          in.Type,
		PaymentMethod: in.PaymentMethod,
		IsRecurring:   in.IsRecurring,
		Frequency:     in.Frequency,
		HasEndDate:    in.HasEndDate,
		EndDate:       in.EndDate,
		NextDueDate:   in.NextDueDate,
		BudgetMonth:   in.BudgetMonth,
		BudgetYear:    in.BudgetYear,
		Balance:       in.Balance,
		Reference:     in.Reference,
		Notes:         in.Notes,
		ImportHash:    in.ImportHash,
		CreatedAt:     now,
	}
}

// ParsedDate returns the transaction date as time.Time
func (t Transaction) ParsedDate() (time.Time, error) {
	return ParseDate(t.Date)
}

func normalizeDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format(DateLayout)
}

func normalizeDatePtr(s *string) *string {
	if s == nil {
		return nil
	}
	n := normalizeDate(*s)
	return &n
}
