package models

import (
	"encoding/json"
	"strings"
)

// Optional records whether a JSON field was present and, if so, its value.
// A present null leaves Set true and Value nil.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a present, non-null Optional
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a present, explicitly null Optional
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if strings.TrimSpace(string(b)) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// TransactionPatch is a partial update; only fields with Set are applied
type TransactionPatch struct {
	Date          Optional[string]        `json:"date"`
	Description   Optional[string]        `json:"description"`
	Amount        Optional[DecimalString] `json:"amount"`
	Category      Optional[string]        `json:"category"`
	Subcategory   Optional[string]        `json:"subcategory"`
	Type          Optional[string]        `json:"type"`
	PaymentMethod Optional[string]        `json:"paymentMethod"`
	IsRecurring   Optional[bool]          `json:"isRecurring"`
	Frequency     Optional[string]        `json:"frequency"`
	HasEndDate    Optional[bool]          `json:"hasEndDate"`
	EndDate       Optional[string]        `json:"endDate"`
	NextDueDate   Optional[string]        `json:"nextDueDate"`
	BudgetMonth   Optional[int]           `json:"budgetMonth"`
	BudgetYear    Optional[int]           `json:"budgetYear"`
	Balance       Optional[DecimalString] `json:"balance"`
	Reference     Optional[string]        `json:"reference"`
	Notes         Optional[string]        `json:"notes"`
}

// Validate applies the creation rules to every present field.
// Explicit null is rejected for fields a transaction cannot go without.
func (p TransactionPatch) Validate() error {
	if p.Description.Set && (p.Description.Value == nil || strings.TrimSpace(*p.Description.Value) == "") {
		return NewValidationError("description is required")
	}
	if p.Date.Set && (p.Date.Value == nil || !validDate(*p.Date.Value)) {
		return NewValidationError("invalid date format")
	}
	if p.Amount.Set && (p.Amount.Value == nil || !validDecimal(*p.Amount.Value)) {
		return NewValidationError("invalid amount")
	}
	if p.Type.Set && (p.Type.Value == nil || !validType(*p.Type.Value)) {
		return NewValidationError("invalid transaction type")
	}
	if p.Category.Set && p.Category.Value == nil {
		return NewValidationError("category cannot be null")
	}
	if p.EndDate.Value != nil && !validDate(*p.EndDate.Value) {
		return NewValidationError("invalid date format")
	}
	if p.NextDueDate.Value != nil && !validDate(*p.NextDueDate.Value) {
		return NewValidationError("invalid date format")
	}
	if p.BudgetMonth.Value != nil && !validBudgetMonth(*p.BudgetMonth.Value) {
		return NewValidationError("invalid budget month")
	}
	if p.Balance.Value != nil && !validDecimal(*p.Balance.Value) {
		return NewValidationError("invalid balance")
	}
	if p.Frequency.Value != nil && !ValidFrequency(*p.Frequency.Value) {
		return NewValidationError("invalid frequency")
	}
	return nil
}

// Apply merges the patch onto t. Fields that are not Set are left untouched,
// except nextDueDate which is filled in when the patch makes t recurring.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Date.Set && p.Date.Value != nil {
		t.Date = normalizeDate(*p.Date.Value)
	}
	if p.Description.Set && p.Description.Value != nil {
		t.Description = strings.TrimSpace(*p.Description.Value)
	}
	if p.Amount.Set && p.Amount.Value != nil {
		t.Amount = *p.Amount.Value
	}
	if p.Category.Set && p.Category.Value != nil {
		t.Category = *p.Category.Value
	}
	if p.Type.Set && p.Type.Value != nil {
		t.Type = *p.Type.Value
	}
	applyPtr(&t.Subcategory, p.Subcategory)
	applyPtr(&t.PaymentMethod, p.PaymentMethod)
	applyPtr(&t.IsRecurring, p.IsRecurring)
	applyPtr(&t.Frequency, p.Frequency)
	applyPtr(&t.HasEndDate, p.HasEndDate)
	applyPtr(&t.BudgetMonth, p.BudgetMonth)
	applyPtr(&t.BudgetYear, p.BudgetYear)
	applyPtr(&t.Balance, p.Balance)
	applyPtr(&t.Reference, p.Reference)
	applyPtr(&t.Notes, p.Notes)
	if p.EndDate.Set {
		t.EndDate = normalizeDatePtr(p.EndDate.Value)
	}
	if p.NextDueDate.Set {
		t.NextDueDate = normalizeDatePtr(p.NextDueDate.Value)
	}
	// A record that becomes recurring gets its first due date like a new one.
	// An explicit null nextDueDate is kept.
	if t.NextDueDate == nil && !p.NextDueDate.Set && (p.IsRecurring.Set || p.Frequency.Set) {
		t.NextDueDate = scheduledDueDate(t.Date, t.IsRecurring, t.Frequency)
	}
}

func applyPtr[T any](dst **T, o Optional[T]) {
	if !o.Set {
		return
	}
	if o.Value == nil {
		*dst = nil
		return
	}
	v := *o.Value
	*dst = &v
}
