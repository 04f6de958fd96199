package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Dan9191/finance-tracker/internal/models"
)

// ErrMissingColumns is returned when the header lacks a required column
var ErrMissingColumns = errors.New("csv header must contain date, description, amount and type")

var requiredColumns = []string{"date", "description", "amount", "type"}

// ParseTransactionsCSV reads a headed CSV into transaction inputs.
// Column names are matched case-insensitively; unknown columns are ignored.
// Rows without an importHash get one derived from their content.
func ParseTransactionsCSV(r io.Reader) ([]models.TransactionInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		// Excel exports often start with a UTF-8 BOM
		name = strings.TrimPrefix(name, "\ufeff")
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, ErrMissingColumns
		}
	}

	var out []models.TransactionInput
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := index[strings.ToLower(col)]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		optional := func(col string) *string {
			if v := get(col); v != "" {
				return &v
			}
			return nil
		}

		in := models.TransactionInput{
			Date:          get("date"),
			Description:   get("description"),
			Amount:        models.DecimalString(get("amount")),
			Type:          strings.ToLower(get("type")),
			Category:      get("category"),
			Subcategory:   optional("subcategory"),
			PaymentMethod: optional("paymentMethod"),
			Reference:     optional("reference"),
			Notes:         optional("notes"),
			ImportHash:    optional("importHash"),
		}
		if b := optional("balance"); b != nil {
			balance := models.DecimalString(*b)
			in.Balance = &balance
		}
		if in.ImportHash == nil {
			hash := ImportHash(in.Date, in.Description, string(in.Amount), get("reference"))
			in.ImportHash = &hash
		}
		out = append(out, in)
	}
	return out, nil
}
