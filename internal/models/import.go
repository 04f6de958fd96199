package models

// ImportRequest is the body of a batch import
type ImportRequest struct {
	Transactions []TransactionInput `json:"transactions"`
}

// ImportResult reports the outcome of a batch import
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
