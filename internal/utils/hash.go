package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ImportHash derives a stable deduplication key for an externally sourced transaction
func ImportHash(date, description, amount, reference string) string {
	h := sha256.New()
	data := strings.Join([]string{
		strings.TrimSpace(date),
		strings.TrimSpace(description),
		strings.TrimSpace(amount),
		strings.TrimSpace(reference),
	}, "|")
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
