package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/repository"
)

// ImportTransactions inserts a batch for the principal with at-most-once
// semantics per import hash. Any invalid record rejects the whole batch.
func (s *Service) ImportTransactions(ctx context.Context, p models.Principal, ins []models.TransactionInput) (models.ImportResult, error) {
	var result models.ImportResult

	for i, in := range ins {
		if err := in.Validate(); err != nil {
			s.log.Debugf("Import record %d rejected: %v", i, err)
			return result, fmt.Errorf("%w: record %d: %v", ErrInvalidImport, i, err)
		}
	}

	s.importMu.Lock()
	defer s.importMu.Unlock()

	seen := make(map[string]struct{}, len(ins))
	pending := make([]models.TransactionInput, 0, len(ins))
	for _, in := range ins {
		if in.ImportHash != nil && *in.ImportHash != "" {
			hash := *in.ImportHash
			if _, dup := seen[hash]; dup {
				result.Skipped++
				continue
			}
			seen[hash] = struct{}{}

			existing, err := s.store.GetTransactionByImportHash(ctx, hash)
			if err != nil {
				return models.ImportResult{}, fmt.Errorf("failed to check import hash: %w", err)
			}
			if existing != nil {
				result.Skipped++
				continue
			}
		}
		in.UserID = p.ID
		pending = append(pending, in.Normalize())
	}

	if len(pending) > 0 {
		created, err := s.store.CreateManyTransactions(ctx, pending)
		if errors.Is(err, repository.ErrConflict) {
			return models.ImportResult{}, ErrDuplicateImport
		}
		if err != nil {
			return models.ImportResult{}, fmt.Errorf("failed to import transactions: %w", err)
		}
		result.Imported = len(created)
	}

	s.log.Infof("Import for user %d: %d imported, %d skipped", p.ID, result.Imported, result.Skipped)
	return result, nil
}
