package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/sirupsen/logrus"
)

// CreateTransaction validates the input and stores it for the principal
func (s *Service) CreateTransaction(ctx context.Context, p models.Principal, in models.TransactionInput) (*models.Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in.UserID = p.ID
	t, err := s.store.CreateTransaction(ctx, in.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": p.ID, "transaction_id": t.ID}).Info("Transaction created")
	return t, nil
}

// GetTransaction returns a transaction owned by the principal
func (s *Service) GetTransaction(ctx context.Context, p models.Principal, id int64) (*models.Transaction, error) {
	t, err := s.store.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	if t.UserID != p.ID {
		s.log.Warnf("User %d attempted to access transaction %d owned by %d", p.ID, id, t.UserID)
		return nil, ErrNotAuthorized
	}
	return t, nil
}

// UpdateTransaction applies a partial update to a transaction owned by the principal
func (s *Service) UpdateTransaction(ctx context.Context, p models.Principal, id int64, patch models.TransactionPatch) (*models.Transaction, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetTransaction(ctx, p, id); err != nil {
		return nil, err
	}
	t, err := s.store.UpdateTransaction(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	s.log.Infof("Transaction %d updated by user %d", id, p.ID)
	return t, nil
}

// DeleteTransaction removes a transaction owned by the principal
func (s *Service) DeleteTransaction(ctx context.Context, p models.Principal, id int64) error {
	if _, err := s.GetTransaction(ctx, p, id); err != nil {
		return err
	}
	deleted, err := s.store.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if !deleted {
		return ErrTransactionNotFound
	}
	s.log.Infof("Transaction %d deleted by user %d", id, p.ID)
	return nil
}

// ListTransactions returns the principal's transactions narrowed by filter
func (s *Service) ListTransactions(ctx context.Context, p models.Principal, filter models.TransactionFilter) ([]models.Transaction, error) {
	var (
		txs []models.Transaction
		err error
	)
	switch {
	case filter.HasDateRange():
		var start, end time.Time
		if filter.StartDate != nil {
			start = *filter.StartDate
		}
		if filter.EndDate != nil {
			end = *filter.EndDate
		}
		txs, err = s.store.GetTransactionsByDateRange(ctx, p.ID, start, end)
	case filter.HasBudgetPeriod():
		txs, err = s.store.GetTransactionsByBudgetMonth(ctx, p.ID, *filter.BudgetMonth, *filter.BudgetYear)
	case filter.Category != nil:
		txs, err = s.store.GetTransactionsByCategory(ctx, p.ID, *filter.Category)
	default:
		txs, err = s.store.GetTransactions(ctx, p.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// Summary totals the principal's transactions selected by filter
func (s *Service) Summary(ctx context.Context, p models.Principal, filter models.TransactionFilter) (models.IncomeExpenseStats, error) {
	txs, err := s.ListTransactions(ctx, p, filter)
	if err != nil {
		return models.IncomeExpenseStats{}, err
	}
	return models.Summarize(txs), nil
}
