package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
)

// ErrConflict is returned when a backend rejects a write that breaks a uniqueness constraint
var ErrConflict = errors.New("unique constraint violated")

// Storage is the persistence contract for users and transactions.
//
// Lookups return a nil record and a nil error when nothing matches. A non-nil
// error always means the backend itself failed.
type Storage interface {
	CreateUser(ctx context.Context, in models.UserInput) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	CreateTransaction(ctx context.Context, in models.TransactionInput) (*models.Transaction, error)
	// CreateManyTransactions returns the records in the order they were given
	CreateManyTransactions(ctx context.Context, ins []models.TransactionInput) ([]models.Transaction, error)
	// GetTransactionByID does not check ownership
	GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error)
	GetTransactions(ctx context.Context, userID int64) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) (bool, error)
	// GetTransactionsByDateRange is inclusive on both ends; a zero bound is open
	GetTransactionsByDateRange(ctx context.Context, userID int64, start, end time.Time) ([]models.Transaction, error)
	GetTransactionsByCategory(ctx context.Context, userID int64, category string) ([]models.Transaction, error)
	GetTransactionsByBudgetMonth(ctx context.Context, userID int64, month, year int) ([]models.Transaction, error)
	// GetTransactionByImportHash searches across all users
	GetTransactionByImportHash(ctx context.Context, hash string) (*models.Transaction, error)
}

// truncateDate drops the clock part so range bounds compare by calendar day
func truncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
