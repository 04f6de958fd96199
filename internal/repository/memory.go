package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
)

// MemStorage keeps users and transactions in process memory
type MemStorage struct {
	mu                sync.RWMutex
	users             map[int64]models.User
	transactions      map[int64]models.Transaction
	importHashes      map[string]int64
	nextUserID        int64
	nextTransactionID int64
	now               func() time.Time
}

var _ Storage = (*MemStorage)(nil)

// NewMemStorage initializes an empty in-memory store
func NewMemStorage() *MemStorage {
	return &MemStorage{
		users:        make(map[int64]models.User),
		transactions: make(map[int64]models.Transaction),
		importHashes: make(map[string]int64),
		now:          time.Now,
	}
}

// CreateUser stores a new user and assigns its id.
// A taken username or email yields ErrConflict.
func (s *MemStorage) CreateUser(_ context.Context, in models.UserInput) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == in.Username || u.Email == in.Email {
			return nil, ErrConflict
		}
	}
	s.nextUserID++
	user := models.User{
		ID:        s.nextUserID,
		Username:  in.Username,
		Password:  in.Password,
		Name:      in.Name,
		Email:     in.Email,
		CreatedAt: s.now(),
	}
	s.users[user.ID] = user
	return &user, nil
}

func (s *MemStorage) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (s *MemStorage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Username == username }), nil
}

func (s *MemStorage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email }), nil
}

// ListUsers returns every user ordered by id
func (s *MemStorage) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })
	return users, nil
}

func (s *MemStorage) findUser(match func(models.User) bool) *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return &u
		}
	}
	return nil
}

// CreateTransaction stores a transaction and assigns its id.
// An import hash that is already stored yields ErrConflict.
func (s *MemStorage) CreateTransaction(_ context.Context, in models.TransactionInput) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkImportHashesLocked([]models.TransactionInput{in}); err != nil {
		return nil, err
	}
	t := s.insertLocked(in)
	return &t, nil
}

// CreateManyTransactions inserts all inputs under one lock so ids are contiguous.
// Nothing is inserted when any import hash clashes.
func (s *MemStorage) CreateManyTransactions(_ context.Context, ins []models.TransactionInput) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkImportHashesLocked(ins); err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(ins))
	for _, in := range ins {
		out = append(out, s.insertLocked(in))
	}
	return out, nil
}

func (s *MemStorage) insertLocked(in models.TransactionInput) models.Transaction {
	s.nextTransactionID++
	t := models.NewTransaction(s.nextTransactionID, in, s.now())
	s.transactions[t.ID] = cloneTransaction(t)
	if t.ImportHash != nil {
		s.importHashes[*t.ImportHash] = t.ID
	}
	return t
}

func (s *MemStorage) checkImportHashesLocked(ins []models.TransactionInput) error {
	batch := make(map[string]struct{}, len(ins))
	for _, in := range ins {
		if in.ImportHash == nil {
			continue
		}
		if _, ok := s.importHashes[*in.ImportHash]; ok {
			return ErrConflict
		}
		if _, ok := batch[*in.ImportHash]; ok {
			return ErrConflict
		}
		batch[*in.ImportHash] = struct{}{}
	}
	return nil
}

func (s *MemStorage) GetTransactionByID(_ context.Context, id int64) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil, nil
	}
	t = cloneTransaction(t)
	return &t, nil
}

func (s *MemStorage) GetTransactions(_ context.Context, userID int64) ([]models.Transaction, error) {
	return s.filterTransactions(func(t models.Transaction) bool { return t.UserID == userID }), nil
}

// UpdateTransaction merges patch onto the stored record and refreshes UpdatedAt
func (s *MemStorage) UpdateTransaction(_ context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil, nil
	}
	t = cloneTransaction(t)
	patch.Apply(&t)
	now := s.now()
	t.UpdatedAt = &now
	s.transactions[id] = t
	out := cloneTransaction(t)
	return &out, nil
}

func (s *MemStorage) DeleteTransaction(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return false, nil
	}
	if t.ImportHash != nil {
		delete(s.importHashes, *t.ImportHash)
	}
	delete(s.transactions, id)
	return true, nil
}

func (s *MemStorage) GetTransactionsByDateRange(_ context.Context, userID int64, start, end time.Time) ([]models.Transaction, error) {
	start, end = truncateDate(start), truncateDate(end)
	return s.filterTransactions(func(t models.Transaction) bool {
		if t.UserID != userID {
			return false
		}
		d, err := t.ParsedDate()
		if err != nil {
			return false
		}
		if !start.IsZero() && d.Before(start) {
			return false
		}
		if !end.IsZero() && d.After(end) {
			return false
		}
		return true
	}), nil
}

func (s *MemStorage) GetTransactionsByCategory(_ context.Context, userID int64, category string) ([]models.Transaction, error) {
	return s.filterTransactions(func(t models.Transaction) bool {
		return t.UserID == userID && t.Category == category
	}), nil
}

func (s *MemStorage) GetTransactionsByBudgetMonth(_ context.Context, userID int64, month, year int) ([]models.Transaction, error) {
	return s.filterTransactions(func(t models.Transaction) bool {
		return t.UserID == userID &&
			t.BudgetMonth != nil && *t.BudgetMonth == month &&
			t.BudgetYear != nil && *t.BudgetYear == year
	}), nil
}

// GetTransactionByImportHash returns the transaction carrying hash, across all users
func (s *MemStorage) GetTransactionByImportHash(_ context.Context, hash string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.importHashes[hash]
	if !ok {
		return nil, nil
	}
	t := cloneTransaction(s.transactions[id])
	return &t, nil
}

// filterTransactions returns copies of matching records ordered by id
func (s *MemStorage) filterTransactions(match func(models.Transaction) bool) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Transaction, 0)
	for _, t := range s.transactions {
		if match(t) {
			out = append(out, cloneTransaction(t))
		}
	}
	slices.SortFunc(out, func(a, b models.Transaction) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// cloneTransaction copies pointer fields so stored records never alias caller memory
func cloneTransaction(t models.Transaction) models.Transaction {
	t.Subcategory = clonePtr(t.Subcategory)
	t.PaymentMethod = clonePtr(t.PaymentMethod)
	t.IsRecurring = clonePtr(t.IsRecurring)
	t.Frequency = clonePtr(t.Frequency)
	t.HasEndDate = clonePtr(t.HasEndDate)
	t.EndDate = clonePtr(t.EndDate)
	t.NextDueDate = clonePtr(t.NextDueDate)
	t.BudgetMonth = clonePtr(t.BudgetMonth)
	t.BudgetYear = clonePtr(t.BudgetYear)
	t.Balance = clonePtr(t.Balance)
	t.Reference = clonePtr(t.Reference)
	t.Notes = clonePtr(t.Notes)
	t.ImportHash = clonePtr(t.ImportHash)
	t.UpdatedAt = clonePtr(t.UpdatedAt)
	return t
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
