package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         BIGSERIAL PRIMARY KEY,
	username   TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS transactions (
	id             BIGSERIAL PRIMARY KEY,
	user_id        BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	date           DATE NOT NULL,
	description    TEXT NOT NULL,
	amount         NUMERIC NOT NULL,
	category       TEXT NOT NULL DEFAULT '',
	subcategory    TEXT,
	type           TEXT NOT NULL,
	payment_method TEXT,
	is_recurring   BOOLEAN,
	frequency      TEXT,
	has_end_date   BOOLEAN,
	end_date       DATE,
	next_due_date  DATE,
	budget_month   INTEGER,
	budget_year    INTEGER,
	balance        NUMERIC,
	reference      TEXT,
	notes          TEXT,
	import_hash    TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS transactions_user_id_idx ON transactions (user_id);
CREATE UNIQUE INDEX IF NOT EXISTS transactions_import_hash_key ON transactions (import_hash) WHERE import_hash IS NOT NULL;`

const userColumns = `id, username, password, name, email, created_at`

const transactionColumns = `id, user_id, date, description, amount, category, subcategory, type,
	payment_method, is_recurring, frequency, has_end_date, end_date, next_due_date,
	budget_month, budget_year, balance, reference, notes, import_hash, created_at, updated_at`

const insertTransaction = `
	INSERT INTO transactions (user_id, date, description, amount, category, subcategory, type,
		payment_method, is_recurring, frequency, has_end_date, end_date, next_due_date,
		budget_month, budget_year, balance, reference, notes, import_hash, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, CURRENT_TIMESTAMP)
	RETURNING ` + transactionColumns

// PostgresStorage provides database operations on PostgreSQL
type PostgresStorage struct {
	db *sql.DB
}

var _ Storage = (*PostgresStorage)(nil)

// NewPostgresStorage initializes a storage on an open database
func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// Migrate creates the tables when they do not exist yet
func (r *PostgresStorage) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// CreateUser creates a new user in the database
func (r *PostgresStorage) CreateUser(ctx context.Context, in models.UserInput) (*models.User, error) {
	query := `
		INSERT INTO users (username, password, name, email, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query, in.Username, in.Password, in.Name, in.Email))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *PostgresStorage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return r.findUser(ctx, "id = $1", id)
}

// GetUserByUsername retrieves a user by username
func (r *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findUser(ctx, "username = $1", username)
}

// GetUserByEmail retrieves a user by email
func (r *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, "email = $1", email)
}

func (r *PostgresStorage) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()
	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *PostgresStorage) findUser(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateTransaction creates a new transaction in the database
func (r *PostgresStorage) CreateTransaction(ctx context.Context, in models.TransactionInput) (*models.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, insertTransaction, insertArgs(in)...))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return t, nil
}

// CreateManyTransactions inserts all inputs in a single database transaction
func (r *PostgresStorage) CreateManyTransactions(ctx context.Context, ins []models.TransactionInput) ([]models.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertTransaction)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	out := make([]models.Transaction, 0, len(ins))
	for i, in := range ins {
		t, err := scanTransaction(stmt.QueryRowContext(ctx, insertArgs(in)...))
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrConflict
			}
			return nil, fmt.Errorf("failed to insert transaction %d: %w", i, err)
		}
		out = append(out, *t)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}
	return out, nil
}

func (r *PostgresStorage) GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return t, nil
}

func (r *PostgresStorage) GetTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	return r.queryTransactions(ctx, "user_id = $1", userID)
}

// UpdateTransaction locks the row, merges patch onto it and writes it back
func (r *PostgresStorage) UpdateTransaction(ctx context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`
	t, err := scanTransaction(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}

	patch.Apply(t)
	update := `
		UPDATE transactions SET date = $2, description = $3, amount = $4, category = $5,
			subcategory = $6, type = $7, payment_method = $8, is_recurring = $9, frequency = $10,
			has_end_date = $11, end_date = $12, next_due_date = $13, budget_month = $14,
			budget_year = $15, balance = $16, reference = $17, notes = $18,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + transactionColumns
	updated, err := scanTransaction(tx.QueryRowContext(ctx, update,
		t.ID, t.Date, t.Description, t.Amount, t.Category, t.Subcategory, t.Type,
		t.PaymentMethod, t.IsRecurring, t.Frequency, t.HasEndDate, t.EndDate, t.NextDueDate,
		t.BudgetMonth, t.BudgetYear, t.Balance, t.Reference, t.Notes))
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}
	return updated, nil
}

func (r *PostgresStorage) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresStorage) GetTransactionsByDateRange(ctx context.Context, userID int64, start, end time.Time) ([]models.Transaction, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if start = truncateDate(start); !start.IsZero() {
		args = append(args, start.Format(models.DateLayout))
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if end = truncateDate(end); !end.IsZero() {
		args = append(args, end.Format(models.DateLayout))
		where = append(where, fmt.Sprintf("date <= $%d", len(args)))
	}
	return r.queryTransactions(ctx, strings.Join(where, " AND "), args...)
}

func (r *PostgresStorage) GetTransactionsByCategory(ctx context.Context, userID int64, category string) ([]models.Transaction, error) {
	return r.queryTransactions(ctx, "user_id = $1 AND category = $2", userID, category)
}

func (r *PostgresStorage) GetTransactionsByBudgetMonth(ctx context.Context, userID int64, month, year int) ([]models.Transaction, error) {
	return r.queryTransactions(ctx, "user_id = $1 AND budget_month = $2 AND budget_year = $3", userID, month, year)
}

func (r *PostgresStorage) GetTransactionByImportHash(ctx context.Context, hash string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE import_hash = $1 ORDER BY id LIMIT 1`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction by import hash: %w", err)
	}
	return t, nil
}

func (r *PostgresStorage) queryTransactions(ctx context.Context, where string, args ...any) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where + ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()
	out := make([]models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Name, &u.Email, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var (
		t                                              models.Transaction
		date                                           time.Time
		amount                                         string
		subcategory, paymentMethod, frequency, balance sql.NullString
		reference, notes, importHash                   sql.NullString
		isRecurring, hasEndDate                        sql.NullBool
		endDate, nextDueDate, updatedAt                sql.NullTime
		budgetMonth, budgetYear                        sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.UserID, &date, &t.Description, &amount, &t.Category, &subcategory, &t.Type,
		&paymentMethod, &isRecurring, &frequency, &hasEndDate, &endDate, &nextDueDate,
		&budgetMonth, &budgetYear, &balance, &reference, &notes, &importHash, &t.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.Date = date.Format(models.DateLayout)
	t.Amount = models.DecimalString(amount)
	t.Subcategory = nullString(subcategory)
	t.PaymentMethod = nullString(paymentMethod)
	t.Frequency = nullString(frequency)
	t.Reference = nullString(reference)
	t.Notes = nullString(notes)
	t.ImportHash = nullString(importHash)
	if balance.Valid {
		b := models.DecimalString(balance.String)
		t.Balance = &b
	}
	if isRecurring.Valid {
		t.IsRecurring = &isRecurring.Bool
	}
	if hasEndDate.Valid {
		t.HasEndDate = &hasEndDate.Bool
	}
	t.EndDate = nullDate(endDate)
	t.NextDueDate = nullDate(nextDueDate)
	t.BudgetMonth = nullInt(budgetMonth)
	t.BudgetYear = nullInt(budgetYear)
	if updatedAt.Valid {
		t.UpdatedAt = &updatedAt.Time
	}
	return &t, nil
}

func insertArgs(in models.TransactionInput) []any {
	return []any{
		in.UserID, in.Date, in.Description, in.Amount, in.Category, in.Subcategory, in.Type,
		in.PaymentMethod, in.IsRecurring, in.Frequency, in.HasEndDate, in.EndDate, in.NextDueDate,
		in.BudgetMonth, in.BudgetYear, in.Balance, in.Reference, in.Notes, in.ImportHash,
	}
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullDate(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.Format(models.DateLayout)
	return &s
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
