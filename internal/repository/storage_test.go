package repository

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func txInput(userID int64, date, description string) models.TransactionInput {
	return models.TransactionInput{
		UserID:      userID,
		Date:        date,
		Description: description,
		Amount:      "12.50",
		Category:    "Food",
		Type:        models.TypeExpense,
	}
}

// withoutTimes zeroes timestamps so records from different backends compare by content
func withoutTimes(t models.Transaction) models.Transaction {
	t.CreatedAt = time.Time{}
	t.UpdatedAt = nil
	return t
}

func sameUser(t *testing.T, got *models.User, want *models.User) {
	t.Helper()
	if got == nil {
		t.Fatalf("got nil user, want %+v", want)
	}
	if got.ID != want.ID || got.Username != want.Username || got.Email != want.Email ||
		got.Name != want.Name || got.Password != want.Password || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("user = %+v, want %+v", got, want)
	}
}

func ids(txs []models.Transaction) []int64 {
	out := make([]int64, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}

// runStorageSuite exercises the Storage contract against a fresh store per subtest
func runStorageSuite(t *testing.T, newStore func(t *testing.T) Storage) {
	ctx := context.Background()

	newUser := func(t *testing.T, s Storage, name string) *models.User {
		t.Helper()
		u, err := s.CreateUser(ctx, models.UserInput{
			Username: name, Password: "password123", Name: "Test User", Email: name + "@example.com",
		})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		return u
	}

	t.Run("users", func(t *testing.T) {
		s := newStore(t)
		u, err := s.CreateUser(ctx, models.UserInput{
			Username: "testuser", Password: "password123", Name: "Test User", Email: "test@example.com",
		})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if u.ID <= 0 {
			t.Errorf("ID = %d, want positive", u.ID)
		}
		if u.CreatedAt.IsZero() {
			t.Error("CreatedAt not set")
		}

		byID, err := s.GetUser(ctx, u.ID)
		if err != nil {
			t.Fatal(err)
		}
		sameUser(t, byID, u)
		byName, err := s.GetUserByUsername(ctx, "testuser")
		if err != nil {
			t.Fatal(err)
		}
		sameUser(t, byName, u)
		byEmail, err := s.GetUserByEmail(ctx, "test@example.com")
		if err != nil {
			t.Fatal(err)
		}
		sameUser(t, byEmail, u)

		other := newUser(t, s, "other")
		if other.ID <= u.ID {
			t.Errorf("second user id %d not greater than %d", other.ID, u.ID)
		}
		users, err := s.ListUsers(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(users) != 2 || users[0].ID != u.ID || users[1].ID != other.ID {
			t.Errorf("ListUsers = %+v", users)
		}
	})

	t.Run("duplicate username or email conflicts", func(t *testing.T) {
		s := newStore(t)
		newUser(t, s, "ivy")
		for _, in := range []models.UserInput{
			{Username: "ivy", Password: "x", Name: "Other", Email: "other@example.com"},
			{Username: "other", Password: "x", Name: "Other", Email: "ivy@example.com"},
		} {
			if _, err := s.CreateUser(ctx, in); !errors.Is(err, ErrConflict) {
				t.Errorf("CreateUser(%s, %s) error = %v, want ErrConflict", in.Username, in.Email, err)
			}
		}
		users, err := s.ListUsers(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(users) != 1 {
			t.Errorf("ListUsers = %d users, want 1", len(users))
		}
	})

	t.Run("concurrent registrations keep usernames unique", func(t *testing.T) {
		s := newStore(t)
		const workers = 20
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			created   int
			conflicts int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.CreateUser(ctx, models.UserInput{Username: "race", Password: "x", Name: "Race", Email: "race@example.com"})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					created++
				case errors.Is(err, ErrConflict):
					conflicts++
				default:
					t.Errorf("CreateUser: %v", err)
				}
			}()
		}
		wg.Wait()
		if created != 1 || conflicts != workers-1 {
			t.Errorf("created %d, conflicts %d; want 1 and %d", created, conflicts, workers-1)
		}
	})

	t.Run("absent records are not errors", func(t *testing.T) {
		s := newStore(t)
		if u, err := s.GetUser(ctx, 999); u != nil || err != nil {
			t.Errorf("GetUser(999) = %v, %v", u, err)
		}
		if u, err := s.GetUserByUsername(ctx, "nobody"); u != nil || err != nil {
			t.Errorf("GetUserByUsername = %v, %v", u, err)
		}
		if u, err := s.GetUserByEmail(ctx, "nobody@example.com"); u != nil || err != nil {
			t.Errorf("GetUserByEmail = %v, %v", u, err)
		}
		if tx, err := s.GetTransactionByID(ctx, 999); tx != nil || err != nil {
			t.Errorf("GetTransactionByID(999) = %v, %v", tx, err)
		}
		if tx, err := s.UpdateTransaction(ctx, 999, models.TransactionPatch{Description: models.Some("X")}); tx != nil || err != nil {
			t.Errorf("UpdateTransaction(999) = %v, %v", tx, err)
		}
		if ok, err := s.DeleteTransaction(ctx, 999); ok || err != nil {
			t.Errorf("DeleteTransaction(999) = %v, %v", ok, err)
		}
		if tx, err := s.GetTransactionByImportHash(ctx, "missing"); tx != nil || err != nil {
			t.Errorf("GetTransactionByImportHash = %v, %v", tx, err)
		}
		txs, err := s.GetTransactions(ctx, 999)
		if err != nil || len(txs) != 0 {
			t.Errorf("GetTransactions(999) = %v, %v", txs, err)
		}
	})

	t.Run("create and fetch transaction", func(t *testing.T) {
		s := newStore(t)
		u := newUser(t, s, "alice")
		in := txInput(u.ID, "2023-02-15", "Groceries")
		in.Subcategory = strPtr("Supermarket")
		in.BudgetMonth, in.BudgetYear = intPtr(2), intPtr(2023)

		created, err := s.CreateTransaction(ctx, in)
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
		if created.ID <= 0 || created.CreatedAt.IsZero() || created.UpdatedAt != nil {
			t.Errorf("created = %+v", created)
		}
		got, err := s.GetTransactionByID(ctx, created.ID)
		if err != nil || got == nil {
			t.Fatalf("GetTransactionByID = %v, %v", got, err)
		}
		if !reflect.DeepEqual(withoutTimes(*got), withoutTimes(*created)) {
			t.Errorf("fetched %+v, want %+v", got, created)
		}
		if got.UserID != u.ID || *got.Subcategory != "Supermarket" {
			t.Errorf("fetched %+v", got)
		}
	})

	t.Run("batch insert preserves order", func(t *testing.T) {
		s := newStore(t)
		u := newUser(t, s, "bob")
		out, err := s.CreateManyTransactions(ctx, []models.TransactionInput{
			txInput(u.ID, "2023-01-01", "A"),
			txInput(u.ID, "2023-01-02", "B"),
			txInput(u.ID, "2023-01-03", "C"),
		})
		if err != nil {
			t.Fatalf("CreateManyTransactions: %v", err)
		}
		if len(out) != 3 {
			t.Fatalf("got %d records", len(out))
		}
		for i, want := range []string{"A", "B", "C"} {
			if out[i].Description != want {
				t.Errorf("out[%d].Description = %q, want %q", i, out[i].Description, want)
			}
		}
		if !(out[0].ID < out[1].ID && out[1].ID < out[2].ID) {
			t.Errorf("ids not increasing: %v", ids(out))
		}
		empty, err := s.CreateManyTransactions(ctx, nil)
		if err != nil || len(empty) != 0 {
			t.Errorf("CreateManyTransactions(nil) = %v, %v", empty, err)
		}
	})

	t.Run("partial update", func(t *testing.T) {
		s := newStore(t)
		u := newUser(t, s, "carol")
		in := txInput(u.ID, "2023-03-01", "Rent")
		in.Notes = strPtr("March")
		in.Reference = strPtr("REF-9")
		created, err := s.CreateTransaction(ctx, in)
		if err != nil {
			t.Fatal(err)
		}

		updated, err := s.UpdateTransaction(ctx, created.ID, models.TransactionPatch{Description: models.Some("X")})
		if err != nil || updated == nil {
			t.Fatalf("UpdateTransaction = %v, %v", updated, err)
		}
		if updated.UpdatedAt == nil {
			t.Error("UpdatedAt not refreshed")
		}

		got, err := s.GetTransactionByID(ctx, created.ID)
		if err != nil || got == nil {
			t.Fatalf("GetTransactionByID = %v, %v", got, err)
		}
		if got.Description != "X" {
			t.Errorf("Description = %q, want X", got.Description)
		}
		want := withoutTimes(*created)
		want.Description = "X"
		if !reflect.DeepEqual(withoutTimes(*got), want) {
			t.Errorf("after update %+v, want %+v", withoutTimes(*got), want)
		}

		cleared, err := s.UpdateTransaction(ctx, created.ID, models.TransactionPatch{Notes: models.Null[string]()})
		if err != nil {
			t.Fatal(err)
		}
		if cleared.Notes != nil || cleared.Reference == nil || *cleared.Reference != "REF-9" {
			t.Errorf("after clearing notes %+v", cleared)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		u := newUser(t, s, "dave")
		created, err := s.CreateTransaction(ctx, txInput(u.ID, "2023-01-01", "Gone"))
		if err != nil {
			t.Fatal(err)
		}
		if ok, err := s.DeleteTransaction(ctx, created.ID); !ok || err != nil {
			t.Fatalf("DeleteTransaction = %v, %v", ok, err)
		}
		if ok, _ := s.DeleteTransaction(ctx, created.ID); ok {
			t.Error("second delete reported success")
		}
		if got, _ := s.GetTransactionByID(ctx, created.ID); got != nil {
			t.Errorf("deleted record still found: %+v", got)
		}
	})

	t.Run("filters", func(t *testing.T) {
		s := newStore(t)
		u := newUser(t, s, "erin")
		other := newUser(t, s, "frank")

		jan := txInput(u.ID, "2023-01-01", "January")
		jan.Category = "food"
		feb := txInput(u.ID, "2023-02-15", "February")
		feb.BudgetMonth, feb.BudgetYear = intPtr(2), intPtr(2023)
		mar := txInput(u.ID, "2023-03-20", "March")
		mar.BudgetMonth, mar.BudgetYear = intPtr(2), intPtr(2024)
		foreign := txInput(other.ID, "2023-02-15", "Foreign")
		foreign.BudgetMonth, foreign.BudgetYear = intPtr(2), intPtr(2023)
		created, err := s.CreateManyTransactions(ctx, []models.TransactionInput{jan, feb, mar, foreign})
		if err != nil {
			t.Fatal(err)
		}

		start := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
		end := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
		inRange, err := s.GetTransactionsByDateRange(ctx, u.ID, start, end)
		if err != nil {
			t.Fatal(err)
		}
		if len(inRange) != 1 || inRange[0].ID != created[1].ID {
			t.Errorf("date range = %v, want [%d]", ids(inRange), created[1].ID)
		}

		inclusive, _ := s.GetTransactionsByDateRange(ctx, u.ID,
			time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 3, 20, 0, 0, 0, 0, time.UTC))
		if len(inclusive) != 3 {
			t.Errorf("inclusive range = %v, want 3 records", ids(inclusive))
		}
		openEnded, _ := s.GetTransactionsByDateRange(ctx, u.ID, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), time.Time{})
		if len(openEnded) != 2 {
			t.Errorf("open ended range = %v, want 2 records", ids(openEnded))
		}

		food, _ := s.GetTransactionsByCategory(ctx, u.ID, "Food")
		if len(food) != 2 {
			t.Errorf("category Food = %v, want feb and mar", ids(food))
		}
		lower, _ := s.GetTransactionsByCategory(ctx, u.ID, "food")
		if len(lower) != 1 || lower[0].ID != created[0].ID {
			t.Errorf("category food = %v, want [%d]", ids(lower), created[0].ID)
		}

		budget, _ := s.GetTransactionsByBudgetMonth(ctx, u.ID, 2, 2023)
		if len(budget) != 1 || budget[0].ID != created[1].ID {
			t.Errorf("budget 2/2023 = %v, want [%d]", ids(budget), created[1].ID)
		}

		all, _ := s.GetTransactions(ctx, u.ID)
		if len(all) != 3 {
			t.Errorf("GetTransactions = %v, want 3 records", ids(all))
		}
	})

	t.Run("import hash lookup is global", func(t *testing.T) {
		s := newStore(t)
		newUser(t, s, "gina")
		other := newUser(t, s, "hank")
		in := txInput(other.ID, "2023-01-01", "Imported")
		in.ImportHash = strPtr("abc123")
		created, err := s.CreateTransaction(ctx, in)
		if err != nil {
			t.Fatal(err)
		}
		found, err := s.GetTransactionByImportHash(ctx, "abc123")
		if err != nil || found == nil || found.ID != created.ID {
			t.Errorf("GetTransactionByImportHash = %+v, %v", found, err)
		}
	})

	t.Run("import hash is stored at most once", func(t *testing.T) {
		s := newStore(t)
		u := newUser(t, s, "jill")
		first := txInput(u.ID, "2023-01-01", "First")
		first.ImportHash = strPtr("dup")
		if _, err := s.CreateTransaction(ctx, first); err != nil {
			t.Fatal(err)
		}

		again := txInput(u.ID, "2023-01-02", "Again")
		again.ImportHash = strPtr("dup")
		if _, err := s.CreateTransaction(ctx, again); !errors.Is(err, ErrConflict) {
			t.Errorf("CreateTransaction error = %v, want ErrConflict", err)
		}

		fresh := txInput(u.ID, "2023-01-03", "Fresh")
		fresh.ImportHash = strPtr("fresh")
		plain := txInput(u.ID, "2023-01-04", "No hash")
		if _, err := s.CreateManyTransactions(ctx, []models.TransactionInput{fresh, plain, again}); !errors.Is(err, ErrConflict) {
			t.Errorf("CreateManyTransactions error = %v, want ErrConflict", err)
		}
		all, err := s.GetTransactions(ctx, u.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 1 {
			t.Errorf("GetTransactions = %v, want only the first record", ids(all))
		}
	})
}
