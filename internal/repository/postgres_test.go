package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/Dan9191/finance-tracker/internal/models"
	_ "github.com/lib/pq"
)

// TestPostgresStorage runs the storage contract against a real database.
// Set TEST_DB_CONN to a disposable database to enable it.
func TestPostgresStorage(t *testing.T) {
	dsn := os.Getenv("TEST_DB_CONN")
	if dsn == "" {
		t.Skip("TEST_DB_CONN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewPostgresStorage(db)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	runStorageSuite(t, func(t *testing.T) Storage {
		if _, err := db.Exec(`TRUNCATE transactions, users RESTART IDENTITY CASCADE`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return store
	})
}

func TestPostgresCreateUserConflict(t *testing.T) {
	dsn := os.Getenv("TEST_DB_CONN")
	if dsn == "" {
		t.Skip("TEST_DB_CONN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	store := NewPostgresStorage(db)
	if err := store.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`TRUNCATE transactions, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatal(err)
	}
	in := models.UserInput{Username: "dup", Password: "x", Name: "Dup", Email: "dup@example.com"}
	if _, err := store.CreateUser(ctx, in); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateUser(ctx, in); err != ErrConflict {
		t.Errorf("second CreateUser error = %v, want ErrConflict", err)
	}
}
