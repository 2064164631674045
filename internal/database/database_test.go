package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func TestOpenSeedsReferenceData(t *testing.T) {
	db, err := Open(openTestDB(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var roles, tiers int
	if err := db.QueryRow(`SELECT COUNT(*) FROM roles`).Scan(&roles); err != nil {
		t.Fatalf("count roles: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM membership_tiers`).Scan(&tiers); err != nil {
		t.Fatalf("count tiers: %v", err)
	}
	if roles != 3 {
		t.Errorf("roles = %d, want 3", roles)
	}
	if tiers != 3 {
		t.Errorf("tiers = %d, want 3", tiers)
	}

	var maxAddresses int
	db.QueryRow(`SELECT max_addresses FROM membership_tiers WHERE name = 'Premium'`).Scan(&maxAddresses)
	if maxAddresses != 3 {
		t.Errorf("premium max_addresses = %d, want 3", maxAddresses)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := openTestDB(t)

	db, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer db.Close()

	var roles int
	db.QueryRow(`SELECT COUNT(*) FROM roles`).Scan(&roles)
	if roles != 3 {
		t.Errorf("roles after reopen = %d, want 3", roles)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := Open(openTestDB(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`INSERT INTO children (parent_id, first_name, last_name) VALUES (999, 'Ana', 'Diaz')`)
	if err == nil {
		t.Fatal("expected foreign key violation")
	}
}

func TestWithTxRollsBack(t *testing.T) {
	db, err := Open(openTestDB(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	boom := errors.New("boom")
	err = WithTx(context.Background(), db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO roles (name) VALUES ('Temporal')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM roles WHERE name = 'Temporal'`).Scan(&count)
	if count != 0 {
		t.Errorf("role count = %d, want 0 after rollback", count)
	}
}

func TestWithTxCommits(t *testing.T) {
	db, err := Open(openTestDB(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	err = WithTx(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO roles (name) VALUES ('Temporal')`)
		return err
	})
	if err != nil {
		t.Fatalf("with tx: %v", err)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM roles WHERE name = 'Temporal'`).Scan(&count)
	if count != 1 {
		t.Errorf("role count = %d, want 1", count)
	}
}
