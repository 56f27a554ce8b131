package dbopen

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpenMemoryPragmas(t *testing.T) {
	db := OpenMemory(t)

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpenMemoryWithSchema(t *testing.T) {
	db := OpenMemory(t, WithSchema("CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT)"))

	if _, err := db.Exec("INSERT INTO things (name) VALUES ('x')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM things").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestOpenWithMkdirAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	db, err := Open(path, WithMkdirAll())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE t (id INTEGER)"); err != nil {
		t.Fatalf("exec: %v", err)
	}
}

func TestOpenBadSchema(t *testing.T) {
	if _, err := Open(":memory:", WithSchema("NOT VALID SQL")); err == nil {
		t.Fatal("invalid schema should fail")
	}
}

func TestIsForeignKey(t *testing.T) {
	db := OpenMemory(t, WithSchema(`
		CREATE TABLE parent (id INTEGER PRIMARY KEY);
		CREATE TABLE child (id INTEGER PRIMARY KEY, parent_id INTEGER NOT NULL REFERENCES parent(id));
	`))

	_, err := db.Exec("INSERT INTO child (parent_id) VALUES (99)")
	if err == nil {
		t.Fatal("orphan insert should fail")
	}
	if !IsForeignKey(err) {
		t.Errorf("IsForeignKey(%v) = false", err)
	}
	if IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = true", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := OpenMemory(t, WithSchema("CREATE TABLE u (slug TEXT NOT NULL UNIQUE)"))

	if _, err := db.Exec("INSERT INTO u (slug) VALUES ('a')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err := db.Exec("INSERT INTO u (slug) VALUES ('a')")
	if err == nil {
		t.Fatal("duplicate insert should fail")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false", err)
	}
	if IsBusy(err) || IsForeignKey(err) {
		t.Errorf("misclassified: %v", err)
	}
}

func TestRunTxCommitAndRollback(t *testing.T) {
	db := OpenMemory(t, WithSchema("CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)"))
	ctx := context.Background()

	err := RunTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO t (v) VALUES ('kept')")
		return err
	})
	if err != nil {
		t.Fatalf("commit tx: %v", err)
	}

	boom := errors.New("boom")
	err = RunTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO t (v) VALUES ('discarded')"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM t").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want only the committed row", n)
	}
}
