package capability

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func openStore(t *testing.T, path string, maxRows int) *SQLStore {
	t.Helper()
	store, err := OpenSQLStore(path, maxRows)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLStoreExecuteAndQuery(t *testing.T) {
	store := openStore(t, "", 0)
	ctx := context.Background()

	out, err := store.Execute(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, email TEXT)")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(out, "OK") {
		t.Fatalf("unexpected create output %q", out)
	}
	out, err = store.Execute(ctx, "INSERT INTO users (name, email) VALUES ('ada', 'ada@example.com'), ('bob', NULL)")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if out != "OK, 2 row(s) affected" {
		t.Fatalf("unexpected insert output %q", out)
	}

	out, err = store.Execute(ctx, "-- names\nSELECT name, email FROM users ORDER BY name")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	want := "name | email\n------------\nada | ada@example.com\nbob | NULL\n(2 row(s))"
	if out != want {
		t.Fatalf("unexpected table:\n%s\nwant:\n%s", out, want)
	}
}

func TestSQLStoreRowLimit(t *testing.T) {
	store := openStore(t, "", 3)
	ctx := context.Background()
	if _, err := store.Execute(ctx, "CREATE TABLE n (v INTEGER)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := store.Execute(ctx, fmt.Sprintf("INSERT INTO n VALUES (%d)", i)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	out, err := store.Execute(ctx, "select v from n")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !strings.HasSuffix(out, "(showing first 3 rows)") {
		t.Fatalf("expected row limit marker, got %q", out)
	}
}

func TestSQLStoreErrors(t *testing.T) {
	store := openStore(t, "", 0)
	ctx := context.Background()
	if _, err := store.Execute(ctx, "  "); err == nil {
		t.Fatalf("expected error for empty query")
	}
	if _, err := store.Execute(ctx, "SELECT * FROM missing"); err == nil || !strings.Contains(err.Error(), "no such table") {
		t.Fatalf("expected no such table error, got %v", err)
	}
}

func TestSQLStorePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	store, err := OpenSQLStore(path, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.Execute(context.Background(), "CREATE TABLE kv (k TEXT)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openStore(t, path, 0)
	out, err := reopened.Execute(context.Background(), "SELECT count(*) AS n FROM kv")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !strings.Contains(out, "0\n(1 row(s))") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestReturnsRows(t *testing.T) {
	for _, query := range []string{"SELECT 1", "with x as (select 1) select * from x", "/* c */ PRAGMA table_info(t)", "(select 1)", "VALUES (1)"} {
		if !returnsRows(query) {
			t.Fatalf("%q should return rows", query)
		}
	}
	for _, query := range []string{"INSERT INTO t VALUES (1)", "-- only a comment", "DROP TABLE t"} {
		if returnsRows(query) {
			t.Fatalf("%q should not return rows", query)
		}
	}
}
