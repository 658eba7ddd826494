package db

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func TestRedactDSN(t *testing.T) {
	cases := []struct {
		dsn  string
		want string
	}{
		{"host=localhost port=5432 user=postgres password=secret dbname=tpch", "localhost:5432/tpch"},
		{"host=db.internal dbname=bench", "db.internal/bench"},
		{"dbname=only", "/only"},
		{"", "postgres"},
	}

	for _, tc := range cases {
		if got := redactDSN(tc.dsn); got != tc.want {
			t.Errorf("redactDSN(%q) = %q, want %q", tc.dsn, got, tc.want)
		}
	}
}

func TestRedactDSNNeverLeaksPassword(t *testing.T) {
	got := redactDSN("host=h password=hunter2 dbname=d")
	if strings.Contains(got, "hunter2") {
		t.Errorf("Redacted DSN leaked password: %q", got)
	}
}

// Connection-scoped state (temp tables here, SET pg_hint_plan.dp_tree_shape
// in production) must survive the whole session even when the pool would
// otherwise recycle or swap connections between queries.
func TestSessionKeepsConnectionScopedState(t *testing.T) {
	sqlDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(50 * time.Millisecond)

	ctx := context.Background()
	session, err := newSession(ctx, sqlDB, "")
	if err != nil {
		t.Fatalf("newSession failed: %v", err)
	}
	defer session.Close()

	if err := session.Exec(ctx, "CREATE TEMP TABLE session_state (id INTEGER)"); err != nil {
		t.Fatalf("Creating temp table failed: %v", err)
	}

	// Outlive ConnMaxLifetime; an unpinned pool connection would be replaced
	// by now, taking the temp table with it without any error.
	time.Sleep(120 * time.Millisecond)

	for i := 0; i < 5; i++ {
		if err := session.Exec(ctx, "SELECT * FROM session_state"); err != nil {
			t.Fatalf("Connection-scoped state lost on query %d: %v", i, err)
		}
	}
}

func TestSessionCloseReleasesConnection(t *testing.T) {
	sqlDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	session, err := newSession(context.Background(), sqlDB, "")
	if err != nil {
		t.Fatalf("newSession failed: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestExplainSQL(t *testing.T) {
	wrapped := explainSQL("SELECT * FROM t")
	if !strings.HasPrefix(wrapped, "EXPLAIN (ANALYZE") {
		t.Errorf("Expected EXPLAIN prefix, got %q", wrapped)
	}
	if !strings.HasSuffix(wrapped, "SELECT * FROM t") {
		t.Errorf("Original query lost: %q", wrapped)
	}

	already := "explain analyze select 1"
	if got := explainSQL(already); got != already {
		t.Errorf("Pre-explained query should pass through, got %q", got)
	}

	padded := explainSQL("  EXPLAIN SELECT 1")
	if padded != "  EXPLAIN SELECT 1" {
		t.Errorf("Whitespace-prefixed EXPLAIN should pass through, got %q", padded)
	}
}
