// Package db wraps the PostgreSQL session the benchmarks run against.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/planprobe/planprobe/internal/plan"
	"github.com/planprobe/planprobe/pkg/models"
	"github.com/planprobe/planprobe/pkg/retry"
)

// explainPrefix requests the full instrumented plan as JSON.
const explainPrefix = "EXPLAIN (ANALYZE, COSTS, VERBOSE, BUFFERS, FORMAT JSON) "

// Config holds connection settings.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Session is a live connection to the target database. All queries run on a
// single pinned connection: pg_hint_plan.dp_tree_shape is connection-scoped,
// and a pool that swaps or recycles connections mid-run would silently revert
// it to the default shape.
type Session struct {
	db     *sql.DB
	conn   *sql.Conn
	dsn    string
	tracer trace.Tracer
}

// Connect opens the database, verifies it with a retried ping, and pins the
// connection the benchmarks will run on.
func Connect(ctx context.Context, config Config) (*Session, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("PostgreSQL DSN is required")
	}

	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(2)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(1)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingRetry := retry.Config{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
	}
	if err := retry.Do(ctx, pingRetry, func() error { return db.PingContext(ctx) }); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	session, err := newSession(ctx, db, config.DSN)
	if err != nil {
		db.Close()
		return nil, err
	}
	return session, nil
}

// newSession pins one connection out of the pool. A *sql.Conn held by the
// caller is exempt from pool recycling until it is closed, so SET and the
// queries that follow are guaranteed to share a backend.
func newSession(ctx context.Context, db *sql.DB, dsn string) (*Session, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pin connection: %w", err)
	}
	return &Session{
		db:     db,
		conn:   conn,
		dsn:    dsn,
		tracer: otel.Tracer("planprobe.db"),
	}, nil
}

// Close returns the pinned connection and releases the pool.
func (s *Session) Close() error {
	connErr := s.conn.Close()
	if err := s.db.Close(); err != nil {
		return err
	}
	return connErr
}

// Target returns a redacted identifier for the connection, safe to persist
// with run metadata (no password).
func (s *Session) Target() string {
	return redactDSN(s.dsn)
}

func redactDSN(dsn string) string {
	var host, port, dbname string
	for _, field := range strings.Fields(dsn) {
		parts := strings.SplitN(field, "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "host":
			host = parts[1]
		case "port":
			port = parts[1]
		case "dbname":
			dbname = parts[1]
		}
	}
	if host == "" && dbname == "" {
		return "postgres"
	}
	target := host
	if port != "" {
		target += ":" + port
	}
	if dbname != "" {
		target += "/" + dbname
	}
	return target
}

// Explain runs an instrumented EXPLAIN of the query and returns the parsed
// plan document plus the raw JSON for storage. Queries that already carry an
// EXPLAIN prefix are executed as-is.
func (s *Session) Explain(ctx context.Context, query string) (*plan.Explain, json.RawMessage, error) {
	ctx, span := s.tracer.Start(ctx, "db.explain",
		trace.WithAttributes(attribute.String("db.target", s.Target())))
	defer span.End()

	var raw []byte
	if err := s.conn.QueryRowContext(ctx, explainSQL(query)).Scan(&raw); err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("explain failed: %w", err)
	}

	doc, err := plan.Parse(raw)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}
	return doc, json.RawMessage(raw), nil
}

func explainSQL(query string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(query)), "explain") {
		return query
	}
	return explainPrefix + query
}

// Exec runs the query and discards its rows. Used for wall-clock timing where
// EXPLAIN instrumentation overhead would distort the comparison.
func (s *Session) Exec(ctx context.Context, query string) error {
	ctx, span := s.tracer.Start(ctx, "db.exec",
		trace.WithAttributes(attribute.String("db.target", s.Target())))
	defer span.End()

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
	}
	return rows.Err()
}

// SetTreeShape configures pg_hint_plan's dynamic-programming tree shape on
// the pinned connection. The shape is validated locally; SET cannot be
// parameterized.
func (s *Session) SetTreeShape(ctx context.Context, shape models.TreeShape) error {
	if _, err := models.ParseTreeShape(string(shape)); err != nil {
		return err
	}
	stmt := fmt.Sprintf("SET pg_hint_plan.dp_tree_shape TO '%s'", shape)
	if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("setting tree shape %s: %w", shape, err)
	}
	return nil
}
