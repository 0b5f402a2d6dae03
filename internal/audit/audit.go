// Package audit records every analysis, translation and speech request in
// a SQL table so operators can see what was processed and what failed.
// SQLite is the default store; a shared deployment can point it at Postgres.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type Auditor struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

type dialect struct {
	schema     string
	positional bool
}

var dialects = map[string]dialect{
	"sqlite3": {schema: `CREATE TABLE IF NOT EXISTS audit_log (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		operation TEXT NOT NULL,
		document TEXT,
		pages INTEGER NOT NULL DEFAULT 0,
		clauses INTEGER NOT NULL DEFAULT 0,
		risky INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		timestamp DATETIME NOT NULL
	)`},
	"postgres": {positional: true, schema: `CREATE TABLE IF NOT EXISTS audit_log (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		operation TEXT NOT NULL,
		document TEXT,
		pages INTEGER NOT NULL DEFAULT 0,
		clauses INTEGER NOT NULL DEFAULT 0,
		risky INTEGER NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		error TEXT,
		timestamp TIMESTAMPTZ NOT NULL
	)`},
}

// rebind rewrites ? placeholders as $1, $2, ... for Postgres.
func (d dialect) rebind(query string) string {
	if !d.positional {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type Entry struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Document  string    `json:"document,omitempty"`
	Pages     int       `json:"pages"`
	Clauses   int       `json:"clauses"`
	Risky     int       `json:"risky"`
	Duration  int64     `json:"duration_ms"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAuditor opens (or creates) the SQLite audit database at path.
// ":memory:" keeps the log in process.
func NewAuditor(path string) (*Auditor, error) {
	return Open("sqlite3", path)
}

// Open connects to the audit database with the given driver ("sqlite3" or
// "postgres") and creates the audit table if needed.
func Open(driver, dsn string) (*Auditor, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported audit driver: %s", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if driver == "sqlite3" {
		// One connection so an in-memory database is shared by every query.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit table: %w", err)
	}
	return &Auditor{db: db, dialect: d, now: time.Now}, nil
}

// Record stores e, filling in the id and timestamp when unset. A nil
// Auditor records nothing.
func (a *Auditor) Record(ctx context.Context, e Entry) (Entry, error) {
	if a == nil || a.db == nil {
		return e, nil
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = a.now().UTC()
	}
	_, err := a.db.ExecContext(ctx, a.dialect.rebind(
		"INSERT INTO audit_log (id, operation, document, pages, clauses, risky, duration_ms, error, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		e.ID, e.Operation, e.Document, e.Pages, e.Clauses, e.Risky, e.Duration, e.Error, e.Timestamp,
	)
	if err != nil {
		return e, fmt.Errorf("write audit log: %w", err)
	}
	return e, nil
}

// Log is Record for callers that only want failures reported.
func (a *Auditor) Log(ctx context.Context, e Entry) {
	if _, err := a.Record(ctx, e); err != nil {
		log.Printf("Failed to write audit log: %v", err)
	}
}

// Recent returns up to limit entries, newest first.
func (a *Auditor) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if a == nil || a.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx, a.dialect.rebind(
		"SELECT id, operation, document, pages, clauses, risky, duration_ms, error, timestamp FROM audit_log ORDER BY seq DESC LIMIT ?"),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var doc, errStr sql.NullString
		if err := rows.Scan(&e.ID, &e.Operation, &doc, &e.Pages, &e.Clauses, &e.Risky, &e.Duration, &errStr, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Document = doc.String
		e.Error = errStr.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (a *Auditor) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
