// Package devstore is a self-contained stand-in for the hosted row store,
// backed by SQLite. It speaks just enough of the store's HTTP dialect for
// the insights client to run against it: HEAD counts under Prefer:
// count=exact, limit/offset paging, and the eq/in/gte/lte/is/not.is filter
// grammar. It exists for local development and end-to-end tests, not as a
// general PostgREST implementation.
package devstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store serves fixture rows over the row-store wire protocol.
type Store struct {
	db *sqlx.DB
}

// Open creates a store on the given SQLite DSN and initializes the schema.
// For a shared in-memory database use "file:name?mode=memory&cache=shared".
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Timestamps are stored as RFC 3339 UTC strings so the gte/lte predicates
// can compare lexicographically. Seeds must keep UTC and whole-second
// precision for that ordering to hold.
func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS support_threads (
id TEXT PRIMARY KEY,
ticket_id TEXT NOT NULL,
created_at TEXT NOT NULL,
version TEXT NOT NULL DEFAULT '',
category TEXT NOT NULL DEFAULT ''
)`,
		`CREATE TABLE IF NOT EXISTS dialog_messages (
id TEXT PRIMARY KEY,
thread_id TEXT NOT NULL,
ticket_id TEXT NOT NULL,
direction TEXT NOT NULL,
sent_at TEXT NOT NULL,
responsible_party TEXT
)`,
		`CREATE TABLE IF NOT EXISTS reply_comparisons (
id TEXT PRIMARY KEY,
thread_id TEXT NOT NULL,
responsible_party TEXT NOT NULL DEFAULT '',
classification TEXT,
changed INTEGER NOT NULL DEFAULT 0,
created_at TEXT NOT NULL,
version TEXT NOT NULL DEFAULT '',
category TEXT NOT NULL DEFAULT '',
ai_draft TEXT NOT NULL DEFAULT '',
final_reply TEXT NOT NULL DEFAULT '',
details TEXT
)`,
		`CREATE INDEX IF NOT EXISTS idx_threads_ticket ON support_threads(ticket_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_thread ON dialog_messages(thread_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_ticket ON dialog_messages(ticket_id)`,
		`CREATE INDEX IF NOT EXISTS idx_comparisons_thread ON reply_comparisons(thread_id)`,
		`CREATE INDEX IF NOT EXISTS idx_comparisons_agent ON reply_comparisons(responsible_party)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ThreadRow is one support_threads record as it appears on the wire.
type ThreadRow struct {
	ID        string `db:"id" json:"id"`
	TicketID  string `db:"ticket_id" json:"ticket_id"`
	CreatedAt string `db:"created_at" json:"created_at"`
	Version   string `db:"version" json:"version"`
	Category  string `db:"category" json:"category"`
}

// MessageRow is one dialog_messages record. ResponsibleParty is null for
// inbound customer messages.
type MessageRow struct {
	ID               string  `db:"id" json:"id"`
	ThreadID         string  `db:"thread_id" json:"thread_id"`
	TicketID         string  `db:"ticket_id" json:"ticket_id"`
	Direction        string  `db:"direction" json:"direction"`
	SentAt           string  `db:"sent_at" json:"sent_at"`
	ResponsibleParty *string `db:"responsible_party" json:"responsible_party"`
}

// ComparisonRow is one reply_comparisons record. The details column holds
// verbatim JSON text; only valid JSON is exposed on the wire.
type ComparisonRow struct {
	ID               string          `db:"id" json:"id"`
	ThreadID         string          `db:"thread_id" json:"thread_id"`
	ResponsibleParty string          `db:"responsible_party" json:"responsible_party"`
	Classification   *string         `db:"classification" json:"classification"`
	Changed          bool            `db:"changed" json:"changed"`
	CreatedAt        string          `db:"created_at" json:"created_at"`
	Version          string          `db:"version" json:"version"`
	Category         string          `db:"category" json:"category"`
	AIDraft          string          `db:"ai_draft" json:"ai_draft"`
	FinalReply       string          `db:"final_reply" json:"final_reply"`
	DetailsText      sql.NullString  `db:"details" json:"-"`
	Details          json.RawMessage `db:"-" json:"details,omitempty"`
}

// Dataset is the seed shape consumed by Seed and the fixture server's
// -seed flag.
type Dataset struct {
	Threads     []ThreadRow     `json:"threads"`
	Messages    []MessageRow    `json:"messages"`
	Comparisons []ComparisonRow `json:"comparisons"`
}

// Seed inserts the dataset in a single transaction.
func (s *Store) Seed(ctx context.Context, ds Dataset) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, row := range ds.Threads {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO support_threads (id, ticket_id, created_at, version, category)
			 VALUES (?, ?, ?, ?, ?)`,
			row.ID, row.TicketID, row.CreatedAt, row.Version, row.Category)
		if err != nil {
			return fmt.Errorf("failed to insert thread %s: %w", row.ID, err)
		}
	}

	for _, row := range ds.Messages {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO dialog_messages (id, thread_id, ticket_id, direction, sent_at, responsible_party)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			row.ID, row.ThreadID, row.TicketID, row.Direction, row.SentAt, row.ResponsibleParty)
		if err != nil {
			return fmt.Errorf("failed to insert message %s: %w", row.ID, err)
		}
	}

	for _, row := range ds.Comparisons {
		var details any
		if len(row.Details) > 0 && string(row.Details) != "null" {
			details = string(row.Details)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO reply_comparisons (id, thread_id, responsible_party, classification, changed,
			 created_at, version, category, ai_draft, final_reply, details)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.ThreadID, row.ResponsibleParty, row.Classification, row.Changed,
			row.CreatedAt, row.Version, row.Category, row.AIDraft, row.FinalReply, details)
		if err != nil {
			return fmt.Errorf("failed to insert comparison %s: %w", row.ID, err)
		}
	}

	return tx.Commit()
}
