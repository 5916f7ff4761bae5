package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres
	"github.com/xela07ax/blaxing-console/internal/journal"
)

const journalColumns = 8

const journalSchema = `
CREATE TABLE IF NOT EXISTS console_journal (
	id         UUID PRIMARY KEY,
	session_id TEXT NOT NULL,
	mode       TEXT NOT NULL,
	action     TEXT NOT NULL,
	agent_id   TEXT,
	level      TEXT NOT NULL,
	message    TEXT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL
)`

// JournalRepo Postgres-хранилище журнала действий дашборда.
type JournalRepo struct {
	db *sql.DB
}

// NewJournalRepo открывает пул через pgx. maxConns <= 0 дает 5 соединений.
func NewJournalRepo(dsn string, maxConns, idleConns int) (*JournalRepo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 5
	}
	if idleConns <= 0 || idleConns > maxConns {
		idleConns = maxConns
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(idleConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &JournalRepo{db: db}, nil
}

func (r *JournalRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *JournalRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, journalSchema); err != nil {
		return fmt.Errorf("postgres: ensure journal schema: %w", err)
	}
	return nil
}

// WriteBatch вставляет пачку одной командой.
func (r *JournalRepo) WriteBatch(ctx context.Context, entries []journal.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	query, args := buildJournalInsert(entries)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres: write journal batch: %w", err)
	}
	return nil
}

// Recent последние записи, новые первыми.
func (r *JournalRepo) Recent(ctx context.Context, limit int) ([]journal.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, mode, action, COALESCE(agent_id, ''), level, message, timestamp
		   FROM console_journal ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: query journal: %w", err)
	}
	defer rows.Close()

	var out []journal.Entry
	for rows.Next() {
		var e journal.Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Mode, &e.Action, &e.AgentID, &e.Level, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan journal: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *JournalRepo) Close() error {
	return r.db.Close()
}

func buildJournalInsert(entries []journal.Entry) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, len(entries)*journalColumns)

	for i, e := range entries {
		if i > 0 {
			sb.WriteString(",")
		}
		p := i * journalColumns
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8)

		var agentID any
		if e.AgentID != "" {
			agentID = e.AgentID
		}
		args = append(args, e.ID, e.SessionID, e.Mode, e.Action, agentID, e.Level, e.Message, e.Timestamp)
	}

	query := "INSERT INTO console_journal (id, session_id, mode, action, agent_id, level, message, timestamp) VALUES " +
		sb.String() + " ON CONFLICT (id) DO NOTHING"
	return query, args
}
