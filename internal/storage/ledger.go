// ABOUTME: SQLite ledger recording every generator call a project makes
// ABOUTME: One row per call: phase, chapter, scene, tokens, duration
package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// CallRecord describes one completed generator call.
type CallRecord struct {
	Phase            string
	Chapter          int
	Scene            int
	Model            string
	PromptTokens     int
	CompletionTokens int
	Duration         time.Duration
}

// PhaseUsage aggregates ledger rows for one phase.
type PhaseUsage struct {
	Phase            string
	Calls            int
	PromptTokens     int
	CompletionTokens int
}

// Ledger is the per-project generation call log backed by SQLite.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens (creating if needed) the ledger database inside a
// project directory.
func OpenLedger(projectDir string) (*Ledger, error) {
	dbPath := filepath.Join(projectDir, "ledger.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS generation_calls (
		call_id TEXT PRIMARY KEY,
		phase TEXT NOT NULL,
		chapter INTEGER DEFAULT 0,
		scene INTEGER DEFAULT 0,
		model TEXT NOT NULL,
		prompt_tokens INTEGER DEFAULT 0,
		completion_tokens INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_calls_phase ON generation_calls(phase);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Record appends one call to the ledger.
func (l *Ledger) Record(call CallRecord) error {
	_, err := l.db.Exec(
		`INSERT INTO generation_calls (call_id, phase, chapter, scene, model, prompt_tokens, completion_tokens, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), call.Phase, call.Chapter, call.Scene, call.Model,
		call.PromptTokens, call.CompletionTokens, call.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording generation call: %w", err)
	}
	return nil
}

// PhaseTotals aggregates calls and tokens per phase, in call order.
func (l *Ledger) PhaseTotals() ([]PhaseUsage, error) {
	rows, err := l.db.Query(
		`SELECT phase, COUNT(*), COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0)
		 FROM generation_calls GROUP BY phase ORDER BY MIN(created_at)`)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	var totals []PhaseUsage
	for rows.Next() {
		var u PhaseUsage
		if err := rows.Scan(&u.Phase, &u.Calls, &u.PromptTokens, &u.CompletionTokens); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		totals = append(totals, u)
	}
	return totals, rows.Err()
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}
