// Package history persists an audit trail of generated commands and their
// safety verdicts in a SQLite database under the user data directory.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/caro-sh/caro/internal/domain"
	"github.com/caro-sh/caro/internal/ports"
)

// AuditStore implements ports.AuditRepository on SQLite.
type AuditStore struct {
	db *sql.DB
	mu sync.Mutex
}

var _ ports.AuditRepository = (*AuditStore)(nil)

// NewAuditStore opens (or creates) the audit database at path. An empty path
// uses the default location under the user config directory.
func NewAuditStore(path string) (*AuditStore, error) {
	if path == "" {
		path = defaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &AuditStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func defaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "caro", "audit.db")
}

func (s *AuditStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS audit (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		prompt TEXT NOT NULL,
		command TEXT NOT NULL,
		backend TEXT NOT NULL,
		risk_level TEXT NOT NULL,
		allowed INTEGER NOT NULL,
		explanation TEXT,
		duration_ms INTEGER NOT NULL
	);`)
	return err
}

// Record inserts an entry. A missing ID or timestamp is filled in here so
// callers only describe what happened.
func (s *AuditStore) Record(ctx context.Context, entry ports.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO audit
		(id, timestamp, prompt, command, backend, risk_level, allowed, explanation, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.Format(time.RFC3339Nano),
		entry.Prompt,
		entry.Command,
		entry.Backend,
		entry.RiskLevel.String(),
		boolToInt(entry.Allowed),
		entry.Explanation,
		entry.DurationMS,
	)
	return err
}

// Recent returns up to limit entries, newest first.
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]ports.AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, timestamp, prompt, command, backend, risk_level, allowed, explanation, duration_ms
		FROM audit ORDER BY datetime(timestamp) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ports.AuditEntry
	for rows.Next() {
		var (
			entry   ports.AuditEntry
			ts      string
			risk    string
			allowed int
		)
		if err := rows.Scan(&entry.ID, &ts, &entry.Prompt, &entry.Command,
			&entry.Backend, &risk, &allowed, &entry.Explanation, &entry.DurationMS); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Timestamp = t
		}
		entry.RiskLevel = domain.ParseRiskLevel(risk)
		entry.Allowed = allowed == 1
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *AuditStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
