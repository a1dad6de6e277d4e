package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder stores events in a SQLite database, tagged with a session id
// so one database can hold many sessions.
type SQLiteRecorder struct {
	db        *sql.DB
	sessionID string
}

// NewSQLiteRecorder opens or creates the database at dbPath and starts a new session.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	r := &SQLiteRecorder{db: db, sessionID: "session-" + uuid.NewString()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		id          TEXT NOT NULL UNIQUE,
		session_id  TEXT NOT NULL,
		event_type  TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		data        TEXT NOT NULL,
		metadata    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, seq);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(session_id, event_type);
	`
	_, err := r.db.Exec(schema)
	return err
}

// SessionID returns the id events of this recorder are stored under.
func (r *SQLiteRecorder) SessionID() string { return r.sessionID }

func (r *SQLiteRecorder) Emit(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		slog.Warn("events: marshal data", "type", ev.Type, "err", err)
		return
	}
	meta, err := json.Marshal(ev.Metadata)
	if err != nil {
		slog.Warn("events: marshal metadata", "type", ev.Type, "err", err)
		return
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO events (id, session_id, event_type, created_at, data, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, r.sessionID, ev.Type, ev.Time.Format(time.RFC3339Nano), string(data), string(meta))
	if err != nil {
		slog.Warn("events: insert", "type", ev.Type, "err", err)
	}
}

// Summary counts the session's events by type.
func (r *SQLiteRecorder) Summary(ctx context.Context) (*Summary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_type, COUNT(*) FROM events WHERE session_id = ? GROUP BY event_type`, r.sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		counts[typ] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summarize(counts), nil
}

// Tail returns the session's last n events, oldest first.
func (r *SQLiteRecorder) Tail(ctx context.Context, n int) ([]Event, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_type, created_at, data, metadata FROM (
			SELECT seq, id, event_type, created_at, data, metadata FROM events
			WHERE session_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, r.sessionID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var createdAt, data, meta string
		if err := rows.Scan(&ev.ID, &ev.Type, &createdAt, &data, &meta); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("decode event time: %w", err)
		}
		ev.Time = t
		if err := json.Unmarshal([]byte(data), &ev.Data); err != nil {
			return nil, fmt.Errorf("decode event data: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &ev.Metadata); err != nil {
			return nil, fmt.Errorf("decode event metadata: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ResumeLatest points the recorder at the most recently written session, so
// Summary and Tail report on it. It returns ErrNoSession on an empty database.
func (r *SQLiteRecorder) ResumeLatest(ctx context.Context) error {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT session_id FROM events ORDER BY seq DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("latest session: %w", err)
	}
	r.sessionID = id
	return nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
