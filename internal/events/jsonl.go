package events

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// JSONLRecorder appends events, one JSON object per line, to a per-session
// file named session_YYYYMMDD_HHMMSS.jsonl.
type JSONLRecorder struct {
	path string
	mu   sync.Mutex
}

// NewJSONLRecorder creates dir if needed and starts a new session log in it.
func NewJSONLRecorder(dir string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	name := fmt.Sprintf("session_%s.jsonl", time.Now().Format("20060102_150405"))
	return &JSONLRecorder{path: filepath.Join(dir, name)}, nil
}

// ErrNoSession is returned when no session has been recorded yet.
var ErrNoSession = errors.New("no recorded session")

// OpenLatestJSONL returns a recorder over the newest session log in dir.
func OpenLatestJSONL(dir string) (*JSONLRecorder, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "session_*.jsonl"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNoSession
	}
	sort.Strings(matches)
	return &JSONLRecorder{path: matches[len(matches)-1]}, nil
}

// Path returns the session log file.
func (r *JSONLRecorder) Path() string { return r.path }

func (r *JSONLRecorder) Emit(_ context.Context, ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("events: marshal", "type", ev.Type, "err", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Warn("events: open log", "path", r.path, "err", err)
		return
	}
	defer f.Close()
	if _, err := f.Write(append(b, '\n')); err != nil {
		slog.Warn("events: write log", "path", r.path, "err", err)
	}
}

func (r *JSONLRecorder) readAll() ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	var out []Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			return nil, fmt.Errorf("parse log line: %w", err)
		}
		out = append(out, ev)
	}
	return out, sc.Err()
}

// Summary counts the session's events by type.
func (r *JSONLRecorder) Summary(_ context.Context) (*Summary, error) {
	evs, err := r.readAll()
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, ev := range evs {
		counts[ev.Type]++
	}
	return summarize(counts), nil
}

// Tail returns the last n events, oldest first.
func (r *JSONLRecorder) Tail(_ context.Context, n int) ([]Event, error) {
	evs, err := r.readAll()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = 10
	}
	if len(evs) > n {
		evs = evs[len(evs)-n:]
	}
	return evs, nil
}
