// Package events records agent and memory activity for later inspection.
package events

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeMessage      = "message"
	TypeMemoryUpdate = "memory_update"
	TypeExtraction   = "extraction"
	TypeAgentAction  = "agent_action"
	TypeError        = "error"
)

// Event is one recorded occurrence.
type Event struct {
	ID       string         `json:"id"`
	Time     time.Time      `json:"timestamp"`
	Type     string         `json:"event_type"`
	Data     map[string]any `json:"data"`
	Metadata map[string]any `json:"metadata"`
}

// New returns an event of the given type stamped with a fresh id and the current time.
func New(typ string, data map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	return Event{
		ID:       uuid.NewString(),
		Time:     time.Now().UTC(),
		Type:     typ,
		Data:     data,
		Metadata: map[string]any{},
	}
}

// Recorder receives events. Emit never fails the caller; sinks log their own
// write errors.
type Recorder interface {
	Emit(ctx context.Context, ev Event)
}

// Reader gives read access to what a recorder has stored for the session.
type Reader interface {
	Summary(ctx context.Context) (*Summary, error)
	Tail(ctx context.Context, n int) ([]Event, error)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}

// TypeCount is the number of events of one type.
type TypeCount struct {
	Type  string `json:"event_type"`
	Count int    `json:"count"`
}

// Summary aggregates a session's events.
type Summary struct {
	Total  int         `json:"total"`
	Counts []TypeCount `json:"counts"`
}

func summarize(counts map[string]int) *Summary {
	s := &Summary{Counts: make([]TypeCount, 0, len(counts))}
	for typ, n := range counts {
		s.Total += n
		s.Counts = append(s.Counts, TypeCount{Type: typ, Count: n})
	}
	sort.Slice(s.Counts, func(i, j int) bool { return s.Counts[i].Type < s.Counts[j].Type })
	return s
}

// String renders the summary for display.
func (s *Summary) String() string {
	if s.Total == 0 {
		return "No events logged yet."
	}
	var b strings.Builder
	b.WriteString("=== SESSION SUMMARY ===\n")
	fmt.Fprintf(&b, "Total events: %d\n\n", s.Total)
	b.WriteString("Event breakdown:\n")
	for _, c := range s.Counts {
		fmt.Fprintf(&b, "  %s: %d\n", c.Type, c.Count)
	}
	return b.String()
}

// Error returns an error event carrying the error text and where it happened.
func Error(err error, where string) Event {
	return New(TypeError, map[string]any{
		"error_type":    fmt.Sprintf("%T", err),
		"error_message": err.Error(),
		"context":       where,
	})
}

// Message returns a conversation message event.
func Message(role, content string) Event {
	return New(TypeMessage, map[string]any{"role": role, "content": content})
}

// AgentAction returns an event for something the agent did outside a turn.
func AgentAction(action string, details map[string]any) Event {
	if details == nil {
		details = map[string]any{}
	}
	return New(TypeAgentAction, map[string]any{"action": action, "details": details})
}
