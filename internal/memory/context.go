package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/personal-assistant/internal/model"
	"github.com/rcliao/personal-assistant/internal/store"
)

// Status markers used when rendering todos.
const (
	MarkDone = "✓"
	MarkOpen = "○"
)

// ContextSummary renders all current memory as text for the agent's system
// prompt. It reads the store on every call.
func (m *Manager) ContextSummary(ctx context.Context) (string, error) {
	return m.render(ctx, false)
}

// ReferenceSummary is ContextSummary with each record prefixed by its id, so
// an extractor can name the records it wants changed.
func (m *Manager) ReferenceSummary(ctx context.Context) (string, error) {
	return m.render(ctx, true)
}

func (m *Manager) render(ctx context.Context, withIDs bool) (string, error) {
	instructions, err := m.store.ListInstructions(ctx)
	if err != nil {
		return "", fmt.Errorf("context summary: %w", err)
	}
	facts, err := m.store.ListFacts(ctx, store.FactFilter{})
	if err != nil {
		return "", fmt.Errorf("context summary: %w", err)
	}
	todos, err := m.store.ListTodos(ctx, store.TodoFilter{})
	if err != nil {
		return "", fmt.Errorf("context summary: %w", err)
	}

	var b strings.Builder
	prefix := func(id string) {
		if withIDs {
			fmt.Fprintf(&b, "(%s) ", id)
		}
	}
	b.WriteString("=== AGENT INSTRUCTIONS ===\n")
	for _, in := range instructions {
		prefix(in.ID)
		b.WriteString(FormatInstruction(in))
		b.WriteByte('\n')
	}

	b.WriteString("\n=== USER FACTS ===\n")
	for _, f := range facts {
		prefix(f.ID)
		b.WriteString(FormatFact(f))
		b.WriteByte('\n')
	}

	b.WriteString("\n=== USER TODOS ===\n")
	for _, t := range todos {
		prefix(t.ID)
		b.WriteString(FormatTodo(t))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// FormatInstruction renders one instruction as "[Priority 5] content".
func FormatInstruction(in model.Instruction) string {
	return fmt.Sprintf("[Priority %d] %s", in.Priority, in.Content)
}

// FormatFact renders one fact as "[category] key: value".
func FormatFact(f model.Fact) string {
	return fmt.Sprintf("[%s] %s: %s", f.Category, f.Key, f.Value)
}

// FormatTodo renders one todo as "○ [P3] task".
func FormatTodo(t model.Todo) string {
	mark := MarkOpen
	if t.Completed {
		mark = MarkDone
	}
	return fmt.Sprintf("%s [P%d] %s", mark, t.Priority, t.Task)
}
