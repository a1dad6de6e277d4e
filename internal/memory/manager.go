// Package memory applies batch updates to the store and renders the memory
// context the agent reads before every turn.
package memory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rcliao/personal-assistant/internal/events"
	"github.com/rcliao/personal-assistant/internal/model"
	"github.com/rcliao/personal-assistant/internal/store"
)

// Manager is the single entry point through which batches reach the store.
type Manager struct {
	store    store.Store
	recorder events.Recorder
	logger   *slog.Logger
}

// NewManager returns a Manager over st. A nil recorder discards events.
func NewManager(st store.Store, rec events.Recorder) *Manager {
	if rec == nil {
		rec = events.Nop{}
	}
	return &Manager{store: st, recorder: rec, logger: slog.Default()}
}

// Result counts the store calls made while applying a batch.
type Result struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// Total returns the number of store calls.
func (r Result) Total() int { return r.Added + r.Updated + r.Removed }

// Apply runs a batch against the store: instructions, then facts, then
// todos, and within each kind adds, then updates, then removals. An update
// and a removal of the same id in one batch leaves the record removed.
//
// A nil or empty batch does nothing. Every record is validated before the
// first write. There is no transaction across calls: if a store call fails,
// the calls before it stay committed and the returned Result counts them.
func (m *Manager) Apply(ctx context.Context, u *model.MemoryUpdate) (Result, error) {
	var res Result
	if !u.HasUpdates() {
		m.logger.Debug("memory: batch has no changes, skipping")
		return res, nil
	}
	if err := u.Validate(); err != nil {
		return res, fmt.Errorf("apply memory update: %w", err)
	}

	fail := func(op string, kind model.Kind, id string, err error) (Result, error) {
		err = fmt.Errorf("apply memory update: %s %s %s: %w", op, kind, id, err)
		m.recorder.Emit(ctx, events.Error(err, "memory.Manager.Apply"))
		return res, err
	}

	for _, in := range u.InstructionsToAdd {
		if err := m.store.AddInstruction(ctx, in); err != nil {
			return fail("add", model.KindInstruction, in.ID, err)
		}
		res.Added++
	}
	for _, in := range u.InstructionsToUpdate {
		if err := m.store.UpdateInstruction(ctx, in); err != nil {
			return fail("update", model.KindInstruction, in.ID, err)
		}
		res.Updated++
	}
	for _, id := range u.InstructionsToRemove {
		if err := m.store.RemoveInstruction(ctx, id); err != nil {
			return fail("remove", model.KindInstruction, id, err)
		}
		res.Removed++
	}

	for _, f := range u.FactsToAdd {
		if err := m.store.AddFact(ctx, f); err != nil {
			return fail("add", model.KindFact, f.ID, err)
		}
		res.Added++
	}
	for _, f := range u.FactsToUpdate {
		if err := m.store.UpdateFact(ctx, f); err != nil {
			return fail("update", model.KindFact, f.ID, err)
		}
		res.Updated++
	}
	for _, id := range u.FactsToRemove {
		if err := m.store.RemoveFact(ctx, id); err != nil {
			return fail("remove", model.KindFact, id, err)
		}
		res.Removed++
	}

	for _, t := range u.TodosToAdd {
		if err := m.store.AddTodo(ctx, t); err != nil {
			return fail("add", model.KindTodo, t.ID, err)
		}
		res.Added++
	}
	for _, t := range u.TodosToUpdate {
		if err := m.store.UpdateTodo(ctx, t); err != nil {
			return fail("update", model.KindTodo, t.ID, err)
		}
		res.Updated++
	}
	for _, id := range u.TodosToRemove {
		if err := m.store.RemoveTodo(ctx, id); err != nil {
			return fail("remove", model.KindTodo, id, err)
		}
		res.Removed++
	}

	m.logger.Debug("memory: batch applied", "added", res.Added, "updated", res.Updated, "removed", res.Removed)
	m.recorder.Emit(ctx, events.New(events.TypeMemoryUpdate, map[string]any{
		"reasoning": u.Reasoning,
		"updates":   u,
		"result":    res,
	}))
	return res, nil
}

// ListOptions narrows List.
type ListOptions struct {
	Category         string // facts only
	IncludeCompleted bool   // todos only
}

// List renders the records of one kind as display lines, in store order.
func (m *Manager) List(ctx context.Context, kind model.Kind, opts ListOptions) ([]string, error) {
	var lines []string
	switch kind {
	case model.KindInstruction:
		items, err := m.Instructions(ctx)
		if err != nil {
			return nil, err
		}
		for _, in := range items {
			lines = append(lines, FormatInstruction(in))
		}
	case model.KindFact:
		items, err := m.Facts(ctx, opts.Category)
		if err != nil {
			return nil, err
		}
		for _, f := range items {
			lines = append(lines, FormatFact(f))
		}
	case model.KindTodo:
		items, err := m.Todos(ctx, opts.IncludeCompleted)
		if err != nil {
			return nil, err
		}
		for _, t := range items {
			lines = append(lines, FormatTodo(t))
		}
	default:
		return nil, fmt.Errorf("list: unknown kind %q", kind)
	}
	return lines, nil
}

// Instructions lists instructions, highest priority first.
func (m *Manager) Instructions(ctx context.Context) ([]model.Instruction, error) {
	return m.store.ListInstructions(ctx)
}

// Facts lists facts, most recently updated first. An empty category lists all.
func (m *Manager) Facts(ctx context.Context, category string) ([]model.Fact, error) {
	return m.store.ListFacts(ctx, store.FactFilter{Category: category})
}

// Todos lists todos, incomplete first.
func (m *Manager) Todos(ctx context.Context, includeCompleted bool) ([]model.Todo, error) {
	return m.store.ListTodos(ctx, store.TodoFilter{IncludeCompleted: includeCompleted})
}
