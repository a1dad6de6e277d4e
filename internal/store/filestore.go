package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rcliao/personal-assistant/internal/model"
)

// Collection file names inside the storage directory.
const (
	InstructionsFile = "instructions.json"
	FactsFile        = "facts.json"
	TodosFile        = "todos.json"
)

var _ Store = (*FileStore)(nil)

// FileStore implements Store with one JSON file per record kind.
type FileStore struct {
	dir    string
	strict bool
	logger *slog.Logger

	mu           sync.Mutex
	instructions *collection[model.Instruction]
	facts        *collection[model.Fact]
	todos        *collection[model.Todo]
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithStrict makes update and remove of an unknown id return ErrNotFound
// instead of silently doing nothing.
func WithStrict() Option {
	return func(s *FileStore) { s.strict = true }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(s *FileStore) { s.logger = l }
}

// NewFileStore opens or creates a store in dir. Missing collection files are
// created with their defaults: one seeded instruction, no facts, no todos.
// Existing files must parse; a corrupt file fails the open.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	s := &FileStore{
		dir:    dir,
		logger: slog.Default(),
		instructions: &collection[model.Instruction]{
			kind: model.KindInstruction,
			path: filepath.Join(dir, InstructionsFile),
			id:   func(in model.Instruction) string { return in.ID },
		},
		facts: &collection[model.Fact]{
			kind: model.KindFact,
			path: filepath.Join(dir, FactsFile),
			id:   func(f model.Fact) string { return f.ID },
		},
		todos: &collection[model.Todo]{
			kind: model.KindTodo,
			path: filepath.Join(dir, TodosFile),
			id:   func(t model.Todo) string { return t.ID },
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) init() error {
	if err := seed(s.instructions, []model.Instruction{model.DefaultInstruction()}); err != nil {
		return err
	}
	if err := seed(s.facts, nil); err != nil {
		return err
	}
	return seed(s.todos, nil)
}

func seed[T any](c *collection[T], defaults []T) error {
	ok, err := c.exists()
	if err != nil {
		return err
	}
	if !ok {
		return c.save(defaults)
	}
	_, err = c.load()
	return err
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string { return s.dir }

// Paths returns the collection file path for each kind.
func (s *FileStore) Paths() map[model.Kind]string {
	return map[model.Kind]string{
		model.KindInstruction: s.instructions.path,
		model.KindFact:        s.facts.path,
		model.KindTodo:        s.todos.path,
	}
}

// missing applies the not-found policy to an update or remove that matched nothing.
func (s *FileStore) missing(op string, kind model.Kind, id string) error {
	if s.strict {
		return fmt.Errorf("%s %s %s: %w", op, kind, id, ErrNotFound)
	}
	s.logger.Debug("store: no record matched, skipping", "op", op, "kind", kind, "id", id)
	return nil
}

// ListInstructions returns all instructions sorted by descending priority.
// Ties keep file order.
func (s *FileStore) ListInstructions(_ context.Context) ([]model.Instruction, error) {
	s.mu.Lock()
	items, err := s.instructions.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority > items[j].Priority
	})
	return items, nil
}

func (s *FileStore) AddInstruction(ctx context.Context, in model.Instruction) error {
	if err := in.Validate(); err != nil {
		return err
	}
	in = in.UTC()
	return mutate(ctx, s, s.instructions, "add", in.ID, func() (bool, error) { return s.instructions.add(in) })
}

func (s *FileStore) UpdateInstruction(ctx context.Context, in model.Instruction) error {
	if err := in.Validate(); err != nil {
		return err
	}
	in = in.UTC()
	return mutate(ctx, s, s.instructions, "update", in.ID, func() (bool, error) { return s.instructions.update(in) })
}

func (s *FileStore) RemoveInstruction(ctx context.Context, id string) error {
	return mutate(ctx, s, s.instructions, "remove", id, func() (bool, error) { return s.instructions.remove(id) })
}

// ListFacts returns facts sorted by descending updated_at, optionally
// restricted to one category.
func (s *FileStore) ListFacts(_ context.Context, f FactFilter) ([]model.Fact, error) {
	s.mu.Lock()
	items, err := s.facts.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if f.Category != "" {
		filtered := items[:0]
		for _, it := range items {
			if it.Category == f.Category {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
	return items, nil
}

func (s *FileStore) AddFact(ctx context.Context, f model.Fact) error {
	if err := f.Validate(); err != nil {
		return err
	}
	f = f.UTC()
	return mutate(ctx, s, s.facts, "add", f.ID, func() (bool, error) { return s.facts.add(f) })
}

func (s *FileStore) UpdateFact(ctx context.Context, f model.Fact) error {
	if err := f.Validate(); err != nil {
		return err
	}
	f = f.UTC()
	return mutate(ctx, s, s.facts, "update", f.ID, func() (bool, error) { return s.facts.update(f) })
}

func (s *FileStore) RemoveFact(ctx context.Context, id string) error {
	return mutate(ctx, s, s.facts, "remove", id, func() (bool, error) { return s.facts.remove(id) })
}

// ListTodos returns todos with incomplete ones first, then by descending
// priority, then by ascending created_at. Completed todos are dropped
// unless the filter asks for them.
func (s *FileStore) ListTodos(_ context.Context, f TodoFilter) ([]model.Todo, error) {
	s.mu.Lock()
	items, err := s.todos.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if !f.IncludeCompleted {
		filtered := items[:0]
		for _, it := range items {
			if !it.Completed {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return items, nil
}

func (s *FileStore) AddTodo(ctx context.Context, t model.Todo) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t = t.UTC()
	return mutate(ctx, s, s.todos, "add", t.ID, func() (bool, error) { return s.todos.add(t) })
}

func (s *FileStore) UpdateTodo(ctx context.Context, t model.Todo) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t = t.UTC()
	return mutate(ctx, s, s.todos, "update", t.ID, func() (bool, error) { return s.todos.update(t) })
}

func (s *FileStore) RemoveTodo(ctx context.Context, id string) error {
	return mutate(ctx, s, s.todos, "remove", id, func() (bool, error) { return s.todos.remove(id) })
}

// GetInstruction returns the instruction with id or ErrNotFound.
func (s *FileStore) GetInstruction(_ context.Context, id string) (model.Instruction, error) {
	return get(s, s.instructions, id)
}

// GetFact returns the fact with id or ErrNotFound.
func (s *FileStore) GetFact(_ context.Context, id string) (model.Fact, error) {
	return get(s, s.facts, id)
}

// GetTodo returns the todo with id or ErrNotFound.
func (s *FileStore) GetTodo(_ context.Context, id string) (model.Todo, error) {
	return get(s, s.todos, id)
}

func get[T any](s *FileStore, c *collection[T], id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	items, err := c.load()
	if err != nil {
		return zero, err
	}
	i := c.find(items, id)
	if i < 0 {
		return zero, fmt.Errorf("%s %s: %w", c.kind, id, ErrNotFound)
	}
	return items[i], nil
}

func mutate[T any](ctx context.Context, s *FileStore, c *collection[T], op, id string, fn func() (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := fn()
	if err != nil {
		return err
	}
	if !changed {
		if op == "add" {
			s.logger.Debug("store: identical record already present", "kind", c.kind, "id", id)
			return nil
		}
		return s.missing(op, c.kind, id)
	}
	s.logger.Debug("store: collection rewritten", "op", op, "kind", c.kind, "id", id)
	return nil
}
