package store

import (
	"context"

	"github.com/rcliao/personal-assistant/internal/model"
)

// Snapshot is the full contents of all three collections.
type Snapshot struct {
	Instructions []model.Instruction `json:"instructions" yaml:"instructions"`
	Facts        []model.Fact        `json:"facts" yaml:"facts"`
	Todos        []model.Todo        `json:"todos" yaml:"todos"`
}

// ExportAll returns every record, in list order, including completed todos.
func (s *FileStore) ExportAll(ctx context.Context) (*Snapshot, error) {
	instructions, err := s.ListInstructions(ctx)
	if err != nil {
		return nil, err
	}
	facts, err := s.ListFacts(ctx, FactFilter{})
	if err != nil {
		return nil, err
	}
	todos, err := s.ListTodos(ctx, TodoFilter{IncludeCompleted: true})
	if err != nil {
		return nil, err
	}
	return &Snapshot{Instructions: instructions, Facts: facts, Todos: todos}, nil
}

// Import adds every record of a snapshot. Records already present with
// identical contents are skipped, so importing an export twice is harmless.
// It returns the number of records processed before any error.
func (s *FileStore) Import(ctx context.Context, snap *Snapshot) (int, error) {
	imported := 0
	for _, in := range snap.Instructions {
		if err := s.AddInstruction(ctx, in); err != nil {
			return imported, err
		}
		imported++
	}
	for _, f := range snap.Facts {
		if err := s.AddFact(ctx, f); err != nil {
			return imported, err
		}
		imported++
	}
	for _, t := range snap.Todos {
		if err := s.AddTodo(ctx, t); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
