package store

import (
	"context"
	"os"

	"github.com/rcliao/personal-assistant/internal/model"
)

// Stats holds storage statistics.
type Stats struct {
	Dir         string            `json:"dir"`
	Collections []CollectionStats `json:"collections"`
}

// CollectionStats holds per-collection counts.
type CollectionStats struct {
	Kind      model.Kind `json:"kind"`
	Path      string     `json:"path"`
	SizeBytes int64      `json:"size_bytes"`
	Count     int        `json:"count"`
	Completed int        `json:"completed,omitempty"`
}

// Stats returns storage statistics.
func (s *FileStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Dir: s.dir}

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
	completed := 0
	for _, t := range todos {
		if t.Completed {
			completed++
		}
	}

	paths := s.Paths()
	for _, c := range []CollectionStats{
		{Kind: model.KindInstruction, Count: len(instructions)},
		{Kind: model.KindFact, Count: len(facts)},
		{Kind: model.KindTodo, Count: len(todos), Completed: completed},
	} {
		c.Path = paths[c.Kind]
		if info, err := os.Stat(c.Path); err == nil {
			c.SizeBytes = info.Size()
		}
		st.Collections = append(st.Collections, c)
	}
	return st, nil
}
