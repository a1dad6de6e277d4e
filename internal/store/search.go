package store

import (
	"context"
	"strings"

	"github.com/rcliao/personal-assistant/internal/model"
)

// SearchParams holds parameters for searching memories.
type SearchParams struct {
	Query string
	Kind  model.Kind // empty searches every kind
	Limit int
}

// SearchResult is one matching record rendered as a single line.
type SearchResult struct {
	Kind model.Kind `json:"kind"`
	ID   string     `json:"id"`
	Text string     `json:"text"`
}

// Search finds records whose text fields contain the query, case-insensitively.
// Results follow list order within each kind and kinds follow merge order.
// Completed todos are included.
func (s *FileStore) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	q := strings.ToLower(p.Query)
	match := func(fields ...string) bool {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	}

	var results []SearchResult
	if p.Kind == "" || p.Kind == model.KindInstruction {
		items, err := s.ListInstructions(ctx)
		if err != nil {
			return nil, err
		}
		for _, in := range items {
			if match(in.Content) {
				results = append(results, SearchResult{Kind: model.KindInstruction, ID: in.ID, Text: in.Content})
			}
		}
	}
	if p.Kind == "" || p.Kind == model.KindFact {
		items, err := s.ListFacts(ctx, FactFilter{})
		if err != nil {
			return nil, err
		}
		for _, f := range items {
			if match(f.Category, f.Key, f.Value) {
				results = append(results, SearchResult{Kind: model.KindFact, ID: f.ID, Text: f.Key + ": " + f.Value})
			}
		}
	}
	if p.Kind == "" || p.Kind == model.KindTodo {
		items, err := s.ListTodos(ctx, TodoFilter{IncludeCompleted: true})
		if err != nil {
			return nil, err
		}
		for _, t := range items {
			if match(append([]string{t.Task}, t.Tags...)...) {
				results = append(results, SearchResult{Kind: model.KindTodo, ID: t.ID, Text: t.Task})
			}
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
