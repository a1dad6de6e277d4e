package store

import (
	"context"
	"sort"
)

// CategoryStats counts the facts filed under one category.
type CategoryStats struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Categories returns every fact category, largest first, ties by name.
func (s *FileStore) Categories(ctx context.Context) ([]CategoryStats, error) {
	facts, err := s.ListFacts(ctx, FactFilter{})
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, f := range facts {
		counts[f.Category]++
	}
	out := make([]CategoryStats, 0, len(counts))
	for c, n := range counts {
		out = append(out, CategoryStats{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}
