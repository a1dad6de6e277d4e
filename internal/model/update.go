package model

import "fmt"

// MemoryUpdate is a batch of proposed changes across all three kinds.
type MemoryUpdate struct {
	InstructionsToAdd    []Instruction `json:"instructions_to_add"`
	InstructionsToUpdate []Instruction `json:"instructions_to_update"`
	InstructionsToRemove []string      `json:"instructions_to_remove"`

	FactsToAdd    []Fact   `json:"facts_to_add"`
	FactsToUpdate []Fact   `json:"facts_to_update"`
	FactsToRemove []string `json:"facts_to_remove"`

	TodosToAdd    []Todo   `json:"todos_to_add"`
	TodosToUpdate []Todo   `json:"todos_to_update"`
	TodosToRemove []string `json:"todos_to_remove"`

	Reasoning string `json:"reasoning,omitempty"`
}

// HasUpdates reports whether any of the nine change lists is populated.
// Reasoning alone does not make a batch actionable.
func (u *MemoryUpdate) HasUpdates() bool {
	return u != nil && u.Len() > 0
}

// Len returns the total number of proposed operations.
func (u *MemoryUpdate) Len() int {
	if u == nil {
		return 0
	}
	return len(u.InstructionsToAdd) + len(u.InstructionsToUpdate) + len(u.InstructionsToRemove) +
		len(u.FactsToAdd) + len(u.FactsToUpdate) + len(u.FactsToRemove) +
		len(u.TodosToAdd) + len(u.TodosToUpdate) + len(u.TodosToRemove)
}

// Validate checks every record and id in the batch.
func (u *MemoryUpdate) Validate() error {
	if u == nil {
		return nil
	}
	for i, in := range u.InstructionsToAdd {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("instructions_to_add[%d]: %w", i, err)
		}
	}
	for i, in := range u.InstructionsToUpdate {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("instructions_to_update[%d]: %w", i, err)
		}
	}
	for i, f := range u.FactsToAdd {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("facts_to_add[%d]: %w", i, err)
		}
	}
	for i, f := range u.FactsToUpdate {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("facts_to_update[%d]: %w", i, err)
		}
	}
	for i, t := range u.TodosToAdd {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("todos_to_add[%d]: %w", i, err)
		}
	}
	for i, t := range u.TodosToUpdate {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("todos_to_update[%d]: %w", i, err)
		}
	}
	for _, rm := range []struct {
		name string
		ids  []string
	}{
		{"instructions_to_remove", u.InstructionsToRemove},
		{"facts_to_remove", u.FactsToRemove},
		{"todos_to_remove", u.TodosToRemove},
	} {
		for i, id := range rm.ids {
			if id == "" {
				return fmt.Errorf("%s[%d]: empty id", rm.name, i)
			}
		}
	}
	return nil
}
