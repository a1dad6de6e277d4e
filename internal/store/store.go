// Package store provides the memory storage interface and its file-backed implementation.
package store

import (
	"context"

	"github.com/rcliao/personal-assistant/internal/model"
)

// FactFilter narrows a fact listing.
type FactFilter struct {
	Category string // exact match; empty means all categories
}

// TodoFilter narrows a todo listing.
type TodoFilter struct {
	IncludeCompleted bool
}

// Store defines the memory storage interface. Each mutating call is one
// atomic rewrite of one collection.
type Store interface {
	// ListInstructions returns instructions, highest priority first.
	ListInstructions(ctx context.Context) ([]model.Instruction, error)
	AddInstruction(ctx context.Context, in model.Instruction) error
	UpdateInstruction(ctx context.Context, in model.Instruction) error
	RemoveInstruction(ctx context.Context, id string) error

	// ListFacts returns facts, most recently updated first.
	ListFacts(ctx context.Context, f FactFilter) ([]model.Fact, error)
	AddFact(ctx context.Context, f model.Fact) error
	UpdateFact(ctx context.Context, f model.Fact) error
	RemoveFact(ctx context.Context, id string) error

	// ListTodos returns todos, incomplete first, then by priority and age.
	ListTodos(ctx context.Context, f TodoFilter) ([]model.Todo, error)
	AddTodo(ctx context.Context, t model.Todo) error
	UpdateTodo(ctx context.Context, t model.Todo) error
	RemoveTodo(ctx context.Context, id string) error
}
