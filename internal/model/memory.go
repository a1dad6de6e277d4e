// Package model defines the core memory data types.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Priority bounds and defaults for each record kind.
const (
	MinInstructionPriority     = 1
	MaxInstructionPriority     = 10
	DefaultInstructionPriority = 1

	MinTodoPriority     = 1
	MaxTodoPriority     = 5
	DefaultTodoPriority = 3

	DefaultConfidence = 1.0
)

// DefaultInstructionContent is the directive seeded into a fresh store.
const DefaultInstructionContent = "You are a helpful personal assistant. Remember information about the user and help them stay organized."

// Kind names one of the three record collections.
type Kind string

const (
	KindInstruction Kind = "instruction"
	KindFact        Kind = "fact"
	KindTodo        Kind = "todo"
)

// Kinds lists every kind in merge order.
var Kinds = []Kind{KindInstruction, KindFact, KindTodo}

// ParseKind accepts singular or plural kind names.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "instruction", "instructions":
		return KindInstruction, nil
	case "fact", "facts":
		return KindFact, nil
	case "todo", "todos":
		return KindTodo, nil
	}
	return "", fmt.Errorf("unknown kind %q (valid: instruction, fact, todo)", s)
}

// Instruction is a standing behavioral directive for the agent.
type Instruction struct {
	ID        string    `json:"id" yaml:"id"`
	Content   string    `json:"content" yaml:"content"`
	Priority  int       `json:"priority" yaml:"priority"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Fact is a piece of knowledge about the user, grouped by category.
type Fact struct {
	ID         string    `json:"id" yaml:"id"`
	Category   string    `json:"category" yaml:"category"`
	Key        string    `json:"key" yaml:"key"`
	Value      string    `json:"value" yaml:"value"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
	Source     string    `json:"source,omitempty" yaml:"source,omitempty"`
}

// Todo is an action item the user wants tracked.
type Todo struct {
	ID          string     `json:"id" yaml:"id"`
	Task        string     `json:"task" yaml:"task"`
	Completed   bool       `json:"completed" yaml:"completed"`
	Priority    int        `json:"priority" yaml:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Tags        []string   `json:"tags" yaml:"tags"`
}

// NewInstruction builds an instruction with a fresh id and timestamps.
func NewInstruction(content string, priority int) (Instruction, error) {
	now := Now()
	in := Instruction{
		ID:        NewID(),
		Content:   content,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := in.Validate(); err != nil {
		return Instruction{}, err
	}
	return in, nil
}

// NewFact builds a fact with a fresh id and timestamps.
func NewFact(category, key, value string, confidence float64) (Fact, error) {
	now := Now()
	f := Fact{
		ID:         NewID(),
		Category:   category,
		Key:        key,
		Value:      value,
		Confidence: confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := f.Validate(); err != nil {
		return Fact{}, err
	}
	return f, nil
}

// NewTodo builds an incomplete todo with a fresh id and creation time.
func NewTodo(task string, priority int, tags ...string) (Todo, error) {
	if tags == nil {
		tags = []string{}
	}
	t := Todo{
		ID:        NewID(),
		Task:      task,
		Priority:  priority,
		CreatedAt: Now(),
		Tags:      tags,
	}
	if err := t.Validate(); err != nil {
		return Todo{}, err
	}
	return t, nil
}

// DefaultInstruction returns the instruction seeded into a new store.
func DefaultInstruction() Instruction {
	in, err := NewInstruction(DefaultInstructionContent, MaxInstructionPriority)
	if err != nil {
		panic(err)
	}
	return in
}

// Now returns the current time in UTC without a monotonic reading, so it
// survives a JSON round trip unchanged.
func Now() time.Time {
	return time.Now().UTC()
}

// Validate checks the instruction's field constraints.
func (in Instruction) Validate() error {
	if in.ID == "" {
		return invalid(KindInstruction, "id", in.ID, "is required")
	}
	if in.Content == "" {
		return invalid(KindInstruction, "content", in.Content, "is required")
	}
	if in.Priority < MinInstructionPriority || in.Priority > MaxInstructionPriority {
		return invalid(KindInstruction, "priority", in.Priority,
			fmt.Sprintf("must be between %d and %d", MinInstructionPriority, MaxInstructionPriority))
	}
	return nil
}

// Validate checks the fact's field constraints.
func (f Fact) Validate() error {
	if f.ID == "" {
		return invalid(KindFact, "id", f.ID, "is required")
	}
	if f.Category == "" {
		return invalid(KindFact, "category", f.Category, "is required")
	}
	if f.Key == "" {
		return invalid(KindFact, "key", f.Key, "is required")
	}
	if !(f.Confidence >= 0 && f.Confidence <= 1) {
		return invalid(KindFact, "confidence", f.Confidence, "must be between 0.0 and 1.0")
	}
	return nil
}

// Validate checks the todo's field constraints.
func (t Todo) Validate() error {
	if t.ID == "" {
		return invalid(KindTodo, "id", t.ID, "is required")
	}
	if t.Task == "" {
		return invalid(KindTodo, "task", t.Task, "is required")
	}
	if t.Priority < MinTodoPriority || t.Priority > MaxTodoPriority {
		return invalid(KindTodo, "priority", t.Priority,
			fmt.Sprintf("must be between %d and %d", MinTodoPriority, MaxTodoPriority))
	}
	return nil
}

// UnmarshalJSON decodes an instruction and rejects it if it is invalid.
func (in *Instruction) UnmarshalJSON(b []byte) error {
	type raw Instruction
	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	if err := Instruction(r).Validate(); err != nil {
		return err
	}
	*in = Instruction(r).UTC()
	return nil
}

// UnmarshalJSON decodes a fact and rejects it if it is invalid.
func (f *Fact) UnmarshalJSON(b []byte) error {
	type raw Fact
	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	if err := Fact(r).Validate(); err != nil {
		return err
	}
	*f = Fact(r).UTC()
	return nil
}

// UnmarshalJSON decodes a todo and rejects it if it is invalid.
func (t *Todo) UnmarshalJSON(b []byte) error {
	type raw Todo
	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	if err := Todo(r).Validate(); err != nil {
		return err
	}
	*t = Todo(r).UTC()
	return nil
}

// UTC returns the instruction with its timestamps in UTC. Records are stored
// in UTC, so a record built with another location compares equal to its
// stored copy under time.Equal but not reflect.DeepEqual until normalized.
func (in Instruction) UTC() Instruction {
	in.CreatedAt = in.CreatedAt.UTC()
	in.UpdatedAt = in.UpdatedAt.UTC()
	return in
}

// UTC returns the fact with its timestamps in UTC.
func (f Fact) UTC() Fact {
	f.CreatedAt = f.CreatedAt.UTC()
	f.UpdatedAt = f.UpdatedAt.UTC()
	return f
}

// UTC returns the todo with its timestamps in UTC.
func (t Todo) UTC() Todo {
	t.CreatedAt = t.CreatedAt.UTC()
	t.DueDate = utcPtr(t.DueDate)
	t.CompletedAt = utcPtr(t.CompletedAt)
	return t
}

func utcPtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	u := p.UTC()
	return &u
}
