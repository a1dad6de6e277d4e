package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/personal-assistant/internal/model"
	"github.com/rcliao/personal-assistant/internal/store"
)

// wireUpdate is the shape the model replies with. Added records carry no id
// or timestamps; updated records carry an id and only the fields that change.
type wireUpdate struct {
	InstructionsToAdd    []wireInstruction `json:"instructions_to_add"`
	InstructionsToUpdate []wireInstruction `json:"instructions_to_update"`
	InstructionsToRemove []string          `json:"instructions_to_remove"`

	FactsToAdd    []wireFact `json:"facts_to_add"`
	FactsToUpdate []wireFact `json:"facts_to_update"`
	FactsToRemove []string   `json:"facts_to_remove"`

	TodosToAdd    []wireTodo `json:"todos_to_add"`
	TodosToUpdate []wireTodo `json:"todos_to_update"`
	TodosToRemove []string   `json:"todos_to_remove"`

	Reasoning string `json:"reasoning"`
}

type wireInstruction struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Priority int    `json:"priority"`
}

type wireFact struct {
	ID         string   `json:"id"`
	Category   string   `json:"category"`
	Key        string   `json:"key"`
	Value      string   `json:"value"`
	Confidence *float64 `json:"confidence"`
	Source     string   `json:"source"`
}

type wireTodo struct {
	ID        string     `json:"id"`
	Task      string     `json:"task"`
	Completed *bool      `json:"completed"`
	Priority  int        `json:"priority"`
	DueDate   *time.Time `json:"due_date"`
	Tags      []string   `json:"tags"`
}

func (e *LLMExtractor) build(ctx context.Context, w *wireUpdate) (*model.MemoryUpdate, error) {
	u := &model.MemoryUpdate{
		InstructionsToRemove: w.InstructionsToRemove,
		FactsToRemove:        w.FactsToRemove,
		TodosToRemove:        w.TodosToRemove,
		Reasoning:            w.Reasoning,
	}

	for _, wi := range w.InstructionsToAdd {
		priority := wi.Priority
		if priority == 0 {
			priority = model.DefaultInstructionPriority
		}
		in, err := model.NewInstruction(wi.Content, priority)
		if err != nil {
			return nil, fmt.Errorf("instructions_to_add: %w", err)
		}
		u.InstructionsToAdd = append(u.InstructionsToAdd, in)
	}
	for _, wi := range w.InstructionsToUpdate {
		in, err := e.instructionUpdate(ctx, wi)
		if err != nil {
			return nil, fmt.Errorf("instructions_to_update: %w", err)
		}
		u.InstructionsToUpdate = append(u.InstructionsToUpdate, in)
	}

	for _, wf := range w.FactsToAdd {
		confidence := model.DefaultConfidence
		if wf.Confidence != nil {
			confidence = *wf.Confidence
		}
		f, err := model.NewFact(wf.Category, wf.Key, wf.Value, confidence)
		if err != nil {
			return nil, fmt.Errorf("facts_to_add: %w", err)
		}
		f.Source = wf.Source
		u.FactsToAdd = append(u.FactsToAdd, f)
	}
	for _, wf := range w.FactsToUpdate {
		f, err := e.factUpdate(ctx, wf)
		if err != nil {
			return nil, fmt.Errorf("facts_to_update: %w", err)
		}
		u.FactsToUpdate = append(u.FactsToUpdate, f)
	}

	for _, wt := range w.TodosToAdd {
		priority := wt.Priority
		if priority == 0 {
			priority = model.DefaultTodoPriority
		}
		t, err := model.NewTodo(wt.Task, priority, wt.Tags...)
		if err != nil {
			return nil, fmt.Errorf("todos_to_add: %w", err)
		}
		t.DueDate = wt.DueDate
		u.TodosToAdd = append(u.TodosToAdd, t)
	}
	for _, wt := range w.TodosToUpdate {
		t, err := e.todoUpdate(ctx, wt)
		if err != nil {
			return nil, fmt.Errorf("todos_to_update: %w", err)
		}
		u.TodosToUpdate = append(u.TodosToUpdate, t)
	}
	return u, nil
}

// base returns the stored record for id, or a fresh record stamped now when
// there is no lookup or the record is gone.
func base[T any](ctx context.Context, e *LLMExtractor, id string, get func(context.Context, string) (T, error), fresh func() T) (T, error) {
	if id == "" {
		var zero T
		return zero, errors.New("update without id")
	}
	if e.lookup == nil {
		return fresh(), nil
	}
	rec, err := get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fresh(), nil
	}
	return rec, err
}

func (e *LLMExtractor) instructionUpdate(ctx context.Context, wi wireInstruction) (model.Instruction, error) {
	now := model.Now()
	in, err := base(ctx, e, wi.ID, e.getInstruction, func() model.Instruction {
		return model.Instruction{ID: wi.ID, Priority: model.DefaultInstructionPriority, CreatedAt: now}
	})
	if err != nil {
		return in, err
	}
	if wi.Content != "" {
		in.Content = wi.Content
	}
	if wi.Priority != 0 {
		in.Priority = wi.Priority
	}
	in.UpdatedAt = now
	return in, nil
}

func (e *LLMExtractor) factUpdate(ctx context.Context, wf wireFact) (model.Fact, error) {
	now := model.Now()
	f, err := base(ctx, e, wf.ID, e.getFact, func() model.Fact {
		return model.Fact{ID: wf.ID, Confidence: model.DefaultConfidence, CreatedAt: now}
	})
	if err != nil {
		return f, err
	}
	if wf.Category != "" {
		f.Category = wf.Category
	}
	if wf.Key != "" {
		f.Key = wf.Key
	}
	if wf.Value != "" {
		f.Value = wf.Value
	}
	if wf.Confidence != nil {
		f.Confidence = *wf.Confidence
	}
	if wf.Source != "" {
		f.Source = wf.Source
	}
	f.UpdatedAt = now
	return f, nil
}

func (e *LLMExtractor) todoUpdate(ctx context.Context, wt wireTodo) (model.Todo, error) {
	now := model.Now()
	t, err := base(ctx, e, wt.ID, e.getTodo, func() model.Todo {
		return model.Todo{ID: wt.ID, Priority: model.DefaultTodoPriority, CreatedAt: now, Tags: []string{}}
	})
	if err != nil {
		return t, err
	}
	if wt.Task != "" {
		t.Task = wt.Task
	}
	if wt.Priority != 0 {
		t.Priority = wt.Priority
	}
	if wt.DueDate != nil {
		t.DueDate = wt.DueDate
	}
	if wt.Tags != nil {
		t.Tags = wt.Tags
	}
	if wt.Completed != nil {
		switch {
		case *wt.Completed && !t.Completed:
			t.CompletedAt = &now
		case !*wt.Completed:
			t.CompletedAt = nil
		}
		t.Completed = *wt.Completed
	}
	return t, nil
}

func (e *LLMExtractor) getInstruction(ctx context.Context, id string) (model.Instruction, error) {
	return e.lookup.GetInstruction(ctx, id)
}

func (e *LLMExtractor) getFact(ctx context.Context, id string) (model.Fact, error) {
	return e.lookup.GetFact(ctx, id)
}

func (e *LLMExtractor) getTodo(ctx context.Context, id string) (model.Todo, error) {
	return e.lookup.GetTodo(ctx, id)
}
