package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/personal-assistant/internal/llm"
	"github.com/rcliao/personal-assistant/internal/model"
	"github.com/rcliao/personal-assistant/internal/store"
)

type stubProvider struct {
	reply string
	err   error
	last  llm.Request
}

func (s *stubProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	s.last = req
	return s.reply, s.err
}

func TestExtract_Adds(t *testing.T) {
	p := &stubProvider{reply: "Here you go:\n```json\n" + `{
		"facts_to_add": [{"category": "personal", "key": "name", "value": "Sam"}],
		"todos_to_add": [{"task": "Call mom", "priority": 5}, {"task": "Buy milk"}],
		"instructions_to_add": [{"content": "Be concise"}],
		"reasoning": "user introduced themselves"
	}` + "\n```"}
	e := New(p)

	u, err := e.Extract(context.Background(), "User: I'm Sam", "=== CONTEXT ===")
	require.NoError(t, err)
	assert.Equal(t, "user introduced themselves", u.Reasoning)

	require.Len(t, u.FactsToAdd, 1)
	f := u.FactsToAdd[0]
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, model.DefaultConfidence, f.Confidence)
	assert.False(t, f.CreatedAt.IsZero())

	require.Len(t, u.TodosToAdd, 2)
	assert.Equal(t, 5, u.TodosToAdd[0].Priority)
	assert.Equal(t, model.DefaultTodoPriority, u.TodosToAdd[1].Priority)
	assert.Equal(t, []string{}, u.TodosToAdd[1].Tags)

	require.Len(t, u.InstructionsToAdd, 1)
	assert.Equal(t, model.DefaultInstructionPriority, u.InstructionsToAdd[0].Priority)

	require.NotNil(t, p.last.Temperature)
	assert.Equal(t, float32(0), *p.last.Temperature)
	assert.Contains(t, p.last.System, "=== CONTEXT ===")
	require.Len(t, p.last.Messages, 1)
	assert.Contains(t, p.last.Messages[0].Content, "User: I'm Sam")
}

func TestExtract_NothingToDo(t *testing.T) {
	e := New(&stubProvider{reply: `{"reasoning": "No memory updates needed"}`})
	u, err := e.Extract(context.Background(), "User: hi", "")
	require.NoError(t, err)
	assert.False(t, u.HasUpdates())
}

func TestExtract_Unavailable(t *testing.T) {
	cases := map[string]*stubProvider{
		"provider error":  {err: errors.New("rate limited")},
		"no json":         {reply: "I could not find anything."},
		"malformed json":  {reply: `{"facts_to_add": [}`},
		"invalid record":  {reply: `{"todos_to_add": [{"task": "x", "priority": 9}]}`},
		"update no id":    {reply: `{"facts_to_update": [{"value": "x"}]}`},
		"empty remove id": {reply: `{"todos_to_remove": [""]}`},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			u, err := New(p).Extract(context.Background(), "User: hi", "")
			assert.Nil(t, u)
			assert.True(t, errors.Is(err, ErrExtractionUnavailable), "got %v", err)
		})
	}
}

func TestExtract_UpdatesMergeStoredRecord(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	td, err := model.NewTodo("Call mom", 4, "family")
	require.NoError(t, err)
	require.NoError(t, st.AddTodo(ctx, td))
	f, err := model.NewFact("personal", "city", "Lisbon", 0.8)
	require.NoError(t, err)
	require.NoError(t, st.AddFact(ctx, f))

	p := &stubProvider{reply: `{
		"todos_to_update": [{"id": "` + td.ID + `", "completed": true}],
		"facts_to_update": [{"id": "` + f.ID + `", "value": "Porto"}]
	}`}
	u, err := New(p, WithLookup(st)).Extract(ctx, "User: done, and I moved", "")
	require.NoError(t, err)

	require.Len(t, u.TodosToUpdate, 1)
	got := u.TodosToUpdate[0]
	assert.Equal(t, "Call mom", got.Task)
	assert.Equal(t, 4, got.Priority)
	assert.Equal(t, []string{"family"}, got.Tags)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CreatedAt.Equal(td.CreatedAt))

	require.Len(t, u.FactsToUpdate, 1)
	gf := u.FactsToUpdate[0]
	assert.Equal(t, "Porto", gf.Value)
	assert.Equal(t, "city", gf.Key)
	assert.Equal(t, 0.8, gf.Confidence)
	assert.False(t, gf.UpdatedAt.Before(f.UpdatedAt))
}

func TestQuickExtract(t *testing.T) {
	p := &stubProvider{reply: `{}`}
	_, err := QuickExtract(context.Background(), New(p), "remind me", "sure", "")
	require.NoError(t, err)
	assert.Contains(t, p.last.Messages[0].Content, "User: remind me\nAssistant: sure")
}

func TestParseReply(t *testing.T) {
	w, err := parseReply(`noise {"reasoning": "ok", "todos_to_remove": ["a"]} trailing`)
	require.NoError(t, err)
	assert.Equal(t, "ok", w.Reasoning)
	assert.Equal(t, []string{"a"}, w.TodosToRemove)

	_, err = parseReply("} backwards {")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))

	// "é" is two bytes; a cut inside it backs up to the rune start.
	got := truncate("aé", 2)
	assert.Equal(t, "a...", got)
	assert.True(t, utf8.ValidString(got))

	got = truncate(strings.Repeat("日本", 100), 200)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 203)
}
