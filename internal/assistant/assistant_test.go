package assistant

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/personal-assistant/internal/events"
	"github.com/rcliao/personal-assistant/internal/extract"
	"github.com/rcliao/personal-assistant/internal/llm"
	"github.com/rcliao/personal-assistant/internal/memory"
	"github.com/rcliao/personal-assistant/internal/store"
)

// scriptedProvider answers chat turns with chatReply and extraction prompts
// with extractReply.
type scriptedProvider struct {
	chatReply    string
	extractReply string
	err          error
	chats        []llm.Request
}

func (p *scriptedProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	if strings.HasPrefix(req.System, "You are a memory extraction system") {
		return p.extractReply, nil
	}
	p.chats = append(p.chats, req)
	return p.chatReply, p.err
}

func setup(t *testing.T, p *scriptedProvider, opts ...Option) (*Assistant, *memory.Manager, *events.JSONLRecorder) {
	t.Helper()
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	rec, err := events.NewJSONLRecorder(t.TempDir())
	require.NoError(t, err)
	m := memory.NewManager(st, rec)
	ex := extract.New(p, extract.WithLookup(st), extract.WithRecorder(rec))
	opts = append([]Option{WithExtractor(ex), WithRecorder(rec)}, opts...)
	return New(p, m, opts...), m, rec
}

func TestChat_RemembersExtractedTodo(t *testing.T) {
	ctx := context.Background()
	p := &scriptedProvider{
		chatReply:    "I'll remember that.",
		extractReply: `{"todos_to_add": [{"task": "Call mom", "priority": 5}], "reasoning": "reminder"}`,
	}
	a, m, _ := setup(t, p)

	reply := a.Chat(ctx, "Remind me to call mom")
	assert.Equal(t, "I'll remember that.", reply)

	todos, err := m.Todos(ctx, false)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "Call mom", todos[0].Task)

	a.Chat(ctx, "What do I need to do?")
	require.Len(t, p.chats, 2)
	assert.Contains(t, p.chats[1].System, "○ [P5] Call mom")
	assert.Len(t, p.chats[1].Messages, 3)
	assert.Nil(t, p.chats[1].Temperature, "chat turns use the provider's default temperature")
}

func TestChat_AutoExtractOff(t *testing.T) {
	ctx := context.Background()
	p := &scriptedProvider{
		chatReply:    "ok",
		extractReply: `{"todos_to_add": [{"task": "Call mom"}]}`,
	}
	a, m, _ := setup(t, p, WithAutoExtract(false))

	a.Chat(ctx, "Remind me to call mom")
	todos, err := m.Todos(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestChat_BadExtractionAppliesNothing(t *testing.T) {
	ctx := context.Background()
	p := &scriptedProvider{chatReply: "ok", extractReply: "not json at all"}
	a, m, _ := setup(t, p)

	assert.Equal(t, "ok", a.Chat(ctx, "hello"))
	todos, err := m.Todos(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestChat_ProviderErrorIsReply(t *testing.T) {
	ctx := context.Background()
	p := &scriptedProvider{err: errors.New("overloaded")}
	a, _, rec := setup(t, p)

	reply := a.Chat(ctx, "hello")
	assert.Equal(t, "I encountered an error: overloaded", reply)
	assert.Empty(t, a.History())

	sum, err := rec.Summary(ctx)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, c := range sum.Counts {
		counts[c.Type] = c.Count
	}
	assert.Equal(t, 1, counts[events.TypeError])
	assert.Equal(t, 1, counts[events.TypeMessage])
}

func TestClearConversation(t *testing.T) {
	ctx := context.Background()
	p := &scriptedProvider{chatReply: "hi", extractReply: `{}`}
	a, _, _ := setup(t, p)

	a.Chat(ctx, "hello")
	assert.Len(t, a.History(), 2)
	a.ClearConversation(ctx)
	assert.Empty(t, a.History())

	a.Chat(ctx, "again")
	assert.Len(t, p.chats[1].Messages, 1)
}

func TestSessionSummary(t *testing.T) {
	ctx := context.Background()
	p := &scriptedProvider{chatReply: "hi", extractReply: `{}`}
	a, _, _ := setup(t, p)

	a.Chat(ctx, "hello")
	got, err := a.SessionSummary(ctx)
	require.NoError(t, err)
	assert.Contains(t, got, "=== SESSION SUMMARY ===")
	assert.Contains(t, got, "message: 2")
	assert.Contains(t, got, "agent_action: 1")

	bare := New(p, nil)
	got, err = bare.SessionSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "No events logged yet.", got)
}
