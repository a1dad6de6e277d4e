// Package assistant runs the conversation loop: it answers with the current
// memory in the system prompt and feeds each exchange to the extractor.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rcliao/personal-assistant/internal/events"
	"github.com/rcliao/personal-assistant/internal/extract"
	"github.com/rcliao/personal-assistant/internal/llm"
	"github.com/rcliao/personal-assistant/internal/memory"
)

const systemTemplate = `You are a helpful personal assistant with memory capabilities.

%s
Your role:
1. Help the user with questions and tasks
2. Remember information about the user (this happens automatically)
3. Track and manage their todos
4. Follow the instructions provided above
5. Be conversational and helpful

When the user shares information about themselves or asks you to remember
something, acknowledge it naturally. The system stores it for you.

When discussing todos, be specific and actionable.
`

// Assistant holds one conversation. Concurrent Chat calls are serialized.
type Assistant struct {
	provider    llm.Provider
	manager     *memory.Manager
	extractor   extract.Extractor
	recorder    events.Recorder
	autoExtract bool
	logger      *slog.Logger

	mu      sync.Mutex
	history []llm.Message
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithExtractor enables memory extraction after each reply.
func WithExtractor(e extract.Extractor) Option {
	return func(a *Assistant) { a.extractor = e }
}

// WithRecorder sets where events go. The recorder also answers SessionSummary
// when it implements events.Reader.
func WithRecorder(r events.Recorder) Option {
	return func(a *Assistant) { a.recorder = r }
}

// WithAutoExtract turns extraction on or off. It is on by default.
func WithAutoExtract(on bool) Option {
	return func(a *Assistant) { a.autoExtract = on }
}

func New(p llm.Provider, m *memory.Manager, opts ...Option) *Assistant {
	a := &Assistant{
		provider:    p,
		manager:     m,
		recorder:    events.Nop{},
		autoExtract: true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.recorder.Emit(context.Background(), events.AgentAction("initialized", map[string]any{
		"auto_extract": a.autoExtract && a.extractor != nil,
	}))
	return a
}

// Chat answers one user message. Provider failures come back as the reply
// text so the conversation can go on; they are not added to history.
func (a *Assistant) Chat(ctx context.Context, message string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.recorder.Emit(ctx, events.Message(string(llm.RoleUser), message))

	reply, err := a.complete(ctx, message)
	if err != nil {
		a.recorder.Emit(ctx, events.Error(err, "assistant.Chat"))
		return fmt.Sprintf("I encountered an error: %v", err)
	}
	a.recorder.Emit(ctx, events.Message(string(llm.RoleAssistant), reply))
	a.history = append(a.history,
		llm.Message{Role: llm.RoleUser, Content: message},
		llm.Message{Role: llm.RoleAssistant, Content: reply},
	)

	if a.autoExtract && a.extractor != nil {
		a.remember(ctx, message, reply)
	}
	return reply
}

func (a *Assistant) complete(ctx context.Context, message string) (string, error) {
	summary, err := a.manager.ContextSummary(ctx)
	if err != nil {
		return "", err
	}
	msgs := make([]llm.Message, 0, len(a.history)+1)
	msgs = append(msgs, a.history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})
	return a.provider.Complete(ctx, llm.Request{
		System:   fmt.Sprintf(systemTemplate, summary),
		Messages: msgs,
	})
}

// remember extracts from the exchange and applies what comes back. Failures
// are logged and recorded; the reply is unaffected.
func (a *Assistant) remember(ctx context.Context, message, reply string) {
	reference, err := a.manager.ReferenceSummary(ctx)
	if err != nil {
		a.logger.Warn("assistant: read memory for extraction", "err", err)
		return
	}
	u, err := extract.QuickExtract(ctx, a.extractor, message, reply, reference)
	if err != nil {
		if errors.Is(err, extract.ErrExtractionUnavailable) {
			a.logger.Debug("assistant: no extraction", "err", err)
		} else {
			a.logger.Warn("assistant: extraction", "err", err)
		}
		return
	}
	if !u.HasUpdates() {
		return
	}
	res, err := a.manager.Apply(ctx, u)
	if err != nil {
		a.logger.Warn("assistant: apply extracted memory", "err", err)
		return
	}
	a.logger.Debug("assistant: memory updated", "added", res.Added, "updated", res.Updated, "removed", res.Removed)
}

// ClearConversation drops the history. Stored memory is kept.
func (a *Assistant) ClearConversation(ctx context.Context) {
	a.mu.Lock()
	a.history = nil
	a.mu.Unlock()
	a.recorder.Emit(ctx, events.AgentAction("conversation_cleared", nil))
}

// History returns a copy of the conversation so far.
func (a *Assistant) History() []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]llm.Message(nil), a.history...)
}

// SessionSummary reports the session's event counts.
func (a *Assistant) SessionSummary(ctx context.Context) (string, error) {
	r, ok := a.recorder.(events.Reader)
	if !ok {
		return (&events.Summary{}).String(), nil
	}
	s, err := r.Summary(ctx)
	if err != nil {
		return "", fmt.Errorf("session summary: %w", err)
	}
	return s.String(), nil
}
