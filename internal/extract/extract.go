// Package extract turns conversation text into proposed memory updates by
// asking a language model.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/personal-assistant/internal/events"
	"github.com/rcliao/personal-assistant/internal/llm"
	"github.com/rcliao/personal-assistant/internal/model"
)

// ErrExtractionUnavailable means no usable batch could be produced. Callers
// treat it as "nothing to apply".
var ErrExtractionUnavailable = errors.New("extraction unavailable")

// Extractor proposes a batch from a conversation and the current memory context.
type Extractor interface {
	Extract(ctx context.Context, conversation, currentContext string) (*model.MemoryUpdate, error)
}

// Lookup resolves existing records so updates keep fields the model omits.
type Lookup interface {
	GetInstruction(ctx context.Context, id string) (model.Instruction, error)
	GetFact(ctx context.Context, id string) (model.Fact, error)
	GetTodo(ctx context.Context, id string) (model.Todo, error)
}

// LLMExtractor implements Extractor on top of an llm.Provider.
type LLMExtractor struct {
	provider llm.Provider
	lookup   Lookup
	recorder events.Recorder
	logger   *slog.Logger
}

// Option configures an LLMExtractor.
type Option func(*LLMExtractor)

// WithLookup lets updates start from the stored record.
func WithLookup(l Lookup) Option {
	return func(e *LLMExtractor) { e.lookup = l }
}

// WithRecorder records one extraction event per call.
func WithRecorder(r events.Recorder) Option {
	return func(e *LLMExtractor) { e.recorder = r }
}

func New(p llm.Provider, opts ...Option) *LLMExtractor {
	e := &LLMExtractor{provider: p, recorder: events.Nop{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// QuickExtract extracts from a single user/assistant exchange.
func QuickExtract(ctx context.Context, e Extractor, userMessage, assistantReply, currentContext string) (*model.MemoryUpdate, error) {
	return e.Extract(ctx, fmt.Sprintf("User: %s\nAssistant: %s", userMessage, assistantReply), currentContext)
}

// Extract asks the model for a batch. Every failure, including a reply that
// does not parse or a record that fails validation, is reported as
// ErrExtractionUnavailable.
func (e *LLMExtractor) Extract(ctx context.Context, conversation, currentContext string) (*model.MemoryUpdate, error) {
	u, err := e.extract(ctx, conversation, currentContext)
	e.recorder.Emit(ctx, events.New(events.TypeExtraction, map[string]any{
		"input":   truncate(conversation, 200),
		"output":  u,
		"success": err == nil,
	}))
	if err != nil {
		e.recorder.Emit(ctx, events.Error(err, "extract.LLMExtractor.Extract"))
		return nil, fmt.Errorf("%w: %w", ErrExtractionUnavailable, err)
	}
	return u, nil
}

func (e *LLMExtractor) extract(ctx context.Context, conversation, currentContext string) (*model.MemoryUpdate, error) {
	reply, err := e.provider.Complete(ctx, llm.Request{
		System:      fmt.Sprintf(systemPrompt, currentContext),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: fmt.Sprintf(userPrompt, conversation)}},
		MaxTokens:   2048,
		Temperature: llm.Temperature(0),
	})
	if err != nil {
		return nil, err
	}
	w, err := parseReply(reply)
	if err != nil {
		return nil, err
	}
	u, err := e.build(ctx, w)
	if err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	e.logger.Debug("extract: batch proposed", "operations", u.Len())
	return u, nil
}

// parseReply decodes the outermost JSON object in reply. Models often wrap
// the object in prose or a code fence.
func parseReply(reply string) (*wireUpdate, error) {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end < start {
		return nil, errors.New("no JSON object in reply")
	}
	var w wireUpdate
	if err := json.Unmarshal([]byte(reply[start:end+1]), &w); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &w, nil
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// The model is told to reference records by the ids it sees in the context.
const systemPrompt = `You are a memory extraction system. Analyze conversations and extract:

1. INSTRUCTIONS: directives about how the assistant should behave
   ("Always be concise", "Use metric units")
2. FACTS: information about the user, with a category such as preferences,
   personal_info, habits, work, hobbies or relationships
3. TODOS: action items the user wants to track

CURRENT MEMORY STATE:
%s

Extract only NEW information or CHANGES to what is already stored.
Priorities: instructions 1-10 (10 highest), todos 1-5 (5 highest).
To update or remove a record, use its id. Explain your changes in "reasoning".`

const userPrompt = `Analyze this conversation and extract memory updates:

%s

Return a single JSON object:
{
  "instructions_to_add": [{"content": "...", "priority": 5}],
  "instructions_to_update": [{"id": "...", "content": "...", "priority": 5}],
  "instructions_to_remove": ["id"],
  "facts_to_add": [{"category": "...", "key": "...", "value": "...", "confidence": 1.0}],
  "facts_to_update": [{"id": "...", "value": "..."}],
  "facts_to_remove": ["id"],
  "todos_to_add": [{"task": "...", "priority": 3, "tags": []}],
  "todos_to_update": [{"id": "...", "completed": true}],
  "todos_to_remove": ["id"],
  "reasoning": "..."
}

Only include lists that have entries. If there is nothing to extract, return {"reasoning": "No memory updates needed"}.`

var _ Extractor = (*LLMExtractor)(nil)
