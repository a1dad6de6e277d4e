package store

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rcliao/personal-assistant/internal/model"
)

func newTestStore(t *testing.T, opts ...Option) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "memories"), opts...)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return s
}

func mustTodo(t *testing.T, task string, priority int) model.Todo {
	t.Helper()
	td, err := model.NewTodo(task, priority)
	if err != nil {
		t.Fatalf("new todo: %v", err)
	}
	return td
}

func mustInstruction(t *testing.T, content string, priority int) model.Instruction {
	t.Helper()
	in, err := model.NewInstruction(content, priority)
	if err != nil {
		t.Fatalf("new instruction: %v", err)
	}
	return in
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return b
}

func TestFreshStoreDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	instructions, err := s.ListInstructions(ctx)
	if err != nil {
		t.Fatalf("list instructions: %v", err)
	}
	if len(instructions) != 1 {
		t.Fatalf("expected 1 seeded instruction, got %d", len(instructions))
	}
	if instructions[0].Priority != 10 || instructions[0].Content != model.DefaultInstructionContent {
		t.Errorf("unexpected seeded instruction: %+v", instructions[0])
	}

	facts, _ := s.ListFacts(ctx, FactFilter{})
	if len(facts) != 0 {
		t.Errorf("expected 0 facts, got %d", len(facts))
	}
	todos, _ := s.ListTodos(ctx, TodoFilter{IncludeCompleted: true})
	if len(todos) != 0 {
		t.Errorf("expected 0 todos, got %d", len(todos))
	}

	for _, name := range []string{InstructionsFile, FactsFile, TodosFile} {
		if _, err := os.Stat(filepath.Join(s.Dir(), name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

func TestReopenDoesNotReseed(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "memories")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	seeded, _ := s.ListInstructions(ctx)
	if err := s.RemoveInstruction(ctx, seeded[0].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	s.AddTodo(ctx, mustTodo(t, "persist me", 2))

	s2, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	instructions, _ := s2.ListInstructions(ctx)
	if len(instructions) != 0 {
		t.Errorf("expected no instructions after reopen, got %d", len(instructions))
	}
	todos, _ := s2.ListTodos(ctx, TodoFilter{})
	if len(todos) != 1 || todos[0].Task != "persist me" {
		t.Errorf("expected persisted todo, got %+v", todos)
	}
}

func TestTodoPriorityScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AddTodo(ctx, mustTodo(t, "Buy milk", 3)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddTodo(ctx, mustTodo(t, "Call mom", 5)); err != nil {
		t.Fatalf("add: %v", err)
	}

	todos, err := s.ListTodos(ctx, TodoFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var tasks []string
	for _, td := range todos {
		tasks = append(tasks, td.Task)
	}
	if strings.Join(tasks, ",") != "Call mom,Buy milk" {
		t.Errorf("expected [Call mom Buy milk], got %v", tasks)
	}
}

func TestAddThenRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	f, _ := model.NewFact("work", "job", "software engineer", 0.9)
	if err := s.AddFact(ctx, f); err != nil {
		t.Fatalf("add: %v", err)
	}
	facts, _ := s.ListFacts(ctx, FactFilter{})
	count := 0
	for _, got := range facts {
		if got.ID == f.ID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected fact exactly once, got %d", count)
	}

	if err := s.RemoveFact(ctx, f.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	facts, _ = s.ListFacts(ctx, FactFilter{})
	if len(facts) != 0 {
		t.Errorf("expected fact to be gone, got %d", len(facts))
	}
}

func TestInstructionsSortedStable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seeded, _ := s.ListInstructions(ctx)
	s.RemoveInstruction(ctx, seeded[0].ID)

	for _, in := range []model.Instruction{
		mustInstruction(t, "a", 3),
		mustInstruction(t, "b", 8),
		mustInstruction(t, "c", 3),
		mustInstruction(t, "d", 10),
		mustInstruction(t, "e", 8),
	} {
		if err := s.AddInstruction(ctx, in); err != nil {
			t.Fatalf("add %s: %v", in.Content, err)
		}
	}

	got, _ := s.ListInstructions(ctx)
	var order []string
	for _, in := range got {
		order = append(order, in.Content)
	}
	if strings.Join(order, "") != "dbeac" {
		t.Errorf("expected order dbeac, got %s", strings.Join(order, ""))
	}
}

func TestTodoOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mk := func(task string, priority int, completed bool, age time.Duration) model.Todo {
		td := mustTodo(t, task, priority)
		td.Completed = completed
		td.CreatedAt = base.Add(age)
		return td
	}
	for _, td := range []model.Todo{
		mk("done-high", 5, true, 0),
		mk("low-old", 1, false, time.Hour),
		mk("mid-new", 3, false, 3*time.Hour),
		mk("mid-old", 3, false, 2*time.Hour),
		mk("high", 5, false, 4*time.Hour),
	} {
		if err := s.AddTodo(ctx, td); err != nil {
			t.Fatal(err)
		}
	}

	all, _ := s.ListTodos(ctx, TodoFilter{IncludeCompleted: true})
	var order []string
	for _, td := range all {
		order = append(order, td.Task)
	}
	want := "high,mid-old,mid-new,low-old,done-high"
	if strings.Join(order, ",") != want {
		t.Errorf("expected %s, got %s", want, strings.Join(order, ","))
	}

	open, _ := s.ListTodos(ctx, TodoFilter{})
	if len(open) != 4 {
		t.Errorf("expected completed todos excluded by default, got %d", len(open))
	}
}

func TestFactsFilterAndRecency(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mk := func(category, key string, age time.Duration) model.Fact {
		f, err := model.NewFact(category, key, "v", 1)
		if err != nil {
			t.Fatal(err)
		}
		f.UpdatedAt = base.Add(age)
		return f
	}
	for _, f := range []model.Fact{
		mk("hobbies", "old", time.Hour),
		mk("work", "role", 2*time.Hour),
		mk("hobbies", "new", 3*time.Hour),
	} {
		s.AddFact(ctx, f)
	}

	all, _ := s.ListFacts(ctx, FactFilter{})
	if len(all) != 3 || all[0].Key != "new" || all[2].Key != "old" {
		t.Errorf("expected most recently updated first, got %+v", all)
	}

	hobbies, _ := s.ListFacts(ctx, FactFilter{Category: "hobbies"})
	if len(hobbies) != 2 || hobbies[0].Key != "new" || hobbies[1].Key != "old" {
		t.Errorf("unexpected category filter result: %+v", hobbies)
	}
}

func TestUpdateInPlace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := mustTodo(t, "a", 3)
	b := mustTodo(t, "b", 3)
	c := mustTodo(t, "c", 3)
	b.CreatedAt = a.CreatedAt
	c.CreatedAt = a.CreatedAt
	for _, td := range []model.Todo{a, b, c} {
		s.AddTodo(ctx, td)
	}

	b.Task = "b-renamed"
	b.Tags = []string{"edited"}
	if err := s.UpdateTodo(ctx, b); err != nil {
		t.Fatalf("update: %v", err)
	}

	todos, _ := s.ListTodos(ctx, TodoFilter{})
	if len(todos) != 3 {
		t.Fatalf("expected 3 todos, got %d", len(todos))
	}
	if todos[0].ID != a.ID || todos[1].ID != b.ID || todos[2].ID != c.ID {
		t.Errorf("update changed order: %+v", todos)
	}
	if todos[1].Task != "b-renamed" || len(todos[1].Tags) != 1 {
		t.Errorf("update not applied: %+v", todos[1])
	}
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.AddTodo(ctx, mustTodo(t, "keep", 2))
	path := filepath.Join(s.Dir(), TodosFile)
	before := readFile(t, path)

	ghost := mustTodo(t, "ghost", 2)
	if err := s.UpdateTodo(ctx, ghost); err != nil {
		t.Fatalf("update unknown id: %v", err)
	}
	if err := s.RemoveTodo(ctx, "missing-id"); err != nil {
		t.Fatalf("remove unknown id: %v", err)
	}

	if !bytes.Equal(before, readFile(t, path)) {
		t.Error("file changed after no-op update/remove")
	}
}

func TestStrictMode(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, WithStrict())

	ghost := mustInstruction(t, "ghost", 4)
	if err := s.UpdateInstruction(ctx, ghost); !errors.Is(err, ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}
	if err := s.RemoveFact(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("remove: expected ErrNotFound, got %v", err)
	}
}

func TestAddDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	td := mustTodo(t, "once", 3)

	if err := s.AddTodo(ctx, td); err != nil {
		t.Fatal(err)
	}
	if err := s.AddTodo(ctx, td); err != nil {
		t.Fatalf("re-adding identical record should be a no-op: %v", err)
	}
	todos, _ := s.ListTodos(ctx, TodoFilter{})
	if len(todos) != 1 {
		t.Fatalf("expected 1 todo, got %d", len(todos))
	}

	changed := td
	changed.Task = "twice"
	if err := s.AddTodo(ctx, changed); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestAddInvalidRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	td := mustTodo(t, "bad", 3)
	td.Priority = 9

	err := s.AddTodo(ctx, td)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	todos, _ := s.ListTodos(ctx, TodoFilter{})
	if len(todos) != 0 {
		t.Error("invalid todo should not be stored")
	}
}

func TestAddFactNaNConfidence(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	before := readFile(t, s.Paths()[model.KindFact])

	f := model.Fact{ID: model.NewID(), Category: "prefs", Key: "k", Value: "v",
		Confidence: math.NaN(), CreatedAt: model.Now(), UpdatedAt: model.Now()}
	err := s.AddFact(ctx, f)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	var serr *StorageError
	if errors.As(err, &serr) {
		t.Errorf("NaN confidence should not reach the encoder: %v", err)
	}
	if !bytes.Equal(before, readFile(t, s.Paths()[model.KindFact])) {
		t.Error("facts file changed")
	}
}

func TestNonUTCRecordStoredInUTC(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	zone := time.FixedZone("UTC-5", -5*3600)
	td := mustTodo(t, "Call mom", 3)
	td.CreatedAt = td.CreatedAt.In(zone)

	if err := s.AddTodo(ctx, td); err != nil {
		t.Fatal(err)
	}
	// Re-adding the same record in its original zone is still a no-op.
	if err := s.AddTodo(ctx, td); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	got, err := s.GetTodo(ctx, td.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CreatedAt.Location() != time.UTC || !got.CreatedAt.Equal(td.CreatedAt) {
		t.Errorf("created_at: got %v, want %v in UTC", got.CreatedAt, td.CreatedAt)
	}
}

func TestCorruptCollectionFailsOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "memories")
	if _, err := NewFileStore(dir); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, FactsFile), []byte(`[{"id": "x", "category": `), 0o600)

	_, err := NewFileStore(dir)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	var serr *StorageError
	if !errors.As(err, &serr) || serr.Kind != model.KindFact {
		t.Errorf("expected StorageError for facts, got %v", err)
	}
}

func TestSchemaViolationIsCorrupt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "memories")
	os.MkdirAll(dir, 0o750)
	os.WriteFile(filepath.Join(dir, TodosFile), []byte(`[{"id":"t1","task":"x","priority":99,"tags":[]}]`), 0o600)

	if _, err := NewFileStore(dir); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for out-of-range priority, got %v", err)
	}
}

func TestDuplicateIDsInFileIsCorrupt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "memories")
	os.MkdirAll(dir, 0o750)
	row := `{"id":"i1","content":"x","priority":5,"created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-01T00:00:00Z"}`
	os.WriteFile(filepath.Join(dir, InstructionsFile), []byte("["+row+","+row+"]"), 0o600)

	if _, err := NewFileStore(dir); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for duplicate ids, got %v", err)
	}
}

func TestCorruptAfterOpenSurfacesOnRead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	os.WriteFile(filepath.Join(s.Dir(), TodosFile), []byte("not json"), 0o600)

	if _, err := s.ListTodos(ctx, TodoFilter{}); !errors.Is(err, ErrCorrupt) {
		t.Errorf("list: expected ErrCorrupt, got %v", err)
	}
	if err := s.AddTodo(ctx, mustTodo(t, "x", 1)); !errors.Is(err, ErrCorrupt) {
		t.Errorf("add: expected ErrCorrupt, got %v", err)
	}
	if got := string(readFile(t, filepath.Join(s.Dir(), TodosFile))); got != "not json" {
		t.Errorf("corrupt file should not be overwritten, got %q", got)
	}
}

func TestWriteFailureKeepsPriorState(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	ctx := context.Background()
	s := newTestStore(t)
	s.AddTodo(ctx, mustTodo(t, "existing", 3))
	path := filepath.Join(s.Dir(), TodosFile)
	before := readFile(t, path)

	if err := os.Chmod(s.Dir(), 0o500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(s.Dir(), 0o750) })

	err := s.AddTodo(ctx, mustTodo(t, "blocked", 3))
	var serr *StorageError
	if !errors.As(err, &serr) || serr.Op != "write" {
		t.Fatalf("expected write StorageError, got %v", err)
	}
	if !bytes.Equal(before, readFile(t, path)) {
		t.Error("failed write changed the collection file")
	}
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		s.AddTodo(ctx, mustTodo(t, "t", 3))
	}
	entries, _ := os.ReadDir(s.Dir())
	if len(entries) != 3 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only 3 collection files, got %v", names)
	}
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	td := mustTodo(t, "find me", 4)
	s.AddTodo(ctx, td)

	got, err := s.GetTodo(ctx, td.ID)
	if err != nil || got.Task != "find me" {
		t.Errorf("get: %+v, %v", got, err)
	}
	if _, err := s.GetFact(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newTestStore(t)
	if err := s.AddTodo(ctx, mustTodo(t, "x", 1)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
