package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/rcliao/personal-assistant/internal/assistant"
	"github.com/rcliao/personal-assistant/internal/extract"
	"github.com/rcliao/personal-assistant/internal/llm"
	"github.com/rcliao/personal-assistant/internal/memory"
)

const rule = "============================================================"

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant",
		Long:  "Start an interactive conversation. Everything the assistant learns is stored in the storage directory.",
		Args:  cobra.NoArgs,
		Run:   runChat,
	}

	cmd.Flags().Bool("no-extract", false, "Do not extract memories from the conversation")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	noExtract, _ := cmd.Flags().GetBool("no-extract")

	provider, err := llm.New(cfg.Provider, cfg.APIKey(), cfg.Model)
	if err != nil {
		exitErr("chat", err)
	}
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	rec, closeRec, err := openRecorder()
	if err != nil {
		exitErr("open event log", err)
	}
	defer closeRec()

	fmt.Println("Initializing Personal Assistant...")
	m := memory.NewManager(s, rec)
	a := assistant.New(provider, m,
		assistant.WithRecorder(rec),
		assistant.WithExtractor(extract.New(provider, extract.WithLookup(s), extract.WithRecorder(rec))),
		assistant.WithAutoExtract(cfg.AutoExtract && !noExtract),
	)

	session := &chatSession{assistant: a, manager: m, out: os.Stdout}
	session.banner()
	session.run(cmd.Context())
}

type chatSession struct {
	assistant *assistant.Assistant
	manager   *memory.Manager
	out       io.Writer
}

func (c *chatSession) banner() {
	fmt.Fprintf(c.out, "\n%s\n  PERSONAL ASSISTANT - Multi-Memory AI Chatbot\n%s\n", rule, rule)
	fmt.Fprint(c.out, "\nCommands:\n"+
		"  /todos         - View your todo list\n"+
		"  /facts         - View facts about you\n"+
		"  /instructions  - View system instructions\n"+
		"  /summary       - View session summary\n"+
		"  /clear         - Clear conversation history\n"+
		"  /quit or /exit - Exit the program\n")
	fmt.Fprintf(c.out, "\n%s\n\n", rule)
}

func (c *chatSession) run(ctx context.Context) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "You: ",
		HistoryFile:     filepath.Join(os.TempDir(), ".personal_assistant_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "/exit",
	})
	if err != nil {
		fmt.Fprintf(c.out, "Error initializing readline: %v\nFalling back to simple input mode...\n", err)
		c.runSimple(ctx, os.Stdin)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out, "\n\nGoodbye! Your memories have been saved.")
			return
		}
		if err != nil {
			fmt.Fprintf(c.out, "\nError: %v\n\n", err)
			continue
		}
		if c.handle(ctx, line) {
			return
		}
	}
}

func (c *chatSession) runSimple(ctx context.Context, in io.Reader) {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "You: ")
		if !sc.Scan() {
			fmt.Fprintln(c.out, "\n\nGoodbye! Your memories have been saved.")
			return
		}
		if c.handle(ctx, sc.Text()) {
			return
		}
	}
}

// handle runs one line of input and reports whether the session should end.
func (c *chatSession) handle(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	var err error
	switch strings.ToLower(input) {
	case "/quit", "/exit":
		fmt.Fprintln(c.out, "\nGoodbye! Your memories have been saved.")
		return true
	case "/todos":
		err = c.printTodos(ctx)
	case "/facts":
		err = c.printFacts(ctx)
	case "/instructions":
		err = c.printInstructions(ctx)
	case "/summary":
		var s string
		s, err = c.assistant.SessionSummary(ctx)
		if err == nil {
			fmt.Fprintf(c.out, "\n%s\n\n", s)
		}
	case "/clear":
		c.assistant.ClearConversation(ctx)
		fmt.Fprint(c.out, "\n🔄 Conversation history cleared (memories preserved)\n\n")
	default:
		fmt.Fprintf(c.out, "\nAssistant: %s\n\n", c.assistant.Chat(ctx, input))
	}
	if err != nil {
		fmt.Fprintf(c.out, "\nError: %v\n\n", err)
	}
	return false
}

func (c *chatSession) printTodos(ctx context.Context) error {
	todos, err := c.manager.Todos(ctx, false)
	if err != nil {
		return err
	}
	if len(todos) == 0 {
		fmt.Fprint(c.out, "\n📋 No todos yet!\n\n")
		return nil
	}
	fmt.Fprintln(c.out, "\n📋 Your Todos:")
	for _, t := range todos {
		fmt.Fprintf(c.out, "  %s\n", memory.FormatTodo(t))
	}
	fmt.Fprintln(c.out)
	return nil
}

// printFacts starts a new category heading whenever the category changes,
// in list order.
func (c *chatSession) printFacts(ctx context.Context) error {
	facts, err := c.manager.Facts(ctx, "")
	if err != nil {
		return err
	}
	if len(facts) == 0 {
		fmt.Fprint(c.out, "\n📚 No facts stored yet!\n\n")
		return nil
	}
	fmt.Fprintln(c.out, "\n📚 Facts About You:")
	current := ""
	for i, f := range facts {
		if i == 0 || f.Category != current {
			current = f.Category
			fmt.Fprintf(c.out, "\n  [%s]\n", strings.ToUpper(f.Category))
		}
		fmt.Fprintf(c.out, "    • %s: %s\n", f.Key, f.Value)
	}
	fmt.Fprintln(c.out)
	return nil
}

func (c *chatSession) printInstructions(ctx context.Context) error {
	instructions, err := c.manager.Instructions(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "\n⚙️  System Instructions:")
	for _, in := range instructions {
		fmt.Fprintf(c.out, "  %s\n", memory.FormatInstruction(in))
	}
	fmt.Fprintln(c.out)
	return nil
}
