package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/personal-assistant/internal/model"
)

func init() {
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Store an instruction, fact or todo",
	}

	instCmd := &cobra.Command{
		Use:   "instruction [content]",
		Short: "Add an instruction for the assistant",
		Long:  "Add an instruction. Content can be a positional arg or piped via stdin.",
		Run:   runAddInstruction,
	}
	instCmd.Flags().IntP("priority", "p", model.DefaultInstructionPriority, "Priority 1-10 (10 highest)")

	factCmd := &cobra.Command{
		Use:   "fact [value]",
		Short: "Add a fact about the user",
		Run:   runAddFact,
	}
	factCmd.Flags().StringP("category", "c", "", "Category (required)")
	factCmd.Flags().StringP("key", "k", "", "Key (required)")
	factCmd.Flags().Float64("confidence", model.DefaultConfidence, "Confidence 0.0-1.0")
	factCmd.Flags().String("source", "", "Where the fact came from")
	factCmd.MarkFlagRequired("category")
	factCmd.MarkFlagRequired("key")

	todoCmd := &cobra.Command{
		Use:   "todo [task]",
		Short: "Add a todo",
		Run:   runAddTodo,
	}
	todoCmd.Flags().IntP("priority", "p", model.DefaultTodoPriority, "Priority 1-5 (5 highest)")
	todoCmd.Flags().StringP("tags", "t", "", "Comma-separated tags")
	todoCmd.Flags().String("due", "", "Due date (YYYY-MM-DD or RFC 3339)")

	addCmd.AddCommand(instCmd, factCmd, todoCmd)
	RootCmd.AddCommand(addCmd)
}

func requiredInput(what string, args []string) string {
	content, err := readInput(args)
	if err != nil {
		exitErr("read input", err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		exitErr("add", fmt.Errorf("%s is required (positional arg or stdin)", what))
	}
	return content
}

func runAddInstruction(cmd *cobra.Command, args []string) {
	priority, _ := cmd.Flags().GetInt("priority")
	content := requiredInput("content", args)

	in, err := model.NewInstruction(content, priority)
	if err != nil {
		exitErr("add instruction", err)
	}
	m, _ := openManager()
	if _, err := m.Apply(cmd.Context(), &model.MemoryUpdate{InstructionsToAdd: []model.Instruction{in}}); err != nil {
		exitErr("add instruction", err)
	}
	printJSON(in)
}

func runAddFact(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	key, _ := cmd.Flags().GetString("key")
	confidence, _ := cmd.Flags().GetFloat64("confidence")
	source, _ := cmd.Flags().GetString("source")
	value := requiredInput("value", args)

	f, err := model.NewFact(category, key, value, confidence)
	if err != nil {
		exitErr("add fact", err)
	}
	f.Source = source
	m, _ := openManager()
	if _, err := m.Apply(cmd.Context(), &model.MemoryUpdate{FactsToAdd: []model.Fact{f}}); err != nil {
		exitErr("add fact", err)
	}
	printJSON(f)
}

func runAddTodo(cmd *cobra.Command, args []string) {
	priority, _ := cmd.Flags().GetInt("priority")
	tagsStr, _ := cmd.Flags().GetString("tags")
	due, _ := cmd.Flags().GetString("due")
	task := requiredInput("task", args)

	t, err := model.NewTodo(task, priority, splitTags(tagsStr)...)
	if err != nil {
		exitErr("add todo", err)
	}
	if due != "" {
		d, err := parseDate(due)
		if err != nil {
			exitErr("add todo", err)
		}
		t.DueDate = &d
	}
	m, _ := openManager()
	if _, err := m.Apply(cmd.Context(), &model.MemoryUpdate{TodosToAdd: []model.Todo{t}}); err != nil {
		exitErr("add todo", err)
	}
	printJSON(t)
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}
