package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/personal-assistant/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update <kind> [json]",
		Short: "Replace a stored record",
		Long: "Replace the record with the same id. The full record is read as JSON from the argument or stdin, " +
			"in the shape printed by get.",
		Args: cobra.MinimumNArgs(1),
		Run:  runUpdate,
	}

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	kind := parseKind(args[0])
	data, err := readInput(args[1:])
	if err != nil {
		exitErr("read input", err)
	}
	if strings.TrimSpace(data) == "" {
		exitErr("update", fmt.Errorf("record JSON is required (positional arg or stdin)"))
	}

	u, rec, err := updateBatch(kind, []byte(data))
	if err != nil {
		exitErr("parse json", err)
	}

	m, _ := openManager()
	if _, err := m.Apply(cmd.Context(), u); err != nil {
		exitErr("update", err)
	}
	printJSON(rec)
}

// updateBatch decodes one record of kind and wraps it in a batch. The
// record's updated_at is stamped now.
func updateBatch(kind model.Kind, data []byte) (*model.MemoryUpdate, any, error) {
	u := &model.MemoryUpdate{}
	switch kind {
	case model.KindInstruction:
		var in model.Instruction
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, nil, err
		}
		in.UpdatedAt = model.Now()
		u.InstructionsToUpdate = []model.Instruction{in}
		return u, in, nil
	case model.KindFact:
		var f model.Fact
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, nil, err
		}
		f.UpdatedAt = model.Now()
		u.FactsToUpdate = []model.Fact{f}
		return u, f, nil
	default:
		var t model.Todo
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, nil, err
		}
		if t.Completed && t.CompletedAt == nil {
			now := model.Now()
			t.CompletedAt = &now
		}
		u.TodosToUpdate = []model.Todo{t}
		return u, t, nil
	}
}
