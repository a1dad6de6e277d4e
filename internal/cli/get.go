package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/personal-assistant/internal/memory"
	"github.com/rcliao/personal-assistant/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <kind> <id>",
		Short: "Retrieve a record by id",
		Args:  cobra.ExactArgs(2),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	kind := parseKind(args[0])
	id := args[1]

	_, s := openManager()
	ctx := cmd.Context()

	var (
		rec  any
		line string
		err  error
	)
	switch kind {
	case model.KindInstruction:
		var in model.Instruction
		in, err = s.GetInstruction(ctx, id)
		rec, line = in, memory.FormatInstruction(in)
	case model.KindFact:
		var f model.Fact
		f, err = s.GetFact(ctx, id)
		rec, line = f, memory.FormatFact(f)
	case model.KindTodo:
		var t model.Todo
		t, err = s.GetTodo(ctx, id)
		rec, line = t, memory.FormatTodo(t)
	}
	if err != nil {
		exitErr("get", err)
	}

	if formatFlag == "text" {
		fmt.Fprintln(cmd.OutOrStdout(), line)
		return
	}
	printJSON(rec)
}
