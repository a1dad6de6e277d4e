package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/personal-assistant/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <kind> <id>",
		Short: "Delete a record",
		Long:  "Delete an instruction, fact or todo by id. Unknown ids are ignored unless strict mode is on.",
		Args:  cobra.ExactArgs(2),
		Run:   runRm,
	}

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	kind := parseKind(args[0])
	id := args[1]

	u := &model.MemoryUpdate{}
	switch kind {
	case model.KindInstruction:
		u.InstructionsToRemove = []string{id}
	case model.KindFact:
		u.FactsToRemove = []string{id}
	case model.KindTodo:
		u.TodosToRemove = []string{id}
	}

	m, _ := openManager()
	if _, err := m.Apply(cmd.Context(), u); err != nil {
		exitErr("rm", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"kind":%q,"id":%q}`+"\n", kind, id)
}
