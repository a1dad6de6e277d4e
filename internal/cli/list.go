package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/personal-assistant/internal/memory"
	"github.com/rcliao/personal-assistant/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List instructions, facts or todos",
		Long:  "List one kind in display order: instructions by priority, facts newest first, open todos first.",
		Args:  cobra.ExactArgs(1),
		Run:   runList,
	}

	cmd.Flags().StringP("category", "c", "", "Filter facts by category")
	cmd.Flags().BoolP("all", "a", false, "Include completed todos")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	kind := parseKind(args[0])
	category, _ := cmd.Flags().GetString("category")
	all, _ := cmd.Flags().GetBool("all")

	m, _ := openManager()
	ctx := cmd.Context()

	if formatFlag == "text" {
		lines, err := m.List(ctx, kind, memory.ListOptions{Category: category, IncludeCompleted: all})
		if err != nil {
			exitErr("list", err)
		}
		for _, l := range lines {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
		return
	}

	var (
		out any
		err error
	)
	switch kind {
	case model.KindInstruction:
		out, err = m.Instructions(ctx)
	case model.KindFact:
		out, err = m.Facts(ctx, category)
	case model.KindTodo:
		out, err = m.Todos(ctx, all)
	}
	if err != nil {
		exitErr("list", err)
	}
	printJSON(out)
}
