package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List fact categories",
		Run:   runCategories,
	}

	RootCmd.AddCommand(cmd)
}

func runCategories(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	rows, err := s.Categories(cmd.Context())
	if err != nil {
		exitErr("list categories", err)
	}

	if formatFlag == "text" {
		for _, r := range rows {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", r.Category, r.Count)
		}
		return
	}
	printJSON(rows)
}
