package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/personal-assistant/internal/model"
	"github.com/rcliao/personal-assistant/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memory by keyword",
		Long:  "Search instruction content, fact categories, keys and values, and todo tasks and tags.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().String("kind", "", "Only search one kind")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	kindStr, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	var kind model.Kind
	if kindStr != "" {
		kind = parseKind(kindStr)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	results, err := s.Search(cmd.Context(), store.SearchParams{
		Query: query,
		Kind:  kind,
		Limit: limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if formatFlag == "text" {
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", r.Kind, r.ID, r.Text)
		}
		return
	}
	if len(results) == 0 {
		fmt.Println("[]")
		return
	}
	printJSON(results)
}
