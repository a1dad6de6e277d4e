package cli

import (
	"fmt"
	"os"

	tiktoken "github.com/pkoukk/tiktoken-go"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the memory context given to the model",
		Long:  "Print the instructions, facts and open todos exactly as they appear in the assistant's system prompt.",
		Args:  cobra.NoArgs,
		Run:   runContext,
	}

	cmd.Flags().Bool("ids", false, "Prefix each record with its id")
	cmd.Flags().Bool("tokens", false, "Report the token count (cl100k_base) on stderr")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	withIDs, _ := cmd.Flags().GetBool("ids")
	tokens, _ := cmd.Flags().GetBool("tokens")

	m, _ := openManager()
	summary := m.ContextSummary
	if withIDs {
		summary = m.ReferenceSummary
	}
	text, err := summary(cmd.Context())
	if err != nil {
		exitErr("context", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), text)

	if tokens {
		n, err := countTokens(text)
		if err != nil {
			exitErr("count tokens", err)
		}
		fmt.Fprintf(os.Stderr, "tokens: %d\n", n)
	}
}

func countTokens(s string) (int, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return 0, fmt.Errorf("get encoding: %w", err)
	}
	return len(enc.Encode(s, nil, nil)), nil
}
