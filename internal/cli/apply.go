package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/personal-assistant/internal/memory"
	"github.com/rcliao/personal-assistant/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "apply [file]",
		Short: "Apply a memory update batch",
		Long: "Apply a batch of adds, updates and removals across all three kinds, read as JSON from a file or stdin. " +
			"The whole batch is validated before anything is written.",
		Args: cobra.MaximumNArgs(1),
		Run:  runApply,
	}

	RootCmd.AddCommand(cmd)
}

func runApply(cmd *cobra.Command, args []string) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read batch", err)
	}

	var u model.MemoryUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		exitErr("parse json", err)
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

	res, err := memory.NewManager(s, rec).Apply(cmd.Context(), &u)
	if err != nil {
		exitErr("apply", err)
	}
	printJSON(map[string]any{"ok": true, "result": res})
}
