package cli

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all memory",
		Long:  "Export every instruction, fact and todo as one JSON (default) or YAML document. Use -f yaml for YAML.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	snap, err := s.ExportAll(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}

	if formatFlag == "yaml" {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			exitErr("export", err)
		}
		if err := enc.Close(); err != nil {
			exitErr("export", err)
		}
		return
	}
	printJSON(snap)
}
