// Package cli implements the personal-assistant CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/personal-assistant/internal/config"
	"github.com/rcliao/personal-assistant/internal/events"
	"github.com/rcliao/personal-assistant/internal/memory"
	"github.com/rcliao/personal-assistant/internal/model"
	"github.com/rcliao/personal-assistant/internal/store"
)

var (
	dirFlag    string
	configFlag string
	formatFlag string
	verbose    bool

	cfg *config.Config
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "personal-assistant",
	Short: "A personal assistant that remembers",
	Long: "A personal assistant with local memory. Instructions, facts and todos live as JSON files " +
		"in the storage directory and are fed to the model on every turn.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		path := configFlag
		if path == "" {
			p, err := config.Path()
			if err != nil {
				return err
			}
			path = p
		}
		c, err := config.Load(path)
		if err != nil {
			return err
		}
		if dirFlag != "" {
			c.StorageDir = dirFlag
		}
		cfg = c
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "d", "", "Storage directory (default: $PA_STORAGE_DIR, config storage_dir, or ./data)")
	RootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: $PA_CONFIG or ~/.config/personal-assistant/config.toml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text (export also takes yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
}

func openStore() (*store.FileStore, error) {
	var opts []store.Option
	if cfg.Strict {
		opts = append(opts, store.WithStrict())
	}
	return store.NewFileStore(cfg.StorageDir, opts...)
}

// openRecorder returns the configured event sink and a func that closes it.
func openRecorder() (events.Recorder, func(), error) {
	switch cfg.EventSink {
	case config.SinkSQLite:
		r, err := events.NewSQLiteRecorder(filepath.Join(cfg.LogDir, "events.db"))
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	case config.SinkNone:
		return events.Nop{}, func() {}, nil
	default:
		r, err := events.NewJSONLRecorder(cfg.LogDir)
		if err != nil {
			return nil, nil, err
		}
		return r, func() {}, nil
	}
}

// openManager opens the store with event recording off. One-shot commands
// do not start a session log.
func openManager() (*memory.Manager, *store.FileStore) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	return memory.NewManager(s, events.Nop{}), s
}

// readInput returns args joined, or stdin when it is piped and args are empty.
func readInput(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	stat, err := os.Stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return "", nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}

func parseKind(s string) model.Kind {
	k, err := model.ParseKind(s)
	if err != nil {
		exitErr("kind", err)
	}
	return k
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
