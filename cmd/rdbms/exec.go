package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IanDublew/rdbms/internal/config"
	"github.com/IanDublew/rdbms/internal/engine"
	"github.com/IanDublew/rdbms/internal/logging"
)

var execLog = logging.GetLogger("cmd.exec")

var (
	execFile         string
	execSnapshotPath string
	execFsync        bool
)

// execCmd runs a batch of statements non-interactively.
var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Execute a batch of statements against the database",
	Long: `Execute runs every statement of a script in order and prints each
result, loading and saving a snapshot around the run.

Examples:
  rdbms exec -f schema.sql
  echo "SELECT * FROM users;" | rdbms exec`,
	Run: func(cmd *cobra.Command, args []string) {
		runExec(cmd)
	},
}

func init() {
	execCmd.Flags().StringVarP(&execFile, "file", "f", "", "script file to execute (defaults to stdin)")
	execCmd.Flags().StringVar(&execSnapshotPath, "snapshot", "", "override the configured snapshot path")
	execCmd.Flags().BoolVar(&execFsync, "fsync", false, "fsync the snapshot file before closing it on save")
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}
	if execSnapshotPath != "" {
		cfg.Database.SnapshotPath = execSnapshotPath
	}
	if cmd.Flags().Changed("fsync") {
		cfg.Database.FsyncOnSave = execFsync
	}
	engine.SetLikeStrict(cfg.Query.LikeStrict)

	db := engine.NewDatabase()
	if cfg.Database.LoadOnStart {
		if f, err := os.Open(cfg.Database.SnapshotPath); err == nil {
			loaded, err := engine.Load(f)
			f.Close()
			if err != nil {
				fmt.Fprintf(os.Stderr, "error loading snapshot: %v\n", err)
				os.Exit(1)
			}
			db = loaded
			execLog.Info("loaded snapshot", "path", cfg.Database.SnapshotPath)
		}
	}

	var r io.Reader = os.Stdin
	if execFile != "" {
		f, err := os.Open(execFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		r = f
	}

	results, execErr := db.ExecuteScript(r)
	for _, res := range results {
		printResult(res)
	}

	if execErr != nil {
		execLog.LogError(logging.OpExecScript, execErr)
		fmt.Fprintln(os.Stderr, execErr)
	}

	if cfg.Database.SaveOnExit {
		if err := cfg.EnsureConfigDir(); err != nil {
			fmt.Fprintf(os.Stderr, "error creating snapshot directory: %v\n", err)
			os.Exit(1)
		}
		if err := db.SaveFile(cfg.Database.SnapshotPath, cfg.Database.FsyncOnSave); err != nil {
			fmt.Fprintf(os.Stderr, "error writing snapshot: %v\n", err)
			os.Exit(1)
		}
	}

	if execErr != nil {
		os.Exit(1)
	}
}

func printResult(res engine.Result) {
	if quiet {
		return
	}
	switch res.Kind {
	case engine.ResultRows:
		fmt.Println(joinColumns(res.Columns))
		for _, row := range res.Rows {
			fmt.Println(joinRow(row))
		}
	case engine.ResultCount:
		fmt.Printf("%d row(s) affected\n", res.Count)
		if res.Message != "" {
			fmt.Println(res.Message)
		}
	case engine.ResultAck:
		fmt.Println(res.Message)
	}
}

func joinColumns(cols []string) string {
	return strings.Join(cols, " | ")
}

func joinRow(row []engine.Value) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = v.String()
	}
	return strings.Join(parts, " | ")
}
