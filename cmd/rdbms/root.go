package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/IanDublew/rdbms/internal/logging"
)

// Version is set during build.
var Version = "0.1.0"

var (
	logLevel string
	quiet    bool
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "rdbms",
	Short: "An embedded relational database engine",
	Long: `rdbms is an embedded, single-writer relational database engine with a
SQL-like statement language.

Examples:
  rdbms exec -f schema.sql
  echo "SELECT * FROM users;" | rdbms exec`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			logLevel = "error"
		}
		logging.Init(logging.Config{Level: logLevel, Format: "console", Output: "stderr"})
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log_level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress output")
}
