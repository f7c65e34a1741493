package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOut  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "hiopool",
	Short: "Inspect and exercise hioload-mempool pools and rings",
	Long: `hiopool computes memory layouts for bitmap pools and circular queues and
runs a producer/worker/recycler simulation over them, optionally exporting
Prometheus metrics while it runs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "", "Override the log level (debug, info, warning, error)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printJSON outputs data as indented JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
