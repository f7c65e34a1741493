package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-mempool/api"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var startedAt = time.Now()

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if jsonOut {
			return printJSON(out, api.ServiceInfo{
				Name:      "hiopool",
				Version:   version,
				Build:     commit + " " + date,
				StartedAt: startedAt,
			})
		}
		fmt.Fprintf(out, "hiopool %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built: %s\n", date)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
