package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dagkv/pkg/logging"
)

var (
	// Version is set via ldflags at build time.
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dagkvctl",
	Short: "dagkvctl is a plumbing CLI over a content-addressed DAG key/value store",
	Long: `dagkvctl drives a dagkv store directly: branches, content-addressed
reads and writes, three-way merges, history, and bounded export/import
slices, without any server in front of it.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("dagkvctl version %s\ncommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("root", "", "backing directory for on-disk storage (empty: in-memory)")
	rootCmd.PersistentFlags().String("owner", envOr("USER", "dagkvctl"), "task owner recorded on writes")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "output logs as JSON")
	rootCmd.PersistentFlags().Int("cache-size", 0, "entries held in a read-through LRU in front of on-disk node/commit stores (0: disabled)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(sliceCmd)
	rootCmd.AddCommand(watchCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	logging.Init(logging.Config{
		Level:      logging.Level(level),
		JSONOutput: jsonOut,
	})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
