// medtriage runs the emergency triage orchestrator.
//
// Usage:
//
//	medtriage serve [--config=<path>]
//	medtriage run --symptoms=<text> [--language=<tag>] [--audio=<file>]
//	medtriage logs [--limit=<n>] [--markdown]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "medtriage",
	Short: "Emergency triage orchestrator",
	Long: "medtriage fans one emergency report out to the voice, triage, translation,\n" +
		"history, vitals, insurance and dispatch agents and fuses their answers.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (environment variables override it)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
