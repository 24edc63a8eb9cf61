package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mend/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "mend",
	Short: "Rewrite deprecated authoring patterns in dbt-style projects",
	Long:  `mend scans templated SQL, schema YAML and package manifests for deprecated patterns and rewrites only the offending text.`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("json", false, "emit one json object per line")
	rootCmd.PersistentFlags().Int("jobs", 0, "number of parallel workers (0 = all CPUs)")
	rootCmd.PersistentFlags().String("ui", "auto", "progress display for directory runs (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
