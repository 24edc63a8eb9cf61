package main

import (
	"github.com/spf13/cobra"

	"mend/internal/report"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [path ...]",
	Short: "Rewrite deprecated patterns in place",
	Long:  "Scan the given files or directories (the current project by default), rewrite every deprecated pattern and save the files atomically.",
	Args:  cobra.ArbitraryArgs,
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().Bool("strict", false, "also report findings that carry no rewrite")
}

func runFix(cmd *cobra.Command, args []string) error {
	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return err
	}
	return executeRun(cmd, args, report.ModeApply, strict)
}
