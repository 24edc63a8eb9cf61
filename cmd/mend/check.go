package main

import (
	"github.com/spf13/cobra"

	"mend/internal/report"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [path ...]",
	Short: "Report deprecated patterns without touching files",
	Long:  "Dry run: compute every rewrite the fix command would make and report it. Exits non-zero when rewrites are needed.",
	Args:  cobra.ArbitraryArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().Bool("strict", false, "also report findings that carry no rewrite")
}

func runCheck(cmd *cobra.Command, args []string) error {
	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return err
	}
	return executeRun(cmd, args, report.ModeCheck, strict)
}
