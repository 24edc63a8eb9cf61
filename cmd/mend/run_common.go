package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"mend/internal/compat"
	"mend/internal/driver"
	"mend/internal/project"
	"mend/internal/report"
	"mend/internal/ui"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

func readColorMode(value string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

// executeRun is the shared body of fix and check.
func executeRun(cmd *cobra.Command, args []string, mode report.Mode, strict bool) error {
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	flags := cmd.Root().PersistentFlags()
	colorValue, err := flags.GetString("color")
	if err != nil {
		return err
	}
	color, err := readColorMode(colorValue)
	if err != nil {
		return err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return err
	}
	jsonOut, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return err
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return err
	}
	uiPref, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	startDir := startDirFor(paths[0])
	layout, _, err := project.DiscoverLayout(startDir)
	if err != nil {
		return fmt.Errorf("failed to read project: %w", err)
	}
	cfg, cfgPath, hasCfg, err := project.LoadConfigFrom(startDir)
	if err != nil {
		return err
	}

	table, err := loadTable(cfg, cfgPath, hasCfg)
	if err != nil {
		return err
	}

	opts := driver.Options{
		Mode:      mode,
		Strict:    strict,
		Jobs:      jobs,
		Reserved:  cfg.Rewrite.Reserved,
		MetaArg:   cfg.Rewrite.MetaArg,
		PassLimit: cfg.Yaml.PassLimit,
		Table:     table,
		Layout:    layout,
	}
	rep := report.NewReporter(os.Stdout, report.Options{
		JSON:        jsonOut,
		Color:       color && !jsonOut,
		Quiet:       quiet,
		ShowUnfixed: strict,
	})

	useUI := shouldUseTUI(uiPref) && !jsonOut && !quiet
	if useUI {
		err = runWithUI(cmd.Context(), paths, opts, rep)
	} else {
		err = driver.Run(cmd.Context(), paths, opts, rep)
	}
	if err != nil {
		return err
	}
	if err := rep.Complete(mode); err != nil {
		return err
	}

	cmd.SilenceUsage = true
	if rep.HasFailures() {
		return fmt.Errorf("some files could not be rewritten")
	}
	if mode == report.ModeCheck && rep.Refactors() > 0 {
		return fmt.Errorf("%d rewrites needed", rep.Refactors())
	}
	return nil
}

func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stdout)
	}
}

func runWithUI(ctx context.Context, paths []string, opts driver.Options, rep *report.Reporter) error {
	files, err := driver.Targets(paths, opts.Layout)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan error, 1)

	go func() {
		optsCopy := opts
		optsCopy.Sink = driver.ChannelSink{Ch: events}
		outcomeCh <- driver.Run(ctx, paths, optsCopy, rep)
		close(events)
	}()

	model := ui.NewProgressModel("mend", files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return uiErr
	}
	return outcome
}

func startDirFor(path string) string {
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}

// loadTable resolves the compatibility table: mend.toml may point at a JSON
// file, otherwise the built-in table is used. Parsed tables are cached on
// disk keyed by the source digest.
func loadTable(cfg project.Config, cfgPath string, hasCfg bool) (*compat.Table, error) {
	if !hasCfg || cfg.Packages.Table == "" {
		return compat.Default(), nil
	}
	tablePath := cfg.Packages.Table
	if !filepath.IsAbs(tablePath) {
		tablePath = filepath.Join(filepath.Dir(cfgPath), tablePath)
	}
	cache, err := compat.OpenDiskCache("mend")
	if err != nil {
		// без кеша тоже работаем
		cache = nil
	}
	table, err := compat.Load(tablePath, cache)
	if err != nil {
		return nil, fmt.Errorf("failed to load compatibility table: %w", err)
	}
	return table, nil
}
