package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/falobo92/ADC2/internal/config"
	"github.com/falobo92/ADC2/internal/evolution"
	"github.com/falobo92/ADC2/internal/locale"
	"github.com/falobo92/ADC2/internal/logging"
	"github.com/falobo92/ADC2/internal/printer"
	"github.com/falobo92/ADC2/internal/record"
	"github.com/falobo92/ADC2/internal/render"
	"github.com/falobo92/ADC2/internal/reportdiff"
	"github.com/falobo92/ADC2/internal/schema"
	"github.com/falobo92/ADC2/internal/scope"
	"github.com/falobo92/ADC2/internal/snapshot"
	"github.com/falobo92/ADC2/internal/store"
	"github.com/falobo92/ADC2/internal/tally"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

const toolName = "adcprogress"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
// 3: input, config or render error. 4: store error.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	verbose    bool
}

// evolutionFlags holds the parsed flags for the evolution command.
type evolutionFlags struct {
	globalFlags
	scope    string
	format   string
	out      string
	inputs   []string
	baseline string
	diffOut  string
	locale   string
}

// statesFlags holds the parsed flags for the states command.
type statesFlags struct {
	globalFlags
	week   int
	day    string
	format string
	out    string
	inputs []string
	locale string
}

func main() {
	root := newRootCmd(os.Stdout)
	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           toolName,
		Short:         "Track weekly review progress toward a goal",
		Long:          "adcprogress ingests weekly review snapshots, deduplicates them per item and projects the weekly throughput needed to reach the goal by the target week.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Config file (default $"+config.PathEnv+")")
	pf.BoolVar(&g.verbose, "verbose", false, "Log processing steps to stderr")

	ingestCmd := &cobra.Command{
		Use:   "ingest <snapshot.json>...",
		Short: "Merge snapshot files into the record store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), args, g, stdout)
		},
	}

	var ef evolutionFlags
	evolutionCmd := &cobra.Command{
		Use:   "evolution",
		Short: "Weekly counts, cumulative progress and projection to the target week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ef.globalFlags = g
			return runEvolution(cmd.Context(), ef, stdout)
		},
	}
	f := evolutionCmd.Flags()
	f.StringVar(&ef.scope, "scope", "TOTAL", "Category filter: TOTAL, ADC or PAC")
	f.StringVar(&ef.format, "format", "json", "Output format: json, md, table, csv or xlsx")
	f.StringVar(&ef.out, "out", "", "Write output to file instead of stdout")
	f.StringArrayVar(&ef.inputs, "input", nil, "Analyze these snapshot files instead of the store (may be repeated)")
	f.StringVar(&ef.baseline, "baseline", "", "Previously rendered report to diff against")
	f.StringVar(&ef.diffOut, "diff-out", "", "Write the diff against --baseline in diff-match-patch format to this file")
	f.StringVar(&ef.locale, "locale", "", "Report locale (default from config)")

	var sf statesFlags
	statesCmd := &cobra.Command{
		Use:   "states",
		Short: "State breakdown for one week and report day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sf.globalFlags = g
			return runStates(cmd.Context(), sf, stdout)
		},
	}
	sfl := statesCmd.Flags()
	sfl.IntVar(&sf.week, "week", 0, "Week to inspect (default latest)")
	sfl.StringVar(&sf.day, "day", "", "Report day YYYY-MM-DD within the week (default latest)")
	sfl.StringVar(&sf.format, "format", "table", "Output format: json, md, table, csv or xlsx")
	sfl.StringVar(&sf.out, "out", "", "Write output to file instead of stdout")
	sfl.StringArrayVar(&sf.inputs, "input", nil, "Analyze these snapshot files instead of the store (may be repeated)")
	sfl.StringVar(&sf.locale, "locale", "", "Report locale (default from config)")

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every record from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd.Context(), g, yes, stdout)
		},
	}
	clearCmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing the store")

	root.AddCommand(ingestCmd, evolutionCmd, statesCmd, clearCmd)
	return root
}

// setup loads configuration and builds the logger.
func setup(g globalFlags) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, nil, codeError(3, "loading config: %s", err)
	}
	level := cfg.Logging.Level
	if g.verbose {
		level = "debug"
	}
	return cfg, logging.New(os.Stderr, level), nil
}

func runIngest(ctx context.Context, paths []string, g globalFlags, stdout io.Writer) error {
	p := printer.New(stdout)

	// --- Step 1: Load configuration ---
	cfg, logger, err := setup(g)
	if err != nil {
		return err
	}

	// --- Step 2: Load and validate snapshots ---
	logger.Debug("loading snapshots", "files", len(paths))
	snaps, err := snapshot.LoadAll(paths)
	if err != nil {
		return codeError(3, "loading snapshots: %s", err)
	}
	for _, s := range snaps {
		logger.Debug("snapshot loaded", "path", s.Path, "hash", s.Hash, "records", len(s.Records))
		if s.MissingID > 0 {
			p.Warning("%s: %d entries have no identifier and will be ignored by the analysis", s.Path, s.MissingID)
		}
	}
	records := snapshot.Records(snaps)

	// --- Step 3: Merge into the store ---
	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return codeError(4, "opening store: %s", err)
	}
	defer st.Close()

	changed, err := st.Merge(ctx, records)
	if err != nil {
		return codeError(4, "merging records: %s", err)
	}
	logger.Info("ingest complete", "backend", cfg.Storage.Backend, "records", len(records), "changed", changed)
	p.Success("%d file(s), %d records read, %d appended or updated", len(snaps), len(records), changed)
	return nil
}

func runEvolution(ctx context.Context, flags evolutionFlags, stdout io.Writer) error {

	// --- Step 1: Validate flags ---
	if err := validateOutputFlags(flags.format, flags.out); err != nil {
		return codeError(3, "invalid flags: %s", err)
	}
	if (flags.baseline == "") != (flags.diffOut == "") {
		return codeError(3, "invalid flags: --baseline and --diff-out must be used together")
	}
	if flags.baseline != "" && render.Binary(flags.format) {
		return codeError(3, "invalid flags: --baseline is not supported with --format %s", flags.format)
	}

	// --- Step 2: Load configuration and resolve scope ---
	cfg, logger, err := setup(flags.globalFlags)
	if err != nil {
		return err
	}
	sc, err := scope.Get(flags.scope, cfg.Goals)
	if err != nil {
		return codeError(3, "%s", err)
	}
	loc := resolveLocale(flags.locale, cfg)

	// --- Step 3: Load records ---
	records, source, err := loadRecords(ctx, cfg, flags.inputs, logger)
	if err != nil {
		return err
	}

	// --- Step 4: Analyze ---
	logger.Debug("analyzing", "scope", sc.Name, "goal", sc.Goal, "records", len(records))
	ev := evolution.New(logger).Analyze(records, evolution.Params{
		Weeks:      cfg.Project.Weeks(),
		TargetWeek: cfg.Project.TargetWeek,
		Year:       cfg.Project.Year,
		Scope:      sc,
		Locale:     loc,
	})

	// --- Step 5: Build report ---
	report := newReport(source, flags.inputs, string(sc.Name), len(records), loc)
	report.Evolution = ev

	// --- Step 6: Render output ---
	output, err := renderReport(report, flags.format)
	if err != nil {
		return err
	}

	// --- Step 7: Diff against baseline ---
	if flags.baseline != "" {
		logger.Debug("diffing against baseline", "baseline", flags.baseline, "diff_out", flags.diffOut)
		base, err := os.ReadFile(flags.baseline)
		if err != nil {
			return codeError(3, "reading baseline: %s", err)
		}
		diffText, stats := reportdiff.GenerateDiff(string(base), string(output), os.Stderr)
		logger.Debug("baseline diff", "added", stats.Added, "removed", stats.Removed, "changed", stats.Changed())
		if err := os.WriteFile(flags.diffOut, []byte(diffText), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "WARN: diff write failed: %s\n", err)
		}
	}

	// --- Step 8: Write output ---
	return writeOutput(stdout, flags.out, output)
}

func runStates(ctx context.Context, flags statesFlags, stdout io.Writer) error {

	// --- Step 1: Validate flags ---
	if err := validateOutputFlags(flags.format, flags.out); err != nil {
		return codeError(3, "invalid flags: %s", err)
	}
	if flags.week < 0 {
		return codeError(3, "invalid flags: --week must be >= 0, got %d", flags.week)
	}
	if flags.day != "" {
		if _, err := time.Parse("2006-01-02", flags.day); err != nil {
			return codeError(3, "invalid flags: --day must be YYYY-MM-DD, got %q", flags.day)
		}
	}

	// --- Step 2: Load configuration ---
	cfg, logger, err := setup(flags.globalFlags)
	if err != nil {
		return err
	}
	loc := resolveLocale(flags.locale, cfg)

	// --- Step 3: Load records and select the point in time ---
	records, source, err := loadRecords(ctx, cfg, flags.inputs, logger)
	if err != nil {
		return err
	}
	view, week, day := tally.PointInTime(records, flags.week, flags.day)
	logger.Debug("point in time", "week", week, "day", day, "records", len(view))

	// --- Step 4: Build report ---
	report := newReport(source, flags.inputs, string(scope.Total), len(view), loc)
	report.Input.Week = schema.Int(week)
	report.Input.Day = day
	report.States = tally.States(view)

	// --- Step 5: Render and write ---
	output, err := renderReport(report, flags.format)
	if err != nil {
		return err
	}
	return writeOutput(stdout, flags.out, output)
}

func runClear(ctx context.Context, g globalFlags, yes bool, stdout io.Writer) error {
	if !yes {
		return codeError(3, "refusing to clear the store without --yes")
	}
	cfg, logger, err := setup(g)
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return codeError(4, "opening store: %s", err)
	}
	defer st.Close()
	if err := st.Clear(ctx); err != nil {
		return codeError(4, "clearing store: %s", err)
	}
	logger.Info("store cleared", "backend", cfg.Storage.Backend)
	printer.New(stdout).Success("store cleared (%s)", cfg.Storage.Backend)
	return nil
}

// loadRecords reads the snapshot files given with --input into a memory
// store, or the configured store when there are none.
func loadRecords(ctx context.Context, cfg config.Config, inputs []string, logger *slog.Logger) ([]record.Record, string, error) {
	if len(inputs) > 0 {
		logger.Debug("loading snapshots", "files", len(inputs))
		snaps, err := snapshot.LoadAll(inputs)
		if err != nil {
			return nil, "", codeError(3, "loading snapshots: %s", err)
		}
		mem := store.NewMemory()
		if _, err := mem.Merge(ctx, snapshot.Records(snaps)); err != nil {
			return nil, "", codeError(4, "merging records: %s", err)
		}
		records, err := mem.Load(ctx)
		if err != nil {
			return nil, "", codeError(4, "loading records: %s", err)
		}
		return records, "files", nil
	}

	logger.Debug("opening store", "backend", cfg.Storage.Backend)
	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, "", codeError(4, "opening store: %s", err)
	}
	defer st.Close()
	records, err := st.Load(ctx)
	if err != nil {
		return nil, "", codeError(4, "loading records: %s", err)
	}
	return records, cfg.Storage.Backend, nil
}

func newReport(source string, files []string, scopeName string, count int, loc locale.Locale) *schema.Report {
	return &schema.Report{
		Tool:    toolName,
		Version: version,
		RunID:   uuid.NewString(),
		Input: schema.Input{
			Source:      source,
			Files:       files,
			Scope:       scopeName,
			RecordCount: count,
		},
		Meta: schema.Meta{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Locale:      loc.String(),
		},
	}
}

func renderReport(report *schema.Report, format string) ([]byte, error) {
	renderer, err := render.NewRenderer(format)
	if err != nil {
		return nil, codeError(3, "invalid format: %s", err)
	}
	out, err := renderer.Render(report)
	if err != nil {
		return nil, codeError(3, "rendering output: %s", err)
	}
	return out, nil
}

func writeOutput(stdout io.Writer, path string, output []byte) error {
	if path != "" {
		if err := os.WriteFile(path, output, 0o644); err != nil {
			return codeError(3, "writing output file: %s", err)
		}
		return nil
	}
	if _, err := stdout.Write(output); err != nil {
		return codeError(3, "writing output: %s", err)
	}
	// Ensure output ends with a newline for terminal friendliness.
	if len(output) > 0 && output[len(output)-1] != '\n' {
		fmt.Fprintln(stdout)
	}
	return nil
}

// validateOutputFlags returns an error if the format is unknown or binary
// output would go to stdout.
func validateOutputFlags(format, out string) error {
	if _, err := render.NewRenderer(format); err != nil {
		return err
	}
	if render.Binary(format) && out == "" {
		return fmt.Errorf("--format %s requires --out", format)
	}
	return nil
}

func resolveLocale(flag string, cfg config.Config) locale.Locale {
	if flag != "" {
		return locale.Resolve(flag)
	}
	return locale.Resolve(cfg.Locale)
}
