package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/big-brother/internal/config"
	"github.com/mvp-joe/big-brother/internal/report"
	"github.com/mvp-joe/big-brother/internal/scan"
)

var (
	strictFlag    bool
	ignoreFlag    []string
	sourceMaxFlag int
	testMaxFlag   int
	linesFlag     bool
	formatFlag    string
	quietFlag     bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Check Python files against the structure laws",
	Long: `Scan walks a directory (default: current directory) or a single .py file,
states the laws, and reports every violation.

Output has two sections: unvetted violations (actionable) and vetted ones
(acknowledged with '# bb:vetted'). Nothing is hidden.

Examples:
  # Scan the current directory
  big-brother scan

  # CI gate: exit 1 on unvetted violations only
  big-brother scan src --strict

  # Show line ranges for each offending definition
  big-brother scan --lines

  # Skip generated code, tighten the limit
  big-brother scan --ignore '*_pb2.py' --ignore 'migrations/**' --source-max 500

  # Machine-readable output
  big-brother scan --format json
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&strictFlag, "strict", false, "Exit 1 when unvetted violations exist")
	scanCmd.Flags().StringArrayVar(&ignoreFlag, "ignore", nil, "Glob pattern to skip, matched on basename and relative path (repeatable)")
	scanCmd.Flags().IntVar(&sourceMaxFlag, "source-max", 0, "Max LOC for source files (default from config: 800)")
	scanCmd.Flags().IntVar(&testMaxFlag, "test-max", 0, "Max LOC for test files (default from config: 500)")
	scanCmd.Flags().BoolVar(&linesFlag, "lines", false, "Show L{start}-L{end} for each offending definition")
	scanCmd.Flags().StringVar(&formatFlag, "format", "text", "Output format: text or json")
	scanCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Omit the laws header and progress bar")
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// configRoot is the directory whose .bigbrother.yml governs path.
func configRoot(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}

// loadScanConfig loads the config for path and applies flag overrides.
func loadScanConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	cfg, err := config.LoadConfigFromDir(configRoot(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("ignore") {
		cfg.Ignore = append(cfg.Ignore, ignoreFlag...)
	}
	if flags.Changed("source-max") {
		cfg.SourceMax = sourceMaxFlag
	}
	if flags.Changed("test-max") {
		cfg.TestMax = testMaxFlag
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func runScan(cmd *cobra.Command, args []string) error {
	if formatFlag != "text" && formatFlag != "json" {
		return fmt.Errorf("invalid --format %q: must be text or json", formatFlag)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	root := pathArg(args)
	cfg, err := loadScanConfig(cmd, root)
	if err != nil {
		return err
	}

	progress := newScanProgress(cmd.ErrOrStderr(), quietFlag || formatFlag == "json")
	scanner := scan.New(afero.NewOsFs(), cfg,
		scan.WithLogger(log),
		scan.WithProgress(progress.Func()))

	res, err := scanner.Scan(ctx, root)
	progress.Finish()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if formatFlag == "json" {
		if err := report.JSON(out, res); err != nil {
			return err
		}
	} else {
		renderer := report.NewRenderer(report.Options{Lines: linesFlag, Quiet: quietFlag, NoColor: noColor})
		renderer.Text(out, res, cfg.LawContext(false, false))
	}

	if code := report.ExitCode(res, strictFlag); code != 0 {
		return &exitError{code: code}
	}
	return nil
}
