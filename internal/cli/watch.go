package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mvp-joe/big-brother/internal/config"
	"github.com/mvp-joe/big-brother/internal/report"
	"github.com/mvp-joe/big-brother/internal/scan"
	"github.com/mvp-joe/big-brother/internal/walk"
	"github.com/mvp-joe/big-brother/internal/watcher"
)

var debounceFlag time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Rescan whenever Python files change",
	Long: `Watch scans once, then rescans every time .py files under the path change.
Unchanged files are not re-parsed between scans.

Examples:
  big-brother watch
  big-brother watch src --debounce 1s
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&debounceFlag, "debounce", watcher.DefaultDebounce, "Quiet period before rescanning")
	watchCmd.Flags().BoolVar(&linesFlag, "lines", false, "Show L{start}-L{end} for each offending definition")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	root := pathArg(args)
	cfg, err := config.LoadConfigFromDir(configRoot(root))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cache, err := scan.NewCache(scan.DefaultCacheSize)
	if err != nil {
		return err
	}
	defer cache.Close()

	scanner := scan.New(afero.NewOsFs(), cfg, scan.WithLogger(log), scan.WithCache(cache))
	renderer := report.NewRenderer(report.Options{Lines: linesFlag, Quiet: true, NoColor: noColor})
	out := cmd.OutOrStdout()

	watchDir := root
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		watchDir = filepath.Dir(root)
	}
	filter, err := walk.NewFilter(cfg.SkipDirs, cfg.Ignore)
	if err != nil {
		return err
	}
	w, err := watcher.New(watchDir, watcher.Options{
		Filter:   filter,
		Debounce: debounceFlag,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", watchDir, err)
	}
	defer w.Stop()

	err = w.Start(ctx, func(b watcher.Batch) {
		log.Debug("rescanning", zap.Strings("changed", b.Changed), zap.Strings("removed", b.Removed))
		fmt.Fprintf(out, "\n%d file(s) changed, %d removed\n", len(b.Changed), len(b.Removed))
		rescan(ctx, out, scanner, renderer, cfg, root, log)
	})
	if err != nil {
		return err
	}

	// edits made during the initial scan arrive as one batch afterwards
	w.Pause()
	renderer.Laws(out, cfg.LawContext(false, false))
	rescan(ctx, out, scanner, renderer, cfg, root, log)
	w.Resume()

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl+C to stop)\n", watchDir)
	<-ctx.Done()
	return nil
}

func rescan(ctx context.Context, out io.Writer, scanner *scan.Scanner, renderer *report.Renderer, cfg *config.Config, root string, log *zap.Logger) {
	res, err := scanner.Scan(ctx, root)
	if err != nil {
		if ctx.Err() == nil {
			log.Error("scan failed", zap.Error(err))
		}
		return
	}
	fmt.Fprintf(out, "\n[%s] %s\n", time.Now().Format("15:04:05"), report.Summary(res))
	renderer.Text(out, res, cfg.LawContext(false, false))
}
