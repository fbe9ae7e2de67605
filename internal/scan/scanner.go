package scan

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/big-brother/internal/config"
	"github.com/mvp-joe/big-brother/internal/facts"
	"github.com/mvp-joe/big-brother/internal/laws"
	"github.com/mvp-joe/big-brother/internal/walk"
)

// ProgressFunc is called after each file with the number of files done
// and the total. Calls are serialized.
type ProgressFunc func(done, total int)

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the scanner's logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scanner) { s.log = log }
}

// WithCache reuses fact sheets across scans.
func WithCache(c *Cache) Option {
	return func(s *Scanner) { s.cache = c }
}

// WithProgress reports per-file progress.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Scanner) { s.progress = fn }
}

// Scanner applies the laws to every Python file under a root.
type Scanner struct {
	fs       afero.Fs
	cfg      *config.Config
	log      *zap.Logger
	cache    *Cache
	progress ProgressFunc
}

// New creates a scanner reading from fs with cfg's limits and patterns.
func New(fs afero.Fs, cfg *config.Config, opts ...Option) *Scanner {
	s := &Scanner{
		fs:  fs,
		cfg: cfg,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type fileResult struct {
	findings []Finding
	err      *FileError
}

// Scan walks root and evaluates every file. Unreadable files are recorded
// in Result.Errors and unparsable ones as unparsable findings; neither
// stops the scan. Scan fails only when root cannot be walked or ctx ends.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	discovery, err := walk.NewDiscovery(s.fs, root, s.cfg.SkipDirs, s.cfg.Ignore)
	if err != nil {
		return nil, err
	}
	classifier, err := walk.NewClassifier(s.cfg.EntryPatterns, s.cfg.TestPatterns)
	if err != nil {
		return nil, err
	}

	paths, err := discovery.Discover()
	if err != nil {
		return nil, err
	}
	s.log.Debug("discovered files", zap.String("root", root), zap.Int("count", len(paths)))

	results := make([]fileResult, len(paths))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.Workers, 1))
	for i, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lawCtx := s.cfg.LawContext(classifier.IsEntry(rel), classifier.IsTest(rel))
			results[i] = s.scanFile(discovery.Abs(rel), rel, lawCtx)

			if s.progress != nil {
				mu.Lock()
				done++
				s.progress(done, len(paths))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Root: root, Files: len(paths), Findings: []Finding{}}
	for _, fr := range results {
		res.Findings = append(res.Findings, fr.findings...)
		if fr.err != nil {
			res.Errors = append(res.Errors, *fr.err)
		}
	}
	// paths are sorted, so findings are already grouped by path; keep
	// law order within a file stable.
	sort.SliceStable(res.Findings, func(i, j int) bool {
		return res.Findings[i].Path < res.Findings[j].Path
	})

	s.log.Info("scan complete",
		zap.String("root", root),
		zap.Int("files", res.Files),
		zap.Int("findings", len(res.Findings)),
		zap.Int("errors", len(res.Errors)))
	return res, nil
}

// scanFile reads, extracts and evaluates one file.
func (s *Scanner) scanFile(abs, rel string, lawCtx laws.Context) fileResult {
	text, err := afero.ReadFile(s.fs, abs)
	if err != nil {
		ioErr := &facts.IOError{Op: "read", Path: rel, Err: err}
		s.log.Warn("cannot read file", zap.String("path", rel), zap.Error(err))
		return fileResult{err: &FileError{Path: rel, Message: ioErr.Error()}}
	}
	src := facts.NewSourceFile(rel, text)

	sheet, err := s.extract(src)
	if err != nil {
		var perr *facts.ParseError
		if errors.As(err, &perr) {
			s.log.Debug("cannot parse file", zap.String("path", rel), zap.Int("line", perr.Line))
			v := laws.Unparsable(rel, perr)
			return fileResult{findings: []Finding{{Violation: v, Vetted: src.Vetted}}}
		}
		return fileResult{err: &FileError{Path: rel, Message: err.Error()}}
	}

	var out []Finding
	for _, v := range laws.Evaluate(sheet, lawCtx) {
		out = append(out, Finding{Violation: v, Vetted: sheet.Vetted})
	}
	return fileResult{findings: out}
}

func (s *Scanner) extract(src facts.SourceFile) (*facts.FactSheet, error) {
	if s.cache == nil {
		return facts.Extract(src)
	}
	sheet, hit, err := s.cache.Extract(src)
	if hit {
		s.log.Debug("fact cache hit", zap.String("path", src.Path))
	}
	return sheet, err
}
