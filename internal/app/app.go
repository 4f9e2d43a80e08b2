// # internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"deadvar/internal/analysis"
	"deadvar/internal/config"
	dverrors "deadvar/internal/core/errors"
	"deadvar/internal/history"
	"deadvar/internal/parser"
	"deadvar/internal/report"
	"deadvar/internal/shared/observability"
	"deadvar/internal/shared/util"
	"deadvar/internal/watcher"
)

// Update is the state snapshot pushed to UI subscribers after each pass.
type Update struct {
	Files      []*parser.FileReport
	FileCount  int
	Findings   int
	Suppressed int
	Errors     int
}

type App struct {
	Config *config.Config
	Parser *parser.Parser

	// Cached per-file reports keyed by path for incremental updates.
	reports  map[string]*parser.FileReport
	reportMu sync.RWMutex

	// Files that failed to parse or bind, kept so totals stay honest.
	failures  map[string]error
	failureMu sync.RWMutex

	store    *history.Store
	limiters *util.LimiterRegistry

	updateMu sync.RWMutex
	onUpdate func(Update)

	watcher *watcher.Watcher
}

func New(cfg *config.Config) (*App, error) {
	p := parser.NewParser(parser.NewGrammarLoader())
	p.RegisterAnalyzer("python", &parser.PythonBinder{Dialect: cfg.PythonDialect()})
	ecma := &parser.ECMAScriptBinder{Dialect: cfg.ECMAScriptDialect()}
	p.RegisterAnalyzer("javascript", ecma)
	p.RegisterAnalyzer("typescript", ecma)

	a := &App{
		Config:   cfg,
		Parser:   p,
		reports:  make(map[string]*parser.FileReport),
		failures: make(map[string]error),
		limiters: util.NewLimiterRegistry(cfg.Watch.MaxRescansPerSecond, 2, 5*time.Minute),
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, dverrors.Wrap(err, dverrors.CodeInternal, "open history store")
		}
		a.store = store
	}

	return a, nil
}

func (a *App) Close() error {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	return a.store.Close()
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

func (a *App) InitialScan(ctx context.Context) error {
	ctx, span := observability.Tracer.Start(ctx, "app.InitialScan")
	defer span.End()

	start := time.Now()
	roots := uniqueScanRoots(a.Config.Paths)

	files, err := a.ScanDirectories(roots, a.Config.Exclude.Dirs, a.Config.Exclude.Files)
	if err != nil {
		return err
	}

	for _, filePath := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.ProcessFile(filePath); err != nil {
			slog.Warn("failed to analyze file", "path", filePath, "error", err)
		}
	}

	a.refreshMetrics()
	if err := a.GenerateOutputs(); err != nil {
		slog.Error("failed to generate outputs", "error", err)
	}
	duration := time.Since(start)
	a.PrintSummary(len(files), duration)
	a.saveRun(duration)
	a.emitUpdate(a.CurrentUpdate())
	return nil
}

// uniqueScanRoots deduplicates the configured paths and drops roots nested
// inside another root, so a file is never scanned or watched twice.
func uniqueScanRoots(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized := filepath.Clean(p)
		if abs, err := filepath.Abs(normalized); err == nil {
			normalized = filepath.Clean(abs)
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		roots = append(roots, normalized)
	}
	sort.Strings(roots)

	// A parent sorts before its children, so each root only needs to be
	// checked against the ones already kept.
	kept := roots[:0]
	for _, root := range roots {
		nested := false
		for _, parent := range kept {
			if util.HasPathPrefix(root, parent) {
				nested = true
				break
			}
		}
		if !nested {
			kept = append(kept, root)
		}
	}
	return kept
}

func (a *App) ScanDirectories(paths []string, excludeDirs, excludeFiles []string) ([]string, error) {
	var files []string

	dirGlobs := make([]glob.Glob, 0, len(excludeDirs))
	for _, p := range excludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(excludeFiles))
	for _, p := range excludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		fileGlobs = append(fileGlobs, g)
	}

	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			base := filepath.Base(path)
			if d.IsDir() {
				for _, g := range dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if !a.Parser.Supported(path) {
				return nil
			}

			for _, g := range fileGlobs {
				if g.Match(base) {
					return nil
				}
			}

			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func (a *App) ProcessFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		a.recordFailure(path, err)
		return err
	}

	start := time.Now()
	fileReport, err := a.Parser.AnalyzeFile(path, content)
	if err != nil {
		observability.AnalysisErrorsTotal.Inc()
		wrapped := wrapAnalysisError(err, path)
		a.recordFailure(path, wrapped)
		return wrapped
	}
	observability.ParsingDuration.WithLabelValues(fileReport.Language).Observe(time.Since(start).Seconds())

	a.reportMu.Lock()
	a.reports[path] = fileReport
	a.reportMu.Unlock()

	a.failureMu.Lock()
	delete(a.failures, path)
	a.failureMu.Unlock()
	return nil
}

// wrapAnalysisError classifies analyzer failures: declarations the scope
// model cannot place keep their own code and name/dialect context, anything
// else is a parse failure.
func wrapAnalysisError(err error, path string) error {
	var scopeErr *analysis.ScopeError
	if errors.As(err, &scopeErr) {
		wrapped := dverrors.Wrap(err, dverrors.CodeScopeError, "bind scopes")
		wrapped = dverrors.AddContext(wrapped, dverrors.CtxName, scopeErr.Name)
		wrapped = dverrors.AddContext(wrapped, dverrors.CtxDialect, scopeErr.Dialect)
		return dverrors.AddContext(wrapped, dverrors.CtxPath, path)
	}
	return dverrors.AddContext(
		dverrors.Wrap(err, dverrors.CodeParseError, "analyze file"),
		dverrors.CtxPath, path,
	)
}

func (a *App) recordFailure(path string, err error) {
	a.failureMu.Lock()
	a.failures[path] = err
	a.failureMu.Unlock()

	a.reportMu.Lock()
	delete(a.reports, path)
	a.reportMu.Unlock()
}

func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))
	start := time.Now()
	processed := 0

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			a.RemoveFile(path)
			continue
		}

		if !a.limiters.Get(path).Allow(1) {
			slog.Debug("rescan rate limit hit", "path", path)
			continue
		}

		observability.RescansTotal.Inc()
		processed++
		if err := a.ProcessFile(path); err != nil {
			slog.Warn("failed to re-analyze file", "path", path, "error", err)
		}
	}

	a.refreshMetrics()
	if err := a.GenerateOutputs(); err != nil {
		slog.Error("failed to generate outputs", "error", err)
	}

	duration := time.Since(start)
	a.PrintSummary(processed, duration)
	a.saveRun(duration)

	update := a.CurrentUpdate()
	a.emitUpdate(update)

	if a.Config.Alerts.Beep && update.Findings > 0 {
		fmt.Print("\a")
	}
}

func (a *App) RemoveFile(path string) {
	a.reportMu.Lock()
	delete(a.reports, path)
	a.reportMu.Unlock()

	a.failureMu.Lock()
	delete(a.failures, path)
	a.failureMu.Unlock()
}

// Reports returns the cached per-file reports ordered by path.
func (a *App) Reports() []*parser.FileReport {
	a.reportMu.RLock()
	defer a.reportMu.RUnlock()

	out := make([]*parser.FileReport, 0, len(a.reports))
	for _, path := range util.SortedStringKeys(a.reports) {
		out = append(out, a.reports[path])
	}
	return out
}

func (a *App) CurrentUpdate() Update {
	files := a.Reports()

	update := Update{
		Files:     files,
		FileCount: len(files),
	}
	for _, f := range files {
		update.Findings += len(f.Findings)
		update.Suppressed += f.Suppressed
	}

	a.failureMu.RLock()
	update.Errors = len(a.failures)
	a.failureMu.RUnlock()
	return update
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

func (a *App) refreshMetrics() {
	update := a.CurrentUpdate()
	observability.FilesAnalyzed.Set(float64(update.FileCount))
	observability.UnusedLocals.Set(float64(update.Findings))
	observability.SuppressedScopes.Set(float64(update.Suppressed))
}

func (a *App) GenerateOutputs() error {
	target := strings.TrimSpace(a.Config.Output.SARIF)
	if target == "" {
		return nil
	}

	root := projectRoot(a.Config.Paths)
	data, err := report.GenerateSARIF(root, a.Reports())
	if err != nil {
		return fmt.Errorf("generate SARIF output: %w", err)
	}
	if err := util.WriteFileWithDirs(target, data, 0o644); err != nil {
		return fmt.Errorf("write SARIF output %q: %w", target, err)
	}
	return nil
}

func projectRoot(paths []string) string {
	if len(paths) > 0 {
		if abs, err := filepath.Abs(paths[0]); err == nil {
			return abs
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return ""
}

func (a *App) PrintSummary(fileCount int, duration time.Duration) {
	if !a.Config.Alerts.Terminal {
		return
	}

	update := a.CurrentUpdate()

	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Update: %d files in %v\n", fileCount, duration)

	if update.Findings > 0 {
		fmt.Printf("⚠️  FOUND %d UNUSED LOCAL VARIABLES:\n", update.Findings)
		for _, f := range update.Files {
			for _, finding := range f.Findings {
				fmt.Printf("   %s in %s:%d:%d\n", finding.Name, f.Path, finding.Span.StartLine, finding.Span.StartCol)
			}
		}
	} else {
		fmt.Println("✅ No unused local variables found.")
	}

	if update.Suppressed > 0 {
		fmt.Printf("🔍 %d scopes skipped due to reflective access (locals/eval).\n", update.Suppressed)
	}
	if update.Errors > 0 {
		fmt.Printf("❗ %d files could not be analyzed.\n", update.Errors)
	}
	fmt.Println(strings.Repeat("-", 40))
}

func (a *App) saveRun(duration time.Duration) {
	if a.store == nil {
		return
	}

	update := a.CurrentUpdate()
	start := time.Now()
	err := a.store.SaveRun(history.Run{
		Timestamp:       time.Now().UTC(),
		FileCount:       update.FileCount,
		FindingCount:    update.Findings,
		SuppressedCount: update.Suppressed,
		ErrorCount:      update.Errors,
		Duration:        duration,
	})
	observability.HistoryWriteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Error("failed to persist run history", "error", err)
	}
}

// RunTrend loads persisted runs since the cutoff and derives deltas.
func (a *App) RunTrend(since time.Time) ([]history.TrendPoint, error) {
	if a.store == nil {
		return nil, dverrors.New(dverrors.CodeNotSupported, "history is disabled")
	}
	runs, err := a.store.LoadRuns(since)
	if err != nil {
		return nil, err
	}
	return history.Trend(runs), nil
}

func (a *App) StartWatcher() error {
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		a.Parser.Supported,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	a.watcher = w
	return w.Watch(uniqueScanRoots(a.Config.Paths))
}
