package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/ingestion"
	"github.com/urfave/cli/v2"
)

const (
	defaultWatchPattern  = "**/*.{md,txt}"
	defaultWatchDebounce = 500 * time.Millisecond
)

type documentIngester interface {
	Ingest(ctx context.Context, contractID core.ID, documentName, text string) (*ingestion.Result, error)
}

// dirWatcher ingests files under root whose relative path matches pattern.
// Changed files are ingested once they have been quiet for debounce.
type dirWatcher struct {
	ingester   documentIngester
	contractID core.ID
	root       string
	pattern    string
	debounce   time.Duration
	pending    map[string]time.Time
	logger     *slog.Logger
}

func newDirWatcher(ingester documentIngester, contractID core.ID, root, pattern string, logger *slog.Logger) (*dirWatcher, error) {
	if pattern == "" {
		pattern = defaultWatchPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &dirWatcher{
		ingester:   ingester,
		contractID: contractID,
		root:       root,
		pattern:    pattern,
		debounce:   defaultWatchDebounce,
		pending:    make(map[string]time.Time),
		logger:     logger.With("component", "watch", "dir", root),
	}, nil
}

// relative returns path relative to root in slash form, or false when path
// is outside root.
func (d *dirWatcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(d.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (d *dirWatcher) matches(path string) bool {
	rel, ok := d.relative(path)
	if !ok {
		return false
	}
	return doublestar.MatchUnvalidated(d.pattern, rel)
}

// ingestFile ingests one file. Duplicates and empty files are skipped.
func (d *dirWatcher) ingestFile(ctx context.Context, path string) error {
	rel, ok := d.relative(path)
	if !ok {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		d.logger.Debug("document removed before ingestion", "document", rel)
		return nil
	}
	if err != nil {
		return err
	}
	res, err := d.ingester.Ingest(ctx, d.contractID, rel, string(data))
	switch {
	case errors.Is(err, ingestion.ErrDuplicateDocument):
		d.logger.Debug("skipping unchanged document", "document", rel)
		return nil
	case errors.Is(err, ingestion.ErrEmptyDocument):
		d.logger.Debug("skipping empty document", "document", rel)
		return nil
	case err != nil:
		return err
	}
	d.logger.Info("document ingested", "document", rel, "chunks", res.ChunksIngested())
	return nil
}

// scan walks root, registering every directory with w (when non-nil) and
// passing every matching file to visit.
func (d *dirWatcher) scan(w *fsnotify.Watcher, root string, visit func(path string)) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if w != nil {
				return w.Add(path)
			}
			return nil
		}
		if d.matches(path) {
			visit(path)
		}
		return nil
	})
}

// ingestNow returns a scan visitor that ingests each file immediately.
func (d *dirWatcher) ingestNow(ctx context.Context) func(string) {
	return func(path string) {
		if err := d.ingestFile(ctx, path); err != nil {
			d.logger.Error("ingestion failed", "path", path, "err", err)
		}
	}
}

// enqueue marks path as changed at now.
func (d *dirWatcher) enqueue(now time.Time) func(string) {
	return func(path string) {
		d.pending[path] = now
	}
}

// flush ingests pending files whose last change is at least debounce before
// now, in path order. It returns how long until the next pending file is
// due, or zero when nothing is pending.
func (d *dirWatcher) flush(ctx context.Context, now time.Time) time.Duration {
	var due []string
	var next time.Duration
	for path, changed := range d.pending {
		wait := d.debounce - now.Sub(changed)
		if wait <= 0 {
			due = append(due, path)
			continue
		}
		if next == 0 || wait < next {
			next = wait
		}
	}
	slices.Sort(due)
	for _, path := range due {
		delete(d.pending, path)
		if err := d.ingestFile(ctx, path); err != nil {
			d.logger.Error("ingestion failed", "path", path, "err", err)
		}
	}
	return next
}

// handle reacts to one filesystem event received at now. Matching files are
// queued for flush; new directories are watched and their files queued.
func (d *dirWatcher) handle(w *fsnotify.Watcher, event fsnotify.Event, now time.Time) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		// Removed or renamed before we got to it
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := d.scan(w, event.Name, d.enqueue(now)); err != nil {
				d.logger.Error("failed to watch directory", "path", event.Name, "err", err)
			}
		}
		return
	}
	if d.matches(event.Name) {
		d.pending[event.Name] = now
	}
}

// run ingests existing files, then processes events until ctx is done.
// Files still pending when ctx ends are not ingested.
func (d *dirWatcher) run(ctx context.Context, w *fsnotify.Watcher) error {
	if err := d.scan(w, d.root, d.ingestNow(ctx)); err != nil {
		return err
	}
	d.logger.Info("watching for documents", "pattern", d.pattern, "debounce", d.debounce)

	timer := time.NewTimer(d.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			if next := d.flush(ctx, time.Now()); next > 0 {
				timer.Reset(next)
			}
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			d.handle(w, event, time.Now())
			if len(d.pending) > 0 {
				timer.Reset(d.debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("watcher error", "err", err)
		}
	}
}

func watchCommand(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	pipeline, err := rt.newPipeline(ingestion.WithDuplicatePolicy(ingestion.ReplaceDocuments))
	if err != nil {
		return err
	}
	defer pipeline.Release()

	dw, err := newDirWatcher(pipeline, core.ID(c.Uint64("contract")), c.String("dir"), c.String("pattern"), rt.logger)
	if err != nil {
		return err
	}
	if d := c.Duration("debounce"); d > 0 {
		dw.debounce = d
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return dw.run(ctx, w)
}
