package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/uassist/internal/hive"
	"github.com/blackwell-systems/uassist/internal/logging"
	"github.com/blackwell-systems/uassist/internal/source"
	"github.com/blackwell-systems/uassist/internal/store"
	"github.com/blackwell-systems/uassist/internal/userassist"
)

// DefaultSettle is how long a file must be unchanged before it is processed.
const DefaultSettle = 2 * time.Second

// Watcher processes hive files written into a directory.
type Watcher struct {
	store   *store.Store
	decoder *userassist.Decoder
	dir     string
	settle  time.Duration

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[string]time.Time
	seen    map[string]fileStamp

	// OnRun, if set, is called after each stored run.
	OnRun func(run *store.Run)
}

type fileStamp struct {
	size    int64
	modTime time.Time
}

// New creates a new Watcher instance.
func New(st *store.Store, dec *userassist.Decoder, dir string) (*Watcher, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if dec == nil {
		return nil, fmt.Errorf("decoder cannot be nil")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	return &Watcher{
		store:   st,
		decoder: dec,
		dir:     dir,
		settle:  DefaultSettle,
		stopCh:  make(chan struct{}),
		pending: make(map[string]time.Time),
		seen:    make(map[string]fileStamp),
	}, nil
}

// SetSettle overrides DefaultSettle. It must be called before Start.
func (w *Watcher) SetSettle(d time.Duration) {
	w.settle = d
}

// Start processes files already in the directory, then watches it for new
// or rewritten files until Stop is called or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.fsw = fsw

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		fsw.Close()
		return fmt.Errorf("failed to read watch directory: %w", err)
	}
	now := time.Now()
	w.mu.Lock()
	for _, e := range entries {
		if e.Type().IsRegular() {
			w.pending[filepath.Join(w.dir, e.Name())] = now.Add(-w.settle)
		}
	}
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	return nil
}

// Stop halts the watcher after any in-flight file finishes.
func (w *Watcher) Stop() error {
	select {
	case <-w.stopCh:
		return nil
	default:
		close(w.stopCh)
	}
	w.wg.Wait()
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	logger := logging.From(ctx)
	tick := w.settle / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				w.mu.Lock()
				w.pending[ev.Name] = time.Now()
				w.mu.Unlock()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Error("watch error", logging.ErrorAttrs(err)...)
		case <-ticker.C:
			for _, path := range w.ready() {
				if _, err := w.ProcessFile(ctx, path); err != nil {
					logger.Warn("failed to process hive", append(logging.ErrorAttrs(err), slog.String("path", path))...)
				}
			}
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// ready returns pending files that have been quiet for the settle period.
func (w *Watcher) ready() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []string
	cutoff := time.Now().Add(-w.settle)
	for path, last := range w.pending {
		if !last.After(cutoff) {
			out = append(out, path)
			delete(w.pending, path)
		}
	}
	return out
}

// ProcessFile decodes the hive at path and stores the run. It returns nil
// without storing anything if the file is not a hive or was already
// processed with the same size and modification time.
func (w *Watcher) ProcessFile(ctx context.Context, path string) (*store.Run, error) {
	logger := logging.From(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}
	stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}

	w.mu.Lock()
	prev, done := w.seen[path]
	w.mu.Unlock()
	if done && prev == stamp {
		return nil, nil
	}

	started := time.Now()
	res, err := w.decoder.Run(ctx, source.NewHiveSource(path))
	switch {
	case errors.Is(err, hive.ErrFormat):
		logger.Debug("ignoring non-hive file", slog.String("path", path))
		w.markSeen(path, stamp)
		return nil, nil
	case errors.Is(err, source.ErrNotFound):
		logger.Info("hive has no UserAssist key", slog.String("path", path))
		res = &userassist.Result{}
	case err != nil:
		return nil, err
	}

	run := &store.Run{
		Source:        source.NewHiveSource(path).String(),
		StartedAt:     started,
		ExcludedCount: res.Excluded,
		SkippedCount:  res.Skipped,
	}
	if _, err := w.store.SaveRun(run, res.Records); err != nil {
		return nil, fmt.Errorf("failed to store run for %s: %w", path, err)
	}
	w.markSeen(path, stamp)

	logger.Info("stored UserAssist run",
		slog.String("path", path),
		slog.String("run", run.ID),
		slog.Int("records", run.RecordCount))
	if w.OnRun != nil {
		w.OnRun(run)
	}
	return run, nil
}

func (w *Watcher) markSeen(path string, stamp fileStamp) {
	w.mu.Lock()
	w.seen[path] = stamp
	w.mu.Unlock()
}
