// Package watch rebuilds the site when the source tree changes.
//
// Filesystem events are debounced and handed to a single worker, so at most
// one rebuild runs at a time. Requests arriving during a rebuild collapse into
// exactly one follow-up rebuild. Optional periodic rebuilds go through the
// same worker.
package watch

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/dist/internal/foundation/errors"
	"git.home.luguber.info/inful/dist/internal/logfields"
	"git.home.luguber.info/inful/dist/internal/metrics"
)

// Rebuild triggers.
const (
	TriggerInitial  = "initial"
	TriggerFSNotify = "fsnotify"
	TriggerInterval = "interval"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc performs one rebuild.
type RebuildFunc func(ctx context.Context, trigger string) error

// Options configures a Watcher.
type Options struct {
	// Root is the source directory to watch recursively.
	Root string
	// Debounce is the quiet period after the last event before rebuilding.
	Debounce time.Duration
	// Interval schedules periodic full rebuilds when positive.
	Interval time.Duration
	// Ignore lists directories whose events never trigger a rebuild, typically
	// the destination directory when it lives inside Root.
	Ignore []string
	// InitialBuild runs one rebuild as soon as Run starts.
	InitialBuild bool
	// AfterRebuild is called after every rebuild with its result.
	AfterRebuild func(trigger string, err error)
	Recorder     metrics.Recorder
}

// Watcher watches a source tree and runs rebuilds one at a time.
type Watcher struct {
	opts     Options
	rebuild  RebuildFunc
	requests chan string

	mu    sync.Mutex
	timer *time.Timer
}

// New validates opts and returns a Watcher. Nothing is watched until Run.
func New(opts Options, rebuild RebuildFunc) (*Watcher, error) {
	if rebuild == nil {
		return nil, errors.InternalError("watch: rebuild function is required").Build()
	}
	if st, err := os.Stat(opts.Root); err != nil || !st.IsDir() {
		return nil, errors.NotFoundError("watch root not found or not a directory").
			WithCause(err).WithContext("path", opts.Root).Build()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	ignore := make([]string, 0, len(opts.Ignore))
	for _, p := range opts.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			ignore = append(ignore, abs)
		}
	}
	opts.Ignore = ignore

	return &Watcher{
		opts:     opts,
		rebuild:  rebuild,
		requests: make(chan string, 1),
	}, nil
}

// Run watches until ctx is done. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.RuntimeError("failed to create file watcher").WithCause(err).Build()
	}
	defer func() { _ = fw.Close() }()
	w.addDirsRecursive(fw, w.opts.Root)

	if w.opts.Interval > 0 {
		sched, err := w.startScheduler()
		if err != nil {
			return err
		}
		defer func() { _ = sched.Shutdown() }()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx)
	}()
	defer wg.Wait()
	defer w.stopTimer()

	if w.opts.InitialBuild {
		w.request(TriggerInitial)
	}
	slog.Info("Watching for changes", logfields.Path(w.opts.Root),
		slog.Duration("debounce", w.opts.Debounce), slog.Duration("interval", w.opts.Interval))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Trigger schedules a debounced rebuild.
func (w *Watcher) Trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() {
		w.request(TriggerFSNotify)
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// request queues a rebuild without blocking. While one is already queued,
// further requests are dropped.
func (w *Watcher) request(trigger string) {
	select {
	case w.requests <- trigger:
	default:
	}
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-w.requests:
			w.runOnce(ctx, trigger)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context, trigger string) {
	w.opts.Recorder.IncRebuild(trigger)
	slog.Info("Rebuilding", slog.String("trigger", trigger))
	start := time.Now()
	err := w.rebuild(ctx, trigger)
	switch {
	case err == nil:
		slog.Info("Rebuild complete", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	case stderrors.Is(err, context.Canceled):
		slog.Debug("Rebuild canceled")
	default:
		slog.Warn("Rebuild failed", logfields.Error(err))
	}
	if w.opts.AfterRebuild != nil {
		w.opts.AfterRebuild(trigger, err)
	}
}

func (w *Watcher) startScheduler() (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.RuntimeError("failed to create scheduler").WithCause(err).Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(func() { w.request(TriggerInterval) }),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.RuntimeError("failed to schedule periodic rebuild").
			WithCause(err).WithContext("interval", w.opts.Interval.String()).Build()
	}
	s.Start()
	return s, nil
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) {
	if w.shouldIgnore(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(fw, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), logfields.Op(ev.Op.String()))
	w.Trigger()
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.opts.Root && w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnore reports whether changes to path must not trigger a rebuild.
func (w *Watcher) shouldIgnore(path string) bool {
	if abs, err := filepath.Abs(path); err == nil {
		for _, dir := range w.opts.Ignore {
			if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
				return true
			}
		}
	}
	return isTempFile(filepath.Base(path))
}

// isTempFile matches hidden files and editor swap or lock files.
func isTempFile(base string) bool {
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasSuffix(base, ".tmp"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db" || base == "4913":
		return true
	}
	return false
}
