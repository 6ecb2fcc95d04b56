package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/dist/internal/build"
	"git.home.luguber.info/inful/dist/internal/config"
	"git.home.luguber.info/inful/dist/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SiteFlags `embed:""`
	Interval  time.Duration `placeholder:"DURATION" help:"Also rebuild periodically (watch.interval); 0 keeps the configured value"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	opts, err := resolveSite(root, w.SiteFlags)
	if err != nil {
		return err
	}
	svc := newServices(opts)
	defer svc.Close()

	watcher, err := newWatcher(g.Out, opts, svc, w.Interval, nil)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "watching %s (ctrl-c to stop)\n", opts.SourceDir)
	return watcher.Run(g.Ctx)
}

// newWatcher builds a watcher that runs a full build per rebuild and calls
// onSuccess after each successful one.
func newWatcher(out io.Writer, opts config.Resolved, svc *services, interval time.Duration, onSuccess func()) (*watch.Watcher, error) {
	debounce, err := opts.Watch.DebounceDuration()
	if err != nil {
		return nil, err
	}
	if interval == 0 {
		if interval, err = opts.Watch.IntervalDuration(); err != nil {
			return nil, err
		}
	}
	deps := svc.deps(opts, "")

	return watch.New(watch.Options{
		Root:         opts.SourceDir,
		Debounce:     debounce,
		Interval:     interval,
		Ignore:       []string{opts.DestDir},
		InitialBuild: true,
		Recorder:     svc.recorder,
		AfterRebuild: func(_ string, err error) {
			if err == nil && onSuccess != nil {
				onSuccess()
			}
		},
	}, func(ctx context.Context, _ string) error {
		report, err := build.Run(ctx, opts, deps)
		printReport(out, report)
		return err
	})
}
