package commands

import (
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/dist/internal/build"
	"git.home.luguber.info/inful/dist/internal/config"
	"git.home.luguber.info/inful/dist/internal/history"
	"git.home.luguber.info/inful/dist/internal/logfields"
	"git.home.luguber.info/inful/dist/internal/metrics"
	"git.home.luguber.info/inful/dist/internal/notify"
)

// services owns the optional build collaborators: metrics, history and notifications.
// Each one that fails to start is logged and replaced by its no-op.
type services struct {
	registry *prometheus.Registry
	recorder metrics.Recorder
	history  history.Store
	notifier notify.Publisher
}

func newServices(opts config.Resolved) *services {
	svc := &services{recorder: metrics.NoopRecorder{}, notifier: notify.Noop{}}

	if opts.Metrics.Enabled {
		svc.registry = prometheus.NewRegistry()
		svc.recorder = metrics.NewPrometheusRecorder(svc.registry)
	}

	if p := opts.History.Path; p != "" {
		if !filepath.IsAbs(p) {
			p = filepath.Join(opts.WorkingDir, p)
		}
		store, err := history.NewSQLiteStore(p)
		if err != nil {
			slog.Warn("Build history disabled", logfields.Path(p), logfields.Error(err))
		} else {
			svc.history = store
		}
	}

	if opts.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(opts.Notify.NATSURL, opts.Notify.Subject)
		if err != nil {
			slog.Warn("Build notifications disabled", logfields.URL(opts.Notify.NATSURL), logfields.Error(err))
		} else {
			svc.notifier = pub
		}
	}
	return svc
}

// deps returns build dependencies writing the manifest to manifestPath when set.
func (svc *services) deps(opts config.Resolved, manifestPath string) build.Deps {
	if manifestPath != "" && !filepath.IsAbs(manifestPath) {
		manifestPath = filepath.Join(opts.WorkingDir, manifestPath)
	}
	return build.Deps{
		Recorder:     svc.recorder,
		History:      svc.history,
		Notifier:     svc.notifier,
		ManifestPath: manifestPath,
	}
}

func (svc *services) Close() {
	if svc.history != nil {
		if err := svc.history.Close(); err != nil {
			slog.Warn("Failed to close history store", logfields.Error(err))
		}
	}
	if err := svc.notifier.Close(); err != nil {
		slog.Warn("Failed to close notifier", logfields.Error(err))
	}
}
