package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/dist/internal/config"
	"git.home.luguber.info/inful/dist/internal/discovery"
	"git.home.luguber.info/inful/dist/internal/foundation"
	"git.home.luguber.info/inful/dist/internal/foundation/errors"
	"git.home.luguber.info/inful/dist/internal/history"
	"git.home.luguber.info/inful/dist/internal/logfields"
	"git.home.luguber.info/inful/dist/internal/manifest"
	"git.home.luguber.info/inful/dist/internal/metrics"
	"git.home.luguber.info/inful/dist/internal/notify"
	"git.home.luguber.info/inful/dist/internal/observability"
)

// Status is the final outcome of a run.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// StageOutcome is the copied destination paths of a stage, or its error.
type StageOutcome = foundation.Result[[]string, error]

// StageReport pairs a stage with its outcome. Partial holds the files a
// failed stage wrote before it stopped.
type StageReport struct {
	Name     string
	Outcome  StageOutcome
	Duration time.Duration
	Partial  []string
}

// Files returns the destination paths the stage left on disk, whether or
// not it succeeded.
func (s StageReport) Files() []string {
	return s.Outcome.UnwrapOr(s.Partial)
}

// Report describes one Run.
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Status    Status
	Stages    []StageReport
	Manifest  *manifest.BuildManifest
}

// Files returns the destination paths written by every stage, in stage
// order. Files copied by a failed stage before it stopped are included.
func (r *Report) Files() []string {
	var out []string
	for _, s := range r.Stages {
		out = append(out, s.Files()...)
	}
	return out
}

// FileCounts returns the number of destination files per stage.
func (r *Report) FileCounts() map[string]int {
	counts := make(map[string]int, len(r.Stages))
	for _, s := range r.Stages {
		counts[s.Name] = len(s.Files())
	}
	return counts
}

// Err joins the errors of all failed stages, nil when every stage succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, s := range r.Stages {
		if s.Outcome.IsErr() {
			errs = append(errs, s.Outcome.UnwrapErr())
		}
	}
	return stderrors.Join(errs...)
}

type stageFunc func(ctx context.Context, opts config.Resolved, deps Deps) ([]string, error)

func stagePlan() []struct {
	name string
	run  stageFunc
} {
	rewriteStage := func(kind discovery.Kind) stageFunc {
		return func(ctx context.Context, opts config.Resolved, deps Deps) ([]string, error) {
			return runStage(ctx, kind, opts, deps)
		}
	}
	return []struct {
		name string
		run  stageFunc
	}{
		{StageAssets, rewriteStage(discovery.KindAssets)},
		{StageCSS, rewriteStage(discovery.KindCSS)},
		{StageHTML, rewriteStage(discovery.KindHTML)},
	}
}

// Run executes CloneAssets, Rewrite(css) and Rewrite(html) in order. Each
// stage stops at its first error; a failed stage does not prevent the next
// one, but the run fails if any stage failed. Cancellation stops the run.
// The returned Report is never nil.
func Run(ctx context.Context, opts config.Resolved, deps Deps) (*Report, error) {
	deps = deps.withDefaults()
	report := &Report{
		RunID:     deps.NewRunID(),
		StartedAt: deps.Now(),
		Status:    StatusSuccess,
	}
	ctx = observability.WithRunID(ctx, report.RunID)
	observability.InfoContext(ctx, "Build started",
		logfields.Path(opts.SourceDir),
		logfields.Dest(opts.DestRoot),
		logfields.Split(opts.Dist.Split),
		logfields.Partition(opts.Dist.Partition))

	for _, st := range stagePlan() {
		if err := ctx.Err(); err != nil {
			report.Stages = append(report.Stages, StageReport{Name: st.name, Outcome: foundation.Err[[]string](err)})
			break
		}
		start := time.Now()
		files, err := st.run(ctx, opts, deps)
		sr := StageReport{
			Name:     st.name,
			Outcome:  foundation.FromTuple(files, err),
			Duration: time.Since(start),
		}
		if err != nil {
			sr.Partial = files
		}
		report.Stages = append(report.Stages, sr)
	}

	report.Duration = deps.Now().Sub(report.StartedAt)
	runErr := report.Err()
	switch {
	case runErr == nil:
	case stderrors.Is(runErr, context.Canceled) || stderrors.Is(runErr, context.DeadlineExceeded):
		report.Status = StatusCanceled
	default:
		report.Status = StatusFailed
	}

	deps.Recorder.ObserveBuildDuration(report.Duration)
	deps.Recorder.IncBuildOutcome(outcomeLabel(report.Status))

	if err := finalize(ctx, report, opts, deps); err != nil {
		runErr = stderrors.Join(runErr, err)
	}

	if runErr != nil {
		observability.ErrorContext(ctx, "Build failed",
			slog.String("status", string(report.Status)),
			logfields.DurationMS(float64(report.Duration.Milliseconds())),
			logfields.Error(runErr))
		if errors.IsClassified(runErr) {
			return report, runErr
		}
		return report, errors.BuildError("build failed").
			WithCause(stderrors.Join(ErrStageFailed, runErr)).
			WithContext("run_id", report.RunID).Build()
	}
	observability.InfoContext(ctx, "Build complete",
		logfields.Count(len(report.Files())),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report, nil
}

func outcomeLabel(s Status) metrics.BuildOutcomeLabel {
	switch s {
	case StatusSuccess:
		return metrics.BuildOutcomeSuccess
	case StatusCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeFailed
	}
}

// finalize writes the manifest, appends history and publishes the build
// event. Only a manifest failure is returned; history and notification
// failures are logged.
func finalize(ctx context.Context, report *Report, opts config.Resolved, deps Deps) error {
	var manifestErr error
	if deps.ManifestPath != "" {
		m, err := buildManifest(report, opts)
		if err == nil {
			err = m.WriteFile(deps.ManifestPath)
		}
		if err != nil {
			manifestErr = errors.FileSystemError("failed to write build manifest").
				WithCause(err).WithContext("path", deps.ManifestPath).Build()
		} else {
			report.Manifest = m
			observability.DebugContext(ctx, "Manifest written", logfields.Path(deps.ManifestPath))
		}
	}

	errText := ""
	if err := report.Err(); err != nil {
		errText = err.Error()
	}

	if deps.History != nil {
		entry := history.Entry{
			RunID:     report.RunID,
			StartedAt: report.StartedAt,
			Status:    string(report.Status),
			Files:     len(report.Files()),
			Duration:  report.Duration,
			Split:     opts.Dist.Split,
			Partition: opts.Dist.Partition,
			Error:     errText,
		}
		if err := deps.History.Record(context.WithoutCancel(ctx), entry); err != nil {
			observability.WarnContext(ctx, "Failed to record build history", logfields.Error(err))
		}
	}

	event := notify.BuildEvent{
		RunID:      report.RunID,
		Status:     string(report.Status),
		Timestamp:  report.StartedAt,
		DurationMS: report.Duration.Milliseconds(),
		Source:     opts.SourceDir,
		Dest:       opts.DestRoot,
		BaseURL:    opts.Dist.BaseURL,
		Split:      opts.Dist.Split,
		Partition:  opts.Dist.Partition,
		Files:      report.FileCounts(),
		Error:      errText,
	}
	if err := deps.Notifier.Publish(context.WithoutCancel(ctx), event); err != nil {
		observability.WarnContext(ctx, "Failed to publish build event", logfields.Error(err))
	}
	return manifestErr
}

func buildManifest(report *Report, opts config.Resolved) (*manifest.BuildManifest, error) {
	m := &manifest.BuildManifest{
		ID:        report.RunID,
		Timestamp: report.StartedAt,
		Inputs: manifest.Inputs{
			Source:    opts.SourceDir,
			Dest:      opts.DestRoot,
			BaseURL:   opts.Dist.BaseURL,
			Split:     opts.Dist.Split,
			Partition: opts.Dist.Partition,
		},
		Outputs:  manifest.Outputs{Files: []manifest.FileEntry{}},
		Status:   string(report.Status),
		Duration: report.Duration.Milliseconds(),
	}
	if err := report.Err(); err != nil {
		m.Error = err.Error()
	}
	for _, path := range report.Files() {
		entry, err := manifest.NewFileEntry(opts.DestRoot, path, string(discovery.Classify(path)))
		if err != nil {
			return nil, err
		}
		m.Outputs.Files = append(m.Outputs.Files, entry)
	}
	return m, nil
}
