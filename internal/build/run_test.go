package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dist/internal/config"
	"git.home.luguber.info/inful/dist/internal/history"
	"git.home.luguber.info/inful/dist/internal/manifest"
	"git.home.luguber.info/inful/dist/internal/metrics"
)

func TestRun_Success(t *testing.T) {
	opts := newSite(t, "baseurl")
	rec := newFakeRecorder()
	notifier := &fakeNotifier{}
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	deps := fixedDeps()
	deps.Recorder = rec
	deps.Notifier = notifier
	deps.History = store
	deps.ManifestPath = filepath.Join(opts.WorkingDir, "manifest.json")

	report, err := Run(context.Background(), opts, deps)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, StatusSuccess, report.Status)
	assert.Equal(t, "run-fixed", report.RunID)
	assert.Equal(t, time.Second, report.Duration)
	require.Len(t, report.Stages, 3)
	assert.Equal(t, []string{StageAssets, StageCSS, StageHTML},
		[]string{report.Stages[0].Name, report.Stages[1].Name, report.Stages[2].Name})
	for _, s := range report.Stages {
		assert.True(t, s.Outcome.IsOk(), s.Name)
	}
	assert.Len(t, report.Files(), 6)
	assert.Equal(t, map[string]int{StageAssets: 2, StageCSS: 2, StageHTML: 2}, report.FileCounts())
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess}, rec.outcomes)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "success", notifier.events[0].Status)
	assert.Equal(t, "baseurl", notifier.events[0].BaseURL)

	entries, err := store.Latest(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 6, entries[0].Files)

	data, err := os.ReadFile(deps.ManifestPath)
	require.NoError(t, err)
	m, err := manifest.FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "run-fixed", m.ID)
	assert.Len(t, m.Outputs.Files, 6)
	assert.Equal(t, report.Manifest.ID, m.ID)

	assert.Equal(t, "body { background: url(/baseurl/img/bg.png); }", readDest(t, opts, "style.css"))
	assert.Equal(t, "image", readDest(t, opts, "assets/image2.jpg"))
}

func TestRun_FailedStageFailsRun(t *testing.T) {
	opts := newSite(t, "baseurl")
	opts.SourceRoot = filepath.Join(opts.WorkingDir, "fake")
	rec := newFakeRecorder()
	notifier := &fakeNotifier{}

	deps := fixedDeps()
	deps.Recorder = rec
	deps.Notifier = notifier

	report, err := Run(context.Background(), opts, deps)
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Equal(t, StatusFailed, report.Status)
	require.Len(t, report.Stages, 3, "a failed stage does not skip the others")
	for _, s := range report.Stages {
		assert.True(t, s.Outcome.IsErr(), s.Name)
	}
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeFailed}, rec.outcomes)
	require.Len(t, notifier.events, 1)
	assert.NotEmpty(t, notifier.events[0].Error)
}

func TestRun_PartialStageFilesAreReported(t *testing.T) {
	opts := newSite(t, "baseurl")
	opts.Flags.Overwrite = false
	opts.Flags.Collision = config.CollisionError
	// assets/image2.jpg sorts first and is copied; image.jpg then collides.
	existing := filepath.Join(opts.DestRoot, "image.jpg")
	require.NoError(t, os.MkdirAll(opts.DestRoot, 0o750))
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o600))

	deps := fixedDeps()
	deps.ManifestPath = filepath.Join(opts.WorkingDir, "manifest.json")

	report, err := Run(context.Background(), opts, deps)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, report.Status)

	assets := report.Stages[0]
	require.True(t, assets.Outcome.IsErr())
	assert.Equal(t, []string{filepath.Join(opts.DestRoot, "assets", "image2.jpg")}, assets.Files())
	assert.Equal(t, map[string]int{StageAssets: 1, StageCSS: 2, StageHTML: 2}, report.FileCounts())
	assert.Len(t, report.Files(), 5)

	require.NotNil(t, report.Manifest)
	assert.Len(t, report.Manifest.Outputs.Files, 5)
}

func TestRun_Canceled(t *testing.T) {
	opts := newSite(t, "baseurl")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, opts, fixedDeps())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCanceled, report.Status)
	assert.Len(t, report.Stages, 1, "cancellation stops the run")
}

func TestRun_ManifestWriteFailure(t *testing.T) {
	opts := newSite(t, "baseurl")
	blocker := filepath.Join(opts.WorkingDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	deps := fixedDeps()
	deps.ManifestPath = filepath.Join(blocker, "manifest.json")

	report, err := Run(context.Background(), opts, deps)
	require.Error(t, err)
	assert.Equal(t, StatusSuccess, report.Status, "stages themselves succeeded")
	assert.Nil(t, report.Manifest)
}
