package build

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dist/internal/config"
	"git.home.luguber.info/inful/dist/internal/metrics"
	"git.home.luguber.info/inful/dist/internal/notify"
)

// siteFiles mirrors a small static site with two files per category.
var siteFiles = map[string]string{
	"image.jpg":         "image",
	"assets/image2.jpg": "image",
	"style.css":         "body { background: url(/img/bg.png); }",
	"css/style2.css":    "@import 'theme.css';",
	"index.html":        `<a href="/about.html">about</a><img src="image.jpg">`,
	"html/index2.html":  `<link href="../style.css" rel="stylesheet">`,
}

func newSite(t *testing.T, baseURL string) config.Resolved {
	t.Helper()
	cwd := t.TempDir()
	cfg := config.Defaults()
	cfg.Dist.Src = "test/src"
	cfg.Dist.Dest = "test/dest"
	cfg.Dist.BaseURL = baseURL
	opts, err := config.Resolve(cfg, cwd)
	require.NoError(t, err)

	for rel, content := range siteFiles {
		p := filepath.Join(opts.SourceDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return opts
}

func readDest(t *testing.T, opts config.Resolved, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(opts.DestRoot, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

type fakeRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	stages   map[string]metrics.ResultLabel
	outcomes []metrics.BuildOutcomeLabel
	copied   map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{stages: map[string]metrics.ResultLabel{}, copied: map[string]int{}}
}

func (f *fakeRecorder) IncStageResult(stage string, r metrics.ResultLabel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages[stage] = r
}

func (f *fakeRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, o)
}

func (f *fakeRecorder) AddFilesCopied(category string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copied[category] += n
}

type fakeNotifier struct {
	events []notify.BuildEvent
}

func (f *fakeNotifier) Publish(_ context.Context, ev notify.BuildEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeNotifier) Close() error { return nil }

func fixedDeps() Deps {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	calls := 0
	return Deps{
		Now: func() time.Time {
			calls++
			return start.Add(time.Duration(calls-1) * time.Second)
		},
		NewRunID: func() string { return "run-fixed" },
	}
}
