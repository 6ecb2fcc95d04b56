package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dist/internal/config"
	"git.home.luguber.info/inful/dist/internal/foundation/errors"
)

type testEnv struct {
	cwd string
	out *bytes.Buffer
	err *bytes.Buffer
	in  *strings.Reader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cwd := t.TempDir()
	files := map[string]string{
		"src/index.html":    `<a href="/about.html">about</a><img src="img/logo.png">`,
		"src/css/site.css":  `body { background: url(../img/bg.png); }`,
		"src/img/logo.png":  "png",
		"src/img/bg.png":    "png",
		"src/docs/page.txt": "text",
	}
	for rel, content := range files {
		p := filepath.Join(cwd, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return &testEnv{cwd: cwd, out: &bytes.Buffer{}, err: &bytes.Buffer{}, in: strings.NewReader("")}
}

func (e *testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	g := &Global{Ctx: context.Background(), In: e.in, Out: e.out, Err: e.err}
	return Execute(&CLI{}, g, append([]string{"--cwd", e.cwd}, args...))
}

func (e *testEnv) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.cwd, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestBuild_IsDefaultCommand(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.run(t, "-b", "baseurl"))

	assert.Contains(t, env.out.String(), "copying")
	assert.Contains(t, env.out.String(), "build success")
	assert.Equal(t, "png", env.read(t, "dist/baseurl/img/logo.png"))
	assert.Equal(t, "text", env.read(t, "dist/baseurl/docs/page.txt"))
	assert.Contains(t, env.read(t, "dist/baseurl/index.html"), `href="/baseurl/about.html"`)
	assert.Contains(t, env.read(t, "dist/baseurl/css/site.css"), "url(/baseurl/img/bg.png)")
}

func TestBuild_WritesManifest(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.run(t, "build", "--manifest", "out/manifest.json"))
	assert.Contains(t, env.read(t, "out/manifest.json"), `"status": "success"`)
}

func TestBuild_PartitionFromEnv(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("DIST_SPLIT", "2")
	t.Setenv("DIST_PARTITION", "1")
	require.NoError(t, env.run(t, "assets"))

	first := env.out.String()
	env.out.Reset()
	t.Setenv("DIST_PARTITION", "2")
	require.NoError(t, env.run(t, "assets"))

	assert.Contains(t, first, "copied 2 assets")
	assert.Contains(t, env.out.String(), "copied 1 assets")
}

func TestBuild_MissingSource(t *testing.T) {
	env := newTestEnv(t)
	err := env.run(t, "-s", "nope")
	require.Error(t, err)
	assert.NotEqual(t, 0, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestCSSAndHTML(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.run(t, "css", "-b", "/site"))
	assert.Contains(t, env.read(t, "dist/site/css/site.css"), "url(/site/img/bg.png)")
	_, err := os.Stat(filepath.Join(env.cwd, "dist/site/index.html"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, env.run(t, "html", "-b", "/site"))
	assert.Contains(t, env.read(t, "dist/site/index.html"), `src="/site/img/logo.png"`)
}

func TestClean(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.run(t))

	env.in = strings.NewReader("n\n")
	require.NoError(t, env.run(t, "clean"))
	assert.Contains(t, env.out.String(), "aborted")
	assert.DirExists(t, filepath.Join(env.cwd, "dist"))

	env.out.Reset()
	require.NoError(t, env.run(t, "clean", "-y"))
	assert.Contains(t, env.out.String(), "removed")
	assert.NoDirExists(t, filepath.Join(env.cwd, "dist"))
}

func TestClean_RefusesWorkingDirectory(t *testing.T) {
	env := newTestEnv(t)
	err := env.run(t, "clean", "-y", "-d", ".")
	require.Error(t, err)
	assert.DirExists(t, filepath.Join(env.cwd, "src"))
}

func TestInit(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.run(t, "init"))
	assert.FileExists(t, filepath.Join(env.cwd, config.DefaultConfigFile))

	err := env.run(t, "init")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryAlreadyExists))

	require.NoError(t, env.run(t, "init", "--force"))
}

func TestConfigFileAndHistory(t *testing.T) {
	env := newTestEnv(t)
	cfg := "dist:\n  src: src\n  dest: public\n  base_url: /blog\nhistory:\n  path: .dist/history.db\n"
	require.NoError(t, os.WriteFile(filepath.Join(env.cwd, "dist.yaml"), []byte(cfg), 0o600))

	require.NoError(t, env.run(t))
	assert.Equal(t, "png", env.read(t, "public/blog/img/logo.png"))

	env.out.Reset()
	require.NoError(t, env.run(t, "history", "-n", "5"))
	assert.Contains(t, env.out.String(), "STATUS")
	assert.Contains(t, env.out.String(), "success")
}

func TestHistory_Disabled(t *testing.T) {
	env := newTestEnv(t)
	err := env.run(t, "history")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestExplicitConfigMustExist(t *testing.T) {
	env := newTestEnv(t)
	err := env.run(t, "-c", "missing.yaml", "build")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestInvalidArguments(t *testing.T) {
	env := newTestEnv(t)
	err := env.run(t, "build", "--overwrite", "--no-overwrite")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestServe_RejectsBadPort(t *testing.T) {
	env := newTestEnv(t)
	for _, port := range []string{"sfsd", "0", "65536", "-1231"} {
		err := env.run(t, "serve", "-p", port)
		require.Error(t, err, port)
		assert.True(t, errors.HasCategory(err, errors.CategoryValidation), port)
	}
}

func TestPublish_RequiresBucket(t *testing.T) {
	env := newTestEnv(t)
	err := env.run(t, "publish")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.run(t, "version"))
	assert.True(t, strings.HasPrefix(env.out.String(), "dist "))
}

func TestSiteFlagsApply(t *testing.T) {
	cfg := config.Defaults()
	SiteFlags{Src: "a", Dest: "b", BaseURL: "/c", Split: 3, Partition: 2, NoOverwrite: true}.Apply(&cfg)
	assert.Equal(t, "a", cfg.Dist.Src)
	assert.Equal(t, "b", cfg.Dist.Dest)
	assert.Equal(t, "/c", cfg.Dist.BaseURL)
	assert.Equal(t, 3, cfg.Dist.Split)
	assert.Equal(t, 2, cfg.Dist.Partition)
	assert.False(t, cfg.Flags.Overwrite)

	cfg = config.Defaults()
	cfg.Dist.Split = 4
	SiteFlags{}.Apply(&cfg)
	assert.Equal(t, 4, cfg.Dist.Split)
	assert.True(t, cfg.Flags.Overwrite)
}
