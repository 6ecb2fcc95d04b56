package copier

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dist/internal/config"
	"git.home.luguber.info/inful/dist/internal/foundation/errors"
)

var fixtureFiles = map[string]string{
	"image.jpg":         "image",
	"assets/image2.jpg": "image",
	"style.css":         "css",
	"css/style2.css":    "css",
	"index.html":        "html",
	"html/index2.html":  "html",
}

func setup(t *testing.T) (config.Resolved, []string) {
	t.Helper()
	cwd := t.TempDir()
	cfg := config.Defaults()
	cfg.Dist.Src = "test/src"
	cfg.Dist.Dest = "test/dest"
	cfg.Dist.BaseURL = "baseurl"
	opts, err := config.Resolve(cfg, cwd)
	require.NoError(t, err)

	var files []string
	for rel, content := range fixtureFiles {
		p := filepath.Join(opts.SourceDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		files = append(files, p)
	}
	return opts, files
}

func TestCopyFiles_CopiesBelowBaseURL(t *testing.T) {
	opts, files := setup(t)

	copied, err := CopyFiles(context.Background(), files, opts)
	require.NoError(t, err)
	require.Len(t, copied, 6)

	for rel, content := range fixtureFiles {
		dst := filepath.Join(opts.DestDir, "baseurl", filepath.FromSlash(rel))
		assert.Contains(t, copied, dst)
		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, content, string(got))
	}
}

func TestCopyFiles_RelativeSourcesResolveAgainstWorkingDir(t *testing.T) {
	opts, _ := setup(t)

	copied, err := CopyFiles(context.Background(), []string{"test/src/css/style2.css"}, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(opts.DestRoot, "css", "style2.css")}, copied)
}

func TestCopyFiles_PreservesMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not preserved on windows")
	}
	opts, _ := setup(t)
	script := filepath.Join(opts.SourceDir, "run.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0o600))
	require.NoError(t, os.Chmod(script, 0o750))

	copied, err := CopyFiles(context.Background(), []string{script}, opts)
	require.NoError(t, err)

	info, err := os.Stat(copied[0])
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
}

func TestCopyFiles_OverwritePolicy(t *testing.T) {
	opts, files := setup(t)
	src := filepath.Join(opts.SourceDir, "style.css")
	dst := filepath.Join(opts.DestRoot, "style.css")
	require.NoError(t, os.MkdirAll(opts.DestRoot, 0o750))
	require.NoError(t, os.WriteFile(dst, []byte("existing"), 0o600))

	t.Run("overwrite replaces", func(t *testing.T) {
		o := opts
		o.Flags.Overwrite = true
		_, err := CopyFiles(context.Background(), []string{src}, o)
		require.NoError(t, err)
		got, _ := os.ReadFile(dst)
		assert.Equal(t, "css", string(got))
		require.NoError(t, os.WriteFile(dst, []byte("existing"), 0o600))
	})

	t.Run("skip keeps existing and reports it", func(t *testing.T) {
		o := opts
		o.Flags.Overwrite = false
		o.Flags.Collision = config.CollisionSkip
		copied, err := CopyFiles(context.Background(), files, o)
		require.NoError(t, err)
		assert.Len(t, copied, len(files))
		assert.Contains(t, copied, dst)
		got, _ := os.ReadFile(dst)
		assert.Equal(t, "existing", string(got))
	})

	t.Run("error stops", func(t *testing.T) {
		o := opts
		o.Flags.Overwrite = false
		o.Flags.Collision = config.CollisionError
		_, err := CopyFiles(context.Background(), []string{src}, o)
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, ErrDestinationExists))
		assert.True(t, errors.HasCategory(err, errors.CategoryAlreadyExists))
	})
}

func TestCopyFiles_MissingSourceRoot(t *testing.T) {
	opts, files := setup(t)
	opts.SourceRoot = filepath.Join(opts.WorkingDir, "fake")

	copied, err := CopyFiles(context.Background(), files, opts)
	require.Error(t, err)
	assert.Empty(t, copied)
	assert.True(t, stderrors.Is(err, ErrSourceMissing))
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestCopyFiles_PartialFailureKeepsEarlierFiles(t *testing.T) {
	opts, _ := setup(t)
	good := filepath.Join(opts.SourceDir, "style.css")
	missing := filepath.Join(opts.SourceDir, "gone.css")

	copied, err := CopyFiles(context.Background(), []string{good, missing}, opts)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrSourceMissing))
	assert.Equal(t, []string{filepath.Join(opts.DestRoot, "style.css")}, copied)
	assert.FileExists(t, copied[0])
}

func TestCopyFiles_OutsideSourceRoot(t *testing.T) {
	opts, _ := setup(t)
	outside := filepath.Join(opts.WorkingDir, "elsewhere.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	_, err := CopyFiles(context.Background(), []string{outside}, opts)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrOutsideSourceRoot))
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestCopyFiles_Cancelled(t *testing.T) {
	opts, files := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	copied, err := CopyFiles(ctx, files, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, copied)
}

func TestCopyFiles_EmptyList(t *testing.T) {
	copied, err := CopyFiles(context.Background(), nil, config.Resolved{})
	require.NoError(t, err)
	assert.NotNil(t, copied)
	assert.Empty(t, copied)
}
