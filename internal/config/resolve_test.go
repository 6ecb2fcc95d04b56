package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Paths(t *testing.T) {
	cwd := t.TempDir()
	cfg := Defaults()
	cfg.Dist.Src = "test/src"
	cfg.Dist.Dest = "test/dest"
	cfg.Dist.BaseURL = "baseurl"

	r, err := Resolve(cfg, cwd)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cwd, "test", "src"), r.SourceDir)
	assert.Equal(t, r.SourceDir, r.SourceRoot)
	assert.Equal(t, filepath.Join(cwd, "test", "dest"), r.DestDir)
	assert.Equal(t, filepath.Join(cwd, "test", "dest", "baseurl"), r.DestRoot)
	assert.Equal(t, "/baseurl", r.URLPrefix)
	assert.Equal(t, cwd, r.WorkingDir)
	assert.Equal(t, cwd, r.Config.WorkingDir)
}

func TestResolve_DoesNotTouchCallerConfig(t *testing.T) {
	cfg := Defaults()
	_, err := Resolve(cfg, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.WorkingDir)
}

func TestSplitBaseURL(t *testing.T) {
	tests := []struct {
		raw, prefix, basePath string
	}{
		{"", "", ""},
		{"/", "", ""},
		{"baseurl", "/baseurl", "baseurl"},
		{"/docs/v1/", "/docs/v1", "docs/v1"},
		{"../escape", "/escape", "escape"},
		{"https://cdn.example.com/site/", "https://cdn.example.com/site", "site"},
		{"https://cdn.example.com", "https://cdn.example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			prefix, basePath, err := splitBaseURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.prefix, prefix)
			assert.Equal(t, tt.basePath, basePath)
		})
	}
}
