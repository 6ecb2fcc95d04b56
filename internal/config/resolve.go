package config

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/dist/internal/foundation/errors"
)

// Resolved is the read-only view of a Config that build components consume.
// All paths are absolute. It is computed once per invocation by Resolve and
// passed by value; components never modify it.
type Resolved struct {
	Config

	// WorkingDir is the absolute working directory all relative paths start from.
	WorkingDir string
	// SourceDir is dist.src resolved against WorkingDir. Discovery walks it.
	SourceDir string
	// SourceRoot is the root the copier computes relative paths from.
	// Resolve sets it to SourceDir.
	SourceRoot string
	// DestDir is dist.dest resolved against WorkingDir. Clean removes it.
	DestDir string
	// DestRoot is DestDir joined with the base URL path. Files are copied below it.
	DestRoot string
	// URLPrefix is what rewritten references are prefixed with: the base URL
	// itself when it is absolute, otherwise "/" + its path.
	URLPrefix string
}

// Resolve computes the absolute paths for cfg. An empty cwd falls back to the
// configured working directory and then to the process working directory.
func Resolve(cfg Config, cwd string) (Resolved, error) {
	if cwd == "" {
		cwd = cfg.WorkingDir
	}
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Resolved{}, ferrors.RuntimeError("failed to determine working directory").WithCause(err).Build()
		}
		cwd = wd
	}
	absCwd, err := filepath.Abs(cwd)
	if err != nil {
		return Resolved{}, ferrors.ConfigError("invalid working directory").WithCause(err).WithContext("cwd", cwd).Build()
	}

	prefix, basePath, err := splitBaseURL(cfg.Dist.BaseURL)
	if err != nil {
		return Resolved{}, ferrors.ValidationError("invalid dist.base_url").WithCause(err).
			WithContext("base_url", cfg.Dist.BaseURL).Build()
	}

	source := resolveAgainst(absCwd, cfg.Dist.Src)
	dest := resolveAgainst(absCwd, cfg.Dist.Dest)
	destRoot := dest
	if basePath != "" {
		destRoot = filepath.Join(dest, filepath.FromSlash(basePath))
	}

	cfg.WorkingDir = absCwd
	return Resolved{
		Config:     cfg,
		WorkingDir: absCwd,
		SourceDir:  source,
		SourceRoot: source,
		DestDir:    dest,
		DestRoot:   destRoot,
		URLPrefix:  prefix,
	}, nil
}

func resolveAgainst(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// splitBaseURL returns the prefix used when rewriting references and the
// slash-separated path segment used below the destination directory.
//
//	"baseurl"                      -> "/baseurl", "baseurl"
//	"/docs/v1/"                    -> "/docs/v1", "docs/v1"
//	"https://cdn.example.com/site" -> "https://cdn.example.com/site", "site"
func splitBaseURL(raw string) (prefix, basePath string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	basePath = strings.Trim(path.Clean("/"+u.Path), "/")
	if u.Scheme != "" || u.Host != "" {
		u.Path = ""
		u.RawPath = ""
		u.RawQuery = ""
		u.Fragment = ""
		prefix = strings.TrimRight(u.String(), "/")
		if basePath != "" {
			prefix += "/" + basePath
		}
		return prefix, basePath, nil
	}
	if basePath == "" {
		return "", "", nil
	}
	return "/" + basePath, basePath, nil
}
