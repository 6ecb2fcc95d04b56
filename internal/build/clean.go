package build

import (
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/dist/internal/config"
	"git.home.luguber.info/inful/dist/internal/foundation/errors"
	"git.home.luguber.info/inful/dist/internal/logfields"
)

// Clean removes the destination directory (without the base URL component).
// It returns the removed path, or an empty slice when there was nothing to
// remove. The working directory, any of its ancestors and filesystem roots
// are never removed.
func Clean(opts config.Resolved) ([]string, error) {
	target, err := filepath.Abs(opts.DestDir)
	if err != nil || opts.DestDir == "" {
		return nil, errors.ValidationError("invalid destination directory").
			WithCause(err).WithContext("dest", opts.DestDir).Build()
	}
	if err := checkCleanTarget(target, opts.WorkingDir); err != nil {
		return nil, err
	}

	if _, err := os.Lstat(target); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			slog.Debug("Nothing to clean", logfields.Path(target))
			return []string{}, nil
		}
		return nil, errors.FileSystemError("failed to stat destination").
			WithCause(err).WithContext("dest", target).Build()
	}

	if err := os.RemoveAll(target); err != nil {
		return nil, errors.FileSystemError("failed to remove destination").
			WithCause(err).WithContext("dest", target).Build()
	}
	slog.Info("Removed destination", logfields.Path(target))
	return []string{target}, nil
}

func checkCleanTarget(target, workingDir string) error {
	refuse := func(reason string) error {
		return errors.ValidationError("refusing to clean "+reason).
			WithCause(ErrUnsafeCleanDir).WithContext("dest", target).Build()
	}
	if filepath.Dir(target) == target {
		return refuse("a filesystem root")
	}
	if workingDir == "" {
		return nil
	}
	wd, err := filepath.Abs(workingDir)
	if err != nil {
		return nil //nolint:nilerr // no usable working directory to protect
	}
	if wd == target {
		return refuse("the working directory")
	}
	if rel, err := filepath.Rel(target, wd); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return refuse("an ancestor of the working directory")
	}
	return nil
}
