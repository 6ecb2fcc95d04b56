// Package copier mirrors source files into the destination tree below the base URL.
package copier

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/dist/internal/config"
	"git.home.luguber.info/inful/dist/internal/foundation/errors"
	"git.home.luguber.info/inful/dist/internal/logfields"
)

var (
	// ErrSourceMissing indicates the source root or a listed source file does not exist.
	ErrSourceMissing = stderrors.New("source file missing")

	// ErrOutsideSourceRoot indicates a listed file is not below the source root.
	ErrOutsideSourceRoot = stderrors.New("file outside source root")

	// ErrDestinationExists indicates a destination file exists while overwrite is off
	// and the collision policy is "error".
	ErrDestinationExists = stderrors.New("destination file exists")
)

// CopyFiles copies every file to DestRoot, keeping its path relative to SourceRoot.
// It returns the destination paths handled so far, including files skipped
// because they already existed. There is no rollback: on failure the files
// copied before it stay on disk.
func CopyFiles(ctx context.Context, files []string, opts config.Resolved) ([]string, error) {
	copied := make([]string, 0, len(files))
	if len(files) == 0 {
		return copied, nil
	}

	if info, err := os.Stat(opts.SourceRoot); err != nil || !info.IsDir() {
		return copied, errors.NotFoundError("source root not found").
			WithCause(ErrSourceMissing).
			WithContext("source_root", opts.SourceRoot).Build()
	}

	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return copied, errors.RuntimeError("copy cancelled").WithCause(err).
				WithContext("copied", len(copied)).Build()
		}

		dst, err := destinationFor(src, opts)
		if err != nil {
			return copied, err
		}

		skip, err := checkCollision(dst, opts.Flags)
		if err != nil {
			return copied, err
		}
		if skip {
			slog.Debug("Destination exists, skipping", logfields.Path(src), logfields.Dest(dst))
			copied = append(copied, dst)
			continue
		}

		if err := copyFile(src, dst); err != nil {
			return copied, err
		}
		slog.Debug("Copied file", logfields.Path(src), logfields.Dest(dst))
		copied = append(copied, dst)
	}

	slog.Info("Files copied", logfields.Count(len(copied)), logfields.Dest(opts.DestRoot))
	return copied, nil
}

// destinationFor maps src below SourceRoot to the same relative path below DestRoot.
func destinationFor(src string, opts config.Resolved) (string, error) {
	abs := src
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(opts.WorkingDir, abs)
	}
	rel, err := filepath.Rel(opts.SourceRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.ValidationError("file is outside the source root").
			WithCause(ErrOutsideSourceRoot).
			WithContext("path", src).
			WithContext("source_root", opts.SourceRoot).Build()
	}
	return filepath.Join(opts.DestRoot, rel), nil
}

// checkCollision reports whether dst should be left alone.
func checkCollision(dst string, flags config.FlagsConfig) (bool, error) {
	if flags.Overwrite {
		return false, nil
	}
	if _, err := os.Stat(dst); err != nil {
		return false, nil //nolint:nilerr // a missing destination is the normal case
	}
	if flags.Collision == config.CollisionError {
		return false, errors.AlreadyExistsError("destination file already exists").
			WithCause(ErrDestinationExists).
			WithContext("dest", dst).Build()
	}
	return true, nil
}

// copyFile copies src to dst, creating parent directories and preserving the file mode.
func copyFile(src, dst string) error {
	// #nosec G304 -- src comes from discovery below the configured source root
	in, err := os.Open(src)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return errors.NotFoundError("source file not found").
				WithCause(stderrors.Join(ErrSourceMissing, err)).
				WithContext("path", src).Build()
		}
		return errors.FileSystemError("failed to open source file").WithCause(err).WithContext("path", src).Build()
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return errors.FileSystemError("failed to stat source file").WithCause(err).WithContext("path", src).Build()
	}
	if info.IsDir() {
		return errors.ValidationError("source is a directory").WithContext("path", src).Build()
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return errors.FileSystemError("failed to create destination directory").
			WithCause(err).WithContext("dest", dst).Build()
	}

	// #nosec G304 -- dst is derived from the resolved destination root
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.FileSystemError("failed to create destination file").
			WithCause(err).WithContext("dest", dst).Build()
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.FileSystemError("failed to copy file").
			WithCause(err).WithContext("path", src).WithContext("dest", dst).Build()
	}
	if err := out.Close(); err != nil {
		return errors.FileSystemError("failed to close destination file").
			WithCause(err).WithContext("dest", dst).Build()
	}
	// OpenFile only applies the mode on create.
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return errors.FileSystemError("failed to set file mode").
			WithCause(err).WithContext("dest", dst).Build()
	}
	return nil
}
