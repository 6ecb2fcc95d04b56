// Package discovery walks a source tree, buckets files by category and
// optionally narrows the result to one partition.
package discovery

import (
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/dist/internal/foundation/errors"
	"git.home.luguber.info/inful/dist/internal/logfields"
)

var (
	// ErrSourceNotFound indicates the discovery root does not exist or is not a directory.
	ErrSourceNotFound = stderrors.New("source directory not found")

	// ErrWalkFailed indicates traversal below the discovery root failed.
	ErrWalkFailed = stderrors.New("source directory walk failed")
)

// Result maps each category to the discovered paths. All three keys are
// always present; unselected categories hold an empty slice.
type Result map[Category][]string

func newResult() Result {
	r := make(Result, len(Categories))
	for _, c := range Categories {
		r[c] = []string{}
	}
	return r
}

// Files returns the bucket for c.
func (r Result) Files(c Category) []string {
	return r[c]
}

// Count returns the number of files across all buckets.
func (r Result) Count() int {
	n := 0
	for _, files := range r {
		n += len(files)
	}
	return n
}

// Flatten concatenates the buckets in the order css, html, other.
func (r Result) Flatten() []string {
	out := make([]string, 0, r.Count())
	for _, c := range Categories {
		out = append(out, r[c]...)
	}
	return out
}

// FetchFiles walks root and returns the regular files selected by kind,
// bucketed by category and sorted on their NFC form. When spec is valid
// only the files of that partition are returned.
//
// A symlinked root is resolved before walking; returned paths stay below
// root as given. Symlinks to files are followed, symlinks to directories are
// skipped. Directories listed in exclude are not descended into.
func FetchFiles(root string, kind Kind, spec *PartitionSpec, exclude ...string) (Result, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		cause := ErrSourceNotFound
		if err != nil {
			cause = stderrors.Join(ErrSourceNotFound, err)
		}
		return nil, errors.NotFoundError("source directory not found").
			WithCause(cause).WithContext("path", root).Build()
	}

	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, errors.FileSystemError("failed to resolve source directory").
			WithCause(stderrors.Join(ErrWalkFailed, err)).WithContext("path", root).Build()
	}
	skipDirs := excludedDirs(root, exclude)

	result := newResult()
	walkErr := filepath.WalkDir(walkRoot, func(walked string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		path := root
		if walked != walkRoot {
			rel, err := filepath.Rel(walkRoot, walked)
			if err != nil {
				return err
			}
			path = filepath.Join(root, rel)
		}

		if d.IsDir() {
			if path != root && skipDirs[filepath.Clean(path)] {
				slog.Debug("Skipping excluded directory", logfields.Path(path))
				return filepath.SkipDir
			}
			return nil
		}
		if !isRegular(path, d) {
			return nil
		}
		c := Classify(path)
		if !kind.Selects(c) {
			return nil
		}
		result[c] = append(result[c], path)
		return nil
	})
	if walkErr != nil {
		return nil, errors.FileSystemError("failed to walk source directory").
			WithCause(stderrors.Join(ErrWalkFailed, walkErr)).WithContext("path", root).Build()
	}

	for _, c := range Categories {
		sortNFC(result[c])
	}

	if spec.Valid() {
		result = rebucket(Partition(result.Flatten(), spec))
		slog.Debug("Partition selected",
			logfields.Split(spec.Split),
			logfields.Partition(spec.Partition),
			logfields.Count(result.Count()))
	} else if spec != nil && (spec.Split != 0 || spec.Partition != 0) {
		slog.Warn("Ignoring invalid partition request",
			logfields.Split(spec.Split),
			logfields.Partition(spec.Partition))
	}

	slog.Debug("Files discovered",
		logfields.Path(root),
		logfields.Kind(string(kind)),
		logfields.Count(result.Count()))
	return result, nil
}

// isRegular reports whether the entry at path is a regular file, following
// symlinks. Dangling links and links to directories are skipped.
func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	target, err := os.Stat(path)
	if err != nil {
		slog.Debug("Skipping dangling symlink", logfields.Path(path), logfields.Error(err))
		return false
	}
	if !target.Mode().IsRegular() {
		slog.Debug("Skipping symlink to non-regular file", logfields.Path(path))
		return false
	}
	return true
}

// excludedDirs cleans the exclude list into a set. Relative entries are taken
// relative to root.
func excludedDirs(root string, exclude []string) map[string]bool {
	set := make(map[string]bool, len(exclude))
	for _, dir := range exclude {
		if dir == "" {
			continue
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		set[filepath.Clean(dir)] = true
	}
	return set
}

func rebucket(files []string) Result {
	r := newResult()
	for _, f := range files {
		c := Classify(f)
		r[c] = append(r[c], f)
	}
	return r
}

// sortNFC orders paths lexically on their Unicode NFC form so the order does
// not depend on how the filesystem stores or returns names.
func sortNFC(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return norm.NFC.String(paths[i]) < norm.NFC.String(paths[j])
	})
}
