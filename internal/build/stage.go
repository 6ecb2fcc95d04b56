package build

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/dist/internal/config"
	"git.home.luguber.info/inful/dist/internal/copier"
	"git.home.luguber.info/inful/dist/internal/discovery"
	"git.home.luguber.info/inful/dist/internal/foundation/errors"
	"git.home.luguber.info/inful/dist/internal/logfields"
	"git.home.luguber.info/inful/dist/internal/metrics"
	"git.home.luguber.info/inful/dist/internal/observability"
	"git.home.luguber.info/inful/dist/internal/rewrite"
)

// Stage names as used in reports, metrics and logs.
const (
	StageAssets = "assets"
	StageCSS    = "css"
	StageHTML   = "html"
)

// Rewrite discovers the files of kind (css or html) below the source
// directory, copies them below the destination base and rewrites their
// references in place. It returns nil only when every step succeeded.
func Rewrite(ctx context.Context, kind discovery.Kind, opts config.Resolved, deps Deps) error {
	if kind != discovery.KindCSS && kind != discovery.KindHTML {
		return errors.ValidationError("rewrite supports css and html only").
			WithContext("kind", string(kind)).Build()
	}
	_, err := runStage(ctx, kind, opts, deps.withDefaults())
	return err
}

// CloneAssets copies every file that is neither CSS nor HTML below the
// destination base and returns the destination paths.
func CloneAssets(ctx context.Context, opts config.Resolved, deps Deps) ([]string, error) {
	return runStage(ctx, discovery.KindAssets, opts, deps.withDefaults())
}

func stageName(kind discovery.Kind) string {
	switch kind {
	case discovery.KindCSS:
		return StageCSS
	case discovery.KindHTML:
		return StageHTML
	default:
		return StageAssets
	}
}

func categoryOf(kind discovery.Kind) discovery.Category {
	switch kind {
	case discovery.KindCSS:
		return discovery.CategoryCSS
	case discovery.KindHTML:
		return discovery.CategoryHTML
	default:
		return discovery.CategoryOther
	}
}

// runStage is one discover, copy (and for css/html, rewrite) pass. deps must
// already carry defaults.
func runStage(ctx context.Context, kind discovery.Kind, opts config.Resolved, deps Deps) ([]string, error) {
	stage := stageName(kind)
	ctx = observability.WithKind(observability.WithStage(ctx, stage), string(kind))
	start := time.Now()

	copied, err := executeStage(ctx, kind, opts, deps.Recorder)
	deps.Recorder.ObserveStageDuration(stage, time.Since(start))
	switch {
	case err == nil:
		deps.Recorder.IncStageResult(stage, metrics.ResultSuccess)
		observability.InfoContext(ctx, "Stage complete",
			logfields.Count(len(copied)),
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	case stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded):
		deps.Recorder.IncStageResult(stage, metrics.ResultCanceled)
		observability.WarnContext(ctx, "Stage canceled", logfields.Count(len(copied)))
	default:
		deps.Recorder.IncStageResult(stage, metrics.ResultFailed)
		observability.ErrorContext(ctx, "Stage failed", logfields.Count(len(copied)), logfields.Error(err))
	}
	return copied, err
}

func executeStage(ctx context.Context, kind discovery.Kind, opts config.Resolved, rec metrics.Recorder) ([]string, error) {
	spec := &discovery.PartitionSpec{Split: opts.Dist.Split, Partition: opts.Dist.Partition}
	// A destination inside the source tree must not be copied into itself.
	found, err := discovery.FetchFiles(opts.SourceDir, kind, spec, opts.DestDir, opts.DestRoot)
	if err != nil {
		return nil, err
	}

	category := categoryOf(kind)
	files := found.Files(category)
	observability.DebugContext(ctx, "Files selected", logfields.Count(len(files)), logfields.Path(opts.SourceDir))

	copied, err := copier.CopyFiles(ctx, files, opts)
	rec.AddFilesCopied(string(category), len(copied))
	if err != nil {
		return copied, err
	}
	if kind == discovery.KindAssets {
		return copied, nil
	}

	rewritten := 0
	for _, dst := range copied {
		if err := ctx.Err(); err != nil {
			return copied, errors.RuntimeError("rewrite cancelled").WithCause(err).Build()
		}
		changed, err := rewriteFile(dst, kind, opts)
		if err != nil {
			return copied, err
		}
		if changed {
			rewritten++
		}
	}
	rec.AddFilesRewritten(string(category), rewritten)
	observability.DebugContext(ctx, "References rewritten", logfields.Count(rewritten))
	return copied, nil
}

// rewriteFile rewrites dst in place and reports whether its content changed.
func rewriteFile(dst string, kind discovery.Kind, opts config.Resolved) (bool, error) {
	// #nosec G304 -- dst was produced by the copier below DestRoot
	content, err := os.ReadFile(dst)
	if err != nil {
		return false, errors.FileSystemError("failed to read copied file").
			WithCause(stderrors.Join(ErrRewriteFailed, err)).WithContext("path", dst).Build()
	}

	ref := rewrite.Ref{BaseURL: opts.URLPrefix, Dir: relDir(opts.DestRoot, dst)}
	var out []byte
	if kind == discovery.KindCSS {
		out = rewrite.CSS(content, ref)
	} else {
		out, err = rewrite.HTML(content, ref)
		if err != nil {
			return false, errors.BuildError("failed to parse html").
				WithCause(stderrors.Join(ErrRewriteFailed, err)).WithContext("path", dst).Build()
		}
	}
	if string(out) == string(content) {
		return false, nil
	}

	info, err := os.Stat(dst)
	if err != nil {
		return false, errors.FileSystemError("failed to stat copied file").
			WithCause(stderrors.Join(ErrRewriteFailed, err)).WithContext("path", dst).Build()
	}
	if err := os.WriteFile(dst, out, info.Mode().Perm()); err != nil {
		return false, errors.FileSystemError("failed to write rewritten file").
			WithCause(stderrors.Join(ErrRewriteFailed, err)).WithContext("path", dst).Build()
	}
	return true, nil
}

// relDir is the slash-separated directory of file relative to root, "" at the root.
func relDir(root, file string) string {
	rel, err := filepath.Rel(root, filepath.Dir(file))
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}
