package build

import "errors"

// Sentinel errors wrapped by classified stage failures.
var (
	ErrStageFailed    = errors.New("dist: stage failed")
	ErrRewriteFailed  = errors.New("dist: rewrite failed")
	ErrUnsafeCleanDir = errors.New("dist: refusing to clean directory")
)
