// Package rewrite points relative and root-relative references in CSS and
// HTML at the configured base URL. Everything outside the rewritten
// references is left byte-identical, and rewriting its own output is a no-op.
package rewrite

import (
	"path"
	"strings"
)

// Ref describes where a file is served from.
type Ref struct {
	// BaseURL is the prefix references are rewritten under, e.g. "/baseurl"
	// or "https://cdn.example.com/site". Empty disables rewriting.
	BaseURL string
	// Dir is the file's directory relative to the source root, slash separated.
	Dir string
}

var skippedPrefixes = []string{"//", "#", "data:", "mailto:", "tel:", "javascript:"}

// URL returns the rewritten form of raw and whether it changed.
func (r Ref) URL(raw string) (string, bool) {
	base := strings.TrimRight(r.BaseURL, "/")
	ref := strings.TrimSpace(raw)
	if base == "" || ref == "" || strings.Contains(ref, "{{") {
		return raw, false
	}
	lower := strings.ToLower(ref)
	for _, p := range skippedPrefixes {
		if strings.HasPrefix(lower, p) {
			return raw, false
		}
	}
	if hasScheme(ref) || ref == base || strings.HasPrefix(ref, base+"/") ||
		strings.HasPrefix(ref, base+"?") || strings.HasPrefix(ref, base+"#") {
		return raw, false
	}

	p, suffix := splitSuffix(ref)
	if p == "" {
		return raw, false
	}

	var joined string
	if strings.HasPrefix(p, "/") {
		joined = path.Clean(p)
	} else {
		joined = path.Clean("/" + path.Join(r.Dir, p))
	}
	if strings.HasSuffix(p, "/") && joined != "/" {
		joined += "/"
	}
	if joined == "/" {
		return base + "/" + suffix, true
	}
	return base + joined + suffix, true
}

// splitSuffix separates the path from its query string and fragment.
func splitSuffix(ref string) (string, string) {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}

// hasScheme reports whether ref starts with an RFC 3986 scheme followed by ':'.
func hasScheme(ref string) bool {
	for i, c := range ref {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		case c == ':' && i > 0:
			return true
		default:
			return false
		}
	}
	return false
}
