package rewrite

import "regexp"

var (
	cssURLPattern    = regexp.MustCompile(`(?i)url\(\s*(?:"([^"]*)"|'([^']*)'|([^'")\s]*))\s*\)`)
	cssImportPattern = regexp.MustCompile(`(?i)@import\s+(?:"([^"]*)"|'([^']*)')`)
)

// CSS rewrites url(...) and @import references in a stylesheet.
func CSS(content []byte, ref Ref) []byte {
	if ref.BaseURL == "" {
		return content
	}
	out := replaceGroups(content, cssURLPattern, ref)
	return replaceGroups(out, cssImportPattern, ref)
}

// replaceGroups rewrites the first non-empty capture group of each match,
// copying everything else through unchanged.
func replaceGroups(content []byte, re *regexp.Regexp, ref Ref) []byte {
	matches := re.FindAllSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content
	}
	out := make([]byte, 0, len(content)+len(matches)*len(ref.BaseURL))
	last := 0
	for _, m := range matches {
		start, end := -1, -1
		for g := 2; g+1 < len(m); g += 2 {
			if m[g] >= 0 {
				start, end = m[g], m[g+1]
				break
			}
		}
		if start < 0 {
			continue
		}
		rewritten, changed := ref.URL(string(content[start:end]))
		if !changed {
			continue
		}
		out = append(out, content[last:start]...)
		out = append(out, rewritten...)
		last = end
	}
	return append(out, content[last:]...)
}
