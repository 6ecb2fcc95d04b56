package rewrite

import (
	"bytes"
	stderrors "errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTML rewrites src, href, poster and srcset attributes, inline style
// attributes and <style> elements. Tags are located with the html tokenizer;
// attribute values are then located in the raw tag text and replaced in place.
func HTML(content []byte, ref Ref) ([]byte, error) {
	if ref.BaseURL == "" {
		return content, nil
	}
	z := html.NewTokenizer(bytes.NewReader(content))
	var out bytes.Buffer
	out.Grow(len(content))
	inStyle := false

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !stderrors.Is(err, io.EOF) {
				return nil, err
			}
			return out.Bytes(), nil
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := z.Raw()
			name, _ := z.TagName()
			inStyle = tt == html.StartTagToken && atom.Lookup(name) == atom.Style
			out.Write(rewriteTag(raw, ref))
		case html.EndTagToken:
			inStyle = false
			out.Write(z.Raw())
		case html.TextToken:
			if inStyle {
				out.Write(CSS(z.Raw(), ref))
				continue
			}
			out.Write(z.Raw())
		default:
			out.Write(z.Raw())
		}
	}
}

// attrSpan locates one attribute value inside raw tag bytes. The value is
// raw[start:end], without quotes.
type attrSpan struct {
	name       string
	start, end int
}

// rewriteTag splices rewritten attribute values into the raw tag text. Bytes
// outside the rewritten values are copied unchanged.
func rewriteTag(raw []byte, ref Ref) []byte {
	var out []byte
	last := 0
	for _, a := range scanAttrs(raw) {
		rewritten, changed := rewriteAttr(a.name, string(raw[a.start:a.end]), ref)
		if !changed {
			continue
		}
		if out == nil {
			out = make([]byte, 0, len(raw)+len(ref.BaseURL))
		}
		out = append(out, raw[last:a.start]...)
		out = append(out, rewritten...)
		last = a.end
	}
	if out == nil {
		return raw
	}
	return append(out, raw[last:]...)
}

func rewriteAttr(name, value string, ref Ref) (string, bool) {
	var out string
	switch name {
	case "src", "href", "poster":
		out, _ = ref.URL(value)
	case "srcset":
		out = rewriteSrcset(value, ref)
	case "style":
		out = string(CSS([]byte(value), ref))
	default:
		return value, false
	}
	return out, out != value
}

// scanAttrs walks the attributes of a raw start tag the way the html
// tokenizer splits them, so text inside quoted values is never taken for an
// attribute. Attributes without a value are skipped.
func scanAttrs(raw []byte) []attrSpan {
	n := len(raw)
	i := 1
	for i < n && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' {
		i++
	}

	var attrs []attrSpan
	for i < n {
		for i < n && (isSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= n || raw[i] == '>' {
			break
		}

		nameStart := i
		i++ // a leading '=' belongs to the name
		for i < n && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' && raw[i] != '=' {
			i++
		}
		name := strings.ToLower(string(raw[nameStart:i]))

		for i < n && isSpace(raw[i]) {
			i++
		}
		if i >= n || raw[i] != '=' {
			continue
		}
		i++
		for i < n && isSpace(raw[i]) {
			i++
		}
		if i >= n {
			break
		}

		if q := raw[i]; q == '"' || q == '\'' {
			end := bytes.IndexByte(raw[i+1:], q)
			if end < 0 {
				break
			}
			attrs = append(attrs, attrSpan{name: name, start: i + 1, end: i + 1 + end})
			i += end + 2
			continue
		}
		start := i
		for i < n && !isSpace(raw[i]) && raw[i] != '>' {
			i++
		}
		attrs = append(attrs, attrSpan{name: name, start: start, end: i})
	}
	return attrs
}

// rewriteSrcset rewrites each candidate URL of a srcset list, keeping
// descriptors and separators. A candidate URL runs to the next whitespace, so
// commas inside data URIs are not taken for separators.
func rewriteSrcset(value string, ref Ref) string {
	var b strings.Builder
	b.Grow(len(value))
	n := len(value)
	i := 0
	for i < n {
		start := i
		for i < n && (isSpace(value[i]) || value[i] == ',') {
			i++
		}
		b.WriteString(value[start:i])
		if i >= n {
			break
		}

		start = i
		for i < n && !isSpace(value[i]) {
			i++
		}
		u := value[start:i]
		trimmed := strings.TrimRight(u, ",")
		rewritten, _ := ref.URL(trimmed)
		b.WriteString(rewritten)
		if len(trimmed) < len(u) {
			b.WriteString(u[len(trimmed):])
			continue
		}

		// descriptors run to the next comma outside parentheses
		start = i
		depth := 0
	descriptors:
		for i < n {
			switch value[i] {
			case '(':
				depth++
			case ')':
				if depth > 0 {
					depth--
				}
			case ',':
				if depth == 0 {
					break descriptors
				}
			}
			i++
		}
		b.WriteString(value[start:i])
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\f' || c == '\r'
}
