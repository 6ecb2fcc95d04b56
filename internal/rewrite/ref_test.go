package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefURL(t *testing.T) {
	ref := Ref{BaseURL: "/baseurl", Dir: "css"}

	tests := []struct {
		in, want string
		changed  bool
	}{
		{"/img/a.png", "/baseurl/img/a.png", true},
		{"a.png", "/baseurl/css/a.png", true},
		{"./a.png", "/baseurl/css/a.png", true},
		{"../img/a.png", "/baseurl/img/a.png", true},
		{"../../../../etc/passwd", "/baseurl/etc/passwd", true},
		{"fonts/", "/baseurl/css/fonts/", true},
		{"a.png?v=2#frag", "/baseurl/css/a.png?v=2#frag", true},
		{"/", "/baseurl/", true},
		{"/baseurl/img/a.png", "/baseurl/img/a.png", false},
		{"/baseurl", "/baseurl", false},
		{"https://example.com/a.png", "https://example.com/a.png", false},
		{"//cdn.example.com/a.js", "//cdn.example.com/a.js", false},
		{"#top", "#top", false},
		{"data:image/png;base64,AAAA", "data:image/png;base64,AAAA", false},
		{"mailto:me@example.com", "mailto:me@example.com", false},
		{"tel:+4712345678", "tel:+4712345678", false},
		{"JavaScript:void(0)", "JavaScript:void(0)", false},
		{"{{ .URL }}", "{{ .URL }}", false},
		{"", "", false},
		{"?page=2", "?page=2", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, changed := ref.URL(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestRefURL_EmptyBaseDisables(t *testing.T) {
	got, changed := Ref{Dir: "css"}.URL("a.png")
	assert.False(t, changed)
	assert.Equal(t, "a.png", got)
}

func TestRefURL_AbsoluteBase(t *testing.T) {
	ref := Ref{BaseURL: "https://cdn.example.com/site/", Dir: ""}
	got, changed := ref.URL("/img/a.png")
	assert.True(t, changed)
	assert.Equal(t, "https://cdn.example.com/site/img/a.png", got)

	again, changed := ref.URL(got)
	assert.False(t, changed)
	assert.Equal(t, got, again)
}
