package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCSS(t *testing.T) {
	ref := Ref{BaseURL: "/baseurl", Dir: "css"}
	in := `@import "base.css";
@import url('/print.css') print;
body { background: url(../img/bg.png) no-repeat; }
.logo { background-image: url( "logo.svg?v=1" ); }
.inline { background: url(data:image/png;base64,AAAA); }
.remote { background: url("https://example.com/x.png"); }
`
	want := `@import "/baseurl/css/base.css";
@import url('/baseurl/print.css') print;
body { background: url(/baseurl/img/bg.png) no-repeat; }
.logo { background-image: url( "/baseurl/css/logo.svg?v=1" ); }
.inline { background: url(data:image/png;base64,AAAA); }
.remote { background: url("https://example.com/x.png"); }
`
	got := CSS([]byte(in), ref)
	assert.Equal(t, want, string(got))
	assert.Equal(t, want, string(CSS(got, ref)), "rewriting is idempotent")
}

func TestCSS_NoReferences(t *testing.T) {
	in := []byte("body { color: red; }")
	assert.Equal(t, in, CSS(in, Ref{BaseURL: "/b"}))
	assert.Equal(t, in, CSS(in, Ref{}))
}
