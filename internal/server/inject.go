package server

import (
	"bytes"
	"net/http"
	"strings"
)

var closeBody = []byte("</body>")

const (
	injectMaxSize = 512 * 1024
	scriptTag     = `<script src="` + LiveReloadScriptPath + `"></script>`
)

// injectLiveReload adds the live-reload script tag to HTML responses.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isHTMLPath(r.URL.Path) || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		injector := &liveReloadInjector{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(injector, r)
		injector.finalize()
	})
}

func isHTMLPath(p string) bool {
	return p == "" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, ".html") || strings.HasSuffix(p, ".htm")
}

// liveReloadInjector buffers HTML bodies up to injectMaxSize so the script can
// be inserted before </body>. Larger or non-HTML bodies pass through.
type liveReloadInjector struct {
	http.ResponseWriter
	statusCode    int
	buffer        []byte
	headerWritten bool
	passthrough   bool
}

func (l *liveReloadInjector) WriteHeader(code int) {
	l.statusCode = code
	if l.passthrough {
		l.ResponseWriter.WriteHeader(code)
		l.headerWritten = true
	}
}

func (l *liveReloadInjector) Write(data []byte) (int, error) {
	if !l.headerWritten && !l.passthrough && l.buffer == nil {
		ct := l.Header().Get("Content-Type")
		if (ct != "" && !strings.Contains(ct, "text/html")) || l.statusCode != http.StatusOK {
			l.startPassthrough()
			return l.ResponseWriter.Write(data)
		}
		l.buffer = make([]byte, 0, 64*1024)
	}

	if l.passthrough {
		return l.ResponseWriter.Write(data)
	}

	if len(l.buffer)+len(data) > injectMaxSize {
		l.startPassthrough()
		if len(l.buffer) > 0 {
			if _, err := l.ResponseWriter.Write(l.buffer); err != nil {
				return 0, err
			}
		}
		return l.ResponseWriter.Write(data)
	}

	l.buffer = append(l.buffer, data...)
	return len(data), nil
}

func (l *liveReloadInjector) startPassthrough() {
	l.passthrough = true
	l.ResponseWriter.WriteHeader(l.statusCode)
	l.headerWritten = true
}

func (l *liveReloadInjector) finalize() {
	if l.passthrough {
		return
	}
	if l.buffer == nil {
		if !l.headerWritten {
			l.ResponseWriter.WriteHeader(l.statusCode)
		}
		return
	}

	body := insertScript(l.buffer)
	l.Header().Del("Content-Length")
	l.ResponseWriter.WriteHeader(l.statusCode)
	_, _ = l.ResponseWriter.Write(body)
}

// insertScript places the script tag before the last </body>, or appends it
// when the document has none.
func insertScript(html []byte) []byte {
	idx := lastIndexFold(html, closeBody)
	if idx < 0 {
		return append(html, scriptTag...)
	}
	out := make([]byte, 0, len(html)+len(scriptTag))
	out = append(out, html[:idx]...)
	out = append(out, scriptTag...)
	return append(out, html[idx:]...)
}

func lastIndexFold(s, sep []byte) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		if bytes.EqualFold(s[i:i+len(sep)], sep) {
			return i
		}
	}
	return -1
}
