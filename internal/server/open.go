package server

import (
	"context"
	"os/exec"
	"runtime"

	"git.home.luguber.info/inful/dist/internal/foundation/errors"
)

// browserCommand returns the platform command that opens url.
func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

// OpenBrowser launches the default browser on url without waiting for it.
func OpenBrowser(ctx context.Context, url string) error {
	name, args := browserCommand(runtime.GOOS, url)
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- fixed opener binary
	if err := cmd.Start(); err != nil {
		return errors.RuntimeError("failed to open browser").
			WithCause(err).WithContext("command", name).WithContext("url", url).Build()
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
