package commands

import (
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/dist/internal/build"
	"git.home.luguber.info/inful/dist/internal/config"
	"git.home.luguber.info/inful/dist/internal/discovery"
)

// BuildCmd implements the default 'build' command.
type BuildCmd struct {
	SiteFlags `embed:""`
	Manifest  string `name:"manifest" placeholder:"FILE" help:"Write the build manifest as JSON to FILE"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	opts, err := resolveSite(root, b.SiteFlags)
	if err != nil {
		return err
	}
	svc := newServices(opts)
	defer svc.Close()

	_, _ = fmt.Fprintf(g.Out, "copying %s -> %s\n", opts.SourceDir, opts.DestRoot)
	report, err := build.Run(g.Ctx, opts, svc.deps(opts, b.Manifest))
	printReport(g.Out, report)
	return err
}

func printReport(w io.Writer, report *build.Report) {
	if report == nil {
		return
	}
	total := 0
	for _, st := range report.Stages {
		n := len(st.Files())
		total += n
		if st.Outcome.IsErr() {
			_, _ = fmt.Fprintf(w, "  %-6s failed after %d files: %v\n", st.Name, n, st.Outcome.UnwrapErr())
			continue
		}
		_, _ = fmt.Fprintf(w, "  %-6s %d files (%s)\n", st.Name, n, st.Duration.Round(time.Millisecond))
	}
	_, _ = fmt.Fprintf(w, "build %s: %d files in %s (run %s)\n",
		report.Status, total, report.Duration.Round(time.Millisecond), report.RunID)
}

// AssetsCmd implements the 'assets' command.
type AssetsCmd struct {
	SiteFlags `embed:""`
}

func (a *AssetsCmd) Run(g *Global, root *CLI) error {
	opts, err := resolveSite(root, a.SiteFlags)
	if err != nil {
		return err
	}
	svc := newServices(opts)
	defer svc.Close()

	files, err := build.CloneAssets(g.Ctx, opts, svc.deps(opts, ""))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "copied %d assets to %s\n", len(files), opts.DestRoot)
	return nil
}

// CSSCmd implements the 'css' command.
type CSSCmd struct {
	SiteFlags `embed:""`
}

func (c *CSSCmd) Run(g *Global, root *CLI) error {
	return runRewrite(g, root, c.SiteFlags, discovery.KindCSS)
}

// HTMLCmd implements the 'html' command.
type HTMLCmd struct {
	SiteFlags `embed:""`
}

func (h *HTMLCmd) Run(g *Global, root *CLI) error {
	return runRewrite(g, root, h.SiteFlags, discovery.KindHTML)
}

func runRewrite(g *Global, root *CLI, flags SiteFlags, kind discovery.Kind) error {
	opts, err := resolveSite(root, flags)
	if err != nil {
		return err
	}
	svc := newServices(opts)
	defer svc.Close()

	if err := build.Rewrite(g.Ctx, kind, opts, svc.deps(opts, "")); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "rewrote %s files into %s%s\n", kind, opts.DestRoot, baseURLNote(opts))
	return nil
}

func baseURLNote(opts config.Resolved) string {
	if opts.URLPrefix == "" {
		return ""
	}
	return " (base " + opts.URLPrefix + ")"
}
