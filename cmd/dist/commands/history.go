package commands

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/dist/internal/foundation/errors"
	"git.home.luguber.info/inful/dist/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Number of runs to show"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	opts, err := resolveSite(root, SiteFlags{})
	if err != nil {
		return err
	}
	p := opts.History.Path
	if p == "" {
		return errors.ConfigError("build history is disabled; set history.path").Build()
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(opts.WorkingDir, p)
	}
	store, err := history.NewSQLiteStore(p)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	limit := h.Limit
	if limit <= 0 {
		limit = history.DefaultLimit
	}
	entries, err := store.Latest(g.Ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(g.Out, "no builds recorded")
		return nil
	}

	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tRUN\tSTATUS\tFILES\tDURATION\tPARTITION\tERROR")
	for _, e := range entries {
		part := "-"
		if e.Split > 0 {
			part = fmt.Sprintf("%d/%d", e.Partition, e.Split)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			e.StartedAt.Local().Format(time.DateTime), e.RunID, e.Status, e.Files,
			e.Duration.Round(time.Millisecond), part, e.Error)
	}
	return tw.Flush()
}
