package commands

import (
	"fmt"

	"git.home.luguber.info/inful/dist/internal/build"
	"git.home.luguber.info/inful/dist/internal/prompt"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct {
	Dest string `short:"d" help:"Destination directory (dist.dest)"`
	Yes  bool   `short:"y" help:"Do not ask for confirmation"`
}

func (c *CleanCmd) Run(g *Global, root *CLI) error {
	opts, err := resolveSite(root, SiteFlags{Dest: c.Dest})
	if err != nil {
		return err
	}

	var answers prompt.AnswerProvider = prompt.NewTerminal(g.In, g.Out)
	if c.Yes {
		answers = prompt.Fixed("y")
	}
	ok, err := prompt.AskYesNo(g.Ctx, fmt.Sprintf("Remove %s?", opts.DestDir), answers)
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintln(g.Out, "aborted, nothing removed")
		return nil
	}

	removed, err := build.Clean(opts)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		_, _ = fmt.Fprintf(g.Out, "nothing to clean at %s\n", opts.DestDir)
		return nil
	}
	for _, p := range removed {
		_, _ = fmt.Fprintf(g.Out, "removed %s\n", p)
	}
	return nil
}
