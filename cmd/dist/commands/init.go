package commands

import (
	"fmt"

	"git.home.luguber.info/inful/dist/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := root.ConfigPath()
	_, _ = fmt.Fprintf(g.Out, "Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.Out, "initialized successfully")
	return nil
}
