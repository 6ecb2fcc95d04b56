package commands

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/dist/internal/foundation/errors"
	"git.home.luguber.info/inful/dist/internal/version"
)

// NewParser builds the kong parser for cli with g bound for hooks and commands.
func NewParser(cli *CLI, g *Global, options ...kong.Option) (*kong.Kong, error) {
	opts := append([]kong.Option{
		kong.Name("dist"),
		kong.Description("Copy a static site into a destination, rewriting CSS and HTML references to a base URL."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(g),
	}, options...)
	if g.Out != nil {
		opts = append(opts, kong.Writers(g.Out, g.Err))
	}
	return kong.New(cli, opts...)
}

// Execute parses args and runs the selected command.
func Execute(cli *CLI, g *Global, args []string, options ...kong.Option) error {
	parser, err := NewParser(cli, g, options...)
	if err != nil {
		return errors.InternalError("failed to build CLI").WithCause(err).Build()
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return errors.ValidationError("invalid arguments").WithCause(err).Build()
	}
	return kctx.Run(g, cli)
}
