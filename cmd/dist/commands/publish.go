package commands

import (
	"fmt"

	"git.home.luguber.info/inful/dist/internal/publish"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	Dest   string `short:"d" help:"Destination directory (dist.dest)"`
	Bucket string `help:"Target bucket (publish.bucket)"`
	Prefix string `help:"Key prefix inside the bucket (publish.prefix)"`
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.Loaded()
	if err != nil {
		return err
	}
	SiteFlags{Dest: p.Dest}.Apply(&cfg)
	if p.Bucket != "" {
		cfg.Publish.Bucket = p.Bucket
	}
	if p.Prefix != "" {
		cfg.Publish.Prefix = p.Prefix
	}
	opts, err := root.Resolve(cfg)
	if err != nil {
		return err
	}

	pub, err := publish.NewS3Publisher(opts.Publish)
	if err != nil {
		return err
	}
	keys, err := pub.Publish(g.Ctx, opts.DestDir)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "published %d files to s3://%s/%s\n", len(keys), opts.Publish.Bucket, opts.Publish.Prefix)
	return nil
}
