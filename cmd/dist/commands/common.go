package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/dist/internal/config"
)

// Global carries process-level collaborators into every command's Run.
type Global struct {
	Ctx context.Context
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" env:"DIST_CONFIG" help:"Configuration file path (default: dist.yaml when present)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Cwd     string           `name:"cwd" type:"existingdir" help:"Working directory all relative paths are resolved from"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Copy assets and rewrite CSS and HTML into the destination (default)"`
	Assets  AssetsCmd  `cmd:"" help:"Copy files that are neither CSS nor HTML"`
	CSS     CSSCmd     `cmd:"" name:"css" help:"Copy CSS files and rewrite their references"`
	HTML    HTMLCmd    `cmd:"" name:"html" help:"Copy HTML files and rewrite their references"`
	Clean   CleanCmd   `cmd:"" help:"Remove the destination directory"`
	Serve   ServeCmd   `cmd:"" help:"Serve the destination with live reload"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild whenever the source changes"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	History HistoryCmd `cmd:"" help:"List recent builds"`
	Publish PublishCmd `cmd:"" help:"Upload the destination to S3-compatible storage"`
	Show    VersionCmd `cmd:"" name:"version" help:"Print version information"`

	cfg    *config.Config
	cfgErr error
}

// AfterApply runs after flag parsing; it loads the configuration and sets up
// logging once. A broken config file is reported by the commands that need it,
// so init and version still work.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	c.cfg, c.cfgErr = c.loadConfig()
	logging := config.Defaults().Logging
	if c.cfg != nil {
		logging = c.cfg.Logging
	}
	setupLogging(g.Err, logging, c.Verbose)
	return nil
}

// ConfigPath returns the configuration file in use, relative paths resolved against --cwd.
func (c *CLI) ConfigPath() string {
	p := c.Config
	if p == "" {
		p = config.DefaultConfigFile
	}
	if c.Cwd != "" && !filepath.IsAbs(p) {
		p = filepath.Join(c.Cwd, p)
	}
	return p
}

func (c *CLI) loadConfig() (*config.Config, error) {
	if c.Config == "" {
		return config.LoadOptional(c.ConfigPath())
	}
	return config.Load(c.ConfigPath())
}

// Loaded returns a copy of the loaded configuration. Commands modify the copy.
func (c *CLI) Loaded() (config.Config, error) {
	if c.cfgErr != nil {
		return config.Config{}, c.cfgErr
	}
	if c.cfg == nil {
		return config.Defaults(), nil
	}
	return *c.cfg, nil
}

// Resolve validates cfg after CLI overrides and computes the absolute paths.
func (c *CLI) Resolve(cfg config.Config) (config.Resolved, error) {
	if err := cfg.Validate(); err != nil {
		return config.Resolved{}, err
	}
	return config.Resolve(cfg, c.Cwd)
}

func setupLogging(w io.Writer, lc config.LoggingConfig, verbose bool) {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	switch lc.Level {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	case config.LogLevelInfo:
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if lc.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// SiteFlags are the source/destination overrides shared by the build commands.
type SiteFlags struct {
	Src         string `short:"s" help:"Source directory (dist.src)"`
	Dest        string `short:"d" help:"Destination directory (dist.dest)"`
	BaseURL     string `short:"b" name:"base-url" help:"Base URL prefix for rewritten references (dist.base_url)"`
	Split       int    `name:"split" env:"DIST_SPLIT" help:"Number of partitions the work is split into"`
	Partition   int    `name:"partition" env:"DIST_PARTITION" help:"1-based partition this process handles"`
	Overwrite   bool   `xor:"overwrite" help:"Replace existing destination files"`
	NoOverwrite bool   `name:"no-overwrite" xor:"overwrite" help:"Keep existing destination files (see flags.collision)"`
}

// Apply copies the flags that were given onto cfg.
func (f SiteFlags) Apply(cfg *config.Config) {
	if f.Src != "" {
		cfg.Dist.Src = f.Src
	}
	if f.Dest != "" {
		cfg.Dist.Dest = f.Dest
	}
	if f.BaseURL != "" {
		cfg.Dist.BaseURL = f.BaseURL
	}
	if f.Split != 0 || f.Partition != 0 {
		cfg.Dist.Split = f.Split
		cfg.Dist.Partition = f.Partition
	}
	switch {
	case f.Overwrite:
		cfg.Flags.Overwrite = true
	case f.NoOverwrite:
		cfg.Flags.Overwrite = false
	}
}

// resolveSite applies flags on top of the loaded configuration.
func resolveSite(root *CLI, flags SiteFlags) (config.Resolved, error) {
	cfg, err := root.Loaded()
	if err != nil {
		return config.Resolved{}, err
	}
	flags.Apply(&cfg)
	return root.Resolve(cfg)
}
