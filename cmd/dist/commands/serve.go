package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/dist/internal/config"
	"git.home.luguber.info/inful/dist/internal/foundation/errors"
	"git.home.luguber.info/inful/dist/internal/logfields"
	"git.home.luguber.info/inful/dist/internal/metrics"
	"git.home.luguber.info/inful/dist/internal/server"
)

// ServeCmd serves the destination directory, optionally rebuilding on change.
type ServeCmd struct {
	SiteFlags    `embed:""`
	Port         string `short:"p" help:"Port to listen on, 1-65535 (serve.port)"`
	Host         string `help:"Interface to bind (serve.host)"`
	Open         bool   `help:"Open the site in the default browser (serve.open)"`
	Path         string `help:"URL path the site is served under (serve.path)"`
	Watch        bool   `short:"w" help:"Rebuild and reload when the source changes"`
	NoLiveReload bool   `name:"no-live-reload" help:"Disable live reload script injection"`
}

// override copies the serve flags onto cfg.
func (s *ServeCmd) override(cfg *config.Config) error {
	s.SiteFlags.Apply(cfg)
	if s.Port != "" {
		port, ok := config.CheckPortNumber(s.Port)
		if !ok {
			return errors.ValidationError("port must be a number between 1 and 65535").
				WithContext("port", s.Port).Build()
		}
		cfg.Serve.Port = port
	}
	if s.Host != "" {
		cfg.Serve.Host = s.Host
	}
	if s.Open {
		cfg.Serve.Open = true
	}
	if s.Path != "" {
		cfg.Serve.Path = "/" + strings.TrimPrefix(s.Path, "/")
	}
	if s.NoLiveReload {
		cfg.Serve.LiveReload = false
	}
	return nil
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.Loaded()
	if err != nil {
		return err
	}
	if err := s.override(&cfg); err != nil {
		return err
	}
	opts, err := root.Resolve(cfg)
	if err != nil {
		return err
	}
	svc := newServices(opts)
	defer svc.Close()

	srvOpts := server.Options{
		Host:       opts.Serve.Host,
		Port:       opts.Serve.Port,
		Root:       opts.DestDir,
		BasePath:   opts.Serve.Path,
		LiveReload: opts.Serve.LiveReload,
		Recorder:   svc.recorder,
	}
	if svc.registry != nil {
		srvOpts.MetricsHandler = metrics.HTTPHandler(svc.registry)
		srvOpts.MetricsPath = opts.Metrics.Path
	}
	srv := server.New(srvOpts)
	if err := srv.Start(g.Ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "serving %s at %s\n", opts.DestDir, srv.URL())
	if opts.Serve.Open {
		if err := server.OpenBrowser(g.Ctx, srv.URL()); err != nil {
			slog.Warn("Could not open browser", logfields.URL(srv.URL()), logfields.Error(err))
		}
	}

	var runErr error
	if s.Watch {
		watcher, err := newWatcher(g.Out, opts, svc, 0, srv.Reload)
		if err != nil {
			runErr = err
		} else {
			runErr = watcher.Run(g.Ctx)
		}
	} else {
		<-g.Ctx.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
	defer cancel()
	return stderrors.Join(runErr, srv.Shutdown(shutdownCtx))
}
