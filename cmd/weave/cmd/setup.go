package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/go-drift/weave/cmd/weave/internal/app"
	"github.com/go-drift/weave/pkg/component"
	"github.com/go-drift/weave/pkg/config"
	"github.com/go-drift/weave/pkg/diagnostics"
	"github.com/go-drift/weave/pkg/errors"
	"github.com/go-drift/weave/pkg/logging"
	"github.com/go-drift/weave/pkg/router"
)

func (o *options) load() (*config.Config, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return config.Resolve(dir)
}

// setup loads the manifest, installs loggers and the fault handler, and
// builds the app. Logs go to w.
func setup(o *options, w io.Writer) (*app.App, zerolog.Logger, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	log, err := logging.New(cfg.Log, w)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	errors.SetLogger(logging.Component(log, "errors"))
	component.SetLogger(logging.Component(log, "component"))
	router.SetLogger(logging.Component(log, "router"))
	errors.SetHandler(diagnostics.NewCountingHandler(&errors.LogHandler{}))

	a, err := app.Build(cfg)
	if err != nil {
		return nil, log, fmt.Errorf("build %s: %w", cfg.App.Name, err)
	}
	log.Debug().
		Str("app", cfg.App.Name).
		Int("pages", len(cfg.Pages)).
		Str("path", a.History.Path()).
		Msg("app built")
	return a, log, nil
}
