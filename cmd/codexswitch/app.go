package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/janekbaraniewski/codexswitch/internal/accounts"
	"github.com/janekbaraniewski/codexswitch/internal/config"
	"github.com/janekbaraniewski/codexswitch/internal/logging"
	"github.com/janekbaraniewski/codexswitch/internal/store"
	"github.com/janekbaraniewski/codexswitch/internal/switcher"
	"github.com/janekbaraniewski/codexswitch/internal/tui"
	"github.com/janekbaraniewski/codexswitch/internal/usage"
)

// app holds the wired components for one command invocation.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	store    *store.Store
	switcher *switcher.Switcher
	svc      *accounts.Service
}

func newApp(cfg config.Config, debug bool) (*app, error) {
	log := logging.New(debug || cfg.Debug)

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, err
	}

	sw := switcher.New(homeResolver(cfg), switcher.WithLogger(log))

	timeout := cfg.Usage.Timeout()
	if timeout <= 0 {
		timeout = usage.DefaultTimeout
	}
	fetcher := usage.NewFetcher(
		usage.WithHTTPClient(&http.Client{Timeout: timeout}),
		usage.WithBaseURL(cfg.Usage.BaseURL),
		usage.WithMaxConcurrency(cfg.Usage.MaxConcurrency),
		usage.WithRateLimit(cfg.Usage.RequestsPerSecond, 1),
		usage.WithLogger(log),
	)

	return &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		switcher: sw,
		svc:      accounts.NewService(st, sw, fetcher, log),
	}, nil
}

func homeResolver(cfg config.Config) switcher.HomeResolver {
	if cfg.CodexHome != "" {
		return switcher.StaticHome(cfg.CodexHome)
	}
	return switcher.EnvResolver{}
}

func (a *app) thresholds() tui.Thresholds {
	return tui.Thresholds{Warn: a.cfg.UI.WarnThreshold, Crit: a.cfg.UI.CritThreshold}
}

func (a *app) Close() {
	_ = a.log.Sync()
	_ = a.store.Close()
}
