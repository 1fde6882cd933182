package main

import (
	"errors"
	"io"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/jrhoades1/claude-tracking/pkg/config"
	"github.com/jrhoades1/claude-tracking/pkg/dashboard"
	"github.com/jrhoades1/claude-tracking/pkg/ledger"
	"github.com/jrhoades1/claude-tracking/pkg/logging"
	"github.com/jrhoades1/claude-tracking/pkg/publish"
	"github.com/jrhoades1/claude-tracking/pkg/registry"
	"github.com/jrhoades1/claude-tracking/pkg/store"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	store    store.UsageStore
	registry *registry.FileRegistry
	engine   *ledger.Engine
	logs     io.Closer
}

func openApp(configPath string) (*app, error) {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, err
	}
	logs, err := logging.Setup(cfg.Logging)
	if err != nil {
		return nil, err
	}

	pricing, err := cfg.ResolvePricing()
	if err != nil {
		// The defaults are returned alongside the error.
		log.WithError(err).WithField("path", cfg.PricingPath).Warn("pricing unreadable, using defaults")
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		logs.Close()
		return nil, err
	}
	reg := registry.New(cfg.RegistryPath, st)

	return &app{
		cfg:      cfg,
		store:    st,
		registry: reg,
		engine:   ledger.New(st, reg, pricing, ledger.WithExpenseFiles(cfg.Expenses.Files)),
		logs:     logs,
	}, nil
}

// dashboard wires the README generator, publishing when requested.
func (a *app) dashboard(publishing bool) *dashboard.Dashboard {
	var p publish.Publisher
	if publishing {
		p = publish.NewGit(a.cfg.Dashboard)
	}
	return dashboard.New(a.engine, filepath.Join(a.cfg.Dashboard.RepoDir, a.cfg.Dashboard.Readme), p)
}

// watchedFiles are the data files whose changes regenerate the dashboard.
func (a *app) watchedFiles() []string {
	files := []string{a.cfg.RegistryPath}
	if a.cfg.Store.Driver == "csv" {
		return append(files, a.cfg.Store.CSVPath)
	}
	return append(files, a.cfg.Store.SQLitePath)
}

func (a *app) Close() error {
	return errors.Join(a.store.Close(), a.logs.Close())
}
