package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/wallet-sync/internal/config"
	"github.com/dvloznov/wallet-sync/internal/logger"
	"github.com/dvloznov/wallet-sync/internal/lunchmoney"
	"github.com/dvloznov/wallet-sync/internal/store"
	"github.com/dvloznov/wallet-sync/internal/sync"
	"github.com/dvloznov/wallet-sync/internal/wallet"
)

// Compile-time checks that the concrete implementations satisfy the
// orchestrator's collaborator interfaces.
var (
	_ sync.RecordStore  = (*store.Store)(nil)
	_ sync.RemoteClient = (*lunchmoney.Client)(nil)
)

// app wires the long-lived collaborators every command needs: configuration,
// logger, record store, wallet feed and remote client.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  *store.Store
	feed   wallet.Feed
	remote *lunchmoney.Client
	orch   *sync.Orchestrator
}

func newApp() (*app, error) {
	log := logger.New()
	if verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	if cfg.Wallet.FixturePath == "" {
		_ = st.Close()
		return nil, fmt.Errorf("no wallet source configured, set wallet.fixture_path")
	}
	feed, err := wallet.LoadSimulatedFeed(cfg.Wallet.FixturePath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	remote := lunchmoney.NewClient(cfg.Remote.Token, lunchmoney.WithBaseURL(cfg.Remote.BaseURL))

	orch := sync.NewOrchestrator(sync.OrchestratorConfig{
		Store:      st,
		Feed:       feed,
		Remote:     remote,
		Tokens:     sync.StaticToken(cfg.Remote.Token),
		Notifier:   logNotifier{log: log},
		Options:    cfg.Sync,
		WindowDays: cfg.Wallet.WindowDays,
	})

	return &app{cfg: cfg, log: log, store: st, feed: feed, remote: remote, orch: orch}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close store")
	}
}

func (a *app) ctx() context.Context {
	return logger.WithContext(context.Background(), a.log)
}

// logNotifier delivers cycle summaries through the structured log. A desktop
// or push notifier would slot in here for an installed build.
type logNotifier struct {
	log zerolog.Logger
}

func (n logNotifier) Notify(ctx context.Context, title, message string) {
	n.log.Info().Str("title", title).Msg(message)
}
