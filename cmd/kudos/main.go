// Package main is the entry point for the kudos CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"kudos/internal/auth"
	"kudos/internal/cli"
	"kudos/internal/commands"
	"kudos/internal/config"
	"kudos/internal/docstore"
	"kudos/internal/encourage"
	"kudos/internal/family"
	"kudos/internal/localcache"
	"kudos/internal/notify"
	"kudos/internal/syncer"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newService)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// newService wires the local cache, the optional sync backend, and the
// notification pipeline into a loaded family service.
func newService(ctx context.Context, cfg *config.Config) (*family.Service, error) {
	log := newLogger(cfg)

	if err := cfg.EnsureDir(); err != nil {
		return nil, err
	}
	cache, err := localcache.Open(cfg.CachePath())
	if err != nil {
		return nil, err
	}

	// Empty sync_dir means local-only operation.
	var store docstore.Store
	if cfg.Settings.SyncDir != "" {
		fs, err := docstore.NewFileStore(cfg.Settings.SyncDir, log)
		if err != nil {
			cache.Close()
			return nil, err
		}
		store = fs
	}

	ctrl, err := syncer.NewController(store, cache, log)
	if err != nil {
		cache.Close()
		return nil, err
	}
	var recon *syncer.Reconciler
	if store != nil {
		recon = syncer.NewReconciler(store, log)
	}

	var saJSON []byte
	if cfg.HasServiceAccount() {
		saJSON, err = cfg.ReadServiceAccount()
		if err != nil {
			log.Warn().Err(err).Msg("service account unreadable; chat notifications disabled")
		}
	} else {
		log.Debug().Msg("no service account credential; chat API notifications disabled")
	}
	notifier := notify.NewDispatcher(notify.Config{
		WebhookURL:         cfg.Settings.ChatWebhookURL,
		SpaceName:          cfg.Settings.ChatSpace,
		ServiceAccountJSON: saJSON,
		AppURL:             cfg.Settings.AppURL,
	}, auth.NewIssuer(), log)

	svc := family.NewService(cache, ctrl, recon, notifier, encourage.Fallback{}, log)
	if err := svc.Load(ctx); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.WarnLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
