package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rgoodwin/fieldsync/pkg/auth"
	"github.com/rgoodwin/fieldsync/pkg/config"
	"github.com/rgoodwin/fieldsync/pkg/engine"
	"github.com/rgoodwin/fieldsync/pkg/gcal"
	"github.com/rgoodwin/fieldsync/pkg/logging"
	"github.com/rgoodwin/fieldsync/pkg/store"
)

var (
	cfg *config.Config
	log *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:           "fieldsync",
	Short:         "Dispatch job records and one-way Google Calendar sync for field service teams",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		log, err = logging.New(cfg.Log.Level, cfg.Log.File)
		return err
	},
}

func openStore() (*store.Store, error) {
	return store.Open(
		store.WithSnapshotFile(cfg.StorePath),
		store.WithLogger(log),
	)
}

func newBroker() (*auth.Broker, error) {
	return auth.NewBroker(cfg.CredentialsFile, cfg.TokenFile, log)
}

// newEngine wires broker -> calendar service -> tag-scoped client -> engine.
// Missing credentials or an unknown calendar fail here, before any sync
// work starts.
func newEngine(ctx context.Context) (*engine.Engine, error) {
	broker, err := newBroker()
	if err != nil {
		return nil, err
	}
	srv, err := gcal.NewService(ctx, broker)
	if err != nil {
		return nil, err
	}
	cal, err := gcal.NewClient(ctx, srv, cfg.Calendar, log)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return engine.New(cal,
		engine.WithLocation(loc),
		engine.WithConcurrency(cfg.Sync.Concurrency),
		engine.WithCallTimeout(cfg.Sync.CallTimeout),
		engine.WithMaxAttempts(cfg.Sync.MaxAttempts),
		engine.WithSkipUnchanged(cfg.Sync.SkipUnchanged),
		engine.WithLogger(log),
	), nil
}
