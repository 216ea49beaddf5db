package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/spendwise-dev/spendwise/internal/accounts"
	"github.com/spendwise-dev/spendwise/internal/config"
	"github.com/spendwise-dev/spendwise/internal/importer"
	"github.com/spendwise-dev/spendwise/internal/ledger"
	"github.com/spendwise-dev/spendwise/internal/logger"
	"github.com/spendwise-dev/spendwise/internal/model"
	"github.com/spendwise-dev/spendwise/internal/store/boltstore"
)

// app holds everything a command needs once the config is loaded.
type app struct {
	cfg      *config.Config
	dir      string // directory holding the config file
	ctx      context.Context
	log      zerolog.Logger
	db       *boltstore.Store
	accts    *accounts.Service
	ledger   *ledger.Service
	importer *importer.Importer
}

func openApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfgPath, err := filepath.Abs(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return newApp(cmd, cfg, filepath.Dir(cfgPath))
}

func newApp(cmd *cobra.Command, cfg *config.Config, dir string) (*app, error) {
	log, err := logger.NewTo(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return nil, err
	}
	log = log.With().Str("user", cfg.User.ID.String()).Logger()

	a := &app{cfg: cfg, dir: dir, log: log}
	a.db, err = boltstore.Open(a.path(cfg.Store.Path))
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	a.ctx = logger.WithContext(cmd.Context(), log)
	a.accts = accounts.NewService(a.db)
	a.ledger = ledger.NewService(a.db, log)
	a.importer = importer.New(a.db, log)
	return a, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Error().Err(err).Msg("closing store")
	}
}

// path resolves p against the config directory.
func (a *app) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.dir, p)
}

func (a *app) account(ref string) (model.Account, error) {
	if ref == "" {
		return model.Account{}, fmt.Errorf("--account is required")
	}
	return a.accts.Lookup(a.ctx, a.cfg.User.ID, ref)
}
