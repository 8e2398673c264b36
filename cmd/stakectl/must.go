// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/leafstake/leafstake/blockfrost"
	"github.com/leafstake/leafstake/clock"
	"github.com/leafstake/leafstake/health"
	"github.com/leafstake/leafstake/kv"
	"github.com/leafstake/leafstake/metrics"
	"github.com/leafstake/leafstake/snapshot"
	"github.com/leafstake/leafstake/staking"
)

// node bundles what the commands share.
type node struct {
	cfg     *Config
	db      *kv.LevelDB
	store   *snapshot.Store
	scripts *staking.ScriptSet
	ledger  *blockfrost.Client
	clock   clock.Clock
	rec     *staking.Reconstructor
	engine  *staking.Engine
	loader  *staking.Loader
	health  *health.Health
}

func loadScripts(cfg *Config) (*staking.ScriptSet, error) {
	network, err := staking.ParseNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	bp, err := staking.LoadBlueprint(cfg.Blueprint)
	if err != nil {
		return nil, err
	}
	return staking.NewScriptSet(bp, network)
}

func openDB(ctx *cli.Context) (*kv.LevelDB, error) {
	dataDir := ctx.GlobalString(dataDirFlag.Name)
	if dataDir == "" {
		return nil, errors.New("unable to infer default data dir, use -data-dir to specify")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	path := filepath.Join(dataDir, "snapshots.db")
	db, err := kv.New(path, kv.Options{CacheSize: 16, OpenFilesCacheCapacity: 64})
	if err != nil {
		return nil, errors.Wrapf(err, "open snapshot database [%v]", path)
	}
	return db, nil
}

func openNode(ctx *cli.Context) (*node, error) {
	cfg, err := loadConfig(ctx.GlobalString(configFlag.Name))
	if err != nil {
		return nil, err
	}
	cfg.override(ctx)
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "config")
	}

	scripts, err := loadScripts(cfg)
	if err != nil {
		return nil, err
	}
	rec, err := staking.NewReconstructor(cfg.DatumCache)
	if err != nil {
		return nil, err
	}
	db, err := openDB(ctx)
	if err != nil {
		return nil, err
	}

	var clk clock.Clock = clock.System{}
	if ctx.GlobalBool(ntpFlag.Name) {
		ntp := clock.NewNTP(cfg.NTPServer)
		if err := ntp.Sync(); err != nil {
			logger.Warn("NTP unavailable, using the local clock", "server", cfg.NTPServer, "err", err)
		}
		clk = ntp
	}

	ledger := blockfrost.New(cfg.LedgerURL, cfg.ProjectID)
	return &node{
		cfg:     cfg,
		db:      db,
		store:   snapshot.New(db),
		scripts: scripts,
		ledger:  ledger,
		clock:   clk,
		rec:     rec,
		engine:  staking.NewEngine(ledger, scripts, clk, cfg.Skew.Duration),
		loader:  staking.NewLoader(ledger, scripts, rec),
		health:  health.New(clk, cfg.SyncInterval.Duration),
	}, nil
}

func (n *node) Close() {
	logger.Info("closing snapshot database...")
	if err := n.db.Close(); err != nil {
		logger.Warn("failed to close snapshot database", "err", err)
	}
}

// contracts returns the stored contracts, refreshed from the ledger unless
// offline.
func (n *node) contracts(ctx context.Context, offline bool) ([]*staking.Contract, error) {
	if offline {
		return n.store.List()
	}
	return n.store.Sync(ctx, n.loader, n.rec)
}

// syncLoop keeps the snapshots fresh until ctx is done.
func (n *node) syncLoop(ctx context.Context) error {
	ticker := time.NewTicker(n.cfg.SyncInterval.Duration)
	defer ticker.Stop()
	for {
		contracts, err := n.store.Sync(ctx, n.loader, n.rec)
		switch {
		case err == nil:
			n.health.Synced(len(contracts))
		case ctx.Err() != nil:
			return nil
		default:
			n.health.Failed(err)
			logger.Warn("sync failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// serveHTTP serves handler on addr until ctx is done.
func serveHTTP(ctx context.Context, name, addr string, handler http.Handler) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s addr [%v]", name, addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	logger.Info("serving "+name, "url", "http://"+listener.Addr().String()+"/")

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "serve %s", name)
	}
	<-done
	return nil
}

func metricsHandler() http.Handler {
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	return handlers.CompressHandler(router)
}
