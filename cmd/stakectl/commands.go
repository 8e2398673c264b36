// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"os"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/leafstake/leafstake/api"
	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/metrics"
	"github.com/leafstake/leafstake/staking"
)

// summary is the listing form of a contract.
type summary struct {
	Hash       ledger.Bytes32    `json:"hash"`
	Ref        ledger.OutRef     `json:"utxo"`
	Owner      ledger.HexBytes   `json:"owner"`
	PolicyID   ledger.HexBytes   `json:"policyId"`
	Expiration *big.Int          `json:"expiration"`
	Count      *big.Int          `json:"count"`
	Leaves     []ledger.HexBytes `json:"leaves"`
}

func summarize(contracts []*staking.Contract) []*summary {
	out := make([]*summary, 0, len(contracts))
	for _, c := range contracts {
		s := &summary{
			Hash:       c.Hash(),
			Ref:        c.Ref,
			Owner:      c.Datum.Owner,
			PolicyID:   c.Datum.PolicyID,
			Expiration: c.Datum.Expiration,
			Count:      c.Datum.Count,
			Leaves:     make([]ledger.HexBytes, 0, len(c.Leaves)),
		}
		for _, l := range c.Leaves {
			s.Leaves = append(s.Leaves, l.Datum.Name)
		}
		out = append(out, s)
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseHexFlag(ctx *cli.Context, flag cli.StringFlag) ([]byte, error) {
	var b ledger.HexBytes
	if err := b.UnmarshalText([]byte(ctx.String(flag.Name))); err != nil {
		return nil, errors.Wrapf(err, "-%s", flag.Name)
	}
	return b, nil
}

func syncAction(ctx *cli.Context) error {
	initLogger(ctx)
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	contracts, err := n.store.Sync(handleExitSignal(), n.loader, n.rec)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, summarize(contracts))
}

func contractsAction(ctx *cli.Context) error {
	initLogger(ctx)
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	var filter staking.Filter
	if filter.Owner, err = parseHexFlag(ctx, ownerFlag); err != nil {
		return err
	}
	if filter.PolicyID, err = parseHexFlag(ctx, policyFlag); err != nil {
		return err
	}
	contracts, err := n.contracts(handleExitSignal(), ctx.Bool(offlineFlag.Name))
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, summarize(staking.Select(contracts, filter)))
}

func findContract(ctx context.Context, n *node, offline bool, arg string) (*staking.Contract, error) {
	hash, err := ledger.ParseBytes32(arg)
	if err != nil {
		return nil, errors.Wrap(err, "contract hash")
	}
	contracts, err := n.contracts(ctx, offline)
	if err != nil {
		return nil, err
	}
	return staking.Find(contracts, hash)
}

func inspectAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("expected a contract hash")
	}
	initLogger(ctx)
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	c, err := findContract(handleExitSignal(), n, ctx.Bool(offlineFlag.Name), ctx.Args().First())
	if err != nil {
		return err
	}
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
	cfg.Fdump(os.Stdout, c)
	return nil
}

func readParams(path string, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open params")
	}
	defer file.Close()
	dec := json.NewDecoder(file)
	dec.DisallowUnknownFields()
	return errors.Wrap(dec.Decode(v), "decode params")
}

// planRequest reads the request of op from the command flags.
func planRequest(ctx *cli.Context, op staking.Op) (*staking.Request, error) {
	hash, err := parseHexFlag(ctx, paymentHashFlag)
	if err != nil {
		return nil, err
	}
	r := &staking.Request{
		Op:    op,
		Party: staking.Party{Address: ctx.String(addressFlag.Name), Hash: hash},
	}
	if name := ctx.String(leafFlag.Name); name != "" {
		r.Name = ledger.HexBytes(name)
	}
	params := ctx.String(paramsFlag.Name)
	switch op {
	case staking.OpCreate:
		r.Create = &staking.CreateParams{}
		if params == "" {
			return nil, errors.New("create needs -params")
		}
		err = readParams(params, r.Create)
	case staking.OpRenew:
		r.Renew = &staking.RenewParams{}
		if params == "" {
			return nil, errors.New("renew needs -params")
		}
		err = readParams(params, r.Renew)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func planAction(ctx *cli.Context) error {
	op, ok := staking.ParseOp(ctx.Args().First())
	if !ok {
		return errors.Errorf("unknown op %q, expected one of %v", ctx.Args().First(), staking.Ops)
	}
	if (op == staking.OpCreate) != (ctx.NArg() == 1) {
		return errors.New("expected a contract hash for every op but create")
	}
	r, err := planRequest(ctx, op)
	if err != nil {
		return err
	}

	initLogger(ctx)
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	exitCtx := handleExitSignal()
	var c *staking.Contract
	if op != staking.OpCreate {
		if c, err = findContract(exitCtx, n, ctx.Bool(offlineFlag.Name), ctx.Args().Get(1)); err != nil {
			return err
		}
	}
	tr, err := n.engine.Plan(exitCtx, c, r)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, struct {
		*staking.Transition
		Next *staking.Contract `json:"next"`
	}{tr, tr.Next()})
}

func serveAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	reqLogs := &atomic.Bool{}
	reqLogs.Store(ctx.Bool(enableAPILogsFlag.Name))
	opts := api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableReqLogger: reqLogs,
		Log5xxErrors:    true,
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	}
	if ctx.Bool(enableAdminFlag.Name) {
		opts.LogLevel = logLevel
		opts.Health = n.health
	}
	source := func(context.Context) ([]*staking.Contract, error) { return n.store.List() }
	handler := api.New(source, n.engine, n.clock, opts)

	group, groupCtx := errgroup.WithContext(handleExitSignal())
	group.Go(func() error { return n.syncLoop(groupCtx) })
	group.Go(func() error { return serveHTTP(groupCtx, "API", n.cfg.APIAddr, handler) })
	if ctx.Bool(enableMetricsFlag.Name) {
		addr := ctx.String(metricsAddrFlag.Name)
		group.Go(func() error { return serveHTTP(groupCtx, "metrics", addr, metricsHandler()) })
	}
	return group.Wait()
}
