// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking plans and executes the transitions of a staking contract
// and rebuilds contracts from the outputs locked at the validator.
package staking

import (
	"context"
	"math/big"
	"time"

	"github.com/leafstake/leafstake/clock"
	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/log"
)

var logger = log.WithContext("pkg", "staking")

// DefaultSkew is how far before now transactions become valid, absorbing
// the drift between the local clock and the ledger.
const DefaultSkew = 10_000 * time.Second

// Engine plans transitions against the ledger. It holds no contract state:
// callers pass the aggregate in and get the next one back.
type Engine struct {
	query   ledger.Querier
	scripts Scripts
	clock   clock.Clock
	skew    time.Duration
}

func NewEngine(query ledger.Querier, scripts Scripts, clk clock.Clock, skew time.Duration) *Engine {
	if clk == nil {
		clk = clock.System{}
	}
	return &Engine{query: query, scripts: scripts, clock: clk, skew: skew}
}

func (e *Engine) Scripts() Scripts { return e.scripts }

// env captures now once for a whole operation.
func (e *Engine) env(ctx context.Context) *planEnv {
	now := clock.Millis(e.clock)
	validFrom := new(big.Int).Sub(now, big.NewInt(e.skew.Milliseconds()))
	return &planEnv{ctx: ctx, query: e.query, scripts: e.scripts, now: now, validFrom: validFrom}
}

func (e *Engine) plan(op Op, fn func() (*Transition, error)) (*Transition, error) {
	start := time.Now()
	tr, err := fn()
	metricPlanDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": string(op)})
	if err != nil {
		metricTransitions().AddWithLabel(1, map[string]string{"op": string(op), "status": "rejected"})
		logger.Debug("plan rejected", "op", op, "err", err)
		return nil, err
	}
	logger.Debug("planned", "op", op, "inputs", len(tr.Template.Inputs), "outputs", len(tr.Template.Outputs), "now", tr.Now)
	return tr, nil
}

func (e *Engine) PlanCreate(ctx context.Context, owner Party, p *CreateParams) (*Transition, error) {
	return e.plan(OpCreate, func() (*Transition, error) {
		return e.env(ctx).create(owner, p)
	})
}

func (e *Engine) PlanRenew(ctx context.Context, c *Contract, owner Party, p *RenewParams) (*Transition, error) {
	return e.plan(OpRenew, func() (*Transition, error) {
		return e.env(ctx).renew(c, owner, p)
	})
}

func (e *Engine) PlanClose(ctx context.Context, c *Contract, owner Party) (*Transition, error) {
	return e.plan(OpClose, func() (*Transition, error) {
		return e.env(ctx).close(c, owner)
	})
}

func (e *Engine) PlanAssetAdd(ctx context.Context, c *Contract, staker Party, name []byte) (*Transition, error) {
	return e.plan(OpAssetAdd, func() (*Transition, error) {
		return e.env(ctx).assetAdd(c, staker, name)
	})
}

func (e *Engine) PlanAssetPayout(ctx context.Context, c *Contract, staker Party, name []byte) (*Transition, error) {
	return e.plan(OpAssetPayout, func() (*Transition, error) {
		return e.env(ctx).removal(OpAssetPayout, c, staker, name)
	})
}

func (e *Engine) PlanAssetRenew(ctx context.Context, c *Contract, staker Party, name []byte) (*Transition, error) {
	return e.plan(OpAssetRenew, func() (*Transition, error) {
		return e.env(ctx).assetRenew(c, staker, name)
	})
}

// PlanAssetClose plans the owner forcing a leaf out without a reward.
func (e *Engine) PlanAssetClose(ctx context.Context, c *Contract, owner Party, name []byte) (*Transition, error) {
	return e.plan(OpAssetClose, func() (*Transition, error) {
		return e.env(ctx).removal(OpAssetClose, c, owner, name)
	})
}

// Request describes a transition by value, for dry runs over the API and
// the command line. Name selects the leaf of asset operations.
type Request struct {
	Op     Op              `json:"op,omitempty"`
	Party  Party           `json:"party"`
	Name   ledger.HexBytes `json:"name,omitempty"`
	Create *CreateParams   `json:"create,omitempty"`
	Renew  *RenewParams    `json:"renew,omitempty"`
}

// Plan dispatches r to the planner of its op. c is not read by create.
func (e *Engine) Plan(ctx context.Context, c *Contract, r *Request) (*Transition, error) {
	switch r.Op {
	case OpCreate:
		if r.Create == nil {
			return nil, invalid("missing create parameters")
		}
		return e.PlanCreate(ctx, r.Party, r.Create)
	case OpRenew:
		if r.Renew == nil {
			return nil, invalid("missing renew parameters")
		}
		return e.PlanRenew(ctx, c, r.Party, r.Renew)
	case OpClose:
		return e.PlanClose(ctx, c, r.Party)
	case OpAssetAdd:
		return e.PlanAssetAdd(ctx, c, r.Party, r.Name)
	case OpAssetPayout:
		return e.PlanAssetPayout(ctx, c, r.Party, r.Name)
	case OpAssetRenew:
		return e.PlanAssetRenew(ctx, c, r.Party, r.Name)
	case OpAssetClose:
		return e.PlanAssetClose(ctx, c, r.Party, r.Name)
	}
	return nil, invalid("unknown op %q", r.Op)
}

// Execute signs, submits and waits for tr, then returns the contract state it
// produced. Errors are returned as they come; nothing is retried.
func (e *Engine) Execute(ctx context.Context, tr *Transition, w Wallet, sub ledger.Submitter) (*Contract, error) {
	op := tr.Template.Op
	labels := map[string]string{"op": string(op), "status": "failed"}

	signed, err := w.Sign(ctx, tr.Template)
	if err != nil {
		metricTransitions().AddWithLabel(1, labels)
		logger.Debug("sign failed", "op", op, "err", err)
		return nil, err
	}
	id, err := sub.Submit(ctx, signed)
	if err != nil {
		metricTransitions().AddWithLabel(1, labels)
		logger.Debug("submit failed", "op", op, "err", err)
		return nil, err
	}
	if err := sub.AwaitConfirmation(ctx, id); err != nil {
		metricTransitions().AddWithLabel(1, labels)
		logger.Debug("await failed", "op", op, "tx", id, "err", err)
		return nil, err
	}
	labels["status"] = "confirmed"
	metricTransitions().AddWithLabel(1, labels)
	logger.Info("transition confirmed", "op", op, "tx", id)
	return tr.Commit(id), nil
}

type planner func(Party) (*Transition, error)

func (e *Engine) run(ctx context.Context, w Wallet, sub ledger.Submitter, plan planner) (*Contract, error) {
	party, err := ResolveParty(ctx, w)
	if err != nil {
		return nil, err
	}
	tr, err := plan(party)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, tr, w, sub)
}

// Create opens a new contract owned by the wallet.
func (e *Engine) Create(ctx context.Context, w Wallet, sub ledger.Submitter, p *CreateParams) (*Contract, error) {
	return e.run(ctx, w, sub, func(owner Party) (*Transition, error) {
		return e.PlanCreate(ctx, owner, p)
	})
}

func (e *Engine) Renew(ctx context.Context, c *Contract, w Wallet, sub ledger.Submitter, p *RenewParams) (*Contract, error) {
	return e.run(ctx, w, sub, func(owner Party) (*Transition, error) {
		return e.PlanRenew(ctx, c, owner, p)
	})
}

// Close spends the contract and every leaf. The returned contract is nil.
func (e *Engine) Close(ctx context.Context, c *Contract, w Wallet, sub ledger.Submitter) (*Contract, error) {
	return e.run(ctx, w, sub, func(owner Party) (*Transition, error) {
		return e.PlanClose(ctx, c, owner)
	})
}

func (e *Engine) AssetAdd(ctx context.Context, c *Contract, w Wallet, sub ledger.Submitter, name []byte) (*Contract, error) {
	return e.run(ctx, w, sub, func(staker Party) (*Transition, error) {
		return e.PlanAssetAdd(ctx, c, staker, name)
	})
}

func (e *Engine) AssetPayout(ctx context.Context, c *Contract, w Wallet, sub ledger.Submitter, name []byte) (*Contract, error) {
	return e.run(ctx, w, sub, func(staker Party) (*Transition, error) {
		return e.PlanAssetPayout(ctx, c, staker, name)
	})
}

func (e *Engine) AssetRenew(ctx context.Context, c *Contract, w Wallet, sub ledger.Submitter, name []byte) (*Contract, error) {
	return e.run(ctx, w, sub, func(staker Party) (*Transition, error) {
		return e.PlanAssetRenew(ctx, c, staker, name)
	})
}

func (e *Engine) AssetClose(ctx context.Context, c *Contract, w Wallet, sub ledger.Submitter, name []byte) (*Contract, error) {
	return e.run(ctx, w, sub, func(owner Party) (*Transition, error) {
		return e.PlanAssetClose(ctx, c, owner, name)
	})
}
