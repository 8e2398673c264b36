// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contracts

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/leafstake/leafstake/api/utils"
	"github.com/leafstake/leafstake/clock"
	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/staking"
)

// Source returns the running contracts known to the node.
type Source func(ctx context.Context) ([]*staking.Contract, error)

type Contracts struct {
	source Source
	engine *staking.Engine
	clock  clock.Clock
}

func New(source Source, engine *staking.Engine, clk clock.Clock) *Contracts {
	if clk == nil {
		clk = clock.System{}
	}
	return &Contracts{
		source,
		engine,
		clk,
	}
}

func parseHex(s, name string) ([]byte, error) {
	var b ledger.HexBytes
	if err := b.UnmarshalText([]byte(s)); err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, name))
	}
	return b, nil
}

func parseFilter(q url.Values) (f staking.Filter, err error) {
	fields := []struct {
		key string
		dst *[]byte
	}{
		{"owner", &f.Owner},
		{"policyId", &f.PolicyID},
		{"rewardPolicyId", &f.RewardPolicyID},
		{"rewardName", &f.RewardName},
	}
	for _, field := range fields {
		if v := q.Get(field.key); v != "" {
			if *field.dst, err = parseHex(v, field.key); err != nil {
				return staking.Filter{}, err
			}
		}
	}
	return f, nil
}

func (c *Contracts) contract(req *http.Request) (*staking.Contract, error) {
	hash, err := ledger.ParseBytes32(mux.Vars(req)["hash"])
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "hash"))
	}
	all, err := c.source(req.Context())
	if err != nil {
		return nil, err
	}
	found, err := staking.Find(all, hash)
	if err != nil {
		return nil, utils.StakingError(err)
	}
	return found, nil
}

func (c *Contracts) handleList(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseFilter(req.URL.Query())
	if err != nil {
		return err
	}
	all, err := c.source(req.Context())
	if err != nil {
		return err
	}
	selected := staking.Select(all, filter)
	list := make([]*Contract, 0, len(selected))
	for _, sc := range selected {
		list = append(list, convertContract(sc))
	}
	return utils.WriteJSON(w, list)
}

func (c *Contracts) handleGet(w http.ResponseWriter, req *http.Request) error {
	found, err := c.contract(req)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertContract(found))
}

func (c *Contracts) handleLeaf(w http.ResponseWriter, req *http.Request) error {
	found, err := c.contract(req)
	if err != nil {
		return err
	}
	name, err := parseHex(mux.Vars(req)["name"], "name")
	if err != nil {
		return err
	}
	leaf, err := found.Leaf(name)
	if err != nil {
		return utils.StakingError(err)
	}
	return utils.WriteJSON(w, leaf)
}

func (c *Contracts) handleReward(w http.ResponseWriter, req *http.Request) error {
	found, err := c.contract(req)
	if err != nil {
		return err
	}
	name, err := parseHex(mux.Vars(req)["name"], "name")
	if err != nil {
		return err
	}
	now := clock.Millis(c.clock)
	amount, err := found.Reward(name, now)
	if err != nil {
		return utils.StakingError(err)
	}
	return utils.WriteJSON(w, &Reward{Name: name, Now: now, Reward: amount})
}

func parseRequest(req *http.Request, op staking.Op) (*staking.Request, error) {
	var body staking.Request
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Op != "" && body.Op != op {
		return nil, utils.BadRequest(errors.Errorf("body: op %q does not match %q", body.Op, op))
	}
	body.Op = op
	return &body, nil
}

func (c *Contracts) handleCreate(w http.ResponseWriter, req *http.Request) error {
	r, err := parseRequest(req, staking.OpCreate)
	if err != nil {
		return err
	}
	tr, err := c.engine.Plan(req.Context(), nil, r)
	if err != nil {
		return utils.StakingError(err)
	}
	return utils.WriteJSON(w, convertTransition(tr))
}

func (c *Contracts) handlePlan(w http.ResponseWriter, req *http.Request) error {
	op, ok := staking.ParseOp(mux.Vars(req)["op"])
	if !ok || op == staking.OpCreate {
		return utils.BadRequest(errors.Errorf("op: unsupported %q", mux.Vars(req)["op"]))
	}
	r, err := parseRequest(req, op)
	if err != nil {
		return err
	}
	found, err := c.contract(req)
	if err != nil {
		return err
	}
	tr, err := c.engine.Plan(req.Context(), found, r)
	if err != nil {
		return utils.StakingError(err)
	}
	return utils.WriteJSON(w, convertTransition(tr))
}

func (c *Contracts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("contracts_list").
		HandlerFunc(utils.WrapHandlerFunc(c.handleList))
	sub.Path("/plan/create").
		Methods(http.MethodPost).
		Name("contracts_plan_create").
		HandlerFunc(utils.WrapHandlerFunc(c.handleCreate))
	sub.Path("/{hash}").
		Methods(http.MethodGet).
		Name("contracts_get").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGet))
	sub.Path("/{hash}/leaves/{name}").
		Methods(http.MethodGet).
		Name("contracts_get_leaf").
		HandlerFunc(utils.WrapHandlerFunc(c.handleLeaf))
	sub.Path("/{hash}/leaves/{name}/reward").
		Methods(http.MethodGet).
		Name("contracts_get_reward").
		HandlerFunc(utils.WrapHandlerFunc(c.handleReward))
	sub.Path("/{hash}/plan/{op}").
		Methods(http.MethodPost).
		Name("contracts_plan").
		HandlerFunc(utils.WrapHandlerFunc(c.handlePlan))
}
