// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"bytes"
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/staking/datum"
	"github.com/leafstake/leafstake/staking/leaflist"
	"github.com/leafstake/leafstake/staking/reverts"
	"github.com/leafstake/leafstake/staking/reward"
)

// CreateParams configures a new contract.
type CreateParams struct {
	// PolicyID is the policy of the assets that can be staked.
	PolicyID ledger.HexBytes `json:"policyId"`
	// Duration is the lifetime of the contract from now.
	Duration *big.Int `json:"duration"`
	// Reward.Timeout is the horizon of a single leaf.
	Reward   datum.RewardSpec `json:"reward"`
	Lovelace *big.Int         `json:"lovelace"`
	Capacity *big.Int         `json:"capacity"`
}

// RenewParams reconfigures a running contract.
type RenewParams struct {
	Duration *big.Int `json:"duration"`
	Lovelace *big.Int `json:"lovelace"`
	Timeout  *big.Int `json:"timeout"`
	Time     *big.Int `json:"time"`
	Amount   *big.Int `json:"amount"`
	Capacity *big.Int `json:"capacity"`
}

func positive(v *big.Int) bool { return v != nil && v.Sign() > 0 }

func invalid(format string, args ...any) error {
	return errors.Wrapf(reverts.ErrInvalidParameters, format, args...)
}

func (p *CreateParams) validate() error {
	switch {
	case len(p.PolicyID) == 0:
		return invalid("empty stake policy")
	case len(p.Reward.PolicyID) == 0:
		return invalid("empty reward policy")
	case !positive(p.Duration):
		return invalid("duration must be positive")
	case !positive(p.Reward.Time):
		return invalid("reward time must be positive")
	case !positive(p.Reward.Timeout):
		return invalid("leaf timeout must be positive")
	case p.Reward.Amount == nil || p.Reward.Amount.Sign() < 0:
		return invalid("reward amount must not be negative")
	case p.Lovelace == nil || p.Lovelace.Sign() < 0:
		return invalid("lovelace must not be negative")
	case !positive(p.Capacity):
		return invalid("capacity must be positive")
	}
	return nil
}

func (p *RenewParams) validate(count *big.Int) error {
	switch {
	case !positive(p.Duration):
		return invalid("duration must be positive")
	case !positive(p.Time):
		return invalid("reward time must be positive")
	case !positive(p.Timeout):
		return invalid("leaf timeout must be positive")
	case p.Amount == nil || p.Amount.Sign() < 0:
		return invalid("reward amount must not be negative")
	case p.Lovelace == nil || p.Lovelace.Sign() < 0:
		return invalid("lovelace must not be negative")
	case !positive(p.Capacity):
		return invalid("capacity must be positive")
	case p.Capacity.Cmp(count) < 0:
		return invalid("capacity %v below %v live leaves", p.Capacity, count)
	}
	return nil
}

// Transition is a planned operation: the unsigned template and the contract
// state it produces once confirmed.
type Transition struct {
	Template *Template `json:"template"`
	Now      *big.Int  `json:"now"`

	next        *Contract
	contractOut int
	leafOuts    map[string]uint32
}

// Next previews the resulting contract. Refs of produced outputs are only
// known after Commit. It is nil after a close.
func (t *Transition) Next() *Contract {
	if t.next == nil {
		return nil
	}
	return t.next.Clone()
}

// Commit binds the outputs produced by transaction tx into the resulting
// contract.
func (t *Transition) Commit(tx ledger.TxID) *Contract {
	if t.next == nil {
		return nil
	}
	c := t.next.Clone()
	c.Ref = ledger.OutRef{TxID: tx, Index: uint32(t.contractOut)}
	for _, l := range c.Leaves {
		if idx, ok := t.leafOuts[string(l.Datum.Name)]; ok {
			l.Ref = ledger.OutRef{TxID: tx, Index: idx}
		}
	}
	return c
}

// planEnv carries what a single planning pass reads: the ledger, the
// scripts, and the instant captured for the whole operation.
type planEnv struct {
	ctx       context.Context
	query     ledger.Querier
	scripts   Scripts
	now       *big.Int
	validFrom *big.Int
}

// fetch reads refs in one query and returns them in the same order. A ref
// that is no longer unspent means the local state is stale.
func (e *planEnv) fetch(refs ...ledger.OutRef) ([]*ledger.UTxO, error) {
	utxos, err := e.query.UTxOsByRef(e.ctx, refs)
	if err != nil {
		return nil, errors.Wrap(err, "query utxos")
	}
	out := make([]*ledger.UTxO, 0, len(refs))
	for _, ref := range refs {
		u := ledger.FindUTxO(utxos, ref)
		if u == nil {
			return nil, errors.Wrapf(reverts.ErrStaleHandle, "%v", ref)
		}
		out = append(out, u)
	}
	return out, nil
}

type encoder interface {
	Encode() ([]byte, error)
}

func (e *planEnv) payScript(t *Template, d encoder, assets ledger.Assets) (uint32, error) {
	b, err := d.Encode()
	if err != nil {
		return 0, errors.Wrap(err, "encode datum")
	}
	return t.pay(e.scripts.Address(), b, assets), nil
}

// prepare clones and checks the aggregate before any planning.
func prepare(c *Contract) (*Contract, error) {
	if c == nil || c.Datum == nil {
		return nil, reverts.ErrNoRunningContract
	}
	next := c.Clone()
	next.Sort()
	if err := next.Verify(); err != nil {
		return nil, err
	}
	return next, nil
}

func requireParty(p Party, hash []byte) error {
	if !p.valid() {
		return reverts.ErrInvalidWallet
	}
	if hash != nil && !bytes.Equal(p.Hash, hash) {
		return errors.Wrap(reverts.ErrInvalidWallet, "signer does not match the record")
	}
	return nil
}

// contractAssets is the balance of a contract output.
func contractAssets(c *datum.ContractDatum, rewardReserve, validation *big.Int) ledger.Assets {
	return ledger.Assets{}.
		Set(ledger.Lovelace, c.Lovelace).
		Set(c.Reward.Unit(), rewardReserve).
		Set(c.Validate.Unit(), validation)
}

// leafAssets is the balance of a leaf output: one validation token.
func leafAssets(c *datum.ContractDatum) ledger.Assets {
	return ledger.Assets{}.
		Set(ledger.Lovelace, c.Lovelace).
		Set(c.Validate.Unit(), big.NewInt(1))
}

func (e *planEnv) create(owner Party, p *CreateParams) (*Transition, error) {
	if err := requireParty(owner, nil); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	policy := e.scripts.ValidatePolicy()
	d := &datum.ContractDatum{
		Owner: owner.Hash,
		Validate: datum.ValidateToken{
			PolicyID: policy.Hash,
			Name:     ledger.HexBytes(ValidateTokenName),
		},
		PolicyID:   p.PolicyID,
		Expiration: new(big.Int).Add(e.now, p.Duration),
		Reward:     p.Reward,
		Lovelace:   p.Lovelace,
		Count:      new(big.Int),
	}
	d = d.Clone()

	t := newTemplate(OpCreate, owner.Address)
	t.mint(policy, ledger.Assets{}.Set(d.Validate.Unit(), p.Capacity))
	t.attach(policy)
	reserve := reward.InitialReserve(p.Duration, p.Reward.Amount, p.Reward.Time, p.Capacity)
	out, err := e.payScript(t, d, contractAssets(d, reserve, p.Capacity))
	if err != nil {
		return nil, err
	}
	return &Transition{
		Template:    t,
		Now:         e.now,
		next:        &Contract{Datum: d},
		contractOut: int(out),
	}, nil
}

func (e *planEnv) renew(c *Contract, owner Party, p *RenewParams) (*Transition, error) {
	next, err := prepare(c)
	if err != nil {
		return nil, err
	}
	d := next.Datum
	if err := requireParty(owner, d.Owner); err != nil {
		return nil, err
	}
	if err := p.validate(d.Count); err != nil {
		return nil, err
	}
	utxos, err := e.fetch(next.Ref)
	if err != nil {
		return nil, err
	}
	current := utxos[0].Assets

	reserve := reward.RunningReward(d, p.Duration, p.Amount, p.Time, p.Capacity)
	if have := current.Get(d.Reward.Unit()); have.Cmp(reserve) > 0 {
		reserve = have
	}
	validation := new(big.Int).Sub(p.Capacity, d.Count)
	delta := new(big.Int).Sub(validation, current.Get(d.Validate.Unit()))

	d.Lovelace = new(big.Int).Set(p.Lovelace)
	d.Expiration = new(big.Int).Add(e.now, p.Duration)
	d.Reward.Amount = new(big.Int).Set(p.Amount)
	d.Reward.Time = new(big.Int).Set(p.Time)
	d.Reward.Timeout = new(big.Int).Set(p.Timeout)

	t := newTemplate(OpRenew, owner.Address)
	t.spend(next.Ref, RedeemerRenew, e.now)
	if delta.Sign() != 0 {
		policy := e.scripts.ValidatePolicy()
		t.mint(policy, ledger.Assets{}.Set(d.Validate.Unit(), delta))
		t.attach(policy)
	}
	out, err := e.payScript(t, d, contractAssets(d, reserve, validation))
	if err != nil {
		return nil, err
	}
	t.requireSigner(owner.Hash)
	t.ValidFrom = e.validFrom
	t.attach(e.scripts.Validator())
	return &Transition{Template: t, Now: e.now, next: next, contractOut: int(out)}, nil
}

func (e *planEnv) close(c *Contract, owner Party) (*Transition, error) {
	next, err := prepare(c)
	if err != nil {
		return nil, err
	}
	d := next.Datum
	if err := requireParty(owner, d.Owner); err != nil {
		return nil, err
	}
	refs := []ledger.OutRef{next.Ref}
	for _, l := range next.Leaves {
		refs = append(refs, l.Ref)
	}
	utxos, err := e.fetch(refs...)
	if err != nil {
		return nil, err
	}

	t := newTemplate(OpClose, owner.Address)
	for _, ref := range refs {
		t.spend(ref, RedeemerClose, e.now)
	}
	burn := new(big.Int).Add(utxos[0].Assets.Get(d.Validate.Unit()), d.Count)
	if burn.Sign() != 0 {
		policy := e.scripts.ValidatePolicy()
		t.mint(policy, ledger.Assets{}.Set(d.Validate.Unit(), burn.Neg(burn)))
		t.attach(policy)
	}
	t.requireSigner(owner.Hash)
	t.ValidFrom = e.validFrom
	t.attach(e.scripts.Validator())
	return &Transition{Template: t, Now: e.now, contractOut: -1}, nil
}

func (e *planEnv) assetAdd(c *Contract, staker Party, name []byte) (*Transition, error) {
	next, err := prepare(c)
	if err != nil {
		return nil, err
	}
	d := next.Datum
	if err := requireParty(staker, nil); err != nil {
		return nil, err
	}
	if len(name) == 0 {
		return nil, invalid("empty leaf name")
	}
	if _, err := next.Leaf(name); err == nil {
		return nil, errors.Wrapf(reverts.ErrAlreadyExists, "leaf %q", name)
	}

	prev, hasPrev, err := leaflist.Predecessor(next.Leaves, name)
	if err != nil {
		return nil, err
	}
	refs := []ledger.OutRef{next.Ref}
	if hasPrev {
		refs = append(refs, prev.Ref)
	}
	utxos, err := e.fetch(refs...)
	if err != nil {
		return nil, err
	}
	current := utxos[0].Assets
	validation := current.Get(d.Validate.Unit())
	if validation.Sign() <= 0 {
		return nil, reverts.ErrNoCapacity
	}

	leaf := &Leaf{Datum: &datum.LeafDatum{
		Name:       append(ledger.HexBytes{}, name...),
		Hash:       d.Hash().Bytes(),
		Staker:     append(ledger.HexBytes{}, staker.Hash...),
		Start:      new(big.Int).Set(e.now),
		Expiration: reward.Expiration(d, e.now),
		Time:       new(big.Int).Set(d.Reward.Time),
		Amount:     new(big.Int).Set(d.Reward.Amount),
	}}
	if hasPrev {
		leaf.Datum.Next = prev.Datum.Next
		prev.Datum.Next = leaf.Datum.Name
	} else {
		leaf.Datum.Next = d.First
		d.First = leaf.Datum.Name
	}
	d.Count = new(big.Int).Add(d.Count, big.NewInt(1))

	t := newTemplate(OpAssetAdd, staker.Address)
	for _, ref := range refs {
		t.spend(ref, RedeemerAssetAdd, e.now)
	}
	outs := make(map[string]uint32, 2)
	contractOut, err := e.payScript(t, d, contractAssets(d, current.Get(d.Reward.Unit()), validation.Sub(validation, big.NewInt(1))))
	if err != nil {
		return nil, err
	}
	if outs[string(name)], err = e.payScript(t, leaf.Datum, leafAssets(d)); err != nil {
		return nil, err
	}
	if hasPrev {
		if outs[string(prev.Datum.Name)], err = e.payScript(t, prev.Datum, utxos[1].Assets.Clone()); err != nil {
			return nil, err
		}
	}
	t.pay(staker.Address, nil, ledger.Assets{}.Set(d.StakeUnit(name), big.NewInt(1)))
	t.requireSigner(staker.Hash)
	t.ValidFrom = e.validFrom
	t.attach(e.scripts.Validator())

	next.Leaves = append(next.Leaves, leaf)
	next.Sort()
	return &Transition{Template: t, Now: e.now, next: next, contractOut: int(contractOut), leafOuts: outs}, nil
}

// unlink removes the leaf called name from the chain and returns it with its
// predecessor, if any.
func unlink(next *Contract, name []byte) (leaf, prev *Leaf, hasPrev bool, err error) {
	if leaf, err = next.Leaf(name); err != nil {
		return nil, nil, false, errors.Wrapf(err, "leaf %q", name)
	}
	next.removeLeaf(name)
	if prev, hasPrev, err = leaflist.Predecessor(next.Leaves, name); err != nil {
		return nil, nil, false, err
	}
	d := next.Datum
	if hasPrev {
		prev.Datum.Next = leaf.Datum.Next
	} else {
		d.First = leaf.Datum.Next
	}
	d.Count = new(big.Int).Sub(d.Count, big.NewInt(1))
	return leaf, prev, hasPrev, nil
}

// removal plans payout and forced close, which share their shape and differ
// in who signs and where the reward goes.
func (e *planEnv) removal(op Op, c *Contract, party Party, name []byte) (*Transition, error) {
	next, err := prepare(c)
	if err != nil {
		return nil, err
	}
	d := next.Datum
	leaf, err := next.Leaf(name)
	if err != nil {
		return nil, errors.Wrapf(err, "leaf %q", name)
	}
	redeemer := RedeemerAssetClose
	signer := d.Owner
	if op == OpAssetPayout {
		redeemer = RedeemerAssetPayout
		signer = leaf.Datum.Staker
	}
	if err := requireParty(party, signer); err != nil {
		return nil, err
	}
	earned := reward.Reward(d.Expiration, leaf.Datum, e.now)

	leaf, prev, hasPrev, err := unlink(next, name)
	if err != nil {
		return nil, err
	}
	refs := []ledger.OutRef{next.Ref, leaf.Ref}
	if hasPrev {
		refs = append(refs, prev.Ref)
	}
	utxos, err := e.fetch(refs...)
	if err != nil {
		return nil, err
	}
	current := utxos[0].Assets
	reserve := current.Get(d.Reward.Unit())
	if op == OpAssetPayout {
		if reserve.Cmp(earned) < 0 {
			return nil, errors.Wrapf(reverts.ErrInsufficientReserve, "reward %v, reserve %v", earned, reserve)
		}
		reserve.Sub(reserve, earned)
	}
	validation := current.Get(d.Validate.Unit())
	validation.Add(validation, big.NewInt(1))

	t := newTemplate(op, party.Address)
	for _, ref := range refs {
		t.spend(ref, redeemer, e.now)
	}
	outs := make(map[string]uint32, 1)
	contractOut, err := e.payScript(t, d, contractAssets(d, reserve, validation))
	if err != nil {
		return nil, err
	}
	if hasPrev {
		if outs[string(prev.Datum.Name)], err = e.payScript(t, prev.Datum, utxos[2].Assets.Clone()); err != nil {
			return nil, err
		}
	}
	if op == OpAssetPayout {
		t.pay(party.Address, nil, ledger.Assets{}.
			Set(d.StakeUnit(name), big.NewInt(1)).
			Set(d.Reward.Unit(), earned))
	}
	t.requireSigner(party.Hash)
	t.ValidFrom = e.validFrom
	t.attach(e.scripts.Validator())
	return &Transition{Template: t, Now: e.now, next: next, contractOut: int(contractOut), leafOuts: outs}, nil
}

func (e *planEnv) assetRenew(c *Contract, staker Party, name []byte) (*Transition, error) {
	next, err := prepare(c)
	if err != nil {
		return nil, err
	}
	d := next.Datum
	leaf, err := next.Leaf(name)
	if err != nil {
		return nil, errors.Wrapf(err, "leaf %q", name)
	}
	if err := requireParty(staker, leaf.Datum.Staker); err != nil {
		return nil, err
	}
	utxos, err := e.fetch(next.Ref, leaf.Ref)
	if err != nil {
		return nil, err
	}
	current := utxos[0].Assets
	earned := reward.Reward(d.Expiration, leaf.Datum, e.now)
	reserve := current.Get(d.Reward.Unit())
	if reserve.Cmp(earned) < 0 {
		return nil, errors.Wrapf(reverts.ErrInsufficientReserve, "reward %v, reserve %v", earned, reserve)
	}
	reserve.Sub(reserve, earned)

	leaf.Datum.Start = new(big.Int).Set(e.now)
	leaf.Datum.Expiration = reward.Expiration(d, e.now)
	leaf.Datum.Time = new(big.Int).Set(d.Reward.Time)
	leaf.Datum.Amount = new(big.Int).Set(d.Reward.Amount)

	t := newTemplate(OpAssetRenew, staker.Address)
	t.spend(next.Ref, RedeemerAssetRenew, e.now)
	t.spend(leaf.Ref, RedeemerAssetRenew, e.now)
	contractOut, err := e.payScript(t, d, contractAssets(d, reserve, current.Get(d.Validate.Unit())))
	if err != nil {
		return nil, err
	}
	leafOut, err := e.payScript(t, leaf.Datum, leafAssets(d))
	if err != nil {
		return nil, err
	}
	t.pay(staker.Address, nil, ledger.Assets{}.
		Set(d.StakeUnit(name), big.NewInt(1)).
		Set(d.Reward.Unit(), earned))
	t.requireSigner(staker.Hash)
	t.ValidFrom = e.validFrom
	t.attach(e.scripts.Validator())
	return &Transition{
		Template:    t,
		Now:         e.now,
		next:        next,
		contractOut: int(contractOut),
		leafOuts:    map[string]uint32{string(name): leafOut},
	}, nil
}
