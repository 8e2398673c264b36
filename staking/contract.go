// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"bytes"
	"math/big"

	"github.com/pkg/errors"

	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/staking/datum"
	"github.com/leafstake/leafstake/staking/leaflist"
	"github.com/leafstake/leafstake/staking/reverts"
	"github.com/leafstake/leafstake/staking/reward"
)

// Leaf is a stake record and the output currently holding it.
type Leaf struct {
	Ref   ledger.OutRef    `json:"utxo"`
	Datum *datum.LeafDatum `json:"datum"`
}

func (l *Leaf) NodeName() []byte { return l.Datum.Name }
func (l *Leaf) NodeNext() []byte { return l.Datum.Next }

func (l *Leaf) Clone() *Leaf {
	return &Leaf{Ref: l.Ref, Datum: l.Datum.Clone()}
}

// Contract is the aggregate of a contract record and its leaves, kept in
// name order.
type Contract struct {
	Ref    ledger.OutRef        `json:"utxo"`
	Datum  *datum.ContractDatum `json:"datum"`
	Leaves []*Leaf              `json:"leaves"`
}

// Hash returns the content hash shared by the contract and its leaves.
func (c *Contract) Hash() ledger.Bytes32 {
	return c.Datum.Hash()
}

// Clone returns a deep copy. Planning always works on a clone.
func (c *Contract) Clone() *Contract {
	leaves := make([]*Leaf, 0, len(c.Leaves))
	for _, l := range c.Leaves {
		leaves = append(leaves, l.Clone())
	}
	return &Contract{Ref: c.Ref, Datum: c.Datum.Clone(), Leaves: leaves}
}

// Leaf returns the leaf called name.
func (c *Contract) Leaf(name []byte) (*Leaf, error) {
	return leaflist.Get(c.Leaves, name)
}

// Sort puts the leaves in name order.
func (c *Contract) Sort() {
	leaflist.Sort(c.Leaves)
}

func (c *Contract) removeLeaf(name []byte) {
	out := c.Leaves[:0]
	for _, l := range c.Leaves {
		if !bytes.Equal(l.Datum.Name, name) {
			out = append(out, l)
		}
	}
	c.Leaves = out
}

// Verify checks the count and order invariants of the aggregate, and that
// every leaf belongs to the contract.
func (c *Contract) Verify() error {
	count := c.Datum.Count
	if count == nil || count.Sign() < 0 || !count.IsInt64() {
		return errors.Wrap(reverts.ErrInconsistentDatabase, "invalid count")
	}
	hash := c.Hash()
	for _, l := range c.Leaves {
		if !bytes.Equal(l.Datum.Hash, hash.Bytes()) {
			return errors.Wrapf(reverts.ErrInconsistentDatabase, "leaf %q belongs to another contract", l.Datum.Name)
		}
	}
	if err := leaflist.Verify(c.Datum.First, int(count.Int64()), c.Leaves); err != nil {
		return errors.Wrap(err, "leaf chain")
	}
	return nil
}

// Reward returns what the leaf called name has accrued at now.
func (c *Contract) Reward(name []byte, now *big.Int) (*big.Int, error) {
	l, err := c.Leaf(name)
	if err != nil {
		return nil, err
	}
	return reward.Reward(c.Datum.Expiration, l.Datum, now), nil
}

// Filter selects contracts by identity. Empty fields match anything.
type Filter struct {
	Owner          []byte
	PolicyID       []byte
	RewardPolicyID []byte
	RewardName     []byte
}

func (f Filter) Match(c *Contract) bool {
	match := func(want, got []byte) bool {
		return len(want) == 0 || bytes.Equal(want, got)
	}
	return match(f.Owner, c.Datum.Owner) &&
		match(f.PolicyID, c.Datum.PolicyID) &&
		match(f.RewardPolicyID, c.Datum.Reward.PolicyID) &&
		match(f.RewardName, c.Datum.Reward.Name)
}

// Select returns the contracts matching f, in input order.
func Select(contracts []*Contract, f Filter) []*Contract {
	var out []*Contract
	for _, c := range contracts {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the contract with the given content hash.
func Find(contracts []*Contract, hash ledger.Bytes32) (*Contract, error) {
	for _, c := range contracts {
		if c.Hash() == hash {
			return c, nil
		}
	}
	return nil, reverts.ErrNoRunningContract
}
