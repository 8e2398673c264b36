// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package datum defines the on-chain records of a staking contract and their
// Plutus data layouts. Field order is fixed by the validator.
package datum

import (
	"math/big"

	"github.com/leafstake/leafstake/ledger"
)

// ValidateToken identifies the capacity token minted for a contract.
type ValidateToken struct {
	PolicyID ledger.HexBytes `json:"policyId"`
	Name     ledger.HexBytes `json:"name"`
}

func (v ValidateToken) Unit() ledger.Unit {
	return ledger.NewUnit(v.PolicyID, v.Name)
}

// RewardSpec pays Amount tokens per Time units, for at most Timeout units
// per leaf.
type RewardSpec struct {
	PolicyID ledger.HexBytes `json:"policyId"`
	Name     ledger.HexBytes `json:"name"`
	Amount   *big.Int        `json:"amount"`
	Time     *big.Int        `json:"time"`
	Timeout  *big.Int        `json:"timeout"`
}

func (r RewardSpec) Unit() ledger.Unit {
	return ledger.NewUnit(r.PolicyID, r.Name)
}

// ContractDatum is the root record, always at output index 0.
type ContractDatum struct {
	Owner      ledger.HexBytes `json:"owner"`
	Validate   ValidateToken   `json:"validate"`
	PolicyID   ledger.HexBytes `json:"policyId"`
	Expiration *big.Int        `json:"expiration"`
	Reward     RewardSpec      `json:"reward"`
	Lovelace   *big.Int        `json:"lovelace"`
	Count      *big.Int        `json:"count"`
	First      ledger.HexBytes `json:"first"`
}

// LeafDatum is one stake. Hash is the content hash of the owning contract.
type LeafDatum struct {
	Name       ledger.HexBytes `json:"name"`
	Hash       ledger.HexBytes `json:"hash"`
	Staker     ledger.HexBytes `json:"staker"`
	Start      *big.Int        `json:"start"`
	Expiration *big.Int        `json:"expiration"`
	Time       *big.Int        `json:"time"`
	Amount     *big.Int        `json:"amount"`
	Next       ledger.HexBytes `json:"next"`
}

// StakeUnit is the unit of the staked asset named by the leaf.
func (c *ContractDatum) StakeUnit(name []byte) ledger.Unit {
	return ledger.NewUnit(c.PolicyID, name)
}

// Hash returns the content hash binding leaves to this contract. Only
// identity fields take part, so it is stable across transitions.
func (c *ContractDatum) Hash() ledger.Bytes32 {
	return ledger.Blake2b(
		c.Owner,
		c.Validate.PolicyID,
		c.Validate.Name,
		c.PolicyID,
		c.Reward.PolicyID,
		c.Reward.Name,
	)
}

// Clone returns a deep copy.
func (c *ContractDatum) Clone() *ContractDatum {
	return &ContractDatum{
		Owner: cloneBytes(c.Owner),
		Validate: ValidateToken{
			PolicyID: cloneBytes(c.Validate.PolicyID),
			Name:     cloneBytes(c.Validate.Name),
		},
		PolicyID:   cloneBytes(c.PolicyID),
		Expiration: cloneInt(c.Expiration),
		Reward: RewardSpec{
			PolicyID: cloneBytes(c.Reward.PolicyID),
			Name:     cloneBytes(c.Reward.Name),
			Amount:   cloneInt(c.Reward.Amount),
			Time:     cloneInt(c.Reward.Time),
			Timeout:  cloneInt(c.Reward.Timeout),
		},
		Lovelace: cloneInt(c.Lovelace),
		Count:    cloneInt(c.Count),
		First:    cloneBytes(c.First),
	}
}

// Clone returns a deep copy.
func (l *LeafDatum) Clone() *LeafDatum {
	return &LeafDatum{
		Name:       cloneBytes(l.Name),
		Hash:       cloneBytes(l.Hash),
		Staker:     cloneBytes(l.Staker),
		Start:      cloneInt(l.Start),
		Expiration: cloneInt(l.Expiration),
		Time:       cloneInt(l.Time),
		Amount:     cloneInt(l.Amount),
		Next:       cloneBytes(l.Next),
	}
}

// NodeName and NodeNext expose the leaf as a list node.
func (l *LeafDatum) NodeName() []byte { return l.Name }
func (l *LeafDatum) NodeNext() []byte { return l.Next }

func cloneBytes(b []byte) ledger.HexBytes {
	if b == nil {
		return nil
	}
	return append(ledger.HexBytes{}, b...)
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
