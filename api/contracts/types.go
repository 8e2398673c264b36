// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contracts

import (
	"math/big"

	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/staking"
)

// Contract is a contract with its content hash.
type Contract struct {
	Hash ledger.Bytes32 `json:"hash"`
	*staking.Contract
}

func convertContract(c *staking.Contract) *Contract {
	if c == nil {
		return nil
	}
	return &Contract{Hash: c.Hash(), Contract: c}
}

// Reward is the running reward of a leaf at Now.
type Reward struct {
	Name   ledger.HexBytes `json:"name"`
	Now    *big.Int        `json:"now"`
	Reward *big.Int        `json:"reward"`
}

// Plan is an unsigned template with a preview of the resulting contract.
// Next is null after a close.
type Plan struct {
	Template *staking.Template `json:"template"`
	Now      *big.Int          `json:"now"`
	Next     *Contract         `json:"next"`
}

func convertTransition(tr *staking.Transition) *Plan {
	return &Plan{
		Template: tr.Template,
		Now:      tr.Now,
		Next:     convertContract(tr.Next()),
	}
}
