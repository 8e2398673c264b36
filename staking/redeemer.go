// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/plutus"
)

// Redeemer tells the validator which operation spends an output. The values
// are constructor indexes.
type Redeemer uint64

const (
	RedeemerAssetAdd Redeemer = iota
	RedeemerAssetPayout
	RedeemerAssetRenew
	RedeemerAssetClose
	RedeemerRenew
	RedeemerClose
	RedeemerCollect
)

var redeemerNames = [...]string{"AssetAdd", "AssetPayout", "AssetRenew", "AssetClose", "Renew", "Close", "Collect"}

func (r Redeemer) String() string {
	if int(r) < len(redeemerNames) {
		return redeemerNames[r]
	}
	return "Unknown"
}

// Data builds the redeemer. Payout and contract renewal carry the instant
// they were planned at, which the validator checks against the validity
// range.
func (r Redeemer) Data(now *big.Int) plutus.Data {
	switch r {
	case RedeemerAssetPayout, RedeemerRenew:
		return plutus.NewConstr(uint64(r), plutus.NewInt(now))
	}
	return plutus.NewConstr(uint64(r))
}

func (r Redeemer) Encode(now *big.Int) ledger.HexBytes {
	return plutus.MustEncode(r.Data(now))
}

// mintRedeemer is passed to the validation token policy.
var mintRedeemer = ledger.HexBytes(plutus.MustEncode(plutus.NewConstr(0)))
