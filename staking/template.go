// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/leafstake/leafstake/ledger"
)

// Op names a transition.
type Op string

const (
	OpCreate      Op = "create"
	OpRenew       Op = "renew"
	OpClose       Op = "close"
	OpAssetAdd    Op = "assetAdd"
	OpAssetPayout Op = "assetPayout"
	OpAssetRenew  Op = "assetRenew"
	OpAssetClose  Op = "assetClose"
)

// Ops lists every transition.
var Ops = []Op{OpCreate, OpRenew, OpClose, OpAssetAdd, OpAssetPayout, OpAssetRenew, OpAssetClose}

// ParseOp accepts the op names above.
func ParseOp(s string) (Op, bool) {
	for _, op := range Ops {
		if string(op) == s {
			return op, true
		}
	}
	return "", false
}

// Input is a consumed output and the redeemer it is spent with.
type Input struct {
	Ref      ledger.OutRef   `json:"utxo"`
	Redeemer ledger.HexBytes `json:"redeemer"`
}

// Output is a produced output. Datum holds inline datum bytes, nil for
// wallet outputs.
type Output struct {
	Address string          `json:"address"`
	Datum   ledger.HexBytes `json:"datum,omitempty"`
	Assets  ledger.Assets   `json:"assets"`
}

// Mint is the validation token delta of a transition. Negative quantities
// burn.
type Mint struct {
	Policy   *Script         `json:"policy"`
	Assets   ledger.Assets   `json:"assets"`
	Redeemer ledger.HexBytes `json:"redeemer"`
}

// Template is an unsigned transaction description, handed to the wallet for
// balancing and signing.
type Template struct {
	Op            Op                `json:"op"`
	Inputs        []Input           `json:"inputs"`
	Outputs       []Output          `json:"outputs"`
	Mint          *Mint             `json:"mint,omitempty"`
	Signers       []ledger.HexBytes `json:"requiredSigners,omitempty"`
	ChangeAddress string            `json:"changeAddress"`
	ValidFrom     *big.Int          `json:"validFrom,omitempty"`
	Scripts       []*Script         `json:"scripts,omitempty"`
}

func newTemplate(op Op, change string) *Template {
	return &Template{Op: op, ChangeAddress: change}
}

func (t *Template) spend(ref ledger.OutRef, r Redeemer, now *big.Int) {
	t.Inputs = append(t.Inputs, Input{Ref: ref, Redeemer: r.Encode(now)})
}

// pay appends an output and returns its index.
func (t *Template) pay(address string, datum []byte, assets ledger.Assets) uint32 {
	t.Outputs = append(t.Outputs, Output{Address: address, Datum: datum, Assets: assets})
	return uint32(len(t.Outputs) - 1)
}

func (t *Template) mint(policy *Script, assets ledger.Assets) {
	if len(assets) == 0 {
		return
	}
	t.Mint = &Mint{Policy: policy, Assets: assets, Redeemer: mintRedeemer}
}

func (t *Template) requireSigner(hash []byte) {
	t.Signers = append(t.Signers, hash)
}

func (t *Template) attach(s *Script) {
	for _, have := range t.Scripts {
		if have == s {
			return
		}
	}
	t.Scripts = append(t.Scripts, s)
}
