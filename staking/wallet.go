// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"context"

	"github.com/pkg/errors"

	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/staking/reverts"
)

// Wallet is the signing collaborator. Key management lives outside the
// engine.
type Wallet interface {
	Address(ctx context.Context) (string, error)
	// PaymentHash returns the payment credential hash of Address.
	PaymentHash(ctx context.Context) ([]byte, error)
	Sign(ctx context.Context, tmpl *Template) ([]byte, error)
}

// Party is the identity a transition is planned for: the address receiving
// change and payouts, and the credential required to sign.
type Party struct {
	Address string          `json:"address"`
	Hash    ledger.HexBytes `json:"hash"`
}

func (p Party) valid() bool {
	return p.Address != "" && len(p.Hash) > 0
}

// ResolveParty reads the wallet identity.
func ResolveParty(ctx context.Context, w Wallet) (Party, error) {
	addr, err := w.Address(ctx)
	if err != nil {
		return Party{}, errors.Wrap(reverts.ErrInvalidWallet, err.Error())
	}
	hash, err := w.PaymentHash(ctx)
	if err != nil {
		return Party{}, errors.Wrap(reverts.ErrInvalidWallet, err.Error())
	}
	p := Party{Address: addr, Hash: hash}
	if !p.valid() {
		return Party{}, reverts.ErrInvalidWallet
	}
	return p, nil
}
