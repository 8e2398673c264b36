// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// OutRef is a handle to a ledger output. It goes stale once the output is
// spent.
type OutRef struct {
	TxID  TxID   `json:"txHash"`
	Index uint32 `json:"outputIndex"`
}

// String returns the tx#index form.
func (r OutRef) String() string {
	return fmt.Sprintf("%s#%d", r.TxID, r.Index)
}

// ParseOutRef parses the tx#index form.
func ParseOutRef(s string) (OutRef, error) {
	tx, idx, ok := strings.Cut(s, "#")
	if !ok {
		return OutRef{}, errors.New("missing output index")
	}
	id, err := ParseBytes32(tx)
	if err != nil {
		return OutRef{}, errors.Wrap(err, "tx hash")
	}
	n, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return OutRef{}, errors.Wrap(err, "output index")
	}
	return OutRef{TxID: id, Index: uint32(n)}, nil
}

// UTxO is an unspent output with its balance and inline datum.
type UTxO struct {
	Ref     OutRef   `json:"ref"`
	Address string   `json:"address"`
	Assets  Assets   `json:"assets"`
	Datum   HexBytes `json:"datum,omitempty"`
}

// Querier reads unspent outputs from the ledger.
type Querier interface {
	// UTxOsByRef returns the outputs still unspent among refs. Spent or
	// unknown refs are omitted from the result.
	UTxOsByRef(ctx context.Context, refs []OutRef) ([]*UTxO, error)
	// UTxOsAt returns every unspent output locked at address.
	UTxOsAt(ctx context.Context, address string) ([]*UTxO, error)
}

// Submitter sends signed transactions to the ledger.
type Submitter interface {
	Submit(ctx context.Context, signedTx []byte) (TxID, error)
	AwaitConfirmation(ctx context.Context, id TxID) error
}

// FindUTxO returns the output at ref, or nil.
func FindUTxO(utxos []*UTxO, ref OutRef) *UTxO {
	for _, u := range utxos {
		if u.Ref == ref {
			return u
		}
	}
	return nil
}
