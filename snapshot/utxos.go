// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package snapshot

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/leafstake/leafstake/kv"
	"github.com/leafstake/leafstake/ledger"
)

type rlpAsset struct {
	Unit     string
	Quantity *big.Int
}

// rlpUTxO is the stored form of an output. Assets are kept in unit order so
// the encoding is canonical.
type rlpUTxO struct {
	TxID    ledger.Bytes32
	Index   uint32
	Address string
	Assets  []rlpAsset
	Datum   []byte
}

func encodeUTxO(u *ledger.UTxO) ([]byte, error) {
	ru := rlpUTxO{TxID: u.Ref.TxID, Index: u.Ref.Index, Address: u.Address, Datum: u.Datum}
	for _, unit := range u.Assets.Units() {
		q := u.Assets[unit]
		if q.Sign() < 0 {
			return nil, errors.Errorf("negative quantity of %v", unit)
		}
		ru.Assets = append(ru.Assets, rlpAsset{Unit: string(unit), Quantity: q})
	}
	return rlp.EncodeToBytes(&ru)
}

func decodeUTxO(data []byte) (*ledger.UTxO, error) {
	var ru rlpUTxO
	if err := rlp.DecodeBytes(data, &ru); err != nil {
		return nil, err
	}
	u := &ledger.UTxO{
		Ref:     ledger.OutRef{TxID: ru.TxID, Index: ru.Index},
		Address: ru.Address,
		Assets:  make(ledger.Assets, len(ru.Assets)),
	}
	if len(ru.Datum) > 0 {
		u.Datum = ru.Datum
	}
	for _, a := range ru.Assets {
		u.Assets.Set(ledger.Unit(a.Unit), a.Quantity)
	}
	return u, nil
}

func refKey(ref ledger.OutRef) []byte {
	key := make([]byte, 0, 36)
	key = append(key, ref.TxID[:]...)
	return binary.BigEndian.AppendUint32(key, ref.Index)
}

// PutUTxOs replaces the cached outputs with utxos.
func (s *Store) PutUTxOs(utxos []*ledger.UTxO) error {
	var old [][]byte
	if err := s.utxos.Iterate(kv.Range{}, func(p kv.Pair) bool {
		old = append(old, append([]byte(nil), p.Key()...))
		return true
	}); err != nil {
		return err
	}
	return s.utxos.Batch(func(w kv.Putter) error {
		for _, key := range old {
			if err := w.Delete(key); err != nil {
				return err
			}
		}
		for _, u := range utxos {
			data, err := encodeUTxO(u)
			if err != nil {
				return errors.Wrapf(err, "encode %v", u.Ref)
			}
			if err := w.Put(refKey(u.Ref), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// UTxOs returns the cached outputs in ref order.
func (s *Store) UTxOs() ([]*ledger.UTxO, error) {
	var (
		out  []*ledger.UTxO
		derr error
	)
	err := s.utxos.Iterate(kv.Range{}, func(p kv.Pair) bool {
		u, err := decodeUTxO(p.Value())
		if err != nil {
			derr = errors.Wrapf(err, "decode utxo %x", p.Key())
			return false
		}
		out = append(out, u)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, derr
}
