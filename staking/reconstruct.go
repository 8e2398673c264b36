// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"bytes"
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/leafstake/leafstake/cache"
	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/staking/datum"
)

// DefaultDatumCacheSize bounds the decoded datum cache of a Reconstructor.
const DefaultDatumCacheSize = 4096

type datumKey struct {
	hash ledger.Bytes32
	root bool
}

type decoded struct {
	contract *datum.ContractDatum
	leaf     *datum.LeafDatum
}

// Reconstructor rebuilds contracts from the outputs locked at the
// validator. Decoded datums are memoised across calls.
type Reconstructor struct {
	datums *cache.LRU[datumKey, decoded]
}

func NewReconstructor(cacheSize int) (*Reconstructor, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultDatumCacheSize
	}
	datums, err := cache.NewLRU[datumKey, decoded](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Reconstructor{datums: datums}, nil
}

// CacheStats returns the datum cache statistics.
func (r *Reconstructor) CacheStats() *cache.Stats { return r.datums.Stats() }

// decode returns a private copy of the datum at u. Outputs at index 0 hold
// contract records, all others leaf records.
func (r *Reconstructor) decode(u *ledger.UTxO) (decoded, error) {
	key := datumKey{hash: ledger.Blake2b(u.Datum), root: u.Ref.Index == 0}
	d, err := r.datums.GetOrLoad(key, func(k datumKey) (decoded, error) {
		if k.root {
			c, err := datum.DecodeContract(u.Datum)
			return decoded{contract: c}, err
		}
		l, err := datum.DecodeLeaf(u.Datum)
		return decoded{leaf: l}, err
	})
	if err != nil {
		return decoded{}, err
	}
	if d.contract != nil {
		return decoded{contract: d.contract.Clone()}, nil
	}
	return decoded{leaf: d.leaf.Clone()}, nil
}

// Reconstruct groups utxos into contracts. Leaves attach to the contract
// with the same content hash; leaves without one and outputs that do not
// decode are dropped. The result is sorted by content hash, leaves by name.
func (r *Reconstructor) Reconstruct(utxos []*ledger.UTxO) []*Contract {
	ordered := append([]*ledger.UTxO(nil), utxos...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return lessRef(ordered[i].Ref, ordered[j].Ref)
	})

	var (
		contracts = make(map[ledger.Bytes32]*Contract)
		leaves    []*Leaf
		dropped   = map[string]int64{}
	)
	for _, u := range ordered {
		if len(u.Datum) == 0 {
			dropped["nodatum"]++
			continue
		}
		d, err := r.decode(u)
		if err != nil {
			logger.Debug("skip undecodable output", "utxo", u.Ref, "err", err)
			dropped["undecodable"]++
			continue
		}
		if d.contract != nil {
			hash := d.contract.Hash()
			if have, ok := contracts[hash]; ok {
				logger.Warn("duplicate contract record", "hash", hash, "kept", have.Ref, "skipped", u.Ref)
				dropped["duplicate"]++
				continue
			}
			contracts[hash] = &Contract{Ref: u.Ref, Datum: d.contract}
			continue
		}
		leaves = append(leaves, &Leaf{Ref: u.Ref, Datum: d.leaf})
	}

	var total int64
	for _, l := range leaves {
		var c *Contract
		if len(l.Datum.Hash) == len(ledger.Bytes32{}) {
			c = contracts[ledger.BytesToBytes32(l.Datum.Hash)]
		}
		if c == nil {
			dropped["orphan"]++
			continue
		}
		c.Leaves = append(c.Leaves, l)
		total++
	}

	out := make([]*Contract, 0, len(contracts))
	for _, c := range contracts {
		c.Sort()
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		hi, hj := out[i].Hash(), out[j].Hash()
		return bytes.Compare(hi[:], hj[:]) < 0
	})

	for reason, n := range dropped {
		metricDropped().AddWithLabel(n, map[string]string{"reason": reason})
	}
	metricContracts().Set(int64(len(out)))
	metricLeaves().Set(total)
	if orphans := dropped["orphan"]; orphans > 0 {
		logger.Info("dropped orphan leaves", "count", orphans)
	}
	return out
}

func lessRef(a, b ledger.OutRef) bool {
	if c := bytes.Compare(a.TxID[:], b.TxID[:]); c != 0 {
		return c < 0
	}
	return a.Index < b.Index
}

// Loader reconstructs contracts from the live ledger.
type Loader struct {
	query   ledger.Querier
	scripts Scripts
	rec     *Reconstructor
}

func NewLoader(query ledger.Querier, scripts Scripts, rec *Reconstructor) *Loader {
	return &Loader{query: query, scripts: scripts, rec: rec}
}

// UTxOs returns the outputs locked at the validator.
func (l *Loader) UTxOs(ctx context.Context) ([]*ledger.UTxO, error) {
	utxos, err := l.query.UTxOsAt(ctx, l.scripts.Address())
	if err != nil {
		return nil, errors.Wrap(err, "query validator utxos")
	}
	return utxos, nil
}

func (l *Loader) Load(ctx context.Context) ([]*Contract, error) {
	utxos, err := l.UTxOs(ctx)
	if err != nil {
		return nil, err
	}
	contracts := l.rec.Reconstruct(utxos)
	logger.Debug("loaded contracts", "utxos", len(utxos), "contracts", len(contracts))
	return contracts, nil
}
