// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package snapshot persists the local view of staking contracts: one JSON
// snapshot per contract and the last seen outputs of the validator address.
package snapshot

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/leafstake/leafstake/kv"
	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/log"
	"github.com/leafstake/leafstake/staking"
	"github.com/leafstake/leafstake/staking/datum"
	"github.com/leafstake/leafstake/staking/reverts"
)

var logger = log.WithContext("pkg", "snapshot")

const (
	snapshotBucket = kv.Bucket("s/")
	utxoBucket     = kv.Bucket("u/")
)

// ContractRecord is the contract half of a snapshot.
type ContractRecord struct {
	Ref   ledger.OutRef        `json:"utxo"`
	Datum *datum.ContractDatum `json:"datum"`
}

// State is the persisted form of a contract and its leaves. A closed contract
// has a nil Contract.
type State struct {
	Contract *ContractRecord `json:"contract"`
	Database []*staking.Leaf  `json:"database"`
}

// FromContract builds the state of c. A nil c gives the closed state.
func FromContract(c *staking.Contract) *State {
	s := &State{Database: []*staking.Leaf{}}
	if c == nil {
		return s
	}
	c = c.Clone()
	s.Contract = &ContractRecord{Ref: c.Ref, Datum: c.Datum}
	s.Database = append(s.Database, c.Leaves...)
	return s
}

// Aggregate returns the contract held by s, nil when closed.
func (s *State) Aggregate() *staking.Contract {
	if s.Contract == nil {
		return nil
	}
	c := &staking.Contract{Ref: s.Contract.Ref, Datum: s.Contract.Datum, Leaves: s.Database}
	c = c.Clone()
	c.Sort()
	return c
}

// Store keeps snapshots and the output cache in a kv store.
type Store struct {
	snapshots kv.Store
	utxos     kv.Store
}

func New(db kv.Store) *Store {
	return &Store{
		snapshots: snapshotBucket.NewStore(db),
		utxos:     utxoBucket.NewStore(db),
	}
}

// Save writes the snapshot of c under its content hash.
func (s *Store) Save(c *staking.Contract) error {
	data, err := json.Marshal(FromContract(c))
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	hash := c.Hash()
	return s.snapshots.Put(hash[:], data)
}

// Load reads the contract saved under hash.
func (s *Store) Load(hash ledger.Bytes32) (*staking.Contract, error) {
	data, err := s.snapshots.Get(hash[:])
	if err != nil {
		if s.snapshots.IsNotFound(err) {
			return nil, reverts.ErrNoRunningContract
		}
		return nil, err
	}
	return decodeState(data)
}

func decodeState(data []byte) (*staking.Contract, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	c := st.Aggregate()
	if c == nil {
		return nil, reverts.ErrNoRunningContract
	}
	return c, nil
}

func (s *Store) Delete(hash ledger.Bytes32) error {
	return s.snapshots.Delete(hash[:])
}

// List returns every saved contract, ordered by content hash.
func (s *Store) List() ([]*staking.Contract, error) {
	var (
		out  []*staking.Contract
		ierr error
	)
	err := s.snapshots.Iterate(kv.Range{}, func(p kv.Pair) bool {
		c, err := decodeState(p.Value())
		if err != nil {
			ierr = errors.Wrapf(err, "snapshot %x", p.Key())
			return false
		}
		out = append(out, c)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, ierr
}

// Replace makes the saved snapshots exactly contracts.
func (s *Store) Replace(contracts []*staking.Contract) error {
	keep := make(map[ledger.Bytes32]bool, len(contracts))
	for _, c := range contracts {
		keep[c.Hash()] = true
	}
	var stale [][]byte
	if err := s.snapshots.Iterate(kv.Range{}, func(p kv.Pair) bool {
		if !keep[ledger.BytesToBytes32(p.Key())] {
			stale = append(stale, append([]byte(nil), p.Key()...))
		}
		return true
	}); err != nil {
		return err
	}
	return s.snapshots.Batch(func(w kv.Putter) error {
		for _, key := range stale {
			if err := w.Delete(key); err != nil {
				return err
			}
		}
		for _, c := range contracts {
			data, err := json.Marshal(FromContract(c))
			if err != nil {
				return errors.Wrap(err, "encode snapshot")
			}
			hash := c.Hash()
			if err := w.Put(hash[:], data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Sync refreshes the output cache from the ledger, rebuilds the contracts
// and rewrites the snapshots.
func (s *Store) Sync(ctx context.Context, loader *staking.Loader, rec *staking.Reconstructor) ([]*staking.Contract, error) {
	utxos, err := loader.UTxOs(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.PutUTxOs(utxos); err != nil {
		return nil, err
	}
	contracts := rec.Reconstruct(utxos)
	if err := s.Replace(contracts); err != nil {
		return nil, err
	}
	logger.Info("synced", "utxos", len(utxos), "contracts", len(contracts))
	return contracts, nil
}

// Rebuild reconstructs the contracts from the cached outputs, without the
// ledger.
func (s *Store) Rebuild(rec *staking.Reconstructor) ([]*staking.Contract, error) {
	utxos, err := s.UTxOs()
	if err != nil {
		return nil, err
	}
	return rec.Reconstruct(utxos), nil
}
