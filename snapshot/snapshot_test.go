// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafstake/leafstake/kv"
	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/staking"
	"github.com/leafstake/leafstake/staking/datum"
	"github.com/leafstake/leafstake/staking/reverts"
)

func newContract(owner byte, names ...string) *staking.Contract {
	d := &datum.ContractDatum{
		Owner:      bytes.Repeat([]byte{owner}, 28),
		Validate:   datum.ValidateToken{PolicyID: bytes.Repeat([]byte{0xcc}, 28), Name: []byte(staking.ValidateTokenName)},
		PolicyID:   bytes.Repeat([]byte{0xdd}, 28),
		Expiration: big.NewInt(1_000_000),
		Reward: datum.RewardSpec{
			PolicyID: bytes.Repeat([]byte{0xbb}, 28),
			Name:     []byte("REWARD"),
			Amount:   big.NewInt(10),
			Time:     big.NewInt(100),
			Timeout:  big.NewInt(500_000),
		},
		Lovelace: big.NewInt(2_000_000),
		Count:    big.NewInt(int64(len(names))),
	}
	tx := ledger.Blake2b([]byte{owner})
	c := &staking.Contract{Ref: ledger.OutRef{TxID: tx}, Datum: d}
	hash := d.Hash()
	for i, name := range names {
		l := &datum.LeafDatum{
			Name:       []byte(name),
			Hash:       hash.Bytes(),
			Staker:     bytes.Repeat([]byte{0x02}, 28),
			Start:      big.NewInt(int64(i) + 1),
			Expiration: big.NewInt(500_000),
			Time:       big.NewInt(100),
			Amount:     big.NewInt(10),
		}
		if i+1 < len(names) {
			l.Next = []byte(names[i+1])
		}
		c.Leaves = append(c.Leaves, &staking.Leaf{Ref: ledger.OutRef{TxID: tx, Index: uint32(i + 1)}, Datum: l})
	}
	if len(names) > 0 {
		d.First = []byte(names[0])
	}
	return c
}

func newStore(t *testing.T) *Store {
	db, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestStateJSON(t *testing.T) {
	c := newContract(0x01, "Apple", "Banana")
	data, err := json.Marshal(FromContract(c))
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "contract")
	assert.Contains(t, raw, "database")
	assert.Contains(t, string(raw["contract"]), `"utxo":{"txHash":"`+c.Ref.TxID.String()+`","outputIndex":0}`)
	assert.Contains(t, string(raw["contract"]), `"lovelace":2000000`)

	var st State
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, c, st.Aggregate())

	closed, err := json.Marshal(FromContract(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"contract":null,"database":[]}`, string(closed))
}

func TestSaveLoad(t *testing.T) {
	s := newStore(t)
	a := newContract(0x01, "Apple", "Banana")
	b := newContract(0x02)

	require.NoError(t, s.Save(a))
	require.NoError(t, s.Save(b))

	got, err := s.Load(a.Hash())
	require.NoError(t, err)
	assert.Equal(t, a, got)

	list, err := s.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, s.Delete(a.Hash()))
	_, err = s.Load(a.Hash())
	assert.True(t, errors.Is(err, reverts.ErrNoRunningContract))

	require.NoError(t, s.Replace([]*staking.Contract{a}))
	list, err = s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.Hash(), list[0].Hash())
}

func contractUTxOs(t *testing.T, c *staking.Contract, address string) []*ledger.UTxO {
	cd, err := c.Datum.Encode()
	require.NoError(t, err)
	out := []*ledger.UTxO{{
		Ref:     c.Ref,
		Address: address,
		Assets:  ledger.Assets{}.Set(ledger.Lovelace, c.Datum.Lovelace).Set(c.Datum.Reward.Unit(), big.NewInt(600_000)),
		Datum:   cd,
	}}
	for _, l := range c.Leaves {
		ld, err := l.Datum.Encode()
		require.NoError(t, err)
		out = append(out, &ledger.UTxO{
			Ref:     l.Ref,
			Address: address,
			Assets:  ledger.Assets{}.Set(c.Datum.Validate.Unit(), big.NewInt(1)),
			Datum:   ld,
		})
	}
	return out
}

func TestUTxOCache(t *testing.T) {
	s := newStore(t)
	c := newContract(0x01, "Apple")
	utxos := contractUTxOs(t, c, "addr_test_script")
	utxos = append(utxos, &ledger.UTxO{Ref: ledger.OutRef{Index: 7}, Address: "addr_test_script", Assets: ledger.Assets{}})

	require.NoError(t, s.PutUTxOs(utxos))
	got, err := s.UTxOs()
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, u := range utxos {
		have := ledger.FindUTxO(got, u.Ref)
		require.NotNil(t, have, "%v", u.Ref)
		assert.Equal(t, u.Address, have.Address)
		assert.True(t, u.Assets.Equal(have.Assets))
		assert.Equal(t, u.Datum, have.Datum)
	}

	require.NoError(t, s.PutUTxOs(utxos[:1]))
	got, err = s.UTxOs()
	require.NoError(t, err)
	assert.Len(t, got, 1)

	bad := &ledger.UTxO{Assets: ledger.Assets{ledger.Lovelace: big.NewInt(-1)}}
	assert.Error(t, s.PutUTxOs([]*ledger.UTxO{bad}))
}

type staticQuerier []*ledger.UTxO

func (q staticQuerier) UTxOsByRef(context.Context, []ledger.OutRef) ([]*ledger.UTxO, error) {
	return nil, nil
}

func (q staticQuerier) UTxOsAt(context.Context, string) ([]*ledger.UTxO, error) {
	return q, nil
}

type scripts struct{}

func (scripts) Validator() *staking.Script      { return &staking.Script{} }
func (scripts) Address() string                 { return "addr_test_script" }
func (scripts) ValidatePolicy() *staking.Script { return &staking.Script{} }

func TestSync(t *testing.T) {
	s := newStore(t)
	stale := newContract(0x09)
	require.NoError(t, s.Save(stale))

	c := newContract(0x01, "Apple", "Banana")
	rec, err := staking.NewReconstructor(0)
	require.NoError(t, err)
	loader := staking.NewLoader(staticQuerier(contractUTxOs(t, c, "addr_test_script")), scripts{}, rec)

	contracts, err := s.Sync(context.Background(), loader, rec)
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, c, contracts[0])

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c, list[0])

	rebuilt, err := s.Rebuild(rec)
	require.NoError(t, err)
	assert.Equal(t, contracts, rebuilt)
}
