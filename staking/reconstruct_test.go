// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"context"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/staking/datum"
)

func scriptUTxOs(t *testing.T, f *fixture) []*ledger.UTxO {
	utxos, err := f.ledger.UTxOsAt(context.Background(), testScripts.Address())
	require.NoError(t, err)
	return utxos
}

func TestReconstruct(t *testing.T) {
	f := newFixture()
	a := f.add(t, f.create(t, 6), "Cherry", "Apple", "Banana")

	p := createParams(2)
	p.PolicyID = ledger.HexBytes(fill(0xee, ledger.PolicyIDLength))
	b, err := f.engine.Create(context.Background(), f.owner, f.ledger, p)
	require.NoError(t, err)
	b = f.add(t, b, "Fig")

	utxos := scriptUTxOs(t, f)
	rand.New(rand.NewSource(1)).Shuffle(len(utxos), func(i, j int) { utxos[i], utxos[j] = utxos[j], utxos[i] })

	orphan := a.Leaves[0].Datum.Clone()
	orphan.Hash = fill(0x77, 32)
	orphanBytes, err := orphan.Encode()
	require.NoError(t, err)

	duplicate, err := a.Datum.Encode()
	require.NoError(t, err)

	maxTx := ledger.BytesToBytes32(fill(0xff, 32))
	utxos = append(utxos,
		&ledger.UTxO{Ref: ledger.OutRef{TxID: maxTx, Index: 1}, Address: testScripts.Address(), Datum: orphanBytes},
		&ledger.UTxO{Ref: ledger.OutRef{TxID: maxTx, Index: 2}, Address: testScripts.Address(), Datum: []byte{0xd8, 0x79}},
		&ledger.UTxO{Ref: ledger.OutRef{TxID: maxTx, Index: 3}, Address: testScripts.Address()},
		&ledger.UTxO{Ref: ledger.OutRef{TxID: maxTx, Index: 0}, Address: testScripts.Address(), Datum: duplicate},
	)

	rec, err := NewReconstructor(16)
	require.NoError(t, err)
	contracts := rec.Reconstruct(utxos)
	require.Len(t, contracts, 2)

	byHash := map[ledger.Bytes32]*Contract{}
	for _, c := range contracts {
		byHash[c.Hash()] = c
		require.NoError(t, c.Verify())
	}
	assert.Equal(t, a, byHash[a.Hash()])
	assert.Equal(t, b, byHash[b.Hash()])
	assert.Equal(t, []string{"Apple", "Banana", "Cherry"}, leafNames(byHash[a.Hash()]))

	hi, hj := contracts[0].Hash(), contracts[1].Hash()
	assert.Negative(t, compareHash(hi, hj))

	// decoded datums are private copies
	contracts[0].Datum.Count.SetInt64(100)
	again := rec.Reconstruct(utxos)
	assert.NotEqual(t, int64(100), again[0].Datum.Count.Int64())
	_, hit, _ := rec.CacheStats().Stats()
	assert.Positive(t, hit)
}

func compareHash(a, b ledger.Bytes32) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func TestReconstructEmpty(t *testing.T) {
	rec, err := NewReconstructor(0)
	require.NoError(t, err)
	assert.Empty(t, rec.Reconstruct(nil))

	// a leaf alone has no contract to attach to
	leaf := &datum.LeafDatum{
		Name:       []byte("Apple"),
		Hash:       fill(0x01, 32),
		Staker:     fill(0x02, 28),
		Start:      big.NewInt(0),
		Expiration: big.NewInt(10),
		Time:       big.NewInt(1),
		Amount:     big.NewInt(1),
	}
	b, err := leaf.Encode()
	require.NoError(t, err)
	assert.Empty(t, rec.Reconstruct([]*ledger.UTxO{{Ref: ledger.OutRef{Index: 1}, Datum: b}}))
}
