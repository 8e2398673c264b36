// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/staking"
	"github.com/leafstake/leafstake/staking/datum"
)

var planFlags = []cli.Flag{addressFlag, paymentHashFlag, leafFlag, paramsFlag, offlineFlag}

func TestPlanRequest(t *testing.T) {
	params := writeFile(t, "create.json", `{
		"policyId": "dddd",
		"duration": 1000000,
		"reward": {"policyId": "bbbb", "name": "524557415244", "amount": 10, "time": 100, "timeout": 500000},
		"lovelace": 2000000,
		"capacity": 6
	}`)
	ctx := newContext(t, planFlags, "-address", "addr_test_owner", "-payment-hash", "0101", "-params", params)
	r, err := planRequest(ctx, staking.OpCreate)
	require.NoError(t, err)
	assert.Equal(t, staking.OpCreate, r.Op)
	assert.Equal(t, "addr_test_owner", r.Party.Address)
	assert.Equal(t, ledger.HexBytes{0x01, 0x01}, r.Party.Hash)
	require.NotNil(t, r.Create)
	assert.Equal(t, "REWARD", string(r.Create.Reward.Name))
	assert.Equal(t, big.NewInt(6), r.Create.Capacity)
	assert.Nil(t, r.Renew)

	ctx = newContext(t, planFlags, "-address", "addr_test_staker", "-payment-hash", "0202", "-leaf", "Apple")
	r, err = planRequest(ctx, staking.OpAssetAdd)
	require.NoError(t, err)
	assert.Equal(t, "Apple", string(r.Name))

	ctx = newContext(t, planFlags, "-payment-hash", "zz")
	_, err = planRequest(ctx, staking.OpClose)
	assert.Error(t, err)

	ctx = newContext(t, planFlags)
	_, err = planRequest(ctx, staking.OpRenew)
	assert.Error(t, err)

	ctx = newContext(t, planFlags, "-params", writeFile(t, "renew.json", `{"duration": 1, "extra": true}`))
	_, err = planRequest(ctx, staking.OpRenew)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	d := &datum.ContractDatum{
		Owner:      []byte{0x01},
		PolicyID:   []byte{0xdd},
		Expiration: big.NewInt(1_000_000),
		Count:      big.NewInt(1),
		First:      []byte("Apple"),
		Lovelace:   big.NewInt(2_000_000),
		Reward:     datum.RewardSpec{Amount: big.NewInt(10), Time: big.NewInt(100), Timeout: big.NewInt(500_000)},
	}
	c := &staking.Contract{Datum: d, Leaves: []*staking.Leaf{{Datum: &datum.LeafDatum{Name: []byte("Apple")}}}}

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, summarize([]*staking.Contract{c})))
	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, c.Hash().String(), out[0]["hash"])
	assert.Equal(t, []any{ledger.HexBytes("Apple").String()}, out[0]["leaves"])
	assert.Equal(t, float64(1), out[0]["count"])
}
