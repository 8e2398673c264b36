// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contracts

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafstake/leafstake/clock"
	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/staking"
	"github.com/leafstake/leafstake/staking/datum"
)

type scripts struct{}

func (scripts) Validator() *staking.Script {
	return &staking.Script{Title: staking.ValidatorTitle, Type: "PlutusV2", Hash: bytes.Repeat([]byte{0xaa}, 28)}
}
func (scripts) Address() string { return "addr_test_script" }
func (scripts) ValidatePolicy() *staking.Script {
	return &staking.Script{Title: staking.ValidatePolicyTitle, Type: "PlutusV2", Hash: bytes.Repeat([]byte{0xcc}, 28)}
}

// utxoSet is a ledger that applies planned templates directly.
type utxoSet map[ledger.OutRef]*ledger.UTxO

func (s utxoSet) UTxOsByRef(_ context.Context, refs []ledger.OutRef) ([]*ledger.UTxO, error) {
	var out []*ledger.UTxO
	for _, ref := range refs {
		if u, ok := s[ref]; ok {
			out = append(out, &ledger.UTxO{Ref: u.Ref, Address: u.Address, Assets: u.Assets.Clone(), Datum: u.Datum})
		}
	}
	return out, nil
}

func (s utxoSet) UTxOsAt(_ context.Context, address string) ([]*ledger.UTxO, error) {
	var out []*ledger.UTxO
	for _, u := range s {
		if u.Address == address {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s utxoSet) apply(tr *staking.Transition, seed string) *staking.Contract {
	tx := ledger.Blake2b([]byte(seed))
	for _, in := range tr.Template.Inputs {
		delete(s, in.Ref)
	}
	for i, o := range tr.Template.Outputs {
		ref := ledger.OutRef{TxID: tx, Index: uint32(i)}
		s[ref] = &ledger.UTxO{Ref: ref, Address: o.Address, Assets: o.Assets.Clone(), Datum: o.Datum}
	}
	return tr.Commit(tx)
}

var (
	owner  = staking.Party{Address: "addr_test_owner", Hash: bytes.Repeat([]byte{0x01}, 28)}
	staker = staking.Party{Address: "addr_test_staker", Hash: bytes.Repeat([]byte{0x02}, 28)}
	apple  = hex.EncodeToString([]byte("Apple"))
)

func createParams() *staking.CreateParams {
	return &staking.CreateParams{
		PolicyID: bytes.Repeat([]byte{0xdd}, 28),
		Duration: big.NewInt(1_000_000),
		Reward: datum.RewardSpec{
			PolicyID: bytes.Repeat([]byte{0xbb}, 28),
			Name:     []byte("REWARD"),
			Amount:   big.NewInt(10),
			Time:     big.NewInt(100),
			Timeout:  big.NewInt(500_000),
		},
		Lovelace: big.NewInt(2_000_000),
		Capacity: big.NewInt(6),
	}
}

type fixture struct {
	ts        *httptest.Server
	clock     *clock.Fixed
	ledger    utxoSet
	engine    *staking.Engine
	contracts []*staking.Contract
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{clock: clock.FixedMillis(1_700_000_000_000), ledger: utxoSet{}}
	f.engine = staking.NewEngine(f.ledger, scripts{}, f.clock, staking.DefaultSkew)

	tr, err := f.engine.PlanCreate(context.Background(), owner, createParams())
	require.NoError(t, err)
	f.contracts = []*staking.Contract{f.ledger.apply(tr, "create")}

	source := func(context.Context) ([]*staking.Contract, error) { return f.contracts, nil }
	router := mux.NewRouter()
	New(source, f.engine, f.clock).Mount(router, "/contracts")
	f.ts = httptest.NewServer(router)
	t.Cleanup(f.ts.Close)
	return f
}

func (f *fixture) hash() string { return f.contracts[0].Hash().String() }

func (f *fixture) get(t *testing.T, path string) ([]byte, int) {
	res, err := http.Get(f.ts.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func (f *fixture) post(t *testing.T, path string, obj any) ([]byte, int) {
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	res, err := http.Post(f.ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func decodePlan(t *testing.T, body []byte) *Plan {
	var p Plan
	require.NoError(t, json.Unmarshal(body, &p))
	return &p
}

func TestList(t *testing.T) {
	f := newFixture(t)

	body, code := f.get(t, "/contracts")
	require.Equal(t, http.StatusOK, code, string(body))
	var list []*Contract
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, f.contracts[0].Hash(), list[0].Hash)
	assert.Equal(t, f.contracts[0].Ref, list[0].Ref)

	body, code = f.get(t, "/contracts?owner="+owner.Hash.String())
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	body, code = f.get(t, "/contracts?owner="+staker.Hash.String())
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(body))

	_, code = f.get(t, "/contracts?policyId=zz")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGet(t *testing.T) {
	f := newFixture(t)

	body, code := f.get(t, "/contracts/"+f.hash())
	require.Equal(t, http.StatusOK, code, string(body))
	var c Contract
	require.NoError(t, json.Unmarshal(body, &c))
	assert.Equal(t, f.contracts[0].Hash(), c.Hash)
	assert.Equal(t, 0, c.Datum.Count.Cmp(big.NewInt(0)))

	_, code = f.get(t, "/contracts/"+ledger.Blake2b([]byte("other")).String())
	assert.Equal(t, http.StatusNotFound, code)

	_, code = f.get(t, "/contracts/0x1234")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPlanCreate(t *testing.T) {
	f := newFixture(t)

	body, code := f.post(t, "/contracts/plan/create", &staking.Request{Party: owner, Create: createParams()})
	require.Equal(t, http.StatusOK, code, string(body))
	p := decodePlan(t, body)
	assert.Equal(t, staking.OpCreate, p.Template.Op)
	require.NotNil(t, p.Next)
	assert.Equal(t, owner.Hash, p.Next.Datum.Owner)

	params := createParams()
	params.Capacity = big.NewInt(0)
	_, code = f.post(t, "/contracts/plan/create", &staking.Request{Party: owner, Create: params})
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = f.post(t, "/contracts/plan/create", &staking.Request{Create: createParams()})
	assert.Equal(t, http.StatusForbidden, code)

	_, code = f.post(t, "/contracts/plan/create", map[string]string{"owner": "me"})
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = f.post(t, "/contracts/plan/create", &staking.Request{Op: staking.OpClose, Party: owner, Create: createParams()})
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = f.post(t, "/contracts/plan/create", &staking.Request{Party: owner})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPlanLeafAndReward(t *testing.T) {
	f := newFixture(t)
	name, err := hex.DecodeString(apple)
	require.NoError(t, err)

	body, code := f.post(t, "/contracts/"+f.hash()+"/plan/assetAdd", &staking.Request{Party: staker, Name: name})
	require.Equal(t, http.StatusOK, code, string(body))
	p := decodePlan(t, body)
	assert.Equal(t, staking.OpAssetAdd, p.Template.Op)
	require.NotNil(t, p.Next)
	require.Len(t, p.Next.Leaves, 1)
	assert.Equal(t, "Apple", string(p.Next.Leaves[0].Datum.Name))

	// the endpoint only plans; apply the same transition to move on
	tr, err := f.engine.PlanAssetAdd(context.Background(), f.contracts[0], staker, name)
	require.NoError(t, err)
	f.contracts = []*staking.Contract{f.ledger.apply(tr, "add")}

	_, code = f.post(t, "/contracts/"+f.hash()+"/plan/assetAdd", &staking.Request{Party: staker, Name: name})
	assert.Equal(t, http.StatusConflict, code)

	body, code = f.get(t, "/contracts/"+f.hash()+"/leaves/"+apple)
	require.Equal(t, http.StatusOK, code, string(body))
	var leaf staking.Leaf
	require.NoError(t, json.Unmarshal(body, &leaf))
	assert.Equal(t, staker.Hash, leaf.Datum.Staker)

	f.clock.Advance(50 * time.Second)
	body, code = f.get(t, "/contracts/"+f.hash()+"/leaves/"+apple+"/reward")
	require.Equal(t, http.StatusOK, code, string(body))
	var r Reward
	require.NoError(t, json.Unmarshal(body, &r))
	assert.Equal(t, "5000", r.Reward.String())
	assert.Equal(t, clock.Millis(f.clock).String(), r.Now.String())

	_, code = f.get(t, "/contracts/"+f.hash()+"/leaves/"+hex.EncodeToString([]byte("Banana"))+"/reward")
	assert.Equal(t, http.StatusNotFound, code)

	body, code = f.post(t, "/contracts/"+f.hash()+"/plan/assetPayout", &staking.Request{Party: staker, Name: name})
	require.Equal(t, http.StatusOK, code, string(body))
	p = decodePlan(t, body)
	assert.Empty(t, p.Next.Leaves)

	_, code = f.post(t, "/contracts/"+f.hash()+"/plan/assetClose", &staking.Request{Party: staker, Name: name})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestPlanContract(t *testing.T) {
	f := newFixture(t)

	body, code := f.post(t, "/contracts/"+f.hash()+"/plan/close", &staking.Request{Party: owner})
	require.Equal(t, http.StatusOK, code, string(body))
	p := decodePlan(t, body)
	assert.Equal(t, staking.OpClose, p.Template.Op)
	assert.Nil(t, p.Next)
	assert.Empty(t, p.Template.Outputs)

	_, code = f.post(t, "/contracts/"+f.hash()+"/plan/close", &staking.Request{Party: staker})
	assert.Equal(t, http.StatusForbidden, code)

	_, code = f.post(t, "/contracts/"+f.hash()+"/plan/renew", &staking.Request{Party: owner})
	assert.Equal(t, http.StatusBadRequest, code)

	body, code = f.post(t, "/contracts/"+f.hash()+"/plan/explode", &staking.Request{Party: owner})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.True(t, strings.Contains(string(body), "explode"))

	_, code = f.post(t, "/contracts/"+f.hash()+"/plan/assetAdd", &staking.Request{Party: staker})
	assert.Equal(t, http.StatusBadRequest, code)

	// spent behind our back
	for ref := range f.ledger {
		delete(f.ledger, ref)
	}
	_, code = f.post(t, "/contracts/"+f.hash()+"/plan/close", &staking.Request{Party: owner})
	assert.Equal(t, http.StatusConflict, code)
}
