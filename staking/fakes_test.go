// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/leafstake/leafstake/clock"
	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/staking/datum"
)

// memLedger applies templates to an in-memory utxo set.
type memLedger struct {
	mu        sync.Mutex
	utxos     map[ledger.OutRef]*ledger.UTxO
	confirmed map[ledger.TxID]*Template
	last      *Template
	seq       int
}

func newMemLedger() *memLedger {
	return &memLedger{
		utxos:     make(map[ledger.OutRef]*ledger.UTxO),
		confirmed: make(map[ledger.TxID]*Template),
	}
}

func (m *memLedger) UTxOsByRef(_ context.Context, refs []ledger.OutRef) ([]*ledger.UTxO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ledger.UTxO
	for _, ref := range refs {
		if u, ok := m.utxos[ref]; ok {
			out = append(out, copyUTxO(u))
		}
	}
	return out, nil
}

func (m *memLedger) UTxOsAt(_ context.Context, address string) ([]*ledger.UTxO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ledger.UTxO
	for _, u := range m.utxos {
		if u.Address == address {
			out = append(out, copyUTxO(u))
		}
	}
	return out, nil
}

func (m *memLedger) Submit(_ context.Context, signed []byte) (ledger.TxID, error) {
	var tmpl Template
	if err := json.Unmarshal(signed, &tmpl); err != nil {
		return ledger.TxID{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range tmpl.Inputs {
		if _, ok := m.utxos[in.Ref]; !ok {
			return ledger.TxID{}, errors.Errorf("input %v already spent", in.Ref)
		}
	}
	m.seq++
	id := ledger.Blake2b(signed, big.NewInt(int64(m.seq)).Bytes())
	for _, in := range tmpl.Inputs {
		delete(m.utxos, in.Ref)
	}
	for i, out := range tmpl.Outputs {
		ref := ledger.OutRef{TxID: id, Index: uint32(i)}
		m.utxos[ref] = &ledger.UTxO{Ref: ref, Address: out.Address, Assets: out.Assets, Datum: out.Datum}
	}
	m.confirmed[id] = &tmpl
	m.last = &tmpl
	return id, nil
}

func (m *memLedger) AwaitConfirmation(_ context.Context, id ledger.TxID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.confirmed[id]; !ok {
		return errors.Errorf("unknown tx %v", id)
	}
	return nil
}

func (m *memLedger) get(ref ledger.OutRef) *ledger.UTxO {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.utxos[ref]
}

func copyUTxO(u *ledger.UTxO) *ledger.UTxO {
	return &ledger.UTxO{
		Ref:     u.Ref,
		Address: u.Address,
		Assets:  u.Assets.Clone(),
		Datum:   append(ledger.HexBytes(nil), u.Datum...),
	}
}

// jsonWallet signs by serialising the template.
type jsonWallet struct {
	address string
	hash    []byte
	err     error
}

func (w *jsonWallet) Address(context.Context) (string, error) { return w.address, w.err }
func (w *jsonWallet) PaymentHash(context.Context) ([]byte, error) {
	return w.hash, w.err
}

func (w *jsonWallet) Sign(_ context.Context, tmpl *Template) ([]byte, error) {
	if !hasSigner(tmpl, w.hash) && tmpl.Op != OpCreate {
		return nil, errors.New("wallet is not a required signer")
	}
	return json.Marshal(tmpl)
}

func hasSigner(tmpl *Template, hash []byte) bool {
	for _, s := range tmpl.Signers {
		if bytes.Equal(s, hash) {
			return true
		}
	}
	return false
}

func fill(b byte, n int) []byte {
	return bytes.Repeat([]byte{b}, n)
}

var (
	testValidator = &Script{Title: ValidatorTitle, Type: "PlutusV2", Code: []byte{0x01}, Hash: fill(0xaa, ScriptHashLength)}
	testPolicy    = &Script{Title: ValidatePolicyTitle, Type: "PlutusV2", Code: []byte{0x02}, Hash: fill(0xcc, ScriptHashLength)}
	testScripts   = &ScriptSet{validator: testValidator, policy: testPolicy, address: "addr_test_script"}

	stakePolicy  = ledger.HexBytes(fill(0xdd, ledger.PolicyIDLength))
	rewardPolicy = ledger.HexBytes(fill(0xbb, ledger.PolicyIDLength))
	rewardName   = ledger.HexBytes("REWARD")
)

func newOwner() *jsonWallet  { return &jsonWallet{address: "addr_test_owner", hash: fill(0x01, 28)} }
func newStaker() *jsonWallet { return &jsonWallet{address: "addr_test_staker", hash: fill(0x02, 28)} }

func party(w *jsonWallet) Party {
	return Party{Address: w.address, Hash: w.hash}
}

type fixture struct {
	ledger *memLedger
	clock  *clock.Fixed
	engine *Engine
	owner  *jsonWallet
	staker *jsonWallet
}

const startMillis = 1_700_000_000_000

func newFixture() *fixture {
	f := &fixture{
		ledger: newMemLedger(),
		clock:  clock.FixedMillis(startMillis),
		owner:  newOwner(),
		staker: newStaker(),
	}
	f.engine = NewEngine(f.ledger, testScripts, f.clock, DefaultSkew)
	return f
}

func createParams(capacity int64) *CreateParams {
	return &CreateParams{
		PolicyID: stakePolicy,
		Duration: big.NewInt(1_000_000),
		Reward: datum.RewardSpec{
			PolicyID: rewardPolicy,
			Name:     rewardName,
			Amount:   big.NewInt(10),
			Time:     big.NewInt(100),
			Timeout:  big.NewInt(500_000),
		},
		Lovelace: big.NewInt(2_000_000),
		Capacity: big.NewInt(capacity),
	}
}

func (f *fixture) create(t *testing.T, capacity int64) *Contract {
	c, err := f.engine.Create(context.Background(), f.owner, f.ledger, createParams(capacity))
	require.NoError(t, err)
	return c
}

func (f *fixture) add(t *testing.T, c *Contract, names ...string) *Contract {
	var err error
	for _, name := range names {
		c, err = f.engine.AssetAdd(context.Background(), c, f.staker, f.ledger, []byte(name))
		require.NoError(t, err, name)
	}
	return c
}

func (f *fixture) contractUTxO(t *testing.T, c *Contract) *ledger.UTxO {
	u := f.ledger.get(c.Ref)
	require.NotNil(t, u, "contract output %v", c.Ref)
	return u
}

func leafNames(c *Contract) []string {
	var names []string
	for _, l := range c.Leaves {
		names = append(names, string(l.Datum.Name))
	}
	return names
}
