// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package plutus

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func TestEncode(t *testing.T) {
	twoTo64 := new(big.Int).Lsh(big.NewInt(1), 64)
	long := bytes.Repeat([]byte{0xaa}, 65)

	tests := []struct {
		name string
		data Data
		want string
	}{
		{"unit", NewConstr(0), "d87980"},
		{"none", Nullable(nil), "d87a80"},
		{"some", Nullable([]byte{0x01}), "d8799f4101ff"},
		{"constr0 int", NewConstr(0, Int64(1)), "d8799f01ff"},
		{"constr6", NewConstr(6), "d87f80"},
		{"constr7", NewConstr(7), "d9050080"},
		{"constr127", NewConstr(127), "d9057880"},
		{"constr200", NewConstr(200, Int64(1)), "d8668218c89f01ff"},
		{"empty list", List{}, "80"},
		{"list", List{Int64(1), Int64(2)}, "9f0102ff"},
		{"negative", Int64(-1), "20"},
		{"large", Int64(1_700_000_000_000), "1b0000018bcfe56800"},
		{"bignum", NewInt(twoTo64), "c249010000000000000000"},
		{"neg bignum", NewInt(new(big.Int).Neg(new(big.Int).Add(twoTo64, big.NewInt(1)))), "c349010000000000000000"},
		{"empty bytes", Bytes(nil), "40"},
		{"chunked bytes", Bytes(long), "5f5840" + hex.EncodeToString(long[:64]) + "41aaff"},
		{"map", Map{{Key: Int64(1), Value: Bytes("a")}}, "a1014161"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hex.EncodeToString(got))
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)
	_, err = Encode(Int{})
	assert.Error(t, err)
	_, err = Encode(NewConstr(0, nil))
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	long := bytes.Repeat([]byte("x"), 130)
	d := NewConstr(0,
		Bytes("owner"),
		NewConstr(0, Bytes("policy"), Bytes("Stake Validator")),
		Int64(1_700_000_000_000),
		NewConstr(0, Bytes(long), Int64(-42), NewInt(new(big.Int).Lsh(big.NewInt(1), 100))),
		List{},
		Map{{Key: Bytes("k"), Value: List{Int64(1)}}},
		NewConstr(300),
		Nullable(nil),
	)
	enc, err := Encode(d)
	require.NoError(t, err)

	dec, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, d, dec)

	again, err := Encode(dec)
	require.NoError(t, err)
	assert.Equal(t, enc, again)
}

func TestDecodeDefiniteForms(t *testing.T) {
	// definite list and definite constr fields
	d, err := Decode(mustHex("d8798301024103"))
	require.NoError(t, err)
	c, err := ExpectConstr(d, 0, 3)
	require.NoError(t, err)
	n, err := AsInt(c.Fields[1])
	require.NoError(t, err)
	assert.Equal(t, int64(2), n.Int64())

	enc, err := Encode(d)
	require.NoError(t, err)
	assert.Equal(t, "d8799f01024103ff", hex.EncodeToString(enc))

	// chunked bytes are joined
	d, err = Decode(mustHex("5f4201024103ff"))
	require.NoError(t, err)
	assert.Equal(t, Bytes{1, 2, 3}, d)

	// indefinite map
	d, err = Decode(mustHex("bf0102ff"))
	require.NoError(t, err)
	assert.Equal(t, Map{{Key: Int64(1), Value: Int64(2)}}, d)
}

func TestDecodeErrors(t *testing.T) {
	for _, s := range []string{
		"",             // empty
		"d879",         // truncated
		"d8799f01",     // missing break
		"f6",           // null is not plutus data
		"c16100",       // unknown tag
		"d8798001",     // trailing bytes
		"d86682014100", // general constr with a bad field list
	} {
		_, err := Decode(mustHex(s))
		assert.Error(t, err, s)
	}
}

func TestAccessors(t *testing.T) {
	b, err := AsNullable(Nullable([]byte("Apple")))
	require.NoError(t, err)
	assert.Equal(t, []byte("Apple"), b)

	b, err = AsNullable(Nullable(nil))
	require.NoError(t, err)
	assert.Nil(t, b)

	_, err = AsNullable(NewConstr(2))
	assert.Error(t, err)
	_, err = AsNullable(Int64(0))
	assert.Error(t, err)

	_, err = ExpectConstr(NewConstr(1), 0, 0)
	assert.Error(t, err)
	_, err = ExpectConstr(NewConstr(0, Int64(1)), 0, 2)
	assert.Error(t, err)
	_, err = AsInt(Bytes{})
	assert.Error(t, err)
	_, err = AsBytes(Int64(1))
	assert.Error(t, err)
}

func TestJSON(t *testing.T) {
	d := NewConstr(0, Int64(5), Bytes{0xab}, List{}, Map{{Key: Int64(1), Value: Int64(2)}})
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"constructor":0,"fields":[
		{"int":5},{"bytes":"ab"},{"list":[]},{"map":[{"k":{"int":1},"v":{"int":2}}]}
	]}`, string(out))
}
