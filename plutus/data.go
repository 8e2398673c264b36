// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package plutus implements the Plutus data model and its CBOR encoding,
// the format of inline datums and redeemers.
package plutus

import (
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
)

// Data is a Plutus data value: *Constr, Int, Bytes, List or Map.
type Data interface {
	plutusData()
}

// Constr is a constructor application.
type Constr struct {
	Index  uint64
	Fields []Data
}

// Int is an arbitrary precision integer.
type Int struct {
	V *big.Int
}

// Bytes is a byte string.
type Bytes []byte

// List is a list of data.
type List []Data

// Map is an ordered association list. Encoding preserves the order.
type Map []Pair

// Pair is a Map entry.
type Pair struct {
	Key, Value Data
}

func (*Constr) plutusData() {}
func (Int) plutusData()     {}
func (Bytes) plutusData()   {}
func (List) plutusData()    {}
func (Map) plutusData()     {}

// NewConstr builds a constructor application.
func NewConstr(index uint64, fields ...Data) *Constr {
	if fields == nil {
		fields = []Data{}
	}
	return &Constr{Index: index, Fields: fields}
}

// NewInt wraps a copy of v.
func NewInt(v *big.Int) Int {
	if v == nil {
		return Int{V: new(big.Int)}
	}
	return Int{V: new(big.Int).Set(v)}
}

// Int64 wraps v.
func Int64(v int64) Int {
	return Int{V: big.NewInt(v)}
}

// Nullable encodes an optional byte string: Some x is Constr 0 [x], None is
// Constr 1 [].
func Nullable(b []byte) *Constr {
	if b == nil {
		return NewConstr(1)
	}
	return NewConstr(0, Bytes(b))
}

// ExpectConstr checks that d is a constructor with the given index and arity.
func ExpectConstr(d Data, index uint64, arity int) (*Constr, error) {
	c, ok := d.(*Constr)
	if !ok {
		return nil, errors.Errorf("expected constr %d, got %T", index, d)
	}
	if c.Index != index {
		return nil, errors.Errorf("expected constr %d, got constr %d", index, c.Index)
	}
	if len(c.Fields) != arity {
		return nil, errors.Errorf("constr %d: expected %d fields, got %d", index, arity, len(c.Fields))
	}
	return c, nil
}

// AsInt returns a copy of the integer held by d.
func AsInt(d Data) (*big.Int, error) {
	i, ok := d.(Int)
	if !ok || i.V == nil {
		return nil, errors.Errorf("expected int, got %T", d)
	}
	return new(big.Int).Set(i.V), nil
}

// AsBytes returns a copy of the byte string held by d.
func AsBytes(d Data) ([]byte, error) {
	b, ok := d.(Bytes)
	if !ok {
		return nil, errors.Errorf("expected bytes, got %T", d)
	}
	return append([]byte{}, b...), nil
}

// AsNullable decodes a Nullable byte string; None returns nil.
func AsNullable(d Data) ([]byte, error) {
	c, ok := d.(*Constr)
	if !ok {
		return nil, errors.Errorf("expected nullable, got %T", d)
	}
	switch {
	case c.Index == 1 && len(c.Fields) == 0:
		return nil, nil
	case c.Index == 0 && len(c.Fields) == 1:
		b, err := AsBytes(c.Fields[0])
		if err != nil {
			return nil, err
		}
		if b == nil {
			b = []byte{}
		}
		return b, nil
	}
	return nil, errors.Errorf("invalid nullable constr %d with %d fields", c.Index, len(c.Fields))
}

// MarshalJSON renders the detailed schema used by cardano tooling.
func (c *Constr) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Constructor uint64 `json:"constructor"`
		Fields      []Data `json:"fields"`
	}{c.Index, c.Fields})
}

func (i Int) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Int *big.Int `json:"int"`
	}{i.V})
}

func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Bytes string `json:"bytes"`
	}{hex.EncodeToString(b)})
}

func (l List) MarshalJSON() ([]byte, error) {
	items := []Data(l)
	if items == nil {
		items = []Data{}
	}
	return json.Marshal(struct {
		List []Data `json:"list"`
	}{items})
}

func (m Map) MarshalJSON() ([]byte, error) {
	type kv struct {
		K Data `json:"k"`
		V Data `json:"v"`
	}
	entries := make([]kv, 0, len(m))
	for _, p := range m {
		entries = append(entries, kv{p.Key, p.Value})
	}
	return json.Marshal(struct {
		Map []kv `json:"map"`
	}{entries})
}
