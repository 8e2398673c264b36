// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package plutus

import (
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

var decMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		MaxNestedLevels: 64,
		IndefLength:     cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// Decode parses a single data item. Definite and indefinite encodings are
// both accepted.
func Decode(data []byte) (Data, error) {
	if err := decMode.Wellformed(data); err != nil {
		return nil, errors.Wrap(err, "malformed cbor")
	}
	return decode(data)
}

func decode(raw cbor.RawMessage) (Data, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty data item")
	}
	switch raw[0] >> 5 {
	case majorUint, majorNint:
		return decodeInt(raw)
	case majorBytes:
		var b []byte
		if err := decMode.Unmarshal(raw, &b); err != nil {
			return nil, errors.Wrap(err, "bytes")
		}
		if b == nil {
			b = []byte{}
		}
		return Bytes(b), nil
	case majorArray:
		items, err := decodeArray(raw)
		if err != nil {
			return nil, err
		}
		return List(items), nil
	case majorMap:
		return decodeMap(raw)
	case majorTag:
		return decodeTag(raw)
	}
	return nil, errors.Errorf("unexpected cbor major type %d", raw[0]>>5)
}

func decodeInt(raw cbor.RawMessage) (Data, error) {
	v := new(big.Int)
	if err := decMode.Unmarshal(raw, v); err != nil {
		return nil, errors.Wrap(err, "int")
	}
	return Int{V: v}, nil
}

func decodeArray(raw cbor.RawMessage) ([]Data, error) {
	if len(raw) == 0 || raw[0]>>5 != majorArray {
		return nil, errors.New("expected array")
	}
	var items []cbor.RawMessage
	if err := decMode.Unmarshal(raw, &items); err != nil {
		return nil, errors.Wrap(err, "array")
	}
	out := make([]Data, 0, len(items))
	for i, item := range items {
		d, err := decode(item)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		out = append(out, d)
	}
	return out, nil
}

func decodeMap(raw cbor.RawMessage) (Data, error) {
	info := raw[0] & 0x1f
	rest := raw[1:]
	indefinite := info == 31

	var n uint64
	if !indefinite {
		var err error
		if n, rest, err = readArgument(info, rest); err != nil {
			return nil, err
		}
	}

	m := Map{}
	for i := uint64(0); indefinite || i < n; i++ {
		if indefinite && len(rest) > 0 && rest[0] == breakCode {
			break
		}
		var k, v cbor.RawMessage
		var err error
		if rest, err = decMode.UnmarshalFirst(rest, &k); err != nil {
			return nil, errors.Wrap(err, "map key")
		}
		if rest, err = decMode.UnmarshalFirst(rest, &v); err != nil {
			return nil, errors.Wrap(err, "map value")
		}
		key, err := decode(k)
		if err != nil {
			return nil, errors.Wrapf(err, "map key %d", i)
		}
		value, err := decode(v)
		if err != nil {
			return nil, errors.Wrapf(err, "map value %d", i)
		}
		m = append(m, Pair{Key: key, Value: value})
	}
	return m, nil
}

func readArgument(info byte, rest []byte) (uint64, []byte, error) {
	width := 0
	switch {
	case info < 24:
		return uint64(info), rest, nil
	case info == 24:
		width = 1
	case info == 25:
		width = 2
	case info == 26:
		width = 4
	case info == 27:
		width = 8
	default:
		return 0, nil, errors.Errorf("invalid additional info %d", info)
	}
	if len(rest) < width {
		return 0, nil, errors.New("truncated head")
	}
	var n uint64
	for _, b := range rest[:width] {
		n = n<<8 | uint64(b)
	}
	return n, rest[width:], nil
}

func decodeTag(raw cbor.RawMessage) (Data, error) {
	var tag cbor.RawTag
	if err := decMode.Unmarshal(raw, &tag); err != nil {
		return nil, errors.Wrap(err, "tag")
	}

	switch n := tag.Number; {
	case n == tagPosBignum || n == tagNegBignum:
		return decodeInt(raw)
	case n >= tagConstr0 && n <= tagConstr0+6:
		fields, err := decodeArray(tag.Content)
		if err != nil {
			return nil, errors.Wrapf(err, "constr %d", n-tagConstr0)
		}
		return &Constr{Index: n - tagConstr0, Fields: fields}, nil
	case n >= tagConstr7 && n <= tagConstr7+120:
		fields, err := decodeArray(tag.Content)
		if err != nil {
			return nil, errors.Wrapf(err, "constr %d", n-tagConstr7+7)
		}
		return &Constr{Index: n - tagConstr7 + 7, Fields: fields}, nil
	case n == tagConstrAny:
		var pair []cbor.RawMessage
		if err := decMode.Unmarshal(tag.Content, &pair); err != nil || len(pair) != 2 {
			return nil, errors.New("general constr: expected [index, fields]")
		}
		var index uint64
		if err := decMode.Unmarshal(pair[0], &index); err != nil {
			return nil, errors.Wrap(err, "general constr index")
		}
		fields, err := decodeArray(pair[1])
		if err != nil {
			return nil, errors.Wrapf(err, "constr %d", index)
		}
		return &Constr{Index: index, Fields: fields}, nil
	}
	return nil, errors.Errorf("unexpected tag %d", tag.Number)
}
