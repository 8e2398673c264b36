// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package plutus

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

const (
	majorUint  byte = 0
	majorNint  byte = 1
	majorBytes byte = 2
	majorArray byte = 4
	majorMap   byte = 5
	majorTag   byte = 6

	indefArray byte = 0x9f
	indefBytes byte = 0x5f
	breakCode  byte = 0xff

	// byte strings longer than this are split into chunks
	chunkSize = 64

	tagPosBignum uint64 = 2
	tagNegBignum uint64 = 3
	tagConstrAny uint64 = 102
	tagConstr0   uint64 = 121
	tagConstr7   uint64 = 1280
)

var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{BigIntConvert: cbor.BigIntConvertShortest}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Encode serialises d.
func Encode(d Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustEncode is Encode that panics on error.
func MustEncode(d Data) []byte {
	b, err := Encode(d)
	if err != nil {
		panic(err)
	}
	return b
}

func encode(buf *bytes.Buffer, d Data) error {
	switch v := d.(type) {
	case *Constr:
		return encodeConstr(buf, v)
	case Int:
		if v.V == nil {
			return errors.New("nil int")
		}
		b, err := encMode.Marshal(v.V)
		if err != nil {
			return errors.Wrap(err, "int")
		}
		buf.Write(b)
		return nil
	case Bytes:
		return encodeBytes(buf, v)
	case List:
		return encodeList(buf, v)
	case Map:
		writeHead(buf, majorMap, uint64(len(v)))
		for _, p := range v {
			if err := encode(buf, p.Key); err != nil {
				return err
			}
			if err := encode(buf, p.Value); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return errors.New("nil data")
	}
	return errors.Errorf("unsupported data %T", d)
}

// constrTag returns the tag for a constructor index, and whether the index is
// implied by the tag.
func constrTag(index uint64) (uint64, bool) {
	switch {
	case index <= 6:
		return tagConstr0 + index, true
	case index <= 127:
		return tagConstr7 + index - 7, true
	}
	return tagConstrAny, false
}

func encodeConstr(buf *bytes.Buffer, c *Constr) error {
	if c == nil {
		return errors.New("nil constr")
	}
	tag, compact := constrTag(c.Index)

	var content bytes.Buffer
	if !compact {
		writeHead(&content, majorArray, 2)
		writeHead(&content, majorUint, c.Index)
	}
	if err := encodeList(&content, c.Fields); err != nil {
		return errors.Wrapf(err, "constr %d", c.Index)
	}

	b, err := encMode.Marshal(cbor.RawTag{Number: tag, Content: content.Bytes()})
	if err != nil {
		return errors.Wrapf(err, "constr %d", c.Index)
	}
	buf.Write(b)
	return nil
}

// encodeList writes empty lists definite and others indefinite.
func encodeList(buf *bytes.Buffer, items []Data) error {
	if len(items) == 0 {
		writeHead(buf, majorArray, 0)
		return nil
	}
	buf.WriteByte(indefArray)
	for i, item := range items {
		if err := encode(buf, item); err != nil {
			return errors.Wrapf(err, "item %d", i)
		}
	}
	buf.WriteByte(breakCode)
	return nil
}

func encodeBytes(buf *bytes.Buffer, b []byte) error {
	if b == nil {
		// a nil slice would be marshalled as null
		b = []byte{}
	}
	if len(b) <= chunkSize {
		out, err := encMode.Marshal(b)
		if err != nil {
			return errors.Wrap(err, "bytes")
		}
		buf.Write(out)
		return nil
	}
	buf.WriteByte(indefBytes)
	for len(b) > 0 {
		n := min(len(b), chunkSize)
		out, err := encMode.Marshal(b[:n])
		if err != nil {
			return errors.Wrap(err, "bytes")
		}
		buf.Write(out)
		b = b[n:]
	}
	buf.WriteByte(breakCode)
	return nil
}

func writeHead(buf *bytes.Buffer, major byte, n uint64) {
	m := major << 5
	switch {
	case n < 24:
		buf.WriteByte(m | byte(n))
	case n <= math.MaxUint8:
		buf.Write([]byte{m | 24, byte(n)})
	case n <= math.MaxUint16:
		buf.Write(binary.BigEndian.AppendUint16([]byte{m | 25}, uint16(n)))
	case n <= math.MaxUint32:
		buf.Write(binary.BigEndian.AppendUint32([]byte{m | 26}, uint32(n)))
	default:
		buf.Write(binary.BigEndian.AppendUint64([]byte{m | 27}, n))
	}
}
