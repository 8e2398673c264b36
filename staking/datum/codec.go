// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datum

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/leafstake/leafstake/plutus"
)

func integer(v *big.Int) plutus.Data {
	return plutus.NewInt(v)
}

// Data returns the Plutus form of the contract record.
func (c *ContractDatum) Data() plutus.Data {
	return plutus.NewConstr(0,
		plutus.Bytes(c.Owner),
		plutus.NewConstr(0,
			plutus.Bytes(c.Validate.PolicyID),
			plutus.Bytes(c.Validate.Name),
		),
		plutus.Bytes(c.PolicyID),
		integer(c.Expiration),
		plutus.NewConstr(0,
			plutus.Bytes(c.Reward.PolicyID),
			plutus.Bytes(c.Reward.Name),
			integer(c.Reward.Amount),
			integer(c.Reward.Time),
			integer(c.Reward.Timeout),
		),
		integer(c.Lovelace),
		integer(c.Count),
		plutus.Nullable(c.First),
	)
}

// Encode returns the inline datum bytes.
func (c *ContractDatum) Encode() ([]byte, error) {
	return plutus.Encode(c.Data())
}

// Data returns the Plutus form of the leaf record.
func (l *LeafDatum) Data() plutus.Data {
	return plutus.NewConstr(0,
		plutus.Bytes(l.Name),
		plutus.Bytes(l.Hash),
		plutus.Bytes(l.Staker),
		integer(l.Start),
		integer(l.Expiration),
		integer(l.Time),
		integer(l.Amount),
		plutus.Nullable(l.Next),
	)
}

// Encode returns the inline datum bytes.
func (l *LeafDatum) Encode() ([]byte, error) {
	return plutus.Encode(l.Data())
}

// fields reads typed values out of a constructor, keeping the first error.
type fields struct {
	c   *plutus.Constr
	i   int
	err error
}

func (f *fields) next() plutus.Data {
	d := f.c.Fields[f.i]
	f.i++
	return d
}

func (f *fields) bytes() []byte {
	if f.err != nil {
		return nil
	}
	i := f.i
	b, err := plutus.AsBytes(f.next())
	if err != nil {
		f.err = errors.Wrapf(err, "field %d", i)
	}
	return b
}

func (f *fields) int() *big.Int {
	if f.err != nil {
		return nil
	}
	i := f.i
	v, err := plutus.AsInt(f.next())
	if err != nil {
		f.err = errors.Wrapf(err, "field %d", i)
	}
	return v
}

func (f *fields) nullable() []byte {
	if f.err != nil {
		return nil
	}
	i := f.i
	b, err := plutus.AsNullable(f.next())
	if err != nil {
		f.err = errors.Wrapf(err, "field %d", i)
	}
	return b
}

func (f *fields) constr(arity int) *fields {
	if f.err != nil {
		return &fields{err: f.err}
	}
	i := f.i
	c, err := plutus.ExpectConstr(f.next(), 0, arity)
	if err != nil {
		f.err = errors.Wrapf(err, "field %d", i)
		return &fields{err: f.err}
	}
	return &fields{c: c}
}

func open(b []byte, arity int) (*fields, error) {
	d, err := plutus.Decode(b)
	if err != nil {
		return nil, err
	}
	c, err := plutus.ExpectConstr(d, 0, arity)
	if err != nil {
		return nil, err
	}
	return &fields{c: c}, nil
}

// DecodeContract parses contract record datum bytes.
func DecodeContract(b []byte) (*ContractDatum, error) {
	f, err := open(b, 8)
	if err != nil {
		return nil, errors.Wrap(err, "contract datum")
	}
	c := &ContractDatum{}
	c.Owner = f.bytes()
	v := f.constr(2)
	c.Validate.PolicyID = v.bytes()
	c.Validate.Name = v.bytes()
	c.PolicyID = f.bytes()
	c.Expiration = f.int()
	r := f.constr(5)
	c.Reward.PolicyID = r.bytes()
	c.Reward.Name = r.bytes()
	c.Reward.Amount = r.int()
	c.Reward.Time = r.int()
	c.Reward.Timeout = r.int()
	c.Lovelace = f.int()
	c.Count = f.int()
	c.First = f.nullable()

	for _, e := range []error{f.err, v.err, r.err} {
		if e != nil {
			return nil, errors.Wrap(e, "contract datum")
		}
	}
	return c, nil
}

// DecodeLeaf parses leaf record datum bytes.
func DecodeLeaf(b []byte) (*LeafDatum, error) {
	f, err := open(b, 8)
	if err != nil {
		return nil, errors.Wrap(err, "leaf datum")
	}
	l := &LeafDatum{
		Name:       f.bytes(),
		Hash:       f.bytes(),
		Staker:     f.bytes(),
		Start:      f.int(),
		Expiration: f.int(),
		Time:       f.int(),
		Amount:     f.int(),
		Next:       f.nullable(),
	}
	if f.err != nil {
		return nil, errors.Wrap(f.err, "leaf datum")
	}
	return l, nil
}
