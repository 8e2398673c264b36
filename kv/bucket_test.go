// Copyright (c) 2021 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mem map[string]string

func (m mem) Get(k []byte) ([]byte, error) {
	if v, ok := m[string(k)]; ok {
		return []byte(v), nil
	}
	return nil, errors.New("not found")
}

func (m mem) Has(k []byte) (bool, error) {
	_, ok := m[string(k)]
	return ok, nil
}

func (m mem) Put(k, v []byte) error {
	m[string(k)] = string(v)
	return nil
}

func (m mem) Delete(k []byte) error {
	delete(m, string(k))
	return nil
}

func (m mem) IsNotFound(err error) bool {
	return true
}

func TestBucket_GetterGet(t *testing.T) {
	m := mem{"k1": "v1", "k2": "v2"}

	tests := []struct {
		b    Bucket
		key  string
		want string
	}{
		{Bucket(""), "k1", "v1"},
		{Bucket(""), "k2", "v2"},
		{Bucket("k"), "k1", ""},
		{Bucket("k"), "1", "v1"},
		{Bucket("k"), "2", "v2"},
		{Bucket("k1"), "", "v1"},
	}
	for _, tt := range tests {
		got, _ := tt.b.NewGetter(m).Get([]byte(tt.key))
		assert.Equal(t, tt.want, string(got), "%q/%q", tt.b, tt.key)
	}
}

func TestBucket_GetterHas(t *testing.T) {
	m := mem{"k1": "v1", "k2": "v2"}

	tests := []struct {
		b    Bucket
		key  string
		want bool
	}{
		{Bucket(""), "k1", true},
		{Bucket("k"), "k1", false},
		{Bucket("k"), "1", true},
		{Bucket("k1"), "", true},
	}
	for _, tt := range tests {
		got, _ := tt.b.NewGetter(m).Has([]byte(tt.key))
		assert.Equal(t, tt.want, got, "%q/%q", tt.b, tt.key)
	}
}

func TestBucket_Putter(t *testing.T) {
	m := mem{}
	p := Bucket("c/").NewPutter(m)
	require.NoError(t, p.Put([]byte("a"), []byte("1")))
	assert.Equal(t, mem{"c/a": "1"}, m)
	require.NoError(t, p.Delete([]byte("a")))
	assert.Empty(t, m)
}

func TestLevelDB(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("missing"))
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, db.Put([]byte("x"), []byte("0")))
	store := Bucket("b/").NewStore(db)
	require.NoError(t, store.Batch(func(p Putter) error {
		for _, k := range []string{"c", "a", "b"} {
			if err := p.Put([]byte(k), []byte("v"+k)); err != nil {
				return err
			}
		}
		return nil
	}))

	has, err := db.Has([]byte("b/a"))
	require.NoError(t, err)
	assert.True(t, has)

	var keys []string
	require.NoError(t, store.Iterate(Range{}, func(p Pair) bool {
		keys = append(keys, string(p.Key())+"="+string(p.Value()))
		return true
	}))
	assert.Equal(t, []string{"a=va", "b=vb", "c=vc"}, keys)

	keys = nil
	require.NoError(t, store.Iterate(Range{Start: []byte("b")}, func(p Pair) bool {
		keys = append(keys, string(p.Key()))
		return false
	}))
	assert.Equal(t, []string{"b"}, keys)

	// a failing batch writes nothing
	boom := errors.New("boom")
	err = store.Batch(func(p Putter) error {
		_ = p.Put([]byte("d"), nil)
		return boom
	})
	assert.Equal(t, boom, err)
	has, _ = store.Has([]byte("d"))
	assert.False(t, has)

	v, err := db.Get([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "0", string(v))
}
