// Copyright (c) 2018 The VeChainThor developers
// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the key-value store the local state is persisted in.
package kv

// Getter defines methods to read kv.
type Getter interface {
	// Get returns the value for key. The error for a missing key can be
	// checked via IsNotFound.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool
}

// Putter defines methods to write kv.
type Putter interface {
	Put(key, val []byte) error
	Delete(key []byte) error
}

// Pair is a key-value pair yielded by Iterate.
type Pair interface {
	Key() []byte
	Value() []byte
}

// Range is the key range.
type Range struct {
	Start []byte // start of key range (included)
	Limit []byte // limit of key range (excluded)
}

// Store defines the full functional kv store.
type Store interface {
	Getter
	Putter

	// Batch collects the writes made by fn and applies them atomically.
	Batch(fn func(Putter) error) error
	// Iterate calls fn for each pair in r, in key order, until fn returns
	// false.
	Iterate(r Range, fn func(Pair) bool) error
}

// StoreCloser is a Store owning its resources.
type StoreCloser interface {
	Store
	Close() error
}
