// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cache provides a typed LRU cache with hit statistics.
package cache

import lru "github.com/hashicorp/golang-lru"

// LRU is a typed, size bounded cache over golang-lru. It is safe for
// concurrent use.
type LRU[K comparable, V any] struct {
	cache *lru.Cache
	stats Stats
}

// NewLRU creates a cache holding at most maxSize entries. maxSize should be
// > 0, or an error returned.
func NewLRU[K comparable, V any](maxSize int) (*LRU[K, V], error) {
	c, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{cache: c}, nil
}

// Get looks up key and records a hit or a miss.
func (l *LRU[K, V]) Get(key K) (V, bool) {
	if v, ok := l.cache.Get(key); ok {
		l.stats.Hit()
		return v.(V), true
	}
	l.stats.Miss()
	var zero V
	return zero, false
}

func (l *LRU[K, V]) Add(key K, value V) {
	l.cache.Add(key, value)
}

func (l *LRU[K, V]) Len() int {
	return l.cache.Len()
}

func (l *LRU[K, V]) Purge() {
	l.cache.Purge()
}

// Stats returns the hit statistics.
func (l *LRU[K, V]) Stats() *Stats {
	return &l.stats
}

// GetOrLoad first try to get from cache, do load if missed. Failed loads are
// not cached.
func (l *LRU[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	v, err := load(key)
	if err != nil {
		var zero V
		return zero, err
	}
	l.Add(key, v)
	return v, nil
}
