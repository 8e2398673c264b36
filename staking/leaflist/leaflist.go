// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package leaflist maintains the name ordered, singly linked list of stakes.
// The ordered slice is the primary structure; next pointers are a projection
// of it that must always agree.
package leaflist

import (
	"bytes"
	"sort"

	"github.com/leafstake/leafstake/staking/reverts"
)

// Node is a list element: a unique name and the name of its successor, nil
// at the tail.
type Node interface {
	NodeName() []byte
	NodeNext() []byte
}

// Sort orders nodes by name, in place.
func Sort[N Node](nodes []N) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return bytes.Compare(nodes[i].NodeName(), nodes[j].NodeName()) < 0
	})
}

// Get returns the node called name.
func Get[N Node](nodes []N, name []byte) (N, error) {
	for _, n := range nodes {
		if bytes.Equal(n.NodeName(), name) {
			return n, nil
		}
	}
	var zero N
	return zero, reverts.ErrNotFound
}

// Predecessor returns the node whose next pointer has to change when name is
// inserted or removed. ok is false when name belongs at the head.
func Predecessor[N Node](nodes []N, name []byte) (prev N, ok bool, err error) {
	Sort(nodes)
	if len(nodes) == 0 {
		return prev, false, nil
	}

	for _, n := range nodes {
		next := n.NodeNext()
		// the node already points at name
		if next != nil && bytes.Equal(next, name) {
			return n, true, nil
		}
		// name sorts at or before this node, so before the head
		if bytes.Compare(name, n.NodeName()) <= 0 {
			return prev, false, nil
		}
		// regular placement between this node and its successor
		if next == nil || bytes.Compare(name, next) < 0 {
			return n, true, nil
		}
	}
	return prev, false, reverts.ErrInconsistentDatabase
}

// Walk follows the chain from first and returns the nodes in chain order.
func Walk[N Node](first []byte, nodes []N) ([]N, error) {
	byName := make(map[string]N, len(nodes))
	for _, n := range nodes {
		byName[string(n.NodeName())] = n
	}

	chain := make([]N, 0, len(nodes))
	for cur := first; cur != nil; {
		n, found := byName[string(cur)]
		if !found || len(chain) == len(nodes) {
			// dangling pointer or a cycle
			return nil, reverts.ErrInconsistentDatabase
		}
		chain = append(chain, n)
		cur = n.NodeNext()
	}
	return chain, nil
}

// Verify checks that the chain from first visits exactly count nodes, in
// strictly increasing name order, and that it covers every node.
func Verify[N Node](first []byte, count int, nodes []N) error {
	if (first == nil) != (count == 0) || len(nodes) != count {
		return reverts.ErrInconsistentDatabase
	}
	chain, err := Walk(first, nodes)
	if err != nil {
		return err
	}
	if len(chain) != count {
		return reverts.ErrInconsistentDatabase
	}
	for i := 1; i < len(chain); i++ {
		if bytes.Compare(chain[i-1].NodeName(), chain[i].NodeName()) >= 0 {
			return reverts.ErrInconsistentDatabase
		}
	}
	return nil
}
