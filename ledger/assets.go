// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"encoding/hex"
	"math/big"
	"sort"
	"strings"
)

// Lovelace is the unit of the native coin.
const Lovelace Unit = "lovelace"

// Unit names an asset: the hex policy id followed by the hex asset name,
// or Lovelace.
type Unit string

// NewUnit builds the unit of the asset named name under policy.
func NewUnit(policy, name []byte) Unit {
	return Unit(hex.EncodeToString(policy) + hex.EncodeToString(name))
}

// Split returns the raw policy id and asset name of a unit. Cardano policy
// ids are 28 bytes long.
func (u Unit) Split() (policy, name []byte, err error) {
	if u == Lovelace {
		return nil, nil, nil
	}
	raw, err := hex.DecodeString(string(u))
	if err != nil {
		return nil, nil, err
	}
	if len(raw) < PolicyIDLength {
		return raw, nil, nil
	}
	return raw[:PolicyIDLength], raw[PolicyIDLength:], nil
}

// PolicyIDLength is the byte length of a minting policy id.
const PolicyIDLength = 28

// Assets maps units to quantities. A missing unit is a zero quantity.
type Assets map[Unit]*big.Int

// Get returns a copy of the quantity of u, zero when absent.
func (a Assets) Get(u Unit) *big.Int {
	if v, ok := a[u]; ok && v != nil {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// Set stores a copy of v under u. A zero quantity removes the unit.
func (a Assets) Set(u Unit, v *big.Int) Assets {
	if v == nil || v.Sign() == 0 {
		delete(a, u)
		return a
	}
	a[u] = new(big.Int).Set(v)
	return a
}

// Add adds v to the quantity of u.
func (a Assets) Add(u Unit, v *big.Int) Assets {
	return a.Set(u, new(big.Int).Add(a.Get(u), v))
}

// Clone returns a deep copy.
func (a Assets) Clone() Assets {
	if a == nil {
		return nil
	}
	c := make(Assets, len(a))
	for u, v := range a {
		c[u] = new(big.Int).Set(v)
	}
	return c
}

// Units returns the units in ascending order, lovelace first.
func (a Assets) Units() []Unit {
	units := make([]Unit, 0, len(a))
	for u := range a {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i] == Lovelace || units[j] == Lovelace {
			return units[i] == Lovelace && units[j] != Lovelace
		}
		return strings.Compare(string(units[i]), string(units[j])) < 0
	})
	return units
}

// Equal reports whether both maps hold the same non-zero quantities.
func (a Assets) Equal(b Assets) bool {
	for u, v := range a {
		if v.Cmp(b.Get(u)) != 0 {
			return false
		}
	}
	for u, v := range b {
		if v.Cmp(a.Get(u)) != 0 {
			return false
		}
	}
	return true
}

// IsNegative reports whether any quantity is below zero.
func (a Assets) IsNegative() bool {
	for _, v := range a {
		if v.Sign() < 0 {
			return true
		}
	}
	return false
}
