// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reward holds the integer reward arithmetic shared with the
// validator. All divisions floor, and every function takes the instant it is
// evaluated at instead of reading a clock.
package reward

import (
	"math/big"

	"github.com/leafstake/leafstake/staking/datum"
)

func minInt(a *big.Int, rest ...*big.Int) *big.Int {
	m := a
	for _, v := range rest {
		if v.Cmp(m) < 0 {
			m = v
		}
	}
	return new(big.Int).Set(m)
}

func mulDiv(div *big.Int, factors ...*big.Int) *big.Int {
	if div.Sign() <= 0 {
		return new(big.Int)
	}
	p := big.NewInt(1)
	for _, f := range factors {
		p.Mul(p, f)
	}
	return p.Div(p, div)
}

// Reward returns the reward accrued by leaf at now, accrual stopping at the
// earliest of the contract expiration, the leaf expiration and now. It is
// never negative.
func Reward(contractExpiration *big.Int, leaf *datum.LeafDatum, now *big.Int) *big.Int {
	end := minInt(contractExpiration, leaf.Expiration, now)
	duration := end.Sub(end, leaf.Start)
	if duration.Sign() <= 0 {
		return new(big.Int)
	}
	return mulDiv(leaf.Time, duration, leaf.Amount)
}

// RunningReward sizes the reward reserve of a renewal: the obligation of the
// live leaves under the current rate plus a full horizon for maxLeaves leaves
// under the new one.
func RunningReward(c *datum.ContractDatum, timeout, amount, time, maxLeaves *big.Int) *big.Int {
	committed := mulDiv(c.Reward.Time, c.Reward.Timeout, c.Reward.Amount, c.Count)
	return committed.Add(committed, mulDiv(time, timeout, amount, maxLeaves))
}

// Expiration returns the horizon of a leaf started at now. A leaf never
// outlives its contract.
func Expiration(c *datum.ContractDatum, now *big.Int) *big.Int {
	return minInt(c.Expiration, new(big.Int).Add(now, c.Reward.Timeout))
}

// InitialReserve sizes the reward reserve of a new contract holding up to
// maxLeaves leaves.
func InitialReserve(timeout, amount, time, maxLeaves *big.Int) *big.Int {
	return mulDiv(time, timeout, maxLeaves, amount)
}
