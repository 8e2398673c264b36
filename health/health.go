// Copyright (c) 2024 The VeChainThor developers
// Copyright (c) 2025 The Leafstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package health tracks whether the contract snapshot keeps up with the ledger.
package health

import (
	"sync"
	"time"

	"github.com/leafstake/leafstake/clock"
)

const delayBuffer = 5 * time.Second

type SyncIngestion struct {
	Contracts int        `json:"contracts"`
	Timestamp *time.Time `json:"timestamp"`
}

type Status struct {
	Healthy   bool           `json:"healthy"`
	LastSync  *SyncIngestion `json:"lastSync"`
	LastError string         `json:"lastError,omitempty"`
}

type Health struct {
	lock      sync.RWMutex
	clock     clock.Clock
	interval  time.Duration
	synced    time.Time
	contracts int
	lastErr   error
}

// New returns a tracker expecting a successful sync every interval.
func New(clk clock.Clock, interval time.Duration) *Health {
	if clk == nil {
		clk = clock.System{}
	}
	return &Health{clock: clk, interval: interval}
}

// Synced records a successful sync that produced contracts.
func (h *Health) Synced(contracts int) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.synced = h.clock.Now()
	h.contracts = contracts
	h.lastErr = nil
}

// Failed records a failed sync. The last good sync is kept.
func (h *Health) Failed(err error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastErr = err
}

func (h *Health) Status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	s := &Status{}
	if h.lastErr != nil {
		s.LastError = h.lastErr.Error()
	}
	if h.synced.IsZero() {
		return s
	}
	ts := h.synced
	s.LastSync = &SyncIngestion{Contracts: h.contracts, Timestamp: &ts}
	// one missed round is tolerated
	s.Healthy = h.clock.Now().Sub(h.synced) <= 2*h.interval+delayBuffer
	return s
}
