// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package clock supplies the instant a transition is planned at.
package clock

import (
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beevik/ntp"

	"github.com/leafstake/leafstake/log"
)

var logger = log.WithContext("pkg", "clock")

// DefaultNTPServer is queried when no server is configured.
const DefaultNTPServer = "pool.ntp.org"

// Clock tells the current time.
type Clock interface {
	Now() time.Time
}

// Millis returns the POSIX millisecond timestamp of c.
func Millis(c Clock) *big.Int {
	return big.NewInt(c.Now().UnixMilli())
}

// System is the local wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed is a manually driven clock.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

// FixedMillis returns a Fixed clock set to a millisecond timestamp.
func FixedMillis(ms int64) *Fixed {
	return NewFixed(time.UnixMilli(ms))
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

// NTP is the local clock corrected by the offset last measured against an
// NTP server. Until the first successful Sync it behaves like System.
type NTP struct {
	server string
	query  func(host string) (*ntp.Response, error)
	offset atomic.Int64
}

func NewNTP(server string) *NTP {
	if server == "" {
		server = DefaultNTPServer
	}
	return &NTP{server: server, query: ntp.Query}
}

func (n *NTP) Now() time.Time {
	return time.Now().Add(n.Offset())
}

// Offset returns the last measured correction.
func (n *NTP) Offset() time.Duration {
	return time.Duration(n.offset.Load())
}

// Sync measures the offset once. On failure the previous offset is kept.
func (n *NTP) Sync() error {
	resp, err := n.query(n.server)
	if err != nil {
		logger.Debug("failed to access NTP", "server", n.server, "err", err)
		return err
	}
	n.offset.Store(int64(resp.ClockOffset))
	if resp.ClockOffset.Abs() > time.Second {
		logger.Warn("clock offset detected", "offset", resp.ClockOffset)
	}
	return nil
}
