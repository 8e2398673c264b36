// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalHandler(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandler(&buf, false))
	l.Info("contract synced", "hash", "abcd", "leaves", 3)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "INFO ["))
	assert.Contains(t, out, "contract synced")
	assert.Contains(t, out, "hash=abcd")
	assert.Contains(t, out, "leaves=3")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestTerminalHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	l := NewLogger(NewTerminalHandlerWithLevel(&buf, lvl, false))

	l.Debug("hidden")
	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown", "msg", "has space")
	assert.Contains(t, buf.String(), `msg="has space"`)
}

func TestJSONHandlerBigInt(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(JSONHandler(&buf))
	l.Info("reward", "amount", new(big.Int).Lsh(big.NewInt(1), 80))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "info", rec["lvl"])
	assert.Equal(t, "1208925819614629174706176", rec["amount"])
}

func TestUint256Attr(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(JSONHandler(&buf))
	var nilInt *uint256.Int
	l.Info("reserve", "amount", uint256.NewInt(0).Lsh(uint256.NewInt(1), 100), "missing", nilInt)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "1267650600228229401496703205376", rec["amount"])
	assert.Equal(t, "<nil>", rec["missing"])

	buf.Reset()
	NewLogger(LogfmtHandler(&buf)).Info("reserve", "amount", uint256.NewInt(42))
	assert.Contains(t, buf.String(), "amount=42")
}

func TestWithContextFollowsRoot(t *testing.T) {
	prev := Root()
	defer SetDefault(prev)

	// created before the root handler is installed
	pkgLogger := WithContext("pkg", "staking")

	var buf bytes.Buffer
	SetDefault(NewLogger(LogfmtHandler(&buf)))
	pkgLogger.With("op", "add").Info("planned")

	out := buf.String()
	assert.Contains(t, out, "pkg=staking")
	assert.Contains(t, out, "op=add")
	assert.Contains(t, out, "msg=planned")
}

func TestFromLegacyLevel(t *testing.T) {
	assert.Equal(t, LevelCrit, FromLegacyLevel(0))
	assert.Equal(t, slog.LevelInfo, FromLegacyLevel(LegacyLevelInfo))
	assert.Equal(t, LevelTrace, FromLegacyLevel(5))
	assert.Equal(t, LevelTrace, FromLegacyLevel(9))
	assert.Equal(t, LevelCrit, FromLegacyLevel(-1))
}

func TestDiscardHandler(t *testing.T) {
	l := NewLogger(DiscardHandler())
	assert.False(t, l.Enabled(t.Context(), LevelCrit))
	l.Error("nothing happens")
}
