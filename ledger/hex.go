// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"encoding"
	"encoding/hex"
	"encoding/json"
)

// HexBytes marshals to JSON as an unprefixed lowercase hex string.
// A nil value is null.
type HexBytes []byte

func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

// MarshalText implements encoding.TextMarshaler.
func (b HexBytes) MarshalText() ([]byte, error) {
	out := make([]byte, hex.EncodedLen(len(b)))
	hex.Encode(out, b)
	return out, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *HexBytes) UnmarshalText(text []byte) error {
	if len(text) >= 2 && text[0] == '0' && (text[1] == 'x' || text[1] == 'X') {
		text = text[2:]
	}
	out := make([]byte, hex.DecodedLen(len(text)))
	if _, err := hex.Decode(out, text); err != nil {
		return err
	}
	*b = out
	return nil
}

// MarshalJSON renders nil as null, so optional fields survive a round trip.
func (b HexBytes) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	return json.Marshal(hex.EncodeToString(b))
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *HexBytes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return b.UnmarshalText([]byte(s))
}

var (
	_ encoding.TextMarshaler   = HexBytes(nil)
	_ encoding.TextUnmarshaler = (*HexBytes)(nil)
	_ json.Marshaler           = HexBytes(nil)
	_ json.Unmarshaler         = (*HexBytes)(nil)
)
