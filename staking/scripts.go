// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/leafstake/leafstake/ledger"
)

// ValidateTokenName is the asset name of the capacity token.
const ValidateTokenName = "Stake Validator"

// Blueprint validator titles.
const (
	ValidatorTitle      = "staking.staking"
	ValidatePolicyTitle = "staking.asset"
)

// ScriptHashLength is the length of a script credential.
const ScriptHashLength = 28

// Script is a compiled Plutus script.
type Script struct {
	Title string          `json:"title,omitempty"`
	Type  string          `json:"type"`
	Code  ledger.HexBytes `json:"cborHex"`
	Hash  ledger.HexBytes `json:"hash"`
}

// Scripts provides the validator and the validation token policy of one
// deployment.
type Scripts interface {
	Validator() *Script
	// Address is the enterprise address of the validator.
	Address() string
	ValidatePolicy() *Script
}

// Network selects the address header and prefix.
type Network byte

const (
	Testnet Network = 0
	Mainnet Network = 1
)

func ParseNetwork(s string) (Network, error) {
	switch strings.ToLower(s) {
	case "mainnet":
		return Mainnet, nil
	case "preprod", "preview", "testnet":
		return Testnet, nil
	}
	return 0, errors.Errorf("unknown network %q", s)
}

func (n Network) hrp() string {
	if n == Mainnet {
		return "addr"
	}
	return "addr_test"
}

// ScriptAddress encodes the enterprise address of a script credential.
func ScriptAddress(hash []byte, n Network) (string, error) {
	if len(hash) != ScriptHashLength {
		return "", errors.Errorf("script hash: want %d bytes, got %d", ScriptHashLength, len(hash))
	}
	// header: type 7 (script payment, no delegation), network id
	raw := append([]byte{0x70 | byte(n)}, hash...)
	conv, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(n.hrp(), conv)
}

// ScriptHash computes the credential of a script from its language version
// and serialised code.
func ScriptHash(plutusVersion string, code []byte) ([]byte, error) {
	var tag byte
	switch strings.ToLower(plutusVersion) {
	case "v1", "plutusv1":
		tag = 0x01
	case "v2", "plutusv2":
		tag = 0x02
	case "v3", "plutusv3":
		tag = 0x03
	default:
		return nil, errors.Errorf("unknown plutus version %q", plutusVersion)
	}
	h, err := blake2b.New(ScriptHashLength, nil)
	if err != nil {
		return nil, err
	}
	h.Write([]byte{tag})
	h.Write(code)
	return h.Sum(nil), nil
}

// Blueprint is the subset of a CIP-57 plutus.json the engine reads.
type Blueprint struct {
	Preamble struct {
		Title         string `json:"title"`
		PlutusVersion string `json:"plutusVersion"`
	} `json:"preamble"`
	Validators []struct {
		Title        string          `json:"title"`
		CompiledCode ledger.HexBytes `json:"compiledCode"`
		Hash         ledger.HexBytes `json:"hash"`
	} `json:"validators"`
}

// LoadBlueprint reads a blueprint file.
func LoadBlueprint(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bp Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, errors.Wrap(err, "decode blueprint")
	}
	return &bp, nil
}

// Script returns the validator titled title. A missing hash is computed.
func (bp *Blueprint) Script(title string) (*Script, error) {
	for _, v := range bp.Validators {
		if v.Title != title {
			continue
		}
		version := strings.TrimPrefix(strings.ToLower(bp.Preamble.PlutusVersion), "plutus")
		if version == "" {
			version = "v2"
		}
		hash := v.Hash
		if len(hash) == 0 {
			var err error
			if hash, err = ScriptHash(version, v.CompiledCode); err != nil {
				return nil, err
			}
		}
		return &Script{
			Title: title,
			Type:  "Plutus" + strings.ToUpper(version),
			Code:  v.CompiledCode,
			Hash:  hash,
		}, nil
	}
	return nil, errors.Errorf("blueprint has no validator %q", title)
}

// ScriptSet is a Scripts backed by resolved scripts.
type ScriptSet struct {
	validator *Script
	policy    *Script
	address   string
}

// NewScriptSet resolves the staking validator and the validation token
// policy from a blueprint.
func NewScriptSet(bp *Blueprint, n Network) (*ScriptSet, error) {
	validator, err := bp.Script(ValidatorTitle)
	if err != nil {
		return nil, err
	}
	policy, err := bp.Script(ValidatePolicyTitle)
	if err != nil {
		return nil, err
	}
	address, err := ScriptAddress(validator.Hash, n)
	if err != nil {
		return nil, err
	}
	return &ScriptSet{validator: validator, policy: policy, address: address}, nil
}

func (s *ScriptSet) Validator() *Script      { return s.validator }
func (s *ScriptSet) Address() string         { return s.address }
func (s *ScriptSet) ValidatePolicy() *Script { return s.policy }
