// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert is a named precondition failure of a staking operation. Nothing
// has been submitted when one is returned.
type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

var (
	ErrNotFound             = New("record does not exist")
	ErrNoRunningContract    = New("there is no running contract")
	ErrInconsistentDatabase = New("bad database consistency")
	ErrInvalidWallet        = New("not a valid wallet")
	ErrAlreadyExists        = New("record already exists")
	ErrNoCapacity           = New("no validation token left on the contract")
	ErrInsufficientReserve  = New("reward reserve does not cover the payout")
	ErrInvalidParameters    = New("invalid contract parameters")
	ErrStaleHandle          = New("output already spent, resync required")
)

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}
