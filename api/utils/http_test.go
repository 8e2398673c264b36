// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafstake/leafstake/staking/reverts"
)

func TestStakingError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{reverts.ErrNoRunningContract, http.StatusNotFound},
		{errors.Wrap(reverts.ErrNotFound, "Apple"), http.StatusNotFound},
		{errors.Wrap(reverts.ErrInvalidWallet, "signer"), http.StatusForbidden},
		{reverts.ErrInvalidParameters, http.StatusBadRequest},
		{reverts.ErrAlreadyExists, http.StatusConflict},
		{reverts.ErrStaleHandle, http.StatusConflict},
		{reverts.ErrInconsistentDatabase, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rr := httptest.NewRecorder()
			WrapHandlerFunc(func(http.ResponseWriter, *http.Request) error {
				return StakingError(tt.err)
			})(rr, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.err.Error(), strings.TrimSpace(rr.Body.String()))
		})
	}
	assert.NoError(t, StakingError(nil))
	assert.ErrorIs(t, StakingError(reverts.ErrNoCapacity), reverts.ErrNoCapacity)
}

func TestParseJSON(t *testing.T) {
	var v struct {
		Level string `json:"level"`
	}
	require.NoError(t, ParseJSON(strings.NewReader(`{"level":"debug"}`), &v))
	assert.Equal(t, "debug", v.Level)
	assert.Error(t, ParseJSON(strings.NewReader(`{"verbosity":3}`), &v))
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rr, map[string]int{"count": 2}))
	assert.Equal(t, JSONContentType, rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count":2}`, rr.Body.String())
}
