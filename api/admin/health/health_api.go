// Copyright (c) 2024 The VeChainThor developers
// Copyright (c) 2025 The Leafstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/leafstake/leafstake/api/utils"
	"github.com/leafstake/leafstake/health"
)

type API struct {
	health *health.Health
}

func New(h *health.Health) *API {
	return &API{health: h}
}

func (a *API) handleGetHealth(w http.ResponseWriter, _ *http.Request) error {
	status := a.health.Status()
	w.Header().Set("Content-Type", utils.JSONContentType)
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	return utils.WriteJSON(w, status)
}

func (a *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("admin_health").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetHealth))
}
