// Copyright (c) 2018 The VeChainThor developers
// Copyright (c) 2025 The Leafstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	healthAPI "github.com/leafstake/leafstake/api/admin/health"
	"github.com/leafstake/leafstake/api/admin/loglevel"
	"github.com/leafstake/leafstake/api/contracts"
	"github.com/leafstake/leafstake/api/middleware"
	"github.com/leafstake/leafstake/clock"
	"github.com/leafstake/leafstake/health"
	"github.com/leafstake/leafstake/log"
	"github.com/leafstake/leafstake/metrics"
	"github.com/leafstake/leafstake/staking"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	EnableMetrics        bool
	PprofOn              bool
	// LogLevel, when set, is exposed under /admin/loglevel.
	LogLevel *slog.LevelVar
	// Health, when set, is exposed under /admin/health.
	Health *health.Health
}

// New return api router
func New(
	source contracts.Source,
	engine *staking.Engine,
	clk clock.Clock,
	opts Options,
) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	contracts.New(source, engine, clk).
		Mount(router, "/contracts")

	if opts.LogLevel != nil {
		loglevel.New(opts.LogLevel).
			Mount(router, "/admin/loglevel")
	}

	if opts.Health != nil {
		healthAPI.New(opts.Health).
			Mount(router, "/admin/health")
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics && metrics.Enabled() {
		router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
	)(handler)

	handler = middleware.RequestLoggerMiddleware(logger, middleware.LoggerOptions{
		Enabled:       opts.EnableReqLogger,
		SlowThreshold: opts.SlowQueriesThreshold,
		Log5xx:        opts.Log5xxErrors,
	})(handler)

	return handler.ServeHTTP
}
