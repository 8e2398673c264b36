// Copyright (c) 2024 The VeChainThor developers
// Copyright (c) 2025 The Leafstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"bytes"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/leafstake/leafstake/log"
)

// LoggerOptions selects which requests are logged. A request is logged when
// Enabled is set, when it is slower than SlowThreshold (zero disables), or
// when it fails with a 5xx and Log5xx is set.
type LoggerOptions struct {
	Enabled       *atomic.Bool
	SlowThreshold time.Duration
	Log5xx        bool
}

func (o *LoggerOptions) off() bool {
	return !o.Enabled.Load() && o.SlowThreshold == 0 && !o.Log5xx
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLoggerMiddleware returns a middleware writing one record per
// selected request.
func RequestLoggerMiddleware(logger log.Logger, opts LoggerOptions) func(http.Handler) http.Handler {
	if opts.Enabled == nil {
		opts.Enabled = &atomic.Bool{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.off() {
				next.ServeHTTP(w, r)
				return
			}
			// plan bodies are small; keep a copy for the record
			var body []byte
			if r.Body != nil {
				var err error
				if body, err = io.ReadAll(r.Body); err != nil {
					logger.Warn("unexpected body read error", "err", err)
					http.Error(w, "unreadable body", http.StatusBadRequest)
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			duration := time.Since(start)

			slow := opts.SlowThreshold > 0 && duration > opts.SlowThreshold
			failed := opts.Log5xx && rec.status >= http.StatusInternalServerError
			if !opts.Enabled.Load() && !slow && !failed {
				return
			}
			ctx := []any{
				"URI", r.URL.String(),
				"Method", r.Method,
				"Status", rec.status,
				"DurationMs", duration.Milliseconds(),
				"Timestamp", start.Unix(),
				"Body", string(body),
			}
			if failed {
				logger.Warn("API Request", ctx...)
				return
			}
			logger.Info("API Request", ctx...)
		})
	}
}
