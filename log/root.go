// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

var root atomic.Value

type rootHolder struct{ l Logger }

func init() {
	root.Store(rootHolder{&logger{slog.New(DiscardHandler())}})
}

// SetDefault sets the default global logger
func SetDefault(l Logger) {
	root.Store(rootHolder{l})
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the root logger
func Root() Logger {
	return root.Load().(rootHolder).l
}

// WithContext returns a logger bound to the given context pairs that always
// writes through the current root logger, so package level loggers pick up
// a handler installed later by SetDefault.
func WithContext(ctx ...any) Logger {
	return &contextLogger{ctx: ctx}
}

type contextLogger struct {
	ctx []any
}

func (c *contextLogger) inner() Logger {
	return Root().With(c.ctx...)
}

func (c *contextLogger) With(ctx ...any) Logger {
	merged := make([]any, 0, len(c.ctx)+len(ctx))
	merged = append(merged, c.ctx...)
	return &contextLogger{ctx: append(merged, ctx...)}
}

func (c *contextLogger) New(ctx ...any) Logger { return c.With(ctx...) }

func (c *contextLogger) Log(level slog.Level, msg string, ctx ...any) {
	c.inner().Write(level, msg, ctx...)
}

func (c *contextLogger) Write(level slog.Level, msg string, ctx ...any) {
	c.inner().Write(level, msg, ctx...)
}

func (c *contextLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return c.inner().Enabled(ctx, level)
}

func (c *contextLogger) Handler() slog.Handler { return Root().Handler() }

func (c *contextLogger) Trace(msg string, ctx ...any) { c.inner().Write(LevelTrace, msg, ctx...) }
func (c *contextLogger) Debug(msg string, ctx ...any) { c.inner().Write(LevelDebug, msg, ctx...) }
func (c *contextLogger) Info(msg string, ctx ...any)  { c.inner().Write(LevelInfo, msg, ctx...) }
func (c *contextLogger) Warn(msg string, ctx ...any)  { c.inner().Write(LevelWarn, msg, ctx...) }
func (c *contextLogger) Error(msg string, ctx ...any) { c.inner().Write(LevelError, msg, ctx...) }

func (c *contextLogger) Crit(msg string, ctx ...any) {
	c.inner().Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}

// The following functions bypass the exported logger methods (logger.Debug,
// etc.) to keep the call depth the same for all paths to logger.Write so
// runtime.Caller(2) always refers to the call site in client code.

// Trace is a convenient alias for Root().Trace
func Trace(msg string, ctx ...any) {
	Root().Write(LevelTrace, msg, ctx...)
}

// Debug is a convenient alias for Root().Debug
func Debug(msg string, ctx ...any) {
	Root().Write(slog.LevelDebug, msg, ctx...)
}

// Info is a convenient alias for Root().Info
func Info(msg string, ctx ...any) {
	Root().Write(slog.LevelInfo, msg, ctx...)
}

// Warn is a convenient alias for Root().Warn
func Warn(msg string, ctx ...any) {
	Root().Write(slog.LevelWarn, msg, ctx...)
}

// Error is a convenient alias for Root().Error
func Error(msg string, ctx ...any) {
	Root().Write(slog.LevelError, msg, ctx...)
}

// Crit is a convenient alias for Root().Crit
func Crit(msg string, ctx ...any) {
	Root().Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}
