// Package middleware wraps the per-update goroutines the bot spawns.
package middleware

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"

	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

// SlowThreshold is the handler duration above which completion is logged at
// info level.
const SlowThreshold = 100 * time.Millisecond

type Middleware func(next func()) func()

// Update names one inbound update in log lines.
type Update struct {
	Name  string
	Owner int64
	Kind  string
}

func (u Update) attrs() []any {
	return []any{"name", u.Name, "owner", u.Owner, "kind", u.Kind}
}

// Recover turns a panic in the handler of u into an error log with stack.
// onPanic, when set, runs afterwards with the recovered value as an error so
// the user can still be told something went wrong.
func Recover(u Update, onPanic func(err error)) Middleware {
	return func(next func()) func() {
		return func() {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				err, ok := r.(error)
				if !ok {
					err = errors.Errorf("panic: %v", r)
				}
				logger.Error("Panic recovered", append(u.attrs(), "error", err, "stack", string(debug.Stack()))...)
				if onPanic != nil {
					onPanic(err)
				}
			}()
			next()
		}
	}
}

// Logger reports how long the handler of u took.
func Logger(u Update) Middleware {
	return func(next func()) func() {
		return func() {
			start := time.Now()
			defer func() {
				duration := time.Since(start)
				level := slog.LevelDebug
				msg := "Handler completed"
				if duration > SlowThreshold {
					level, msg = slog.LevelInfo, "Handler completed (slow)"
				}
				logger.With(u.attrs()...).Log(context.Background(), level, msg, "duration", duration)
			}()
			next()
		}
	}
}

// Chain wraps f so the first middleware is the outermost.
func Chain(f func(), middlewares ...Middleware) func() {
	for i := len(middlewares) - 1; i >= 0; i-- {
		f = middlewares[i](f)
	}
	return f
}
