// Package ratelimit bounds the number of requests a client may make per
// route class inside a fixed time window. The window state lives in a
// pluggable counter store so a single process can count in memory while a
// multi-process deployment shares counters through redis; the policy
// logic is identical either way.
package ratelimit

import (
	"context"
	"time"

	"github.com/mxmehl/home-stream/internal/logutil"
)

type (
	// Result reports one admission decision. RetryAfter is only set on
	// rejection and is always positive.
	Result struct {
		Allowed    bool
		RetryAfter time.Duration
	}

	Limiter struct {
		store   CounterStore
		classes map[string]Rate
		def     Rate
	}
)

// New builds a limiter with per-class budgets; classes without an entry
// fall back to def.
func New(store CounterStore, classes map[string]Rate, def Rate) *Limiter {
	copied := make(map[string]Rate, len(classes))
	for class, rate := range classes {
		copied[class] = rate
	}
	return &Limiter{store: store, classes: copied, def: def}
}

// Check counts the request against the (identity, class) window and
// decides whether to admit it. Rejected requests are counted too. A
// failing counter store admits the request: an unreachable backend must
// not take the whole service down.
func (l *Limiter) Check(ctx context.Context, identity, class string) Result {
	rate, ok := l.classes[class]
	if !ok {
		rate = l.def
	}
	count, remaining, err := l.store.Incr(ctx, class+":"+identity, rate.Window)
	if err != nil {
		logger := logutil.GetOrDefault(ctx)
		logger.Warn().Err(err).
			Str("class", class).
			Msg("rate limit store failed, admitting request")
		return Result{Allowed: true}
	}
	if count > rate.Limit {
		retry := remaining
		if retry < time.Second {
			retry = time.Second
		}
		return Result{Allowed: false, RetryAfter: retry}
	}
	return Result{Allowed: true}
}
