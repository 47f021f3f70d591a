package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Store counts requests per key over a sliding window.
type Store interface {
	// Record adds one request to key and returns the number of requests inside
	// the window ending now, the new one included. Older entries are pruned.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}

// LimitExceeded describes the first limit a request exceeded.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

// RetryAfter is how long a client should wait before retrying. It is the full
// window, the worst case for a sliding window, and never less than one second.
func (e *LimitExceeded) RetryAfter() time.Duration {
	return RetryAfter(e.Config.Window)
}

// RetryAfter rounds window up to whole seconds, with a one second minimum.
func RetryAfter(window time.Duration) time.Duration {
	if window <= time.Second {
		return time.Second
	}

	return (window + time.Second - 1).Truncate(time.Second)
}

// PolicyLimiter enforces a Policy over the scopes resolved for each request.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

// NewPolicyLimiter creates a new policy-based rate limiter.
func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

// Allow records one request for clientKey in every limit of every scope and
// reports the first limit exceeded, if any. Scopes are checked in order, so
// later scopes are not recorded once one is exceeded.
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (bool, *LimitExceeded, error) {
	for _, scope := range scopes {
		for _, limit := range l.policy.Limits[scope] {
			count, err := l.store.Record(ctx, limitKey(clientKey, scope, limit), limit.Window)
			if err != nil {
				return false, nil, fmt.Errorf("record %s limit: %w", scope, err)
			}

			if count > limit.Max {
				return false, &LimitExceeded{Scope: scope, Config: limit, Count: count}, nil
			}
		}
	}

	return true, nil, nil
}

// AllowRoute records one request for clientKey against limits declared on a
// single route. An exceeded limit is reported under ScopeRoute.
func (l *PolicyLimiter) AllowRoute(
	ctx context.Context,
	clientKey, route string,
	limits []LimitConfig,
) (bool, *LimitExceeded, error) {
	for _, limit := range limits {
		key := fmt.Sprintf("%s:%s:%s:%d", clientKey, ScopeRoute, route, limit.Window.Milliseconds())

		count, err := l.store.Record(ctx, key, limit.Window)
		if err != nil {
			return false, nil, fmt.Errorf("record %s limit: %w", route, err)
		}

		if count > limit.Max {
			return false, &LimitExceeded{Scope: ScopeRoute, Config: limit, Count: count}, nil
		}
	}

	return true, nil, nil
}

// limitKey tracks each client, scope and window independently.
func limitKey(clientKey string, scope Scope, limit LimitConfig) string {
	return fmt.Sprintf("%s:%s:%d", clientKey, scope, limit.Window.Milliseconds())
}
