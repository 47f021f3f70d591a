package ratelimit

import "time"

// LimitConfig allows at most Max requests per sliding Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps scopes to the limits that apply to them.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// PolicyBuilder assembles a Policy.
type PolicyBuilder struct {
	policy *Policy
}

// NewPolicyBuilder creates an empty policy builder.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{
		policy: &Policy{Limits: make(map[Scope][]LimitConfig)},
	}
}

// AddLimit appends a limit for scope.
func (b *PolicyBuilder) AddLimit(scope Scope, limit int64, window time.Duration) *PolicyBuilder {
	b.policy.Limits[scope] = append(b.policy.Limits[scope], LimitConfig{Window: window, Max: limit})

	return b
}

// Build returns the assembled policy.
func (b *PolicyBuilder) Build() *Policy {
	return b.policy
}

// DefaultPolicy is the server's policy. Beacons fire once per page load, so the
// collect scope allows bursts of navigation but caps replay from a single client.
func DefaultPolicy() *Policy {
	return NewPolicyBuilder().
		AddLimit(ScopeGlobal, 600, time.Minute).
		AddLimit(ScopeRead, 300, time.Minute).
		AddLimit(ScopeWrite, 60, time.Minute).
		AddLimit(ScopeCollect, 120, time.Minute).
		AddLimit(ScopeCollect, 2000, 24*time.Hour).
		Build()
}
