package ratelimit

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Scope names a budget shared by a class of requests.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeRead   Scope = "read"
	ScopeWrite  Scope = "write"
	// ScopeCollect budgets attribution beacons sent by browsers.
	ScopeCollect Scope = "collect"
	// ScopeRoute is reported for limits declared on a single endpoint.
	ScopeRoute Scope = "route"
)

// MetadataKey is the huma.Operation Metadata key holding an EndpointConfig.
const MetadataKey = "rateLimit"

// EndpointConfig is per-endpoint rate limit configuration, attached to Huma
// operations through Metadata[MetadataKey].
type EndpointConfig struct {
	// Scope replaces method-based detection. Ignored when Limits is set.
	Scope Scope

	// Limits replaces the policy limits for this endpoint. Keys use the route
	// template, so all requests to the same route share counters per client.
	Limits []LimitConfig

	// Disabled skips rate limiting entirely for this endpoint.
	Disabled bool
}

// ScopeResolver determines which scopes apply to a request.
type ScopeResolver interface {
	Resolve(ctx huma.Context) []Scope
}

// MethodScope classifies safe methods as reads and everything else as writes.
func MethodScope(method string) Scope {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ScopeRead
	default:
		return ScopeWrite
	}
}

// MethodScopeResolver resolves the global scope plus MethodScope.
type MethodScopeResolver struct{}

// NewMethodScopeResolver creates a new method-based scope resolver.
func NewMethodScopeResolver() *MethodScopeResolver {
	return &MethodScopeResolver{}
}

func (r *MethodScopeResolver) Resolve(ctx huma.Context) []Scope {
	return []Scope{ScopeGlobal, MethodScope(ctx.Method())}
}

// OperationScopeResolver prefers the scope declared in the operation's
// EndpointConfig and falls back to the request method.
type OperationScopeResolver struct {
	fallback *MethodScopeResolver
}

// NewOperationScopeResolver creates a new operation-aware scope resolver.
func NewOperationScopeResolver() *OperationScopeResolver {
	return &OperationScopeResolver{
		fallback: NewMethodScopeResolver(),
	}
}

func (r *OperationScopeResolver) Resolve(ctx huma.Context) []Scope {
	if cfg := GetEndpointConfig(ctx); cfg != nil && cfg.Scope != "" {
		return []Scope{ScopeGlobal, cfg.Scope}
	}

	return r.fallback.Resolve(ctx)
}

// GetEndpointConfig returns the operation's EndpointConfig, or nil when none is attached.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}
