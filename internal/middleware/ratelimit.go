package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ai-referral-go/internal/ratelimit"
	"go.uber.org/zap"
)

type policyRateLimiter struct {
	api      huma.API
	limiter  *ratelimit.PolicyLimiter
	resolver ratelimit.ScopeResolver
	logger   *zap.Logger
}

// PolicyRateLimiter returns a Huma middleware that counts each request against
// the policy limits of the scopes the resolver picks for it.
//
// Operations may carry a ratelimit.EndpointConfig under ratelimit.MetadataKey
// to switch limiting off, to pick a scope, or to declare limits of their own.
// Declared limits replace the policy for that route.
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	m := &policyRateLimiter{api: api, limiter: limiter, resolver: resolver, logger: logger}

	return m.handle
}

func (m *policyRateLimiter) handle(ctx huma.Context, next func(huma.Context)) {
	cfg := ratelimit.GetEndpointConfig(ctx)
	if cfg != nil && cfg.Disabled {
		next(ctx)

		return
	}

	var (
		allowed  bool
		exceeded *ratelimit.LimitExceeded
		err      error
	)

	// GetEndpointConfig only returns a config when the operation is set.
	if cfg != nil && len(cfg.Limits) > 0 {
		allowed, exceeded, err = m.limiter.AllowRoute(
			ctx.Context(), clientKey(ctx, true), ctx.Operation().Path, cfg.Limits)
	} else {
		scopes := m.resolver.Resolve(ctx)
		key := clientKey(ctx, !slices.Contains(scopes, ratelimit.ScopeCollect))
		allowed, exceeded, err = m.limiter.Allow(ctx.Context(), key, scopes)
	}

	if err != nil {
		m.logger.Error("rate limit check failed", zap.String("path", operationPath(ctx)), zap.Error(err))
		_ = huma.WriteErr(m.api, ctx, http.StatusInternalServerError, "internal server error", err)

		return
	}

	if !allowed {
		m.reject(ctx, exceeded)

		return
	}

	next(ctx)
}

func (m *policyRateLimiter) reject(ctx huma.Context, exceeded *ratelimit.LimitExceeded) {
	m.logger.Warn("rate limit exceeded",
		zap.String("path", operationPath(ctx)),
		zap.String("method", ctx.Method()),
		zap.String("scope", string(exceeded.Scope)),
		zap.Int64("count", exceeded.Count),
		zap.Int64("max", exceeded.Config.Max),
		zap.Duration("window", exceeded.Config.Window),
		zap.String("client_ip", clientIP(ctx)),
	)

	ctx.SetHeader("Retry-After", strconv.FormatInt(int64(exceeded.RetryAfter()/time.Second), 10))

	msg := fmt.Sprintf("rate limit exceeded: %s scope, %d/%d requests in %s",
		exceeded.Scope, exceeded.Count, exceeded.Config.Max, exceeded.Config.Window)
	_ = huma.WriteErr(m.api, ctx, http.StatusTooManyRequests, msg)
}

// clientKey identifies a client by IP, and by User-Agent when withUA is set so
// browsers behind one NAT do not share a budget. Beacon budgets use the IP
// alone: the User-Agent is chosen by the sender and rotating it would reset
// the count.
func clientKey(ctx huma.Context, withUA bool) string {
	id := clientIP(ctx)
	if withUA {
		id += "|" + ctx.Header("User-Agent")
	}

	hash := sha256.Sum256([]byte(id))

	return hex.EncodeToString(hash[:])
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}
