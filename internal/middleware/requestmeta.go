package middleware

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ai-referral-go/internal/analytics"
)

// RequestMeta adds client IP, user agent and referrer to the request context.
// PageURL is left empty; beacon handlers fill it from the request body.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := analytics.RequestMeta{
			ClientIP:  clientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		ctx = huma.WithContext(ctx, analytics.ContextWithRequestMeta(ctx.Context(), meta))

		next(ctx)
	}
}
