package container

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/ai-referral-go/internal/handlers"
	"github.com/serroba/ai-referral-go/internal/health"
	"github.com/serroba/ai-referral-go/internal/metrics"
	"github.com/serroba/ai-referral-go/internal/middleware"
	"github.com/serroba/ai-referral-go/internal/ratelimit"
	"github.com/serroba/ai-referral-go/internal/store"
	"go.uber.org/zap"
)

// RateLimitPackage provides the policy limiter backed by the configured store.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Store, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.RateLimitStore {
		case "memory":
			return store.NewRateLimitMemoryStore(), nil
		case "redis":
			r, err := do.Invoke[*Redis](i)
			if err != nil {
				return nil, err
			}

			return store.NewRateLimitRedisStore(r.Client)
		default:
			return nil, fmt.Errorf("unknown rate limit store %q", opts.RateLimitStore)
		}
	})

	do.Provide(injector, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		limitStore, err := do.Invoke[ratelimit.Store](i)
		if err != nil {
			return nil, err
		}

		return ratelimit.NewPolicyLimiter(limitStore, ratelimit.DefaultPolicy()), nil
	})
}

// HTTPPackage provides the router and the API with every route registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		api := humachi.New(router, huma.DefaultConfig("AI Referral Attribution", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))

		if opts.RateLimitEnabled {
			limiter, err := do.Invoke[*ratelimit.PolicyLimiter](i)
			if err != nil {
				return nil, err
			}

			api.UseMiddleware(middleware.PolicyRateLimiter(
				api, limiter, ratelimit.NewOperationScopeResolver(), logger))
		}

		attributionHandler, err := do.Invoke[*handlers.AttributionHandler](i)
		if err != nil {
			return nil, err
		}

		healthHandler, err := newHealthHandler(i, opts)
		if err != nil {
			return nil, err
		}

		handlers.RegisterRoutes(api, attributionHandler)
		health.RegisterRoutes(api, healthHandler)
		router.Handle("/metrics", m.Handler())

		return api, nil
	})
}

func newHealthHandler(i *do.Injector, opts *Options) (*health.Handler, error) {
	var deps []health.Dependency

	if opts.UsesRedis() {
		r, err := do.Invoke[*Redis](i)
		if err != nil {
			return nil, err
		}

		deps = append(deps, health.Dependency{Name: "redis", Checker: health.NewRedisChecker(r.Client)})
	}

	if opts.Storage == "postgres" {
		pg, err := do.Invoke[*Postgres](i)
		if err != nil {
			return nil, err
		}

		deps = append(deps, health.Dependency{Name: "postgres", Checker: pg.Pool})
	}

	return health.NewHandler(deps...), nil
}
