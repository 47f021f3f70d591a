package container

import (
	"fmt"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/samber/do"
	"github.com/serroba/ai-referral-go/internal/analytics"
	analyticsstore "github.com/serroba/ai-referral-go/internal/analytics/store"
	"github.com/serroba/ai-referral-go/internal/attribution"
	"github.com/serroba/ai-referral-go/internal/handlers"
	"github.com/serroba/ai-referral-go/internal/messaging"
	"github.com/serroba/ai-referral-go/internal/metrics"
	"github.com/serroba/ai-referral-go/internal/store"
	"go.uber.org/zap"
)

const eventIDLength = 21

// backend is a store that both persists and aggregates events.
type backend interface {
	analytics.Store
	analytics.SummaryReader
}

// StorePackage provides the event store and the summary reader, with the
// configured cache in front of summaries.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (backend, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Storage {
		case "memory":
			return store.NewMemoryStore(), nil
		case "postgres":
			pg, err := do.Invoke[*Postgres](i)
			if err != nil {
				return nil, err
			}

			return store.NewPostgresStore(pg.Pool), nil
		default:
			return nil, fmt.Errorf("unknown storage %q", opts.Storage)
		}
	})

	// The log storage only writes events to the logger; it has no summaries
	// and is meant for a consumer running next to a development server.
	do.Provide(injector, func(i *do.Injector) (analytics.Store, error) {
		if do.MustInvoke[*Options](i).Storage == "log" {
			return analyticsstore.NewLogStore(do.MustInvoke[*zap.Logger](i)), nil
		}

		return do.Invoke[backend](i)
	})

	do.Provide(injector, func(i *do.Injector) (analytics.SummaryReader, error) {
		opts := do.MustInvoke[*Options](i)
		if err := opts.ValidateServer(); err != nil {
			return nil, err
		}

		b, err := do.Invoke[backend](i)
		if err != nil {
			return nil, err
		}

		ttl := time.Duration(opts.SummaryCacheTTL) * time.Second
		if ttl <= 0 {
			return b, nil
		}

		switch opts.SummaryCache {
		case "none":
			return b, nil
		case "memory":
			return store.NewMemorySummaryCache(b, ttl), nil
		case "redis":
			r, err := do.Invoke[*Redis](i)
			if err != nil {
				return nil, err
			}

			return store.NewRedisSummaryCache(b, r.Client, ttl), nil
		default:
			return nil, fmt.Errorf("unknown summary cache %q", opts.SummaryCache)
		}
	})
}

// AttributionPackage provides the rules, the tracker wired to the event bus,
// and the HTTP handler.
func AttributionPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (attribution.Rules, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		rules, err := attribution.LoadRules(opts.RulesFile)
		if err != nil {
			return attribution.Rules{}, err
		}

		logger.Info("attribution rules loaded",
			zap.String("file", opts.RulesFile),
			zap.Int("referrers", rules.Referrers.Len()),
			zap.Int("bots", rules.Bots.Len()),
		)

		return rules, nil
	})

	do.Provide(injector, func(i *do.Injector) (*analytics.Collector, error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		logger := do.MustInvoke[*zap.Logger](i)

		newID, err := nanoid.Standard(eventIDLength)
		if err != nil {
			return nil, err
		}

		publish := messaging.NewPublishFunc[analytics.AttributionRecorded](
			group.Publisher(), analytics.TopicAttributionRecorded)

		return analytics.NewCollector(publish, newID, m, logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (*attribution.Tracker, error) {
		rules := do.MustInvoke[attribution.Rules](i)
		collector := do.MustInvoke[*analytics.Collector](i)

		return attribution.NewTracker(attribution.NewDefaultClassifier(rules), collector.Func()), nil
	})

	do.Provide(injector, func(i *do.Injector) (*handlers.AttributionHandler, error) {
		return handlers.NewAttributionHandler(
			do.MustInvoke[*attribution.Tracker](i),
			do.MustInvoke[attribution.Rules](i),
			do.MustInvoke[analytics.SummaryReader](i),
			do.MustInvoke[*metrics.Metrics](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}
