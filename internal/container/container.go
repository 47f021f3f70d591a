package container

import (
	"errors"
	"fmt"

	"github.com/samber/do"
	"github.com/serroba/ai-referral-go/internal/metrics"
	"go.uber.org/zap"
)

// Options are the server's command line options. humacli also reads them
// from SERVICE_<NAME> environment variables.
type Options struct {
	Port             int    `default:"8888"           help:"Port to listen on"                                          short:"p"`
	LogFormat        string `default:"console"        enum:"console,json"                                               help:"Log output format"`
	RedisAddr        string `default:"localhost:6379" help:"Redis server address"                                       short:"r"`
	DatabaseURL      string `default:""               help:"PostgreSQL connection URL, required when storage is postgres"`
	Storage          string `default:"memory"         enum:"memory,postgres"                                            help:"Where attribution events are stored"`
	Bus              string `default:"redis"          enum:"redis,memory"                                               help:"Event bus; memory runs the recorder in-process"`
	SummaryCache     string `default:"memory"         enum:"none,memory,redis"                                          help:"Cache in front of summary queries"`
	SummaryCacheTTL  int    `default:"60"             help:"Summary cache TTL in seconds"`
	RulesFile        string `default:""               help:"YAML file overriding the built-in referrer and bot rules"`
	RateLimitStore   string `default:"redis"          enum:"memory,redis"                                               help:"Where rate limit counters are kept"`
	RateLimitEnabled bool   `default:"true"           help:"Enable request rate limiting"`
}

// errServerLogStorage rejects the log storage for the server: it keeps no
// events, so the summary endpoint would have nothing to read.
var errServerLogStorage = errors.New("log storage is only supported by the consumer")

// ValidateServer checks options the HTTP server cannot run with.
func (o *Options) ValidateServer() error {
	if o.Storage == "log" {
		return errServerLogStorage
	}

	return nil
}

// UsesRedis reports whether any component needs a Redis connection.
func (o *Options) UsesRedis() bool {
	return o.Bus == "redis" ||
		o.SummaryCache == "redis" ||
		(o.RateLimitEnabled && o.RateLimitStore == "redis")
}

// LoggerPackage provides the application logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.LogFormat {
		case "json":
			return zap.NewProduction()
		case "console", "":
			return zap.NewDevelopment()
		default:
			return nil, fmt.Errorf("unknown log format %q", opts.LogFormat)
		}
	})
}

// MetricsPackage provides the Prometheus collectors.
func MetricsPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})
}
