package container

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/samber/do"
	"github.com/serroba/ai-referral-go/internal/analytics"
	"github.com/serroba/ai-referral-go/internal/messaging"
	"github.com/serroba/ai-referral-go/internal/metrics"
	"go.uber.org/zap"
)

const (
	recorderConsumerGroup = "attribution-recorder"
	// streamMaxLen caps the Redis stream; recorded events live in the store.
	streamMaxLen        = 100_000
	memoryChannelBuffer = 1024
)

// BusPackage provides the publisher and subscriber for the configured bus.
// The memory bus shares one in-process channel between both sides.
func BusPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*gochannel.GoChannel, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		return gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: memoryChannelBuffer,
		}, messaging.NewZapLogger(logger)), nil
	})

	do.Provide(injector, func(i *do.Injector) (message.Publisher, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		switch opts.Bus {
		case "memory":
			return do.Invoke[*gochannel.GoChannel](i)
		case "redis":
			r, err := do.Invoke[*Redis](i)
			if err != nil {
				return nil, err
			}

			return redisstream.NewPublisher(redisstream.PublisherConfig{
				Client:     r.Client,
				Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
				Maxlens:    map[string]int64{analytics.TopicAttributionRecorded: streamMaxLen},
			}, messaging.NewZapLogger(logger))
		default:
			return nil, fmt.Errorf("unknown bus %q", opts.Bus)
		}
	})

	do.Provide(injector, func(i *do.Injector) (message.Subscriber, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		switch opts.Bus {
		case "memory":
			return do.Invoke[*gochannel.GoChannel](i)
		case "redis":
			r, err := do.Invoke[*Redis](i)
			if err != nil {
				return nil, err
			}

			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        r.Client,
				Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
				ConsumerGroup: recorderConsumerGroup,
			}, messaging.NewZapLogger(logger))
		default:
			return nil, fmt.Errorf("unknown bus %q", opts.Bus)
		}
	})
}

// PublisherGroupPackage provides the publisher group used by the collector.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := do.Invoke[message.Publisher](i)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ConsumerGroupPackage provides the consumers that persist recorded events.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		subscriber, err := do.Invoke[message.Subscriber](i)
		if err != nil {
			return nil, err
		}

		eventStore, err := do.Invoke[analytics.Store](i)
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			analytics.TopicAttributionRecorded,
			analytics.NewRecordHandler(eventStore),
			logger,
			messaging.WithMessageCounter(m.ConsumerMessages),
		))

		return group, nil
	})
}
