package attribution

import "context"

// Collector receives attribution events. It is fire-and-forget: no result is reported back.
type Collector func(ctx context.Context, name EventName, attributes map[string]string)

// Emit hands event to collect. A nil event or nil collector is a no-op.
func Emit(ctx context.Context, collect Collector, event *Event) {
	if event == nil || collect == nil {
		return
	}

	collect(ctx, event.Name, event.Attributes)
}

// Tracker classifies visits and emits the result to a collector.
type Tracker struct {
	classifier *Classifier
	collect    Collector
}

// NewTracker creates a tracker. collect may be nil, in which case events are dropped.
func NewTracker(classifier *Classifier, collect Collector) *Tracker {
	return &Tracker{
		classifier: classifier,
		collect:    collect,
	}
}

// Track classifies v and emits the event, if any. The event is returned for callers that echo it.
func (t *Tracker) Track(ctx context.Context, v Visit) *Event {
	event := t.classifier.Classify(v)
	Emit(ctx, t.collect, event)

	return event
}

// Classifier returns the tracker's classifier.
func (t *Tracker) Classifier() *Classifier {
	return t.classifier
}
