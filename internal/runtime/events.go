package runtime

import (
	"context"
	"time"

	"encore.dev/pubsub"

	"trafficgov.app/pkg/breaker"
)

// StateChangeEvent is published whenever a circuit breaker transitions
// state, following the caching system's event-versioning convention (a
// Version field so subscribers can evolve independently of publishers).
type StateChangeEvent struct {
	Version   int       `json:"version"`
	Resource  string    `json:"resource"`
	Prev      string    `json:"prev"`
	Next      string    `json:"next"`
	Snapshot  float64   `json:"snapshot"`
	Timestamp time.Time `json:"timestamp"`
}

// EventVersion1 is the current StateChangeEvent schema version.
const EventVersion1 = 1

// BreakerStateTopic fans out breaker transitions to any interested
// subscriber (dashboards, audit sinks, paging integrations) without the
// core engine itself knowing any of them exist.
var BreakerStateTopic = pubsub.NewTopic[*StateChangeEvent](
	"breaker-state-change",
	pubsub.TopicConfig{
		DeliveryGuarantee: pubsub.AtLeastOnce,
	},
)

// pubsubObserver republishes every breaker transition onto BreakerStateTopic.
type pubsubObserver struct{}

func (pubsubObserver) OnStateChange(rule breaker.Rule, prev, next breaker.State, snapshot float64) {
	_, _ = BreakerStateTopic.Publish(context.Background(), &StateChangeEvent{
		Version:   EventVersion1,
		Resource:  rule.Resource,
		Prev:      prev.String(),
		Next:      next.String(),
		Snapshot:  snapshot,
		Timestamp: time.Now().UTC(),
	})
}
