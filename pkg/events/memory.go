package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/ghuser/medshelf/pkg/logger"
)

// NewInMemoryEventBus returns a bus backed by Watermill's gochannel pub/sub.
// Every subscriber receives every message; messages published before a
// subscriber exists are dropped.
func NewInMemoryEventBus(log logger.Logger) *EventBus {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, &slogAdapter{log: log})
	return &EventBus{
		publisher:  ps,
		subscriber: ps,
		log:        log,
	}
}

// WithRetryDelay overrides the base backoff between handler retries.
func (b *EventBus) WithRetryDelay(d time.Duration) *EventBus {
	b.retryDelay = d
	return b
}
