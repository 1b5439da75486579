package consumers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// StartFunc is a consumer loop. Health flags gate the side effects the loop
// performs on flush.
type StartFunc func(ctx context.Context, consumer *kafka.Consumer, health ...*atomic.Bool)

// ConsumerWrapper adapts a StartFunc to the handler signature the consumer
// registry expects.
type ConsumerWrapper struct {
	name   string
	start  StartFunc
	health []*atomic.Bool
}

func WrapConsumer(name string, start StartFunc) ConsumerWrapper {
	return ConsumerWrapper{name: name, start: start}
}

// WithHealthCheck adds a flag the loop consults before flushing. Nil flags
// are ignored.
func (cw ConsumerWrapper) WithHealthCheck(health *atomic.Bool) ConsumerWrapper {
	if health == nil {
		return cw
	}
	// copy so wrappers derived from the same base do not share a backing array
	flags := make([]*atomic.Bool, 0, len(cw.health)+1)
	cw.health = append(append(flags, cw.health...), health)
	return cw
}

func (cw ConsumerWrapper) Handler() func(ctx context.Context, consumer *kafka.Consumer) {
	return func(ctx context.Context, consumer *kafka.Consumer) {
		slog.Info("[ConsumerWrapper] Starting consumer",
			slog.String("consumer", cw.name),
			slog.Int("health_checks", len(cw.health)))

		defer func() {
			if r := recover(); r != nil {
				slog.Error("[ConsumerWrapper] Consumer panicked",
					slog.String("consumer", cw.name),
					slog.String("panic", fmt.Sprint(r)))
				return
			}
			slog.Info("[ConsumerWrapper] Consumer stopped", slog.String("consumer", cw.name))
		}()

		cw.start(ctx, consumer, cw.health...)
	}
}

func allHealthy(health []*atomic.Bool) bool {
	for _, h := range health {
		if h != nil && !h.Load() {
			return false
		}
	}
	return true
}
