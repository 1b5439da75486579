package consumers

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

func TestConsumerWrapperPassesHealthFlags(t *testing.T) {
	search := &atomic.Bool{}
	var got []*atomic.Bool

	base := WrapConsumer("comments", func(_ context.Context, _ *kafka.Consumer, health ...*atomic.Bool) {
		got = health
	})
	base.WithHealthCheck(search).WithHealthCheck(nil).Handler()(context.Background(), nil)

	if len(got) != 1 || got[0] != search {
		t.Fatalf("health flags = %v", got)
	}

	base.Handler()(context.Background(), nil)
	if len(got) != 0 {
		t.Errorf("base wrapper gained flags: %v", got)
	}
}

func TestConsumerWrapperRecoversPanic(t *testing.T) {
	handler := WrapConsumer("comments", func(context.Context, *kafka.Consumer, ...*atomic.Bool) {
		panic("boom")
	}).Handler()

	handler(context.Background(), nil)
}
