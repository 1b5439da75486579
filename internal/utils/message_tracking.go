package utils

import (
	"sort"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

type partition struct {
	topic string
	id    int32
}

func partitionOf(msg *kafka.Message) partition {
	p := partition{id: msg.TopicPartition.Partition}
	if msg.TopicPartition.Topic != nil {
		p.topic = *msg.TopicPartition.Topic
	}
	return p
}

// MessageTracker remembers which Kafka message delivered each comment and
// which offsets are still waiting to be handled. Kafka commits a partition up
// to an offset, so a handled message is only released for commit once every
// earlier offset on its partition has been handled too.
type MessageTracker struct {
	mu       sync.Mutex
	byKey    map[string]*kafka.Message
	open     map[partition]map[kafka.Offset]struct{}
	resolved map[partition]map[kafka.Offset]*kafka.Message
}

func NewMessageTracker() *MessageTracker {
	return &MessageTracker{
		byKey:    make(map[string]*kafka.Message),
		open:     make(map[partition]map[kafka.Offset]struct{}),
		resolved: make(map[partition]map[kafka.Offset]*kafka.Message),
	}
}

// Track records msg as the carrier of key and marks its offset open. A
// redelivered key replaces the earlier message, whose offset is resolved.
func (t *MessageTracker) Track(key string, msg *kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.byKey[key]; ok && prev != msg {
		t.resolveLocked(prev)
	}
	t.byKey[key] = msg

	p := partitionOf(msg)
	if t.open[p] == nil {
		t.open[p] = make(map[kafka.Offset]struct{})
	}
	t.open[p][msg.TopicPartition.Offset] = struct{}{}
}

// Resolve marks the message tracked under key as handled. It reports whether
// key was tracked.
func (t *MessageTracker) Resolve(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg, ok := t.byKey[key]
	if !ok {
		return false
	}
	delete(t.byKey, key)
	t.resolveLocked(msg)
	return true
}

// Skip marks a message that carries no comment as handled.
func (t *MessageTracker) Skip(msg *kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resolveLocked(msg)
}

func (t *MessageTracker) resolveLocked(msg *kafka.Message) {
	p := partitionOf(msg)
	delete(t.open[p], msg.TopicPartition.Offset)
	if len(t.open[p]) == 0 {
		delete(t.open, p)
	}
	if t.resolved[p] == nil {
		t.resolved[p] = make(map[kafka.Offset]*kafka.Message)
	}
	t.resolved[p][msg.TopicPartition.Offset] = msg
}

// Committable returns, per partition, the highest handled message that has
// no open offset before it, and forgets every handled offset it covers.
func (t *MessageTracker) Committable() []*kafka.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []*kafka.Message
	for p, resolved := range t.resolved {
		lowestOpen, blocked := t.lowestOpenLocked(p)

		var best *kafka.Message
		for offset, msg := range resolved {
			if blocked && offset >= lowestOpen {
				continue
			}
			if best == nil || offset > best.TopicPartition.Offset {
				best = msg
			}
			delete(resolved, offset)
		}
		if len(resolved) == 0 {
			delete(t.resolved, p)
		}
		if best != nil {
			out = append(out, best)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		pi, pj := partitionOf(out[i]), partitionOf(out[j])
		if pi.topic != pj.topic {
			return pi.topic < pj.topic
		}
		return pi.id < pj.id
	})
	return out
}

func (t *MessageTracker) lowestOpenLocked(p partition) (kafka.Offset, bool) {
	var lowest kafka.Offset
	found := false
	for offset := range t.open[p] {
		if !found || offset < lowest {
			lowest = offset
			found = true
		}
	}
	return lowest, found
}

// Pending reports how many offsets are still open.
func (t *MessageTracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, offsets := range t.open {
		n += len(offsets)
	}
	return n
}
