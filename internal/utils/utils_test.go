package utils

import (
	"sync"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

func TestBatchBuffer(t *testing.T) {
	buf := NewBatchBuffer[string](2)

	if buf.HasData() || buf.GetAndClear() != nil {
		t.Fatal("new buffer should be empty")
	}

	buf.Add("a")
	if buf.Full() {
		t.Error("buffer with 1 of 2 items reported full")
	}
	buf.Add("b")
	if !buf.Full() {
		t.Error("buffer with 2 of 2 items reported not full")
	}

	peeked := buf.Peek()
	peeked[0] = "changed"

	batch := buf.GetAndClear()
	if len(batch) != 2 || batch[0] != "a" || batch[1] != "b" {
		t.Errorf("batch = %v", batch)
	}
	if buf.Size() != 0 {
		t.Errorf("size after clear = %d", buf.Size())
	}
}

func TestBatchBufferDefaultCapacity(t *testing.T) {
	buf := NewBatchBuffer[int](0)
	for i := 0; i < BATCH_SIZE-1; i++ {
		buf.Add(i)
	}
	if buf.Full() {
		t.Error("full before BATCH_SIZE items")
	}
	buf.Add(BATCH_SIZE)
	if !buf.Full() {
		t.Error("not full at BATCH_SIZE items")
	}
}

func TestBatchBufferConcurrentAdds(t *testing.T) {
	buf := NewBatchBuffer[int](10)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf.Add(i)
		}()
	}
	wg.Wait()

	if got := len(buf.GetAndClear()); got != 100 {
		t.Errorf("drained %d items, want 100", got)
	}
}

func trackedMessage(topic string, partition int32, offset int) *kafka.Message {
	return &kafka.Message{TopicPartition: kafka.TopicPartition{
		Topic:     &topic,
		Partition: partition,
		Offset:    kafka.Offset(offset),
	}}
}

func offsetsOf(msgs []*kafka.Message) []kafka.Offset {
	out := make([]kafka.Offset, len(msgs))
	for i, m := range msgs {
		out[i] = m.TopicPartition.Offset
	}
	return out
}

func TestMessageTrackerCommitsHighestResolved(t *testing.T) {
	tracker := NewMessageTracker()
	for i := 0; i < 3; i++ {
		tracker.Track(string(rune('a'+i)), trackedMessage("comments", 0, i))
	}

	tracker.Resolve("a")
	tracker.Resolve("b")

	got := tracker.Committable()
	if len(got) != 1 || got[0].TopicPartition.Offset != 1 {
		t.Fatalf("Committable = %v, want [1]", offsetsOf(got))
	}
	if got := tracker.Committable(); len(got) != 0 {
		t.Errorf("offsets handed out twice: %v", offsetsOf(got))
	}
	if tracker.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", tracker.Pending())
	}
}

func TestMessageTrackerBlocksBehindOpenOffset(t *testing.T) {
	tracker := NewMessageTracker()
	tracker.Track("a", trackedMessage("comments", 0, 0))
	tracker.Track("b", trackedMessage("comments", 0, 1))
	tracker.Track("c", trackedMessage("comments", 1, 0))

	tracker.Resolve("b")
	tracker.Resolve("c")

	got := tracker.Committable()
	if len(got) != 1 || got[0].TopicPartition.Partition != 1 {
		t.Fatalf("Committable = %v, want only partition 1", got)
	}

	tracker.Resolve("a")
	got = tracker.Committable()
	if len(got) != 1 || got[0].TopicPartition.Offset != 1 {
		t.Errorf("Committable = %v, want [1] once offset 0 is handled", offsetsOf(got))
	}
}

func TestMessageTrackerSkipAndRedelivery(t *testing.T) {
	tracker := NewMessageTracker()

	first := trackedMessage("comments", 0, 0)
	tracker.Track("k", first)
	tracker.Track("k", trackedMessage("comments", 0, 2))
	tracker.Skip(trackedMessage("comments", 0, 1))

	if !tracker.Resolve("k") {
		t.Fatal("Resolve should find the redelivered key")
	}
	if tracker.Resolve("k") {
		t.Error("key should be forgotten after Resolve")
	}

	got := tracker.Committable()
	if len(got) != 1 || got[0].TopicPartition.Offset != 2 {
		t.Errorf("Committable = %v, want [2]", offsetsOf(got))
	}
	if tracker.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", tracker.Pending())
	}
}

func TestDeserializeFromJSON(t *testing.T) {
	var v struct {
		Text string `json:"text"`
	}
	if err := DeserializeFromJSON([]byte(`{"text":"halo"}`), &v); err != nil || v.Text != "halo" {
		t.Errorf("v = %+v, err = %v", v, err)
	}
	if err := DeserializeFromJSON([]byte(`{`), &v); err == nil {
		t.Error("expected an error for truncated JSON")
	}
}
