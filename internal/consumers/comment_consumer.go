package consumers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/komentar/internal/clients/kafka_client"
	"github.com/spacesedan/komentar/internal/models"
	"github.com/spacesedan/komentar/internal/processing"
	"github.com/spacesedan/komentar/internal/utils"
)

// Time allowed for the last flush once the consumer is asked to stop.
const shutdownFlushTimeout = 30 * time.Second

type Committer interface {
	Commit(msg *kafka.Message) error
}

type PublishFunc func(ctx context.Context, topic string, key string, value any) error

// CommentConsumer buffers raw comments from Kafka and analyzes them in
// batches, one session per keyword.
type CommentConsumer struct {
	service *processing.Service
	publish PublishFunc
	buffer  *utils.BatchBuffer[models.Comment]
	tracker *utils.MessageTracker
}

func NewCommentConsumer(service *processing.Service, publish PublishFunc, batchSize int) *CommentConsumer {
	return &CommentConsumer{
		service: service,
		publish: publish,
		buffer:  utils.NewBatchBuffer[models.Comment](batchSize),
		tracker: utils.NewMessageTracker(),
	}
}

// Start consumes until ctx is done. Indexing is skipped for batches flushed
// while any health flag is down.
func (cc *CommentConsumer) Start(ctx context.Context, consumer *kafka.Consumer, health ...*atomic.Bool) {
	iterator := kafka_client.NewKafkaMessageIterator(ctx, consumer)

	commitCtx, stopCommits := context.WithCancel(context.WithoutCancel(ctx))
	defer stopCommits()
	committer := kafka_client.NewCommitHandler(commitCtx, consumer)

	slog.Info("[CommentConsumer] Listening for comments...")

	ticker := time.NewTicker(utils.BATCH_TIMEOUT)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Warn("[CommentConsumer] Stopping consumer...")
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
			cc.Flush(flushCtx, committer, health...)
			cancel()
			return
		case <-ticker.C:
			cc.Flush(ctx, committer, health...)
		default:
			msg, err := iterator.Next()
			if err != nil {
				utils.HandleConsumerError(err)
				continue
			}
			if msg == nil {
				continue
			}

			if err := cc.Handle(msg); err != nil {
				// Undecodable messages would be redelivered forever.
				cc.tracker.Skip(msg)
				cc.commitReady(committer)
				continue
			}

			if cc.buffer.Full() {
				cc.Flush(ctx, committer, health...)
			}
		}
	}
}

// Handle decodes one comment message and buffers it.
func (cc *CommentConsumer) Handle(msg *kafka.Message) error {
	var comment models.Comment
	if err := utils.DeserializeFromJSON(msg.Value, &comment); err != nil {
		return err
	}

	cc.tracker.Track(comment.Key(), msg)
	cc.buffer.Add(comment)
	return nil
}

// Flush analyzes everything buffered. A group that fails stays buffered for
// the next flush, and no offset at or past its messages is committed, so a
// restart redelivers it.
func (cc *CommentConsumer) Flush(ctx context.Context, committer Committer, health ...*atomic.Bool) {
	batch := cc.buffer.GetAndClear()
	if len(batch) == 0 {
		return
	}

	slog.Info("[CommentConsumer] Processing batch", slog.Int("batch_size", len(batch)))

	var opts []processing.RunOption
	if !allHealthy(health) {
		opts = append(opts, processing.SkipIndexing())
	}

	for _, group := range groupByKeyword(batch) {
		report, err := cc.service.Run(ctx, group.keyword, group.comments, videosFor(group.comments), opts...)
		if err != nil {
			slog.Error("[CommentConsumer] Failed to process batch",
				slog.String("keyword", group.keyword),
				slog.String("error", err.Error()))
			cc.retry(group.comments)
			continue
		}

		cc.publishResult(ctx, report)
		for _, comment := range group.comments {
			cc.tracker.Resolve(comment.Key())
		}
	}

	cc.commitReady(committer)
}

func (cc *CommentConsumer) publishResult(ctx context.Context, report processing.Report) {
	result := models.SessionResult{
		SessionID: report.SessionID,
		Keyword:   report.Keyword,
		Summary:   report.Summary,
		TopWords:  report.TopWords,
	}

	var err error
	for i := 0; i < 3; i++ {
		err = cc.publish(ctx, kafka_client.KAFKA_TOPIC_SENTIMENT_RESULTS, report.Keyword, result)
		if err == nil {
			return
		}
		slog.Warn("[CommentConsumer] Result publishing failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		time.Sleep(time.Second)
	}
}

// commitReady commits the handled offsets no failed message is waiting
// behind.
func (cc *CommentConsumer) commitReady(committer Committer) {
	for _, msg := range cc.tracker.Committable() {
		if err := committer.Commit(msg); err != nil {
			slog.Warn("[CommentConsumer] Failed to commit offset",
				slog.Int("partition", int(msg.TopicPartition.Partition)),
				slog.String("offset", msg.TopicPartition.Offset.String()),
				slog.String("error", err.Error()))
		}
	}
}

// retry puts a failed group back in the buffer. Its offsets stay open.
func (cc *CommentConsumer) retry(comments []models.Comment) {
	for _, comment := range comments {
		cc.buffer.Add(comment)
	}
	slog.Warn("[CommentConsumer] Group kept for the next flush",
		slog.Int("comments", len(comments)),
		slog.Int("pending_offsets", cc.tracker.Pending()))
}

type keywordGroup struct {
	keyword  string
	comments []models.Comment
}

// groupByKeyword splits a batch by keyword, keeping the order in which
// keywords and comments first appeared.
func groupByKeyword(comments []models.Comment) []keywordGroup {
	index := make(map[string]int)
	groups := []keywordGroup{}
	for _, c := range comments {
		i, ok := index[c.Keyword]
		if !ok {
			i = len(groups)
			index[c.Keyword] = i
			groups = append(groups, keywordGroup{keyword: c.Keyword})
		}
		groups[i].comments = append(groups[i].comments, c)
	}
	return groups
}

// videosFor records one video per distinct comment source URL.
func videosFor(comments []models.Comment) []models.Video {
	counts := make(map[string]int)
	order := []string{}
	for _, c := range comments {
		if c.VideoURL == "" {
			continue
		}
		if _, ok := counts[c.VideoURL]; !ok {
			order = append(order, c.VideoURL)
		}
		counts[c.VideoURL]++
	}

	videos := make([]models.Video, 0, len(order))
	for _, url := range order {
		videos = append(videos, models.DefaultVideo(url, counts[url]))
	}
	return videos
}
