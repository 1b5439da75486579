package kafka_client

import "time"

const (
	KAFKA_TOPIC_COMMENTS_RAW      = "comments-raw"      // scraped or imported comments, one per message
	KAFKA_TOPIC_SENTIMENT_RESULTS = "sentiment-results" // per-session summaries after analysis
)

const (
	MAX_RETRIES  = 5
	RETRY_DELAY  = 2 * time.Second
	POLL_TIMEOUT = 500 * time.Millisecond
)
