package kafka

import "github.com/marian-search/marian/pkg/config"

// Topic names one of Marian's logical event streams. NewConsumer/NewProducer
// take a Topic rather than an arbitrary string so a caller can only ever
// publish to or consume from a stream Marian actually knows about; the
// concrete Kafka topic name (environment-specific, e.g. "marian.search-events")
// is resolved from config at construction time.
type Topic string

const (
	// TopicSearchEvents carries one event per served search request.
	TopicSearchEvents Topic = "search-events"
	// TopicSyncComplete carries one event per manifest synced during a
	// coordinator sync cycle.
	TopicSyncComplete Topic = "sync-complete"
	// TopicCacheInvalidate carries cache-busting notices for the query
	// result cache, published whenever a sync cycle installs a new
	// index generation.
	TopicCacheInvalidate Topic = "cache-invalidate"
)

func (t Topic) resolve(topics config.KafkaTopics) string {
	switch t {
	case TopicSearchEvents:
		return topics.SearchEvents
	case TopicSyncComplete:
		return topics.SyncComplete
	case TopicCacheInvalidate:
		return topics.CacheInvalidate
	default:
		return string(t)
	}
}
