// Package metrics exposes Prometheus instrumentation for the ingest and
// retrieval pipelines. Collectors are registered on the default registry
// and served from /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesIngested counts messages stored from IMAP sync, labeled by folder.
	MessagesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inboxia_messages_ingested_total",
		Help: "Number of messages stored during ingestion",
	}, []string{"folder"})

	// ChunksEmbedded counts body chunks embedded and stored.
	ChunksEmbedded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inboxia_chunks_embedded_total",
		Help: "Number of message chunks embedded",
	})

	// ChatQueries counts retrieval-augmented chat requests.
	ChatQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inboxia_chat_queries_total",
		Help: "Number of chat queries answered",
	})

	// QueuePublishes counts events published to the broker, labeled by routing key.
	QueuePublishes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inboxia_queue_publishes_total",
		Help: "Number of events published to the message queue",
	}, []string{"routing_key"})

	// RetrievalDuration observes end-to-end retrieval latency in seconds.
	RetrievalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inboxia_retrieval_duration_seconds",
		Help:    "Latency of context retrieval for chat queries",
		Buckets: prometheus.DefBuckets,
	})
)
