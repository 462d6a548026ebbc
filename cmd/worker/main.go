package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"inboxia/internal/config"
	"inboxia/internal/database"
	"inboxia/internal/dedup"
	"inboxia/internal/indexer"
	"inboxia/internal/ingest"
	"inboxia/internal/provider"
	"inboxia/internal/queue"
	"inboxia/internal/scheduler"
	"inboxia/internal/store"
	"inboxia/internal/threads"
	"inboxia/internal/vectorindex"
)

// dedupTTL is how long a processed event id blocks redeliveries
const dedupTTL = 24 * time.Hour

func main() {
	cfg := config.Load()
	logger := cfg.SetupLogger()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database connection failed")
	}
	if err := database.CreateTables(db); err != nil {
		logger.Fatal().Err(err).Msg("Schema initialization failed")
	}

	p, err := provider.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Provider initialization failed")
	}
	index, err := vectorindex.New(cfg, db)
	if err != nil {
		logger.Fatal().Err(err).Msg("Vector index initialization failed")
	}

	producer, err := queue.NewProducer(cfg.AMQPURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Queue producer initialization failed")
	}
	defer producer.Close()

	accounts := store.NewAccountStore(db)
	folders := store.NewFolderStore(db)
	messages := store.NewMessageStore(db)
	threadStore := store.NewThreadStore(db)
	resolver := threads.NewResolver(messages, threadStore)

	ix := indexer.New(messages, index, p, cfg.EmbedMaxChars)
	ing := ingest.New(accounts, folders, messages, resolver, producer, ingest.DialIMAP)

	// Delivery dedup is optional; without Redis the consumers just rely on
	// their own idempotence.
	var deduper *dedup.Deduper
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid Redis URL")
		}
		deduper = dedup.New(redis.NewClient(opts), dedupTTL)
		logger.Info().Msg("Delivery dedup enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedConsumer, err := queue.NewConsumer(cfg.AMQPURL, queue.RoutingKeyMessageEmbed)
	if err != nil {
		logger.Fatal().Err(err).Msg("Embed consumer initialization failed")
	}
	defer embedConsumer.Close()
	embedConsumer.SetHandler(func(ctx context.Context, data json.RawMessage) error {
		var event queue.MessageEmbedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("failed to decode embed event: %w", err)
		}
		if deduper != nil && !deduper.AcquireOnce(ctx, "embed", event.EventID) {
			return nil
		}
		_, err := ix.IndexMessage(ctx, event.MessageID)
		return err
	})

	ingestConsumer, err := queue.NewConsumer(cfg.AMQPURL, queue.RoutingKeyAccountIngest)
	if err != nil {
		logger.Fatal().Err(err).Msg("Ingest consumer initialization failed")
	}
	defer ingestConsumer.Close()
	ingestConsumer.SetHandler(func(ctx context.Context, data json.RawMessage) error {
		var event queue.AccountIngestEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("failed to decode ingest event: %w", err)
		}
		if deduper != nil && !deduper.AcquireOnce(ctx, "ingest", event.EventID) {
			return nil
		}
		_, err := ing.IngestAccount(ctx, event.AccountID)
		return err
	})

	go func() {
		if err := embedConsumer.StartConsuming(ctx); err != nil {
			logger.Error().Err(err).Msg("Embed consumer stopped")
		}
	}()
	go func() {
		if err := ingestConsumer.StartConsuming(ctx); err != nil {
			logger.Error().Err(err).Msg("Ingest consumer stopped")
		}
	}()

	sched, err := scheduler.New(accounts, producer, cfg.IngestCron)
	if err != nil {
		logger.Fatal().Err(err).Msg("Scheduler initialization failed")
	}
	go sched.Run(ctx)

	logger.Info().Msg("Worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("Worker shutting down")
}
