package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"inboxia/internal/config"
	"inboxia/internal/database"
	"inboxia/internal/ingest"
	"inboxia/internal/queue"
	"inboxia/internal/store"
	"inboxia/internal/threads"
)

// One-shot mailbox sync for a single account; embedding still goes through
// the worker.
func main() {
	accountID := flag.Int("account", 0, "Mail account id to sync")
	flag.Parse()

	if *accountID <= 0 {
		fmt.Fprintln(os.Stderr, "usage: ingest -account <id>")
		os.Exit(2)
	}

	cfg := config.Load()
	logger := cfg.SetupLogger()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database connection failed")
	}
	if err := database.CreateTables(db); err != nil {
		logger.Fatal().Err(err).Msg("Schema initialization failed")
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

	ing := ingest.New(accounts, folders, messages, resolver, producer, ingest.DialIMAP)

	stored, err := ing.IngestAccount(context.Background(), *accountID)
	if err != nil {
		logger.Fatal().Err(err).Int("account_id", *accountID).Msg("Ingestion failed")
	}
	logger.Info().Int("account_id", *accountID).Int("stored", stored).Msg("Ingestion complete")
}
