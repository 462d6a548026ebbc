package main

import (
	"inboxia/internal/auth"
	"inboxia/internal/compose"
	"inboxia/internal/config"
	"inboxia/internal/database"
	"inboxia/internal/provider"
	"inboxia/internal/queue"
	"inboxia/internal/retrieval"
	"inboxia/internal/server"
	"inboxia/internal/store"
	"inboxia/internal/threads"
	"inboxia/internal/vectorindex"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := cfg.SetupLogger()

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database connection failed")
	}
	if err := database.CreateTables(db); err != nil {
		logger.Fatal().Err(err).Msg("Schema initialization failed")
	}
	logger.Info().Msg("Database connection established successfully")

	// Select the LLM provider and vector backend
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

	var transport compose.Transport
	if cfg.SendGridAPIKey != "" {
		transport = compose.NewSendGridTransport(cfg.SendGridAPIKey)
	}

	deps := server.Deps{
		Auth:      auth.New(accounts, cfg.JWTSecret),
		Provider:  p,
		Retriever: retrieval.New(p, index, messages, cfg.RetrievalTopK),
		Compose:   compose.New(p, accounts, folders, messages, resolver, producer, transport),
		Producer:  producer,
		Accounts:  accounts,
		Folders:   folders,
		Messages:  messages,
		Threads:   threadStore,
	}

	// Create and initialize server
	srv := server.New(cfg, db, logger, deps)
	srv.Initialize()

	// Start server
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed to start")
	}
}
