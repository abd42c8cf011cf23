// ./cmd/deck-builder-service/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/deck-builder-service/internal/assemble"
	"github.com/book-expert/deck-builder-service/internal/config"
	"github.com/book-expert/deck-builder-service/internal/outline"
	"github.com/book-expert/deck-builder-service/internal/pipeline"
	"github.com/book-expert/deck-builder-service/internal/worker"
)

func main() {
	// A temporary logger for the bootstrap process
	log, err := logger.New(os.TempDir(), "deck-builder-bootstrap.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create bootstrap logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load("", log)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize the final logger based on the loaded configuration
	log, err = logger.New(cfg.Service.LogDir, "deck-builder-service.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create final logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	apiKey := cfg.GetAPIKey()
	if apiKey == "" {
		log.Fatalf(
			"Failed to get API key. Ensure %s is set.",
			cfg.LLM.APIKeyEnvironmentVariable,
		)
	}

	generator, err := outline.NewGenerator(ctx, outline.Config{
		APIKey:            apiKey,
		Models:            cfg.LLM.Models,
		Temperature:       cfg.LLM.Temperature,
		MaxRetries:        cfg.LLM.MaxRetries,
		RetryDelaySeconds: cfg.LLM.RetryDelaySeconds,
		TimeoutSeconds:    cfg.LLM.TimeoutSeconds,
	}, log)
	if err != nil {
		log.Fatalf("Failed to initialize outline generator: %v", err)
	}

	mainPipeline := pipeline.New(generator, assemble.Defaults{
		FallbackLayoutIndex: *cfg.Deck.FallbackLayoutIndex,
		CoverLayoutIndex:    *cfg.Deck.CoverLayoutIndex,
		BodyFontSizePoints:  *cfg.Deck.BodyFontSizePoints,
	}, log)

	natsWorker, err := worker.New(worker.Settings{
		URL:                  cfg.NATS.URL,
		StreamName:           cfg.NATS.StreamName,
		DeckRequestedSubject: cfg.NATS.DeckRequestedSubject,
		DeckCreatedSubject:   cfg.NATS.DeckCreatedSubject,
		DeadLetterSubject:    cfg.NATS.DeadLetterSubject,
		ConsumerName:         cfg.NATS.ConsumerName,
		TemplateBucket:       cfg.NATS.TemplateBucket,
		DeckBucket:           cfg.NATS.DeckBucket,
	}, mainPipeline, log)
	if err != nil {
		log.Fatalf("Failed to initialize NATS worker: %v", err)
	}

	go func() {
		log.Infof("Starting NATS worker...")

		runErr := natsWorker.Run(ctx)
		if runErr != nil {
			log.Errorf("NATS worker stopped with error: %v", runErr)
			cancel()
		}
	}()

	<-sigChan
	log.Infof("Shutdown signal received, gracefully shutting down...")
	cancel()
	natsWorker.Close()
	time.Sleep(2 * time.Second)
	log.Infof("Shutdown complete.")
}
