// Package worker provides the NATS worker that turns deck requests into
// stored decks.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/deck-builder-service/internal/assemble"
	"github.com/book-expert/deck-builder-service/internal/events"
	"github.com/book-expert/deck-builder-service/internal/pipeline"
)

const (
	// NatsConnectTimeoutSeconds defines the timeout for NATS connection attempts.
	NatsConnectTimeoutSeconds = 10
	// NatsMaxReconnectAttempts defines the maximum number of reconnect attempts for NATS.
	NatsMaxReconnectAttempts = 5
	// NatsFetchMaxWaitSeconds defines the maximum time to wait for messages during a fetch operation.
	NatsFetchMaxWaitSeconds = 5
)

// DeckBuilder defines the interface for the deck building logic.
type DeckBuilder interface {
	Process(
		ctx context.Context,
		templateData []byte,
		request pipeline.Request,
	) ([]byte, *assemble.Report, error)
}

// Settings carries the worker's NATS wiring.
type Settings struct {
	URL                  string
	StreamName           string
	DeckRequestedSubject string
	DeckCreatedSubject   string
	DeadLetterSubject    string
	ConsumerName         string
	TemplateBucket       string
	DeckBucket           string
}

// NatsWorker manages the NATS connection and message consumption.
type NatsWorker struct {
	nc            *nats.Conn
	jetstream     nats.JetStreamContext
	templateStore nats.ObjectStore
	deckStore     nats.ObjectStore
	builder       DeckBuilder
	logger        *logger.Logger
	settings      Settings
}

// New connects to NATS, binds the object stores and returns a ready worker.
func New(settings Settings, builder DeckBuilder, log *logger.Logger) (*NatsWorker, error) {
	natsConn, err := nats.Connect(
		settings.URL,
		nats.Timeout(NatsConnectTimeoutSeconds*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(NatsMaxReconnectAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Infof("Connected to NATS server at %s", settings.URL)

	jetstream, err := natsConn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("get JetStream context: %w", err)
	}

	_, streamInfoErr := jetstream.StreamInfo(settings.StreamName)
	if streamInfoErr != nil {
		return nil, fmt.Errorf("stream '%s' not found: %w", settings.StreamName, streamInfoErr)
	}

	templateStore, err := jetstream.ObjectStore(settings.TemplateBucket)
	if err != nil {
		return nil, fmt.Errorf("bind template bucket '%s': %w", settings.TemplateBucket, err)
	}

	deckStore, err := jetstream.ObjectStore(settings.DeckBucket)
	if err != nil {
		return nil, fmt.Errorf("bind deck bucket '%s': %w", settings.DeckBucket, err)
	}

	return &NatsWorker{
		nc:            natsConn,
		jetstream:     jetstream,
		templateStore: templateStore,
		deckStore:     deckStore,
		builder:       builder,
		logger:        log,
		settings:      settings,
	}, nil
}

// Run starts the worker's message processing loop.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.jetstream.PullSubscribe(
		w.settings.DeckRequestedSubject,
		w.settings.ConsumerName,
		nats.BindStream(w.settings.StreamName),
	)
	if err != nil {
		return fmt.Errorf("pull subscribe: %w", err)
	}

	w.logger.Infof("Consumer '%s' is ready.", w.settings.ConsumerName)
	w.logger.Infof("Worker is running, listening for jobs on '%s'...", w.settings.DeckRequestedSubject)

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Context canceled, worker shutting down.")

			return nil
		default:
			msgs, fetchErr := sub.Fetch(1, nats.MaxWait(NatsFetchMaxWaitSeconds*time.Second))
			if fetchErr != nil {
				if errors.Is(fetchErr, nats.ErrTimeout) {
					continue // No messages, just loop again.
				}

				w.logger.Errorf("Fetch messages: %v", fetchErr)

				continue
			}

			if len(msgs) > 0 {
				w.handleMsg(ctx, msgs[0])
			}
		}
	}
}

// Close drains the NATS connection.
func (w *NatsWorker) Close() {
	err := w.nc.Drain()
	if err != nil {
		w.logger.Errorf("failed to drain NATS connection: %v", err)
	}
}

func (w *NatsWorker) handleMsg(ctx context.Context, msg *nats.Msg) {
	startTime := time.Now()

	metaErr := w.checkMessageMetadata(msg)
	if metaErr != nil {
		w.handleMessageMetadataError(msg, metaErr)

		return
	}

	var event events.DeckRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.handleMessageMetadataError(
			msg,
			fmt.Errorf("failed to unmarshal DeckRequestedEvent: %w", err),
		)

		return
	}

	w.logger.Infof("Processing deck request for template: %s", event.TemplateKey)

	deckKey, processErr := w.buildAndPublishDeck(ctx, &event)
	if processErr != nil {
		w.handleMessagePipelineError(msg, event.TemplateKey, processErr)

		return
	}

	w.logger.Successf(
		"Built deck from %s and published DeckCreatedEvent with DeckKey %s in %s",
		event.TemplateKey, deckKey, time.Since(startTime),
	)

	ackErr := msg.Ack()
	if ackErr != nil {
		w.logger.Errorf(
			"failed to acknowledge successful message for template %s: %v",
			event.TemplateKey,
			ackErr,
		)
	}
}

func (w *NatsWorker) buildAndPublishDeck(
	ctx context.Context,
	event *events.DeckRequestedEvent,
) (string, error) {
	templateData, err := w.fetchTemplate(event.TemplateKey)
	if err != nil {
		return "", err
	}

	deckData, report, err := w.builder.Process(ctx, templateData, pipeline.Request{
		Topic:        event.Topic,
		SlideCount:   event.SlideCount,
		Instructions: event.Instructions,
		Plan:         event.Plan,
	})
	if err != nil {
		return "", fmt.Errorf("pipeline failed for '%s': %w", event.TemplateKey, err)
	}

	deckKey := fmt.Sprintf(
		"%s/%s/deck_%s.pptx",
		event.Header.TenantID,
		event.Header.WorkflowID,
		uuid.NewString(),
	)

	_, uploadErr := w.deckStore.Put(&nats.ObjectMeta{
		Name:        deckKey,
		Description: fmt.Sprintf("Deck built from template: %s", event.TemplateKey),
		Headers:     nil,
		Metadata:    nil,
		Opts:        nil,
	}, bytes.NewReader(deckData))
	if uploadErr != nil {
		return "", fmt.Errorf("failed to upload deck to object store: %w", uploadErr)
	}

	createdEvent := events.DeckCreatedEvent{
		Header:      event.Header,
		TemplateKey: event.TemplateKey,
		DeckKey:     deckKey,
		SlideCount:  report.SlideCount,
		Skipped:     report.Skipped,
		Warnings:    report.Warnings,
	}

	eventJSON, marshalErr := json.Marshal(createdEvent)
	if marshalErr != nil {
		return "", fmt.Errorf("failed to marshal DeckCreatedEvent: %w", marshalErr)
	}

	_, publishErr := w.jetstream.Publish(w.settings.DeckCreatedSubject, eventJSON)
	if publishErr != nil {
		return "", fmt.Errorf("failed to publish DeckCreatedEvent: %w", publishErr)
	}

	return deckKey, nil
}

func (w *NatsWorker) fetchTemplate(templateKey string) ([]byte, error) {
	templateObject, err := w.templateStore.Get(templateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get template '%s' from object store: %w", templateKey, err)
	}

	defer func() {
		closeErr := templateObject.Close()
		if closeErr != nil {
			w.logger.Errorf("failed to close template object: %v", closeErr)
		}
	}()

	templateData, err := io.ReadAll(templateObject)
	if err != nil {
		return nil, fmt.Errorf("failed to read template data for '%s': %w", templateKey, err)
	}

	return templateData, nil
}

func (w *NatsWorker) checkMessageMetadata(msg *nats.Msg) error {
	_, metaErr := msg.Metadata()
	if metaErr != nil {
		return fmt.Errorf("failed to get message metadata: %w", metaErr)
	}

	return nil
}

func (w *NatsWorker) handleMessageMetadataError(msg *nats.Msg, metaErr error) {
	w.logger.Errorf(
		"Failed to get message metadata: %v. Acknowledging to discard.",
		metaErr,
	)

	ackErr := msg.Ack()
	if ackErr != nil {
		w.logger.Errorf("failed to acknowledge message: %v", ackErr)
	}
}

func (w *NatsWorker) handleMessagePipelineError(msg *nats.Msg, templateKey string, pipelineErr error) {
	w.logger.Errorf("Pipeline failed for '%s': %v", templateKey, pipelineErr)

	_, pubErr := w.jetstream.Publish(w.settings.DeadLetterSubject, msg.Data)
	if pubErr != nil {
		w.logger.Errorf(
			"Failed to publish message to dead-letter subject for template %s: %v",
			templateKey,
			pubErr,
		)
	}

	ackErr := msg.Ack()
	if ackErr != nil {
		w.logger.Errorf(
			"failed to acknowledge failed message for template %s: %v",
			templateKey,
			ackErr,
		)
	}
}
