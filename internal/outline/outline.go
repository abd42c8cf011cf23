// Package outline generates content plans from a topic using the Gemini API.
// The generator is shown the template's layout catalog so the plan it returns
// only names layouts that exist.
package outline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"google.golang.org/genai"

	"github.com/book-expert/deck-builder-service/internal/plan"
)

var (
	// ErrTopicRequired is returned when the request has no topic.
	ErrTopicRequired = errors.New("topic is required")
	// ErrEmptyResponse is returned when a model answers with no text.
	ErrEmptyResponse = errors.New("empty model response")
	// ErrAllModelsFailed is returned when every configured model has been
	// exhausted without producing a usable plan.
	ErrAllModelsFailed = errors.New("all models failed")
)

// Config holds the generator settings.
type Config struct {
	APIKey            string
	Models            []string
	Temperature       float64
	MaxRetries        int
	RetryDelaySeconds int
	TimeoutSeconds    int
}

// Request describes one outline to generate.
type Request struct {
	Topic        string
	SlideCount   int
	Instructions string
	LayoutGuide  string
}

// Generator produces content plans through the Gemini API.
type Generator struct {
	client *genai.Client
	logger *logger.Logger
	config Config
}

// NewGenerator creates a generator and its API client.
func NewGenerator(ctx context.Context, config Config, log *logger.Logger) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Generator{
		client: client,
		logger: log,
		config: config,
	}, nil
}

// GenerateOutline asks the configured models for a content plan, in order,
// retrying each before moving to the next. The first parseable plan wins.
func (g *Generator) GenerateOutline(ctx context.Context, request Request) (*plan.Plan, error) {
	if strings.TrimSpace(request.Topic) == "" {
		return nil, ErrTopicRequired
	}

	prompt := buildPrompt(request)

	var lastErr error

	for _, model := range g.config.Models {
		generated, err := g.tryModelWithRetries(ctx, model, prompt)
		if err == nil {
			return generated, nil
		}

		lastErr = err
		g.logger.Warnf("Model %s failed: %v", model, err)
	}

	return nil, fmt.Errorf("%w: %w", ErrAllModelsFailed, lastErr)
}

func (g *Generator) tryModelWithRetries(ctx context.Context, model, prompt string) (*plan.Plan, error) {
	var lastErr error

	for attempt := 1; attempt <= g.config.MaxRetries; attempt++ {
		generated, err := g.callModel(ctx, model, prompt)
		if err == nil {
			return generated, nil
		}

		lastErr = err

		if attempt < g.config.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("context done: %w", ctx.Err())
			case <-time.After(time.Duration(g.config.RetryDelaySeconds) * time.Second):
			}
		}
	}

	return nil, fmt.Errorf(
		"model %s failed after %d attempts: %w",
		model,
		g.config.MaxRetries,
		lastErr,
	)
}

func (g *Generator) callModel(ctx context.Context, model, prompt string) (*plan.Plan, error) {
	callCtx := ctx

	if g.config.TimeoutSeconds > 0 {
		var cancel context.CancelFunc

		callCtx, cancel = context.WithTimeout(ctx, time.Duration(g.config.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	response, err := g.client.Models.GenerateContent(
		callCtx,
		model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(g.config.Temperature)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := Sanitize(response.Text())
	if text == "" {
		return nil, ErrEmptyResponse
	}

	generated, err := plan.Parse([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("parse generated plan: %w", err)
	}

	return generated, nil
}
