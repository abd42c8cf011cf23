// Package pipeline orchestrates the complete template → plan → deck flow: load
// the template, obtain a content plan (supplied or generated), assemble the
// slides and serialize the result.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/deck-builder-service/internal/assemble"
	"github.com/book-expert/deck-builder-service/internal/inspect"
	"github.com/book-expert/deck-builder-service/internal/outline"
	"github.com/book-expert/deck-builder-service/internal/plan"
	"github.com/book-expert/deck-builder-service/internal/pptx"
)

// ErrNoPlanSource indicates the request carried neither a plan nor a topic to
// generate one from.
var ErrNoPlanSource = errors.New("request has neither plan nor topic")

// OutlineGenerator produces a content plan for a topic.
type OutlineGenerator interface {
	GenerateOutline(ctx context.Context, request outline.Request) (*plan.Plan, error)
}

// Request describes one deck to build.
type Request struct {
	Topic        string
	SlideCount   int
	Instructions string
	// Plan, when non-empty, is used verbatim and no outline is generated.
	Plan []byte
}

// Pipeline builds decks from requests.
type Pipeline struct {
	generator OutlineGenerator
	assembler *assemble.Assembler
	logger    *logger.Logger
}

// New creates a pipeline. The generator may be nil when every request is
// expected to carry its own plan.
func New(generator OutlineGenerator, defaults assemble.Defaults, log *logger.Logger) *Pipeline {
	return &Pipeline{
		generator: generator,
		assembler: assemble.New(defaults),
		logger:    log,
	}
}

// Process builds one deck from template bytes and a request. It returns the
// serialized deck and the assembly report.
func (p *Pipeline) Process(
	ctx context.Context,
	templateData []byte,
	request Request,
) ([]byte, *assemble.Report, error) {
	startTime := time.Now()

	template, err := pptx.Load(templateData)
	if err != nil {
		return nil, nil, fmt.Errorf("load template: %w", err)
	}

	content, err := p.resolvePlan(ctx, template, request)
	if err != nil {
		return nil, nil, err
	}

	report := p.assembler.Assemble(template, content)

	for _, skipped := range report.Skipped {
		p.logger.Warnf("Entry %d (%q) skipped: %s", skipped.EntryIndex, skipped.Title, skipped.Reason)
	}

	for _, warning := range report.Warnings {
		p.logger.Warnf("Entry %d (%q): %s", warning.EntryIndex, warning.Title, warning.Message)
	}

	var buffer bytes.Buffer

	err = template.WriteTo(&buffer)
	if err != nil {
		return nil, nil, fmt.Errorf("serialize deck: %w", err)
	}

	p.logger.Successf(
		"Built deck: %d slides, %d skipped, %d warnings in %v",
		report.SlideCount,
		len(report.Skipped),
		len(report.Warnings),
		time.Since(startTime),
	)

	return buffer.Bytes(), report, nil
}

// resolvePlan prefers a supplied plan; otherwise the generator is asked, with
// the template's layout catalog as grounding.
func (p *Pipeline) resolvePlan(
	ctx context.Context,
	template *pptx.Template,
	request Request,
) (*plan.Plan, error) {
	if len(request.Plan) > 0 {
		parsed, err := plan.Parse(request.Plan)
		if err != nil {
			return nil, fmt.Errorf("supplied plan: %w", err)
		}

		return parsed, nil
	}

	if p.generator == nil || request.Topic == "" {
		return nil, ErrNoPlanSource
	}

	p.logger.Infof("Generating outline for topic %q (%d slides)", request.Topic, request.SlideCount)

	generated, err := p.generator.GenerateOutline(ctx, outline.Request{
		Topic:        request.Topic,
		SlideCount:   request.SlideCount,
		Instructions: request.Instructions,
		LayoutGuide:  inspect.Describe(inspect.Inspect(template)),
	})
	if err != nil {
		return nil, fmt.Errorf("generate outline: %w", err)
	}

	return generated, nil
}
