package pipeline_test

import (
	"context"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/deck-builder-service/internal/assemble"
	"github.com/book-expert/deck-builder-service/internal/outline"
	"github.com/book-expert/deck-builder-service/internal/pipeline"
	"github.com/book-expert/deck-builder-service/internal/plan"
	"github.com/book-expert/deck-builder-service/internal/pptx"
	"github.com/book-expert/deck-builder-service/internal/pptx/pptxtest"
)

// mockGenerator is a mock implementation of the OutlineGenerator interface.
type mockGenerator struct {
	generateFunc func(ctx context.Context, request outline.Request) (*plan.Plan, error)
}

func (m *mockGenerator) GenerateOutline(
	ctx context.Context,
	request outline.Request,
) (*plan.Plan, error) {
	return m.generateFunc(ctx, request)
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	return log
}

func TestProcessWithSuppliedPlan(t *testing.T) {
	t.Parallel()

	generator := &mockGenerator{
		generateFunc: func(_ context.Context, _ outline.Request) (*plan.Plan, error) {
			t.Error("generator must not be called when a plan is supplied")

			return &plan.Plan{}, nil
		},
	}

	p := pipeline.New(generator, assemble.Standard, newTestLogger(t))

	deck, report, err := p.Process(context.Background(), pptxtest.TemplateBytes(t), pipeline.Request{
		Plan: []byte(`[
			{"layout_index": 1, "title": "Alpha", "content": ["a", "b"]},
			{"layout_index": 2, "title": "Beta", "content": "prose"}
		]`),
	})
	require.NoError(t, err)
	require.NotNil(t, report)

	// Cover plus two content slides.
	assert.Equal(t, 3, report.SlideCount)
	assert.Empty(t, report.Skipped)

	built, loadErr := pptx.Load(deck)
	require.NoError(t, loadErr)
	assert.Len(t, built.Layouts(), 4)
}

func TestProcessGeneratesOutlineWithLayoutGuide(t *testing.T) {
	t.Parallel()

	var seen outline.Request

	generator := &mockGenerator{
		generateFunc: func(_ context.Context, request outline.Request) (*plan.Plan, error) {
			seen = request

			return &plan.Plan{Entries: []plan.Entry{
				{LayoutIndex: 1, Title: "Generated", Content: plan.NewList("x")},
			}}, nil
		},
	}

	p := pipeline.New(generator, assemble.Standard, newTestLogger(t))

	_, report, err := p.Process(context.Background(), pptxtest.TemplateBytes(t), pipeline.Request{
		Topic:        "Test topic",
		SlideCount:   4,
		Instructions: "short",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.SlideCount)

	assert.Equal(t, "Test topic", seen.Topic)
	assert.Equal(t, 4, seen.SlideCount)
	assert.Equal(t, "short", seen.Instructions)
	assert.Contains(t, seen.LayoutGuide, "layout 1: Title and Content")
}

func TestProcessReportsWarningsWithTitles(t *testing.T) {
	t.Parallel()

	p := pipeline.New(nil, assemble.Standard, newTestLogger(t))

	_, report, err := p.Process(context.Background(), pptxtest.TemplateBytes(t), pipeline.Request{
		Plan: []byte(`[{"layout_index": 99, "title": "Wandering", "content": "text"}]`),
	})
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "Wandering", report.Warnings[0].Title)
	assert.Contains(t, report.Warnings[0].Message, "out of range")
}

func TestProcessWithoutPlanOrTopic(t *testing.T) {
	t.Parallel()

	p := pipeline.New(nil, assemble.Standard, newTestLogger(t))

	_, _, err := p.Process(context.Background(), pptxtest.TemplateBytes(t), pipeline.Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrNoPlanSource)
}

func TestProcessCorruptTemplate(t *testing.T) {
	t.Parallel()

	p := pipeline.New(nil, assemble.Standard, newTestLogger(t))

	_, _, err := p.Process(context.Background(), []byte("garbage"), pipeline.Request{
		Plan: []byte(`[]`),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, pptx.ErrTemplateLoad)
}

func TestProcessInvalidSuppliedPlan(t *testing.T) {
	t.Parallel()

	p := pipeline.New(nil, assemble.Standard, newTestLogger(t))

	_, _, err := p.Process(context.Background(), pptxtest.TemplateBytes(t), pipeline.Request{
		Plan: []byte("not json"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, plan.ErrPlanParse)
}
