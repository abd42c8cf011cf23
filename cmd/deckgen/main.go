// deckgen is the one-shot companion to the service: it inspects templates and
// builds decks from local files, without NATS in the loop.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/book-expert/logger"
	"github.com/spf13/cobra"

	"github.com/book-expert/deck-builder-service/internal/assemble"
	"github.com/book-expert/deck-builder-service/internal/inspect"
	"github.com/book-expert/deck-builder-service/internal/outline"
	"github.com/book-expert/deck-builder-service/internal/pipeline"
	"github.com/book-expert/deck-builder-service/internal/pptx"
)

var errAPIKeyMissing = errors.New("API key environment variable is not set")

var rootCmd = &cobra.Command{
	Use:          "deckgen",
	Short:        "Inspect PowerPoint templates and build decks from content plans",
	SilenceUsage: true,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List a template's layouts and placeholders",
	RunE:  runInspect,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a deck from a plan file or a generated outline",
	RunE:  runBuild,
}

var (
	flagTemplate     string
	flagJSON         bool
	flagOut          string
	flagPlan         string
	flagTopic        string
	flagSlides       int
	flagInstructions string
	flagModel        string
	flagAPIKeyEnv    string
)

func init() {
	inspectCmd.Flags().StringVar(&flagTemplate, "template", "", "path to the .pptx template (required)")
	inspectCmd.Flags().BoolVar(&flagJSON, "json", false, "emit the layout catalog as JSON")
	_ = inspectCmd.MarkFlagRequired("template")

	buildCmd.Flags().StringVar(&flagTemplate, "template", "", "path to the .pptx template (required)")
	buildCmd.Flags().StringVar(&flagOut, "out", "deck.pptx", "output path for the built deck")
	buildCmd.Flags().StringVar(&flagPlan, "plan", "", "path to a content plan JSON file; skips outline generation")
	buildCmd.Flags().StringVar(&flagTopic, "topic", "", "topic to generate an outline for")
	buildCmd.Flags().IntVar(&flagSlides, "slides", 8, "number of slides to ask for")
	buildCmd.Flags().StringVar(&flagInstructions, "instructions", "", "extra guidance for the outline")
	buildCmd.Flags().StringVar(&flagModel, "model", "gemini-2.5-flash", "model used for outline generation")
	buildCmd.Flags().StringVar(&flagAPIKeyEnv, "api-key-env", "GEMINI_API_KEY", "environment variable holding the API key")
	_ = buildCmd.MarkFlagRequired("template")

	rootCmd.AddCommand(inspectCmd, buildCmd)
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func runInspect(cmd *cobra.Command, _ []string) error {
	template, err := pptx.Open(flagTemplate)
	if err != nil {
		return fmt.Errorf("open template: %w", err)
	}

	descriptions := inspect.Inspect(template)

	if flagJSON {
		encoded, marshalErr := json.MarshalIndent(descriptions, "", "  ")
		if marshalErr != nil {
			return fmt.Errorf("encode layout catalog: %w", marshalErr)
		}

		cmd.Println(string(encoded))

		return nil
	}

	cmd.Print(inspect.Describe(descriptions))

	return nil
}

func runBuild(cmd *cobra.Command, _ []string) error {
	log, err := logger.New(os.TempDir(), "deckgen.log")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	templateData, err := os.ReadFile(flagTemplate)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	request := pipeline.Request{
		Topic:        flagTopic,
		SlideCount:   flagSlides,
		Instructions: flagInstructions,
	}

	var generator pipeline.OutlineGenerator

	if flagPlan != "" {
		planData, readErr := os.ReadFile(flagPlan)
		if readErr != nil {
			return fmt.Errorf("read plan: %w", readErr)
		}

		request.Plan = planData
	} else {
		generator, err = newGenerator(cmd.Context(), log)
		if err != nil {
			return err
		}
	}

	deckData, report, err := pipeline.New(generator, assemble.Standard, log).
		Process(cmd.Context(), templateData, request)
	if err != nil {
		return fmt.Errorf("build deck: %w", err)
	}

	built, err := pptx.Load(deckData)
	if err != nil {
		return fmt.Errorf("reopen built deck: %w", err)
	}

	err = built.Save(flagOut)
	if err != nil {
		return fmt.Errorf("save deck: %w", err)
	}

	cmd.Printf("Wrote %s: %d slides, %d skipped, %d warnings\n",
		flagOut, report.SlideCount, len(report.Skipped), len(report.Warnings))

	for _, skipped := range report.Skipped {
		cmd.Printf("  skipped entry %d (%q): %s\n", skipped.EntryIndex, skipped.Title, skipped.Reason)
	}

	for _, warning := range report.Warnings {
		cmd.Printf("  warning entry %d (%q): %s\n", warning.EntryIndex, warning.Title, warning.Message)
	}

	return nil
}

func newGenerator(ctx context.Context, log *logger.Logger) (*outline.Generator, error) {
	apiKey := os.Getenv(flagAPIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s", errAPIKeyMissing, flagAPIKeyEnv)
	}

	generator, err := outline.NewGenerator(ctx, outline.Config{
		APIKey:            apiKey,
		Models:            []string{flagModel},
		Temperature:       0.4,
		MaxRetries:        3,
		RetryDelaySeconds: 5,
		TimeoutSeconds:    120,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("create outline generator: %w", err)
	}

	return generator, nil
}
