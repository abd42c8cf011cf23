// Package config loads the service configuration from project.toml and fills
// in defaults for everything the file leaves unset. Secrets never live in the
// file; the API key is resolved from the environment at runtime.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/logger"
	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFilename is used when no path is given.
const DefaultConfigFilename = "project.toml"

// Config is the full service configuration.
type Config struct {
	Service ServiceSettings `toml:"service"`
	LLM     LLMSettings     `toml:"llm"`
	NATS    NATSSettings    `toml:"nats"`
	Deck    DeckSettings    `toml:"deck"`
}

// ServiceSettings configure the process itself.
type ServiceSettings struct {
	LogDir string `toml:"log_dir"`
}

// LLMSettings configure the outline generator.
type LLMSettings struct {
	APIKeyEnvironmentVariable string   `toml:"api_key_variable"`
	Models                    []string `toml:"models"`
	MaxRetries                int      `toml:"max_retries"`
	RetryDelaySeconds         int      `toml:"retry_delay_seconds"`
	TimeoutSeconds            int      `toml:"timeout_seconds"`
	Temperature               float64  `toml:"temperature"`
}

// NATSSettings configure messaging and object storage.
type NATSSettings struct {
	URL                  string `toml:"url"`
	StreamName           string `toml:"stream"`
	DeckRequestedSubject string `toml:"deck_requested_subject"`
	DeckCreatedSubject   string `toml:"deck_created_subject"`
	DeadLetterSubject    string `toml:"dead_letter_subject"`
	ConsumerName         string `toml:"consumer"`
	TemplateBucket       string `toml:"template_bucket"`
	DeckBucket           string `toml:"deck_bucket"`
}

// DeckSettings configure the assembler. The fields are pointers so an absent
// key can be told apart from an explicit zero, which is a valid layout index.
type DeckSettings struct {
	FallbackLayoutIndex *int `toml:"fallback_layout_index"`
	CoverLayoutIndex    *int `toml:"cover_layout_index"`
	BodyFontSizePoints  *int `toml:"body_font_size_points"`
}

// Load reads and decodes the configuration file, then applies defaults.
func Load(filePath string, loggerInstance *logger.Logger) (*Config, error) {
	if filePath == "" {
		filePath = DefaultConfigFilename
	}

	configFile, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file '%s': %w", filePath, err)
	}

	defer func() {
		closeErr := configFile.Close()
		if closeErr != nil && loggerInstance != nil {
			loggerInstance.Warnf("Failed to close config file: %v", closeErr)
		}
	}()

	var configuration Config

	decoder := toml.NewDecoder(configFile)

	err = decoder.Decode(&configuration)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TOML configuration: %w", err)
	}

	configuration.applyDefaults()

	return &configuration, nil
}

func (c *Config) applyDefaults() {
	if c.Service.LogDir == "" {
		c.Service.LogDir = os.TempDir()
	}

	if c.LLM.APIKeyEnvironmentVariable == "" {
		c.LLM.APIKeyEnvironmentVariable = "GEMINI_API_KEY"
	}

	if len(c.LLM.Models) == 0 {
		c.LLM.Models = []string{"gemini-2.5-flash"}
	}

	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 3
	}

	if c.LLM.RetryDelaySeconds == 0 {
		c.LLM.RetryDelaySeconds = 5
	}

	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 120
	}

	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.4
	}

	if c.NATS.URL == "" {
		c.NATS.URL = "nats://127.0.0.1:4222"
	}

	if c.NATS.StreamName == "" {
		c.NATS.StreamName = "DECKS"
	}

	if c.NATS.DeckRequestedSubject == "" {
		c.NATS.DeckRequestedSubject = "decks.requested"
	}

	if c.NATS.DeckCreatedSubject == "" {
		c.NATS.DeckCreatedSubject = "decks.created"
	}

	if c.NATS.DeadLetterSubject == "" {
		c.NATS.DeadLetterSubject = "decks.dlq"
	}

	if c.NATS.ConsumerName == "" {
		c.NATS.ConsumerName = "deck-builder"
	}

	if c.NATS.TemplateBucket == "" {
		c.NATS.TemplateBucket = "deck-templates"
	}

	if c.NATS.DeckBucket == "" {
		c.NATS.DeckBucket = "decks"
	}

	if c.Deck.FallbackLayoutIndex == nil {
		c.Deck.FallbackLayoutIndex = intValue(1)
	}

	if c.Deck.CoverLayoutIndex == nil {
		c.Deck.CoverLayoutIndex = intValue(2)
	}

	if c.Deck.BodyFontSizePoints == nil {
		c.Deck.BodyFontSizePoints = intValue(18)
	}
}

func intValue(value int) *int {
	return &value
}

// GetAPIKey resolves the LLM API key from the environment.
func (c *Config) GetAPIKey() string {
	return os.Getenv(c.LLM.APIKeyEnvironmentVariable)
}

// GetLogFilePath joins the configured log directory with a file name.
func (c *Config) GetLogFilePath(filename string) string {
	return filepath.Join(c.Service.LogDir, filename)
}
