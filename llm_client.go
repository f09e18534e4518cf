package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-pro"

// maxPendingDigestEntries caps what is kept while digests keep failing.
const maxPendingDigestEntries = 100

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type digestEntry struct {
	entry SlowlogEntry
	at    time.Time
}

// LLMClient accumulates reported entries and periodically asks Gemini for a
// markdown digest of them.
type LLMClient struct {
	models     contentGenerator
	modelName  string
	outputFile string
	every      int
	pending    []digestEntry
}

func NewLLMClient(models contentGenerator, modelName, outputFile string, every int) *LLMClient {
	if modelName == "" {
		modelName = defaultModel
	}
	if every <= 0 {
		every = 1
	}
	return &LLMClient{
		models:     models,
		modelName:  modelName,
		outputFile: outputFile,
		every:      every,
	}
}

func NewGeminiLLMClient(ctx context.Context, cfg *Config) (*LLMClient, error) {
	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return NewLLMClient(geminiClient.Models, cfg.GeminiModel, cfg.DigestOutputFile, cfg.DigestEvery), nil
}

func (c *LLMClient) Emit(_ context.Context, entry SlowlogEntry, at time.Time) error {
	c.pending = append(c.pending, digestEntry{entry: entry, at: at})
	if over := len(c.pending) - maxPendingDigestEntries; over > 0 {
		c.pending = c.pending[over:]
	}
	return nil
}

func (c *LLMClient) Pending() int {
	return len(c.pending)
}

// GenerateDigest writes a digest once enough entries are pending. It
// reports whether a digest was written. Pending entries survive a failure.
func (c *LLMClient) GenerateDigest(ctx context.Context) (bool, error) {
	if len(c.pending) < c.every {
		return false, nil
	}
	prompt := GetSlowlogDigestPrompt(c.pending)
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, "user"),
	}
	response, err := c.models.GenerateContent(ctx, c.modelName, contents, nil)
	if err != nil {
		return false, fmt.Errorf("failed to generate slowlog digest: %w", err)
	}
	if err := os.WriteFile(c.outputFile, []byte(response.Text()), 0o644); err != nil {
		return false, fmt.Errorf("failed to write slowlog digest: %w", err)
	}
	Logger.WithFields(logrus.Fields{
		"outputFile": c.outputFile,
		"entries":    len(c.pending),
	}).Info("Slowlog digest written to the filesystem")
	c.pending = nil
	return true, nil
}
