// Package llm calls the configured language model for structured
// extraction (content analysis, intent, explanations), retrying
// transient failures and treating a response that is not valid JSON as a
// distinct failure mode from an unreachable model.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"google.golang.org/genai"

	"github.com/codenerd-labs/bookmarkd/internal/apperr"
	"github.com/codenerd-labs/bookmarkd/internal/logging"
)

// Client calls a model and returns JSON matching the given schema.
type Client interface {
	Call(ctx context.Context, apiKey, prompt string, schema *Schema) (json.RawMessage, error)
}

// GenAIClient is the Google GenAI-backed Client implementation. It is
// the default and only backend wired in, matching the single LLM
// provider the embedding package also supports.
type GenAIClient struct {
	defaultAPIKey string
	model         string
	timeout       time.Duration
	maxRetries    int
}

// Config configures a GenAIClient.
type Config struct {
	DefaultAPIKey  string
	Model          string
	TimeoutSeconds int
	MaxRetries     int
}

// New builds a GenAIClient from cfg, filling in sensible defaults.
func New(cfg Config) *GenAIClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GenAIClient{defaultAPIKey: cfg.DefaultAPIKey, model: model, timeout: timeout, maxRetries: retries}
}

// Call invokes the model with prompt, constraining its output to schema
// as JSON. apiKey overrides the process default when non-empty, letting
// a user's own key be used for their own requests. If the response is
// not valid JSON the call is retried once with a stricter reminder
// appended to the prompt; a second invalid response surfaces as
// apperr.LLMUnstructured. Valid JSON is returned without checking its
// fields against schema.
func (c *GenAIClient) Call(ctx context.Context, apiKey, prompt string, schema *Schema) (json.RawMessage, error) {
	timer := logging.StartTimer(logging.CategoryLLM, "Call")
	defer timer.Stop()

	key := apiKey
	if key == "" {
		key = c.defaultAPIKey
	}
	if key == "" {
		return nil, apperr.LLMUnavailable("no API key configured", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key})
	if err != nil {
		return nil, apperr.LLMUnavailable("create genai client", err)
	}

	raw, err := c.callWithRetry(ctx, client, prompt, schema)
	if err != nil {
		return nil, err
	}

	if !json.Valid(raw) {
		raw, err = c.callWithRetry(ctx, client, prompt+"\n\nRespond with ONLY valid JSON matching the schema, no prose.", schema)
		if err != nil {
			return nil, err
		}
		if !json.Valid(raw) {
			return nil, apperr.LLMUnstructured("model did not return valid JSON", nil)
		}
	}

	return raw, nil
}

func (c *GenAIClient) callWithRetry(ctx context.Context, client *genai.Client, prompt string, schema *Schema) (json.RawMessage, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * 200 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, apperr.LLMTimeout("context cancelled during retry backoff", ctx.Err())
			case <-time.After(backoff):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := client.Models.GenerateContent(callCtx, c.model,
			[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
			&genai.GenerateContentConfig{
				ResponseMIMEType: "application/json",
				ResponseSchema:   schema.toGenAI(),
			})
		cancel()

		if err != nil {
			lastErr = err
			logging.Get(logging.CategoryLLM).Warn("generate content attempt %d failed: %v", attempt+1, err)
			continue
		}

		text := resp.Text()
		if text == "" {
			lastErr = fmt.Errorf("empty response")
			continue
		}
		return json.RawMessage(text), nil
	}

	if ctx.Err() != nil {
		return nil, apperr.LLMTimeout("llm call timed out", lastErr)
	}
	return nil, apperr.LLMUnavailable(fmt.Sprintf("llm call failed after %d attempts", c.maxRetries), lastErr)
}
