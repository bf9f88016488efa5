package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docuchat/docuchat/internal/domain"
)

const defaultGenerateTimeout = 5 * time.Minute

// OllamaClient wraps the Ollama generate API.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaClient creates a new Ollama completion client.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: defaultGenerateTimeout,
		},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

// Generate returns the full completion for the prompt.
func (c *OllamaClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	var result strings.Builder
	err := c.stream(ctx, system, prompt, func(chunk string) {
		result.WriteString(chunk)
	})
	if err != nil {
		return "", err
	}
	return result.String(), nil
}

// Stream generates the completion, delivering chunks as they arrive.
func (c *OllamaClient) Stream(ctx context.Context, system, prompt string, onChunk func(string)) error {
	return c.stream(ctx, system, prompt, onChunk)
}

func (c *OllamaClient) stream(ctx context.Context, system, prompt string, onChunk func(string)) error {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: system,
		Stream: true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ProviderError{Provider: "ollama", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return &domain.ProviderError{
			Provider:    "ollama",
			Status:      resp.StatusCode,
			RateLimited: resp.StatusCode == http.StatusTooManyRequests,
			Err:         fmt.Errorf("%s", strings.TrimSpace(string(msg))),
		}
	}

	decoder := json.NewDecoder(resp.Body)
	for {
		var genResp generateResponse
		if err := decoder.Decode(&genResp); err != nil {
			if err == io.EOF {
				return nil
			}
			// A cancelled context kills the body mid-stream; report the
			// cancellation rather than the decode artifact.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &domain.ProviderError{Provider: "ollama", Err: fmt.Errorf("failed to decode response: %w", err)}
		}
		if genResp.Response != "" {
			onChunk(genResp.Response)
		}
		if genResp.Done {
			return nil
		}
	}
}

// ModelName returns the configured completion model.
func (c *OllamaClient) ModelName() string { return c.model }
