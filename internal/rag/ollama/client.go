package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/rs/zerolog"
)

const requestTimeout = 120 * time.Second

// EmbeddingClient generates embeddings through the Ollama embeddings API.
type EmbeddingClient struct {
	model      string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// ChatClient generates completions through the Ollama generate API.
type ChatClient struct {
	model      string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// EmbeddingRequest represents the request structure for the embeddings API.
type EmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// EmbeddingResponse represents the response structure from the embeddings API.
type EmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// GenerateRequest represents the request structure for the generate API.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// GenerateResponse represents the response structure from the generate API.
type GenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewEmbeddingClient creates an embedding client for the given model and
// endpoint.
func NewEmbeddingClient(model, baseURL string) *EmbeddingClient {
	return NewEmbeddingClientWithHTTP(model, baseURL, nil)
}

// NewEmbeddingClientWithHTTP creates an embedding client with a custom
// HTTP client.
func NewEmbeddingClientWithHTTP(model, baseURL string, httpClient *http.Client) *EmbeddingClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &EmbeddingClient{
		model:      model,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     util.NewLogger(zerolog.ErrorLevel),
	}
}

// GenerateEmbedding creates a vector embedding for the given content.
func (c *EmbeddingClient) GenerateEmbedding(ctx context.Context, content string) ([]float32, error) {
	if strings.TrimSpace(content) == "" {
		c.logger.Warn().Msg("content is empty")
		return nil, ErrContentEmpty
	}

	request := EmbeddingRequest{
		Model:  c.model,
		Prompt: content,
	}

	var response EmbeddingResponse
	if err := c.post(ctx, c.baseURL+"/api/embeddings", request, &response); err != nil {
		return nil, err
	}

	if len(response.Embedding) == 0 {
		return nil, ErrNoEmbeddingData
	}

	c.logger.Debug().Str("model", c.model).Int("dimension", len(response.Embedding)).Msg("Generated embedding")
	return response.Embedding, nil
}

// GetModelName returns the name of the embedding model.
func (c *EmbeddingClient) GetModelName() string {
	return c.model
}

func (c *EmbeddingClient) post(ctx context.Context, url string, request, response any) error {
	return postJSON(ctx, c.httpClient, c.logger, url, request, response)
}

// NewChatClient creates a chat client for the given model and endpoint.
func NewChatClient(model, baseURL string) *ChatClient {
	return NewChatClientWithHTTP(model, baseURL, nil)
}

// NewChatClientWithHTTP creates a chat client with a custom HTTP client.
func NewChatClientWithHTTP(model, baseURL string, httpClient *http.Client) *ChatClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &ChatClient{
		model:      model,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     util.NewLogger(zerolog.ErrorLevel),
	}
}

// Complete generates a completion for the given prompt.
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		c.logger.Warn().Msg("prompt is empty")
		return "", ErrPromptEmpty
	}

	request := GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	}

	var response GenerateResponse
	if err := postJSON(ctx, c.httpClient, c.logger, c.baseURL+"/api/generate", request, &response); err != nil {
		return "", err
	}

	return response.Response, nil
}

// GetModelName returns the name of the chat model.
func (c *ChatClient) GetModelName() string {
	return c.model
}

func postJSON(ctx context.Context, client *http.Client, logger zerolog.Logger, url string, request, response any) error {
	requestBody, err := json.Marshal(request)
	if err != nil {
		logger.Err(err).Msg("failed to marshal request")
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		logger.Err(err).Msg("failed to create request")
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		logger.Err(err).Msg("failed to make request")
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		logger.Error().Int("status_code", resp.StatusCode).Str("url", url).Msg("API request failed")
		return ErrAPIRequestFailed
	}

	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		logger.Err(err).Msg("failed to decode response")
		return err
	}

	return nil
}
