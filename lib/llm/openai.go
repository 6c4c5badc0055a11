// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/liaisonhq/liaison/lib/secret"
)

const defaultOpenAIBaseURL = "https://api.openai.com"

// OpenAIConfig configures an OpenAI-compatible provider.
type OpenAIConfig struct {
	// APIKey authenticates requests. Required.
	APIKey *secret.Buffer

	// BaseURL overrides the API origin. Defaults to the public OpenAI
	// endpoint; set it to use OpenRouter, vLLM, Ollama, or any other
	// server speaking the chat completions protocol.
	BaseURL string

	// HTTPClient is the HTTP client for API requests.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// OpenAIProvider implements Provider using the OpenAI chat completions
// API. Any endpoint speaking the same protocol works.
type OpenAIProvider struct {
	apiKey     *secret.Buffer
	baseURL    string
	httpClient *http.Client
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a Provider backed by an OpenAI-compatible
// chat completions endpoint.
func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	if config.APIKey == nil {
		return nil, fmt.Errorf("llm: OpenAI provider requires an API key")
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAIProvider{
		apiKey:     config.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// openaiRequest is the chat completions request wire format.
type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openaiResponse is the chat completions response wire format.
type openaiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      openaiMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
}

func (wireResp *openaiResponse) toResponse() *Response {
	response := &Response{
		Model: wireResp.Model,
		Usage: Usage{
			InputTokens:  wireResp.Usage.PromptTokens,
			OutputTokens: wireResp.Usage.CompletionTokens,
		},
	}
	if len(wireResp.Choices) > 0 {
		choice := wireResp.Choices[0]
		response.Text = choice.Message.Content
		response.StopReason = mapOpenAIFinishReason(choice.FinishReason)
	}
	return response
}

func mapOpenAIFinishReason(reason string) StopReason {
	switch reason {
	case "stop":
		return StopReasonEndTurn
	case "length":
		return StopReasonMaxTokens
	default:
		return StopReason(reason)
	}
}

func (provider *OpenAIProvider) buildRequest(request Request) openaiRequest {
	messages := make([]openaiMessage, 0, len(request.Messages)+1)
	if request.System != "" {
		messages = append(messages, openaiMessage{
			Role:    "system",
			Content: request.System,
		})
	}
	for _, message := range request.Messages {
		messages = append(messages, openaiMessage{
			Role:    string(message.Role),
			Content: message.Content,
		})
	}
	return openaiRequest{
		Model:       request.Model,
		Messages:    messages,
		MaxTokens:   request.MaxTokens,
		Temperature: request.Temperature,
		Stop:        request.StopSequences,
	}
}

func (provider *OpenAIProvider) headers(request Request) map[string]string {
	headers := map[string]string{
		"Authorization": "Bearer " + provider.apiKey.String(),
	}
	for name, value := range request.ExtraHeaders {
		headers[name] = value
	}
	return headers
}

// Complete implements Provider.
func (provider *OpenAIProvider) Complete(ctx context.Context, request Request) (*Response, error) {
	wireRequest := provider.buildRequest(request)
	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.baseURL+"/v1/chat/completions", wireRequest, "llm", provider.headers(request))
	if err != nil {
		return nil, err
	}
	return decodeResponse[openaiResponse](httpResponse, "llm")
}
