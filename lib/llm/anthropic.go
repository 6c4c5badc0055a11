// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/liaisonhq/liaison/lib/secret"
)

const (
	anthropicVersion         = "2023-06-01"
	defaultAnthropicBaseURL  = "https://api.anthropic.com"
	defaultAnthropicMaxToken = 1024
)

// AnthropicConfig configures an Anthropic provider.
type AnthropicConfig struct {
	// APIKey authenticates requests. Required.
	APIKey *secret.Buffer

	// BaseURL overrides the API origin. Defaults to the public
	// Anthropic endpoint; point it at a compatible gateway to route
	// traffic elsewhere.
	BaseURL string

	// HTTPClient is the HTTP client for API requests.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// AnthropicProvider implements Provider using the Anthropic Messages API.
type AnthropicProvider struct {
	apiKey     *secret.Buffer
	baseURL    string
	httpClient *http.Client
}

var _ Provider = (*AnthropicProvider)(nil)

// NewAnthropicProvider creates a Provider backed by the Anthropic
// Messages API.
func NewAnthropicProvider(config AnthropicConfig) (*AnthropicProvider, error) {
	if config.APIKey == nil {
		return nil, fmt.Errorf("llm: Anthropic provider requires an API key")
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AnthropicProvider{
		apiKey:     config.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// anthropicRequest is the Messages API request wire format.
type anthropicRequest struct {
	Model         string             `json:"model"`
	MaxTokens     int                `json:"max_tokens"`
	System        string             `json:"system,omitempty"`
	Messages      []anthropicMessage `json:"messages"`
	Temperature   *float64           `json:"temperature,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// anthropicResponse is the Messages API response wire format.
type anthropicResponse struct {
	Model      string                  `json:"model"`
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
}

type anthropicUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

func (wireResp *anthropicResponse) toResponse() *Response {
	text := ""
	for _, block := range wireResp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return &Response{
		Text:       text,
		Model:      wireResp.Model,
		StopReason: mapAnthropicStopReason(wireResp.StopReason),
		Usage: Usage{
			InputTokens:  wireResp.Usage.InputTokens,
			OutputTokens: wireResp.Usage.OutputTokens,
		},
	}
}

func mapAnthropicStopReason(reason string) StopReason {
	switch reason {
	case "end_turn":
		return StopReasonEndTurn
	case "max_tokens":
		return StopReasonMaxTokens
	case "stop_sequence":
		return StopReasonStopSequence
	default:
		return StopReason(reason)
	}
}

func (provider *AnthropicProvider) buildRequest(request Request) anthropicRequest {
	maxTokens := request.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultAnthropicMaxToken
	}
	messages := make([]anthropicMessage, 0, len(request.Messages))
	for _, message := range request.Messages {
		messages = append(messages, anthropicMessage{
			Role: string(message.Role),
			Content: []anthropicContentBlock{
				{Type: "text", Text: message.Content},
			},
		})
	}
	return anthropicRequest{
		Model:         request.Model,
		MaxTokens:     maxTokens,
		System:        request.System,
		Messages:      messages,
		Temperature:   request.Temperature,
		StopSequences: request.StopSequences,
	}
}

func (provider *AnthropicProvider) headers(request Request) map[string]string {
	headers := map[string]string{
		"x-api-key":         provider.apiKey.String(),
		"anthropic-version": anthropicVersion,
	}
	for name, value := range request.ExtraHeaders {
		headers[name] = value
	}
	return headers
}

// Complete implements Provider.
func (provider *AnthropicProvider) Complete(ctx context.Context, request Request) (*Response, error) {
	wireRequest := provider.buildRequest(request)
	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.baseURL+"/v1/messages", wireRequest, "llm", provider.headers(request))
	if err != nil {
		return nil, err
	}
	return decodeResponse[anthropicResponse](httpResponse, "llm")
}
