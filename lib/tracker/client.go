// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/liaisonhq/liaison/lib/clock"
	"github.com/liaisonhq/liaison/lib/netutil"
	"github.com/liaisonhq/liaison/lib/secret"
)

// Config holds configuration for creating a tracker API Client.
type Config struct {
	// Endpoint is the GraphQL endpoint URL. Required. Must use HTTPS.
	Endpoint string

	// APIKey authenticates every request via the Authorization header.
	// Required. The client borrows the buffer; the owner closes it.
	APIKey *secret.Buffer

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Clock provides time operations. Defaults to clock.Real().
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a typed client for the tracker's GraphQL API. All
// operations funnel through a single query method; per-entity methods
// live in issues.go, users.go, and states.go.
type Client struct {
	endpoint   string
	apiKey     *secret.Buffer
	httpClient *http.Client
	clock      clock.Clock
	logger     *slog.Logger
}

// NewClient creates a tracker API client from the given configuration.
func NewClient(config Config) (*Client, error) {
	endpoint := strings.TrimRight(config.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("tracker: Endpoint is required")
	}
	if !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("tracker: API client requires HTTPS (got %q)", endpoint)
	}
	if config.APIKey == nil {
		return nil, fmt.Errorf("tracker: APIKey is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		endpoint:   endpoint,
		apiKey:     config.APIKey,
		httpClient: httpClient,
		clock:      clk,
		logger:     logger,
	}, nil
}

// graphQLError is one entry in a GraphQL error envelope.
type graphQLError struct {
	Message string `json:"message"`
}

// query executes a GraphQL document and decodes the "data" object into
// result. GraphQL errors (which arrive with HTTP 200) and non-2xx
// responses both return *APIError. Pass nil result for mutations whose
// returned fields the caller does not need.
func (client *Client) query(ctx context.Context, document string, result any) error {
	encoded, err := json.Marshal(struct {
		Query string `json:"query"`
	}{Query: document})
	if err != nil {
		return fmt.Errorf("tracker: encoding request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("tracker: creating request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", client.apiKey.String())

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("tracker: POST %s: %w", client.endpoint, err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("tracker: reading response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return parseAPIError(response.StatusCode, body)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("tracker: decoding response envelope: %w", err)
	}
	if len(envelope.Errors) > 0 {
		apiError := &APIError{StatusCode: response.StatusCode}
		for _, graphqlError := range envelope.Errors {
			apiError.Messages = append(apiError.Messages, graphqlError.Message)
		}
		return apiError
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return fmt.Errorf("tracker: decoding response data: %w", err)
		}
	}
	return nil
}

// parseAPIError builds an *APIError from a non-2xx response. The body
// may still be a GraphQL envelope (rate limit responses are), so try
// that first before falling back to the raw body.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var envelope struct {
		Errors []graphQLError `json:"errors"`
	}
	if json.Unmarshal(body, &envelope) == nil && len(envelope.Errors) > 0 {
		for _, graphqlError := range envelope.Errors {
			apiError.Messages = append(apiError.Messages, graphqlError.Message)
		}
		return apiError
	}

	apiError.Messages = []string{strings.TrimSpace(string(body))}
	return apiError
}
