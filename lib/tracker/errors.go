// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"errors"
	"fmt"
	"strings"
)

// APIError represents a failed tracker request: either a non-2xx HTTP
// response or a 2xx response whose GraphQL envelope carries errors.
type APIError struct {
	// StatusCode is the HTTP response status code. GraphQL-level
	// errors arrive on a 200, so a 200 here still means failure.
	StatusCode int

	// Messages are the error messages from the GraphQL envelope, or a
	// single entry holding the raw body when the envelope is absent.
	Messages []string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("tracker: HTTP %d: %s", err.StatusCode, strings.Join(err.Messages, "; "))
}

// IsNotFound reports whether err indicates the queried entity does not
// exist. The tracker signals this with an "Entity not found" GraphQL
// error rather than an HTTP 404.
func IsNotFound(err error) bool {
	var apiError *APIError
	if !errors.As(err, &apiError) {
		return false
	}
	if apiError.StatusCode == 404 {
		return true
	}
	for _, message := range apiError.Messages {
		if strings.Contains(strings.ToLower(message), "not found") {
			return true
		}
	}
	return false
}

// IsRateLimited reports whether err is a tracker rate limit response.
func IsRateLimited(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 429
}
