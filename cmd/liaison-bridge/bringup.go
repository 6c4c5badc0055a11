// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/liaisonhq/liaison/lib/clock"
	"github.com/liaisonhq/liaison/messaging"
)

// Bring-up backoff bounds. Six attempts at 1s, 2s, 4s, 8s, 16s, 30s
// rides out the window where a replaced bridge instance still holds
// the homeserver session.
const (
	bringupMaxAttempts = 6
	bringupMaxBackoff  = 30 * time.Second
)

// connectWithBackoff validates the Matrix session, retrying on the
// transient conflict that occurs when the previous bridge instance has
// not released the connection yet (rate limit or conflict from the
// homeserver). Non-conflict errors (bad token, unreachable server
// after the budget) surface immediately or after the final attempt.
func connectWithBackoff(ctx context.Context, session messaging.Session, clk clock.Clock, logger *slog.Logger) error {
	backoff := time.Second
	var lastError error

	for attempt := 1; attempt <= bringupMaxAttempts; attempt++ {
		userID, err := session.WhoAmI(ctx)
		if err == nil {
			logger.Info("matrix session valid", "user_id", userID, "attempt", attempt)
			return nil
		}
		lastError = err

		if !isBringupConflict(err) {
			return fmt.Errorf("validating matrix session: %w", err)
		}
		if attempt == bringupMaxAttempts {
			break
		}

		logger.Warn("matrix bring-up conflict, backing off",
			"attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(backoff):
		}
		backoff *= 2
		if backoff > bringupMaxBackoff {
			backoff = bringupMaxBackoff
		}
	}
	return fmt.Errorf("matrix bring-up failed after %d attempts: %w", bringupMaxAttempts, lastError)
}

// isBringupConflict reports whether an error is the known transient
// bring-up condition: the homeserver rate-limiting or conflicting
// because another instance still holds the session.
func isBringupConflict(err error) bool {
	var matrixError *messaging.MatrixError
	if errors.As(err, &matrixError) {
		return matrixError.Code == messaging.ErrCodeLimitExceeded ||
			matrixError.StatusCode == 409 ||
			matrixError.StatusCode >= 500
	}
	// Connection-level failures (refused, reset) during bring-up are
	// the same condition seen one layer lower.
	return true
}
