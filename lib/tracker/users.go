// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"fmt"
)

// Users returns every user in the tracker workspace. The identity
// resolver matches chat names against this list; most callers want
// UserCache rather than hitting this on every message.
func (client *Client) Users(ctx context.Context) ([]User, error) {
	const document = `query { users { nodes { id name displayName email } } }`

	var result struct {
		Users struct {
			Nodes []User `json:"nodes"`
		} `json:"users"`
	}
	if err := client.query(ctx, document, &result); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return result.Users.Nodes, nil
}
