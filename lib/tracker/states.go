// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"fmt"
)

// Team looks up a team by its tracker ID or short key ("ENG"). The
// bridge resolves its configured team once at startup.
func (client *Client) Team(ctx context.Context, idOrKey string) (*Team, error) {
	document := fmt.Sprintf(`query { team(id: "%s") { id key name } }`, EscapeString(idOrKey))

	var result struct {
		Team *Team `json:"team"`
	}
	if err := client.query(ctx, document, &result); err != nil {
		return nil, fmt.Errorf("looking up team %q: %w", idOrKey, err)
	}
	if result.Team == nil {
		return nil, &APIError{StatusCode: 200, Messages: []string{fmt.Sprintf("team %q not found", idOrKey)}}
	}
	return result.Team, nil
}

// TeamStates returns the workflow states configured for a team, in the
// tracker's order. Status changes resolve their state name against
// this list case-insensitively.
func (client *Client) TeamStates(ctx context.Context, teamID string) ([]WorkflowState, error) {
	document := fmt.Sprintf(`query { team(id: "%s") { states { nodes { id name } } } }`, EscapeString(teamID))

	var result struct {
		Team struct {
			States struct {
				Nodes []WorkflowState `json:"nodes"`
			} `json:"states"`
		} `json:"team"`
	}
	if err := client.query(ctx, document, &result); err != nil {
		return nil, fmt.Errorf("listing workflow states for team %s: %w", teamID, err)
	}
	return result.Team.States.Nodes, nil
}
