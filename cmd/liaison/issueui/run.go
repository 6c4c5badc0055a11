// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package issueui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/liaisonhq/liaison/lib/issuestore"
)

// Browse runs the issue browser over a snapshot of records, taking
// over the terminal until the user quits.
func Browse(records []*issuestore.Record) error {
	program := tea.NewProgram(New(records), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("issue browser: %w", err)
	}
	return nil
}
