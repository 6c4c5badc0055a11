// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package issueui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the issue browser. All colors
// use lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Status colors, keyed by the tracker's workflow state names.
	StatusBacklog    lipgloss.Color
	StatusTodo       lipgloss.Color
	StatusInProgress lipgloss.Color
	StatusDone       lipgloss.Color
	StatusCanceled   lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
}

// StatusColor returns the color for a tracker state name. State names
// are matched case-insensitively; unknown states render faint rather
// than wrong.
func (theme Theme) StatusColor(status string) lipgloss.Color {
	switch strings.ToLower(status) {
	case "backlog":
		return theme.StatusBacklog
	case "todo":
		return theme.StatusTodo
	case "in progress", "in review":
		return theme.StatusInProgress
	case "done":
		return theme.StatusDone
	case "canceled", "cancelled":
		return theme.StatusCanceled
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	StatusBacklog:    lipgloss.Color("240"), // dim gray
	StatusTodo:       lipgloss.Color("114"), // green
	StatusInProgress: lipgloss.Color("220"), // yellow/amber
	StatusDone:       lipgloss.Color("141"), // light purple
	StatusCanceled:   lipgloss.Color("245"), // gray

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
}
