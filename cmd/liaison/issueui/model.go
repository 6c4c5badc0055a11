// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package issueui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/liaisonhq/liaison/lib/issuestore"
)

// FocusRegion identifies which pane has keyboard focus.
type FocusRegion int

const (
	// FocusList means navigation keys move the issue list cursor.
	FocusList FocusRegion = iota
	// FocusDetail means navigation keys scroll the detail viewport.
	FocusDetail
)

// listPaneRatio is the fraction of the terminal width given to the
// issue list. The detail pane gets the rest.
const listPaneRatio = 0.40

// Model is the bubbletea model for the issue browser. Construct with
// New; the zero value is not usable.
type Model struct {
	records []*issuestore.Record
	cursor  int
	focus   FocusRegion

	detail viewport.Model
	width  int
	height int
	ready  bool

	keys  KeyMap
	theme Theme
}

// New creates a browser model over a snapshot of issue records. The
// records are displayed in the order given (the store returns them
// most recently updated first).
func New(records []*issuestore.Record) Model {
	return Model{
		records: records,
		keys:    DefaultKeyMap,
		theme:   DefaultTheme,
	}
}

// Init implements tea.Model. The browser is static; there is nothing
// to start.
func (model Model) Init() tea.Cmd {
	return nil
}

// Selected returns the record under the cursor, or nil when the store
// is empty.
func (model Model) Selected() *issuestore.Record {
	if len(model.records) == 0 {
		return nil
	}
	return model.records[model.cursor]
}

// Focus returns which pane currently has keyboard focus.
func (model Model) Focus() FocusRegion {
	return model.focus
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		detailWidth := model.width - model.listWidth() - 1
		// Two rows of chrome: the header line and the help bar.
		detailHeight := model.height - 2
		if detailHeight < 1 {
			detailHeight = 1
		}
		if !model.ready {
			model.detail = viewport.New(detailWidth, detailHeight)
			model.ready = true
		} else {
			model.detail.Width = detailWidth
			model.detail.Height = detailHeight
		}
		model.syncDetail()
		return model, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit

		case key.Matches(message, model.keys.FocusToggle):
			if model.focus == FocusList {
				model.focus = FocusDetail
			} else {
				model.focus = FocusList
			}
			return model, nil
		}

		if model.focus == FocusList {
			model.handleListKeys(message)
			return model, nil
		}

		var cmd tea.Cmd
		model.detail, cmd = model.detail.Update(message)
		return model, cmd
	}

	return model, nil
}

// handleListKeys moves the list cursor and refreshes the detail pane
// when the selection changes.
func (model *Model) handleListKeys(message tea.KeyMsg) {
	previous := model.cursor
	last := len(model.records) - 1

	switch {
	case key.Matches(message, model.keys.Up):
		if model.cursor > 0 {
			model.cursor--
		}
	case key.Matches(message, model.keys.Down):
		if model.cursor < last {
			model.cursor++
		}
	case key.Matches(message, model.keys.PageUp):
		model.cursor -= model.pageSize()
		if model.cursor < 0 {
			model.cursor = 0
		}
	case key.Matches(message, model.keys.PageDown):
		model.cursor += model.pageSize()
		if model.cursor > last {
			model.cursor = last
		}
	case key.Matches(message, model.keys.Home):
		model.cursor = 0
	case key.Matches(message, model.keys.End):
		model.cursor = last
	}

	if model.cursor < 0 {
		model.cursor = 0
	}
	if model.cursor != previous {
		model.syncDetail()
	}
}

// syncDetail rebuilds the detail viewport content for the current
// selection and scrolls it back to the top.
func (model *Model) syncDetail() {
	if !model.ready {
		return
	}
	record := model.Selected()
	if record == nil {
		model.detail.SetContent("")
		return
	}
	model.detail.SetContent(model.renderDetail(record))
	model.detail.GotoTop()
}

func (model Model) listWidth() int {
	width := int(float64(model.width) * listPaneRatio)
	if width < 24 {
		width = 24
	}
	return width
}

func (model Model) pageSize() int {
	size := model.height - 3
	if size < 1 {
		size = 1
	}
	return size
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "loading..."
	}
	if len(model.records) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(model.theme.FaintText).
			Padding(1, 2).
			Render("No issues in the store. The bridge records issues as chat commands create them.")
		return empty + "\n" + model.helpBar()
	}

	divider := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("│\n", max(model.height-2, 1)))

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		model.renderList(),
		divider,
		model.detail.View(),
	)
	return model.headerBar() + "\n" + body + "\n" + model.helpBar()
}

// renderList draws the issue list pane with the selection highlighted.
// The visible window follows the cursor.
func (model Model) renderList() string {
	width := model.listWidth()
	visible := model.height - 2
	if visible < 1 {
		visible = 1
	}

	top := 0
	if model.cursor >= visible {
		top = model.cursor - visible + 1
	}

	normal := lipgloss.NewStyle().Foreground(model.theme.NormalText).Width(width)
	selected := lipgloss.NewStyle().
		Foreground(model.theme.SelectedForeground).
		Background(model.theme.SelectedBackground).
		Width(width)

	var rows []string
	for i := top; i < len(model.records) && i < top+visible; i++ {
		record := model.records[i]
		status := lipgloss.NewStyle().
			Foreground(model.theme.StatusColor(record.Status)).
			Render(fmt.Sprintf("%-11s", truncate(record.Status, 11)))

		label := fmt.Sprintf("%-8s", record.TicketRef.String())
		line := fmt.Sprintf(" %s %s %s", label, status, truncate(record.Title, width-24))
		if i == model.cursor {
			rows = append(rows, selected.Render(line))
		} else {
			rows = append(rows, normal.Render(line))
		}
	}
	for len(rows) < visible {
		rows = append(rows, normal.Render(""))
	}
	return strings.Join(rows, "\n")
}

// renderDetail formats one record for the detail viewport.
func (model Model) renderDetail(record *issuestore.Record) string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	title := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true)
	status := lipgloss.NewStyle().
		Foreground(model.theme.StatusColor(record.Status))

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", title.Render(record.TicketRef.String()), record.Title)
	fmt.Fprintf(&b, "%s %s\n", faint.Render("status:"), status.Render(record.Status))
	if !record.Requester.IsZero() {
		fmt.Fprintf(&b, "%s %s\n", faint.Render("requested by:"), record.Requester)
	}
	if !record.ChatID.IsZero() {
		fmt.Fprintf(&b, "%s %s\n", faint.Render("chat:"), record.ChatID)
	}
	fmt.Fprintf(&b, "%s %s\n", faint.Render("created:"), record.CreatedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "%s %s\n", faint.Render("updated:"), record.UpdatedAt.Format("2006-01-02 15:04 MST"))

	if record.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", record.Description)
	}

	if len(record.Comments) > 0 {
		fmt.Fprintf(&b, "\n%s\n", faint.Render(fmt.Sprintf("── comments (%d) ──", len(record.Comments))))
		for _, comment := range record.Comments {
			fmt.Fprintf(&b, "\n%s %s\n%s\n",
				faint.Render(comment.CreatedAt.Format("2006-01-02 15:04")),
				comment.Author,
				comment.Text,
			)
		}
	}
	return b.String()
}

func (model Model) headerBar() string {
	header := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true).
		Render(fmt.Sprintf(" Issues (%d)", len(model.records)))
	return header
}

func (model Model) helpBar() string {
	pane := "list"
	if model.focus == FocusDetail {
		pane = "detail"
	}
	return lipgloss.NewStyle().
		Foreground(model.theme.HelpText).
		Render(fmt.Sprintf(" j/k move · tab switch pane (%s) · q quit", pane))
}

func truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}
