// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/liaisonhq/liaison/lib/clock"
	"github.com/liaisonhq/liaison/lib/command"
	"github.com/liaisonhq/liaison/lib/issuestore"
	"github.com/liaisonhq/liaison/lib/ref"
	"github.com/liaisonhq/liaison/lib/tracker"
	"github.com/liaisonhq/liaison/messaging"
)

// trackerAPI is the slice of the tracker client the dispatcher uses.
// *tracker.Client implements it; tests substitute a fake that records
// mutations.
type trackerAPI interface {
	CreateIssue(ctx context.Context, request tracker.CreateIssueRequest) (*tracker.Issue, error)
	UpdateIssue(ctx context.Context, issueID ref.IssueID, update tracker.IssueUpdate) (*tracker.Issue, error)
	ArchiveIssue(ctx context.Context, issueID ref.IssueID) error
	DeleteIssue(ctx context.Context, issueID ref.IssueID) error
	IssueByRef(ctx context.Context, ticket ref.TicketRef) (*tracker.Issue, error)
	TeamStates(ctx context.Context, teamID string) ([]tracker.WorkflowState, error)
}

// assigneeResolver maps a free-form name to a tracker user.
// *roster.Resolver implements it.
type assigneeResolver interface {
	Resolve(ctx context.Context, rawName string) (*tracker.User, bool)
}

// Origin identifies where a command came from: which room, which user.
// The dispatcher stamps both onto created records.
type Origin struct {
	RoomID ref.RoomID
	Sender ref.UserID
}

// Outcome is the user-facing result of dispatching one command: a
// markdown reply, optionally with action buttons.
type Outcome struct {
	Text    string
	Actions []messaging.MessageAction
}

// Dispatcher maps each command kind to tracker mutations, with
// per-kind precondition guards. Stateless per invocation: everything
// it needs arrives as the command plus its injected dependencies, so
// one failed dispatch never poisons the next.
type Dispatcher struct {
	tracker  trackerAPI
	resolver assigneeResolver
	store    *issuestore.Store
	team     tracker.Team
	clock    clock.Clock
	logger   *slog.Logger

	// forget tells the reconciler to drop its last-notified entry for
	// a purged issue. Optional.
	forget func(ref.IssueID)
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Tracker  trackerAPI        // required
	Resolver assigneeResolver  // required
	Store    *issuestore.Store // required
	Team     tracker.Team      // required (resolved at startup)
	Clock    clock.Clock       // defaults to clock.Real()
	Logger   *slog.Logger      // defaults to slog.Default()
	Forget   func(ref.IssueID) // optional reconciler purge hook
}

// NewDispatcher creates a Dispatcher. Panics on missing required
// dependencies: those are wiring bugs, not runtime conditions.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Tracker == nil {
		panic("dispatcher: Tracker is required")
	}
	if config.Resolver == nil {
		panic("dispatcher: Resolver is required")
	}
	if config.Store == nil {
		panic("dispatcher: Store is required")
	}
	if config.Team.ID == "" {
		panic("dispatcher: Team is required")
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		tracker:  config.Tracker,
		resolver: config.Resolver,
		store:    config.Store,
		team:     config.Team,
		clock:    clk,
		logger:   logger,
		forget:   config.Forget,
	}
}

// Dispatch runs one command to completion and returns the reply to
// send. Every branch fails closed: a missing required field or an
// unresolvable reference produces a specific rejection before any
// mutating tracker call.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd *command.Command, origin Origin) Outcome {
	action := cmd.Action

	// The create-vs-modify boundary is decided here, not by the
	// model: an assign with no existing ticket reference is a create
	// request that happens to name an assignee. Models have been seen
	// misclassifying this; the guard makes it unambiguous.
	if action == command.ActionAssign && cmd.TicketRef == "" {
		action = command.ActionCreate
	}

	switch action {
	case command.ActionCreate:
		return d.create(ctx, cmd, origin)
	case command.ActionEdit:
		return d.edit(ctx, cmd)
	case command.ActionAssign:
		return d.assign(ctx, cmd)
	case command.ActionStatus:
		return d.status(ctx, cmd)
	case command.ActionCancel:
		return d.cancel(ctx, cmd)
	case command.ActionDelete:
		return d.delete(ctx, cmd)
	default:
		return Outcome{Text: "I didn't recognize that request. Try something like \"create a ticket: fix the login page\" or \"assign ENG-42 to sam\"."}
	}
}

func (d *Dispatcher) create(ctx context.Context, cmd *command.Command, origin Origin) Outcome {
	if cmd.Title == "" {
		return Outcome{Text: "I need a title to create a ticket. Try \"create a ticket: fix the login page 500\"."}
	}

	request := tracker.CreateIssueRequest{
		Title:       cmd.Title,
		Description: cmd.Description,
		TeamID:      d.team.ID,
	}
	if cmd.Assignee != "" {
		user, ok := d.resolver.Resolve(ctx, cmd.Assignee)
		if !ok {
			return Outcome{Text: fmt.Sprintf("I don't know who %q is, so I haven't created anything. Add them to the people directory or leave the assignee off.", cmd.Assignee)}
		}
		request.AssigneeID = user.ID
	}

	issue, err := d.tracker.CreateIssue(ctx, request)
	if err != nil {
		d.logger.Error("issue creation failed", "title", cmd.Title, "error", err)
		return Outcome{Text: "The tracker rejected the create request. I've logged the details; please try again."}
	}

	now := d.clock.Now()
	record := &issuestore.Record{
		ChatID:      origin.RoomID,
		Requester:   origin.Sender,
		Team:        d.team.Key,
		IssueID:     issue.ID,
		TicketRef:   issue.Identifier,
		Title:       issue.Title,
		Description: cmd.Description,
		Status:      issue.State.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := d.store.Put(ctx, record); err != nil {
		// The tracker issue exists; losing the local record only
		// costs webhook mirroring for it.
		d.logger.Error("storing created issue failed",
			"issue_id", issue.ID, "ticket_ref", issue.Identifier, "error", err)
	}

	text := fmt.Sprintf("Created **%s**: %s", issue.Identifier, issue.Title)
	if issue.Assignee != nil {
		text += fmt.Sprintf(" (assigned to %s)", issue.Assignee.DisplayName)
	}
	if issue.URL != "" {
		text += fmt.Sprintf("\n%s", issue.URL)
	}
	return Outcome{
		Text: text,
		Actions: []messaging.MessageAction{
			{ID: actionID("edit", issue.Identifier), Label: "Edit"},
			{ID: actionID("cancel", issue.Identifier), Label: "Cancel ticket"},
			{ID: actionID("done", issue.Identifier), Label: "Mark done"},
		},
	}
}

func (d *Dispatcher) edit(ctx context.Context, cmd *command.Command) Outcome {
	issue, outcome := d.resolveTicket(ctx, cmd.TicketRef)
	if issue == nil {
		return outcome
	}

	// No named field: offer the field-choice menu instead of guessing
	// which field the user meant.
	if cmd.EditField == "" || cmd.EditField == command.FieldMenu {
		return Outcome{
			Text: fmt.Sprintf("What should I change on **%s**?", issue.Identifier),
			Actions: []messaging.MessageAction{
				{ID: actionID("edit", issue.Identifier, command.FieldTitle), Label: "Title"},
				{ID: actionID("edit", issue.Identifier, command.FieldDescription), Label: "Description"},
				{ID: actionID("edit", issue.Identifier, command.FieldAssignee), Label: "Assignee"},
				{ID: actionID("edit", issue.Identifier, command.FieldStatus), Label: "Status"},
			},
		}
	}

	newValue := cmd.NewValue
	var update tracker.IssueUpdate
	var described string

	switch cmd.EditField {
	case command.FieldTitle:
		if newValue == "" {
			return Outcome{Text: fmt.Sprintf("What should the new title of %s be?", issue.Identifier)}
		}
		update.Title = &newValue
		described = fmt.Sprintf("title of **%s** is now %q", issue.Identifier, newValue)

	case command.FieldDescription:
		if newValue == "" {
			return Outcome{Text: fmt.Sprintf("What should the new description of %s be?", issue.Identifier)}
		}
		update.Description = &newValue
		described = fmt.Sprintf("updated the description of **%s**", issue.Identifier)

	case command.FieldAssignee:
		if newValue == "" {
			newValue = cmd.Assignee
		}
		if newValue == "" {
			return Outcome{Text: fmt.Sprintf("Who should %s be assigned to?", issue.Identifier)}
		}
		user, ok := d.resolver.Resolve(ctx, newValue)
		if !ok {
			return Outcome{Text: fmt.Sprintf("I don't know who %q is, so %s is unchanged.", newValue, issue.Identifier)}
		}
		update.AssigneeID = &user.ID
		described = fmt.Sprintf("**%s** is now assigned to %s", issue.Identifier, user.DisplayName)

	case command.FieldStatus:
		if newValue == "" {
			newValue = cmd.NewStatus
		}
		if newValue == "" {
			return Outcome{Text: fmt.Sprintf("Which status should %s move to?", issue.Identifier)}
		}
		state, outcome := d.resolveState(ctx, newValue)
		if state == nil {
			return outcome
		}
		update.StateID = &state.ID
		described = fmt.Sprintf("**%s** is now %s", issue.Identifier, state.Name)

	default:
		return Outcome{Text: fmt.Sprintf("I can edit the title, description, assignee, or status — not %q.", cmd.EditField)}
	}

	updated, err := d.tracker.UpdateIssue(ctx, issue.ID, update)
	if err != nil {
		d.logger.Error("issue update failed",
			"issue_id", issue.ID, "field", cmd.EditField, "error", err)
		return Outcome{Text: fmt.Sprintf("The tracker rejected the update to %s. I've logged the details.", issue.Identifier)}
	}
	d.mirrorUpdate(ctx, updated)

	return Outcome{Text: "Done — " + described + "."}
}

func (d *Dispatcher) assign(ctx context.Context, cmd *command.Command) Outcome {
	// TicketRef presence is guaranteed by the Dispatch guard; the
	// assignee is this action's own required field.
	if cmd.Assignee == "" {
		return Outcome{Text: "Who should the ticket go to? Try \"assign ENG-42 to sam\"."}
	}

	issue, outcome := d.resolveTicket(ctx, cmd.TicketRef)
	if issue == nil {
		return outcome
	}

	user, ok := d.resolver.Resolve(ctx, cmd.Assignee)
	if !ok {
		return Outcome{Text: fmt.Sprintf("I don't know who %q is, so %s is unchanged.", cmd.Assignee, issue.Identifier)}
	}

	updated, err := d.tracker.UpdateIssue(ctx, issue.ID, tracker.IssueUpdate{AssigneeID: &user.ID})
	if err != nil {
		d.logger.Error("issue reassignment failed",
			"issue_id", issue.ID, "assignee", user.ID, "error", err)
		return Outcome{Text: fmt.Sprintf("The tracker rejected the reassignment of %s. I've logged the details.", issue.Identifier)}
	}
	d.mirrorUpdate(ctx, updated)

	return Outcome{Text: fmt.Sprintf("**%s** is now assigned to %s.", issue.Identifier, user.DisplayName)}
}

func (d *Dispatcher) status(ctx context.Context, cmd *command.Command) Outcome {
	if cmd.TicketRef == "" {
		return Outcome{Text: "Which ticket should change status? Try \"move ENG-42 to In Progress\"."}
	}
	if cmd.NewStatus == "" {
		return Outcome{Text: "Which status should it move to? Try \"move ENG-42 to In Progress\"."}
	}

	issue, outcome := d.resolveTicket(ctx, cmd.TicketRef)
	if issue == nil {
		return outcome
	}

	state, outcome := d.resolveState(ctx, cmd.NewStatus)
	if state == nil {
		return outcome
	}

	updated, err := d.tracker.UpdateIssue(ctx, issue.ID, tracker.IssueUpdate{StateID: &state.ID})
	if err != nil {
		d.logger.Error("status change failed",
			"issue_id", issue.ID, "state_id", state.ID, "error", err)
		return Outcome{Text: fmt.Sprintf("The tracker rejected the status change on %s. I've logged the details.", issue.Identifier)}
	}
	d.mirrorUpdate(ctx, updated)

	return Outcome{Text: fmt.Sprintf("**%s** is now %s.", issue.Identifier, state.Name)}
}

func (d *Dispatcher) cancel(ctx context.Context, cmd *command.Command) Outcome {
	if cmd.TicketRef == "" {
		return Outcome{Text: "Which ticket should I cancel? Try \"cancel ENG-42\"."}
	}

	issue, outcome := d.resolveTicket(ctx, cmd.TicketRef)
	if issue == nil {
		return outcome
	}

	if err := d.tracker.ArchiveIssue(ctx, issue.ID); err != nil {
		d.logger.Error("issue archive failed", "issue_id", issue.ID, "error", err)
		return Outcome{Text: fmt.Sprintf("The tracker rejected the cancellation of %s. I've logged the details.", issue.Identifier)}
	}
	d.purgeLocal(ctx, issue.ID)

	return Outcome{Text: fmt.Sprintf("Cancelled **%s** — it's archived in the tracker and can be restored there.", issue.Identifier)}
}

func (d *Dispatcher) delete(ctx context.Context, cmd *command.Command) Outcome {
	if cmd.TicketRef == "" {
		return Outcome{Text: "Which ticket should I delete? Try \"delete ENG-42\"."}
	}

	issue, outcome := d.resolveTicket(ctx, cmd.TicketRef)
	if issue == nil {
		return outcome
	}

	if err := d.tracker.DeleteIssue(ctx, issue.ID); err != nil {
		d.logger.Error("issue delete failed", "issue_id", issue.ID, "error", err)
		return Outcome{Text: fmt.Sprintf("The tracker rejected the deletion of %s. I've logged the details.", issue.Identifier)}
	}
	d.purgeLocal(ctx, issue.ID)

	return Outcome{Text: fmt.Sprintf("Deleted **%s** permanently.", issue.Identifier)}
}

// resolveTicket turns a free-text ticket reference into a live tracker
// issue. A nil issue comes back with the rejection Outcome to send.
func (d *Dispatcher) resolveTicket(ctx context.Context, raw string) (*tracker.Issue, Outcome) {
	if raw == "" {
		return nil, Outcome{Text: "Which ticket do you mean? Give me a reference like ENG-42."}
	}
	ticket, err := ref.ParseTicketRef(raw)
	if err != nil {
		return nil, Outcome{Text: fmt.Sprintf("%q doesn't look like a ticket reference. I expect something like ENG-42.", raw)}
	}
	issue, err := d.tracker.IssueByRef(ctx, ticket)
	if err != nil {
		d.logger.Warn("ticket reference lookup failed", "ticket_ref", ticket, "error", err)
		return nil, Outcome{Text: fmt.Sprintf("I can't find ticket %s in the tracker.", ticket)}
	}
	return issue, Outcome{}
}

// resolveState matches a status name against the team's workflow
// states, case-insensitively and exactly. A nil state comes back with
// a rejection listing the valid names; no fuzzy guessing, a wrong
// state mutation is worse than asking again.
func (d *Dispatcher) resolveState(ctx context.Context, name string) (*tracker.WorkflowState, Outcome) {
	states, err := d.tracker.TeamStates(ctx, d.team.ID)
	if err != nil {
		d.logger.Error("workflow state listing failed", "team_id", d.team.ID, "error", err)
		return nil, Outcome{Text: "I couldn't fetch the workflow states from the tracker. Please try again."}
	}
	for i := range states {
		if strings.EqualFold(states[i].Name, name) {
			return &states[i], Outcome{}
		}
	}
	names := make([]string, len(states))
	for i, state := range states {
		names[i] = state.Name
	}
	return nil, Outcome{Text: fmt.Sprintf("Status %q not found. This team's states are: %s.", name, strings.Join(names, ", "))}
}

// mirrorUpdate refreshes the locally stored record from an updated
// tracker issue. Only tracker-owned fields move; chat provenance and
// comments stay as stored. Issues not created through the bridge have
// no record, which is fine.
func (d *Dispatcher) mirrorUpdate(ctx context.Context, issue *tracker.Issue) {
	record, err := d.store.Get(ctx, issue.ID)
	if err != nil || record == nil {
		return
	}
	record.Title = issue.Title
	record.Status = issue.State.Name
	record.UpdatedAt = d.clock.Now()
	if err := d.store.Put(ctx, record); err != nil {
		d.logger.Error("mirroring issue update failed", "issue_id", issue.ID, "error", err)
	}
}

// purgeLocal removes an issue's record, index entries, and the
// reconciler's notification memory of it.
func (d *Dispatcher) purgeLocal(ctx context.Context, issueID ref.IssueID) {
	if err := d.store.Delete(ctx, issueID); err != nil {
		d.logger.Error("purging local record failed", "issue_id", issueID, "error", err)
	}
	if d.forget != nil {
		d.forget(issueID)
	}
}

// actionID builds a button ID the press handler can route:
// "verb|ENG-42" or "verb|ENG-42|argument".
func actionID(verb string, ticket ref.TicketRef, argument ...string) string {
	parts := append([]string{verb, ticket.String()}, argument...)
	return strings.Join(parts, "|")
}
