// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/liaisonhq/liaison/lib/llm"
	"github.com/liaisonhq/liaison/lib/ref"
	"github.com/liaisonhq/liaison/lib/roster"
	"github.com/liaisonhq/liaison/lib/tracker"
)

const defaultInterpreterMaxTokens = 1024

// Resolver maps a free-form name to a tracker user. Implemented by
// [roster.Resolver].
type Resolver interface {
	Resolve(ctx context.Context, rawName string) (*tracker.User, bool)
}

// HistoryEntry is one prior message from the chat, oldest first.
type HistoryEntry struct {
	Sender string
	Body   string
}

// ChatContext carries the conversational context the model sees
// alongside the message being interpreted.
type ChatContext struct {
	// History is the recent-message window for the chat, oldest first.
	History []HistoryEntry

	// RecentTickets are ticket references mentioned recently in the
	// chat, so the model can resolve "that ticket" and bare pronouns.
	RecentTickets []ref.TicketRef
}

// InterpreterConfig configures an Interpreter.
type InterpreterConfig struct {
	// Provider performs the completion calls. Required.
	Provider llm.Provider

	// Model is the model identifier passed to the provider. Required.
	Model string

	// Directory is the curated identity directory embedded in the
	// prompt so the model picks canonical names. Required.
	Directory *roster.Directory

	// Resolver re-derives any assignee the model names. Required.
	Resolver Resolver

	// MaxTokens caps the completion length. Defaults to 1024, which
	// is generous for a single JSON object.
	MaxTokens int

	// Logger receives decode failures and cleared fields.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// Interpreter turns a chat message into a Command by way of an LLM.
type Interpreter struct {
	provider  llm.Provider
	model     string
	directory *roster.Directory
	resolver  Resolver
	maxTokens int
	logger    *slog.Logger
}

// NewInterpreter creates an Interpreter. Panics when a required
// dependency is missing: that is a wiring bug, not a runtime
// condition.
func NewInterpreter(config InterpreterConfig) *Interpreter {
	if config.Provider == nil {
		panic("command: NewInterpreter requires a provider")
	}
	if config.Model == "" {
		panic("command: NewInterpreter requires a model")
	}
	if config.Directory == nil {
		panic("command: NewInterpreter requires a directory")
	}
	if config.Resolver == nil {
		panic("command: NewInterpreter requires a resolver")
	}
	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultInterpreterMaxTokens
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{
		provider:  config.Provider,
		model:     config.Model,
		directory: config.Directory,
		resolver:  config.Resolver,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Interpret sends the message to the model and parses the reply into
// a Command.
//
// A provider failure returns an error: the model was unreachable and
// the caller should tell the user so. A reply that decodes to nothing
// usable returns (nil, nil): the message was not a command, which is
// an expected outcome, logged but not raised.
func (interpreter *Interpreter) Interpret(ctx context.Context, message string, chatContext ChatContext) (*Command, error) {
	temperature := 0.0
	response, err := interpreter.provider.Complete(ctx, llm.Request{
		Model:       interpreter.model,
		System:      interpreter.systemPrompt(chatContext),
		MaxTokens:   interpreter.maxTokens,
		Temperature: &temperature,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userPrompt(message, chatContext)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("command: completing interpretation: %w", err)
	}
	if response.StopReason == llm.StopReasonMaxTokens {
		interpreter.logger.Warn("model reply was truncated at the token cap",
			"max_tokens", interpreter.maxTokens)
	}
	return interpreter.decode(ctx, response.Text), nil
}

// decode runs the repair pipeline over the model reply and normalizes
// the result. Returns nil when the reply contains no usable command.
func (interpreter *Interpreter) decode(ctx context.Context, text string) *Command {
	payload, err := Sanitize(text)
	if err != nil {
		interpreter.logger.Warn("model reply contained no JSON object",
			"error", err, "reply_length", len(text))
		return nil
	}

	var parsed Command
	if err := json.Unmarshal(payload, &parsed); err != nil {
		interpreter.logger.Warn("model reply failed to decode", "error", err)
		return nil
	}

	normalize(&parsed)

	if parsed.Assignee != "" {
		if _, ok := interpreter.resolver.Resolve(ctx, parsed.Assignee); !ok {
			interpreter.logger.Warn("clearing assignee the resolver does not know",
				"assignee", parsed.Assignee)
			parsed.Assignee = ""
		}
	}

	return &parsed
}

// normalize trims every string field, converts the sentinel strings
// models emit in place of null ("null", "undefined") to empty, folds
// the action to lower case, and clamps confidence into [0, 1].
func normalize(parsed *Command) {
	fields := []*string{
		&parsed.TicketRef,
		&parsed.Assignee,
		&parsed.NewStatus,
		&parsed.Title,
		&parsed.Description,
		&parsed.NewValue,
	}
	for _, field := range fields {
		trimmed := strings.TrimSpace(*field)
		switch strings.ToLower(trimmed) {
		case "", "null", "undefined":
			*field = ""
		default:
			*field = trimmed
		}
	}

	parsed.Action = Action(strings.ToLower(strings.TrimSpace(string(parsed.Action))))

	editField := strings.ToLower(strings.TrimSpace(parsed.EditField))
	switch editField {
	case "null", "undefined":
		editField = ""
	}
	parsed.EditField = editField

	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}
}

// systemPrompt builds the instruction block: the output contract, the
// identity directory for canonical names, and recently mentioned
// tickets.
func (interpreter *Interpreter) systemPrompt(chatContext ChatContext) string {
	var builder strings.Builder

	builder.WriteString("You convert team chat messages into issue tracker commands.\n\n")
	builder.WriteString("Respond with a single JSON object and nothing else:\n\n")
	builder.WriteString("{\n")
	builder.WriteString("  \"action\": \"create\" | \"edit\" | \"cancel\" | \"delete\" | \"assign\" | \"status\",\n")
	builder.WriteString("  \"ticketRef\": \"ENG-42\" or null when no existing ticket is referenced,\n")
	builder.WriteString("  \"assignee\": canonical name from the People list, or null,\n")
	builder.WriteString("  \"newStatus\": workflow state name, or null,\n")
	builder.WriteString("  \"title\": short issue title, or null,\n")
	builder.WriteString("  \"description\": longer detail, or null,\n")
	builder.WriteString("  \"editField\": \"title\" | \"description\" | \"assignee\" | \"status\" | \"menu\", or null,\n")
	builder.WriteString("  \"newValue\": replacement value for the edited field, or null,\n")
	builder.WriteString("  \"confidence\": 0.0 to 1.0\n")
	builder.WriteString("}\n\n")

	builder.WriteString("Rules:\n")
	builder.WriteString("- A request for a new ticket is \"create\" even when it names an assignee. \"assign\" applies only to an existing ticket reference.\n")
	builder.WriteString("- \"edit\" with no clearly named field uses editField \"menu\".\n")
	builder.WriteString("- \"cancel\" archives a ticket; \"delete\" removes it permanently. Pick \"delete\" only when the user says delete or remove for good.\n")
	builder.WriteString("- confidence is how sure you are that the message is a ticket command at all. Small talk scores low.\n")

	if people := interpreter.directory.People(); len(people) > 0 {
		builder.WriteString("\n## People\n\n")
		for _, person := range people {
			builder.WriteString(fmt.Sprintf("- %s", person.CanonicalName))
			if len(person.Aliases) > 0 {
				builder.WriteString(fmt.Sprintf(" (also known as: %s)", strings.Join(person.Aliases, ", ")))
			}
			builder.WriteString("\n")
		}
	}

	if len(chatContext.RecentTickets) > 0 {
		builder.WriteString("\n## Recently discussed tickets\n\n")
		for _, ticket := range chatContext.RecentTickets {
			builder.WriteString(fmt.Sprintf("- %s\n", ticket))
		}
	}

	return builder.String()
}

// userPrompt renders the history window and the message under
// interpretation. With no history, the message goes through bare.
func userPrompt(message string, chatContext ChatContext) string {
	if len(chatContext.History) == 0 {
		return message
	}
	var builder strings.Builder
	builder.WriteString("Recent conversation:\n")
	for _, entry := range chatContext.History {
		builder.WriteString(fmt.Sprintf("%s: %s\n", entry.Sender, entry.Body))
	}
	builder.WriteString("\nCurrent message:\n")
	builder.WriteString(message)
	return builder.String()
}
