// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/liaisonhq/liaison/lib/command"
	"github.com/liaisonhq/liaison/lib/issuestore"
	"github.com/liaisonhq/liaison/lib/ref"
	"github.com/liaisonhq/liaison/lib/service"
	"github.com/liaisonhq/liaison/messaging"
)

// couldNotUnderstand is the reply for messages the oracle could not
// turn into a confident command. It doubles as the usage hint.
const couldNotUnderstand = "I couldn't work out what you'd like me to do. Things I understand:\n" +
	"- \"create a ticket: login page 500s on empty password\"\n" +
	"- \"assign ENG-42 to sam\"\n" +
	"- \"move ENG-42 to In Progress\"\n" +
	"- \"cancel ENG-42\""

// interpreterAPI is the slice of the command interpreter the bot
// uses. *command.Interpreter implements it; tests substitute a fake.
type interpreterAPI interface {
	Interpret(ctx context.Context, message string, chatContext command.ChatContext) (*command.Command, error)
}

// Bot is the chat-side event handler: it watches sync responses,
// decides which messages are addressed to the bridge, runs them
// through the interpreter, and hands the resulting commands to the
// dispatcher. It also routes button presses on earlier replies.
//
// All handling is sequential: the sync loop calls HandleSync once per
// response and the bot processes every event to completion before
// returning, so no two commands race.
type Bot struct {
	session     messaging.Session
	interpreter interpreterAPI
	dispatcher  *Dispatcher
	store       *issuestore.Store
	logger      *slog.Logger

	botUser ref.UserID

	// members tracks joined membership per room, fed by m.room.member
	// events. A room with two members is a DM: no mention needed.
	members map[ref.RoomID]map[ref.UserID]struct{}
}

// BotConfig configures a Bot.
type BotConfig struct {
	Session     messaging.Session // required
	Interpreter interpreterAPI    // required
	Dispatcher  *Dispatcher       // required
	Store       *issuestore.Store // required
	Logger      *slog.Logger      // defaults to slog.Default()
}

// NewBot creates a Bot. Panics on missing required dependencies.
func NewBot(config BotConfig) *Bot {
	if config.Session == nil {
		panic("bot: Session is required")
	}
	if config.Interpreter == nil {
		panic("bot: Interpreter is required")
	}
	if config.Dispatcher == nil {
		panic("bot: Dispatcher is required")
	}
	if config.Store == nil {
		panic("bot: Store is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		session:     config.Session,
		interpreter: config.Interpreter,
		dispatcher:  config.Dispatcher,
		store:       config.Store,
		logger:      logger,
		botUser:     config.Session.UserID(),
		members:     make(map[ref.RoomID]map[ref.UserID]struct{}),
	}
}

// SyncFilter returns the inline /sync filter the bot needs: messages,
// membership (for DM detection), and button presses.
func (b *Bot) SyncFilter() string {
	return messaging.BuildInlineFilter(&messaging.SyncFilter{
		TimelineTypes: []string{
			messaging.EventTypeMessage.String(),
			messaging.EventTypeMember.String(),
			messaging.EventTypeAction.String(),
		},
	})
}

// HandleInitial processes the initial sync snapshot: joins invited
// rooms and builds membership state. Timeline messages from before the
// bridge started are deliberately not interpreted; replaying old
// commands after a restart would repeat their effects.
func (b *Bot) HandleInitial(ctx context.Context, response *messaging.SyncResponse) {
	service.AcceptInvites(ctx, b.session, response.Rooms.Invite, b.logger)
	for roomID, room := range response.Rooms.Join {
		for _, event := range room.State.Events {
			b.trackMembership(roomID, event)
		}
		for _, event := range room.Timeline.Events {
			b.trackMembership(roomID, event)
		}
	}
}

// HandleSync processes one incremental sync response.
func (b *Bot) HandleSync(ctx context.Context, response *messaging.SyncResponse) {
	service.AcceptInvites(ctx, b.session, response.Rooms.Invite, b.logger)

	for roomID, room := range response.Rooms.Join {
		for _, event := range room.State.Events {
			b.trackMembership(roomID, event)
		}
		for _, event := range room.Timeline.Events {
			switch event.Type {
			case messaging.EventTypeMember:
				b.trackMembership(roomID, event)
			case messaging.EventTypeMessage:
				b.handleMessage(ctx, roomID, event)
			case messaging.EventTypeAction:
				b.handleActionPress(ctx, roomID, event)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, roomID ref.RoomID, event messaging.Event) {
	if event.Sender == b.botUser {
		return
	}

	var content messaging.MessageContent
	if !decodeContent(event.Content, &content) {
		return
	}
	if content.MsgType != messaging.MsgText || content.Body == "" {
		return
	}
	// Skip edit events: the original already went through.
	if content.RelatesTo != nil && content.RelatesTo.RelType == "m.replace" {
		return
	}

	// Context is built before the current message lands in history so
	// the window holds only prior conversation.
	chatContext := b.buildContext(ctx, roomID, content.Body)

	if err := b.store.AppendHistory(ctx, roomID, issuestore.HistoryEntry{
		Sender: event.Sender,
		Body:   content.Body,
	}); err != nil {
		b.logger.Error("history append failed", "room_id", roomID, "error", err)
	}

	if !b.isAddressed(roomID, &content) {
		return
	}
	message := b.stripMention(content.Body)
	if message == "" {
		return
	}

	parsed, err := b.interpreter.Interpret(ctx, message, chatContext)
	if err != nil {
		b.logger.Error("interpretation failed", "room_id", roomID, "error", err)
		b.send(ctx, roomID, reply("Something went wrong talking to my language model. Please try again."))
		return
	}
	if parsed == nil || parsed.Confidence < command.MinConfidence || !parsed.Action.Known() {
		b.send(ctx, roomID, reply(couldNotUnderstand))
		return
	}

	// Acknowledge immediately, then edit the acknowledgment in place
	// with the outcome. Tracker round trips take seconds; a silent bot
	// reads as a broken bot.
	working, err := b.session.SendMessage(ctx, roomID, messaging.NewNoticeMessage("Working on it…"))
	if err != nil {
		b.logger.Warn("working acknowledgment failed", "room_id", roomID, "error", err)
	}

	outcome := b.dispatcher.Dispatch(ctx, parsed, Origin{RoomID: roomID, Sender: event.Sender})
	result := replyWithActions(outcome.Text, outcome.Actions)

	if working.IsZero() {
		b.send(ctx, roomID, result)
		return
	}
	b.send(ctx, roomID, messaging.NewReplaceMessage(working, result))
}

// handleActionPress routes a button press on an earlier bridge reply.
// Button IDs carry the routing: "verb|ENG-42" or "verb|ENG-42|arg".
func (b *Bot) handleActionPress(ctx context.Context, roomID ref.RoomID, event messaging.Event) {
	if event.Sender == b.botUser {
		return
	}

	var press messaging.ActionPressContent
	if !decodeContent(event.Content, &press) || press.ActionID == "" {
		return
	}

	parts := strings.Split(press.ActionID, "|")
	if len(parts) < 2 {
		b.logger.Warn("malformed action press", "action_id", press.ActionID)
		return
	}
	verb, ticket := parts[0], parts[1]

	cmd := &command.Command{TicketRef: ticket, Confidence: 1}
	switch verb {
	case "edit":
		cmd.Action = command.ActionEdit
		if len(parts) > 2 {
			cmd.EditField = parts[2]
		} else {
			cmd.EditField = command.FieldMenu
		}
	case "cancel":
		cmd.Action = command.ActionCancel
	case "done":
		cmd.Action = command.ActionStatus
		cmd.NewStatus = "Done"
	case "status":
		if len(parts) < 3 {
			return
		}
		cmd.Action = command.ActionStatus
		cmd.NewStatus = parts[2]
	default:
		b.logger.Warn("unknown action press verb", "action_id", press.ActionID)
		return
	}

	outcome := b.dispatcher.Dispatch(ctx, cmd, Origin{RoomID: roomID, Sender: event.Sender})
	b.send(ctx, roomID, replyWithActions(outcome.Text, outcome.Actions))
}

// buildContext assembles the interpreter's view of the conversation:
// the history window plus the ticket references visible in it, the
// current message, and the chat's stored issues.
func (b *Bot) buildContext(ctx context.Context, roomID ref.RoomID, currentBody string) command.ChatContext {
	var chatContext command.ChatContext

	history, err := b.store.History(ctx, roomID)
	if err != nil {
		b.logger.Error("history read failed", "room_id", roomID, "error", err)
	}
	for _, entry := range history {
		chatContext.History = append(chatContext.History, command.HistoryEntry{
			Sender: entry.Sender.Localpart(),
			Body:   entry.Body,
		})
	}

	seen := make(map[ref.TicketRef]struct{})
	addTickets := func(tickets []ref.TicketRef) {
		for _, ticket := range tickets {
			if _, dup := seen[ticket]; dup {
				continue
			}
			seen[ticket] = struct{}{}
			chatContext.RecentTickets = append(chatContext.RecentTickets, ticket)
		}
	}
	addTickets(ref.FindTicketRefs(currentBody))
	for i := len(history) - 1; i >= 0; i-- {
		addTickets(ref.FindTicketRefs(history[i].Body))
	}
	if records, err := b.store.ForChat(ctx, roomID); err == nil {
		for _, record := range records {
			addTickets([]ref.TicketRef{record.TicketRef})
		}
	}

	return chatContext
}

// isAddressed reports whether a message is for the bridge: every DM
// message is, a group message only via mention (structured m.mentions
// or the handle literally in the body).
func (b *Bot) isAddressed(roomID ref.RoomID, content *messaging.MessageContent) bool {
	if members, ok := b.members[roomID]; ok && len(members) <= 2 {
		return true
	}
	if content.Mentions != nil {
		for _, userID := range content.Mentions.UserIDs {
			if userID == b.botUser.String() {
				return true
			}
		}
	}
	body := strings.ToLower(content.Body)
	return strings.Contains(body, strings.ToLower(b.botUser.String())) ||
		strings.Contains(body, "@"+strings.ToLower(b.botUser.Localpart()))
}

// stripMention removes the bridge's own mention from a message so the
// oracle sees only the request.
func (b *Bot) stripMention(body string) string {
	for _, mention := range []string{b.botUser.String(), "@" + b.botUser.Localpart()} {
		for {
			index := indexFold(body, mention)
			if index < 0 {
				break
			}
			body = body[:index] + body[index+len(mention):]
		}
	}
	body = strings.TrimSpace(body)
	body = strings.TrimLeft(body, ":,")
	return strings.TrimSpace(body)
}

// indexFold is a case-insensitive strings.Index. Mentions are ASCII
// Matrix IDs, so byte-wise lowering is safe.
func indexFold(haystack, needle string) int {
	return strings.Index(strings.ToLower(haystack), strings.ToLower(needle))
}

// trackMembership updates the per-room member set from an
// m.room.member event.
func (b *Bot) trackMembership(roomID ref.RoomID, event messaging.Event) {
	if event.Type != messaging.EventTypeMember || event.StateKey == nil {
		return
	}
	userID, err := ref.ParseUserID(*event.StateKey)
	if err != nil {
		return
	}
	membership, _ := event.Content["membership"].(string)

	members := b.members[roomID]
	if members == nil {
		members = make(map[ref.UserID]struct{})
		b.members[roomID] = members
	}
	switch membership {
	case "join":
		members[userID] = struct{}{}
	case "leave", "ban":
		delete(members, userID)
	}
}

func (b *Bot) send(ctx context.Context, roomID ref.RoomID, content messaging.MessageContent) {
	if _, err := b.session.SendMessage(ctx, roomID, content); err != nil {
		b.logger.Error("reply send failed", "room_id", roomID, "error", err)
	}
}

// decodeContent converts an event's generic content map into a typed
// struct by way of JSON. Returns false when the content does not fit.
func decodeContent(content map[string]any, target any) bool {
	raw, err := json.Marshal(content)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}
