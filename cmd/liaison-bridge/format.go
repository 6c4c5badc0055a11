// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/liaisonhq/liaison/messaging"
)

// markdownInstance is initialized once and reused. The converter
// configuration never changes and goldmark.Markdown is safe to share.
var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownInstance
}

// reply builds a bridge reply: a notice whose formatted body is the
// markdown rendered to HTML. The plain body keeps the raw markdown as
// the fallback for clients that do not render HTML. If rendering
// fails (it should not for any input; goldmark has no error paths
// for plain text) the reply degrades to plain text.
func reply(markdown string) messaging.MessageContent {
	var html bytes.Buffer
	if err := getMarkdown().Convert([]byte(markdown), &html); err != nil {
		return messaging.NewNoticeMessage(markdown)
	}
	rendered := strings.TrimSpace(html.String())
	if rendered == "" {
		return messaging.NewNoticeMessage(markdown)
	}
	return messaging.NewFormattedNotice(markdown, rendered)
}

// replyWithActions attaches buttons to a reply.
func replyWithActions(markdown string, actions []messaging.MessageAction) messaging.MessageContent {
	content := reply(markdown)
	content.Actions = actions
	return content
}
