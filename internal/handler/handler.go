// Package handler holds one handler per inbound event kind. Handlers speak to
// the user only through Chat, which the transport layer implements.
package handler

import (
	"context"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/catalog"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/download"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/event"
)

// Chat is the conversation an event arrived on.
type Chat interface {
	// Reply sends a new message to the chat.
	Reply(ctx context.Context, text string, kb *Keyboard) error
	// Edit rewrites the message a button was pressed on. For plain messages
	// it behaves like Reply.
	Edit(ctx context.Context, text string, kb *Keyboard) error
	// Answer acknowledges a button press. It is a no-op for plain messages.
	Answer(ctx context.Context, text string, alert bool) error
	// Conversation outlives the event and is handed to background jobs.
	Conversation() download.Conversation
}

type Button struct {
	Text string
	Data string
	URL  string
}

type Keyboard struct {
	Rows [][]Button
}

func (k *Keyboard) Buttons() []Button {
	if k == nil {
		return nil
	}
	var out []Button
	for _, row := range k.Rows {
		out = append(out, row...)
	}
	return out
}

const qualityRowWidth = 3

// QualityKeyboard lists every catalog quality. Payloads carry only the tag.
func QualityKeyboard() *Keyboard {
	kb := &Keyboard{}
	var row []Button
	for _, q := range catalog.Qualities() {
		row = append(row, Button{Text: q.Label(), Data: event.EncodeQuality(q)})
		if len(row) == qualityRowWidth {
			kb.Rows = append(kb.Rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		kb.Rows = append(kb.Rows, row)
	}
	return kb
}

const (
	JoinButtonText    = "📢 Join the channel"
	RecheckButtonText = "✅ I've joined"
)

func JoinKeyboard(channelLink string) *Keyboard {
	kb := &Keyboard{}
	if channelLink != "" {
		kb.Rows = append(kb.Rows, []Button{{Text: JoinButtonText, URL: channelLink}})
	}
	kb.Rows = append(kb.Rows, []Button{{Text: RecheckButtonText, Data: event.RecheckData}})
	return kb
}
