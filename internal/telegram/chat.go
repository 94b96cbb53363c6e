package telegram

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/download"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/handler"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

func markup(kb *handler.Keyboard) tg.ReplyMarkupClass {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}
	rows := make([]tg.KeyboardButtonRow, 0, len(kb.Rows))
	for _, r := range kb.Rows {
		row := tg.KeyboardButtonRow{}
		for _, b := range r {
			if b.URL != "" {
				row.Buttons = append(row.Buttons, &tg.KeyboardButtonURL{Text: b.Text, URL: b.URL})
				continue
			}
			row.Buttons = append(row.Buttons, &tg.KeyboardButtonCallback{Text: b.Text, Data: []byte(b.Data)})
		}
		rows = append(rows, row)
	}
	return &tg.ReplyInlineMarkup{Rows: rows}
}

func ignoreNotModified(err error) error {
	if tgerr.Is(err, "MESSAGE_NOT_MODIFIED") {
		return nil
	}
	return err
}

// Conversation reports a job's progress by editing one status message and
// delivers its file as a document. Progress edits carry no keyboard; the
// outcome edit carries final, if set.
type Conversation struct {
	sender   *message.Sender
	uploader *Uploader
	peer     tg.InputPeerClass
	replyTo  int
	final    *handler.Keyboard

	mu       sync.Mutex
	statusID int
}

func newConversation(api *tg.Client, peer tg.InputPeerClass, statusID, replyTo int, final *handler.Keyboard) *Conversation {
	return &Conversation{
		sender:   message.NewSender(api),
		uploader: NewUploader(api),
		peer:     peer,
		statusID: statusID,
		replyTo:  replyTo,
		final:    final,
	}
}

func (c *Conversation) Status(ctx context.Context, text string) error {
	return c.show(ctx, text, nil)
}

func (c *Conversation) Finish(ctx context.Context, text string) error {
	return c.show(ctx, text, c.final)
}

func (c *Conversation) show(ctx context.Context, text string, kb *handler.Keyboard) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := &c.sender.To(c.peer).Builder
	if mk := markup(kb); mk != nil {
		b = b.Markup(mk)
	}

	if c.statusID != 0 {
		_, err := b.Edit(c.statusID).Text(ctx, text)
		return ignoreNotModified(err)
	}

	if c.replyTo != 0 {
		b = b.Reply(c.replyTo)
	}
	updates, err := b.Text(ctx, text)
	if err != nil {
		return err
	}
	c.statusID = getMsgID(updates)
	return nil
}

func (c *Conversation) SendFile(ctx context.Context, f download.File) error {
	tracker := NewProgressTracker(func(text string) {
		if err := c.Status(ctx, text); err != nil {
			logger.Debug("Progress update failed", "error", err)
		}
	})

	file, err := c.uploader.Upload(ctx, f.Path, tracker.Update)
	if err != nil {
		return err
	}
	if _, err := c.sender.To(c.peer).Media(ctx, documentMedia(file, f)); err != nil {
		return errors.Wrap(err, "send document")
	}
	return nil
}

// MessageChat is the chat of an incoming text message.
type MessageChat struct {
	sender *message.Sender
	peer   tg.InputPeerClass
	msgID  int
	conv   *Conversation
}

func (c *Client) MessageChat(peer tg.InputPeerClass, msgID int) *MessageChat {
	return &MessageChat{
		sender: message.NewSender(c.api),
		peer:   peer,
		msgID:  msgID,
		conv:   newConversation(c.api, peer, 0, msgID, nil),
	}
}

func (m *MessageChat) Reply(ctx context.Context, text string, kb *handler.Keyboard) error {
	b := m.sender.To(m.peer).Reply(m.msgID)
	if mk := markup(kb); mk != nil {
		b = b.Markup(mk)
	}
	_, err := b.Text(ctx, text)
	return err
}

func (m *MessageChat) Edit(ctx context.Context, text string, kb *handler.Keyboard) error {
	return m.Reply(ctx, text, kb)
}

func (m *MessageChat) Answer(context.Context, string, bool) error {
	return nil
}

func (m *MessageChat) Conversation() download.Conversation {
	return m.conv
}

// CallbackChat is the chat of an inline button press. Edits target the
// message carrying the button. Its conversation puts the quality keyboard
// back when a job ends so another quality can be picked for the same link.
type CallbackChat struct {
	api     *tg.Client
	sender  *message.Sender
	peer    tg.InputPeerClass
	queryID int64
	msgID   int
	conv    *Conversation

	answered sync.Once
}

func (c *Client) CallbackChat(peer tg.InputPeerClass, queryID int64, msgID int) *CallbackChat {
	return &CallbackChat{
		api:     c.api,
		sender:  message.NewSender(c.api),
		peer:    peer,
		queryID: queryID,
		msgID:   msgID,
		conv:    newConversation(c.api, peer, msgID, 0, handler.QualityKeyboard()),
	}
}

func (cc *CallbackChat) Reply(ctx context.Context, text string, kb *handler.Keyboard) error {
	b := cc.sender.To(cc.peer)
	if mk := markup(kb); mk != nil {
		_, err := b.Markup(mk).Text(ctx, text)
		return err
	}
	_, err := b.Text(ctx, text)
	return err
}

func (cc *CallbackChat) Edit(ctx context.Context, text string, kb *handler.Keyboard) error {
	b := cc.sender.To(cc.peer)
	if mk := markup(kb); mk != nil {
		_, err := b.Markup(mk).Edit(cc.msgID).Text(ctx, text)
		return ignoreNotModified(err)
	}
	_, err := b.Edit(cc.msgID).Text(ctx, text)
	return ignoreNotModified(err)
}

// Answer acknowledges the press. Only the first answer reaches Telegram.
func (cc *CallbackChat) Answer(ctx context.Context, text string, alert bool) error {
	var err error
	cc.answered.Do(func() {
		_, err = cc.api.MessagesSetBotCallbackAnswer(ctx, &tg.MessagesSetBotCallbackAnswerRequest{
			QueryID: cc.queryID,
			Message: text,
			Alert:   alert,
		})
	})
	return err
}

func (cc *CallbackChat) Conversation() download.Conversation {
	return cc.conv
}
