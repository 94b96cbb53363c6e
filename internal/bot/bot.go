package bot

import (
	"context"

	"github.com/gotd/td/tg"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/apperr"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/event"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/handler"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/middleware"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/telegram"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

// UnknownActionMessage answers presses of buttons this bot no longer knows.
const UnknownActionMessage = "This button is no longer supported."

type Bot struct {
	client *telegram.Client
	router *Router
}

// New registers the bot's update handlers on dispatcher. Each update is
// handled in its own goroutine so the update loop never waits on a user.
func New(client *telegram.Client, router *Router, dispatcher tg.UpdateDispatcher) *Bot {
	b := &Bot{
		client: client,
		router: router,
	}
	dispatcher.OnNewMessage(b.onMessage)
	dispatcher.OnBotCallbackQuery(b.onCallback)
	return b
}

func (b *Bot) Run(ctx context.Context, token string, onReady func(ctx context.Context) error) error {
	return b.client.Start(ctx, token, onReady)
}

func (b *Bot) onMessage(ctx context.Context, e tg.Entities, update *tg.UpdateNewMessage) error {
	msg, ok := update.Message.(*tg.Message)
	if !ok || msg.Out || msg.Message == "" {
		return nil
	}
	b.client.Peers().Remember(e)

	owner := telegram.SenderID(msg)
	if owner == 0 {
		return nil
	}
	peer, err := b.client.Peers().ResolvePeer(msg.PeerID, e)
	if err != nil {
		logger.Warn("Cannot resolve message peer", "error", err)
		return nil
	}

	ev := event.FromText(owner, msg.Message)
	chat := b.client.MessageChat(peer, msg.ID)
	b.spawn(ctx, middleware.Update{Name: "OnNewMessage", Owner: owner, Kind: ev.Kind().String()}, chat,
		func() { b.router.Dispatch(ctx, ev, chat) })
	return nil
}

func (b *Bot) onCallback(ctx context.Context, e tg.Entities, update *tg.UpdateBotCallbackQuery) error {
	b.client.Peers().Remember(e)

	peer, err := b.client.Peers().ResolvePeer(update.Peer, e)
	if err != nil {
		logger.Warn("Cannot resolve callback peer", "error", err)
		return nil
	}
	chat := b.client.CallbackChat(peer, update.QueryID, update.MsgID)

	ev, ok := event.FromCallback(update.UserID, string(update.Data))
	if !ok {
		logger.Debug("Unknown callback payload", "user_id", update.UserID, "data", string(update.Data))
		u := middleware.Update{Name: "OnBotCallbackQuery", Owner: update.UserID, Kind: "unknown"}
		b.spawn(ctx, u, chat, func() {
			if err := chat.Answer(ctx, UnknownActionMessage, false); err != nil {
				logger.Warn("Callback answer failed", "error", err)
			}
		})
		return nil
	}

	b.spawn(ctx, middleware.Update{Name: "OnBotCallbackQuery", Owner: update.UserID, Kind: ev.Kind().String()}, chat,
		func() { b.router.Dispatch(ctx, ev, chat) })
	return nil
}

// spawn runs fn in its own goroutine. A panic is logged and reported to the
// user as an internal failure.
func (b *Bot) spawn(ctx context.Context, u middleware.Update, chat handler.Chat, fn func()) {
	onPanic := func(err error) {
		msg := apperr.UserMessage(apperr.Internal(u.Name, err))
		if rerr := chat.Reply(ctx, msg, nil); rerr != nil {
			logger.Warn("Failed to report panic to user", "owner", u.Owner, "error", rerr)
		}
	}
	go middleware.Chain(fn,
		middleware.Recover(u, onPanic),
		middleware.Logger(u),
	)()
}
