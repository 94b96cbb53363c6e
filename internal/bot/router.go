package bot

import (
	"context"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/apperr"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/event"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/handler"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

type route func(ctx context.Context, ev event.Event, chat handler.Chat) error

// Router maps every event kind and command to exactly one handler. All
// events except the membership recheck pass the gate first.
type Router struct {
	gate     *handler.GateHandler
	routes   map[event.Kind]route
	commands map[string]route
	unknown  route
}

func NewRouter(gate *handler.GateHandler, dl *handler.DownloadHandler, adm *handler.AdminHandler, basic *handler.BasicHandler) *Router {
	r := &Router{gate: gate}

	r.commands = map[string]route{
		"/start": command(basic.HandleStart),
		"/help":  command(basic.HandleHelp),
		"/stats": command(adm.HandleStats),
	}
	r.unknown = command(basic.HandleUnknown)

	r.routes = map[event.Kind]route{
		event.KindLinkSubmitted: func(ctx context.Context, ev event.Event, chat handler.Chat) error {
			return dl.HandleLink(ctx, ev.(event.LinkSubmitted), chat)
		},
		event.KindQualitySelected: func(ctx context.Context, ev event.Event, chat handler.Chat) error {
			return dl.HandleSelection(ctx, ev.(event.QualitySelected), chat)
		},
		event.KindMembershipRecheck: func(ctx context.Context, ev event.Event, chat handler.Chat) error {
			return gate.HandleRecheck(ctx, ev.(event.MembershipRecheckRequested), chat)
		},
		event.KindCommand: r.dispatchCommand,
	}
	return r
}

func command(fn func(context.Context, event.Command, handler.Chat) error) route {
	return func(ctx context.Context, ev event.Event, chat handler.Chat) error {
		return fn(ctx, ev.(event.Command), chat)
	}
}

func (r *Router) dispatchCommand(ctx context.Context, ev event.Event, chat handler.Chat) error {
	cmd := ev.(event.Command)
	if h, ok := r.commands[cmd.Name]; ok {
		return h(ctx, ev, chat)
	}
	return r.unknown(ctx, ev, chat)
}

// Dispatch runs the handler for ev and is the single place a handler error
// becomes a user notification and a log line.
func (r *Router) Dispatch(ctx context.Context, ev event.Event, chat handler.Chat) {
	h, ok := r.routes[ev.Kind()]
	if !ok {
		logger.Warn("No route for event", "kind", ev.Kind(), "owner", ev.Owner())
		return
	}

	if ev.Kind() != event.KindMembershipRecheck && !r.gate.Guard(ctx, ev, chat) {
		return
	}

	err := h(ctx, ev, chat)
	if err == nil {
		return
	}

	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindValidation, apperr.KindAuthorization:
		logger.Info("Event rejected", "kind", ev.Kind(), "owner", ev.Owner(), "reason", err)
	default:
		logger.Error("Event failed", "kind", ev.Kind(), "owner", ev.Owner(), "error_kind", kind, "error", err)
	}

	if kind == apperr.KindDelivery {
		return
	}
	if nerr := chat.Reply(ctx, apperr.UserMessage(err), nil); nerr != nil {
		logger.Warn("Failed to notify user", "owner", ev.Owner(), "error", nerr)
	}
}
