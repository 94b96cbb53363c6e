package handler

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/apperr"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/event"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/membership"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

const JoinedMessage = "✅ Verified! Now send me a video link."

type GateHandler struct {
	gate        *membership.Gate
	channelLink string
}

func NewGateHandler(gate *membership.Gate, channelLink string) *GateHandler {
	return &GateHandler{gate: gate, channelLink: channelLink}
}

// Guard reports whether ev may proceed. When it may not, the user has
// already been told why.
func (h *GateHandler) Guard(ctx context.Context, ev event.Event, chat Chat) bool {
	err := h.gate.Check(ctx, ev.Owner())
	if err == nil {
		return true
	}

	logger.Info("Event blocked by membership gate", "owner", ev.Owner(), "kind", ev.Kind(), "reason", err)

	if ev.Kind() == event.KindQualitySelected {
		if aerr := chat.Answer(ctx, "", false); aerr != nil {
			logger.Debug("Callback answer failed", "owner", ev.Owner(), "error", aerr)
		}
	}

	var sendErr error
	if errors.Is(err, membership.ErrNotMember) {
		sendErr = chat.Reply(ctx, membership.NotMemberMessage, JoinKeyboard(h.channelLink))
	} else {
		sendErr = chat.Reply(ctx, apperr.UserMessage(err), nil)
	}
	if sendErr != nil {
		logger.Warn("Failed to send membership prompt", "owner", ev.Owner(), "error", sendErr)
	}
	return false
}

// HandleRecheck answers the "I've joined" button.
func (h *GateHandler) HandleRecheck(ctx context.Context, ev event.MembershipRecheckRequested, chat Chat) error {
	err := h.gate.Check(ctx, ev.OwnerID)
	switch {
	case err == nil:
		logger.Info("Membership confirmed", "owner", ev.OwnerID)
		if aerr := chat.Answer(ctx, "", false); aerr != nil {
			logger.Debug("Callback answer failed", "owner", ev.OwnerID, "error", aerr)
		}
		if eerr := chat.Edit(ctx, JoinedMessage, nil); eerr != nil {
			return apperr.Delivery("handler.recheck", eerr)
		}
		return nil
	case errors.Is(err, membership.ErrNotMember):
		logger.Info("Recheck: still not a member", "owner", ev.OwnerID)
		return chat.Answer(ctx, membership.StillOutMessage, true)
	default:
		logger.Warn("Recheck could not verify membership", "owner", ev.OwnerID, "error", err)
		return chat.Answer(ctx, membership.RetryMessage, true)
	}
}
