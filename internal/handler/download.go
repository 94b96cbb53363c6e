package handler

import (
	"context"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/apperr"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/download"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/event"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/link"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

const ChooseQualityMessage = "🎬 Choose the quality you want:"

type DownloadHandler struct {
	orch *download.Orchestrator
}

func NewDownloadHandler(orch *download.Orchestrator) *DownloadHandler {
	return &DownloadHandler{orch: orch}
}

// HandleLink stores a recognized link and offers the quality choices.
func (h *DownloadHandler) HandleLink(ctx context.Context, ev event.LinkSubmitted, chat Chat) error {
	res := link.Classify(ev.Text)
	if !res.Valid {
		return apperr.Validation("handler.link", link.RejectMessage)
	}

	h.orch.Remember(ev.OwnerID, res.URL)
	logger.Info("Link accepted", "owner", ev.OwnerID, "url", res.URL)

	if err := chat.Reply(ctx, ChooseQualityMessage, QualityKeyboard()); err != nil {
		return apperr.Delivery("handler.link", err)
	}
	return nil
}

// HandleSelection starts a job for the owner's pending link. The job reports
// progress and the outcome through the chat's conversation.
func (h *DownloadHandler) HandleSelection(ctx context.Context, ev event.QualitySelected, chat Chat) error {
	if err := chat.Answer(ctx, "", false); err != nil {
		logger.Debug("Callback answer failed", "owner", ev.OwnerID, "error", err)
	}

	if _, err := h.orch.Select(ev.OwnerID, ev.Quality, chat.Conversation()); err != nil {
		return err
	}
	return nil
}
