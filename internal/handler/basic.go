package handler

import (
	"context"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/event"
)

const (
	StartMessage   = "👋 Hi! Send me a YouTube video link and pick the quality you want."
	UnknownMessage = "🤔 Unknown command. Send /help to see what I can do."
	HelpMessage    = `🎬 YouTube Downloader

Send a youtube.com or youtu.be link and choose one of:
• 🎧 MP3 (128kbps)
• 📹 MP4 (360p)
• 🎥 MP4 (720p)
• 🎞 MP4 (1080p)
• 🎬 MP4 (4K)

If a quality is not available the best one below it is sent instead.

Commands:
• /start - Start the bot
• /help - Show this help message
• /stats - Bot statistics (owner only)`
)

type BasicHandler struct{}

func NewBasicHandler() *BasicHandler {
	return &BasicHandler{}
}

func (h *BasicHandler) HandleStart(ctx context.Context, _ event.Command, chat Chat) error {
	return chat.Reply(ctx, StartMessage, nil)
}

func (h *BasicHandler) HandleHelp(ctx context.Context, _ event.Command, chat Chat) error {
	return chat.Reply(ctx, HelpMessage, nil)
}

func (h *BasicHandler) HandleUnknown(ctx context.Context, _ event.Command, chat Chat) error {
	return chat.Reply(ctx, UnknownMessage, nil)
}
