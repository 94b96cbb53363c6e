package telegram

import (
	"path/filepath"
	"strings"

	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/styling"
	"github.com/gotd/td/tg"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/download"
)

var mimeByExt = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".opus": "audio/ogg",
	".ogg":  "audio/ogg",
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
}

func mimeType(name string) string {
	if m, ok := mimeByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return m
	}
	return "application/octet-stream"
}

// documentMedia describes an uploaded file as a document with audio or
// streamable video attributes.
func documentMedia(file tg.InputFileClass, f download.File) *message.UploadedDocumentBuilder {
	mime := mimeType(f.Name)
	doc := message.UploadedDocument(file, styling.Plain(f.Caption)).
		MIME(mime).
		Filename(f.Name)

	switch {
	case f.Audio || strings.HasPrefix(mime, "audio/"):
		title := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
		doc = doc.Attributes(&tg.DocumentAttributeAudio{Title: title})
	case strings.HasPrefix(mime, "video/"):
		doc = doc.Attributes(&tg.DocumentAttributeVideo{SupportsStreaming: true})
	}
	return doc
}
