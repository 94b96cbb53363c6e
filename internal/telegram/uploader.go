package telegram

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
)

const uploadThreads = 4

type Uploader struct {
	api *tg.Client
}

func NewUploader(api *tg.Client) *Uploader {
	return &Uploader{api: api}
}

type progressFunc func(uploaded, total int64)

func (f progressFunc) Chunk(_ context.Context, state uploader.ProgressState) error {
	f(state.Uploaded, state.Total)
	return nil
}

// Upload sends the file at path to Telegram's file storage. progress may be nil.
func (u *Uploader) Upload(ctx context.Context, path string, progress func(uploaded, total int64)) (tg.InputFileClass, error) {
	up := uploader.NewUploader(u.api).WithThreads(uploadThreads)
	if progress != nil {
		up = up.WithProgress(progressFunc(progress))
	}

	file, err := up.FromPath(ctx, path)
	if err != nil {
		return nil, errors.Wrap(err, "upload")
	}
	return file, nil
}
