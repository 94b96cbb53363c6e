package telegram

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"github.com/pavelc4/gatekeeper-dl-bot/config"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

type Client struct {
	client *telegram.Client
	api    *tg.Client
	peers  *Peers
	me     *tg.User
}

func NewClient(cfg *config.Config, handler telegram.UpdateHandler, log *zap.Logger) (*Client, error) {
	if cfg.AppID == 0 || cfg.AppHash == "" {
		return nil, errors.New("APP_ID and APP_HASH are required for MTProto")
	}
	if err := os.MkdirAll(cfg.SessionDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "create session dir")
	}

	opts := telegram.Options{
		SessionStorage: &session.FileStorage{Path: filepath.Join(cfg.SessionDir, "session.json")},
		UpdateHandler:  handler,
		Logger:         log,
	}
	client := telegram.NewClient(cfg.AppID, cfg.AppHash, opts)

	return &Client{
		client: client,
		api:    client.API(),
		peers:  NewPeers(),
	}, nil
}

// Start logs in as a bot, calls onReady once connected and blocks until ctx
// is cancelled.
func (c *Client) Start(ctx context.Context, botToken string, onReady func(ctx context.Context) error) error {
	return c.client.Run(ctx, func(ctx context.Context) error {
		status, err := c.client.Auth().Status(ctx)
		if err != nil {
			return errors.Wrap(err, "auth status")
		}

		if !status.Authorized {
			if _, err := c.client.Auth().Bot(ctx, botToken); err != nil {
				return errors.Wrap(err, "bot login")
			}
		}

		me, err := c.client.Self(ctx)
		if err != nil {
			return errors.Wrap(err, "get self")
		}
		c.me = me

		logger.Info("Telegram client connected", "username", me.Username, "id", me.ID)

		if onReady != nil {
			if err := onReady(ctx); err != nil {
				return err
			}
		}

		<-ctx.Done()
		return nil
	})
}

func (c *Client) API() *tg.Client {
	return c.api
}

func (c *Client) Peers() *Peers {
	return c.peers
}

func (c *Client) Me() *tg.User {
	return c.me
}

// NewZapLogger builds the logger gotd writes its own diagnostics to.
func NewZapLogger(level string) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if level == "debug" {
		log, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		log, err = cfg.Build()
	}
	if err != nil {
		logger.Warn("Falling back to a no-op MTProto logger", "error", err)
		return zap.NewNop()
	}
	return log.Named("mtproto")
}
