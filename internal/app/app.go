package app

import (
	"context"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"

	"github.com/pavelc4/gatekeeper-dl-bot/config"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/bot"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/download"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/fetch"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/handler"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/membership"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/pending"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/stats"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/telegram"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/transcode"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/worker"
)

const (
	pendingSweepInterval = 10 * time.Minute
	statsSaveInterval    = 5 * time.Minute
	shutdownTimeout      = 30 * time.Second
)

type App struct {
	Bot   *bot.Bot
	Cfg   *config.Config
	pool  *worker.Pool
	store *pending.Store
	stats *stats.BotStats
}

func New() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	logger.SetLevel(cfg.LogLevel)

	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create work dir")
	}

	dispatcher := tg.NewUpdateDispatcher()
	client, err := telegram.NewClient(cfg, dispatcher, telegram.NewZapLogger(cfg.LogLevel))
	if err != nil {
		return nil, err
	}

	var checker membership.Checker
	if cfg.GateEnabled() {
		checker = telegram.NewChannelChecker(client.API(), client.Peers(), cfg.Channel)
		logger.Info("Membership gate enabled", "channel", cfg.Channel, "link", cfg.ChannelLink)
	} else {
		logger.Warn("CHANNEL_ID is not set, membership gate disabled")
	}
	gate := membership.NewGate(checker)

	logger.Info("Using worker pool", "limit", cfg.MaxConcurrentJobs)
	pool := worker.NewPool(cfg.MaxConcurrentJobs)
	store := pending.NewStore(cfg.PendingTTL)

	orch := download.NewOrchestrator(download.Config{
		WorkDir:          cfg.WorkDir,
		FetchTimeout:     cfg.FetchTimeout,
		TranscodeTimeout: cfg.TranscodeTimeout,
		MaxUploadSize:    cfg.MaxUploadSize,
	}, store, pool,
		fetch.New(fetch.Config{CookiesFile: cfg.CookiesFile}),
		transcode.New(cfg.FFmpegPath),
	)

	st := stats.New(cfg.DataDir)
	if err := st.LoadFromFile(); err != nil {
		logger.Warn("Failed to load stats, starting fresh", "error", err)
	}
	orch.SetFinishHook(st.Record)

	router := bot.NewRouter(
		handler.NewGateHandler(gate, cfg.ChannelLink),
		handler.NewDownloadHandler(orch),
		handler.NewAdminHandler(cfg.IsOwner, st, pool, cfg.WorkDir),
		handler.NewBasicHandler(),
	)
	b := bot.New(client, router, dispatcher)

	logger.Info("Application initialized successfully")
	return &App{
		Bot:   b,
		Cfg:   cfg,
		pool:  pool,
		store: store,
		stats: st,
	}, nil
}

// Start runs the bot until ctx is cancelled, then waits for running jobs to
// clean up.
func (a *App) Start(ctx context.Context) error {
	if n := download.SweepStale(ctx, a.Cfg.WorkDir); n > 0 {
		logger.Info("Removed leftovers from a previous run", "count", n)
	}

	go a.store.Janitor(ctx, pendingSweepInterval, func(removed int) {
		logger.Debug("Expired pending links removed", "count", removed)
	})
	go a.stats.AutoSave(ctx, statsSaveInterval)

	err := a.Bot.Run(ctx, a.Cfg.BotToken, func(ctx context.Context) error {
		logger.Info("Bot is ready")
		return nil
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.pool.Stop(shutdownCtx)
	if saveErr := a.stats.SaveToFile(); saveErr != nil {
		logger.Error("Failed to save stats", "error", saveErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
