package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const (
	DefaultSessionDir       = "./session"
	DefaultDataDir          = "./data"
	DefaultFetchTimeout     = 10 * time.Minute
	DefaultTranscodeTimeout = 10 * time.Minute
	DefaultPendingTTL       = 24 * time.Hour
	DefaultMaxUploadSize    = int64(2 * 1024 * 1024 * 1024)
	MinConcurrentJobs       = 2
)

type Config struct {
	BotToken   string
	AppID      int
	AppHash    string
	SessionDir string

	// Channel is the channel users must belong to: "@name", "name" or a
	// numeric id. Empty disables the membership gate.
	Channel     string
	ChannelLink string
	OwnerID     int64

	WorkDir           string
	DataDir           string
	MaxConcurrentJobs int
	FetchTimeout      time.Duration
	TranscodeTimeout  time.Duration
	PendingTTL        time.Duration
	MaxUploadSize     int64
	CookiesFile       string
	FFmpegPath        string

	LogLevel string
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:    getEnv("BOT_TOKEN", ""),
		AppHash:     getEnv("APP_HASH", ""),
		SessionDir:  getEnv("SESSION_DIR", DefaultSessionDir),
		Channel:     strings.TrimSpace(getEnv("CHANNEL_ID", "")),
		WorkDir:     getEnv("WORK_DIR", filepath.Join(os.TempDir(), "gatekeeper")),
		DataDir:     getEnv("DATA_DIR", DefaultDataDir),
		CookiesFile: getEnv("YTDLP_COOKIES", ""),
		FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is required")
	}

	var err error
	if cfg.AppID, err = getEnvInt("APP_ID", 0); err != nil {
		return nil, err
	}
	if cfg.OwnerID, err = getEnvInt64("OWNER_ID", 0); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentJobs, err = getEnvInt("MAX_CONCURRENT_JOBS", runtime.NumCPU()); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentJobs < MinConcurrentJobs {
		cfg.MaxConcurrentJobs = MinConcurrentJobs
	}
	if cfg.FetchTimeout, err = getEnvDuration("FETCH_TIMEOUT", DefaultFetchTimeout); err != nil {
		return nil, err
	}
	if cfg.TranscodeTimeout, err = getEnvDuration("TRANSCODE_TIMEOUT", DefaultTranscodeTimeout); err != nil {
		return nil, err
	}
	if cfg.PendingTTL, err = getEnvDuration("PENDING_TTL", DefaultPendingTTL); err != nil {
		return nil, err
	}
	if cfg.MaxUploadSize, err = getEnvInt64("MAX_UPLOAD_SIZE", DefaultMaxUploadSize); err != nil {
		return nil, err
	}

	cfg.ChannelLink = ChannelLink(getEnv("CHANNEL_USERNAME", ""), cfg.Channel)
	return cfg, nil
}

// GateEnabled reports whether a channel to check membership against is set.
func (c *Config) GateEnabled() bool {
	return c.Channel != ""
}

func (c *Config) IsOwner(userID int64) bool {
	return c.OwnerID != 0 && c.OwnerID == userID
}

// ChannelLink builds the public join link from an explicit username, falling
// back to the channel id when that is a username itself.
func ChannelLink(username, channel string) string {
	name := strings.TrimPrefix(strings.TrimSpace(username), "@")
	if name == "" {
		name = strings.TrimPrefix(channel, "@")
		if _, err := strconv.ParseInt(name, 10, 64); err == nil {
			return ""
		}
	}
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "https://") || strings.HasPrefix(name, "t.me/") {
		if strings.HasPrefix(name, "t.me/") {
			return "https://" + name
		}
		return name
	}
	return "https://t.me/" + name
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return v, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return v, nil
}
