package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CHANNEL_ID", "@mychannel")
	t.Setenv("MAX_CONCURRENT_JOBS", "1")
	for _, k := range []string{"SESSION_DIR", "DATA_DIR", "FETCH_TIMEOUT", "PENDING_TTL", "MAX_UPLOAD_SIZE", "CHANNEL_USERNAME"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SessionDir != DefaultSessionDir || cfg.DataDir != DefaultDataDir {
		t.Errorf("unexpected dirs %q %q", cfg.SessionDir, cfg.DataDir)
	}
	if cfg.FetchTimeout != DefaultFetchTimeout || cfg.PendingTTL != DefaultPendingTTL {
		t.Errorf("unexpected timeouts %v %v", cfg.FetchTimeout, cfg.PendingTTL)
	}
	if cfg.MaxConcurrentJobs != MinConcurrentJobs {
		t.Errorf("MaxConcurrentJobs = %d, want floor %d", cfg.MaxConcurrentJobs, MinConcurrentJobs)
	}
	if cfg.MaxUploadSize != DefaultMaxUploadSize {
		t.Errorf("MaxUploadSize = %d", cfg.MaxUploadSize)
	}
	if !cfg.GateEnabled() || cfg.ChannelLink != "https://t.me/mychannel" {
		t.Errorf("channel = %q link = %q", cfg.Channel, cfg.ChannelLink)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("APP_ID", "12345")
	t.Setenv("OWNER_ID", "999")
	t.Setenv("FETCH_TIMEOUT", "90s")
	t.Setenv("PENDING_TTL", "0s")
	t.Setenv("MAX_CONCURRENT_JOBS", "8")
	t.Setenv("CHANNEL_ID", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AppID != 12345 || cfg.MaxConcurrentJobs != 8 {
		t.Errorf("ints not parsed: %+v", cfg)
	}
	if !cfg.IsOwner(999) || cfg.IsOwner(1) {
		t.Error("owner check broken")
	}
	if cfg.FetchTimeout != 90*time.Second || cfg.PendingTTL != 0 {
		t.Errorf("durations not parsed: %v %v", cfg.FetchTimeout, cfg.PendingTTL)
	}
	if cfg.GateEnabled() {
		t.Error("gate should be disabled without a channel")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing token", map[string]string{}, "BOT_TOKEN"},
		{"bad app id", map[string]string{"BOT_TOKEN": "x", "APP_ID": "abc"}, "APP_ID"},
		{"bad duration", map[string]string{"BOT_TOKEN": "x", "FETCH_TIMEOUT": "ten minutes"}, "FETCH_TIMEOUT"},
		{"bad size", map[string]string{"BOT_TOKEN": "x", "MAX_UPLOAD_SIZE": "2GB"}, "MAX_UPLOAD_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("BOT_TOKEN", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestChannelLink(t *testing.T) {
	tests := []struct {
		username, channel, want string
	}{
		{"", "@news", "https://t.me/news"},
		{"news", "-1001234567890", "https://t.me/news"},
		{"@news", "", "https://t.me/news"},
		{"", "-1001234567890", ""},
		{"t.me/news", "", "https://t.me/news"},
		{"https://t.me/+invite", "", "https://t.me/+invite"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := ChannelLink(tt.username, tt.channel); got != tt.want {
			t.Errorf("ChannelLink(%q, %q) = %q, want %q", tt.username, tt.channel, got, tt.want)
		}
	}
}
