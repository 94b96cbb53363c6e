package stats

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/apperr"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/catalog"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/download"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

const FileName = "stats.json"

// BotStats accumulates job outcomes. It is persisted as JSON so counters
// survive restarts.
type BotStats struct {
	mu   sync.RWMutex
	path string

	StartTime time.Time `json:"-"`

	TotalDownloads   int64 `json:"total_downloads"`
	SuccessDownloads int64 `json:"success_downloads"`
	FailedDownloads  int64 `json:"failed_downloads"`
	TotalBytes       int64 `json:"total_bytes"`

	QualityStats map[catalog.Quality]int64 `json:"quality_stats"`
	FailureKinds map[string]int64          `json:"failure_kinds"`
	UniqueUsers  map[int64]bool            `json:"unique_users"`
	DailyStats   map[string]*PeriodStats   `json:"daily_stats"` // YYYY-MM-DD

	LastDownloadTime time.Time `json:"last_download_time"`
}

type PeriodStats struct {
	Downloads int64          `json:"downloads"`
	Bytes     int64          `json:"bytes"`
	Users     map[int64]bool `json:"users"`
}

// Snapshot is a copy of the counters safe to read without locks.
type Snapshot struct {
	TotalDownloads   int64
	SuccessDownloads int64
	FailedDownloads  int64
	TotalBytes       int64
	UniqueUsers      int
	Today            PeriodStats
	Qualities        map[catalog.Quality]int64
	FailureKinds     map[string]int64
	LastDownloadTime time.Time
	Uptime           time.Duration
}

// New returns empty stats backed by dataDir/stats.json. An empty dataDir
// keeps everything in memory.
func New(dataDir string) *BotStats {
	s := &BotStats{
		StartTime: time.Now(),
	}
	if dataDir != "" {
		s.path = filepath.Join(dataDir, FileName)
	}
	s.init()
	return s
}

func (s *BotStats) init() {
	if s.QualityStats == nil {
		s.QualityStats = make(map[catalog.Quality]int64)
	}
	if s.FailureKinds == nil {
		s.FailureKinds = make(map[string]int64)
	}
	if s.UniqueUsers == nil {
		s.UniqueUsers = make(map[int64]bool)
	}
	if s.DailyStats == nil {
		s.DailyStats = make(map[string]*PeriodStats)
	}
}

// Record is registered as the orchestrator's finish hook.
func (s *BotStats) Record(res download.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.TotalDownloads++
	s.LastDownloadTime = now
	s.UniqueUsers[res.OwnerID] = true
	s.QualityStats[res.Quality]++

	if !res.Success() {
		s.FailedDownloads++
		s.FailureKinds[apperr.KindOf(res.Err).String()]++
		return
	}

	s.SuccessDownloads++
	s.TotalBytes += res.Size

	day := now.Format("2006-01-02")
	p := s.DailyStats[day]
	if p == nil {
		p = &PeriodStats{Users: make(map[int64]bool)}
		s.DailyStats[day] = p
	}
	p.Downloads++
	p.Bytes += res.Size
	p.Users[res.OwnerID] = true
}

func (s *BotStats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		TotalDownloads:   s.TotalDownloads,
		SuccessDownloads: s.SuccessDownloads,
		FailedDownloads:  s.FailedDownloads,
		TotalBytes:       s.TotalBytes,
		UniqueUsers:      len(s.UniqueUsers),
		Qualities:        make(map[catalog.Quality]int64, len(s.QualityStats)),
		FailureKinds:     make(map[string]int64, len(s.FailureKinds)),
		LastDownloadTime: s.LastDownloadTime,
		Uptime:           time.Since(s.StartTime),
	}
	for q, n := range s.QualityStats {
		snap.Qualities[q] = n
	}
	for k, n := range s.FailureKinds {
		snap.FailureKinds[k] = n
	}
	if p := s.DailyStats[time.Now().Format("2006-01-02")]; p != nil {
		snap.Today = PeriodStats{Downloads: p.Downloads, Bytes: p.Bytes}
		snap.Today.Users = make(map[int64]bool, len(p.Users))
		for u := range p.Users {
			snap.Today.Users[u] = true
		}
	}
	return snap
}

func (s *BotStats) SaveToFile() error {
	if s.path == "" {
		return nil
	}

	s.mu.RLock()
	data, err := json.MarshalIndent(s, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, "encode stats")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create data dir")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write stats")
	}
	return os.Rename(tmp, s.path)
}

func (s *BotStats) LoadFromFile() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "read stats")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := json.Unmarshal(data, s); err != nil {
		return errors.Wrap(err, "decode stats")
	}
	s.init()
	return nil
}

// AutoSave writes the stats every interval and once more when ctx ends.
func (s *BotStats) AutoSave(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.SaveToFile(); err != nil {
				logger.Warn("Failed to save stats on shutdown", "error", err)
			}
			return
		case <-ticker.C:
			if err := s.SaveToFile(); err != nil {
				logger.Warn("Failed to save stats", "error", err)
			}
		}
	}
}
