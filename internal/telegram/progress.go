package telegram

import (
	"fmt"
	"sync"
	"time"

	"github.com/pavelc4/gatekeeper-dl-bot/pkg/utils"
)

const defaultProgressPeriod = 3 * time.Second

// ProgressTracker turns upload progress into throttled status texts.
type ProgressTracker struct {
	mu        sync.Mutex
	lastTime  time.Time
	minPeriod time.Duration
	now       func() time.Time
	emit      func(text string)
}

func NewProgressTracker(emit func(text string)) *ProgressTracker {
	return &ProgressTracker{
		minPeriod: defaultProgressPeriod,
		now:       time.Now,
		emit:      emit,
	}
}

// Update emits at most once per period, except for the final chunk.
func (pt *ProgressTracker) Update(uploaded, total int64) {
	pt.mu.Lock()
	now := pt.now()
	done := total > 0 && uploaded >= total
	if !done && now.Sub(pt.lastTime) < pt.minPeriod {
		pt.mu.Unlock()
		return
	}
	pt.lastTime = now
	pt.mu.Unlock()

	pt.emit(ProgressText(uploaded, total))
}

func ProgressText(uploaded, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("📤 Uploading... %s", utils.FormatBytes(uint64(uploaded)))
	}
	percent := float64(uploaded) / float64(total) * 100
	return fmt.Sprintf("📤 Uploading... %.1f%% (%s / %s)",
		percent, utils.FormatBytes(uint64(uploaded)), utils.FormatBytes(uint64(total)))
}
