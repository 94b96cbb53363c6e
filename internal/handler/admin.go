package handler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/catalog"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/event"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/stats"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/utils"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/worker"
)

type AdminHandler struct {
	isOwner func(int64) bool
	stats   *stats.BotStats
	pool    *worker.Pool
	workDir string
	system  func(workDir string) *stats.SystemInfo
}

func NewAdminHandler(isOwner func(int64) bool, st *stats.BotStats, pool *worker.Pool, workDir string) *AdminHandler {
	return &AdminHandler{
		isOwner: isOwner,
		stats:   st,
		pool:    pool,
		workDir: workDir,
		system:  stats.GetSystemInfo,
	}
}

// HandleStats is silently ignored for anyone but the owner.
func (h *AdminHandler) HandleStats(ctx context.Context, ev event.Command, chat Chat) error {
	if !h.isOwner(ev.OwnerID) {
		logger.Debug("Ignoring /stats from non-owner", "user", ev.OwnerID)
		return nil
	}
	return chat.Reply(ctx, FormatStats(h.stats.Snapshot(), h.system(h.workDir), h.pool.Active(), h.pool.Waiting()), nil)
}

func FormatStats(snap stats.Snapshot, sys *stats.SystemInfo, active, waiting int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 Bot Status\n\n")
	fmt.Fprintf(&b, "Downloads\n")
	fmt.Fprintf(&b, "├ Total : %d (✅ %d / ❌ %d)\n", snap.TotalDownloads, snap.SuccessDownloads, snap.FailedDownloads)
	fmt.Fprintf(&b, "├ Today : %d (%s)\n", snap.Today.Downloads, utils.FormatBytes(uint64(snap.Today.Bytes)))
	fmt.Fprintf(&b, "├ Sent : %s\n", utils.FormatBytes(uint64(snap.TotalBytes)))
	fmt.Fprintf(&b, "├ Users : %d\n", snap.UniqueUsers)
	fmt.Fprintf(&b, "└ Jobs : %d running, %d queued\n\n", active, waiting)

	fmt.Fprintf(&b, "Qualities\n")
	for _, q := range catalog.Qualities() {
		fmt.Fprintf(&b, "├ %s : %d\n", q.Label(), snap.Qualities[q])
	}
	if len(snap.FailureKinds) > 0 {
		kinds := make([]string, 0, len(snap.FailureKinds))
		for k := range snap.FailureKinds {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		parts := make([]string, 0, len(kinds))
		for _, k := range kinds {
			parts = append(parts, fmt.Sprintf("%s=%d", k, snap.FailureKinds[k]))
		}
		fmt.Fprintf(&b, "└ Failures : %s\n", strings.Join(parts, ", "))
	}

	if sys != nil {
		fmt.Fprintf(&b, "\nSystem\n")
		fmt.Fprintf(&b, "├ Host : %s (%s)\n", sys.Hostname, sys.OS)
		fmt.Fprintf(&b, "├ CPU : %d cores, %.1f%%\n", sys.CPUCores, sys.CPUUsage)
		fmt.Fprintf(&b, "├ Memory : %s / %s (%.1f%%)\n", utils.FormatBytes(sys.MemUsed), utils.FormatBytes(sys.MemTotal), sys.MemPercent)
		fmt.Fprintf(&b, "├ Disk free : %s\n", utils.FormatBytes(sys.DiskFree))
		fmt.Fprintf(&b, "├ Process : %s RSS, %.1f%% CPU\n", utils.FormatBytes(sys.ProcessMem), sys.ProcessCPU)
		fmt.Fprintf(&b, "└ Go : %s, %d goroutines\n", sys.GoVersion, sys.Goroutines)
	}

	fmt.Fprintf(&b, "\nUptime : %s", utils.FormatDuration(snap.Uptime.Round(time.Second)))
	return b.String()
}
