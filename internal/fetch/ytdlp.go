package fetch

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/lrstanley/go-ytdlp"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/download"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

// Files yt-dlp leaves behind while a download is in progress.
var skippedExtensions = []string{".part", ".ytdl", ".temp", ".tmp"}

const maxDiagnosticLines = 3

type Config struct {
	// CookiesFile is passed to yt-dlp when set. A configured file that does
	// not exist fails the fetch.
	CookiesFile string
}

// YtDlp fetches media with the yt-dlp binary.
type YtDlp struct {
	cfg Config
}

func New(cfg Config) *YtDlp {
	return &YtDlp{cfg: cfg}
}

func (y *YtDlp) command(req download.FetchRequest) *ytdlp.Command {
	cmd := ytdlp.New().
		Format(req.Spec.Selector).
		Output(req.Output).
		NoPlaylist().
		RestrictFilenames().
		ForceOverwrites()

	if !req.Spec.ExtractAudio && req.Spec.Container != "" {
		cmd = cmd.MergeOutputFormat(req.Spec.Container)
	}
	if y.cfg.CookiesFile != "" {
		cmd = cmd.Cookies(y.cfg.CookiesFile)
	}
	return cmd
}

func (y *YtDlp) Fetch(ctx context.Context, req download.FetchRequest) (download.Artifact, error) {
	if y.cfg.CookiesFile != "" {
		if _, err := os.Stat(y.cfg.CookiesFile); err != nil {
			return download.Artifact{}, errors.Wrap(err, "cookies file")
		}
	}

	logger.Debug("Running yt-dlp", "url", req.URL, "format", req.Spec.Selector, "dir", req.Dir)

	result, err := y.command(req).Run(ctx, req.URL)
	if err != nil {
		if ctx.Err() != nil {
			return download.Artifact{}, errors.Wrap(ctx.Err(), "yt-dlp interrupted")
		}
		if result != nil {
			if diag := Diagnostic(result.Stderr); diag != "" {
				return download.Artifact{}, errors.Wrap(err, diag)
			}
		}
		return download.Artifact{}, errors.Wrap(err, "yt-dlp")
	}

	path, err := Locate(req.Dir)
	if err != nil {
		return download.Artifact{}, err
	}
	return download.Artifact{Path: path, Title: TitleFromPath(path)}, nil
}

// Locate returns the largest finished file in dir.
func Locate(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(err, "read job dir")
	}

	var (
		best     string
		bestSize int64 = -1
	)
	for _, e := range entries {
		if e.IsDir() || skipped(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.Size() > bestSize {
			best, bestSize = filepath.Join(dir, e.Name()), info.Size()
		}
	}
	if best == "" {
		return "", errors.New("yt-dlp finished without producing a file")
	}
	return best, nil
}

func skipped(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return strings.HasPrefix(name, ".")
}

// TitleFromPath undoes the underscores --restrict-filenames puts in titles.
func TitleFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	title := strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
	if title == "" {
		return base
	}
	return title
}

// Diagnostic picks the lines of yt-dlp stderr worth showing to a user:
// the ERROR lines if any, otherwise the last non-empty line.
func Diagnostic(stderr string) string {
	var errs []string
	last := ""
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		last = line
		if strings.HasPrefix(line, "ERROR:") {
			errs = append(errs, line)
		}
	}
	if len(errs) == 0 {
		return last
	}
	if len(errs) > maxDiagnosticLines {
		errs = errs[len(errs)-maxDiagnosticLines:]
	}
	return strings.Join(errs, "; ")
}
