package transcode

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/catalog"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

const (
	FFmpegCommand   = "ffmpeg"
	AudioCodec      = "libmp3lame"
	DefaultBitrate  = "128k"
	FastStartFlag   = "+faststart"
	ConvertedSuffix = "-converted"
)

// FFmpeg converts fetched files with the ffmpeg binary.
type FFmpeg struct {
	bin string
}

func New(bin string) *FFmpeg {
	if bin == "" {
		bin = FFmpegCommand
	}
	return &FFmpeg{bin: bin}
}

func (f *FFmpeg) Transcode(ctx context.Context, input string, spec catalog.FormatSpec) (string, error) {
	if _, err := os.Stat(input); err != nil {
		return "", errors.Wrap(err, "input file")
	}

	output := OutputPath(input, spec.Container)
	args := BuildArgs(input, output, spec)

	start := time.Now()
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.bin, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(output)
		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), "ffmpeg interrupted")
		}
		if tail := lastLine(stderr.String()); tail != "" {
			return "", errors.Wrapf(err, "ffmpeg: %s", tail)
		}
		return "", errors.Wrap(err, "ffmpeg")
	}

	logger.InfoWithDuration("Transcoded", start, "input", filepath.Base(input), "output", filepath.Base(output))
	return output, nil
}

// BuildArgs returns the ffmpeg arguments for turning input into output.
func BuildArgs(input, output string, spec catalog.FormatSpec) []string {
	if spec.ExtractAudio {
		bitrate := spec.AudioBitrate
		if bitrate == "" {
			bitrate = DefaultBitrate
		}
		return []string{
			"-y",
			"-i", input,
			"-vn",
			"-c:a", AudioCodec,
			"-b:a", bitrate,
			output,
		}
	}
	return []string{
		"-y",
		"-i", input,
		"-c", "copy",
		"-movflags", FastStartFlag,
		output,
	}
}

// OutputPath swaps the extension of input for container. When that would
// name the input itself, a suffix keeps the two apart.
func OutputPath(input, container string) string {
	if container == "" {
		container = "mp4"
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	out := base + "." + container
	if out == input {
		out = base + ConvertedSuffix + "." + container
	}
	return out
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
