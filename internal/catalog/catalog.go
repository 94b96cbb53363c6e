package catalog

import "strings"

type Quality string

const (
	Audio  Quality = "audio"
	Low    Quality = "low"
	Medium Quality = "medium"
	High   Quality = "high"
	Ultra  Quality = "ultra"
)

// FormatSpec is what the fetch tool and the transcoder need to produce a file
// for one quality.
type FormatSpec struct {
	Selector     string
	Container    string
	ExtractAudio bool
	AudioBitrate string
}

// Default is used for any tag the catalog does not know, e.g. buttons sent by
// an older build.
var Default = FormatSpec{
	Selector:  "bestvideo+bestaudio/best",
	Container: "mp4",
}

type entry struct {
	label string
	spec  FormatSpec
}

var qualities = []Quality{Audio, Low, Medium, High, Ultra}

// Every video selector ends in a plain "best" so a missing resolution
// degrades instead of failing the fetch.
var table = map[Quality]entry{
	Audio: {
		label: "🎧 MP3 (128kbps)",
		spec: FormatSpec{
			Selector:     "bestaudio/best",
			Container:    "mp3",
			ExtractAudio: true,
			AudioBitrate: "128k",
		},
	},
	Low: {
		label: "📹 MP4 (360p)",
		spec: FormatSpec{
			Selector:  "18/bestvideo[height<=360]+bestaudio/best[height<=360]/best",
			Container: "mp4",
		},
	},
	Medium: {
		label: "🎥 MP4 (720p)",
		spec: FormatSpec{
			Selector:  "22/bestvideo[height<=720]+bestaudio/best[height<=720]/best",
			Container: "mp4",
		},
	},
	High: {
		label: "🎞 MP4 (1080p)",
		spec: FormatSpec{
			Selector:  "137+140/bestvideo[height<=1080]+bestaudio/best[height<=1080]/best",
			Container: "mp4",
		},
	},
	Ultra: {
		label: "🎬 MP4 (4K)",
		spec: FormatSpec{
			Selector:  "313+140/bestvideo[height<=2160]+bestaudio/best[height<=2160]/best",
			Container: "mp4",
		},
	},
}

var aliases = map[string]Quality{
	"mp3":   Audio,
	"360p":  Low,
	"720p":  Medium,
	"1080p": High,
	"4k":    Ultra,
	"2160p": Ultra,
}

// Qualities returns the selectable tags in prompt order.
func Qualities() []Quality {
	out := make([]Quality, len(qualities))
	copy(out, qualities)
	return out
}

// Parse normalizes a tag or one of the resolution aliases. Unknown input is
// returned as-is and later resolves to Default.
func Parse(s string) Quality {
	key := strings.ToLower(strings.TrimSpace(s))
	if q, ok := aliases[key]; ok {
		return q
	}
	return Quality(key)
}

func (q Quality) Known() bool {
	_, ok := table[q]
	return ok
}

func (q Quality) Label() string {
	if e, ok := table[q]; ok {
		return e.label
	}
	return "⭐ Best available"
}

func Resolve(q Quality) FormatSpec {
	if e, ok := table[q]; ok {
		return e.spec
	}
	return Default
}
