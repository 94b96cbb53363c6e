// Package link decides whether free text carries a supported video link.
// The check is purely syntactic; nothing here touches the network.
package link

import (
	"net/url"
	"strings"
)

const RejectMessage = "❌ That doesn't look like a YouTube link. Send a youtube.com or youtu.be URL."

type Result struct {
	Valid bool
	URL   string
}

var watchPaths = []string{"/shorts/", "/live/", "/embed/", "/v/"}

// Classify scans text for the first recognized link. It never fails; an
// unsupported text yields a zero Result.
func Classify(text string) Result {
	for _, field := range strings.Fields(text) {
		candidate := strings.Trim(field, "<>()[]{}\"'.,;!")
		if candidate == "" {
			continue
		}
		if u, ok := parse(candidate); ok && supported(u) {
			return Result{Valid: true, URL: u.String()}
		}
	}
	return Result{}
}

func parse(raw string) (*url.URL, bool) {
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(lower, "://") {
			return nil, false
		}
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, true
}

func supported(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	switch {
	case host == "youtu.be":
		return len(strings.Trim(u.Path, "/")) > 0
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		return youtubePath(u)
	default:
		return false
	}
}

func youtubePath(u *url.URL) bool {
	if u.Path == "/watch" {
		return u.Query().Get("v") != ""
	}
	for _, p := range watchPaths {
		if strings.HasPrefix(u.Path, p) && len(u.Path) > len(p) {
			return true
		}
	}
	return false
}
