package catalog

import (
	"strings"
	"testing"
)

func TestResolveTotal(t *testing.T) {
	for _, q := range Qualities() {
		spec := Resolve(q)
		if spec.Selector == "" {
			t.Errorf("Resolve(%s) has empty selector", q)
		}
		if spec.Container == "" {
			t.Errorf("Resolve(%s) has empty container", q)
		}
		if Resolve(q) != spec {
			t.Errorf("Resolve(%s) is not deterministic", q)
		}
		if !q.Known() {
			t.Errorf("%s should be known", q)
		}
	}
}

func TestResolveUnknownFallsBack(t *testing.T) {
	for _, q := range []Quality{"", "8k", "q:720p", "garbage"} {
		if got := Resolve(q); got != Default {
			t.Errorf("Resolve(%q) = %+v, want Default", q, got)
		}
		if q.Known() {
			t.Errorf("%q should not be known", q)
		}
	}
}

func TestAudioNeedsExtraction(t *testing.T) {
	spec := Resolve(Audio)
	if !spec.ExtractAudio || spec.Container != "mp3" {
		t.Errorf("audio spec = %+v, want mp3 extraction", spec)
	}
	for _, q := range []Quality{Low, Medium, High, Ultra} {
		if Resolve(q).ExtractAudio {
			t.Errorf("%s should not extract audio", q)
		}
	}
}

func TestVideoSelectorsDegradeToBest(t *testing.T) {
	for _, q := range []Quality{Low, Medium, High, Ultra} {
		if !strings.HasSuffix(Resolve(q).Selector, "/best") {
			t.Errorf("%s selector %q has no best fallback", q, Resolve(q).Selector)
		}
	}
}

func TestParse(t *testing.T) {
	tests := map[string]Quality{
		"audio":   Audio,
		"MP3":     Audio,
		"360p":    Low,
		"720p":    Medium,
		" 1080p":  High,
		"4K":      Ultra,
		"ultra":   Ultra,
		"mystery": Quality("mystery"),
	}
	for in, want := range tests {
		if got := Parse(in); got != want {
			t.Errorf("Parse(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestQualitiesIsACopy(t *testing.T) {
	qs := Qualities()
	if len(qs) != 5 {
		t.Fatalf("expected 5 qualities, got %d", len(qs))
	}
	qs[0] = "tampered"
	if Qualities()[0] != Audio {
		t.Error("Qualities must not expose internal slice")
	}
}
