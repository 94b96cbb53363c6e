package event

import (
	"testing"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/catalog"
)

func TestFromText(t *testing.T) {
	tests := []struct {
		text     string
		wantKind Kind
		wantName string
		wantArgs int
	}{
		{"https://youtu.be/abc123", KindLinkSubmitted, "", 0},
		{"look at this https://youtu.be/abc123", KindLinkSubmitted, "", 0},
		{"/start", KindCommand, "/start", 0},
		{"/Stats@GatekeeperBot now", KindCommand, "/stats", 1},
		{"  /help  ", KindCommand, "/help", 0},
		{"", KindLinkSubmitted, "", 0},
	}

	for _, tt := range tests {
		ev := FromText(42, tt.text)
		if ev.Kind() != tt.wantKind {
			t.Errorf("FromText(%q) kind = %s, want %s", tt.text, ev.Kind(), tt.wantKind)
			continue
		}
		if ev.Owner() != 42 {
			t.Errorf("FromText(%q) owner = %d", tt.text, ev.Owner())
		}
		if cmd, ok := ev.(Command); ok {
			if cmd.Name != tt.wantName || len(cmd.Args) != tt.wantArgs {
				t.Errorf("FromText(%q) = %+v", tt.text, cmd)
			}
		}
	}
}

func TestFromCallback(t *testing.T) {
	tests := []struct {
		data        string
		ok          bool
		kind        Kind
		wantQuality catalog.Quality
	}{
		{EncodeQuality(catalog.Audio), true, KindQualitySelected, catalog.Audio},
		{"q:ultra", true, KindQualitySelected, catalog.Ultra},
		{"q:8k", true, KindQualitySelected, catalog.Quality("8k")},
		{"720p|https://youtu.be/abc", true, KindQualitySelected, catalog.Medium},
		{"mp3|https://youtu.be/abc", true, KindQualitySelected, catalog.Audio},
		{RecheckData, true, KindMembershipRecheck, ""},
		{"check_joined", true, KindMembershipRecheck, ""},
		{"q:", false, 0, ""},
		{"|https://youtu.be/abc", false, 0, ""},
		{"garbage", false, 0, ""},
		{"", false, 0, ""},
	}

	for _, tt := range tests {
		ev, ok := FromCallback(7, tt.data)
		if ok != tt.ok {
			t.Errorf("FromCallback(%q) ok = %v, want %v", tt.data, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if ev.Kind() != tt.kind || ev.Owner() != 7 {
			t.Errorf("FromCallback(%q) = %+v", tt.data, ev)
		}
		if sel, isSel := ev.(QualitySelected); isSel && sel.Quality != tt.wantQuality {
			t.Errorf("FromCallback(%q) quality = %q, want %q", tt.data, sel.Quality, tt.wantQuality)
		}
	}
}

func TestEncodeQualityRoundTripsEveryTag(t *testing.T) {
	for _, q := range catalog.Qualities() {
		data := EncodeQuality(q)
		if len(data) > 64 {
			t.Errorf("payload %q exceeds the callback data limit", data)
		}
		ev, ok := FromCallback(1, data)
		if !ok || ev.(QualitySelected).Quality != q {
			t.Errorf("payload %q did not decode to %q", data, q)
		}
	}
}
