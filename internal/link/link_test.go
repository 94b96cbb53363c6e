package link

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		valid bool
		url   string
	}{
		{"short link", "https://youtu.be/abc123", true, "https://youtu.be/abc123"},
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", true, "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"mobile", "https://m.youtube.com/watch?v=dQw4w9WgXcQ&t=10", true, "https://m.youtube.com/watch?v=dQw4w9WgXcQ&t=10"},
		{"music", "https://music.youtube.com/watch?v=abc", true, "https://music.youtube.com/watch?v=abc"},
		{"shorts", "https://youtube.com/shorts/xyz789", true, "https://youtube.com/shorts/xyz789"},
		{"no scheme", "youtu.be/abc123", true, "https://youtu.be/abc123"},
		{"embedded in text", "check this out: https://youtu.be/abc123 !!", true, "https://youtu.be/abc123"},
		{"trailing punctuation", "(https://youtu.be/abc123).", true, "https://youtu.be/abc123"},
		{"upper case host", "HTTPS://YOUTU.BE/abc123", true, "https://YOUTU.BE/abc123"},
		{"watch without id", "https://www.youtube.com/watch", false, ""},
		{"channel page", "https://www.youtube.com/@somechannel", false, ""},
		{"bare short host", "https://youtu.be/", false, ""},
		{"lookalike host", "https://notyoutube.com/watch?v=abc", false, ""},
		{"suffix trick", "https://youtube.com.evil.example/watch?v=abc", false, ""},
		{"other platform", "https://vimeo.com/12345", false, ""},
		{"ftp scheme", "ftp://youtu.be/abc123", false, ""},
		{"plain text", "hello there", false, ""},
		{"empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			if got.Valid != tt.valid {
				t.Fatalf("Classify(%q).Valid = %v, want %v", tt.text, got.Valid, tt.valid)
			}
			if got.URL != tt.url {
				t.Errorf("Classify(%q).URL = %q, want %q", tt.text, got.URL, tt.url)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	text := "https://youtu.be/abc123"
	first := Classify(text)
	for i := 0; i < 10; i++ {
		if Classify(text) != first {
			t.Fatal("Classify returned different results for the same input")
		}
	}
}
