package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteArg(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple path", "/tmp/simple/path", "/tmp/simple/path"},
		{"empty string", "", "''"},
		{"path with spaces", "/tmp/path with spaces", "'/tmp/path with spaces'"},
		{"single quote", "/tmp/it's a test", `'/tmp/it'"'"'s a test'`},
		{"double quote", `/tmp/path"with"quote`, `'/tmp/path"with"quote'`},
		{"dollar sign", "/tmp/$HOME", "'/tmp/$HOME'"},
		{"format selector", "bestvideo[height<=720][vcodec!=?vp9]+bestaudio/best", "'bestvideo[height<=720][vcodec!=?vp9]+bestaudio/best'"},
		{"output template", "/tmp/dl/%(title)s.%(ext)s", "'/tmp/dl/%(title)s.%(ext)s'"},
		{"url with query", "https://www.youtube.com/watch?v=abc&t=10", "'https://www.youtube.com/watch?v=abc&t=10'"},
		{"plain flag", "--embed-subs", "--embed-subs"},
		{"comma list", "fr,en,es", "fr,en,es"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteArg(tt.input))
		})
	}
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		name     string
		binary   string
		args     []string
		expected string
	}{
		{
			name:     "simple command",
			binary:   "yt-dlp",
			args:     []string{"--version"},
			expected: "yt-dlp --version",
		},
		{
			name:     "probe",
			binary:   "yt-dlp",
			args:     []string{"--dump-json", "--no-playlist", "https://youtu.be/abc"},
			expected: "yt-dlp --dump-json --no-playlist https://youtu.be/abc",
		},
		{
			name:     "binary with space",
			binary:   "/opt/my tools/yt-dlp",
			args:     []string{"-o", "/tmp/my downloads/%(title)s.%(ext)s"},
			expected: "'/opt/my tools/yt-dlp' -o '/tmp/my downloads/%(title)s.%(ext)s'",
		},
		{
			name:     "no args",
			binary:   "yt-dlp",
			expected: "yt-dlp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCommand(tt.binary, tt.args...))
		})
	}
}
