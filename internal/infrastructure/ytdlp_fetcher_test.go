package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/ytmm-go/internal/domain"
	"github.com/yourusername/ytmm-go/pkg/logger"
)

// fakeBinary writes an executable shell script standing in for yt-dlp
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func newTestFetcher(t *testing.T, binary string) (*YTDLPFetcher, string) {
	t.Helper()
	config := domain.DefaultConfig().Fetcher
	config.Binary = binary
	config.ProbeTimeout = 10 * time.Second
	config.FetchTimeout = 30 * time.Second
	logsDir := t.TempDir()
	return NewYTDLPFetcher(&config, logsDir, nil), logsDir
}

func TestCommandBuilder_Build(t *testing.T) {
	builder := DefaultCommandBuilder()

	args := builder.Build("https://youtu.be/abc", "720", "/tmp/out/req-1")

	assert.Equal(t, []string{
		"-f", "bestvideo[height<=720][vcodec!=?vp9]+bestaudio/best",
		"--merge-output-format", "mp4",
		"--recode-video", "mp4",
		"--embed-subs",
		"--sub-langs", "fr,en,es,it,pt,ru,zh,ja",
		"--embed-metadata",
		"--no-playlist",
		"-o", filepath.Join("/tmp/out/req-1", "%(title)s.%(ext)s"),
		"https://youtu.be/abc",
	}, args)
}

func TestCommandBuilder_HeightOnlyChangesSelector(t *testing.T) {
	builder := DefaultCommandBuilder()

	a := builder.Build("https://youtu.be/abc", "360", "/out")
	b := builder.Build("https://youtu.be/abc", "360", "/out")
	c := builder.Build("https://youtu.be/abc", "2160", "/out")

	assert.Equal(t, a, b)
	require.Len(t, c, len(a))
	for i := range a {
		if a[i] == c[i] {
			continue
		}
		assert.Equal(t, 1, i, "only the format selector may differ")
		assert.Equal(t, strings.Replace(a[i], "height<=360", "height<=2160", 1), c[i])
	}
}

func TestCommandBuilder_FormatSelectorWithoutExclusion(t *testing.T) {
	builder := CommandBuilder{Container: "mkv"}
	assert.Equal(t, "bestvideo[height<=1080]+bestaudio/best", builder.FormatSelector("1080"))
}

func TestProbeArgs(t *testing.T) {
	assert.Equal(t, []string{"--dump-json", "--no-playlist", "https://youtu.be/x"}, ProbeArgs("https://youtu.be/x"))
}

func TestParseProbeOutput(t *testing.T) {
	out := []byte(`{"id":"abc","title":"Clip","duration":212.5,"uploader":"Someone","formats":[{"format_id":"18"}]}
{"id":"second"}`)

	info, err := parseProbeOutput(out)
	require.NoError(t, err)
	assert.Equal(t, "abc", info.ID)
	assert.Equal(t, "Clip", info.Title)
	assert.Equal(t, 212.5, info.Duration)
	assert.Equal(t, "Someone", info.Uploader)

	_, err = parseProbeOutput([]byte("not json"))
	assert.Error(t, err)
}

func TestYTDLPFetcher_Probe(t *testing.T) {
	bin := fakeBinary(t, `echo '{"id":"abc","title":"Clip","duration":60}'`)
	fetcher, _ := newTestFetcher(t, bin)

	info, err := fetcher.Probe(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Equal(t, "Clip", info.Title)
	assert.Equal(t, 60.0, info.Duration)
}

func TestYTDLPFetcher_ProbeFailure(t *testing.T) {
	bin := fakeBinary(t, "echo 'ERROR: Video unavailable' >&2\nexit 1\n")
	fetcher, _ := newTestFetcher(t, bin)

	_, err := fetcher.Probe(context.Background(), "https://youtu.be/gone")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProbeFailed)
}

func TestYTDLPFetcher_Fetch(t *testing.T) {
	// The fake honours -o by writing into the directory of the template
	bin := fakeBinary(t, `
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
dir=$(dirname "$out")
echo "[download] Destination: $dir/Clip.mp4"
printf 'video-bytes' > "$dir/Clip.mp4"
printf 'sub' > "$dir/Clip.fr.vtt"
`)
	fetcher, logsDir := newTestFetcher(t, bin)
	outDir := filepath.Join(t.TempDir(), "req-1")

	result, err := fetcher.Fetch(context.Background(), domain.FetchRequest{
		ID:        "req-1",
		URL:       "https://youtu.be/abc",
		Height:    "720",
		OutputDir: outDir,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "Clip.mp4"), result.FilePath)
	assert.Equal(t, int64(len("video-bytes")), result.SizeBytes)
	assert.Contains(t, result.Output, "Destination")

	logData, err := os.ReadFile(logger.CategoryLogPath(logsDir, logger.CategoryDownload, time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "Download: req-1")
	assert.Contains(t, string(logData), "SUCCESS")
	assert.Contains(t, string(logData), "=== END ===")
}

func TestYTDLPFetcher_FetchWithoutOutput(t *testing.T) {
	bin := fakeBinary(t, "exit 0\n")
	fetcher, _ := newTestFetcher(t, bin)

	_, err := fetcher.Fetch(context.Background(), domain.FetchRequest{
		ID:        "req-2",
		URL:       "https://youtu.be/abc",
		Height:    "360",
		OutputDir: filepath.Join(t.TempDir(), "req-2"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoOutput)
}

func TestYTDLPFetcher_FetchFailure(t *testing.T) {
	bin := fakeBinary(t, "echo 'ERROR: requested format not available' >&2\nexit 1\n")
	fetcher, logsDir := newTestFetcher(t, bin)

	result, err := fetcher.Fetch(context.Background(), domain.FetchRequest{
		ID:        "req-3",
		URL:       "https://youtu.be/abc",
		Height:    "2160",
		OutputDir: filepath.Join(t.TempDir(), "req-3"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Contains(t, result.Output, "requested format not available")

	logData, err := os.ReadFile(logger.CategoryLogPath(logsDir, logger.CategoryDownload, time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "FAILED")
}

func TestYTDLPFetcher_FetchCancelled(t *testing.T) {
	// A child that outlives the shell would keep the pipes open without the group kill
	bin := fakeBinary(t, "sleep 30 &\nexec sleep 30\n")
	fetcher, _ := newTestFetcher(t, bin)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := fetcher.Fetch(ctx, domain.FetchRequest{
		ID:        "req-4",
		URL:       "https://youtu.be/abc",
		Height:    "480",
		OutputDir: filepath.Join(t.TempDir(), "req-4"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.Less(t, time.Since(start), killGrace)
}

func TestTailBuffer_KeepsSuffix(t *testing.T) {
	buf := newTailBuffer(5)
	_, _ = buf.Write([]byte("abc"))
	_, _ = buf.Write([]byte("defgh"))
	assert.Equal(t, "defgh", buf.String())
	assert.True(t, strings.HasSuffix("abcdefgh", buf.String()))
}
