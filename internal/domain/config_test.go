package domain

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Empty(t, config.Bot.Token)
	assert.Equal(t, 60, config.Bot.PollTimeout)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, time.Hour, config.Download.RetentionWindow)
	assert.Equal(t, float64(50), config.Download.MaxUploadMB)
	assert.Equal(t, "yt-dlp", config.Fetcher.Binary)
	assert.Equal(t, 60*time.Second, config.Fetcher.ProbeTimeout)
	assert.Equal(t, 30*time.Minute, config.Fetcher.FetchTimeout)
	assert.Equal(t, "mp4", config.Fetcher.Container)
	assert.Equal(t, []string{"fr", "en", "es", "it", "pt", "ru", "zh", "ja"}, config.Fetcher.SubLangs)
	assert.Equal(t, "vp9", config.Fetcher.ExcludedVCodec)
	assert.Equal(t, 2, config.Queue.Workers)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestDownloadConfig_RequestDir(t *testing.T) {
	cfg := DownloadConfig{OutputDir: "/tmp/ytmm/downloads"}

	assert.Equal(t, filepath.Join("/tmp/ytmm/downloads", "abc"), cfg.RequestDir("abc"))
}
