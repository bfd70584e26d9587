package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytmm-go/internal/domain"
	"github.com/yourusername/ytmm-go/pkg/logger"
)

const (
	// outputTail is how much combined tool output is kept on the result
	outputTail = 8 * 1024
	// killGrace bounds how long Wait blocks on pipes after the process is killed
	killGrace = 5 * time.Second
)

// CommandBuilder builds the yt-dlp argument list for a fetch-and-transcode run
type CommandBuilder struct {
	Container      string
	SubLangs       []string
	ExcludedVCodec string
}

// NewCommandBuilder creates a command builder from fetcher configuration
func NewCommandBuilder(config *domain.FetcherConfig) CommandBuilder {
	return CommandBuilder{
		Container:      config.Container,
		SubLangs:       append([]string(nil), config.SubLangs...),
		ExcludedVCodec: config.ExcludedVCodec,
	}
}

// DefaultCommandBuilder returns the builder for the default configuration
func DefaultCommandBuilder() CommandBuilder {
	return NewCommandBuilder(&domain.DefaultConfig().Fetcher)
}

// FormatSelector returns the -f value: best video at or below height without
// the excluded codec, merged with best audio, falling back to best overall
func (b CommandBuilder) FormatSelector(height string) string {
	video := fmt.Sprintf("bestvideo[height<=%s]", height)
	if b.ExcludedVCodec != "" {
		video += fmt.Sprintf("[vcodec!=?%s]", b.ExcludedVCodec)
	}
	return video + "+bestaudio/best"
}

// Build returns the arguments (without the binary) for fetching url at height into outputDir
func (b CommandBuilder) Build(url, height, outputDir string) []string {
	return []string{
		"-f", b.FormatSelector(height),
		"--merge-output-format", b.Container,
		"--recode-video", b.Container,
		"--embed-subs",
		"--sub-langs", strings.Join(b.SubLangs, ","),
		"--embed-metadata",
		"--no-playlist",
		"-o", filepath.Join(outputDir, "%(title)s.%(ext)s"),
		url,
	}
}

// ProbeArgs returns the arguments for a metadata-only query
func ProbeArgs(url string) []string {
	return []string{"--dump-json", "--no-playlist", url}
}

// YTDLPFetcher implements domain.Fetcher on top of the yt-dlp executable
type YTDLPFetcher struct {
	config      *domain.FetcherConfig
	builder     CommandBuilder
	logsDir     string
	eventLogger *logger.MultiLogger // For structured events only (LogAppError)
}

// NewYTDLPFetcher creates a new yt-dlp fetcher
func NewYTDLPFetcher(config *domain.FetcherConfig, logsDir string, eventLogger *logger.MultiLogger) *YTDLPFetcher {
	return &YTDLPFetcher{
		config:      config,
		builder:     NewCommandBuilder(config),
		logsDir:     logsDir,
		eventLogger: eventLogger,
	}
}

// Probe runs yt-dlp in metadata-only mode
func (f *YTDLPFetcher) Probe(ctx context.Context, url string) (*domain.MediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.ProbeTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := f.command(ctx, ProbeArgs(url)...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", domain.ErrProbeFailed, f.config.ProbeTimeout)
		}
		f.logAppError("yt-dlp probe failed",
			zap.String("url", url),
			zap.Error(err),
			zap.String("stderr", tail(stderr.String(), 1024)))
		return nil, fmt.Errorf("%w: yt-dlp: %v", domain.ErrProbeFailed, err)
	}

	info, err := parseProbeOutput(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProbeFailed, err)
	}
	return info, nil
}

// parseProbeOutput decodes the first JSON document printed by --dump-json
func parseProbeOutput(out []byte) (*domain.MediaInfo, error) {
	var info domain.MediaInfo
	if err := json.NewDecoder(bytes.NewReader(out)).Decode(&info); err != nil {
		return nil, fmt.Errorf("malformed metadata: %w", err)
	}
	return &info, nil
}

// Fetch downloads and transcodes media into req.OutputDir
func (f *YTDLPFetcher) Fetch(ctx context.Context, req domain.FetchRequest) (*domain.FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.FetchTimeout)
	defer cancel()

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	args := f.builder.Build(req.URL, req.Height, req.OutputDir)

	// Open log file for direct redirect (combines stdout and stderr like 2>&1)
	downloadLog, err := f.openLogFile()
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer downloadLog.Close()

	f.writeLogHeader(downloadLog, req.ID, FormatCommand(f.config.Binary, args...))

	output := newTailBuffer(outputTail)
	sink := io.MultiWriter(downloadLog, output)

	cmd := f.command(ctx, args...)
	cmd.Stdout = sink
	cmd.Stderr = sink

	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(ctx.Err(), context.Canceled):
			f.writeLogFooter(downloadLog, false, "cancelled by user")
			return &domain.FetchResult{Output: output.String()}, fmt.Errorf("%w: %v", domain.ErrCancelled, err)
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			f.writeLogFooter(downloadLog, false, fmt.Sprintf("timed out after %s", f.config.FetchTimeout))
			return &domain.FetchResult{Output: output.String()}, fmt.Errorf("%w: timed out after %s", domain.ErrDownloadFailed, f.config.FetchTimeout)
		default:
			f.writeLogFooter(downloadLog, false, fmt.Sprintf("yt-dlp failed: %v", err))
			return &domain.FetchResult{Output: output.String()}, fmt.Errorf("%w: yt-dlp failed: %v", domain.ErrDownloadFailed, err)
		}
	}

	path, size, err := NewestFile(req.OutputDir, "."+f.builder.Container)
	if err != nil {
		f.writeLogFooter(downloadLog, false, err.Error())
		return &domain.FetchResult{Output: output.String()}, err
	}

	f.writeLogFooter(downloadLog, true, fmt.Sprintf("Downloaded: %s (%d bytes)", path, size))

	return &domain.FetchResult{
		FilePath:  path,
		SizeBytes: size,
		Output:    output.String(),
	}, nil
}

// command prepares a yt-dlp invocation whose whole process group is killed
// when ctx is done
func (f *YTDLPFetcher) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, f.config.Binary, args...)
	setSysProcAttr(cmd)
	cmd.Cancel = func() error {
		return killProcessGroup(cmd)
	}
	cmd.WaitDelay = killGrace
	return cmd
}

// openLogFile opens the download log file for today
func (f *YTDLPFetcher) openLogFile() (*os.File, error) {
	if err := os.MkdirAll(f.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	downloadPath := logger.CategoryLogPath(f.logsDir, logger.CategoryDownload, time.Now())
	return os.OpenFile(downloadPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// writeLogHeader writes the download start marker
func (f *YTDLPFetcher) writeLogHeader(w io.Writer, requestID, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "\n=== [%s] Download: %s ===\n", timestamp, requestID)
	fmt.Fprintf(w, "$ %s\n", cmdLine)
}

// writeLogFooter writes the download end marker
func (f *YTDLPFetcher) writeLogFooter(w io.Writer, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprint(w, "=== END ===\n\n")
}

func (f *YTDLPFetcher) logAppError(msg string, fields ...zap.Field) {
	if f.eventLogger != nil {
		f.eventLogger.LogAppError(msg, fields...)
	}
}

// tailBuffer keeps the last max bytes written to it
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

// tail returns the last n bytes of s
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
