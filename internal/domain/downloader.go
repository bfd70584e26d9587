package domain

import "context"

// MediaProber fetches metadata for a link without downloading media
type MediaProber interface {
	// Probe returns the media description or an error wrapping ErrProbeFailed
	Probe(ctx context.Context, url string) (*MediaInfo, error)
}

// MediaFetcher downloads and transcodes media into a directory
type MediaFetcher interface {
	// Fetch runs the download; cancelling ctx terminates the subprocess
	Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error)
}

// Fetcher combines probing and fetching, both backed by the same tool
type Fetcher interface {
	MediaProber
	MediaFetcher
}

// FetchRequest describes one fetch-and-transcode run
type FetchRequest struct {
	ID        string // request ID, used in log markers
	URL       string
	Height    string
	OutputDir string // request-scoped directory, created by the fetcher
}

// FetchResult represents the result of a fetch operation
type FetchResult struct {
	FilePath  string
	SizeBytes int64
	Output    string // tail of the combined tool output
}
