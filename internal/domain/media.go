package domain

// defaultTitle is shown when the probed metadata carries no title
const defaultTitle = "Vidéo"

// MediaInfo is the subset of yt-dlp metadata the bot relies on
type MediaInfo struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Duration   float64 `json:"duration"` // seconds
	Uploader   string  `json:"uploader"`
	WebpageURL string  `json:"webpage_url"`
	Thumbnail  string  `json:"thumbnail"`
}

// DisplayTitle returns the title or a generic fallback
func (m *MediaInfo) DisplayTitle() string {
	if m == nil || m.Title == "" {
		return defaultTitle
	}
	return m.Title
}

// DurationSeconds returns the duration, zero when unknown
func (m *MediaInfo) DurationSeconds() float64 {
	if m == nil {
		return 0
	}
	return m.Duration
}
