package domain

// Resolution is a named quality tier offered in the resolution menu
type Resolution struct {
	Key           string // label shown on the button, e.g. "720p"
	Height        string // pixel height passed to the format selector
	BitrateBucket int    // rough bitrate used only for size estimation
}

// defaultBitrateBucket is used for heights outside the known tiers
const defaultBitrateBucket = 5

// Resolutions lists the supported tiers in menu order
var Resolutions = []Resolution{
	{Key: "360p", Height: "360", BitrateBucket: 1},
	{Key: "480p", Height: "480", BitrateBucket: 2},
	{Key: "720p", Height: "720", BitrateBucket: 4},
	{Key: "1080p", Height: "1080", BitrateBucket: 7},
	{Key: "2K", Height: "1440", BitrateBucket: 12},
	{Key: "4K", Height: "2160", BitrateBucket: 20},
}

// LookupResolution finds a resolution by its menu key
func LookupResolution(key string) (Resolution, bool) {
	for _, r := range Resolutions {
		if r.Key == key {
			return r, true
		}
	}
	return Resolution{}, false
}

// bitrateForHeight returns the bitrate bucket for a pixel height
func bitrateForHeight(height string) int {
	for _, r := range Resolutions {
		if r.Height == height {
			return r.BitrateBucket
		}
	}
	return defaultBitrateBucket
}

// EstimateSizeMB approximates the output size in megabytes.
// It is a rough figure and must be presented as such.
func EstimateSizeMB(durationSeconds float64, height string) int {
	if durationSeconds <= 0 {
		return 0
	}
	return int(durationSeconds * float64(bitrateForHeight(height)) / 8)
}
