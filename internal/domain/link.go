package domain

import "regexp"

// linkPattern matches an optional scheme, an optional "www." prefix and one of the
// supported video hosts followed by a path separator.
var linkPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/`)

// IsValidLink checks if s looks like a supported video link
func IsValidLink(s string) bool {
	return linkPattern.MatchString(s)
}
