// Package youtube recognizes YouTube video links and normalizes them to the
// embeddable form.
package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

var linkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/watch\?v=[\w-]+`),
	regexp.MustCompile(`^https?://youtu\.be/[\w-]+`),
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/embed/[\w-]+`),
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/shorts/[\w-]+`),
}

// EmbedBase is the prefix of every stored video URL.
const EmbedBase = "https://www.youtube.com/embed/"

// IsValidURL reports whether raw is a watch, youtu.be, embed or shorts link.
func IsValidURL(raw string) bool {
	for _, p := range linkPatterns {
		if p.MatchString(raw) {
			return true
		}
	}
	return false
}

// VideoID extracts the video id from raw, or returns "" when raw is not a
// recognized YouTube link.
func VideoID(raw string) string {
	switch {
	case strings.Contains(raw, "youtube.com/watch"):
		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		return u.Query().Get("v")
	case strings.Contains(raw, "youtu.be/"):
		return firstSegment(raw, "youtu.be/")
	case strings.Contains(raw, "youtube.com/embed/"):
		return firstSegment(raw, "/embed/")
	case strings.Contains(raw, "youtube.com/shorts/"):
		return firstSegment(raw, "/shorts/")
	}
	return ""
}

// EmbedURL converts any recognized link to https://www.youtube.com/embed/<id>.
func EmbedURL(raw string) (string, bool) {
	id := VideoID(raw)
	if id == "" {
		return "", false
	}
	return EmbedBase + id, true
}

func firstSegment(raw, marker string) string {
	_, rest, _ := strings.Cut(raw, marker)
	rest, _, _ = strings.Cut(rest, "?")
	rest, _, _ = strings.Cut(rest, "/")
	return rest
}
