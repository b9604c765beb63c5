package utils

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

const (
	OutputExt       = ".mp4"
	DefaultBaseName = "video"
)

var unsafeNameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// SanitizeFileName strips characters that are unsafe in file names and
// normalizes the result to a single ".mp4" name. An empty or fully stripped
// input falls back to DefaultBaseName.
func SanitizeFileName(name string) string {
	base := strings.TrimSpace(name)
	if strings.EqualFold(path.Ext(base), OutputExt) {
		base = base[:len(base)-len(OutputExt)]
	}
	base = unsafeNameChars.ReplaceAllString(base, "")
	base = strings.Trim(base, ". ")
	if base == "" {
		base = DefaultBaseName
	}
	return base + OutputExt
}

// NameFromURL derives a deterministic output name from a playlist URL,
// used when the caller did not supply one.
func NameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return SanitizeFileName("")
	}
	base := path.Base(u.Path)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "." || base == "/" {
		base = ""
	}
	return SanitizeFileName(base)
}
