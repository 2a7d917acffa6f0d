package common

import (
	"crypto/sha256"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

var (
	markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)
	hostNamePattern     = regexp.MustCompile(`^[a-zA-Z0-9]([-a-zA-Z0-9.]*[a-zA-Z0-9])?$`)
)

// ContentHash computes SHA256 hash of content and returns hex string.
func ContentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// SanitizeURL performs basic cleanup on URLs pasted on the command line.
// Removes whitespace, trailing punctuation, markdown artifacts, and encodes spaces.
func SanitizeURL(rawURL string) string {
	cleaned := unwrapLink(rawURL)

	// Example: "https://example.com/a.jpg," -> "https://example.com/a.jpg"
	trailingChars := []string{",", ".", ")", "}", "]", "\"", "'", ">", ";"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}

	leadingChars := []string{"(", "[", "<", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return encodeSpaces(strings.TrimSpace(cleaned))
}

// unwrapLink trims whitespace and markdown link syntax.
func unwrapLink(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// Example: "[scan](https://example.com/a.jpg)" -> "https://example.com/a.jpg"
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}
	return strings.TrimSpace(cleaned)
}

// Providers often leave literal spaces in file names.
func encodeSpaces(u string) string {
	return strings.ReplaceAll(u, " ", "%20")
}

// ResourceURL cleans a record asserted link and reports whether it is a
// fetchable http(s) URL. Punctuation is part of the link and is kept.
func ResourceURL(rawURL string) (string, bool) {
	cleaned := encodeSpaces(unwrapLink(rawURL))
	if !fetchable(cleaned) {
		return "", false
	}
	return cleaned, true
}

// fetchable accepts absolute http(s) URLs with a DNS or IP literal host.
func fetchable(u string) bool {
	if u == "" || strings.ContainsAny(u, " \t\r\n") {
		return false
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	host := parsed.Hostname()
	if host == "" {
		return false
	}
	if strings.HasPrefix(parsed.Host, "[") {
		// Example: "http://[::1]:8080/a.jpg"
		return net.ParseIP(host) != nil
	}
	return hostNamePattern.MatchString(host)
}

// SanitizeAndValidateURLs sanitizes all URLs and returns (sanitized URLs, invalid URLs).
func SanitizeAndValidateURLs(urls []string) ([]string, []string) {
	sanitized := make([]string, 0, len(urls))
	var invalidURLs []string

	for _, rawURL := range urls {
		cleaned := SanitizeURL(rawURL)
		if !fetchable(cleaned) {
			invalidURLs = append(invalidURLs, rawURL)
			continue
		}
		sanitized = append(sanitized, cleaned)
	}

	return sanitized, invalidURLs
}
