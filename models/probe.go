package models

import (
	"github.com/dtnitsch/record-tiers/pkg/mimetable"
)

// ProbeOutcome is how a resource probe ended.
type ProbeOutcome string

const (
	ProbeOK       ProbeOutcome = "ok"
	ProbeFailed   ProbeOutcome = "failed"
	ProbeCanceled ProbeOutcome = "canceled"
)

// ProbeResult is what the network told us about one resource URL.
type ProbeResult struct {
	URL       string       `json:"url" yaml:"url"`
	FinalURL  string       `json:"final_url,omitempty" yaml:"final_url,omitempty"`
	Redirects int          `json:"redirects,omitempty" yaml:"redirects,omitempty"`
	Outcome   ProbeOutcome `json:"outcome" yaml:"outcome"`

	StatusCode      int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	HeaderMimeType  string `json:"header_mime_type,omitempty" yaml:"header_mime_type,omitempty"`
	SniffedMimeType string `json:"sniffed_mime_type,omitempty" yaml:"sniffed_mime_type,omitempty"`
	MimeCode        int    `json:"mime_code,omitempty" yaml:"mime_code,omitempty"`
	Compressed      bool   `json:"compressed,omitempty" yaml:"compressed,omitempty"`
	ContentLength   int64  `json:"content_length,omitempty" yaml:"content_length,omitempty"`
	BytesRead       int64  `json:"bytes_read,omitempty" yaml:"bytes_read,omitempty"`

	// Image probes
	Width  int `json:"width,omitempty" yaml:"width,omitempty"`
	Height int `json:"height,omitempty" yaml:"height,omitempty"`

	// Audio probes
	AudioContainer string `json:"audio_container,omitempty" yaml:"audio_container,omitempty"`

	// HTML probes
	HasOEmbed          bool     `json:"has_oembed,omitempty" yaml:"has_oembed,omitempty"`
	OEmbedURL          string   `json:"oembed_url,omitempty" yaml:"oembed_url,omitempty"`
	PlayerURLs         []string `json:"player_urls,omitempty" yaml:"player_urls,omitempty"`
	ReadableTextLength int      `json:"readable_text_length,omitempty" yaml:"readable_text_length,omitempty"`
	PageTitle          string   `json:"page_title,omitempty" yaml:"page_title,omitempty"`

	ErrorKind    string `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	ErrorMessage string `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS   int64  `json:"duration_ms" yaml:"duration_ms"`
}

// MimeType implements mimetable.MimeTyped with the sniffed type.
func (p *ProbeResult) MimeType() string {
	if p == nil {
		return ""
	}
	return p.SniffedMimeType
}

// OK reports a completed probe whose bytes were identified.
func (p *ProbeResult) OK() bool {
	return p != nil && p.Outcome == ProbeOK && p.SniffedMimeType != ""
}

// Family is the media family of the sniffed type.
func (p *ProbeResult) Family() mimetable.Family {
	if !p.OK() {
		return mimetable.FamilyOther
	}
	return mimetable.FamilyOf(p.SniffedMimeType)
}

// MimeMismatch reports that declared names a different media family than
// the bytes. Undeclared types are not a mismatch.
func (p *ProbeResult) MimeMismatch(declared string) bool {
	if !p.OK() || mimetable.BaseType(declared) == "" {
		return false
	}
	return mimetable.FamilyOf(declared) != p.Family()
}
