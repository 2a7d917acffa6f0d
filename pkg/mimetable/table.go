// Package mimetable maps canonical mime types to compact numeric codes and
// detects the real type of a resource from its leading bytes.
package mimetable

import "strings"

// Family groups mime types by the kind of media they carry.
type Family string

const (
	FamilyImage Family = "image"
	FamilyAudio Family = "audio"
	FamilyVideo Family = "video"
	FamilyText  Family = "text"
	FamilyModel Family = "3d"
	FamilyOther Family = "other"
)

// Entry is one registered mime type.
type Entry struct {
	Code     int    `json:"code" yaml:"code"`
	MimeType string `json:"mime_type" yaml:"mime_type"`
	Family   Family `json:"family" yaml:"family"`
}

// MimeTyped is anything that knows its own mime type, such as a probe result.
type MimeTyped interface {
	MimeType() string
}

// Codes are stable once published. Append only.
var entries = []Entry{
	{1, "image/jpeg", FamilyImage},
	{2, "image/png", FamilyImage},
	{3, "image/gif", FamilyImage},
	{4, "image/tiff", FamilyImage},
	{5, "image/webp", FamilyImage},
	{6, "image/bmp", FamilyImage},
	{7, "image/svg+xml", FamilyImage},
	{8, "image/jp2", FamilyImage},

	{20, "audio/mpeg", FamilyAudio},
	{21, "audio/mp4", FamilyAudio},
	{22, "audio/flac", FamilyAudio},
	{23, "audio/ogg", FamilyAudio},
	{24, "audio/wav", FamilyAudio},
	{25, "audio/x-wav", FamilyAudio},
	{26, "audio/aiff", FamilyAudio},
	{27, "audio/webm", FamilyAudio},

	{40, "video/mp4", FamilyVideo},
	{41, "video/webm", FamilyVideo},
	{42, "video/ogg", FamilyVideo},
	{43, "video/quicktime", FamilyVideo},
	{44, "video/x-matroska", FamilyVideo},
	{45, "video/mpeg", FamilyVideo},
	{46, "video/x-msvideo", FamilyVideo},

	{60, "application/pdf", FamilyText},
	{61, "application/epub+zip", FamilyText},
	{62, "application/rtf", FamilyText},
	{63, "text/rtf", FamilyText},
	{64, "application/xml", FamilyText},
	{65, "text/xml", FamilyText},
	{66, "text/plain", FamilyText},
	{67, "text/html", FamilyText},

	{80, "model/stl", FamilyModel},
	{81, "model/x.stl-ascii", FamilyModel},
	{82, "model/x.stl-binary", FamilyModel},
	{83, "model/gltf+json", FamilyModel},
	{84, "model/gltf-binary", FamilyModel},
	{85, "model/obj", FamilyModel},
	{86, "model/x3d+xml", FamilyModel},
	{87, "model/x3d+fastinfoset", FamilyModel},
	{88, "model/x3d-vrml", FamilyModel},
	{89, "model/vrml", FamilyModel},
	{90, "model/vnd.usdz+zip", FamilyModel},
}

var (
	byMime = make(map[string]Entry, len(entries))
	byCode = make(map[int]Entry, len(entries))
)

func init() {
	for _, e := range entries {
		byMime[e.MimeType] = e
		byCode[e.Code] = e
	}
}

// Entries returns a copy of the registered table in code order.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// BaseType strips parameters and lowercases a mime type:
// "Image/JPEG; charset=x" becomes "image/jpeg".
func BaseType(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// Categorize returns the entry for a mime type string. Blank and unknown
// types report no match.
func Categorize(mimeType string) (Entry, bool) {
	base := BaseType(mimeType)
	if base == "" {
		return Entry{}, false
	}
	e, ok := byMime[base]
	return e, ok
}

// CategorizeResource categorizes the mime type reported by r. A nil r reports
// no match.
func CategorizeResource(r MimeTyped) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	return Categorize(r.MimeType())
}

// ByCode is the reverse lookup of Categorize.
func ByCode(code int) (Entry, bool) {
	e, ok := byCode[code]
	return e, ok
}

// FamilyOf reports the media family of any mime type, registered or not.
func FamilyOf(mimeType string) Family {
	base := BaseType(mimeType)
	if e, ok := byMime[base]; ok {
		return e.Family
	}
	switch {
	case base == "":
		return FamilyOther
	case strings.HasPrefix(base, "image/"):
		return FamilyImage
	case strings.HasPrefix(base, "audio/"):
		return FamilyAudio
	case strings.HasPrefix(base, "video/"):
		return FamilyVideo
	case strings.HasPrefix(base, "model/"):
		return FamilyModel
	case strings.HasPrefix(base, "text/"),
		base == "application/xml", base == "application/rtf",
		base == "application/epub", base == "application/pdf":
		return FamilyText
	}
	return FamilyOther
}

// IsDocument reports text-family types that carry a full document rather than
// a web page.
func IsDocument(mimeType string) bool {
	base := BaseType(mimeType)
	return FamilyOf(base) == FamilyText && base != "text/html" && base != "application/xhtml+xml"
}
