package mimetable

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrEmptyContent is returned when there are no bytes to inspect.
	ErrEmptyContent = errors.New("no content to sniff")
	// ErrAmbiguousContent is returned when the bytes claim a container format
	// but cannot be resolved to one variant of it.
	ErrAmbiguousContent = errors.New("ambiguous content")
)

// Hints carry what the provider and the transport claimed about a resource.
// They only steer detection between variants; bytes always win.
type Hints struct {
	HeaderType    string
	URLPath       string
	ContentLength int64
}

// Sniffed is the outcome of byte-level detection.
type Sniffed struct {
	MimeType   string `json:"mime_type"`
	Compressed bool   `json:"compressed,omitempty"`
}

func (s Sniffed) Entry() (Entry, bool) { return Categorize(s.MimeType) }

const (
	binarySTLHeader   = 80
	binarySTLFacet    = 50
	binarySTLMinimum  = binarySTLHeader + 4
	maxInflatedSniff  = 64 * 1024
	fastInfosetPrefix = "\xe0\x00\x00\x01"
)

// Sniff detects the real mime type of head, the leading bytes of a resource.
func Sniff(head []byte, hints Hints) (Sniffed, error) {
	if len(head) == 0 {
		return Sniffed{}, ErrEmptyContent
	}

	if isGzip(head) {
		if inner, err := inflate(head); err == nil && len(inner) > 0 {
			if m, err := sniffModel(inner, Hints{URLPath: strings.TrimSuffix(hints.URLPath, ".gz")}); err == nil && m != "" {
				return Sniffed{MimeType: m, Compressed: true}, nil
			}
		}
	}

	m, err := sniffModel(head, hints)
	if err != nil {
		return Sniffed{}, err
	}
	if m != "" {
		return Sniffed{MimeType: m}, nil
	}

	detected := BaseType(mimetype.Detect(head).String())
	if detected == "application/octet-stream" && binarySTLConsistent(head, hints.ContentLength) {
		return Sniffed{MimeType: "model/x.stl-binary"}, nil
	}
	return Sniffed{MimeType: detected}, nil
}

func isGzip(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b
}

// inflate decompresses as much of a truncated gzip stream as it can.
func inflate(head []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(head))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxInflatedSniff))
	if len(out) > 0 && (errors.Is(err, io.ErrUnexpectedEOF) || err == nil) {
		return out, nil
	}
	return out, err
}

// sniffModel recognizes 3D formats that generic sniffers report as text or
// octet streams. An empty result with nil error means not a 3D model.
func sniffModel(head []byte, hints Hints) (string, error) {
	ext := strings.ToLower(path.Ext(hints.URLPath))
	claimed := BaseType(hints.HeaderType)
	claimsSTL := ext == ".stl" || strings.Contains(claimed, "stl")

	switch {
	case bytes.HasPrefix(head, []byte("glTF")):
		return "model/gltf-binary", nil
	case bytes.HasPrefix(head, []byte(fastInfosetPrefix)):
		return "model/x3d+fastinfoset", nil
	case bytes.HasPrefix(head, []byte("#VRML")):
		return "model/vrml", nil
	case bytes.HasPrefix(head, []byte("#X3D")):
		return "model/x3d-vrml", nil
	case isUSDZ(head):
		return "model/vnd.usdz+zip", nil
	}

	trimmed := bytes.TrimLeft(head, " \t\r\n\uFEFF")
	if bytes.HasPrefix(trimmed, []byte("solid")) {
		if bytes.Contains(trimmed, []byte("facet")) {
			return "model/x.stl-ascii", nil
		}
		// Binary STL headers may start with "solid" too.
		if binarySTLConsistent(head, hints.ContentLength) {
			return "model/x.stl-binary", nil
		}
		if int64(len(head)) >= hints.ContentLength && hints.ContentLength > 0 && !claimsSTL {
			return "", nil
		}
		return "", ErrAmbiguousContent
	}
	if claimsSTL && len(head) >= binarySTLMinimum {
		if binarySTLConsistent(head, hints.ContentLength) {
			return "model/x.stl-binary", nil
		}
		if hints.ContentLength <= 0 {
			// Without a length the triangle count cannot be checked.
			return "", ErrAmbiguousContent
		}
	}

	if bytes.Contains(head, []byte("<X3D")) {
		return "model/x3d+xml", nil
	}
	if trimmed := bytes.TrimSpace(head); len(trimmed) > 0 && trimmed[0] == '{' && bytes.Contains(head, []byte(`"asset"`)) {
		if ext == ".gltf" || bytes.Contains(head, []byte(`"meshes"`)) || bytes.Contains(head, []byte(`"scenes"`)) || bytes.Contains(head, []byte(`"nodes"`)) {
			return "model/gltf+json", nil
		}
	}
	if (ext == ".obj" || claimed == "model/obj") && looksLikeOBJ(head) {
		return "model/obj", nil
	}
	return "", nil
}

// binarySTLConsistent checks that the triangle count in the header matches
// the declared length exactly.
func binarySTLConsistent(head []byte, contentLength int64) bool {
	if len(head) < binarySTLMinimum || contentLength <= 0 {
		return false
	}
	count := int64(binary.LittleEndian.Uint32(head[binarySTLHeader:binarySTLMinimum]))
	return binarySTLMinimum+binarySTLFacet*count == contentLength
}

// isUSDZ matches a zip whose first entry is a USD layer.
func isUSDZ(head []byte) bool {
	if len(head) < 30 || !bytes.HasPrefix(head, []byte("PK\x03\x04")) {
		return false
	}
	nameLen := int(binary.LittleEndian.Uint16(head[26:28]))
	if len(head) < 30+nameLen {
		return false
	}
	name := strings.ToLower(string(head[30 : 30+nameLen]))
	return strings.HasSuffix(name, ".usdc") || strings.HasSuffix(name, ".usda") || strings.HasSuffix(name, ".usd")
}

func looksLikeOBJ(head []byte) bool {
	var vertices, faces int
	sc := bufio.NewScanner(bytes.NewReader(head))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "v "):
			vertices++
		case strings.HasPrefix(line, "f "):
			faces++
		}
	}
	return vertices > 0 && (faces > 0 || vertices >= 3)
}
