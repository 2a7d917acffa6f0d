package mimetable

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

func TestTableIsInjectiveAndLowercase(t *testing.T) {
	codes := map[int]string{}
	mimes := map[string]int{}
	for _, e := range Entries() {
		if prev, ok := codes[e.Code]; ok {
			t.Errorf("code %d used by %q and %q", e.Code, prev, e.MimeType)
		}
		if prev, ok := mimes[e.MimeType]; ok {
			t.Errorf("mime %q registered under %d and %d", e.MimeType, prev, e.Code)
		}
		if e.MimeType != strings.ToLower(e.MimeType) {
			t.Errorf("mime %q is not lowercase", e.MimeType)
		}
		codes[e.Code] = e.MimeType
		mimes[e.MimeType] = e.Code
	}
}

func TestCategorizeRoundTrip(t *testing.T) {
	for _, e := range Entries() {
		got, ok := Categorize(e.MimeType)
		if !ok || got != e {
			t.Errorf("Categorize(%q) = %+v, %v, want %+v", e.MimeType, got, ok, e)
		}
		back, ok := ByCode(e.Code)
		if !ok || back != e {
			t.Errorf("ByCode(%d) = %+v, %v, want %+v", e.Code, back, ok, e)
		}
	}
}

type fakeResource string

func (f fakeResource) MimeType() string { return string(f) }

func TestCategorizeNoMatch(t *testing.T) {
	tests := []string{"", "   ", "bogus/type", "application/octet-stream", ";"}
	for _, in := range tests {
		if got, ok := Categorize(in); ok {
			t.Errorf("Categorize(%q) = %+v, want no match", in, got)
		}
	}
	if _, ok := CategorizeResource(nil); ok {
		t.Error("CategorizeResource(nil) matched")
	}
	if _, ok := CategorizeResource(fakeResource("")); ok {
		t.Error("CategorizeResource(\"\") matched")
	}
}

func TestCategorizeNormalizes(t *testing.T) {
	got, ok := Categorize("  Image/JPEG ; charset=binary")
	if !ok || got.MimeType != "image/jpeg" {
		t.Errorf("Categorize() = %+v, %v, want image/jpeg", got, ok)
	}
	if got, ok := CategorizeResource(fakeResource("model/X.STL-ASCII")); !ok || got.Family != FamilyModel {
		t.Errorf("CategorizeResource() = %+v, %v, want 3d family", got, ok)
	}
}

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		mime string
		want Family
	}{
		{"image/x-unregistered", FamilyImage},
		{"audio/mpeg", FamilyAudio},
		{"video/mp4; codecs=avc1", FamilyVideo},
		{"application/pdf", FamilyText},
		{"application/xml", FamilyText},
		{"text/csv", FamilyText},
		{"model/stl", FamilyModel},
		{"application/zip", FamilyOther},
		{"", FamilyOther},
	}
	for _, tt := range tests {
		if got := FamilyOf(tt.mime); got != tt.want {
			t.Errorf("FamilyOf(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
	if IsDocument("text/html") {
		t.Error("IsDocument(text/html) = true")
	}
	if !IsDocument("application/pdf") {
		t.Error("IsDocument(application/pdf) = false")
	}
}

func binarySTL(triangles uint32) []byte {
	buf := make([]byte, 84+50*int(triangles))
	copy(buf, "binary stl header")
	binary.LittleEndian.PutUint32(buf[80:84], triangles)
	return buf
}

func TestSniff(t *testing.T) {
	asciiSTL := []byte("solid cube\n facet normal 0 0 1\n  outer loop\n")
	binary := binarySTL(2)
	solidBinary := binarySTL(3)
	copy(solidBinary, "solid but binary")

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	zw.Write(asciiSTL)
	zw.Close()

	tests := []struct {
		name       string
		head       []byte
		hints      Hints
		want       string
		compressed bool
		wantErr    error
	}{
		{"empty", nil, Hints{}, "", false, ErrEmptyContent},
		{"jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), Hints{HeaderType: "image/png"}, "image/jpeg", false, nil},
		{"pdf", []byte("%PDF-1.7\n"), Hints{}, "application/pdf", false, nil},
		{"ascii stl", asciiSTL, Hints{}, "model/x.stl-ascii", false, nil},
		{"ascii stl after byte order mark", append([]byte("\uFEFF"), asciiSTL...), Hints{}, "model/x.stl-ascii", false, nil},
		{"binary stl by length", binary, Hints{ContentLength: int64(len(binary))}, "model/x.stl-binary", false, nil},
		{"binary stl starting with solid", solidBinary, Hints{ContentLength: int64(len(solidBinary))}, "model/x.stl-binary", false, nil},
		{"stl without length", binary, Hints{URLPath: "/cube.stl"}, "", false, ErrAmbiguousContent},
		{"gzipped ascii stl", gz.Bytes(), Hints{URLPath: "/cube.stl.gz"}, "model/x.stl-ascii", true, nil},
		{"glb", []byte("glTF\x02\x00\x00\x00"), Hints{}, "model/gltf-binary", false, nil},
		{"gltf json", []byte(`{"asset":{"version":"2.0"},"meshes":[]}`), Hints{}, "model/gltf+json", false, nil},
		{"vrml", []byte("#VRML V2.0 utf8\n"), Hints{}, "model/vrml", false, nil},
		{"x3d", []byte(`<?xml version="1.0"?><X3D profile="Immersive">`), Hints{}, "model/x3d+xml", false, nil},
		{"obj", []byte("# cube\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), Hints{URLPath: "/m.obj"}, "model/obj", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sniff(tt.head, tt.hints)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Sniff() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Sniff() unexpected error: %v", err)
			}
			if got.MimeType != tt.want {
				t.Errorf("Sniff() mime = %q, want %q", got.MimeType, tt.want)
			}
			if got.Compressed != tt.compressed {
				t.Errorf("Sniff() compressed = %v, want %v", got.Compressed, tt.compressed)
			}
		})
	}
}
