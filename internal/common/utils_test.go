package common

import (
	"slices"
	"testing"
)

func TestResourceURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"plain", "https://example.org/img/1.jpg", "https://example.org/img/1.jpg", true},
		{"surrounding whitespace", "  http://example.org/a.png \n", "http://example.org/a.png", true},
		{"markdown link", "[scan](https://example.org/scan.tif)", "https://example.org/scan.tif", true},
		{"space in path", "https://example.org/my file.jpg", "https://example.org/my%20file.jpg", true},
		{"with port", "http://example.org:8080/a.jpg", "http://example.org:8080/a.jpg", true},
		{"closing parenthesis kept", "https://commons.wikimedia.org/wiki/File:Ship_(1890)", "https://commons.wikimedia.org/wiki/File:Ship_(1890)", true},
		{"trailing semicolon kept", "http://example.org/view?id=1;", "http://example.org/view?id=1;", true},
		{"trailing period kept", "http://example.org/scans/item.", "http://example.org/scans/item.", true},
		{"ipv6 loopback", "http://[::1]:8080/a.jpg", "http://[::1]:8080/a.jpg", true},
		{"ipv6 host", "https://[2001:db8::1]/img/1.jpg", "https://[2001:db8::1]/img/1.jpg", true},
		{"ipv4 host", "http://192.0.2.10/a.jpg", "http://192.0.2.10/a.jpg", true},
		{"single label host", "http://localhost/a.jpg", "http://localhost/a.jpg", true},
		{"bad ipv6 literal", "http://[not-an-ip]/a.jpg", "", false},
		{"braces in host", "https://example.com{}/a.jpg", "", false},
		{"ftp", "ftp://example.org/a.jpg", "", false},
		{"relative", "/img/1.jpg", "", false},
		{"empty", "   ", "", false},
		{"urn", "urn:nbn:nl:ui:13-abc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResourceURL(tt.raw)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ResourceURL(%q) = %q, %v, want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"trailing comma", "https://example.org/a.jpg,", "https://example.org/a.jpg"},
		{"angle brackets", "<https://example.org/a.jpg>", "https://example.org/a.jpg"},
		{"quoted", `"https://example.org/a.jpg"`, "https://example.org/a.jpg"},
		{"markdown link", "[scan](https://example.org/scan.tif)", "https://example.org/scan.tif"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeURL(tt.raw); got != tt.want {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSanitizeAndValidateURLs(t *testing.T) {
	valid, invalid := SanitizeAndValidateURLs([]string{"https://a.example/x.jpg", "nope", "http://b.example/y.png.", "http://[::1]:9000/z.gif"})
	if !slices.Equal(valid, []string{"https://a.example/x.jpg", "http://b.example/y.png", "http://[::1]:9000/z.gif"}) {
		t.Errorf("valid = %v", valid)
	}
	if !slices.Equal(invalid, []string{"nope"}) {
		t.Errorf("invalid = %v", invalid)
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("record"))
	if len(a) != 64 || a != ContentHash([]byte("record")) || a == ContentHash([]byte("other")) {
		t.Errorf("ContentHash() = %q", a)
	}
}
