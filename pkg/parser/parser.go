package parser

import (
	"bufio"
	"bytes"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// LandingPage is what an HTML resource tells us about the object it shows.
type LandingPage struct {
	URL                string
	Title              string
	OEmbedURL          string
	MediaURLs          []string // og:video / og:audio / twitter:player
	ReadableTextLength int
}

type Parser struct{}

// Inspect reads an HTML document, possibly truncated. oEmbed discovery runs
// on the raw markup; readable text is measured on the readability output.
func (p *Parser) Inspect(rawURL string, html []byte) (*LandingPage, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	page := &LandingPage{URL: rawURL}
	doc.Find(`link[rel="alternate"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		t, _ := s.Attr("type")
		if t != "application/json+oembed" && t != "text/xml+oembed" {
			return true
		}
		href, _ := s.Attr("href")
		page.OEmbedURL = resolve(parsedURL, href)
		return page.OEmbedURL == ""
	})
	doc.Find("meta").Each(func(i int, s *goquery.Selection) {
		name, ok := s.Attr("property")
		if !ok {
			name, _ = s.Attr("name")
		}
		switch name {
		case "og:video", "og:video:url", "og:video:secure_url", "og:audio", "og:audio:url", "twitter:player":
			if content, _ := s.Attr("content"); content != "" {
				page.MediaURLs = append(page.MediaURLs, resolve(parsedURL, content))
			}
		}
	})

	// Let go-readability find the main content
	readabilityParser := readability.NewParser()
	article, err := readabilityParser.Parse(bytes.NewReader(html), parsedURL)
	if err != nil {
		// Not an article; keep the discovery results.
		page.Title = normalizeText(doc.Find("title").First().Text())
		return page, nil
	}
	page.Title = normalizeText(article.Title)

	// Measure on the *clean* HTML content provided by readability
	clean, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return page, nil
	}
	page.ReadableTextLength = utf8.RuneCountInString(normalizeText(clean.Text()))
	return page, nil
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// normalizeText cleans up a string by trimming space and removing excess newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
