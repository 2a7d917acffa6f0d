package detector

import (
	"net/url"
	"regexp"
	"strings"
)

// Embedding describes a resource URL that points at a hosted media player
// rather than at the media bytes.
type Embedding struct {
	Provider   string  // youtube, vimeo, soundcloud, sketchfab, ...
	Kind       string  // video, audio, 3d
	Confidence float64 // 0-10 scale based on signal strength
}

// EmbedOptions carries HTTP derived hints for Analyze.
type EmbedOptions struct {
	HasOEmbed bool
	FinalURL  string
	// PlayerURLs are the og:video, og:audio and twitter:player links of a
	// landing page.
	PlayerURLs []string
}

type embedHost struct {
	provider string
	kind     string
	hosts    []string
	path     *regexp.Regexp
}

var embedHosts = []embedHost{
	{"youtube", "video", []string{"youtube.com", "youtu.be", "youtube-nocookie.com"}, regexp.MustCompile(`^/(watch|embed/|v/|shorts/|[A-Za-z0-9_-]{11}$)`)},
	{"vimeo", "video", []string{"vimeo.com", "player.vimeo.com"}, regexp.MustCompile(`^/(video/)?[0-9]+`)},
	{"dailymotion", "video", []string{"dailymotion.com", "dai.ly"}, regexp.MustCompile(`^/(video|embed/video)/|^/[a-z0-9]+$`)},
	{"euscreen", "video", []string{"euscreen.eu"}, regexp.MustCompile(`^/item\.html`)},
	{"soundcloud", "audio", []string{"soundcloud.com", "w.soundcloud.com"}, regexp.MustCompile(`^/[^/]+/[^/]+|^/player`)},
	{"mixcloud", "audio", []string{"mixcloud.com"}, regexp.MustCompile(`^/[^/]+/[^/]+`)},
	{"sketchfab", "3d", []string{"sketchfab.com"}, regexp.MustCompile(`^/(3d-models|models)/`)},
}

// Analyze reports whether rawURL is embeddable hosted media. It returns nil
// when no signal is found.
func Analyze(rawURL string, opts *EmbedOptions) *Embedding {
	candidates := []string{rawURL}
	if opts != nil && opts.FinalURL != "" && opts.FinalURL != rawURL {
		candidates = append(candidates, opts.FinalURL)
	}
	if opts != nil {
		candidates = append(candidates, opts.PlayerURLs...)
	}

	for _, candidate := range candidates {
		u, err := url.Parse(strings.TrimSpace(candidate))
		if err != nil || u.Host == "" {
			continue
		}
		if em := matchHost(u); em != nil {
			if opts != nil && opts.HasOEmbed {
				em.Confidence = 10
			}
			return em
		}
	}

	// A page advertising oEmbed is a player even on an unknown host.
	if opts != nil && opts.HasOEmbed {
		return &Embedding{Provider: "oembed", Kind: "unknown", Confidence: 6}
	}
	return nil
}

func matchHost(u *url.URL) *Embedding {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	for _, eh := range embedHosts {
		for _, h := range eh.hosts {
			if host != h && !strings.HasSuffix(host, "."+h) {
				continue
			}
			em := &Embedding{Provider: eh.provider, Kind: eh.kind, Confidence: 5}
			if eh.path.MatchString(u.Path) {
				em.Confidence = 9
			}
			return em
		}
	}
	return nil
}

// IsEmbeddable reports an embedding with enough confidence to count as media.
func (e *Embedding) IsEmbeddable() bool {
	return e != nil && e.Confidence >= 6
}
