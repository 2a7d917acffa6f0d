package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dtnitsch/record-tiers/models"
	"github.com/dtnitsch/record-tiers/pkg/mimetable"
	"github.com/dtnitsch/record-tiers/pkg/parser"
)

// Fetcher probes resource URLs. One Fetcher is shared by every calculation
// so connections, limiters and breakers are pooled per host.
type Fetcher struct {
	client  *http.Client
	cfg     models.FetchConfig
	guards  *guards
	parser  *parser.Parser
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Fetcher)

func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(f *Fetcher) { f.metrics = NewMetrics(reg) }
}

func NewFetcher(cfg models.FetchConfig, opts ...Option) *Fetcher {
	f := &Fetcher{
		cfg:    cfg,
		parser: &parser.Parser{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.metrics == nil {
		f.metrics = NewMetrics(nil)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         f.dial,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}
	f.client = &http.Client{
		Transport:     transport,
		CheckRedirect: f.checkRedirect,
	}
	f.guards = newGuards(cfg.PerHostRate, cfg.PerHostBurst, cfg.BreakerFailures, cfg.BreakerCooldown, f.logger, f.metrics)
	return f
}

func (f *Fetcher) Metrics() *Metrics { return f.metrics }

type connectTimeoutKey struct{}

// dial applies the per-request connect timeout carried on the context.
func (f *Fetcher) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	timeout := f.cfg.ConnectTimeout
	if d, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok && d > 0 {
		timeout = d
	}
	d := net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	return d.DialContext(ctx, network, addr)
}

func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) > f.cfg.MaxRedirects {
		return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, f.cfg.MaxRedirects)
	}
	return nil
}

// ProbeRequest describes one resource to probe. Zero timeouts fall back to
// the fetcher configuration.
type ProbeRequest struct {
	URL              string
	Expected         mimetable.Family
	DeclaredMimeType string

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	TotalTimeout   time.Duration
}

func (r ProbeRequest) withDefaults(cfg models.FetchConfig) ProbeRequest {
	if r.ConnectTimeout <= 0 {
		r.ConnectTimeout = cfg.ConnectTimeout
	}
	if r.ReadTimeout <= 0 {
		r.ReadTimeout = cfg.ReadTimeout
	}
	if r.TotalTimeout <= 0 {
		r.TotalTimeout = cfg.TotalTimeout
	}
	return r
}

// Probe starts a transfer and waits for it.
func (f *Fetcher) Probe(ctx context.Context, req ProbeRequest) (*models.ProbeResult, error) {
	return f.Start(ctx, req).Await(ctx)
}

// DetectMimeType sniffs the real mime type of url within the given bounds.
func (f *Fetcher) DetectMimeType(ctx context.Context, rawURL string, connect, read, total time.Duration) (string, error) {
	res, err := f.Probe(ctx, ProbeRequest{
		URL:            rawURL,
		ConnectTimeout: connect,
		ReadTimeout:    read,
		TotalTimeout:   total,
	})
	if err != nil {
		return "", err
	}
	return res.SniffedMimeType, nil
}

var acceptByFamily = map[mimetable.Family]string{
	mimetable.FamilyImage: "image/avif,image/webp,image/apng,image/*;q=0.9,*/*;q=0.5",
	mimetable.FamilyAudio: "audio/*;q=0.9,application/ogg;q=0.8,*/*;q=0.5",
	mimetable.FamilyVideo: "video/*;q=0.9,application/ogg;q=0.8,*/*;q=0.5",
	mimetable.FamilyText:  "application/pdf,application/epub+zip,text/html;q=0.9,text/*;q=0.8,*/*;q=0.5",
	mimetable.FamilyModel: "model/*;q=0.9,application/octet-stream;q=0.8,*/*;q=0.5",
}

// AcceptHeader is the Accept value sent for resources of family fam.
func AcceptHeader(fam mimetable.Family) string {
	if v, ok := acceptByFamily[fam]; ok {
		return v
	}
	return "*/*"
}

func (f *Fetcher) newRequest(ctx context.Context, req ProbeRequest) (*http.Request, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host")
	}

	ctx = context.WithValue(ctx, connectTimeoutKey{}, req.ConnectTimeout)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", f.cfg.UserAgent)
	httpReq.Header.Set("Accept", AcceptHeader(req.Expected))
	return httpReq, nil
}
