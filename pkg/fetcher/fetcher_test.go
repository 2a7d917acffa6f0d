package fetcher

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dtnitsch/record-tiers/models"
	"github.com/dtnitsch/record-tiers/pkg/mimetable"
)

func testConfig() models.FetchConfig {
	cfg := models.DefaultConfig().Fetch
	cfg.PerHostRate = 0
	cfg.ConnectTimeout = 2 * time.Second
	cfg.ReadTimeout = 2 * time.Second
	cfg.TotalTimeout = 5 * time.Second
	return cfg
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func waitForState(t *testing.T, tr *Transfer, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for tr.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("State() = %v, want %v", tr.State(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestProbeImage(t *testing.T) {
	body := jpegBytes(t, 1000, 800)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Provider lies about the type; the bytes decide.
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(body)
	}))
	defer srv.Close()

	f := NewFetcher(testConfig())
	res, err := f.Probe(context.Background(), ProbeRequest{URL: srv.URL + "/full.jpg", Expected: mimetable.FamilyImage})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if res.Outcome != models.ProbeOK || res.SniffedMimeType != "image/jpeg" {
		t.Errorf("Probe() = %s %q, want ok image/jpeg", res.Outcome, res.SniffedMimeType)
	}
	if res.HeaderMimeType != "application/octet-stream" {
		t.Errorf("HeaderMimeType = %q", res.HeaderMimeType)
	}
	if res.Width != 1000 || res.Height != 800 {
		t.Errorf("dimensions = %dx%d, want 1000x800", res.Width, res.Height)
	}
	e, _ := mimetable.Categorize("image/jpeg")
	if res.MimeCode != e.Code {
		t.Errorf("MimeCode = %d, want %d", res.MimeCode, e.Code)
	}
}

func TestProbeAudioAndPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/song.mp3", func(w http.ResponseWriter, r *http.Request) {
		w.Write(append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), make([]byte, 2048)...))
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>Object</title>
<link rel="alternate" type="application/json+oembed" href="/oembed?id=1">
<meta property="og:video" content="https://player.vimeo.com/video/76979871"></head>
<body><p>A short caption.</p></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(testConfig())
	song, err := f.Probe(context.Background(), ProbeRequest{URL: srv.URL + "/song.mp3", Expected: mimetable.FamilyAudio})
	if err != nil {
		t.Fatalf("Probe(song) error = %v", err)
	}
	if song.SniffedMimeType != "audio/mpeg" || song.AudioContainer != "MP3" {
		t.Errorf("song = %q container %q", song.SniffedMimeType, song.AudioContainer)
	}

	page, err := f.Probe(context.Background(), ProbeRequest{URL: srv.URL + "/page", Expected: mimetable.FamilyText})
	if err != nil {
		t.Fatalf("Probe(page) error = %v", err)
	}
	if !page.HasOEmbed || page.OEmbedURL != srv.URL+"/oembed?id=1" {
		t.Errorf("oEmbed = %v %q", page.HasOEmbed, page.OEmbedURL)
	}
	if len(page.PlayerURLs) != 1 || page.PlayerURLs[0] != "https://player.vimeo.com/video/76979871" {
		t.Errorf("PlayerURLs = %v", page.PlayerURLs)
	}
}

func TestDetectMimeType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n"))
	}))
	defer srv.Close()

	got, err := NewFetcher(testConfig()).DetectMimeType(context.Background(), srv.URL, time.Second, time.Second, 3*time.Second)
	if err != nil {
		t.Fatalf("DetectMimeType() error = %v", err)
	}
	if got != "application/pdf" {
		t.Errorf("DetectMimeType() = %q, want application/pdf", got)
	}
}

func TestProbeFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", http.NotFound)
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tests := []struct {
		name   string
		url    string
		kind   ErrorKind
		status int
	}{
		{"not found", srv.URL + "/missing", KindStatus, http.StatusNotFound},
		{"redirect loop", srv.URL + "/loop", KindTooManyRedirects, 0},
		{"empty body", srv.URL + "/empty", KindRequest, http.StatusOK},
		{"unsupported scheme", "ftp://example.org/file", KindInvalidURL, 0},
		{"no host", "http:///path", KindInvalidURL, 0},
	}

	f := NewFetcher(testConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := f.Start(context.Background(), ProbeRequest{URL: tt.url})
			res, err := tr.Await(context.Background())
			if !IsKind(err, tt.kind) {
				t.Fatalf("Await() error = %v, want kind %s", err, tt.kind)
			}
			if res == nil || res.Outcome != models.ProbeFailed || res.ErrorKind != string(tt.kind) {
				t.Fatalf("result = %+v", res)
			}
			if res.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", res.StatusCode, tt.status)
			}
			if tr.State() != StateErrored {
				t.Errorf("State() = %v, want errored", tr.State())
			}
		})
	}
}

func TestProbeFollowsRedirects(t *testing.T) {
	body := jpegBytes(t, 10, 10)
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/b", http.StatusMovedPermanently) })
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/img", http.StatusFound) })
	mux.HandleFunc("/img", func(w http.ResponseWriter, r *http.Request) { w.Write(body) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := NewFetcher(testConfig()).Probe(context.Background(), ProbeRequest{URL: srv.URL + "/a"})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if res.Redirects != 2 || !strings.HasSuffix(res.FinalURL, "/img") {
		t.Errorf("Redirects = %d FinalURL = %q", res.Redirects, res.FinalURL)
	}
}

func TestProbeSendsAcceptForFamily(t *testing.T) {
	accepts := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accepts <- r.Header.Get("Accept")
		w.Write([]byte("solid cube\nfacet normal 0 0 1\nendsolid cube\n"))
	}))
	defer srv.Close()

	cfg := testConfig()
	res, err := NewFetcher(cfg).Probe(context.Background(), ProbeRequest{URL: srv.URL + "/cube.stl", Expected: mimetable.FamilyModel})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if got := <-accepts; got != AcceptHeader(mimetable.FamilyModel) {
		t.Errorf("Accept = %q", got)
	}
	if res.SniffedMimeType != "model/x.stl-ascii" {
		t.Errorf("SniffedMimeType = %q", res.SniffedMimeType)
	}
	if AcceptHeader(mimetable.FamilyOther) != "*/*" {
		t.Errorf("AcceptHeader(other) = %q", AcceptHeader(mimetable.FamilyOther))
	}
}

func TestCancelBeforeSubscription(t *testing.T) {
	body := jpegBytes(t, 10, 10)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write(body)
	}))
	defer srv.Close()

	tr := NewFetcher(testConfig()).Start(context.Background(), ProbeRequest{URL: srv.URL})
	tr.Cancel()
	if got := tr.State(); got != StateNotStarted {
		t.Errorf("State() after early Cancel = %v, want not_started", got)
	}
	close(release)

	res, err := tr.Await(context.Background())
	if !IsKind(err, KindCanceled) {
		t.Fatalf("Await() error = %v, want canceled", err)
	}
	if res.Outcome != models.ProbeCanceled || tr.State() != StateCanceled {
		t.Errorf("outcome %s state %v", res.Outcome, tr.State())
	}
}

func TestCancelMidStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("\xff\xd8\xff"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	f := NewFetcher(testConfig())
	tr := f.Start(context.Background(), ProbeRequest{URL: srv.URL})
	waitForState(t, tr, StateSubscribed)

	for range 3 {
		tr.Cancel()
	}
	_, err := tr.Await(context.Background())
	if !IsKind(err, KindCanceled) {
		t.Fatalf("Await() error = %v, want canceled", err)
	}
	if tr.State() != StateCanceled {
		t.Errorf("State() = %v", tr.State())
	}
	if got := testutil.ToFloat64(f.Metrics().TransfersCanceled); got != 1 {
		t.Errorf("TransfersCanceled = %v, want 1", got)
	}
}

func TestCancelAfterCompletion(t *testing.T) {
	body := jpegBytes(t, 10, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	tr := NewFetcher(testConfig()).Start(context.Background(), ProbeRequest{URL: srv.URL})
	first, err := tr.Await(context.Background())
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	tr.Cancel()
	tr.Cancel()

	res, err := tr.Await(context.Background())
	if err != nil || res != first {
		t.Errorf("Await() after Cancel = %v, %v", res, err)
	}
	time.Sleep(20 * time.Millisecond)
	if tr.State() != StateCompleted {
		t.Errorf("State() = %v, want completed", tr.State())
	}
}

func TestReadTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	res, err := NewFetcher(testConfig()).Probe(context.Background(), ProbeRequest{
		URL:         srv.URL,
		ReadTimeout: 50 * time.Millisecond,
	})
	if !IsKind(err, KindTimeout) {
		t.Fatalf("Probe() error = %v, want timeout", err)
	}
	if res.Outcome != models.ProbeFailed {
		t.Errorf("Outcome = %s", res.Outcome)
	}
}

func TestBreakerOpensPerHost(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BreakerFailures = 2
	cfg.BreakerCooldown = time.Minute
	f := NewFetcher(cfg)

	for i := range 2 {
		_, err := f.Probe(context.Background(), ProbeRequest{URL: srv.URL})
		if !IsKind(err, KindStatus) {
			t.Fatalf("probe %d error = %v, want status", i, err)
		}
	}
	res, err := f.Probe(context.Background(), ProbeRequest{URL: srv.URL})
	if !IsKind(err, KindCircuitOpen) {
		t.Fatalf("third probe error = %v, want circuit_open", err)
	}
	if res.Outcome != models.ProbeFailed || hits.Load() != 2 {
		t.Errorf("outcome %s hits %d", res.Outcome, hits.Load())
	}
	if got := testutil.ToFloat64(f.Metrics().ProbesTotal.WithLabelValues("failed", "circuit_open")); got != 1 {
		t.Errorf("circuit_open probes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(f.Metrics().BreakerTransitions.WithLabelValues("open")); got != 1 {
		t.Errorf("breaker open transitions = %v, want 1", got)
	}
}

func TestAwaitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	tr := NewFetcher(testConfig()).Start(context.Background(), ProbeRequest{URL: srv.URL, ReadTimeout: 200 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := tr.Await(ctx); err != context.DeadlineExceeded {
		t.Errorf("Await() error = %v, want deadline exceeded", err)
	}
}
