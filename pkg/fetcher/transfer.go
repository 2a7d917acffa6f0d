package fetcher

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/dtnitsch/record-tiers/models"
	"github.com/dtnitsch/record-tiers/pkg/mimetable"
)

const defaultSniffBytes = 256 * 1024

// State is the lifecycle of one Transfer.
type State int32

const (
	StateNotStarted State = iota
	StateSubscribed
	StateCompleted
	StateCanceled
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateSubscribed:
		return "subscribed"
	case StateCompleted:
		return "completed"
	case StateCanceled:
		return "canceled"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// Transfer is one in-flight probe. It becomes Subscribed once response
// headers arrive; a Cancel issued earlier is held until then.
type Transfer struct {
	f   *Fetcher
	req ProbeRequest

	state           atomic.Int32
	cancelRequested atomic.Bool
	timedOut        atomic.Bool
	cancelOnce      sync.Once

	subscribed chan struct{}
	done       chan struct{}
	abort      context.CancelFunc

	result *models.ProbeResult
	err    error
}

// Start begins probing req in the background.
func (f *Fetcher) Start(ctx context.Context, req ProbeRequest) *Transfer {
	req = req.withDefaults(f.cfg)
	reqCtx, abort := context.WithTimeout(ctx, req.TotalTimeout)

	t := &Transfer{
		f:          f,
		req:        req,
		subscribed: make(chan struct{}),
		done:       make(chan struct{}),
		abort:      abort,
	}
	go t.run(reqCtx)
	return t
}

func (t *Transfer) URL() string { return t.req.URL }

func (t *Transfer) State() State { return State(t.state.Load()) }

// Done is closed when the transfer reaches a final state.
func (t *Transfer) Done() <-chan struct{} { return t.done }

// Cancel asks the transfer to stop. It never blocks, may be called any
// number of times, and does nothing once the transfer has finished.
func (t *Transfer) Cancel() {
	t.cancelOnce.Do(func() {
		t.cancelRequested.Store(true)
		go func() {
			select {
			case <-t.done:
			case <-t.subscribed:
				t.abort()
			}
		}()
	})
}

// Await waits for the transfer. The result is non-nil whenever the
// transfer finished, including when it failed.
func (t *Transfer) Await(ctx context.Context) (*models.ProbeResult, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Transfer) run(ctx context.Context) {
	started := time.Now()
	res := &models.ProbeResult{URL: t.req.URL}

	err := t.fetch(ctx, res)
	t.abort()
	res.DurationMS = time.Since(started).Milliseconds()

	final := StateCompleted
	res.Outcome = models.ProbeOK
	if err != nil {
		fe := t.classify(err)
		res.ErrorKind = string(fe.Kind)
		res.ErrorMessage = fe.Error()
		if fe.StatusCode != 0 {
			res.StatusCode = fe.StatusCode
		}
		if fe.Kind == KindCanceled {
			final, res.Outcome = StateCanceled, models.ProbeCanceled
		} else {
			final, res.Outcome = StateErrored, models.ProbeFailed
		}
		t.err = fe
	}
	t.result = res
	t.f.observe(res, time.Since(started))

	t.state.Store(int32(final))
	close(t.done)
}

func (t *Transfer) subscribe() {
	t.state.Store(int32(StateSubscribed))
	close(t.subscribed)
}

func (t *Transfer) fetch(ctx context.Context, res *models.ProbeResult) error {
	httpReq, err := t.f.newRequest(ctx, t.req)
	if err != nil {
		return &FetchError{Kind: KindInvalidURL, URL: t.req.URL, Err: err}
	}

	// Idle timer: covers the wait for headers and every body read.
	timer := time.AfterFunc(t.req.ReadTimeout, func() {
		t.timedOut.Store(true)
		t.abort()
	})
	defer timer.Stop()

	resp, err := t.f.guards.forHost(httpReq.URL.Host).do(t.f.client, httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	t.subscribe()
	if t.cancelRequested.Load() {
		return errTransferCanceled
	}
	timer.Reset(t.req.ReadTimeout)

	res.StatusCode = resp.StatusCode
	res.FinalURL = resp.Request.URL.String()
	res.Redirects = redirectCount(resp)
	res.HeaderMimeType = mimetable.BaseType(resp.Header.Get("Content-Type"))
	res.ContentLength = resp.ContentLength

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{Kind: KindStatus, URL: t.req.URL, StatusCode: resp.StatusCode}
	}

	limit := t.f.cfg.SniffBytes
	if limit <= 0 {
		limit = defaultSniffBytes
	}
	body := &cancelableReader{
		r:        resp.Body,
		canceled: &t.cancelRequested,
		onRead:   func() { timer.Reset(t.req.ReadTimeout) },
	}
	head, err := io.ReadAll(io.LimitReader(body, limit))
	res.BytesRead = int64(len(head))
	if err != nil {
		return err
	}

	sniffed, err := mimetable.Sniff(head, mimetable.Hints{
		HeaderType:    res.HeaderMimeType,
		URLPath:       resp.Request.URL.Path,
		ContentLength: resp.ContentLength,
	})
	switch {
	case errors.Is(err, mimetable.ErrAmbiguousContent):
		return &FetchError{Kind: KindAmbiguousContent, URL: t.req.URL, Err: err}
	case err != nil:
		return &FetchError{Kind: KindRequest, URL: t.req.URL, Err: err}
	}

	res.SniffedMimeType = sniffed.MimeType
	res.Compressed = sniffed.Compressed
	if e, ok := sniffed.Entry(); ok {
		res.MimeCode = e.Code
	}
	t.f.inspect(res, head)
	return nil
}

func (t *Transfer) classify(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	kind := KindRequest
	var netErr net.Error
	switch {
	case t.cancelRequested.Load():
		// Once canceled, a broken read is ours.
		kind = KindCanceled
	case errors.Is(err, ErrTooManyRedirects):
		kind = KindTooManyRedirects
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		kind = KindCircuitOpen
	case t.timedOut.Load(), errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	}
	return &FetchError{Kind: kind, URL: t.req.URL, Err: err}
}

func redirectCount(resp *http.Response) int {
	n := 0
	for r := resp.Request; r != nil && r.Response != nil; r = r.Response.Request {
		n++
	}
	return n
}

// cancelableReader stops at the next Read once the transfer is canceled.
type cancelableReader struct {
	r        io.Reader
	canceled *atomic.Bool
	onRead   func()
}

func (c *cancelableReader) Read(p []byte) (int, error) {
	if c.canceled.Load() {
		return 0, errTransferCanceled
	}
	n, err := c.r.Read(p)
	if n > 0 && c.onRead != nil {
		c.onRead()
	}
	return n, err
}

func (f *Fetcher) observe(res *models.ProbeResult, elapsed time.Duration) {
	f.metrics.ProbesTotal.WithLabelValues(string(res.Outcome), res.ErrorKind).Inc()
	f.metrics.ProbeSeconds.WithLabelValues(string(res.Outcome)).Observe(elapsed.Seconds())
	f.metrics.BytesReadTotal.Add(float64(res.BytesRead))

	switch res.Outcome {
	case models.ProbeCanceled:
		f.metrics.TransfersCanceled.Inc()
		f.logger.Info("probe stopped", "url", res.URL, "outcome", res.Outcome, "bytes", res.BytesRead)
	case models.ProbeFailed:
		f.logger.Warn("probe failed", "url", res.URL, "kind", res.ErrorKind, "status", res.StatusCode, "error", res.ErrorMessage)
	default:
		f.logger.Debug("probe completed", "url", res.URL, "mime", res.SniffedMimeType, "redirects", res.Redirects, "duration_ms", res.DurationMS)
	}
}
