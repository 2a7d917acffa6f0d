package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// errServerStatus marks 5xx responses as breaker failures. The response is
// still returned to the caller.
var errServerStatus = errors.New("server error status")

// hostGuard is the per-host politeness limiter and circuit breaker.
type hostGuard struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

type guards struct {
	mu      sync.Mutex
	byHost  map[string]*hostGuard
	limit   rate.Limit
	burst   int
	trip    uint32
	timeout time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

func newGuards(perSecond float64, burst int, trip uint32, cooldown time.Duration, logger *slog.Logger, metrics *Metrics) *guards {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	if trip < 1 {
		trip = 1
	}
	return &guards{
		byHost:  make(map[string]*hostGuard),
		limit:   limit,
		burst:   burst,
		trip:    trip,
		timeout: cooldown,
		logger:  logger,
		metrics: metrics,
	}
}

func (g *guards) forHost(host string) *hostGuard {
	g.mu.Lock()
	defer g.mu.Unlock()

	if hg, ok := g.byHost[host]; ok {
		return hg
	}
	settings := gobreaker.Settings{
		Name:    host,
		Timeout: g.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= g.trip
		},
		IsSuccessful: func(err error) bool {
			// Our own cancellations say nothing about the host.
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, errTransferCanceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn("host circuit breaker changed state", "host", name, "from", from.String(), "to", to.String())
			g.metrics.BreakerTransitions.WithLabelValues(to.String()).Inc()
		},
	}
	hg := &hostGuard{
		limiter: rate.NewLimiter(g.limit, g.burst),
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
	g.byHost[host] = hg
	return hg
}

// do waits for the host's turn and sends req through its breaker.
func (hg *hostGuard) do(client *http.Client, req *http.Request) (*http.Response, error) {
	if err := hg.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	resp, err := hg.breaker.Execute(func() (*http.Response, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})
	if errors.Is(err, errServerStatus) {
		return resp, nil
	}
	return resp, err
}
