package tiercalc

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dtnitsch/record-tiers/internal/common"
	"github.com/dtnitsch/record-tiers/models"
	"github.com/dtnitsch/record-tiers/pkg/classifier"
	"github.com/dtnitsch/record-tiers/pkg/fetcher"
	"github.com/dtnitsch/record-tiers/pkg/mimetable"
	"github.com/dtnitsch/record-tiers/pkg/record"
	"github.com/dtnitsch/record-tiers/pkg/tier"
)

// probeTarget is one distinct URL and the record links that resolve to it.
type probeTarget struct {
	url      string
	expected mimetable.Family
	declared string
	entries  []record.WebResourceEntry
}

func edmFamily(edm record.EdmType) mimetable.Family {
	switch edm {
	case record.TypeImage:
		return mimetable.FamilyImage
	case record.TypeText:
		return mimetable.FamilyText
	case record.TypeSound:
		return mimetable.FamilyAudio
	case record.TypeVideo:
		return mimetable.FamilyVideo
	case record.Type3D:
		return mimetable.FamilyModel
	}
	return mimetable.FamilyOther
}

func isMedia(e record.WebResourceEntry) bool {
	return e.HasLinkType(record.LinkIsShownBy) || e.HasLinkType(record.LinkHasView)
}

// plan lists what needs the network. Records whose tier is already fixed by
// the metadata alone get no probes.
func plan(w *record.Wrapper) []probeTarget {
	edm := w.EdmType()
	switch edm {
	case record.TypeUnknown:
		return nil
	case record.TypeSound, record.TypeVideo, record.Type3D:
		if classifier.HasEmbeddableMedia(classifier.Input{Record: w}) {
			return nil
		}
	}

	types := []record.LinkType{record.LinkIsShownBy, record.LinkHasView}
	if edm != record.TypeImage {
		// landing pages only count for non-image records
		types = append(types, record.LinkIsShownAt)
	}

	var targets []probeTarget
	index := map[string]int{}
	for _, e := range w.WebResourceEntries(types...) {
		u, ok := common.ResourceURL(e.URL)
		if !ok {
			continue
		}
		i, seen := index[u]
		if !seen {
			i = len(targets)
			index[u] = i
			targets = append(targets, probeTarget{url: u, expected: mimetable.FamilyText})
		}
		t := &targets[i]
		t.entries = append(t.entries, e)
		if isMedia(e) {
			t.expected = edmFamily(edm)
			t.declared = e.DeclaredMimeType
		}
	}
	return targets
}

// probeRun tracks the transfers of one calculation.
type probeRun struct {
	mu      sync.Mutex
	stopped bool
	active  map[*fetcher.Transfer]struct{}
	results map[string]*models.ProbeResult
}

func (r *probeRun) start(begin func() *fetcher.Transfer) (*fetcher.Transfer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil, false
	}
	t := begin()
	r.active[t] = struct{}{}
	return t, true
}

func (r *probeRun) finish(tr *fetcher.Transfer, target probeTarget, res *models.ProbeResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tr != nil {
		delete(r.active, tr)
	}
	for _, e := range target.entries {
		r.results[e.URL] = res
	}
}

// stop cancels every active transfer and refuses new ones. It reports
// whether this call did the stopping.
func (r *probeRun) stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	r.stopped = true
	for t := range r.active {
		t.Cancel()
	}
	return true
}

// probe fetches every planned target and waits for all of them. Results are
// keyed by the record's own link, not the sanitized URL.
func (c *Calculator) probe(ctx context.Context, w *record.Wrapper, logger *slog.Logger) map[string]*models.ProbeResult {
	run := &probeRun{
		active:  make(map[*fetcher.Transfer]struct{}),
		results: make(map[string]*models.ProbeResult),
	}
	targets := plan(w)
	if len(targets) == 0 || c.fetcher == nil {
		return run.results
	}

	goal := tier.Floor(tier.MediaT4, classifier.LicenseTier(w.LicenseType()))

	var g errgroup.Group
	g.SetLimit(c.maxProbes)
	for _, target := range targets {
		g.Go(func() error {
			tr, res := c.probeTarget(ctx, run, target, logger)
			run.finish(tr, target, res)
			if c.earlyCancel && c.reachesGoal(w, target, res, goal) && run.stop() {
				logger.Info("best achievable content tier reached, canceling remaining probes",
					"url", target.url, "tier", goal.Label())
			}
			return nil
		})
	}
	_ = g.Wait()
	return run.results
}

func (c *Calculator) probeTarget(ctx context.Context, run *probeRun, target probeTarget, logger *slog.Logger) (*fetcher.Transfer, *models.ProbeResult) {
	if c.cache != nil {
		if res, ok := c.cache.Get(target.url); ok {
			logger.Debug("probe cache hit", "url", target.url)
			return nil, res
		}
	}

	tr, ok := run.start(func() *fetcher.Transfer {
		return c.fetcher.Start(ctx, fetcher.ProbeRequest{
			URL:              target.url,
			Expected:         target.expected,
			DeclaredMimeType: target.declared,
		})
	})
	if !ok {
		return nil, &models.ProbeResult{URL: target.url, Outcome: models.ProbeCanceled, ErrorKind: string(fetcher.KindCanceled)}
	}

	res, err := tr.Await(ctx)
	if res == nil {
		// caller gave up before the transfer finished
		return tr, &models.ProbeResult{URL: target.url, Outcome: models.ProbeCanceled, ErrorKind: string(fetcher.KindCanceled), ErrorMessage: err.Error()}
	}
	if c.cache != nil && cacheable(res) {
		if err := c.cache.Set(target.url, res); err != nil {
			logger.Warn("failed to cache probe", "url", target.url, "error", err)
		}
	}
	return tr, res
}

// cacheable keeps verdicts the same URL would give again: successes and
// definite client errors.
func cacheable(res *models.ProbeResult) bool {
	switch res.Outcome {
	case models.ProbeOK:
		return true
	case models.ProbeFailed:
		return res.ErrorKind == string(fetcher.KindStatus) && res.StatusCode >= 400 && res.StatusCode < 500
	}
	return false
}

// reachesGoal reports whether res alone gives a media resource the best tier
// the record can get. The resource must match goal's label, not only its
// level.
func (c *Calculator) reachesGoal(w *record.Wrapper, target probeTarget, res *models.ProbeResult, goal tier.MediaTier) bool {
	if !res.OK() {
		return false
	}
	for _, e := range target.entries {
		if !isMedia(e) {
			continue
		}
		in := classifier.Input{Record: w, Probes: map[string]*models.ProbeResult{e.URL: res}}
		if v := c.media.Resource(in, e); v.Usable && tier.Ceil(goal, v.Tier) == v.Tier {
			return true
		}
	}
	return false
}
