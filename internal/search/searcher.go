// Package search debounces city-search input and guarantees that only the
// most recent query's results are ever delivered, however slow or
// out-of-order the upstream answers arrive.
package search

import (
	"context"
	"sync"
	"time"

	"meteoaura/internal/weather"
)

// DefaultDebounce is the quiet period required before a query is issued.
const DefaultDebounce = 300 * time.Millisecond

// LookupFunc resolves a query to candidate locations. It must be safe for
// concurrent use; the gateway's SearchCities satisfies it.
type LookupFunc func(ctx context.Context, query string) []weather.GeoLocation

// Result pairs the delivered locations with the query that produced them.
type Result struct {
	Query     string
	Locations []weather.GeoLocation
}

// Searcher serializes keystroke-level queries into at most one in-flight
// lookup per quiet period. Every call to Search bumps a generation counter;
// a lookup whose generation is no longer the latest when it completes is
// dropped, so a stale slow response can never clobber a newer one.
type Searcher struct {
	lookup   LookupFunc
	debounce time.Duration
	out      chan Result

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithDebounce overrides the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(s *Searcher) { s.debounce = d }
}

func NewSearcher(lookup LookupFunc, opts ...Option) *Searcher {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Searcher{
		lookup:   lookup,
		debounce: DefaultDebounce,
		out:      make(chan Result, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Results delivers the locations for the latest query. Superseded queries
// never appear on this channel.
func (s *Searcher) Results() <-chan Result {
	return s.out
}

// Search records a new query. The lookup fires after the debounce interval
// unless another Search arrives first, which restarts the clock.
func (s *Searcher) Search(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(gen, query)
	})
}

func (s *Searcher) run(gen uint64, query string) {
	if s.ctx.Err() != nil {
		return
	}
	locations := s.lookup(s.ctx, query)

	s.mu.Lock()
	stale := gen != s.gen
	s.mu.Unlock()
	if stale {
		return
	}

	select {
	case s.out <- Result{Query: query, Locations: locations}:
	case <-s.ctx.Done():
	}
}

// Close stops any pending lookup and releases the searcher. Search calls
// after Close are no-ops.
func (s *Searcher) Close() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	s.mu.Unlock()
	s.cancel()
}
