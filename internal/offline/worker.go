// Package offline implements the degradation layer in front of all read
// traffic: a worker with install/activate/intercept lifecycle hooks that
// decides, per request, whether to serve from the network, from a versioned
// cache generation, or from the offline fallback document. It talks to the
// rest of the app only through the Network and Cache abstractions.
package offline

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// OfflinePath is the pre-cached fallback document served for failed
// navigations.
const OfflinePath = "/offline.html"

// PrecacheShell is the fixed path set populated at install time.
var PrecacheShell = []string{"/", "/favorites", "/about", OfflinePath}

// offlineJSON is the synthetic payload for data-API requests that fail on
// the network. Forecast data is never served stale from this cache; a
// cached forecast would silently misrepresent current conditions.
const offlineJSON = `{"error":"offline"}`

// apiSegment marks requests for the app's own data API.
const apiSegment = "/api/"

// State tracks the worker lifecycle.
type State int32

const (
	StateNew State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActivated
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActivated:
		return "activated"
	default:
		return "new"
	}
}

// Request identifies an intercepted request. Path includes the query
// string; request identity is method plus path.
type Request struct {
	Method string
	Path   string
	Accept string
}

func (r Request) key() string {
	return r.Method + " " + r.Path
}

// IsNavigation reports whether the request is a page navigation, the only
// class of request that falls back to the offline document.
func (r Request) IsNavigation() bool {
	return strings.Contains(r.Accept, "text/html")
}

// Network is the worker's only way to reach live content.
type Network interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}

// NetworkFunc adapts a function to the Network interface.
type NetworkFunc func(ctx context.Context, req Request) (Response, error)

func (f NetworkFunc) Fetch(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Source says where an intercepted response came from.
type Source int

const (
	SourceNetwork Source = iota
	SourceCache
	SourceOfflinePage
	SourceSynthetic
)

// Result is an intercepted response plus its provenance.
type Result struct {
	Response
	Source Source
}

// Worker applies the per-request-class fetch policy over one active cache
// generation.
type Worker struct {
	cache      *Cache
	network    Network
	generation string
	precache   []string
	isNetErr   func(error) bool
	state      atomic.Int32
}

// Option configures a Worker.
type Option func(*Worker)

// WithPrecache overrides the shell set populated at install.
func WithPrecache(paths []string) Option {
	return func(w *Worker) { w.precache = paths }
}

// WithNetworkErrorClassifier restricts which fetch errors count as "network
// failure" and enter the fallback path. Errors the classifier rejects
// propagate untouched to the caller. Default: every error is a network
// failure.
func WithNetworkErrorClassifier(f func(error) bool) Option {
	return func(w *Worker) { w.isNetErr = f }
}

func NewWorker(network Network, cache *Cache, generation string, opts ...Option) *Worker {
	w := &Worker{
		cache:      cache,
		network:    network,
		generation: generation,
		precache:   PrecacheShell,
		isNetErr:   func(error) bool { return true },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Generation returns the active cache generation tag.
func (w *Worker) Generation() string {
	return w.generation
}

// Install pre-populates the active generation with the shell set. Any
// failure aborts the install: a partial shell would leave navigations with
// no offline document to fall back on.
func (w *Worker) Install(ctx context.Context) error {
	w.state.Store(int32(StateInstalling))

	for _, path := range w.precache {
		req := Request{Method: "GET", Path: path, Accept: "text/html"}
		resp, err := w.network.Fetch(ctx, req)
		if err != nil {
			return fmt.Errorf("offline: precaching %s: %w", path, err)
		}
		if resp.StatusCode != 200 {
			return fmt.Errorf("offline: precaching %s: status %d", path, resp.StatusCode)
		}
		w.cache.Put(w.generation, req.key(), resp)
	}

	w.state.Store(int32(StateInstalled))
	return nil
}

// Activate deletes every generation whose tag differs from the active one.
func (w *Worker) Activate() {
	w.state.Store(int32(StateActivating))

	for _, name := range w.cache.Generations() {
		if name != w.generation {
			w.cache.DeleteGeneration(name)
		}
	}

	w.state.Store(int32(StateActivated))
}

// Intercept applies the fetch policy for a request using the worker's own
// network. Non-GET requests pass straight through: they are never cached
// and never fall back.
func (w *Worker) Intercept(ctx context.Context, req Request) (Result, error) {
	if req.Method != "GET" {
		resp, err := w.network.Fetch(ctx, req)
		return Result{Response: resp, Source: SourceNetwork}, err
	}
	return w.handle(ctx, req, w.network)
}

// handle is the shared policy core: network first, then cache, then the
// offline document for navigations, then a synthetic 503. The network and
// cache are consulted in sequence, never raced: trying the cache only
// after the network fails keeps behavior deterministic and never shows
// stale data while fresh data is reachable.
func (w *Worker) handle(ctx context.Context, req Request, network Network) (Result, error) {
	resp, err := network.Fetch(ctx, req)
	if err == nil {
		if resp.StatusCode == 200 && !w.isAPI(req) {
			w.cache.Put(w.generation, req.key(), resp)
		}
		return Result{Response: resp, Source: SourceNetwork}, nil
	}

	if !w.isNetErr(err) {
		return Result{}, err
	}

	if w.isAPI(req) {
		// Never a cached API body, even if one exists from an older build.
		return Result{
			Response: Response{
				StatusCode:  200,
				ContentType: "application/json",
				Body:        []byte(offlineJSON),
			},
			Source: SourceSynthetic,
		}, nil
	}

	if cached, ok := w.cache.Get(w.generation, req.key()); ok {
		return Result{Response: cached, Source: SourceCache}, nil
	}

	if req.IsNavigation() {
		offlineKey := Request{Method: "GET", Path: OfflinePath}.key()
		if page, ok := w.cache.Get(w.generation, offlineKey); ok {
			return Result{Response: page, Source: SourceOfflinePage}, nil
		}
	}

	return Result{
		Response: Response{
			StatusCode:  503,
			ContentType: "text/plain; charset=utf-8",
			Body:        []byte("Offline"),
		},
		Source: SourceSynthetic,
	}, nil
}

func (w *Worker) isAPI(req Request) bool {
	return strings.Contains(req.Path, apiSegment)
}
