package viewstate

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultTTL is how long an untouched page state is kept.
const DefaultTTL = 30 * time.Minute

var (
	livePages = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "viewstate_pages",
		Help: "Page view states currently held in memory",
	})
	evictedPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewstate_pages_evicted_total",
		Help: "Page view states dropped after the idle TTL",
	})
)

// Key identifies one visitor on one product page in one language.
type Key struct {
	Session string
	Slug    string
	Lang    string
}

// Store holds page states by Key and evicts idle ones.
type Store struct {
	mu    sync.Mutex
	pages map[Key]*Page
	opts  Options
	ttl   time.Duration
}

type StoreOption func(*Store)

func WithClock(c Clock) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.opts.Clock = c
		}
	}
}

func WithTTL(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithToastDelay(d time.Duration) StoreOption {
	return func(s *Store) { s.opts.ToastDelay = d }
}

func WithAutoplayInterval(d time.Duration) StoreOption {
	return func(s *Store) { s.opts.AutoplayInterval = d }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{pages: map[Key]*Page{}, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	s.opts = s.opts.withDefaults()
	return s
}

// Page returns the page state for k, creating it when absent.
func (s *Store) Page(k Key) *Page {
	now := s.opts.Clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pages[k]; ok {
		p.touch(now)
		return p
	}
	p := NewPage(s.opts)
	s.pages[k] = p
	livePages.Inc()
	return p
}

// Lookup returns the page state for k without creating it.
func (s *Store) Lookup(k Key) (*Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[k]
	if ok {
		p.touch(s.opts.Clock.Now())
	}
	return p, ok
}

// View returns the stored page for k, or a detached page when the visitor
// has none. Full-page renders use it so that requests which never interact
// (crawlers, link previews, health probes) leave nothing behind.
func (s *Store) View(k Key) *Page {
	if p, ok := s.Lookup(k); ok {
		return p
	}
	return NewDetachedPage(s.opts)
}

// Leave tears down the page state for k.
func (s *Store) Leave(k Key) bool {
	s.mu.Lock()
	p, ok := s.pages[k]
	if ok {
		delete(s.pages, k)
		livePages.Dec()
	}
	s.mu.Unlock()
	if ok {
		p.Close()
	}
	return ok
}

// Sweep closes and removes pages idle for longer than the TTL.
func (s *Store) Sweep() int {
	cutoff := s.opts.Clock.Now().Add(-s.ttl)
	var stale []*Page
	s.mu.Lock()
	for k, p := range s.pages {
		if p.idleSince().Before(cutoff) {
			stale = append(stale, p)
			delete(s.pages, k)
		}
	}
	s.mu.Unlock()
	for _, p := range stale {
		p.Close()
	}
	livePages.Sub(float64(len(stale)))
	evictedPages.Add(float64(len(stale)))
	return len(stale)
}

// Run sweeps every interval until ctx is done, then closes every page.
func (s *Store) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// Close tears down every page.
func (s *Store) Close() {
	s.mu.Lock()
	pages := s.pages
	s.pages = map[Key]*Page{}
	s.mu.Unlock()
	for _, p := range pages {
		p.Close()
	}
	livePages.Sub(float64(len(pages)))
}
