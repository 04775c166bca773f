package viewstate

import (
	"sync"
	"time"
)

// Options configures the timers of a Page.
type Options struct {
	Clock            Clock
	ToastDelay       time.Duration
	AutoplayInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = SystemClock
	}
	if o.ToastDelay <= 0 {
		o.ToastDelay = DefaultToastDelay
	}
	if o.AutoplayInterval <= 0 {
		o.AutoplayInterval = DefaultAutoplayInterval
	}
	return o
}

// Page groups the view state of one visitor on one product page. Components
// are created lazily on first use because their shape depends on the product
// document.
type Page struct {
	mu        sync.Mutex
	opts      Options
	toggles   map[string]*Toggle
	carousels map[string]*Carousel
	flags     map[string]*Flags
	fallback  *Fallback
	toast     *Toast
	lastSeen  time.Time
	closed    bool
	detached  bool
}

// NewPage returns an empty page state.
func NewPage(opts Options) *Page {
	opts = opts.withDefaults()
	return &Page{
		opts:      opts,
		toggles:   map[string]*Toggle{},
		carousels: map[string]*Carousel{},
		flags:     map[string]*Flags{},
		fallback:  NewFallback(),
		toast:     NewToast(opts.Clock, opts.ToastDelay),
		lastSeen:  opts.Clock.Now(),
	}
}

// NewDetachedPage returns a page for rendering a visitor that has no stored
// state yet. It reports initial values and never schedules a timer.
func NewDetachedPage(opts Options) *Page {
	p := NewPage(opts)
	p.detached = true
	return p
}

// Detached reports whether the page is a stand-in that is not held by a Store.
func (p *Page) Detached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detached
}

// Toggle returns the named toggle, creating it with mode and ids on first use.
func (p *Page) Toggle(name string, mode Mode, ids []string) *Toggle {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.toggles[name]; ok {
		return t
	}
	var t *Toggle
	if mode == Tabs {
		t = NewTabs(ids...)
	} else {
		t = NewAccordion(ids...)
	}
	p.toggles[name] = t
	return t
}

// Carousel returns the named carousel sized to n. Autoplaying carousels start
// their timer on creation, except on a detached page.
func (p *Page) Carousel(name string, n int, autoplay bool) *Carousel {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.carousels[name]; ok {
		c.Resize(n)
		return c
	}
	c := NewCarousel(n)
	switch {
	case p.closed:
		c.Stop()
	case autoplay && p.detached:
		c.primeAutoplay(p.opts.AutoplayInterval)
	case autoplay:
		c.StartAutoplay(p.opts.Clock, p.opts.AutoplayInterval)
	}
	p.carousels[name] = c
	return c
}

// Flags returns the named flag set.
func (p *Page) Flags(name string) *Flags {
	p.mu.Lock()
	defer p.mu.Unlock()
	if f, ok := p.flags[name]; ok {
		return f
	}
	f := NewFlags()
	p.flags[name] = f
	return f
}

func (p *Page) Fallback() *Fallback { return p.fallback }

func (p *Page) Toast() *Toast { return p.toast }

func (p *Page) touch(now time.Time) {
	p.mu.Lock()
	p.lastSeen = now
	p.mu.Unlock()
}

func (p *Page) idleSince() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}

// Close cancels every pending timer. The page must not be used afterwards.
func (p *Page) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	carousels := make([]*Carousel, 0, len(p.carousels))
	for _, c := range p.carousels {
		carousels = append(carousels, c)
	}
	p.mu.Unlock()

	for _, c := range carousels {
		c.Stop()
	}
	p.toast.Close()
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
