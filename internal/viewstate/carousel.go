package viewstate

import (
	"sync"
	"time"
)

// DefaultAutoplayInterval is the auto-advance period of autoplaying carousels.
const DefaultAutoplayInterval = 5 * time.Second

// Carousel is an index into a fixed-length list with wrap-around navigation.
// An empty carousel ignores every operation.
type Carousel struct {
	mu      sync.Mutex
	n       int
	index   int
	playing bool

	// autoplay
	clock    Clock
	interval time.Duration
	autoplay bool
	hovered  bool
	stopped  bool
	timer    Timer
	gen      uint64
}

// NewCarousel returns a carousel over n items positioned at 0.
func NewCarousel(n int) *Carousel {
	if n < 0 {
		n = 0
	}
	return &Carousel{n: n}
}

func (c *Carousel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func (c *Carousel) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Next moves forward, wrapping to 0 past the end.
func (c *Carousel) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		return 0
	}
	c.moveLocked((c.index + 1) % c.n)
	return c.index
}

// Prev moves back, wrapping to the last item from 0.
func (c *Carousel) Prev() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		return 0
	}
	c.moveLocked((c.index - 1 + c.n) % c.n)
	return c.index
}

// JumpTo moves to i. Out-of-range indices are ignored and report false.
func (c *Carousel) JumpTo(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= c.n {
		return false
	}
	c.moveLocked(i)
	return true
}

// moveLocked is a user interaction: it stops playback and restarts the
// autoplay delay.
func (c *Carousel) moveLocked(i int) {
	c.index = i
	c.playing = false
	c.armLocked()
}

// Resize adapts to a list that changed length between renders, clamping the
// position.
func (c *Carousel) Resize(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n == c.n {
		return
	}
	c.n = n
	if c.index >= n {
		c.index = 0
		c.playing = false
	}
	c.armLocked()
}

// Play starts playback of the current item. Autoplay is held while playing.
func (c *Carousel) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		return
	}
	c.playing = true
	c.armLocked()
}

func (c *Carousel) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// StartAutoplay advances the carousel every interval until Stop.
func (c *Carousel) StartAutoplay(clock Clock, interval time.Duration) {
	if clock == nil {
		clock = SystemClock
	}
	if interval <= 0 {
		interval = DefaultAutoplayInterval
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.clock = clock
	c.interval = interval
	c.autoplay = true
	c.armLocked()
}

// primeAutoplay records the autoplay settings without scheduling anything.
// Detached pages use it so a first render can announce autoplay.
func (c *Carousel) primeAutoplay(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultAutoplayInterval
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interval = interval
	c.autoplay = true
}

// Autoplaying reports whether the carousel is auto-advancing right now. On a
// live page that is exactly when a tick is scheduled.
func (c *Carousel) Autoplaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shouldRunLocked()
}

func (c *Carousel) shouldRunLocked() bool {
	return c.autoplay && !c.stopped && !c.hovered && !c.playing && c.n >= 2
}

// Hover suspends autoplay while the pointer is over the carousel.
func (c *Carousel) Hover(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hovered == on {
		return
	}
	c.hovered = on
	c.armLocked()
}

// Stop cancels autoplay for good. It is safe to call more than once.
func (c *Carousel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.armLocked()
}

// armLocked cancels any pending tick and schedules a fresh one when autoplay
// should be running.
func (c *Carousel) armLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	if !c.shouldRunLocked() || c.clock == nil {
		return
	}
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.interval, func() { c.tick(gen) })
}

func (c *Carousel) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// a stale timer that lost the race with Stop or re-arming
	if gen != c.gen {
		return
	}
	c.timer = nil
	if c.n == 0 {
		return
	}
	c.index = (c.index + 1) % c.n
	c.armLocked()
}
