package viewstate

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestAccordionToggle(t *testing.T) {
	t.Parallel()

	acc := NewAccordion()
	require.Empty(t, acc.Active(), "starts closed")

	require.Equal(t, "a", acc.Select("a"))
	require.Equal(t, "", acc.Select("a"), "selecting the open row closes it")

	acc.Select("a")
	require.Equal(t, "b", acc.Select("b"), "only one row open at a time")
	require.False(t, acc.IsActive("a"))
	require.True(t, acc.IsActive("b"))

	acc.Reset()
	require.Empty(t, acc.Active())
}

func TestAccordionIgnoresUnknownIDs(t *testing.T) {
	t.Parallel()

	acc := NewAccordion("a", "b")
	acc.Select("a")
	require.Equal(t, "a", acc.Select("zzz"))
}

func TestTabsNeverClose(t *testing.T) {
	t.Parallel()

	tabs := NewTabs("one", "two", "three")
	require.Equal(t, "one", tabs.Active(), "defaults to the first tab")

	require.Equal(t, "two", tabs.Select("two"))
	require.Equal(t, "two", tabs.Select("two"), "re-selecting keeps it active")
	require.Equal(t, "two", tabs.Select("missing"))

	tabs.Reset()
	require.Equal(t, "two", tabs.Active())

	require.Empty(t, NewTabs().Active())
}

func TestFlags(t *testing.T) {
	t.Parallel()

	f := NewFlags()
	require.True(t, f.Flip("t1"))
	require.True(t, f.On("t1"))
	require.False(t, f.On("t2"), "flags are independent")
	require.False(t, f.Flip("t1"))
}

func TestCarouselNavigationWraps(t *testing.T) {
	t.Parallel()

	c := NewCarousel(3)
	require.Equal(t, 0, c.Index())
	require.Equal(t, 1, c.Next())
	require.Equal(t, 2, c.Next())
	require.Equal(t, 0, c.Next(), "next wraps past the end")
	require.Equal(t, 2, c.Prev(), "prev wraps from zero")

	require.True(t, c.JumpTo(1))
	require.Equal(t, 1, c.Index())
	require.False(t, c.JumpTo(3))
	require.False(t, c.JumpTo(-1))
	require.Equal(t, 1, c.Index(), "out of range jump is a no-op")
}

func TestEmptyCarouselIsInert(t *testing.T) {
	t.Parallel()

	c := NewCarousel(0)
	require.Equal(t, 0, c.Next())
	require.Equal(t, 0, c.Prev())
	require.False(t, c.JumpTo(0))
	c.Play()
	require.False(t, c.Playing())
}

func TestCarouselPlaybackResetsOnMove(t *testing.T) {
	t.Parallel()

	c := NewCarousel(2)
	c.Play()
	require.True(t, c.Playing())
	c.Next()
	require.False(t, c.Playing())
}

func TestCarouselResizeClamps(t *testing.T) {
	t.Parallel()

	c := NewCarousel(5)
	c.JumpTo(4)
	c.Resize(3)
	require.Equal(t, 0, c.Index())
	require.Equal(t, 3, c.Len())
}

func TestCarouselAutoplay(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(epoch)
	c := NewCarousel(3)
	c.StartAutoplay(clock, 5*time.Second)
	require.True(t, c.Autoplaying())

	clock.Advance(4 * time.Second)
	require.Equal(t, 0, c.Index())
	clock.Advance(time.Second)
	require.Equal(t, 1, c.Index())
	clock.Advance(10 * time.Second)
	require.Equal(t, 0, c.Index(), "two more ticks wrap around")

	c.Hover(true)
	require.False(t, c.Autoplaying())
	clock.Advance(time.Minute)
	require.Equal(t, 0, c.Index(), "hover suspends autoplay")

	c.Hover(false)
	clock.Advance(5 * time.Second)
	require.Equal(t, 1, c.Index())

	c.Stop()
	c.Stop()
	clock.Advance(time.Minute)
	require.Equal(t, 1, c.Index(), "stopped carousel no longer advances")
	require.Zero(t, clock.Pending())

	c.Hover(true)
	c.Hover(false)
	require.False(t, c.Autoplaying(), "stop is final")
}

func TestCarouselInteractionRestartsDelay(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(epoch)
	c := NewCarousel(4)
	c.StartAutoplay(clock, 5*time.Second)

	clock.Advance(4 * time.Second)
	c.JumpTo(2)
	clock.Advance(4 * time.Second)
	require.Equal(t, 2, c.Index(), "manual navigation restarts the interval")
	clock.Advance(time.Second)
	require.Equal(t, 3, c.Index())

	c.Play()
	clock.Advance(time.Minute)
	require.Equal(t, 3, c.Index(), "autoplay holds while a video plays")
	require.Zero(t, clock.Pending())
}

func TestCarouselSingleItemDoesNotSchedule(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(epoch)
	c := NewCarousel(1)
	c.StartAutoplay(clock, time.Second)
	require.Zero(t, clock.Pending())
}

func TestFallbackIsMonotonic(t *testing.T) {
	t.Parallel()

	f := NewFallback()
	require.False(t, f.Failed("hero"))
	require.True(t, f.Fail("hero"))
	require.False(t, f.Fail("hero"), "second failure is not new")
	require.True(t, f.Failed("hero"))
	require.False(t, f.Failed("other"))
	require.False(t, f.Fail(""))
	require.Equal(t, 1, f.Len())
}

func TestToastHidesAfterDelay(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(epoch)
	toast := NewToast(clock, 3*time.Second)

	visible, _ := toast.Visible()
	require.False(t, visible)

	toast.Trigger("please log in")
	visible, msg := toast.Visible()
	require.True(t, visible)
	require.Equal(t, "please log in", msg)

	clock.Advance(3 * time.Second)
	visible, _ = toast.Visible()
	require.False(t, visible)
}

func TestToastRetriggerRestartsDelay(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(epoch)
	toast := NewToast(clock, 3*time.Second)

	toast.Trigger("x")
	clock.Advance(2 * time.Second)
	toast.Trigger("x")
	require.Equal(t, 1, clock.Pending(), "timers never stack")

	clock.Advance(2 * time.Second)
	visible, _ := toast.Visible()
	require.True(t, visible, "still visible 2s after the retrigger")

	clock.Advance(time.Second)
	visible, _ = toast.Visible()
	require.False(t, visible)
}

func TestToastCloseCancelsPendingReset(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(epoch)
	toast := NewToast(clock, 3*time.Second)
	toast.Trigger("x")
	toast.Close()
	require.Zero(t, clock.Pending())

	toast.Trigger("y")
	visible, _ := toast.Visible()
	require.False(t, visible, "closed toast stays inert")
}

func TestToastStaleTimerIsIgnored(t *testing.T) {
	t.Parallel()

	// A timer whose Stop lost the race still fires; the generation check
	// keeps it from hiding a newer toast.
	clock := &leakyClock{ManualClock: NewManualClock(epoch)}
	toast := NewToast(clock, 3*time.Second)
	toast.Trigger("first")
	clock.Advance(2 * time.Second)
	toast.Trigger("second")
	clock.Advance(time.Second)
	visible, msg := toast.Visible()
	require.True(t, visible)
	require.Equal(t, "second", msg)
}

// leakyClock returns timers whose Stop never cancels.
type leakyClock struct {
	*ManualClock
}

type leakyTimer struct{}

func (leakyTimer) Stop() bool { return false }

func (c *leakyClock) AfterFunc(d time.Duration, f func()) Timer {
	c.ManualClock.AfterFunc(d, f)
	return leakyTimer{}
}

func TestPageComponentsAreLazyAndStable(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(epoch)
	p := NewPage(Options{Clock: clock, AutoplayInterval: time.Second})

	faq := p.Toggle("faq", Accordion, []string{"a", "b"})
	require.Same(t, faq, p.Toggle("faq", Tabs, nil), "existing toggle keeps its mode")

	tabs := p.Toggle("about", Tabs, []string{"x", "y"})
	require.Equal(t, "x", tabs.Active())

	car := p.Carousel("testimonials", 3, true)
	require.Same(t, car, p.Carousel("testimonials", 3, true))
	clock.Advance(time.Second)
	require.Equal(t, 1, car.Index())

	require.Same(t, p.Flags("more"), p.Flags("more"))

	p.Toast().Trigger("x")
	p.Close()
	p.Close()
	require.True(t, p.Closed())
	require.Zero(t, clock.Pending(), "closing a page cancels its timers")

	late := p.Carousel("media", 3, true)
	require.False(t, late.Autoplaying())
}

func TestStoreIsolatesVisitors(t *testing.T) {
	t.Parallel()

	s := NewStore(WithClock(NewManualClock(epoch)))
	a := s.Page(Key{Session: "a", Slug: "ielts-course", Lang: "en"})
	b := s.Page(Key{Session: "b", Slug: "ielts-course", Lang: "en"})
	require.NotSame(t, a, b)

	a.Toggle("faq", Accordion, nil).Select("q1")
	require.Empty(t, b.Toggle("faq", Accordion, nil).Active())

	require.Same(t, a, s.Page(Key{Session: "a", Slug: "ielts-course", Lang: "en"}))
	require.NotSame(t, a, s.Page(Key{Session: "a", Slug: "ielts-course", Lang: "bn"}))
	require.Equal(t, 3, s.Len())
}

func TestStoreSweepEvictsIdlePages(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(epoch)
	s := NewStore(WithClock(clock), WithTTL(10*time.Minute))
	idle := s.Page(Key{Session: "idle"})
	idle.Carousel("c", 3, true)
	s.Page(Key{Session: "busy"})

	clock.Advance(6 * time.Minute)
	s.Page(Key{Session: "busy"})
	clock.Advance(5 * time.Minute)

	require.Equal(t, 1, s.Sweep())
	require.True(t, idle.Closed())
	_, ok := s.Lookup(Key{Session: "idle"})
	require.False(t, ok)
	_, ok = s.Lookup(Key{Session: "busy"})
	require.True(t, ok)
}

func TestStoreLeaveAndClose(t *testing.T) {
	t.Parallel()

	s := NewStore(WithClock(NewManualClock(epoch)))
	k := Key{Session: "a", Slug: "x", Lang: "en"}
	p := s.Page(k)
	require.True(t, s.Leave(k))
	require.False(t, s.Leave(k))
	require.True(t, p.Closed())

	other := s.Page(Key{Session: "b"})
	s.Close()
	require.True(t, other.Closed())
	require.Zero(t, s.Len())
}

func TestDetachedPageSchedulesNothing(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(epoch)
	p := NewDetachedPage(Options{Clock: clock, AutoplayInterval: time.Second})
	require.True(t, p.Detached())

	car := p.Carousel("media", 3, true)
	require.True(t, car.Autoplaying(), "a first render still announces autoplay")
	require.Zero(t, clock.Pending())

	car.Next()
	car.Hover(true)
	car.Hover(false)
	require.Zero(t, clock.Pending())
	clock.Advance(time.Minute)
	require.Equal(t, 1, car.Index())
}

func TestStoreViewDoesNotRetainNewVisitors(t *testing.T) {
	t.Parallel()

	clock := NewManualClock(epoch)
	s := NewStore(WithClock(clock))
	for i := 0; i < 50; i++ {
		p := s.View(Key{Session: fmt.Sprintf("crawler-%d", i), Slug: "ielts-course", Lang: "en"})
		require.True(t, p.Detached())
		p.Carousel("media", 3, true)
		p.Carousel("testimonials", 2, true)
	}
	require.Zero(t, s.Len())
	require.Zero(t, clock.Pending())

	k := Key{Session: "visitor", Slug: "ielts-course", Lang: "en"}
	live := s.Page(k)
	require.Same(t, live, s.View(k))
	require.False(t, s.View(k).Detached())
}

func TestConcurrentSelectionsAreSerialized(t *testing.T) {
	t.Parallel()

	acc := NewAccordion()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc.Select("a")
		}()
	}
	wg.Wait()
	// an even number of toggles of the same row leaves it closed
	require.Empty(t, acc.Active())
}
