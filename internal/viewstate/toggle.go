package viewstate

import "sync"

// Mode selects how a Toggle reacts to re-selecting the active item.
type Mode int

const (
	// Accordion starts closed; selecting the open item closes it.
	Accordion Mode = iota
	// Tabs starts on the first item; one item is always active.
	Tabs
)

// Toggle tracks at most one active item out of a set.
type Toggle struct {
	mu     sync.Mutex
	mode   Mode
	known  map[string]struct{}
	active string
}

// NewAccordion returns a closed accordion. When ids are given, selecting any
// other id is ignored.
func NewAccordion(ids ...string) *Toggle {
	return &Toggle{mode: Accordion, known: idSet(ids)}
}

// NewTabs returns a tab set with the first id active.
func NewTabs(ids ...string) *Toggle {
	t := &Toggle{mode: Tabs, known: idSet(ids)}
	if len(ids) > 0 {
		t.active = ids[0]
	}
	return t
}

func idSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// Select applies a selection and returns the active id afterwards ("" when
// nothing is open).
func (t *Toggle) Select(id string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id == "" {
		return t.active
	}
	if t.known != nil {
		if _, ok := t.known[id]; !ok {
			return t.active
		}
	}
	switch {
	case t.mode == Tabs:
		t.active = id
	case t.active == id:
		t.active = ""
	default:
		t.active = id
	}
	return t.active
}

// Active returns the active id, "" when closed.
func (t *Toggle) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// IsActive reports whether id is the active item.
func (t *Toggle) IsActive(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return id != "" && t.active == id
}

// Reset closes an accordion. Tabs are left as they are.
func (t *Toggle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode == Accordion {
		t.active = ""
	}
}

// Flags is a set of independent on/off switches, such as expanded cards.
type Flags struct {
	mu sync.Mutex
	on map[string]bool
}

// NewFlags returns a flag set with every key off.
func NewFlags() *Flags { return &Flags{on: map[string]bool{}} }

// Flip inverts key and returns the new value.
func (f *Flags) Flip(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on[key] = !f.on[key]
	return f.on[key]
}

// On reports whether key is switched on.
func (f *Flags) On(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on[key]
}
