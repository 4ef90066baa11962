// Package navigation implements the per-tab history and timing state
// machine described in spec §4.N: a vector of entries plus a current
// index, where navigate() truncates forward history and starts a new
// entry's timing, and go_back/go_forward only ever move the index.
//
// New relative to the teacher, which fetches and renders a URL with no
// history at all (pkg/resource.Fetcher is stateless per call).
// Grounded on ForgeLogic-nojs's AppShell.SetPage: "replace the volatile
// chain, keep the persistent layout instance" becomes here "replace
// the current/in-flight entry, keep the persistent history vector."
// State-transition logging follows EdgeComet's zap-per-transition
// idiom used throughout internal/cachedaemon.
package navigation

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// State is a navigation's position in its per-entry state machine.
type State int

const (
	Started State = iota
	Redirecting
	Receiving
	Processing
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case Started:
		return "started"
	case Redirecting:
		return "redirecting"
	case Receiving:
		return "receiving"
	case Processing:
		return "processing"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// legalNext lists the state machine's monotonic edges; navigation
// state transitions never move backward within an entry.
var legalNext = map[State][]State{
	Started:     {Redirecting, Receiving, Failed},
	Redirecting: {Redirecting, Receiving, Failed},
	Receiving:   {Processing, Failed},
	Processing:  {Complete, Failed},
	Complete:    {},
	Failed:      {},
}

func (s State) canTransitionTo(next State) bool {
	for _, allowed := range legalNext[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

var ErrIllegalTransition = errors.New("navigation: illegal state transition")

// Timing captures the timestamps spec §4.N names; derived durations
// are computed on demand rather than stored, so a still-in-flight
// entry's zero timestamps simply yield zero durations instead of
// needing sentinel values.
type Timing struct {
	DNSStart, DNSEnd           time.Time
	ConnectStart, ConnectEnd   time.Time
	ResponseStart, ResponseEnd time.Time
	DOMContentLoaded           time.Time
	LoadComplete               time.Time
}

// TTFB is the time to first byte: from connect end to response start.
func (t Timing) TTFB() time.Duration {
	if t.ConnectEnd.IsZero() || t.ResponseStart.IsZero() {
		return 0
	}
	return t.ResponseStart.Sub(t.ConnectEnd)
}

// DNSDuration is DNSEnd - DNSStart.
func (t Timing) DNSDuration() time.Duration {
	if t.DNSStart.IsZero() || t.DNSEnd.IsZero() {
		return 0
	}
	return t.DNSEnd.Sub(t.DNSStart)
}

// ConnectDuration is ConnectEnd - ConnectStart.
func (t Timing) ConnectDuration() time.Duration {
	if t.ConnectStart.IsZero() || t.ConnectEnd.IsZero() {
		return 0
	}
	return t.ConnectEnd.Sub(t.ConnectStart)
}

// DOMInteractive is the time from DNS start to DOMContentLoaded.
func (t Timing) DOMInteractive() time.Duration {
	if t.DNSStart.IsZero() || t.DOMContentLoaded.IsZero() {
		return 0
	}
	return t.DOMContentLoaded.Sub(t.DNSStart)
}

// Total is the time from DNS start to LoadComplete.
func (t Timing) Total() time.Duration {
	if t.DNSStart.IsZero() || t.LoadComplete.IsZero() {
		return 0
	}
	return t.LoadComplete.Sub(t.DNSStart)
}

// Entry is a single history entry: the navigable URL plus its state
// machine and timing.
type Entry struct {
	URL    string
	State  State
	Timing Timing
}

// Controller holds one tab's history vector and current index.
type Controller struct {
	entries []*Entry
	current int // index into entries; -1 when empty
	log     *zap.Logger
}

// New returns an empty Controller.
func New(log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{current: -1, log: log}
}

// Current returns the entry at the current index, or nil if the
// controller has no history yet.
func (c *Controller) Current() *Entry {
	if c.current < 0 || c.current >= len(c.entries) {
		return nil
	}
	return c.entries[c.current]
}

// Entries returns a read-only snapshot of the full history vector.
func (c *Controller) Entries() []*Entry {
	out := make([]*Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// CurrentIndex returns the index of the current entry (-1 if empty).
func (c *Controller) CurrentIndex() int { return c.current }

// Navigate truncates any forward history beyond the current entry,
// appends a new Started entry for url, and starts its timing clock.
func (c *Controller) Navigate(url string) *Entry {
	if c.current >= 0 && c.current < len(c.entries)-1 {
		c.entries = c.entries[:c.current+1]
	}
	e := &Entry{URL: url, State: Started, Timing: Timing{DNSStart: time.Now()}}
	c.entries = append(c.entries, e)
	c.current = len(c.entries) - 1
	c.log.Info("navigation: started", zap.String("url", url), zap.Int("index", c.current))
	return e
}

// Transition moves the current entry's state machine forward. It
// fails with ErrIllegalTransition if the move isn't one of the
// declared monotonic edges.
func (c *Controller) Transition(to State) error {
	e := c.Current()
	if e == nil {
		return errors.New("navigation: no current entry")
	}
	if !e.State.canTransitionTo(to) {
		return ErrIllegalTransition
	}
	from := e.State
	e.State = to
	c.stampTiming(e, to)
	c.log.Debug("navigation: state transition",
		zap.String("url", e.URL), zap.String("from", from.String()), zap.String("to", to.String()))
	return nil
}

// stampTiming records the timestamp for whichever milestone a
// transition into `to` represents.
func (c *Controller) stampTiming(e *Entry, to State) {
	now := time.Now()
	switch to {
	case Redirecting:
		if e.Timing.ConnectStart.IsZero() {
			e.Timing.ConnectStart = now
		}
	case Receiving:
		if e.Timing.ConnectEnd.IsZero() {
			e.Timing.ConnectEnd = now
		}
		if e.Timing.DNSEnd.IsZero() {
			e.Timing.DNSEnd = now
		}
		e.Timing.ResponseStart = now
	case Processing:
		e.Timing.ResponseEnd = now
		e.Timing.DOMContentLoaded = now
	case Complete:
		e.Timing.LoadComplete = now
	}
}

// GoBack moves the current index back by one, without discarding any
// forward entries. It returns the entry now current, or nil if
// already at the start of history.
func (c *Controller) GoBack() *Entry {
	if c.current <= 0 {
		return nil
	}
	c.current--
	e := c.entries[c.current]
	c.log.Info("navigation: back", zap.String("url", e.URL), zap.Int("index", c.current))
	return e
}

// GoForward moves the current index forward by one, returning the
// entry now current, or nil if already at the end of history.
func (c *Controller) GoForward() *Entry {
	if c.current < 0 || c.current >= len(c.entries)-1 {
		return nil
	}
	c.current++
	e := c.entries[c.current]
	c.log.Info("navigation: forward", zap.String("url", e.URL), zap.Int("index", c.current))
	return e
}

// CanGoBack reports whether GoBack would move the index.
func (c *Controller) CanGoBack() bool { return c.current > 0 }

// CanGoForward reports whether GoForward would move the index.
func (c *Controller) CanGoForward() bool { return c.current >= 0 && c.current < len(c.entries)-1 }
