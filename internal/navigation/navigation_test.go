package navigation

import "testing"

// TestHistoryBackForwardAndTruncation is spec's concrete scenario S7:
// navigate A -> B -> C, go_back yields B, go_forward yields C,
// navigate D after go_back truncates forward history (C becomes
// unreachable).
func TestHistoryBackForwardAndTruncation(t *testing.T) {
	c := New(nil)
	c.Navigate("https://a")
	c.Navigate("https://b")
	c.Navigate("https://c")

	back := c.GoBack()
	if back == nil || back.URL != "https://b" {
		t.Fatalf("expected go_back to yield b, got %+v", back)
	}

	fwd := c.GoForward()
	if fwd == nil || fwd.URL != "https://c" {
		t.Fatalf("expected go_forward to yield c, got %+v", fwd)
	}

	c.GoBack() // back to b
	c.Navigate("https://d")

	if c.CanGoForward() {
		t.Fatalf("expected forward history (c) to be truncated after navigating to d")
	}
	entries := c.Entries()
	for _, e := range entries {
		if e.URL == "https://c" {
			t.Fatalf("expected c to become unreachable, but found it in history: %+v", entries)
		}
	}
	if len(entries) != 3 { // a, b, d
		t.Fatalf("expected 3 entries (a,b,d) after truncation, got %d: %+v", len(entries), entries)
	}
}

func TestGoBackAtStartReturnsNil(t *testing.T) {
	c := New(nil)
	c.Navigate("https://a")
	if c.GoBack() != nil {
		t.Fatalf("expected GoBack to return nil with no prior entry")
	}
}

func TestGoForwardAtEndReturnsNil(t *testing.T) {
	c := New(nil)
	c.Navigate("https://a")
	if c.GoForward() != nil {
		t.Fatalf("expected GoForward to return nil with no next entry")
	}
}

func TestTransitionFollowsDeclaredStateMachine(t *testing.T) {
	c := New(nil)
	c.Navigate("https://a")

	if err := c.Transition(Receiving); err != nil {
		t.Fatalf("Started -> Receiving should be legal: %v", err)
	}
	if err := c.Transition(Processing); err != nil {
		t.Fatalf("Receiving -> Processing should be legal: %v", err)
	}
	if err := c.Transition(Complete); err != nil {
		t.Fatalf("Processing -> Complete should be legal: %v", err)
	}
	if err := c.Transition(Started); err != ErrIllegalTransition {
		t.Fatalf("expected ErrIllegalTransition moving backward from Complete, got %v", err)
	}
}

func TestTransitionRejectsSkippingToProcessingFromStarted(t *testing.T) {
	c := New(nil)
	c.Navigate("https://a")
	if err := c.Transition(Processing); err != ErrIllegalTransition {
		t.Fatalf("expected Started -> Processing to be illegal, got %v", err)
	}
}

func TestNavigateAfterSingleBackTruncatesForwardEntry(t *testing.T) {
	c := New(nil)
	c.Navigate("https://a")
	c.Navigate("https://b")
	c.GoBack()
	c.Navigate("https://c")

	entries := c.Entries()
	if len(entries) != 2 || entries[0].URL != "https://a" || entries[1].URL != "https://c" {
		t.Fatalf("expected [a, c] after navigating from a back-to index, got %+v", entries)
	}
}

func TestDerivedTimingMetrics(t *testing.T) {
	c := New(nil)
	e := c.Navigate("https://a")
	_ = c.Transition(Receiving)
	_ = c.Transition(Processing)
	_ = c.Transition(Complete)

	if e.Timing.Total() <= 0 {
		t.Fatalf("expected a positive total duration once Complete, got %v", e.Timing.Total())
	}
	if e.Timing.TTFB() < 0 {
		t.Fatalf("TTFB should never be negative, got %v", e.Timing.TTFB())
	}
}

func TestInFlightEntryHasZeroDerivedMetrics(t *testing.T) {
	c := New(nil)
	e := c.Navigate("https://a")
	if e.Timing.Total() != 0 {
		t.Fatalf("expected zero total duration for a still-in-flight entry, got %v", e.Timing.Total())
	}
}
