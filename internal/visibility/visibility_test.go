package visibility

import (
	"testing"

	"webcore/internal/fixed"
	"webcore/internal/layout"
)

func q(n int) fixed.Q16 { return fixed.FromInt(n) }

func TestClassifyFullyVisible(t *testing.T) {
	vp := Viewport{Rect: Rect{X: q(0), Y: q(0), Width: q(100), Height: q(100)}}
	bounds := Rect{X: q(10), Y: q(10), Width: q(20), Height: q(20)}
	if classify(bounds, vp) != FullyVisible {
		t.Fatalf("expected fully visible")
	}
}

func TestClassifyHiddenOutsideViewport(t *testing.T) {
	vp := Viewport{Rect: Rect{X: q(0), Y: q(0), Width: q(100), Height: q(100)}}
	bounds := Rect{X: q(200), Y: q(200), Width: q(20), Height: q(20)}
	if classify(bounds, vp) != Hidden {
		t.Fatalf("expected hidden")
	}
}

func TestClassifyPartiallyVisible(t *testing.T) {
	vp := Viewport{Rect: Rect{X: q(0), Y: q(0), Width: q(100), Height: q(100)}}
	bounds := Rect{X: q(90), Y: q(90), Width: q(20), Height: q(20)}
	if classify(bounds, vp) != PartiallyVisible {
		t.Fatalf("expected partially visible")
	}
}

func TestCullWalksEntireTreeIncludingHidden(t *testing.T) {
	root := &layout.Box{NodeID: 1, Width: q(50), Height: q(50), Children: []*layout.Box{
		{NodeID: 2, X: q(0), Y: q(0), Width: q(10), Height: q(10)},
		{NodeID: 3, X: q(500), Y: q(500), Width: q(10), Height: q(10)},
	}}
	vp := Viewport{Rect: Rect{X: q(0), Y: q(0), Width: q(100), Height: q(100)}}
	all := CullLayoutBox(root, q(0), q(0), vp)
	if len(all) != 3 {
		t.Fatalf("expected 3 entries (including hidden), got %d", len(all))
	}

	paintable := Paintable(all)
	for _, p := range paintable {
		if p.NodeID == 3 {
			t.Fatalf("node 3 is off-screen and should not be paintable")
		}
	}
	if len(paintable) != 2 {
		t.Fatalf("expected 2 paintable elements, got %d", len(paintable))
	}
}

func TestViewportMarginExpandsHitTest(t *testing.T) {
	root := &layout.Box{NodeID: 1, X: q(150), Y: q(0), Width: q(10), Height: q(10)}
	vpNoMargin := Viewport{Rect: Rect{X: q(0), Y: q(0), Width: q(100), Height: q(100)}}
	if classify(Rect{X: q(150), Y: q(0), Width: q(10), Height: q(10)}, vpNoMargin) != Hidden {
		t.Fatalf("expected hidden without margin")
	}
	vpMargin := Viewport{Rect: vpNoMargin.Rect, Margin: q(100)}
	all := CullLayoutBox(root, q(150), q(0), vpMargin)
	if all[0].State == Hidden {
		t.Fatalf("expected margin-expanded viewport to catch near-offscreen element")
	}
}
