// Package visibility implements viewport culling and intersection
// tracking over a laid-out box tree, per spec §4.F: painting is
// restricted to the elements that intersect the viewport, while
// layout itself is retained for every element so intersection
// observers keep working on elements currently scrolled out of view.
//
// Grounded on the teacher's pkg/layout/stacking.go (StackingContext's
// recursive box-tree walk, z-index bucketing by sign), adapted from
// z-ordering to viewport-intersection classification: the traversal
// shape carries over, the question asked at each box does not.
package visibility

import "webcore/internal/fixed"

// Rect is an axis-aligned fixed-point rectangle in document space.
type Rect struct {
	X, Y, Width, Height fixed.Q16
}

// Intersects reports whether r and other overlap (touching edges do
// not count as overlap).
func (r Rect) Intersects(other Rect) bool {
	if r.Width <= 0 || r.Height <= 0 || other.Width <= 0 || other.Height <= 0 {
		return false
	}
	rRight := r.X.Add(r.Width)
	rBottom := r.Y.Add(r.Height)
	oRight := other.X.Add(other.Width)
	oBottom := other.Y.Add(other.Height)
	if rRight <= other.X || oRight <= r.X {
		return false
	}
	if rBottom <= other.Y || oBottom <= r.Y {
		return false
	}
	return true
}

// Contains reports whether r fully contains other.
func (r Rect) Contains(other Rect) bool {
	rRight := r.X.Add(r.Width)
	rBottom := r.Y.Add(r.Height)
	oRight := other.X.Add(other.Width)
	oBottom := other.Y.Add(other.Height)
	return other.X >= r.X && other.Y >= r.Y && oRight <= rRight && oBottom <= rBottom
}

// VisibilityState classifies an element's relationship to the
// viewport.
type VisibilityState int

const (
	Hidden VisibilityState = iota
	PartiallyVisible
	FullyVisible
)

// ElementVisibility is the culler's verdict for one element.
type ElementVisibility struct {
	NodeID uint64
	Bounds Rect
	State  VisibilityState
}

// BoxNode is the minimal shape the culler walks: a positioned
// rectangle (relative to its parent's origin), an owning element id,
// and children. internal/layout.Box satisfies this shape via the
// adapter in adapter.go.
type BoxNode interface {
	Origin() (fixed.Q16, fixed.Q16)
	Size() (fixed.Q16, fixed.Q16)
	ID() uint64
	Kids() []BoxNode
}

// Viewport is the visible document-space rectangle; Margin expands it
// for "near viewport" pre-fetch style culling (set to zero for exact
// viewport culling).
type Viewport struct {
	Rect   Rect
	Margin fixed.Q16
}

func (v Viewport) expanded() Rect {
	m := v.Margin
	return Rect{
		X:      v.Rect.X.Sub(m),
		Y:      v.Rect.Y.Sub(m),
		Width:  v.Rect.Width.Add(m).Add(m),
		Height: v.Rect.Height.Add(m).Add(m),
	}
}

// Cull walks root (whose origin is the document-space position of the
// root box) and returns the visibility verdict for every element,
// including hidden ones — intersection observers and future-scroll
// pre-culling both need the full list, only painting filters it down
// to State != Hidden.
func Cull(root BoxNode, rootX, rootY fixed.Q16, vp Viewport) []ElementVisibility {
	var out []ElementVisibility
	walk(root, rootX, rootY, vp, &out)
	return out
}

func walk(b BoxNode, absX, absY fixed.Q16, vp Viewport, out *[]ElementVisibility) {
	w, h := b.Size()
	bounds := Rect{X: absX, Y: absY, Width: w, Height: h}
	state := classify(bounds, vp)
	*out = append(*out, ElementVisibility{NodeID: b.ID(), Bounds: bounds, State: state})

	for _, child := range b.Kids() {
		cx, cy := child.Origin()
		walk(child, absX.Add(cx), absY.Add(cy), vp, out)
	}
}

func classify(bounds Rect, vp Viewport) VisibilityState {
	view := vp.expanded()
	if !view.Intersects(bounds) {
		return Hidden
	}
	if view.Contains(bounds) {
		return FullyVisible
	}
	return PartiallyVisible
}

// Paintable filters a Cull result down to the elements that should
// actually be rasterized this frame.
func Paintable(all []ElementVisibility) []ElementVisibility {
	out := make([]ElementVisibility, 0, len(all))
	for _, e := range all {
		if e.State != Hidden {
			out = append(out, e)
		}
	}
	return out
}
