// Package layout implements the block, inline, and flex formatting
// contexts described in spec §4.E, operating over fixed-point (Q16.16)
// geometry so that repeated layout passes over the same constraints are
// bit-for-bit reproducible and therefore safely cacheable.
//
// Grounded on the teacher's pkg/layout package (Box/ConstraintSpace
// shape, margin collapsing in margins.go, the flex basis/grow/shrink
// algorithm in layout_flex.go), adapted from a float64 pointer-tree Box
// walked directly over *html.Node/*css.Style to a value-oriented tree
// over fixed-point geometry keyed for the constraint cache described in
// spec §3 ("layout solutions are cached by a constraint key that
// embeds float bit patterns for associativity").
package layout

import "webcore/internal/fixed"

// Display is the outer/inner display type that selects a formatting
// context for a node's children.
type Display int

const (
	DisplayBlock Display = iota
	DisplayInline
	DisplayInlineBlock
	DisplayFlex
	DisplayNone
)

// FlexDirection mirrors the CSS flex-direction property. LayoutFlex
// runs the same main-axis arithmetic for every direction: Row uses the
// available width as the main size, Column uses Style.Height when set
// (otherwise the available width), and the Reverse variants reverse
// item order.
type FlexDirection int

const (
	FlexRow FlexDirection = iota
	FlexRowReverse
	FlexColumn
	FlexColumnReverse
)

// Edge holds four fixed-point edge measurements (margin/padding/border).
type Edge struct {
	Top, Right, Bottom, Left fixed.Q16
}

// Style is the subset of computed style layout needs. It is produced
// externally (by a cascade step, as in the teacher's pkg/css) and
// passed in alongside the node tree rather than computed here.
type Style struct {
	Display       Display
	Width, Height fixed.Q16 // used only when HasWidth/HasHeight is set; otherwise "auto"
	HasWidth      bool
	HasHeight     bool
	Margin        Edge
	Padding       Edge
	Border        Edge

	FlexDirection  FlexDirection
	FlexGrow       fixed.Q16
	FlexShrink     fixed.Q16
	FlexBasis      fixed.Q16
	HasFlexBasis   bool
	FlexBasisAuto  bool

	MinMainSize    fixed.Q16 // resolved min-width (row) or min-height (column)
	HasMinMainSize bool
	MaxMainSize    fixed.Q16 // resolved max-width (row) or max-height (column)
	HasMaxMainSize bool
}

// Node is one element in the layout input tree: a style plus children
// (for inline content, Text holds the run to be measured and broken
// into line boxes).
type Node struct {
	NodeID   uint64 // domstore.NodeId of the originating element, for visibility/paint correlation
	Style    Style
	Text     string
	Children []*Node
}

// Box is the positioned output of layout: fixed-point origin and
// content-box size, plus the resolved edges and any child boxes/line
// boxes produced while laying this node out.
type Box struct {
	NodeID        uint64
	X, Y          fixed.Q16
	Width, Height fixed.Q16
	Margin        Edge
	Padding       Edge
	Border        Edge
	Children      []*Box
	LineBoxes     []*LineBox
}

// LineBox is one line of inline content: its baseline-relative geometry
// plus the runs (words/atomics) placed on it.
type LineBox struct {
	X, Y   fixed.Q16
	Width  fixed.Q16
	Height fixed.Q16
	Runs   []InlineRun
}

// InlineRun is one measured, positioned piece of text within a line box.
type InlineRun struct {
	Text  string
	X     fixed.Q16
	Width fixed.Q16
}

// ConstraintKey is the cache key for a layout solution: a node
// identity plus the constraints it was solved under. Float inputs
// (AvailableWidth) are embedded via their raw bit pattern (fixed.Q16.
// Bits()) rather than the Q16 value itself so that two numerically
// equal-but-differently-derived constraints hash identically, per
// spec's note that cache keys must be "associative" over bit-identical
// fixed-point inputs.
type ConstraintKey struct {
	NodeID         uint64
	AvailableWidth int32 // fixed.Q16.Bits()
	AvailableHeight int32
	Context        Display
}

// NewConstraintKey builds a ConstraintKey from live constraint values.
func NewConstraintKey(nodeID uint64, availableWidth, availableHeight fixed.Q16, ctx Display) ConstraintKey {
	return ConstraintKey{
		NodeID:          nodeID,
		AvailableWidth:  availableWidth.Bits(),
		AvailableHeight: availableHeight.Bits(),
		Context:         ctx,
	}
}
