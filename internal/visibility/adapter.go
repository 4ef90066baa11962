package visibility

import (
	"webcore/internal/fixed"
	"webcore/internal/layout"
)

// LayoutBoxNode adapts a *layout.Box (whose X/Y are parent-relative,
// per the layout package's convention) to the BoxNode interface Cull
// walks.
type LayoutBoxNode struct {
	Box *layout.Box
}

func (n LayoutBoxNode) Origin() (fixed.Q16, fixed.Q16) { return n.Box.X, n.Box.Y }
func (n LayoutBoxNode) Size() (fixed.Q16, fixed.Q16)   { return n.Box.Width, n.Box.Height }
func (n LayoutBoxNode) ID() uint64                     { return n.Box.NodeID }

func (n LayoutBoxNode) Kids() []BoxNode {
	kids := make([]BoxNode, len(n.Box.Children))
	for i, c := range n.Box.Children {
		kids[i] = LayoutBoxNode{Box: c}
	}
	return kids
}

// CullLayoutBox is a convenience wrapper: walks a *layout.Box tree
// rooted at (rootX, rootY) in document space.
func CullLayoutBox(root *layout.Box, rootX, rootY fixed.Q16, vp Viewport) []ElementVisibility {
	return Cull(LayoutBoxNode{Box: root}, rootX, rootY, vp)
}
