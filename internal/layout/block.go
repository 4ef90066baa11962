package layout

import "webcore/internal/fixed"

// LayoutBlock lays out node's children in a block formatting context:
// stacked vertically, each child's width resolved against the
// available content width, with adjoining vertical margins collapsed.
//
// Grounded on pkg/layout/layout_block.go's vertical-stacking walk and
// pkg/layout/margins.go's collapseMargins (max of two positives, min
// of two negatives, sum when mixed), simplified from the teacher's
// full collapse-through/float/absolute-position handling to the
// adjoining-sibling-margin case spec §4.E names explicitly.
func LayoutBlock(node *Node, availableWidth fixed.Q16) *Box {
	box := &Box{
		NodeID:  node.NodeID,
		Margin:  node.Style.Margin,
		Padding: node.Style.Padding,
		Border:  node.Style.Border,
	}
	contentWidth := availableWidth
	if node.Style.HasWidth {
		contentWidth = node.Style.Width
	} else {
		contentWidth = availableWidth.Sub(node.Style.Margin.Left).Sub(node.Style.Margin.Right)
		contentWidth = shrinkByEdges(contentWidth, node.Style.Padding, node.Style.Border)
	}
	box.Width = contentWidth

	cursorY := fixed.FromInt(0)
	var prevMarginBottom fixed.Q16
	havePrev := false

	for _, child := range node.Children {
		childBox := layoutChild(child, contentWidth)

		top := child.Style.Margin.Top
		if havePrev {
			top = collapseMargins(prevMarginBottom, top)
			cursorY = cursorY.Sub(prevMarginBottom)
		}
		childBox.Y = cursorY.Add(top)
		childBox.X = fixed.FromInt(0)

		cursorY = childBox.Y.Add(childBox.Height)
		cursorY = cursorY.Add(child.Style.Margin.Bottom)
		prevMarginBottom = child.Style.Margin.Bottom
		havePrev = true

		box.Children = append(box.Children, childBox)
	}

	if node.Style.HasHeight {
		box.Height = node.Style.Height
	} else {
		box.Height = cursorY
	}
	return box
}

// layoutChild dispatches to the formatting context implied by child's
// own display type.
func layoutChild(child *Node, availableWidth fixed.Q16) *Box {
	switch child.Style.Display {
	case DisplayFlex:
		return LayoutFlex(child, availableWidth)
	case DisplayInline, DisplayInlineBlock:
		return LayoutInline(child, availableWidth, nil)
	default:
		return LayoutBlock(child, availableWidth)
	}
}

// collapseMargins returns the collapsed value of two adjoining
// vertical margins per CSS 2.1 §8.3.1: both positive => max, both
// negative => most negative, mixed => sum.
func collapseMargins(a, b fixed.Q16) fixed.Q16 {
	zero := fixed.FromInt(0)
	aNeg := a < zero
	bNeg := b < zero
	switch {
	case !aNeg && !bNeg:
		if a > b {
			return a
		}
		return b
	case aNeg && bNeg:
		if a < b {
			return a
		}
		return b
	default:
		return a.Add(b)
	}
}

func shrinkByEdges(size fixed.Q16, edges ...Edge) fixed.Q16 {
	for _, e := range edges {
		size = size.Sub(e.Left)
		size = size.Sub(e.Right)
	}
	return size
}
