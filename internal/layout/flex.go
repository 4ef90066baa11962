package layout

import "webcore/internal/fixed"

type flexItem struct {
	node     *Node
	basis    fixed.Q16
	grow     fixed.Q16
	shrink   fixed.Q16
	hasMin   bool
	min      fixed.Q16
	hasMax   bool
	max      fixed.Q16
	mainSize fixed.Q16
	frozen   bool
	box      *Box
}

// LayoutFlex lays out node's children along the main axis using the
// single-line flexible-box algorithm: resolve each item's flex basis,
// distribute remaining free space by flex-grow (or flex-shrink if
// over-constrained), then position items left to right (row) or top
// to bottom (column).
//
// Grounded on pkg/layout/layout_flex.go's basis/grow/shrink resolution
// (createFlexItemsProper + the grow/shrink distribution loop),
// simplified to a single line without wrap/align-content — spec §4.E
// names basis/grow/shrink resolution as the required behavior and
// scopes multi-line wrapping out.
func LayoutFlex(node *Node, availableWidth fixed.Q16) *Box {
	box := &Box{
		NodeID:  node.NodeID,
		Margin:  node.Style.Margin,
		Padding: node.Style.Padding,
		Border:  node.Style.Border,
	}
	isRow := node.Style.FlexDirection == FlexRow || node.Style.FlexDirection == FlexRowReverse
	reverse := node.Style.FlexDirection == FlexRowReverse || node.Style.FlexDirection == FlexColumnReverse

	mainSize := availableWidth
	if !isRow && node.Style.HasHeight {
		mainSize = node.Style.Height
	}
	box.Width = availableWidth

	items := make([]*flexItem, 0, len(node.Children))
	var totalBasis fixed.Q16
	for _, c := range node.Children {
		var basis fixed.Q16
		switch {
		case c.Style.HasFlexBasis && !c.Style.FlexBasisAuto:
			basis = c.Style.FlexBasis
		case c.Style.HasWidth && isRow:
			basis = c.Style.Width
		default:
			basis = intrinsicMainSize(c, isRow)
		}
		it := &flexItem{
			node:   c,
			basis:  basis,
			grow:   c.Style.FlexGrow,
			shrink: c.Style.FlexShrink,
			hasMin: c.Style.HasMinMainSize,
			min:    c.Style.MinMainSize,
			hasMax: c.Style.HasMaxMainSize,
			max:    c.Style.MaxMainSize,
		}
		items = append(items, it)
		totalBasis = totalBasis.Add(basis)
	}

	freeSpace := mainSize.Sub(totalBasis)
	zero := fixed.FromInt(0)

	switch {
	case freeSpace > zero:
		distributeMain(items, freeSpace, true)
	case freeSpace < zero:
		distributeMain(items, freeSpace, false)
	default:
		for _, it := range items {
			it.mainSize = it.basis
			if clamped, size := clampMainSize(it); clamped {
				it.mainSize = size
			}
		}
	}

	order := items
	if reverse {
		order = make([]*flexItem, len(items))
		for i, it := range items {
			order[len(items)-1-i] = it
		}
	}

	cursor := zero
	var crossMax fixed.Q16
	for _, it := range order {
		var childBox *Box
		if isRow {
			childBox = layoutChild(it.node, it.mainSize)
			childBox.Width = it.mainSize
			childBox.X = cursor
			childBox.Y = zero
			cursor = cursor.Add(it.mainSize)
		} else {
			childBox = layoutChild(it.node, availableWidth)
			childBox.Height = it.mainSize
			childBox.Y = cursor
			childBox.X = zero
			cursor = cursor.Add(it.mainSize)
		}
		it.box = childBox
		box.Children = append(box.Children, childBox)
		if isRow && childBox.Height > crossMax {
			crossMax = childBox.Height
		}
		if !isRow && childBox.Width > crossMax {
			crossMax = childBox.Width
		}
	}

	if isRow {
		if node.Style.HasHeight {
			box.Height = node.Style.Height
		} else {
			box.Height = crossMax
		}
	} else {
		box.Height = cursor
		if !node.Style.HasWidth {
			box.Width = crossMax
		}
	}
	return box
}

// distributeMain assigns each item's mainSize from its basis plus a
// weighted share of freeSpace (grow weighted by flex-grow, shrink
// weighted by flex-shrink*basis), then clamps against min/max. An item
// that clamps freezes at its clamped size and drops out of the weight
// pool; the space its clamp consumed or released is subtracted from
// freeSpace before the remaining unfrozen items are redistributed
// across. Each iteration either freezes at least one more item or
// leaves nothing left to freeze, so the loop runs at most len(items)
// times.
func distributeMain(items []*flexItem, freeSpace fixed.Q16, grow bool) {
	zero := fixed.FromInt(0)
	for _, it := range items {
		it.frozen = false
	}
	remaining := freeSpace
	for iter := 0; iter < len(items); iter++ {
		var totalWeight fixed.Q16
		active := 0
		for _, it := range items {
			if it.frozen {
				continue
			}
			active++
			if grow {
				totalWeight = totalWeight.Add(it.grow)
			} else {
				totalWeight = totalWeight.Add(it.shrink.Mul(it.basis))
			}
		}
		if active == 0 {
			return
		}

		frozeAny := false
		for _, it := range items {
			if it.frozen {
				continue
			}
			it.mainSize = it.basis
			if totalWeight > zero {
				var share fixed.Q16
				if grow {
					share = it.grow.Div(totalWeight)
				} else {
					share = it.shrink.Mul(it.basis).Div(totalWeight)
				}
				it.mainSize = it.mainSize.Add(share.Mul(remaining))
			}
			if !grow && it.mainSize < zero {
				it.mainSize = zero
			}
			if clamped, size := clampMainSize(it); clamped {
				it.mainSize = size
				it.frozen = true
				frozeAny = true
			}
		}
		if !frozeAny {
			return
		}

		var consumed fixed.Q16
		for _, it := range items {
			if it.frozen {
				consumed = consumed.Add(it.mainSize.Sub(it.basis))
			}
		}
		remaining = freeSpace.Sub(consumed)
	}
}

// clampMainSize reports whether it.mainSize falls outside it.min/max
// and, if so, the clamped replacement.
func clampMainSize(it *flexItem) (bool, fixed.Q16) {
	size := it.mainSize
	clamped := false
	if it.hasMin && size < it.min {
		size = it.min
		clamped = true
	}
	if it.hasMax && size > it.max {
		size = it.max
		clamped = true
	}
	return clamped, size
}

// intrinsicMainSize estimates an item's flex-basis when none is
// specified: for row layout this is the item's own laid-out width
// at zero available width (a conservative stand-in for true
// min/max-content measurement, which spec §4.E scopes to a future
// component).
func intrinsicMainSize(n *Node, isRow bool) fixed.Q16 {
	b := layoutChild(n, fixed.FromInt(0))
	if isRow {
		return b.Width
	}
	return b.Height
}
