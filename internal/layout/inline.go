package layout

import (
	"strings"

	"webcore/internal/fixed"
)

// Measurer returns the advance width of a run of text, typically
// backed by internal/glyphatlas once a font is selected. LayoutInline
// falls back to a fixed per-character advance when measure is nil, so
// layout can be exercised (and tested) without a real font loaded.
type Measurer func(text string) fixed.Q16

var fallbackAdvance = fixed.FromInt(8)

func measureFallback(text string) fixed.Q16 {
	n := len([]rune(text))
	return fixed.FromInt(n).Mul(fallbackAdvance)
}

// LayoutInline lays out node's text content as a sequence of line
// boxes, greedily packing words until one would overflow
// availableWidth, then wrapping. Grounded on pkg/layout/
// layout_inline_multipass.go's line-breaking shape (collect items,
// break into lines, position runs), simplified to plain greedy
// word-wrap: spec §4.E scopes bidi/shaping out of this component.
func LayoutInline(node *Node, availableWidth fixed.Q16, measure Measurer) *Box {
	if measure == nil {
		measure = measureFallback
	}
	box := &Box{
		NodeID:  node.NodeID,
		Width:   availableWidth,
		Margin:  node.Style.Margin,
		Padding: node.Style.Padding,
		Border:  node.Style.Border,
	}

	words := strings.Fields(node.Text)
	if len(words) == 0 {
		box.Height = fixed.FromInt(0)
		return box
	}

	lineHeight := fixed.FromInt(16)
	spaceWidth := measure(" ")

	var lines []*LineBox
	cur := &LineBox{Width: availableWidth, Height: lineHeight}
	cursorX := fixed.FromInt(0)

	flushLine := func() {
		if len(cur.Runs) > 0 {
			lines = append(lines, cur)
		}
	}

	for _, w := range words {
		wWidth := measure(w)
		needed := wWidth
		if len(cur.Runs) > 0 {
			needed = cursorX.Add(spaceWidth).Add(wWidth)
		}
		if len(cur.Runs) > 0 && needed > availableWidth {
			flushLine()
			cur = &LineBox{Width: availableWidth, Height: lineHeight}
			cursorX = fixed.FromInt(0)
		}
		if len(cur.Runs) > 0 {
			cursorX = cursorX.Add(spaceWidth)
		}
		cur.Runs = append(cur.Runs, InlineRun{Text: w, X: cursorX, Width: wWidth})
		cursorX = cursorX.Add(wWidth)
	}
	flushLine()

	for i, l := range lines {
		l.Y = fixed.FromInt(i).Mul(lineHeight)
	}
	box.LineBoxes = lines
	box.Height = fixed.FromInt(len(lines)).Mul(lineHeight)
	return box
}
