package layout

import "webcore/internal/fixed"

// Engine owns the solution cache and dispatches each layout request to
// the formatting context implied by the node's display type, caching
// the result under a ConstraintKey so repeated layout passes at the
// same constraints (e.g. re-layout after an unrelated subtree's
// mutation) are served from cache instead of recomputed.
type Engine struct {
	cache   *SolutionCache
	measure Measurer
}

// NewEngine creates a layout Engine with the given cache capacity (see
// NewSolutionCache) and an optional text Measurer (nil falls back to a
// fixed per-character advance).
func NewEngine(cacheCapacity int, measure Measurer) *Engine {
	return &Engine{cache: NewSolutionCache(cacheCapacity), measure: measure}
}

// Layout resolves node's box for the given node identity and
// available width, serving a cached solution when one exists for the
// identical ConstraintKey.
func (e *Engine) Layout(nodeID uint64, node *Node, availableWidth fixed.Q16) *Box {
	key := NewConstraintKey(nodeID, availableWidth, fixed.FromInt(0), node.Style.Display)
	if cached, ok := e.cache.Get(key); ok {
		return cached
	}
	box := e.layoutDispatch(node, availableWidth)
	e.cache.Put(key, box)
	return box
}

func (e *Engine) layoutDispatch(node *Node, availableWidth fixed.Q16) *Box {
	switch node.Style.Display {
	case DisplayFlex:
		return LayoutFlex(node, availableWidth)
	case DisplayInline, DisplayInlineBlock:
		return LayoutInline(node, availableWidth, e.measure)
	case DisplayNone:
		return &Box{}
	default:
		return LayoutBlock(node, availableWidth)
	}
}

// Invalidate drops every cached solution rooted at nodeID.
func (e *Engine) Invalidate(nodeID uint64) { e.cache.Invalidate(nodeID) }
