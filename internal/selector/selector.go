// Package selector implements CSS selector matching over the arena-based
// DOM in internal/domstore. Parsed selector shapes (Selector,
// SelectorPart, CombinatorType, AttributeSelector) generalize the
// teacher's pkg/css Selector/SelectorPart types to a full compound-part
// chain with attribute selectors, while the exact-match walk is
// grounded on pkg/css/matcher.go's ancestor-chasing MatchesSelector,
// extended from single-part matching to the full combinator chain.
//
// Matching is prefiltered by a Bloom filter (see bloom.go) per spec:
// a rule's filter is built from every simple selector that could
// possibly anchor a match, so MightMatch never produces a false
// negative, only occasional false positives that fall through to the
// exact walk.
package selector

// CombinatorType is the relationship between two adjacent compound
// selector parts.
type CombinatorType int

const (
	// Descendant is a plain space: "a b" matches b anywhere under a.
	Descendant CombinatorType = iota
	// Child is ">": "a > b" matches b as a direct child of a.
	Child
	// AdjacentSibling is "+": "a + b" matches b immediately following a.
	AdjacentSibling
	// GeneralSibling is "~": "a ~ b" matches b anywhere after a among siblings.
	GeneralSibling
)

// AttributeOp is the comparison used by an attribute selector.
type AttributeOp int

const (
	AttrPresent    AttributeOp = iota // [attr]
	AttrEquals                       // [attr=val]
	AttrIncludes                     // [attr~=val] (space-separated token match)
	AttrPrefix                       // [attr^=val]
	AttrSuffix                       // [attr$=val]
	AttrSubstring                    // [attr*=val]
)

// AttributeSelector matches a single attribute constraint.
type AttributeSelector struct {
	Name  string
	Op    AttributeOp
	Value string
}

// SelectorPart is one compound simple-selector (tag + id + classes +
// attribute selectors + pseudo-classes), e.g. "div.card#hero[data-x]".
type SelectorPart struct {
	Tag           string // "" means no tag constraint (implicit "*")
	ID            string // "" means no id constraint
	Classes       []string
	Attrs         []AttributeSelector
	PseudoClasses []string // recorded for specificity; a part with any pseudo-class never matches statically
}

// Selector is a compound-part chain joined by combinators, outermost
// part first ("a b > c" => Parts=[a,b,c], Combinators=[Descendant,Child]).
type Selector struct {
	Raw           string
	Parts         []SelectorPart
	Combinators   []CombinatorType // len(Combinators) == len(Parts)-1
	Specificity   int
	PseudoElement string // "before", "after", "" if none
}

// ComputeSpecificity derives the (id, class-ish, tag) triple packed
// into a single int per the teacher's convention: ids weigh 100,
// classes/attrs/pseudo-classes weigh 10, tags weigh 1.
func ComputeSpecificity(sel *Selector) int {
	spec := 0
	for _, p := range sel.Parts {
		if p.ID != "" {
			spec += 100
		}
		spec += len(p.Classes) * 10
		spec += len(p.Attrs) * 10
		spec += len(p.PseudoClasses) * 10
		if p.Tag != "" {
			spec++
		}
	}
	return spec
}

// Last returns the rightmost (subject) compound part, the one actually
// tested against the candidate element before any combinator walk.
func (s *Selector) Last() *SelectorPart {
	if len(s.Parts) == 0 {
		return nil
	}
	return &s.Parts[len(s.Parts)-1]
}
