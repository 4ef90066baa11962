package selector

import (
	"strings"

	"webcore/internal/domstore"
)

// CompiledRule pairs a parsed Selector with the Bloom filter built from
// every simple part in its chain, plus the document-order index used
// to break specificity ties (later rule wins, per cascade order).
type CompiledRule struct {
	Selector    Selector
	Filter      Filter
	Order       int
	Specificity int
}

// Matcher holds a stylesheet's compiled rules and resolves them against
// nodes in a domstore.Store. One Matcher is built per stylesheet (or
// merged stylesheet set) and reused across every element in the
// document, since rule compilation is the expensive part.
//
// Grounded on pkg/css/matcher.go's MatchesSelector/FindMatchingRules
// shape (iterate rules, test a selector against a node), generalized
// from a single SelectorType compare to the full compound/combinator
// chain and Bloom-prefiltered lookup the teacher's version lacks.
type Matcher struct {
	store *domstore.Store
	names *domstore.NameTable
	rules []CompiledRule

	classAttr uint32
	idAttr    uint32
}

// NewMatcher creates a Matcher bound to store, interning the "class"
// and "id" attribute names against the store's shared name table.
func NewMatcher(store *domstore.Store) *Matcher {
	nt := store.NameTable()
	return &Matcher{
		store:     store,
		names:     nt,
		classAttr: nt.Intern("class"),
		idAttr:    nt.Intern("id"),
	}
}

// AddRule compiles sel and appends it to the matcher's rule set in
// document order.
func (m *Matcher) AddRule(sel Selector) {
	sel.Specificity = ComputeSpecificity(&sel)
	var filter Filter
	for i := range sel.Parts {
		for _, tok := range PartTokens(&sel.Parts[i]) {
			filter.Insert(tok)
		}
	}
	m.rules = append(m.rules, CompiledRule{
		Selector:    sel,
		Filter:      filter,
		Order:       len(m.rules),
		Specificity: sel.Specificity,
	})
}

// elementTag/elementClasses/elementID read the bits of an element's
// identity the matcher cares about, via the shared name table so
// selector classes/ids interned here line up with domstore's own ids.
func (m *Matcher) elementTag(id domstore.NodeId) string {
	tag, _ := m.store.TagName(id)
	return tag
}

func (m *Matcher) elementID(id domstore.NodeId) string {
	v, ok, _ := m.store.GetAttribute(id, m.idAttr)
	if !ok {
		return ""
	}
	return v
}

func (m *Matcher) elementClasses(id domstore.NodeId) []string {
	v, ok, _ := m.store.GetAttribute(id, m.classAttr)
	if !ok || v == "" {
		return nil
	}
	return strings.Fields(v)
}

func hasClass(classes []string, want string) bool {
	for _, c := range classes {
		if c == want {
			return true
		}
	}
	return false
}

// matchesPart reports whether element id satisfies a single compound
// selector part (tag + id + classes + attribute selectors). Pseudo-
// classes are not evaluated: a part carrying any pseudo-class
// (structural or dynamic, e.g. :hover) never matches here.
func (m *Matcher) matchesPart(id domstore.NodeId, p *SelectorPart) bool {
	if len(p.PseudoClasses) > 0 {
		return false
	}
	if p.Tag != "" && m.elementTag(id) != p.Tag {
		return false
	}
	if p.ID != "" && m.elementID(id) != p.ID {
		return false
	}
	if len(p.Classes) > 0 {
		classes := m.elementClasses(id)
		for _, want := range p.Classes {
			if !hasClass(classes, want) {
				return false
			}
		}
	}
	for _, attr := range p.Attrs {
		if !m.matchesAttr(id, attr) {
			return false
		}
	}
	return true
}

func (m *Matcher) matchesAttr(id domstore.NodeId, a AttributeSelector) bool {
	nameID := m.names.Intern(a.Name)
	val, ok, _ := m.store.GetAttribute(id, nameID)
	if !ok {
		return false
	}
	switch a.Op {
	case AttrPresent:
		return true
	case AttrEquals:
		return val == a.Value
	case AttrIncludes:
		return hasClass(strings.Fields(val), a.Value)
	case AttrPrefix:
		return strings.HasPrefix(val, a.Value)
	case AttrSuffix:
		return strings.HasSuffix(val, a.Value)
	case AttrSubstring:
		return strings.Contains(val, a.Value)
	}
	return false
}

// precedingSiblings returns id's elder siblings, nearest first.
func (m *Matcher) precedingSiblings(id domstore.NodeId) []domstore.NodeId {
	parent, err := m.store.Parent(id)
	if err != nil || parent == 0 {
		return nil
	}
	siblings, err := m.store.Children(parent)
	if err != nil {
		return nil
	}
	idx := -1
	for i, s := range siblings {
		if s == id {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return nil
	}
	out := make([]domstore.NodeId, idx)
	for i := 0; i < idx; i++ {
		out[i] = siblings[idx-1-i]
	}
	return out
}

// Matches reports whether element id satisfies sel in full, walking
// combinators right to left: the rightmost part must match id itself,
// then each combinator is resolved against ancestors/siblings.
func (m *Matcher) Matches(id domstore.NodeId, sel *Selector) bool {
	if len(sel.Parts) == 0 {
		return false
	}
	last := len(sel.Parts) - 1
	if !m.matchesPart(id, &sel.Parts[last]) {
		return false
	}
	return m.matchChain(id, sel, last)
}

// matchChain resolves combinator partIdx-1 (the one joining parts
// [partIdx-1] and [partIdx]), given that parts[partIdx] already
// matched at cur.
func (m *Matcher) matchChain(cur domstore.NodeId, sel *Selector, partIdx int) bool {
	if partIdx == 0 {
		return true
	}
	comb := sel.Combinators[partIdx-1]
	part := &sel.Parts[partIdx-1]

	switch comb {
	case Child:
		parent, err := m.store.Parent(cur)
		if err != nil || parent == 0 {
			return false
		}
		if !m.matchesPart(parent, part) {
			return false
		}
		return m.matchChain(parent, sel, partIdx-1)

	case Descendant:
		parent, err := m.store.Parent(cur)
		for err == nil && parent != 0 {
			if m.matchesPart(parent, part) && m.matchChain(parent, sel, partIdx-1) {
				return true
			}
			parent, err = m.store.Parent(parent)
		}
		return false

	case AdjacentSibling:
		prevs := m.precedingSiblings(cur)
		if len(prevs) == 0 {
			return false
		}
		prev := prevs[0]
		if !m.matchesPart(prev, part) {
			return false
		}
		return m.matchChain(prev, sel, partIdx-1)

	case GeneralSibling:
		for _, prev := range m.precedingSiblings(cur) {
			if m.matchesPart(prev, part) && m.matchChain(prev, sel, partIdx-1) {
				return true
			}
		}
		return false
	}
	return false
}

// elementBloomTokens computes the tokens an element itself contributes
// for the MightMatch prefilter: its own tag/id/classes. Ancestor/
// sibling tokens are not included — the rule's filter was built from
// every part in its chain, so a descendant-combinator rule's filter
// still contains tokens that could match this element's own compound
// part (the subject, tested rightmost) even though other parts target
// ancestors; this keeps MightMatch conservative without walking
// ancestors just to prefilter.
func (m *Matcher) elementBloomTokens(id domstore.NodeId) []string {
	return ElementTokens(m.elementTag(id), m.elementID(id), m.elementClasses(id))
}

// MightMatch reports whether any token of element id is present in
// rule's filter. false is a hard "never matches"; true still requires
// the exact Matches check.
func (m *Matcher) mightMatch(id domstore.NodeId, rule *CompiledRule) bool {
	// A subject part with no tag/id/class (e.g. "*", "[href]") gives the
	// element nothing to test against the filter; only Matches can decide.
	if last := rule.Selector.Last(); last != nil && len(PartTokens(last)) == 0 {
		return true
	}
	for _, tok := range m.elementBloomTokens(id) {
		if rule.Filter.MightContain(tok) {
			return true
		}
	}
	return false
}

// MatchedRule is a rule that matched an element, carrying enough to
// resolve cascade order (specificity, then document order).
type MatchedRule struct {
	Selector    *Selector
	Specificity int
	Order       int
}

// Match returns every compiled rule that matches element id, in
// cascade order (ascending specificity, ties broken by document
// order — callers wanting "winning declaration" should take the last
// entry).
func (m *Matcher) Match(id domstore.NodeId) []MatchedRule {
	var out []MatchedRule
	for i := range m.rules {
		rule := &m.rules[i]
		if !m.mightMatch(id, rule) {
			continue
		}
		if !m.Matches(id, &rule.Selector) {
			continue
		}
		out = append(out, MatchedRule{
			Selector:    &rule.Selector,
			Specificity: rule.Specificity,
			Order:       rule.Order,
		})
	}
	sortMatches(out)
	return out
}

func sortMatches(m []MatchedRule) {
	for i := 1; i < len(m); i++ {
		for j := i; j > 0; j-- {
			a, b := m[j-1], m[j]
			if a.Specificity > b.Specificity || (a.Specificity == b.Specificity && a.Order > b.Order) {
				m[j-1], m[j] = m[j], m[j-1]
			} else {
				break
			}
		}
	}
}
