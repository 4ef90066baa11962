package selector

import (
	"testing"

	"webcore/internal/domstore"
)

func buildDoc(t *testing.T) (*domstore.Store, domstore.NodeId, domstore.NodeId) {
	t.Helper()
	s := domstore.New(nil)
	section, err := s.Insert(0, 0, domstore.KindElement, "section")
	if err != nil {
		t.Fatal(err)
	}
	classID := s.NameTable().Intern("class")
	div, _ := s.Insert(section, 0, domstore.KindElement, "div")
	_ = s.SetAttribute(div, classID, []byte("card highlight"))
	return s, section, div
}

func TestParseSimpleSelectors(t *testing.T) {
	cases := []struct {
		raw  string
		tag  string
		id   string
		cls  []string
		spec int
	}{
		{"div", "div", "", nil, 1},
		{".card", "", "", []string{"card"}, 10},
		{"#hero", "", "hero", nil, 100},
		{"div.card#hero", "div", "hero", []string{"card"}, 111},
	}
	for _, c := range cases {
		sel := Parse(c.raw)
		if len(sel.Parts) != 1 {
			t.Fatalf("%q: expected 1 part, got %d", c.raw, len(sel.Parts))
		}
		p := sel.Parts[0]
		if p.Tag != c.tag || p.ID != c.id {
			t.Fatalf("%q: got tag=%q id=%q", c.raw, p.Tag, p.ID)
		}
		if sel.Specificity != c.spec {
			t.Fatalf("%q: specificity = %d, want %d", c.raw, sel.Specificity, c.spec)
		}
	}
}

func TestParseCombinators(t *testing.T) {
	sel := Parse("section > div.card")
	if len(sel.Parts) != 2 || len(sel.Combinators) != 1 {
		t.Fatalf("unexpected parse: %+v", sel)
	}
	if sel.Combinators[0] != Child {
		t.Fatalf("expected child combinator, got %v", sel.Combinators[0])
	}
	if sel.Parts[1].Tag != "div" || len(sel.Parts[1].Classes) != 1 {
		t.Fatalf("unexpected subject part: %+v", sel.Parts[1])
	}
}

func TestMatcherClassAndTag(t *testing.T) {
	s, _, div := buildDoc(t)
	m := NewMatcher(s)

	sel := Parse(".card")
	if !m.Matches(div, &sel) {
		t.Fatalf("expected .card to match div")
	}
	miss := Parse(".missing")
	if m.Matches(div, &miss) {
		t.Fatalf("expected .missing to not match")
	}
}

func TestMatcherChildCombinator(t *testing.T) {
	s, section, div := buildDoc(t)
	m := NewMatcher(s)
	sel := Parse("section > div")
	if !m.Matches(div, &sel) {
		t.Fatalf("expected section > div to match")
	}

	grandchild, _ := s.Insert(div, 0, domstore.KindElement, "span")
	sel2 := Parse("section > span")
	if m.Matches(grandchild, &sel2) {
		t.Fatalf("expected section > span to NOT match a grandchild")
	}
	sel3 := Parse("section span")
	if !m.Matches(grandchild, &sel3) {
		t.Fatalf("expected descendant combinator to match a grandchild")
	}
	_ = section
}

func TestMatcherAdjacentSibling(t *testing.T) {
	s := domstore.New(nil)
	root, _ := s.Insert(0, 0, domstore.KindElement, "ul")
	a, _ := s.Insert(root, 0, domstore.KindElement, "li")
	b, _ := s.Insert(root, 0, domstore.KindElement, "li")
	m := NewMatcher(s)
	sel := Parse("li + li")
	if !m.Matches(b, &sel) {
		t.Fatalf("expected li + li to match second li")
	}
	if m.Matches(a, &sel) {
		t.Fatalf("first li should not match li + li")
	}
}

func TestMatcherAttributeSelector(t *testing.T) {
	s := domstore.New(nil)
	root, _ := s.Insert(0, 0, domstore.KindElement, "a")
	hrefID := s.NameTable().Intern("href")
	_ = s.SetAttribute(root, hrefID, []byte("https://example.com/path"))
	m := NewMatcher(s)

	present := Parse("a[href]")
	if !m.Matches(root, &present) {
		t.Fatalf("expected [href] to match")
	}
	prefix := Parse(`a[href^="https"]`)
	if !m.Matches(root, &prefix) {
		t.Fatalf("expected prefix match")
	}
	suffix := Parse(`a[href$="other"]`)
	if m.Matches(root, &suffix) {
		t.Fatalf("expected suffix mismatch")
	}
}

func TestBloomFilterNoFalseNegatives(t *testing.T) {
	var f Filter
	tokens := []string{"t:div", "c:card", "i:hero", "c:highlight"}
	for _, tok := range tokens {
		f.Insert(tok)
	}
	for _, tok := range tokens {
		if !f.MightContain(tok) {
			t.Fatalf("false negative for %q", tok)
		}
	}
}

func TestMatchCascadeOrder(t *testing.T) {
	s, _, div := buildDoc(t)
	m := NewMatcher(s)
	m.AddRule(Parse("div"))
	m.AddRule(Parse(".card"))
	m.AddRule(Parse("#hero")) // won't match, no id on div

	matched := m.Match(div)
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matched))
	}
	// ascending specificity: div (1) before .card (10)
	if matched[0].Specificity > matched[1].Specificity {
		t.Fatalf("expected ascending specificity order, got %+v", matched)
	}
}
