// Package htmlsink defines the event boundary the HTML/CSS parsers
// write into: HTMLEventSink for markup (start tag/end tag/text/
// comment) and CSSRuleSink for stylesheet rules, so the teacher's
// pkg/html.Parser and pkg/css parsing pipeline can drive
// internal/domstore's arena directly instead of building the
// teacher's pointer-tree pkg/html.Document first and converting it
// afterward.
package htmlsink

import "webcore/internal/domstore"

// HTMLEventSink receives SAX-style callbacks from an HTML tokenizer/
// parser as it scans a document, mirroring the teacher's
// pkg/html.Parser token switch (TokenStartTag/TokenText/TokenEndTag)
// but emitting events instead of mutating a private tree.
type HTMLEventSink interface {
	// StartElement opens tagName with the given raw attributes
	// (unescaped; pkg/html.ParseIntoSink passes them in no particular
	// order) and returns true if the parser
	// should treat it as needing a matching EndElement (the teacher's
	// isSelfClosing check negated).
	StartElement(tagName string, attrs []Attr) (needsClose bool)
	// EndElement closes the most recently opened element.
	// DOMBuilderSink does not compare tagName against that element.
	EndElement(tagName string)
	// Text appends a run of character data to the current parent.
	Text(data string)
	// Comment appends a comment node to the current parent.
	Comment(data string)
}

// Attr is one raw attribute as scanned from source, before any
// interning or URL resolution.
type Attr struct {
	Name  string
	Value string
}

// CSSRuleSink receives callbacks from a CSS tokenizer/parser as it
// scans a stylesheet, one rule at a time, rather than building the
// teacher's pkg/css.Stylesheet value in one pass.
type CSSRuleSink interface {
	// StartRule begins a rule for selectors (already split on commas,
	// unparsed text form).
	StartRule(selectors []string)
	// Declaration adds one property:value pair to the rule currently
	// open via StartRule.
	Declaration(property, value string, important bool)
	// EndRule closes the rule most recently opened via StartRule.
	EndRule()
	// AtRule reports a top-level at-rule (@media, @import, ...) whose
	// body, if any, is out of scope for the sink and is passed through
	// unparsed.
	AtRule(name, prelude string)
}

// DOMBuilderSink is the production HTMLEventSink: it appends directly
// into a domstore.Store, maintaining an open-element stack the same
// way the teacher's Parser.stack does, generalized from a *Node stack
// to a domstore.NodeId stack.
type DOMBuilderSink struct {
	store *domstore.Store
	stack []domstore.NodeId
}

// NewDOMBuilderSink returns a sink that appends into store under root
// (typically the store's document node).
func NewDOMBuilderSink(store *domstore.Store, root domstore.NodeId) *DOMBuilderSink {
	return &DOMBuilderSink{store: store, stack: []domstore.NodeId{root}}
}

var voidElements = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true,
	"meta": true, "link": true, "area": true, "base": true,
	"col": true, "embed": true, "param": true, "source": true,
	"track": true, "wbr": true,
}

func (d *DOMBuilderSink) currentParent() domstore.NodeId {
	if len(d.stack) == 0 {
		return 0
	}
	return d.stack[len(d.stack)-1]
}

// StartElement implements HTMLEventSink.
func (d *DOMBuilderSink) StartElement(tagName string, attrs []Attr) bool {
	parent := d.currentParent()
	id, err := d.store.Insert(parent, 0, domstore.KindElement, tagName)
	if err != nil {
		return false
	}
	names := d.store.NameTable()
	for _, a := range attrs {
		nameID := names.Intern(a.Name)
		_ = d.store.SetAttribute(id, nameID, []byte(a.Value))
	}
	if voidElements[tagName] {
		return false
	}
	d.stack = append(d.stack, id)
	return true
}

// EndElement implements HTMLEventSink.
func (d *DOMBuilderSink) EndElement(tagName string) {
	if len(d.stack) > 1 {
		d.stack = d.stack[:len(d.stack)-1]
	}
}

// Text implements HTMLEventSink.
func (d *DOMBuilderSink) Text(data string) {
	if data == "" {
		return
	}
	_, _ = d.store.Insert(d.currentParent(), 0, domstore.KindText, data)
}

// Comment implements HTMLEventSink.
func (d *DOMBuilderSink) Comment(data string) {
	_, _ = d.store.Insert(d.currentParent(), 0, domstore.KindComment, data)
}
