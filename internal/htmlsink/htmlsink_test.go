package htmlsink

import (
	"testing"

	"webcore/internal/domstore"
)

func newRootedSink(t *testing.T) (*domstore.Store, *DOMBuilderSink, domstore.NodeId) {
	t.Helper()
	store := domstore.New(nil)
	root, err := store.Insert(0, 0, domstore.KindDocument, "#document")
	if err != nil {
		t.Fatal(err)
	}
	return store, NewDOMBuilderSink(store, root), root
}

func TestStartElementAppendsUnderCurrentParent(t *testing.T) {
	store, sink, root := newRootedSink(t)
	sink.StartElement("div", []Attr{{Name: "class", Value: "box"}})
	children, err := store.Children(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 1 {
		t.Fatalf("expected one child of root, got %d", len(children))
	}
	tag, err := store.TagName(children[0])
	if err != nil || tag != "div" {
		t.Fatalf("expected div, got %q (err=%v)", tag, err)
	}
}

func TestVoidElementsDoNotOpenANewParent(t *testing.T) {
	_, sink, _ := newRootedSink(t)
	needsClose := sink.StartElement("img", nil)
	if needsClose {
		t.Fatalf("expected img to not need a matching close")
	}
	if len(sink.stack) != 1 {
		t.Fatalf("expected the element stack to remain at the root, got depth %d", len(sink.stack))
	}
}

func TestNestedElementsTextAndEndElement(t *testing.T) {
	store, sink, root := newRootedSink(t)
	sink.StartElement("p", nil)
	sink.Text("hello")
	sink.EndElement("p")

	if len(sink.stack) != 1 {
		t.Fatalf("expected stack to return to root depth after EndElement, got %d", len(sink.stack))
	}
	children, _ := store.Children(root)
	pChildren, _ := store.Children(children[0])
	if len(pChildren) != 1 {
		t.Fatalf("expected one text child under p, got %d", len(pChildren))
	}
	text, err := store.Text(pChildren[0])
	if err != nil || text != "hello" {
		t.Fatalf("expected text %q, got %q (err=%v)", "hello", text, err)
	}
}

func TestEndElementAtRootIsANoOp(t *testing.T) {
	_, sink, _ := newRootedSink(t)
	sink.EndElement("p") // nothing open; must not panic or underflow
	if len(sink.stack) != 1 {
		t.Fatalf("expected stack depth to remain 1, got %d", len(sink.stack))
	}
}

func TestAttributesAreSetOnTheElement(t *testing.T) {
	store, sink, root := newRootedSink(t)
	sink.StartElement("a", []Attr{{Name: "href", Value: "/x"}})
	children, _ := store.Children(root)
	names := store.NameTable()
	val, ok, err := store.GetAttribute(children[0], names.Intern("href"))
	if err != nil || !ok || val != "/x" {
		t.Fatalf("expected href=/x, got %q ok=%v err=%v", val, ok, err)
	}
}

func TestCommentAppendsACommentNode(t *testing.T) {
	store, sink, root := newRootedSink(t)
	sink.Comment("note")
	children, _ := store.Children(root)
	kind, _ := store.Kind(children[0])
	if kind != domstore.KindComment {
		t.Fatalf("expected a comment node, got kind %v", kind)
	}
}
