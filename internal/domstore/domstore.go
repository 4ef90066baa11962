// Package domstore implements the compact, generation-tracked DOM node
// arena described in spec §3/§4.C: nodes are addressed by NodeId
// rather than pointer, attributes materialize their parsed form lazily,
// and a query-result cache is invalidated wholesale by a monotonic
// generation counter rather than per-entry.
//
// Grounded on other_examples' justgohtml dom-allocator.go (chunked
// per-kind arena allocation) and the teacher's pkg/html/dom.go (node
// relationship operations), adapted from pointer trees to arena ids.
package domstore

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"webcore/internal/intern"
)

// NodeId addresses a node in the arena. The zero value is never a
// valid id (see invalidID).
type NodeId uint32

const invalidID NodeId = 0

// NodeKind discriminates the tagged node variant.
type NodeKind uint8

const (
	KindElement NodeKind = iota
	KindText
	KindComment
	KindFragment
	KindDocument
)

var (
	// ErrInvalidNode is returned when a NodeId does not refer to a
	// live node in the store.
	ErrInvalidNode = errors.New("domstore: invalid node id")
	// ErrInvalidUTF8 is returned when text content is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("domstore: invalid utf-8 text")
	// ErrDetachedNode is returned for operations that require a
	// parent and the node has none.
	ErrDetachedNode = errors.New("domstore: node is detached")
)

const (
	elementChunkSize = 256
	textChunkSize    = 256
	commentChunkSize = 64
	attrChunkSize    = 256
)

// node is the internal arena record. Four compact forms share this
// single struct; "compactness" here means EmptyElement/EmptyText/
// WhitespaceText/EmptyComment avoid allocating an attribute list or
// children slice until one is actually needed, rather than occupying a
// distinct Go type (arena slices are homogeneous).
type node struct {
	kind     NodeKind
	live     bool
	tag      string // interned tag name (Element) or empty
	text     string // interned text (Text/Comment); whitespace runs interned via ws pool
	wsSmall  bool   // true if text came from the whitespace pool (small/common run)
	parent   NodeId
	children []NodeId
	attrs    []attribute // nil until first SetAttribute call
}

// attribute holds the raw bytes for an attribute plus its memoized
// parsed (UTF-8) form and an access counter, per spec §3/§4.C.
type attribute struct {
	nameID     uint32 // interned attribute name id
	raw        []byte
	parsed     string
	parsedSet  bool
	readCount  uint32
	writeCount uint32
}

// Store is an arena-backed DOM with lazy attributes and a generation
// counter. A Store is owned by a single renderer/goroutine; it is not
// safe for concurrent mutation (see spec §5: "the DOM arena is owned
// by one renderer; no cross-thread access").
type Store struct {
	nodes      []node
	generation uint64

	names     *nameTable
	strings   *intern.Pool
	whitespace *intern.Pool

	queryCache *queryCache

	log *zap.Logger

	accessTracker *accessTracker
}

// New creates an empty Store with a freshly-scoped interning pool.
func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		nodes:      make([]node, 1, elementChunkSize), // index 0 reserved as invalidID
		names:      newNameTable(),
		strings:    intern.NewPool(),
		whitespace: intern.NewPool(),
		log:        log,
		accessTracker: newAccessTracker(),
	}
	s.queryCache = newQueryCache()
	return s
}

// Generation returns the current DOM generation. It only increases.
func (s *Store) Generation() uint64 { return s.generation }

func (s *Store) bump() {
	s.generation++
}

// alive reports whether id refers to a live node.
func (s *Store) alive(id NodeId) bool {
	return id != invalidID && int(id) < len(s.nodes) && s.nodes[id].live
}

// Kind returns the node kind for id.
func (s *Store) Kind(id NodeId) (NodeKind, error) {
	if !s.alive(id) {
		return 0, fmt.Errorf("Kind(%d): %w", id, ErrInvalidNode)
	}
	return s.nodes[id].kind, nil
}

// TagName returns the tag name for an Element node.
func (s *Store) TagName(id NodeId) (string, error) {
	if !s.alive(id) {
		return "", fmt.Errorf("TagName(%d): %w", id, ErrInvalidNode)
	}
	return s.nodes[id].tag, nil
}

// Text returns the text content for a Text or Comment node.
func (s *Store) Text(id NodeId) (string, error) {
	if !s.alive(id) {
		return "", fmt.Errorf("Text(%d): %w", id, ErrInvalidNode)
	}
	n := &s.nodes[id]
	if n.kind != KindText && n.kind != KindComment {
		return "", fmt.Errorf("Text(%d): not a text/comment node: %w", id, ErrInvalidNode)
	}
	return n.text, nil
}

// Parent returns the parent of id, or invalidID if id is the root or
// detached.
func (s *Store) Parent(id NodeId) (NodeId, error) {
	if !s.alive(id) {
		return invalidID, fmt.Errorf("Parent(%d): %w", id, ErrInvalidNode)
	}
	return s.nodes[id].parent, nil
}

// Children returns a copy of id's child id list, in document order.
func (s *Store) Children(id NodeId) ([]NodeId, error) {
	if !s.alive(id) {
		return nil, fmt.Errorf("Children(%d): %w", id, ErrInvalidNode)
	}
	out := make([]NodeId, len(s.nodes[id].children))
	copy(out, s.nodes[id].children)
	return out, nil
}

// newNodeID allocates the next arena slot, extending the backing slice
// in chunks.
func (s *Store) newNodeID() NodeId {
	id := NodeId(len(s.nodes))
	s.nodes = append(s.nodes, node{})
	return id
}

// chunkHint is a documentation-only helper recording the chunk sizes
// each arena grows by (Go's append already amortizes growth; per-kind
// chunking as in the justgohtml allocator is unnecessary once all
// kinds share one slice, but the size constants are kept as the
// initial capacity hint for New).
var _ = []int{elementChunkSize, textChunkSize, commentChunkSize, attrChunkSize}

// Insert creates a new node of kind, with the given payload, and
// attaches it as a child of parent (inserted before the node named by
// before, or appended if before is invalidID). Text payload is
// validated as UTF-8. Every insert bumps the generation.
func (s *Store) Insert(parent NodeId, before NodeId, kind NodeKind, tagOrText string) (NodeId, error) {
	if parent != invalidID && !s.alive(parent) {
		return invalidID, fmt.Errorf("Insert: parent %d: %w", parent, ErrInvalidNode)
	}
	if (kind == KindText || kind == KindComment) && !utf8.ValidString(tagOrText) {
		return invalidID, fmt.Errorf("Insert: %w", ErrInvalidUTF8)
	}

	id := s.newNodeID()
	n := &s.nodes[id]
	n.live = true
	n.kind = kind
	n.parent = parent

	switch kind {
	case KindElement, KindFragment, KindDocument:
		n.tag = s.strings.Intern(tagOrText)
	case KindText:
		if isWhitespace(tagOrText) {
			n.text = s.whitespace.InternWhitespace(tagOrText)
			n.wsSmall = true
		} else {
			n.text = tagOrText
		}
	case KindComment:
		n.text = tagOrText
	}

	if parent != invalidID {
		p := &s.nodes[parent]
		if before == invalidID {
			p.children = append(p.children, id)
		} else {
			idx := indexOf(p.children, before)
			if idx < 0 {
				p.children = append(p.children, id)
			} else {
				p.children = append(p.children, invalidID)
				copy(p.children[idx+1:], p.children[idx:])
				p.children[idx] = id
			}
		}
	}

	s.bump()
	s.log.Debug("domstore: inserted node",
		zap.Uint32("id", uint32(id)), zap.Uint8("kind", uint8(kind)),
		zap.Uint64("generation", s.generation))
	return id, nil
}

func indexOf(ids []NodeId, target NodeId) int {
	for i, id := range ids {
		if id == target {
			return i
		}
	}
	return -1
}

func isWhitespace(s string) bool {
	if s == "" {
		return true
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
		default:
			return false
		}
	}
	return true
}

// Remove detaches id from its parent and recursively marks the
// subtree dead for reuse. Generation bumps once for the whole
// operation.
func (s *Store) Remove(id NodeId) error {
	if !s.alive(id) {
		return fmt.Errorf("Remove(%d): %w", id, ErrInvalidNode)
	}
	n := &s.nodes[id]
	if n.parent != invalidID {
		p := &s.nodes[n.parent]
		if idx := indexOf(p.children, id); idx >= 0 {
			p.children = append(p.children[:idx], p.children[idx+1:]...)
		}
	}
	s.markDeadRecursive(id)
	s.bump()
	return nil
}

func (s *Store) markDeadRecursive(id NodeId) {
	n := &s.nodes[id]
	for _, c := range n.children {
		s.markDeadRecursive(c)
	}
	n.live = false
	n.children = nil
	n.attrs = nil
	n.parent = invalidID
}

// Reparent moves id to become a child of newParent, inserted before
// the node named by before (or appended if invalidID). Per spec §3
// invariants, reparenting is only valid within the same document and
// before the generation that removed it from its old parent bumps
// again elsewhere — this store does not track document identity
// itself, so callers are responsible for that invariant.
func (s *Store) Reparent(id, newParent, before NodeId) error {
	if !s.alive(id) || !s.alive(newParent) {
		return fmt.Errorf("Reparent: %w", ErrInvalidNode)
	}
	n := &s.nodes[id]
	if n.parent != invalidID {
		oldParent := &s.nodes[n.parent]
		if idx := indexOf(oldParent.children, id); idx >= 0 {
			oldParent.children = append(oldParent.children[:idx], oldParent.children[idx+1:]...)
		}
	}
	n.parent = newParent
	np := &s.nodes[newParent]
	if before == invalidID {
		np.children = append(np.children, id)
	} else {
		idx := indexOf(np.children, before)
		if idx < 0 {
			np.children = append(np.children, id)
		} else {
			np.children = append(np.children, invalidID)
			copy(np.children[idx+1:], np.children[idx:])
			np.children[idx] = id
		}
	}
	s.bump()
	return nil
}

// NameTable exposes the interned-attribute-name table so callers
// (selector matcher, JS bridge) can intern names once and reuse ids.
func (s *Store) NameTable() *NameTable { return (*NameTable)(s.names) }
