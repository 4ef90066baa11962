package domstore

import (
	"fmt"
	"unicode/utf8"
)

// SetAttribute stores raw_bytes under name_id on node, bumping the
// generation. Per spec §4.C the access-count is left unchanged by a
// write (only reads increment it); the parsed slot is cleared so the
// next read re-materializes it.
func (s *Store) SetAttribute(id NodeId, nameID uint32, raw []byte) error {
	if !s.alive(id) {
		return fmt.Errorf("SetAttribute(%d): %w", id, ErrInvalidNode)
	}
	n := &s.nodes[id]
	for i := range n.attrs {
		if n.attrs[i].nameID == nameID {
			n.attrs[i].raw = append([]byte(nil), raw...)
			n.attrs[i].parsed = ""
			n.attrs[i].parsedSet = false
			n.attrs[i].writeCount++
			s.bump()
			return nil
		}
	}
	n.attrs = append(n.attrs, attribute{
		nameID: nameID,
		raw:    append([]byte(nil), raw...),
	})
	s.bump()
	return nil
}

// GetAttribute materializes and returns the parsed (UTF-8) form of the
// attribute named nameID on node, memoizing it thereafter. Invalid
// UTF-8 is replaced per Go's string conversion (replacement
// character), matching spec §8 property 3's "interpreted as UTF-8
// (replacement on invalid)".
func (s *Store) GetAttribute(id NodeId, nameID uint32) (string, bool, error) {
	if !s.alive(id) {
		return "", false, fmt.Errorf("GetAttribute(%d): %w", id, ErrInvalidNode)
	}
	n := &s.nodes[id]
	for i := range n.attrs {
		if n.attrs[i].nameID != nameID {
			continue
		}
		a := &n.attrs[i]
		if !a.parsedSet {
			if utf8.Valid(a.raw) {
				a.parsed = string(a.raw)
			} else {
				a.parsed = toValidUTF8(a.raw)
			}
			a.parsedSet = true
		}
		a.readCount++
		s.accessTracker.recordRead(id, nameID)
		return a.parsed, true, nil
	}
	return "", false, nil
}

// toValidUTF8 replaces invalid byte sequences with the Unicode
// replacement character, matching strings.ToValidUTF8's behavior
// without depending on a particular replacement string.
func toValidUTF8(b []byte) string {
	out := make([]rune, 0, len(b))
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		out = append(out, r)
		i += size
	}
	return string(out)
}

// HasAttribute reports whether node has an attribute named nameID,
// without materializing its parsed form or affecting the access
// counter.
func (s *Store) HasAttribute(id NodeId, nameID uint32) (bool, error) {
	if !s.alive(id) {
		return false, fmt.Errorf("HasAttribute(%d): %w", id, ErrInvalidNode)
	}
	n := &s.nodes[id]
	for i := range n.attrs {
		if n.attrs[i].nameID == nameID {
			return true, nil
		}
	}
	return false, nil
}

// RemoveAttribute deletes the attribute named nameID from node,
// bumping the generation if present.
func (s *Store) RemoveAttribute(id NodeId, nameID uint32) error {
	if !s.alive(id) {
		return fmt.Errorf("RemoveAttribute(%d): %w", id, ErrInvalidNode)
	}
	n := &s.nodes[id]
	for i := range n.attrs {
		if n.attrs[i].nameID == nameID {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			s.bump()
			return nil
		}
	}
	return nil
}
