package domstore

// Walk calls visit for id and every descendant in document order,
// stopping early if visit returns false.
func (s *Store) Walk(id NodeId, visit func(NodeId) bool) {
	if !s.alive(id) {
		return
	}
	if !visit(id) {
		return
	}
	for _, c := range s.nodes[id].children {
		s.Walk(c, visit)
	}
}

// Contains reports whether other is id itself or a descendant of id.
func (s *Store) Contains(id, other NodeId) bool {
	found := false
	s.Walk(id, func(n NodeId) bool {
		if n == other {
			found = true
			return false
		}
		return true
	})
	return found
}

// IndexInParent returns the index of id among its parent's children,
// or -1 if id is the root or detached.
func (s *Store) IndexInParent(id NodeId) int {
	if !s.alive(id) {
		return -1
	}
	parent := s.nodes[id].parent
	if parent == invalidID {
		return -1
	}
	return indexOf(s.nodes[parent].children, id)
}

// Clone creates a copy of id (and, if deep, its descendants) detached
// from any parent, returning the new id. Attribute raw bytes are
// copied; parsed/memoized state is not (it is re-derived lazily).
func (s *Store) Clone(id NodeId, deep bool) (NodeId, error) {
	if !s.alive(id) {
		return invalidID, ErrInvalidNode
	}
	n := &s.nodes[id]
	newID := s.newNodeID()
	clone := &s.nodes[newID]
	clone.live = true
	clone.kind = n.kind
	clone.tag = n.tag
	clone.text = n.text
	clone.wsSmall = n.wsSmall
	if n.attrs != nil {
		clone.attrs = make([]attribute, len(n.attrs))
		for i, a := range n.attrs {
			clone.attrs[i] = attribute{nameID: a.nameID, raw: append([]byte(nil), a.raw...)}
		}
	}
	if deep {
		for _, c := range n.children {
			childClone, err := s.Clone(c, true)
			if err != nil {
				return invalidID, err
			}
			s.nodes[newID].children = append(s.nodes[newID].children, childClone)
			s.nodes[childClone].parent = newID
		}
	}
	s.bump()
	return newID, nil
}
