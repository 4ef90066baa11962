package jsvalue

// Property is a single name/value slot. NameID refers to a host string
// table (the same handle space JsVal string values use), so property
// names are interned exactly like any other JS string.
type Property struct {
	NameID uint32
	Value  JsVal
}

// inlineCap is the number of properties an Object holds without
// spilling to its overflow slice, per spec §4.H ("inline property list
// for ≤4 properties, spilling to a heap vector beyond").
const inlineCap = 4

// Object is a JS object: up to four properties live inline (no heap
// allocation beyond the Object struct itself), further properties
// spill into overflow. Lookup is linear in both cases — objects in
// this core are small, so a hash map would cost more than it saves.
type Object struct {
	inline    [inlineCap]Property
	inlineLen uint8
	overflow  []Property
}

// Get returns the property named by nameID, if present.
func (o *Object) Get(nameID uint32) (JsVal, bool) {
	for i := uint8(0); i < o.inlineLen; i++ {
		if o.inline[i].NameID == nameID {
			return o.inline[i].Value, true
		}
	}
	for _, p := range o.overflow {
		if p.NameID == nameID {
			return p.Value, true
		}
	}
	return Undefined(), false
}

// Set assigns or inserts the property named by nameID.
func (o *Object) Set(nameID uint32, v JsVal) {
	for i := uint8(0); i < o.inlineLen; i++ {
		if o.inline[i].NameID == nameID {
			o.inline[i].Value = v
			return
		}
	}
	for i := range o.overflow {
		if o.overflow[i].NameID == nameID {
			o.overflow[i].Value = v
			return
		}
	}
	if o.inlineLen < inlineCap {
		o.inline[o.inlineLen] = Property{NameID: nameID, Value: v}
		o.inlineLen++
		return
	}
	o.overflow = append(o.overflow, Property{NameID: nameID, Value: v})
}

// Delete removes the property named by nameID, if present.
func (o *Object) Delete(nameID uint32) {
	for i := uint8(0); i < o.inlineLen; i++ {
		if o.inline[i].NameID == nameID {
			last := o.inlineLen - 1
			o.inline[i] = o.inline[last]
			o.inline[last] = Property{}
			o.inlineLen = last
			return
		}
	}
	for i := range o.overflow {
		if o.overflow[i].NameID == nameID {
			o.overflow = append(o.overflow[:i], o.overflow[i+1:]...)
			return
		}
	}
}

// Len reports the number of properties on o.
func (o *Object) Len() int { return int(o.inlineLen) + len(o.overflow) }

// Arena holds every live Object, indexed by a stable u32 id so JsVal's
// ObjectHandle never carries a real pointer — per spec §4.H, "cycles
// broken by ids (arena + u32 ids), never direct ownership pointers."
type Arena struct {
	objects []*Object
	free    []uint32
}

// NewArena returns an empty object arena.
func NewArena() *Arena {
	return &Arena{}
}

// New allocates a fresh, empty object and returns its handle.
func (a *Arena) New() uint32 {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		a.objects[id] = &Object{}
		return id
	}
	id := uint32(len(a.objects))
	a.objects = append(a.objects, &Object{})
	return id
}

// Get returns the object behind handle, or nil if it has been freed.
func (a *Arena) Get(handle uint32) *Object {
	if int(handle) >= len(a.objects) {
		return nil
	}
	return a.objects[handle]
}

// Free releases handle back to the arena for reuse.
func (a *Arena) Free(handle uint32) {
	if int(handle) >= len(a.objects) || a.objects[handle] == nil {
		return
	}
	a.objects[handle] = nil
	a.free = append(a.free, handle)
}
