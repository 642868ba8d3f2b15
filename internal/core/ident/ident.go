package ident

import "sync/atomic"

// ID names one item instance for the life of that item.
type ID uint64

const (
	// None marks an item that has not been addressed yet.
	None ID = 0
	// MinValid is the lowest id Generate can return. Anything below it is
	// rejected without looking at the item.
	MinValid ID = 1000
)

// Valid reports whether id could have been issued by a Registry.
func (id ID) Valid() bool { return id >= MinValid }

// Holder is implemented by anything that carries a lazily assigned ID.
type Holder interface {
	UID() ID
	SetUID(ID)
}

// Registry issues item ids for one session. Counter is atomic so a future
// concurrent caller only has to share the Registry, nothing else.
type Registry struct {
	next atomic.Uint64
}

// NewRegistry creates a registry whose first id is MinValid.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// SetStart resumes issuing above an id already in use (e.g. loaded from a save).
func (r *Registry) SetStart(last ID) {
	if last < MinValid {
		return
	}
	r.next.Store(uint64(last))
}

// Reset tears the session down; subsequent ids restart at MinValid.
func (r *Registry) Reset() {
	r.next.Store(uint64(MinValid) - 1)
}

// Generate returns the next unused id.
func (r *Registry) Generate() ID {
	return ID(r.next.Add(1))
}

// Assign gives h an id if it has none and returns h's id either way.
func (r *Registry) Assign(h Holder) ID {
	if id := h.UID(); id != None {
		return id
	}
	id := r.Generate()
	h.SetUID(id)
	return id
}

// Is reports whether h carries id. Ids below MinValid never match.
func Is(h Holder, id ID) bool {
	if id < MinValid {
		return false
	}
	return h.UID() == id
}
