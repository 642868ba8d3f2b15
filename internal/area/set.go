package area

import (
	"github.com/l1jgo/advinv/internal/core/ident"
	"github.com/l1jgo/advinv/internal/world"
)

// Set holds every area around one actor.
type Set struct {
	state *world.State
	reg   *ident.Registry
	areas [NumAreas]*Area
}

// NewSet builds all areas and binds them to the actor's surroundings.
func NewSet(st *world.State, reg *ident.Registry) *Set {
	s := &Set{state: st, reg: reg}
	for id := ID(0); id < NumAreas; id++ {
		s.areas[id] = &Area{
			ID:     id,
			Offset: offsets[id],
			Name:   id.String(),
			Short:  id.Short(),
			Hotkey: id.Hotkey(),
			Part:   -1,
			set:    s,
		}
	}
	s.Refresh()
	return s
}

// State returns the world the set looks at.
func (s *Set) State() *world.State { return s.state }

// Registry returns the id registry items are addressed with.
func (s *Set) Registry() *ident.Registry { return s.reg }

// Get returns the area with id. It panics on an id outside the enumeration.
func (s *Set) Get(id ID) *Area {
	return s.areas[id]
}

// Store is shorthand for Get(t.ID).Store(t.InVehicle).
func (s *Set) Store(t Target) world.Store {
	return s.areas[t.ID].Store(t.InVehicle)
}

// Refresh rebinds positions, terrain flags and vehicles after the actor
// moved, started or stopped dragging, or vehicles changed.
func (s *Set) Refresh() {
	actor := s.state.Actor
	for _, a := range s.areas {
		a.Vehicle, a.Part = nil, -1
		switch {
		case a.ID.Compass():
			a.Pos = actor.Pos.Add(a.Offset)
			a.CanHoldItems = !s.state.Tile(a.Pos).NoItems
			a.Vehicle, a.Part = s.state.VehicleAt(a.Pos)
		case a.ID == Dragged:
			a.Offset = actor.Drag
			a.Pos = actor.Pos.Add(actor.Drag)
			a.CanHoldItems = false
			if actor.Dragging {
				a.Vehicle, a.Part = s.state.VehicleAt(a.Pos)
			}
		case a.ID == Container:
			a.Pos = actor.Pos
			_, err := a.Focused()
			a.CanHoldItems = err == nil
		default:
			a.Pos = actor.Pos
			a.CanHoldItems = a.ID != All
		}
	}
}

// Same reports whether two targets denote the same physical storage.
func (s *Set) Same(a, b Target) bool {
	if a == b {
		return true
	}
	x := s.areas[a.ID].backing(a.InVehicle)
	return x != nil && x == s.areas[b.ID].backing(b.InVehicle)
}

// Concrete lists the targets the aggregate area stands for: every compass
// square's ground and vehicle cargo that exists, each physical storage once.
func (s *Set) Concrete() []Target {
	var out []Target
	seen := make(map[any]bool)
	for _, id := range CompassAreas() {
		for _, inVehicle := range []bool{false, true} {
			b := s.areas[id].backing(inVehicle)
			if b == nil || seen[b] {
				continue
			}
			seen[b] = true
			out = append(out, Target{ID: id, InVehicle: inVehicle})
		}
	}
	return out
}

// TotalFreeVolume sums the free room of targets, counting storage shared by
// several of them once. It returns -1 if any of them is unlimited.
func (s *Set) TotalFreeVolume(targets ...Target) int {
	total := 0
	seen := make(map[any]bool)
	for _, t := range targets {
		a := s.areas[t.ID]
		b := a.backing(t.InVehicle)
		if b == nil || seen[b] {
			continue
		}
		seen[b] = true
		free := a.FreeVolume(t.InVehicle)
		if free < 0 {
			return -1
		}
		total += free
	}
	return total
}
