package area

import (
	"errors"
	"fmt"

	"github.com/l1jgo/advinv/internal/world"
)

var ErrNoFocus = errors.New("no container in focus")

// Area is one transfer endpoint. Compass areas are a ground tile and, when a
// vehicle covers that tile, a cargo part; which of the two is meant is the
// caller's inVehicle flag.
type Area struct {
	ID     ID
	Offset world.Point // relative to the actor
	Pos    world.Point // absolute, updated by Set.Refresh
	Name   string
	Short  string
	Hotkey rune

	CanHoldItems bool // terrain allows loose items

	Vehicle *world.Vehicle
	Part    int

	set   *Set
	focus *focus
}

type focus struct {
	src Target
	loc world.Locator
}

// Totals are the derived aggregates of one area's storage.
type Totals struct {
	Volume    int
	Weight    int
	Count     int
	MaxVolume int // 0 = unlimited
	MaxCount  int // 0 = unlimited
}

// VehicleEligible reports whether the area can reach vehicle cargo: its id
// is inside the vehicle range and a vehicle with a cargo part is bound.
func (a *Area) VehicleEligible() bool {
	if !a.ID.VehicleRange() || a.Vehicle == nil {
		return false
	}
	return a.Vehicle.Cargo(a.Part) != nil
}

// CanPlace reports whether items can structurally go here at all, without
// looking at remaining room.
func (a *Area) CanPlace(inVehicle bool) bool {
	switch {
	case a.ID == All:
		return false
	case a.ID == Container:
		_, err := a.Focused()
		return err == nil
	case a.ID == Inventory || a.ID == Worn:
		return true
	case a.ID == Dragged:
		return a.VehicleEligible()
	case inVehicle:
		return a.VehicleEligible()
	default:
		return a.CanHoldItems
	}
}

// Store returns the storage backing the area in the given mode, or nil when
// there is none (the aggregate area, a blocked tile, no vehicle, nothing in
// focus). The dragged area always means the vehicle.
func (a *Area) Store(inVehicle bool) world.Store {
	st := a.set.state
	switch {
	case a.ID == Inventory:
		return st.Actor.Inventory
	case a.ID == Worn:
		return st.Actor.Worn
	case a.ID == Container:
		c, err := a.Focused()
		if err != nil {
			return nil
		}
		return world.StackOf(c)
	case a.ID == Dragged || (a.ID.Compass() && inVehicle):
		if !a.VehicleEligible() {
			return nil
		}
		return a.Vehicle.Cargo(a.Part)
	case a.ID.Compass():
		if !a.CanHoldItems {
			return nil
		}
		return st.Tile(a.Pos).Items
	}
	return nil
}

// backing identifies the physical storage behind the area so two areas can
// be compared: a *world.Pile, or the focused container *world.Item.
func (a *Area) backing(inVehicle bool) any {
	switch s := a.Store(inVehicle).(type) {
	case *world.Pile:
		return s
	case *world.Stack:
		return s.Container()
	}
	return nil
}

// FreeVolume is the room left in the area, -1 when unlimited and 0 when the
// area has no storage in that mode.
func (a *Area) FreeVolume(inVehicle bool) int {
	s := a.Store(inVehicle)
	if s == nil {
		return 0
	}
	return world.FreeVolume(s)
}

// Equivalent reports whether a and other denote the same physical storage
// in the given mode.
func (a *Area) Equivalent(other *Area, inVehicle bool) bool {
	if a == other {
		return true
	}
	b := a.backing(inVehicle)
	return b != nil && b == other.backing(inVehicle)
}

// Totals sums the area's storage.
func (a *Area) Totals(inVehicle bool) Totals {
	s := a.Store(inVehicle)
	if s == nil {
		return Totals{}
	}
	t := Totals{
		Volume:    s.UsedVolume(),
		MaxVolume: s.MaxVolume(),
		MaxCount:  s.MaxCount(),
	}
	for i := 0; i < s.Len(); i++ {
		it := s.At(i)
		t.Weight += it.Weight()
		t.Count += it.Count()
	}
	return t
}

// FocusContainer points the Container area at the container loc resolves to
// inside src, so its contents can be browsed and filled.
func (a *Area) FocusContainer(src Target, loc world.Locator) error {
	if a.ID != Container {
		panic(fmt.Sprintf("area: focus on %s", a.ID))
	}
	if src.ID == Container || src.ID == All {
		return fmt.Errorf("focus from %s: %w", src.ID, ErrNoFocus)
	}
	s := a.set.Get(src.ID).Store(src.InVehicle)
	if s == nil {
		return fmt.Errorf("%s has no storage: %w", src, ErrNoFocus)
	}
	it, err := world.Resolve(s, loc)
	if err != nil {
		return err
	}
	if !it.IsContainer() {
		return fmt.Errorf("%s is not a container: %w", it.Name(), ErrNoFocus)
	}
	a.focus = &focus{src: src, loc: loc}
	a.CanHoldItems = true
	return nil
}

// ClearFocus drops the focused container.
func (a *Area) ClearFocus() {
	a.focus = nil
	if a.ID == Container {
		a.CanHoldItems = false
	}
}

// Focused resolves the focused container. The locator is re-anchored when
// roots in front of it were removed, so moving other items out of the
// source does not lose the focus.
func (a *Area) Focused() (*world.Item, error) {
	if a.focus == nil {
		return nil, ErrNoFocus
	}
	s := a.set.Get(a.focus.src.ID).Store(a.focus.src.InVehicle)
	if s == nil {
		return nil, fmt.Errorf("%s has no storage: %w", a.focus.src, ErrNoFocus)
	}
	loc, err := world.Reanchor(s, a.focus.loc)
	if err != nil {
		return nil, err
	}
	a.focus.loc = loc
	it, err := world.Resolve(s, loc)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// FocusSource returns where the focused container lives.
func (a *Area) FocusSource() (Target, bool) {
	if a.focus == nil {
		return Target{}, false
	}
	return a.focus.src, true
}
