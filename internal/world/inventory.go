package world

// Actor is the character doing the hauling.
type Actor struct {
	Name      string
	Pos       Point
	Inventory *Pile // carried items, bounded by carry volume
	Worn      *Pile // worn items, WornOnly

	// Drag is the offset of the vehicle being dragged; Dragging false means
	// nothing is dragged.
	Drag     Point
	Dragging bool
}

// NewActor creates an actor with an empty inventory and worn set.
func NewActor(name string, pos Point, carryVolume, wornLimit int) *Actor {
	worn := NewPile(0, wornLimit)
	worn.WornOnly = true
	return &Actor{
		Name:      name,
		Pos:       pos,
		Inventory: NewPile(carryVolume, 0),
		Worn:      worn,
	}
}

// TotalWeight is everything the actor carries and wears.
func (a *Actor) TotalWeight() int {
	return a.Inventory.Weight() + a.Worn.Weight()
}

// StartDrag begins dragging whatever is at offset d.
func (a *Actor) StartDrag(d Point) {
	a.Drag = d
	a.Dragging = true
}

// StopDrag releases the dragged vehicle.
func (a *Actor) StopDrag() {
	a.Drag = Point{}
	a.Dragging = false
}
