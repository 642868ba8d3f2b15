package area

import (
	"strings"

	"github.com/l1jgo/advinv/internal/world"
)

// ID names one storage location. The numeric order is load-bearing: the
// compass squares and the dragged vehicle form one contiguous range that is
// the only place vehicle cargo can be reached from.
type ID int

const (
	Inventory ID = iota
	SouthWest
	South
	SouthEast
	West
	Center
	East
	NorthWest
	North
	NorthEast
	Dragged
	All
	Container
	Worn
	NumAreas
)

var names = [NumAreas]struct {
	name   string
	short  string
	hotkey rune
}{
	Inventory: {"Inventory", "I", 'I'},
	SouthWest: {"South West", "SW", '1'},
	South:     {"South", "S", '2'},
	SouthEast: {"South East", "SE", '3'},
	West:      {"West", "W", '4'},
	Center:    {"Directly below you", "DN", '5'},
	East:      {"East", "E", '6'},
	NorthWest: {"North West", "NW", '7'},
	North:     {"North", "N", '8'},
	NorthEast: {"North East", "NE", '9'},
	Dragged:   {"Grabbed Vehicle", "GR", 'D'},
	All:       {"Surrounding area", "AL", 'A'},
	Container: {"Container", "CN", 'C'},
	Worn:      {"Worn Items", "WR", 'W'},
}

// Offsets of the compass squares relative to the actor; y grows southward.
var offsets = map[ID]world.Point{
	SouthWest: {X: -1, Y: 1},
	South:     {X: 0, Y: 1},
	SouthEast: {X: 1, Y: 1},
	West:      {X: -1, Y: 0},
	Center:    {X: 0, Y: 0},
	East:      {X: 1, Y: 0},
	NorthWest: {X: -1, Y: -1},
	North:     {X: 0, Y: -1},
	NorthEast: {X: 1, Y: -1},
}

func (id ID) String() string {
	if id < 0 || id >= NumAreas {
		return "unknown"
	}
	return names[id].name
}

// Short is the two-letter label.
func (id ID) Short() string {
	if id < 0 || id >= NumAreas {
		return "??"
	}
	return names[id].short
}

// Hotkey is the key the area is usually bound to.
func (id ID) Hotkey() rune {
	if id < 0 || id >= NumAreas {
		return 0
	}
	return names[id].hotkey
}

// FromShort parses a two-letter label, ignoring case.
func FromShort(s string) (ID, bool) {
	for id := Inventory; id < NumAreas; id++ {
		if strings.EqualFold(names[id].short, s) {
			return id, true
		}
	}
	return 0, false
}

// Compass reports whether id is one of the nine squares around the actor.
func (id ID) Compass() bool { return id >= SouthWest && id <= NorthEast }

// VehicleRange reports whether id can ever refer to vehicle cargo.
func (id ID) VehicleRange() bool { return id >= SouthWest && id <= Dragged }

// CompassAreas lists the nine squares in enumeration order.
func CompassAreas() []ID {
	out := make([]ID, 0, 9)
	for id := SouthWest; id <= NorthEast; id++ {
		out = append(out, id)
	}
	return out
}

// Target is a concrete place to put or take items: an area plus whether its
// vehicle cargo (rather than the ground) is meant.
type Target struct {
	ID        ID
	InVehicle bool
}

func (t Target) String() string {
	if t.InVehicle {
		return t.ID.String() + " (vehicle)"
	}
	return t.ID.String()
}
