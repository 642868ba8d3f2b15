package world

// Point is a tile coordinate.
type Point struct {
	X int
	Y int
}

func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }

// Tile is one map square. Items lie loose on it in a Pile.
// NoItems marks terrain that cannot hold anything (walls, deep water).
type Tile struct {
	Terrain string
	NoItems bool
	Items   *Pile
}

// CargoPart is one cargo-capable part of a vehicle, mounted at Offset from
// the vehicle's origin.
type CargoPart struct {
	Name   string
	Offset Point
	Cargo  *Pile
}

// Vehicle is a multi-tile object with cargo parts.
type Vehicle struct {
	Name  string
	Pos   Point
	Parts []*CargoPart
}

// PartAt returns the index of the cargo part covering the absolute tile p,
// or -1 if the vehicle has none there.
func (v *Vehicle) PartAt(p Point) int {
	for i, part := range v.Parts {
		if v.Pos.Add(part.Offset) == p {
			return i
		}
	}
	return -1
}

// Cargo returns the pile of part i, or nil.
func (v *Vehicle) Cargo(i int) *Pile {
	if i < 0 || i >= len(v.Parts) {
		return nil
	}
	return v.Parts[i].Cargo
}
