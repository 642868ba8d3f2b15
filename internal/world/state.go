package world

// State is the item-holding part of the simulation: the actor, the map tiles
// around them and the vehicles on the map.
// Single-goroutine access only; nothing here is locked.
type State struct {
	Actor    *Actor
	Vehicles []*Vehicle

	tiles map[Point]*Tile

	// Capacity of a freshly created tile pile.
	TileCapacity int
	TileLimit    int
}

// NewState creates a world around actor.
func NewState(actor *Actor, tileCapacity, tileLimit int) *State {
	return &State{
		Actor:        actor,
		tiles:        make(map[Point]*Tile),
		TileCapacity: tileCapacity,
		TileLimit:    tileLimit,
	}
}

// Tile returns the tile at p, creating open ground if it was never touched.
func (s *State) Tile(p Point) *Tile {
	t, ok := s.tiles[p]
	if !ok {
		t = &Tile{Terrain: "ground", Items: NewPile(s.TileCapacity, s.TileLimit)}
		s.tiles[p] = t
	}
	return t
}

// SetTerrain changes the terrain at p.
func (s *State) SetTerrain(p Point, terrain string, noItems bool) {
	t := s.Tile(p)
	t.Terrain = terrain
	t.NoItems = noItems
}

// AddVehicle places v on the map.
func (s *State) AddVehicle(v *Vehicle) {
	s.Vehicles = append(s.Vehicles, v)
}

// VehicleAt returns the vehicle with a cargo part covering p and that part's
// index, or nil and -1.
func (s *State) VehicleAt(p Point) (*Vehicle, int) {
	for _, v := range s.Vehicles {
		if part := v.PartAt(p); part >= 0 {
			return v, part
		}
	}
	return nil, -1
}

// MaxUID returns the highest item id assigned anywhere in the world, used to
// resume a Registry after loading.
func (s *State) MaxUID() uint64 {
	var max uint64
	visit := func(p *Pile) {
		for _, root := range p.Items {
			walkIDs(root, 0, &max)
		}
	}
	if s.Actor != nil {
		visit(s.Actor.Inventory)
		visit(s.Actor.Worn)
	}
	for _, t := range s.tiles {
		visit(t.Items)
	}
	for _, v := range s.Vehicles {
		for _, part := range v.Parts {
			visit(part.Cargo)
		}
	}
	return max
}

func walkIDs(it *Item, depth int, max *uint64) {
	if uint64(it.uid) > *max {
		*max = uint64(it.uid)
	}
	if depth >= MaxDepth {
		return
	}
	for _, c := range it.Contents {
		walkIDs(c, depth+1, max)
	}
}
