// Package scenario loads a scripted inventory session from YAML: the world
// around the actor, the starting pane layout, the answers the user gives to
// prompts and the actions to replay.
package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/advinv/internal/area"
	"github.com/l1jgo/advinv/internal/data"
	"github.com/l1jgo/advinv/internal/world"
)

type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

func (p Point) world() world.Point { return world.Point{X: p.X, Y: p.Y} }

// ItemSpec is one item (or Count identical ones) by catalog id.
type ItemSpec struct {
	Type     string     `yaml:"type"`
	Charges  int        `yaml:"charges"`
	Count    int        `yaml:"count"`
	Contents []ItemSpec `yaml:"contents"`
}

type ActorSpec struct {
	Name string `yaml:"name"`
	At   Point  `yaml:"at"`
}

type TerrainSpec struct {
	At      Point  `yaml:"at"`
	Terrain string `yaml:"terrain"`
	NoItems bool   `yaml:"no_items"`
}

type PartSpec struct {
	Name     string     `yaml:"name"`
	Offset   Point      `yaml:"offset"`
	Capacity int        `yaml:"capacity"`
	Items    []ItemSpec `yaml:"items"`
}

type VehicleSpec struct {
	Name  string     `yaml:"name"`
	At    Point      `yaml:"at"`
	Parts []PartSpec `yaml:"parts"`
}

type GroundSpec struct {
	At    Point      `yaml:"at"`
	Items []ItemSpec `yaml:"items"`
}

type PaneSpec struct {
	Area      string `yaml:"area"`
	InVehicle bool   `yaml:"in_vehicle"`
	Filter    string `yaml:"filter"`
	Sort      string `yaml:"sort"`
}

// Answers are consumed in order by the scripted prompter. Destinations use
// area labels, with a trailing "*" for vehicle cargo ("S*").
type Answers struct {
	Destinations []string `yaml:"destinations"`
	Quantities   []int    `yaml:"quantities"`
}

// Action is one user command. Do is an area selection action
// (ITEMS_INVENTORY, ITEMS_AROUND, ...) or one of the commands in runner.go.
type Action struct {
	Do    string `yaml:"do"`
	Qty   int    `yaml:"qty"`
	Count int    `yaml:"count"`
	Text  string `yaml:"text"`
	At    *Point `yaml:"at"`
}

type Scenario struct {
	Name            string        `yaml:"name"`
	Actor           ActorSpec     `yaml:"actor"`
	Drag            *Point        `yaml:"drag"`
	Terrain         []TerrainSpec `yaml:"terrain"`
	Vehicles        []VehicleSpec `yaml:"vehicles"`
	Inventory       []ItemSpec    `yaml:"inventory"`
	Worn            []ItemSpec    `yaml:"worn"`
	Ground          []GroundSpec  `yaml:"ground"`
	Left            PaneSpec      `yaml:"left"`
	Right           PaneSpec      `yaml:"right"`
	VehicleOverride bool          `yaml:"vehicle_override"`
	Answers         Answers       `yaml:"answers"`
	Actions         []Action      `yaml:"actions"`
}

// Limits sizes the storage the scenario builds.
type Limits struct {
	TileCapacity int
	TileLimit    int
	CarryVolume  int
	WornLimit    int
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a scenario from YAML bytes.
func Parse(raw []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if sc.Actor.Name == "" {
		sc.Actor.Name = "you"
	}
	for i, a := range sc.Actions {
		if a.Do == "" {
			return nil, fmt.Errorf("action #%d: missing do", i)
		}
	}
	return &sc, nil
}

// Build creates the world the scenario describes. Every item goes through
// world.Place, so a fixture that breaks a capacity or liquid rule fails here
// instead of producing an impossible world.
func (sc *Scenario) Build(cat *data.Catalog, lim Limits) (*world.State, error) {
	actor := world.NewActor(sc.Actor.Name, sc.Actor.At.world(), lim.CarryVolume, lim.WornLimit)
	st := world.NewState(actor, lim.TileCapacity, lim.TileLimit)
	if sc.Drag != nil {
		actor.StartDrag(sc.Drag.world())
	}
	for _, t := range sc.Terrain {
		st.SetTerrain(t.At.world(), t.Terrain, t.NoItems)
	}

	if err := fill(cat, actor.Inventory, sc.Inventory); err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	if err := fill(cat, actor.Worn, sc.Worn); err != nil {
		return nil, fmt.Errorf("worn: %w", err)
	}
	for _, g := range sc.Ground {
		tile := st.Tile(g.At.world())
		if tile.NoItems && len(g.Items) > 0 {
			return nil, fmt.Errorf("ground %v: %s cannot hold items", g.At, tile.Terrain)
		}
		if err := fill(cat, tile.Items, g.Items); err != nil {
			return nil, fmt.Errorf("ground %v: %w", g.At, err)
		}
	}
	for _, vs := range sc.Vehicles {
		v := &world.Vehicle{Name: vs.Name, Pos: vs.At.world()}
		for _, ps := range vs.Parts {
			part := &world.CargoPart{Name: ps.Name, Offset: ps.Offset.world(), Cargo: world.NewPile(ps.Capacity, 0)}
			if err := fill(cat, part.Cargo, ps.Items); err != nil {
				return nil, fmt.Errorf("vehicle %s part %s: %w", vs.Name, ps.Name, err)
			}
			v.Parts = append(v.Parts, part)
		}
		st.AddVehicle(v)
	}
	return st, nil
}

func fill(cat *data.Catalog, s world.Store, specs []ItemSpec) error {
	for _, spec := range specs {
		items, err := build(cat, spec)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := world.CheckDepth(it); err != nil {
				return fmt.Errorf("%s: %w", it.Name(), err)
			}
			rem, err := world.Place(s, it, it.Count())
			if err != nil {
				return fmt.Errorf("%s: %w", it.Name(), err)
			}
			if rem > 0 {
				return fmt.Errorf("%s: %d units left over: %w", it.Name(), rem, world.ErrNoRoom)
			}
		}
	}
	return nil
}

func build(cat *data.Catalog, spec ItemSpec) ([]*world.Item, error) {
	t := cat.Get(spec.Type)
	if t == nil {
		return nil, fmt.Errorf("unknown item type %q", spec.Type)
	}
	if t.Stackable {
		n := spec.Charges
		if n <= 0 {
			n = 1
		}
		if len(spec.Contents) > 0 {
			return nil, fmt.Errorf("%s: stackable items hold nothing", t.ID)
		}
		return []*world.Item{world.NewCharges(t, n)}, nil
	}
	if len(spec.Contents) > 0 && !t.IsContainer() {
		return nil, fmt.Errorf("%s is not a container", t.ID)
	}
	count := spec.Count
	if count <= 0 {
		count = 1
	}
	out := make([]*world.Item, 0, count)
	for i := 0; i < count; i++ {
		it := world.NewItem(t)
		if t.IsContainer() {
			if err := fill(cat, world.StackOf(it), spec.Contents); err != nil {
				return nil, fmt.Errorf("in %s: %w", t.ID, err)
			}
		}
		out = append(out, it)
	}
	return out, nil
}

// ParseTarget reads an area label with an optional "*" suffix for vehicle
// cargo.
func ParseTarget(s string) (area.Target, error) {
	s = strings.TrimSpace(s)
	inVehicle := strings.HasSuffix(s, "*")
	id, ok := area.FromShort(strings.TrimSuffix(s, "*"))
	if !ok {
		return area.Target{}, fmt.Errorf("unknown area %q", s)
	}
	return area.Target{ID: id, InVehicle: inVehicle}, nil
}
