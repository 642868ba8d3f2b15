package scenario

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/l1jgo/advinv/internal/area"
	"github.com/l1jgo/advinv/internal/core/ident"
	"github.com/l1jgo/advinv/internal/data"
	"github.com/l1jgo/advinv/internal/filter"
	"github.com/l1jgo/advinv/internal/pane"
	"github.com/l1jgo/advinv/internal/scripting"
	"github.com/l1jgo/advinv/internal/settings"
	"github.com/l1jgo/advinv/internal/transfer"
	"github.com/l1jgo/advinv/internal/world"
)

const catalogYAML = `
items:
  - id: rock
    category: spare parts
    volume: 250
    weight: 1000
  - id: nail
    category: spare parts
    volume: 1
    weight: 5
    stackable: true
  - id: water
    phase: liquid
    volume: 1
    weight: 1
  - id: socks
    volume: 100
    weight: 50
    wearable: true
  - id: bottle
    volume: 500
    weight: 20
    container: {max_volume: 10, watertight: true}
  - id: bag
    volume: 1000
    weight: 100
    container: {max_volume: 1000}
`

var testLimits = Limits{TileCapacity: 10000, CarryVolume: 5000, WornLimit: 2}

func testCatalog(t *testing.T) *data.Catalog {
	t.Helper()
	cat, err := data.ParseCatalog([]byte(catalogYAML))
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	sc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return sc
}

func TestBuildWorld(t *testing.T) {
	sc := mustParse(t, `
actor: {name: Hauler, at: {x: 2, y: 2}}
drag: {x: 0, y: 1}
terrain:
  - {at: {x: 3, y: 2}, terrain: wall, no_items: true}
inventory:
  - type: bottle
    contents: [{type: water, charges: 7}]
  - {type: nail, charges: 12}
worn:
  - type: socks
ground:
  - at: {x: 2, y: 2}
    items: [{type: rock, count: 3}]
vehicles:
  - name: cart
    at: {x: 2, y: 3}
    parts:
      - {name: bed, capacity: 2000, items: [{type: bag, contents: [{type: rock}]}]}
`)
	st, err := sc.Build(testCatalog(t), testLimits)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	a := st.Actor
	if a.Name != "Hauler" || a.Pos != (world.Point{X: 2, Y: 2}) || !a.Dragging {
		t.Fatalf("actor = %+v", a)
	}
	if a.Inventory.Len() != 2 || a.Inventory.At(0).Front().Charges != 7 || a.Inventory.At(1).Charges != 12 {
		t.Fatalf("inventory not built")
	}
	if a.Worn.Len() != 1 {
		t.Fatalf("worn = %d", a.Worn.Len())
	}
	if n := st.Tile(world.Point{X: 2, Y: 2}).Items.Len(); n != 3 {
		t.Fatalf("ground rocks = %d", n)
	}
	if !st.Tile(world.Point{X: 3, Y: 2}).NoItems {
		t.Fatalf("terrain not applied")
	}
	v, part := st.VehicleAt(world.Point{X: 2, Y: 3})
	if v == nil || v.Cargo(part).At(0).Front().Type.ID != "rock" {
		t.Fatalf("vehicle cargo not built")
	}

	// the dragged cart is the south square's cargo
	set := area.NewSet(st, ident.NewRegistry())
	if !set.Same(area.Target{ID: area.Dragged}, area.Target{ID: area.South, InVehicle: true}) {
		t.Fatalf("dragged cart is not the south cargo")
	}
}

func TestBuildRejectsImpossibleWorlds(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{"loose liquid", "inventory: [{type: water, charges: 3}]", world.ErrLooseLiquid},
		{"too many worn", "worn: [{type: socks, count: 3}]", world.ErrNoRoom},
		{"unworn junk", "worn: [{type: rock}]", world.ErrIncompatible},
		{"overfull bottle", "inventory: [{type: bottle, contents: [{type: water, charges: 11}]}]", world.ErrNoRoom},
	}
	for _, c := range cases {
		_, err := mustParse(t, c.src).Build(testCatalog(t), testLimits)
		if !errors.Is(err, c.want) {
			t.Fatalf("%s: want %v, got %v", c.name, c.want, err)
		}
	}

	for _, src := range []string{
		"inventory: [{type: unobtainium}]",
		"inventory: [{type: rock, contents: [{type: nail}]}]",
		"terrain: [{at: {x: 0, y: 0}, terrain: wall, no_items: true}]\nground: [{at: {x: 0, y: 0}, items: [{type: rock}]}]",
	} {
		if _, err := mustParse(t, src).Build(testCatalog(t), testLimits); err == nil {
			t.Fatalf("%q: expected an error", src)
		}
	}
}

func TestParseRequiresActionNames(t *testing.T) {
	if _, err := Parse([]byte("actions: [{qty: 2}]")); err == nil {
		t.Fatalf("action without do accepted")
	}
}

func TestParseTarget(t *testing.T) {
	cases := map[string]area.Target{
		"I":   {ID: area.Inventory},
		"s*":  {ID: area.South, InVehicle: true},
		" DN": {ID: area.Center},
		"AL":  {ID: area.All},
	}
	for in, want := range cases {
		got, err := ParseTarget(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseTarget("Q"); err == nil {
		t.Fatalf("bad label parsed")
	}
}

func TestPrompterRunsOut(t *testing.T) {
	p, err := NewPrompter(Answers{Destinations: []string{"E*"}, Quantities: []int{3}}, zap.NewNop())
	if err != nil {
		t.Fatalf("prompter: %v", err)
	}
	ctx := context.Background()
	got, err := p.ChooseDestination(ctx, nil, area.Target{})
	if err != nil || got != (area.Target{ID: area.East, InVehicle: true}) {
		t.Fatalf("first destination: %v, %v", got, err)
	}
	if _, err := p.ChooseDestination(ctx, nil, got); !errors.Is(err, ErrNoAnswer) {
		t.Fatalf("want ErrNoAnswer, got %v", err)
	}
	if n, err := p.ChooseQuantity(ctx, &world.Item{}, 10); err != nil || n != 3 {
		t.Fatalf("quantity: %d, %v", n, err)
	}
	if d, q := p.Remaining(); d != 0 || q != 0 {
		t.Fatalf("remaining = %d, %d", d, q)
	}
	if _, err := NewPrompter(Answers{Destinations: []string{"nowhere"}}, zap.NewNop()); err == nil {
		t.Fatalf("bad destination answer accepted")
	}
}

type session struct {
	st     *world.State
	set    *area.Set
	runner *Runner
	prompt *Prompter
}

func newSession(t *testing.T, src string) (*session, *Scenario) {
	t.Helper()
	sc := mustParse(t, src)
	st, err := sc.Build(testCatalog(t), testLimits)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	set := area.NewSet(st, ident.NewRegistry())
	prompt, err := NewPrompter(sc.Answers, zap.NewNop())
	if err != nil {
		t.Fatalf("prompter: %v", err)
	}
	cache, err := filter.NewCache(8, nil)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	eng := transfer.NewEngine(set, prompt, nil, zap.NewNop())
	left := pane.New("left", area.Inventory, cache, 10)
	right := pane.New("right", area.Center, cache, 10)
	r := NewRunner(set, eng, left, right, zap.NewNop())
	if err := r.Configure(sc.Left, sc.Right); err != nil {
		t.Fatalf("configure: %v", err)
	}
	return &session{st: st, set: set, runner: r, prompt: prompt}, sc
}

func TestRunnerMovesFromGround(t *testing.T) {
	s, sc := newSession(t, `
ground:
  - at: {x: 0, y: 0}
    items: [{type: rock, count: 3}, {type: nail, charges: 10}]
left: {area: I}
right: {area: DN}
answers:
  quantities: [4]
actions:
  - do: TOGGLE_TAB
  - {do: FILTER, text: nail}
  - {do: MOVE_ITEM, qty: -1}
  - {do: FILTER, text: ""}
  - do: MOVE_ALL_ITEMS
`)
	if err := s.runner.Run(context.Background(), sc.Actions); err != nil {
		t.Fatalf("run: %v", err)
	}
	inv := s.st.Actor.Inventory
	if inv.Len() != 4 {
		t.Fatalf("inventory = %d entries, want nails + 3 rocks", inv.Len())
	}
	if inv.At(0).Type.ID != "nail" || inv.At(0).Charges != 10 {
		t.Fatalf("nails did not merge: %+v", inv.At(0))
	}
	if n := s.st.Tile(world.Point{}).Items.Len(); n != 0 {
		t.Fatalf("ground still holds %d", n)
	}
	left := s.runner.Panes()[0]
	if len(left.Entries()) != 2 {
		t.Fatalf("left pane rows = %d, want nails and grouped rocks", len(left.Entries()))
	}
	if s.runner.Active() != s.runner.Panes()[1] {
		t.Fatalf("tab did not toggle")
	}
}

func TestRunnerFillsOpenedContainer(t *testing.T) {
	s, sc := newSession(t, `
inventory: [{type: bag}]
ground:
  - at: {x: 0, y: 0}
    items: [{type: rock}]
left: {area: I}
right: {area: DN}
actions:
  - do: OPEN
  - do: TOGGLE_TAB
  - do: MOVE_ITEM
  - do: TOGGLE_TAB
  - do: BACK
`)
	if err := s.runner.Run(context.Background(), sc.Actions); err != nil {
		t.Fatalf("run: %v", err)
	}
	bag := s.st.Actor.Inventory.At(0)
	if len(bag.Contents) != 1 || bag.Contents[0].Type.ID != "rock" {
		t.Fatalf("bag contents = %v", bag.Contents)
	}
	if s.runner.Panes()[0].Area != area.Inventory {
		t.Fatalf("BACK did not leave the container view")
	}
	if _, err := s.set.Get(area.Container).Focused(); !errors.Is(err, area.ErrNoFocus) {
		t.Fatalf("focus kept after leaving: %v", err)
	}
}

func TestRunnerAsksForAggregateDestination(t *testing.T) {
	s, sc := newSession(t, `
inventory: [{type: rock}]
left: {area: I}
right: {area: AL}
answers:
  destinations: [E]
actions:
  - do: MOVE_ITEM
  - do: MOVE_ITEM
`)
	if err := s.runner.Run(context.Background(), sc.Actions); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := s.st.Tile(world.Point{X: 1}).Items.Len(); n != 1 {
		t.Fatalf("east holds %d, want the rock", n)
	}
	// the second move had nothing selected and must not have prompted
	if len(s.prompt.Notes) != 0 {
		t.Fatalf("unexpected notes: %v", s.prompt.Notes)
	}
}

func TestRunnerReportsFailuresAndStopsOnUnknown(t *testing.T) {
	s, sc := newSession(t, `
ground:
  - at: {x: 0, y: 0}
    items: [{type: rock}]
left: {area: I}
right: {area: DN}
actions:
  - do: TOGGLE_TAB
  - do: ITEMS_CE
  - do: TOGGLE_TAB
  - do: ITEMS_CE
  - do: TOGGLE_TAB
  - do: MOVE_ITEM
  - do: DANCE
  - do: ITEMS_WORN
`)
	err := s.runner.Run(context.Background(), sc.Actions)
	if !errors.Is(err, ErrUnknownAction) || !strings.Contains(err.Error(), "DANCE") {
		t.Fatalf("want unknown action error, got %v", err)
	}
	if len(s.prompt.Notes) != 1 {
		t.Fatalf("same-storage move should be reported once, notes = %v", s.prompt.Notes)
	}
	if s.runner.Panes()[1].Area == area.Worn {
		t.Fatalf("run continued past the unknown action")
	}
}

func TestRunnerSettingsRoundTrip(t *testing.T) {
	s, _ := newSession(t, `
left: {area: I, filter: "c:spare", sort: weight}
right: {area: "S*"}
`)
	store := settings.NewMemoryStore()
	ctx := context.Background()
	b := settings.NewBlob()
	s.runner.Save(b)
	if err := store.Save(ctx, "p", b); err != nil {
		t.Fatalf("save: %v", err)
	}

	fresh, _ := newSession(t, "left: {area: W}\n")
	loaded, err := store.Load(ctx, "p")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := fresh.runner.Load(loaded); err != nil {
		t.Fatalf("apply: %v", err)
	}
	left, right := fresh.runner.Panes()[0], fresh.runner.Panes()[1]
	if left.Area != area.Inventory || left.FilterText() != "c:spare" || left.Sort != pane.SortWeight {
		t.Fatalf("left pane not restored: area=%s filter=%q sort=%s", left.Area, left.FilterText(), left.Sort)
	}
	if right.Area != area.South || !right.InVehicle {
		t.Fatalf("right pane not restored: %s vehicle=%v", right.Area, right.InVehicle)
	}
}

func TestDemoScenario(t *testing.T) {
	cat, err := data.LoadCatalog("../../data/items.yaml")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	sc, err := Load("../../scenarios/demo.yaml")
	if err != nil {
		t.Fatalf("scenario: %v", err)
	}
	st, err := sc.Build(cat, Limits{TileCapacity: 1000000, TileLimit: 4096, CarryVolume: 15000, WornLimit: 32})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	lua, err := scripting.NewEngine("../../scripts", zap.NewNop())
	if err != nil {
		t.Fatalf("scripting: %v", err)
	}
	defer lua.Close()

	reg := ident.NewRegistry()
	reg.SetStart(ident.ID(st.MaxUID()))
	set := area.NewSet(st, reg)
	prompt, err := NewPrompter(sc.Answers, zap.NewNop())
	if err != nil {
		t.Fatalf("prompter: %v", err)
	}
	cache, err := filter.NewCache(16, lua)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	r := NewRunner(set, transfer.NewEngine(set, prompt, nil, zap.NewNop()),
		pane.New("left", area.Inventory, cache, 20), pane.New("right", area.All, cache, 20), zap.NewNop())
	if err := r.Configure(sc.Left, sc.Right); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := r.Run(context.Background(), sc.Actions); err != nil {
		t.Fatalf("run: %v", err)
	}

	if d, q := prompt.Remaining(); d != 0 || q != 0 {
		t.Fatalf("unused answers: %d destinations, %d quantities", d, q)
	}
	// bottle already there, then four rocks and the two planks
	if n := st.Tile(world.Point{X: -1}).Items.Len(); n != 7 {
		t.Fatalf("west holds %d entries, want 7", n)
	}
	toolbox := st.Vehicles[0].Cargo(0).At(1)
	if toolbox.Type.ID != "toolbox" || toolbox.Contents[2].Charges != 122 {
		t.Fatalf("nails not added to the toolbox: %s", toolbox.DisplayName())
	}
	if st.Actor.Dragging {
		t.Fatalf("cart still dragged")
	}
}
