package transfer

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/l1jgo/advinv/internal/area"
	"github.com/l1jgo/advinv/internal/core/event"
	"github.com/l1jgo/advinv/internal/core/ident"
	"github.com/l1jgo/advinv/internal/data"
	"github.com/l1jgo/advinv/internal/filter"
	"github.com/l1jgo/advinv/internal/pane"
	"github.com/l1jgo/advinv/internal/world"
)

var (
	rockType   = &data.ItemType{ID: "rock", Name: "rock", Volume: 250, Weight: 1000}
	nailType   = &data.ItemType{ID: "nail", Name: "nail", Volume: 1, Weight: 5, Stackable: true}
	waterType  = &data.ItemType{ID: "water", Name: "water", Volume: 1, Weight: 1, Stackable: true, Phase: data.PhaseLiquid}
	oilType    = &data.ItemType{ID: "oil", Name: "oil", Volume: 1, Weight: 1, Stackable: true, Phase: data.PhaseLiquid}
	jarType    = &data.ItemType{ID: "jar", Name: "jar", Volume: 500, Weight: 200, Container: &data.ContainerSpec{MaxVolume: 6, Watertight: true}}
	bottleType = &data.ItemType{ID: "bottle", Name: "bottle", Volume: 500, Weight: 100, Container: &data.ContainerSpec{MaxVolume: 20, Watertight: true}}
	bagType    = &data.ItemType{ID: "bag", Name: "bag", Volume: 1000, Weight: 100, Container: &data.ContainerSpec{MaxVolume: 1000}}
	boxType    = &data.ItemType{ID: "box", Name: "box", Volume: 3000, Weight: 500, Container: &data.ContainerSpec{MaxVolume: 2500}}
)

type fakePrompt struct {
	dest    area.Target
	destErr error
	qty     int
	qtyErr  error
	asked   int
	notes   []string
}

func (p *fakePrompt) ChooseDestination(_ context.Context, candidates []area.Target, _ area.Target) (area.Target, error) {
	p.asked++
	if p.destErr != nil {
		return area.Target{}, p.destErr
	}
	return p.dest, nil
}

func (p *fakePrompt) ChooseQuantity(_ context.Context, _ *world.Item, most int) (int, error) {
	p.asked++
	if p.qtyErr != nil {
		return 0, p.qtyErr
	}
	if p.qty > most {
		return most, nil
	}
	return p.qty, nil
}

func (p *fakePrompt) Notify(_ context.Context, msg string) { p.notes = append(p.notes, msg) }

type fixture struct {
	st     *world.State
	set    *area.Set
	eng    *Engine
	prompt *fakePrompt
	bus    *event.Bus
}

func newFixture(t *testing.T, carry int) *fixture {
	t.Helper()
	actor := world.NewActor("hauler", world.Point{}, carry, 4)
	st := world.NewState(actor, 10000, 0)
	set := area.NewSet(st, ident.NewRegistry())
	f := &fixture{st: st, set: set, prompt: &fakePrompt{}, bus: event.NewBus()}
	f.eng = NewEngine(set, f.prompt, f.bus, zap.NewNop())
	return f
}

func (f *fixture) store(id area.ID) world.Store { return f.set.Get(id).Store(false) }

func (f *fixture) locate(t *testing.T, id area.ID, pos int, it *world.Item) world.Locator {
	t.Helper()
	loc, err := world.Locate(f.set.Registry(), f.store(id), pos, it)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	return loc
}

func at(id area.ID) area.Target { return area.Target{ID: id} }

func TestLiquidNeverLandsLoose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5000)
	bottle := world.NewContainer(bottleType, world.NewCharges(waterType, 5))
	f.store(area.Center).Append(bottle)
	loc := f.locate(t, area.Center, 0, bottle.Contents[0])

	out, err := f.eng.MoveItem(ctx, at(area.Center), loc, at(area.West), 0)
	if !errors.Is(err, world.ErrLooseLiquid) {
		t.Fatalf("expected ErrLooseLiquid, got %v", err)
	}
	if out.Moved != 0 || bottle.Contents[0].Charges != 5 || f.store(area.West).Len() != 0 {
		t.Fatalf("rejected move changed state: moved %d, bottle %d, west %d",
			out.Moved, bottle.Contents[0].Charges, f.store(area.West).Len())
	}
	if len(f.prompt.notes) != 1 {
		t.Fatalf("user should be told once, got %v", f.prompt.notes)
	}

	jar := world.NewItem(jarType)
	f.store(area.West).Append(jar)
	out, err = f.eng.MoveItem(ctx, at(area.Center), loc, at(area.West), 0)
	if err != nil {
		t.Fatalf("move into jar: %v", err)
	}
	if out.Moved != 5 || len(jar.Contents) != 1 || jar.Contents[0].Charges != 5 || len(bottle.Contents) != 0 {
		t.Fatalf("liquid should move whole: moved %d", out.Moved)
	}
	if f.store(area.West).Len() != 1 {
		t.Fatalf("liquid leaked onto the ground")
	}
}

func TestLiquidAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5000)
	bottle := world.NewContainer(bottleType, world.NewCharges(waterType, 8))
	f.store(area.Center).Append(bottle)
	jar := world.NewItem(jarType)
	f.store(area.East).Append(jar)
	loc := f.locate(t, area.Center, 0, bottle.Contents[0])

	if _, err := f.eng.MoveItem(ctx, at(area.Center), loc, at(area.East), 0); !errors.Is(err, ErrNoContainer) {
		t.Fatalf("8 units cannot go in a 6 jar: %v", err)
	}

	jarLoc := f.locate(t, area.East, 0, jar)
	if err := f.set.Get(area.Container).FocusContainer(at(area.East), jarLoc); err != nil {
		t.Fatalf("focus: %v", err)
	}
	out, err := f.eng.MoveItem(ctx, at(area.Center), loc, at(area.Container), 0)
	if !errors.Is(err, world.ErrNoRoom) {
		t.Fatalf("expected ErrNoRoom, got %v", err)
	}
	if out.Moved != 0 || bottle.Contents[0].Charges != 8 || len(jar.Contents) != 0 {
		t.Fatalf("partial liquid move happened")
	}

	oil := world.NewContainer(bottleType, world.NewCharges(oilType, 2))
	f.store(area.Center).Append(oil)
	jar.Contents = append(jar.Contents, world.NewCharges(waterType, 1))
	oilLoc := f.locate(t, area.Center, 1, oil.Contents[0])
	if _, err := f.eng.MoveItem(ctx, at(area.Center), oilLoc, at(area.Container), 0); !errors.Is(err, world.ErrIncompatible) {
		t.Fatalf("oil mixed into water: %v", err)
	}
}

func TestMergeReportsRemainder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 6)
	f.store(area.Inventory).Append(world.NewCharges(nailType, 3))
	nails := world.NewCharges(nailType, 5)
	f.store(area.Center).Append(nails)

	out, err := f.eng.MoveItem(ctx, at(area.Center), f.locate(t, area.Center, 0, nails), at(area.Inventory), 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if out.Attempted != 5 || out.Moved != 3 || out.Full() {
		t.Fatalf("expected 3 of 5 moved, got %d of %d", out.Moved, out.Attempted)
	}
	inv := f.store(area.Inventory)
	if inv.Len() != 1 || inv.At(0).Charges != 6 {
		t.Fatalf("charges not merged into one stack of 6")
	}
	if nails.Charges != 2 {
		t.Fatalf("remainder should stay on the ground, got %d", nails.Charges)
	}
}

func TestMoveAllToleratesFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 7*250)
	ground := f.store(area.Center)
	rocks := make([]*world.Item, 10)
	for i := range rocks {
		rocks[i] = world.NewItem(rockType)
		ground.Append(rocks[i])
	}

	res, err := f.eng.MoveAll(ctx, at(area.Center), at(area.Inventory), nil)
	if err != nil {
		t.Fatalf("move all: %v", err)
	}
	if res.Attempted != 10 || res.Moved != 7 || res.Failed != 3 {
		t.Fatalf("expected 7 moved and 3 failed, got %+v", res)
	}
	if ground.Len() != 3 {
		t.Fatalf("expected 3 rocks left, got %d", ground.Len())
	}
	for i := 0; i < 3; i++ {
		if ground.At(i) != rocks[7+i] {
			t.Fatalf("failed rock %d was disturbed", i)
		}
		if !errors.Is(res.Outcomes[7+i].Err, world.ErrNoRoom) {
			t.Fatalf("outcome %d: expected ErrNoRoom, got %v", 7+i, res.Outcomes[7+i].Err)
		}
	}
	if len(f.prompt.notes) != 1 {
		t.Fatalf("batch should notify once, got %v", f.prompt.notes)
	}
}

func TestMoveAllFansOutFromAggregate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5000)
	f.store(area.North).Append(world.NewItem(rockType))
	f.store(area.South).Append(world.NewItem(rockType))
	f.store(area.South).Append(world.NewCharges(nailType, 4))

	res, err := f.eng.MoveAll(ctx, at(area.All), at(area.Inventory), nil)
	if err != nil {
		t.Fatalf("move all: %v", err)
	}
	if res.Attempted != 3 || res.Moved != 3 {
		t.Fatalf("expected 3 entries moved, got %+v", res)
	}
	if f.store(area.Inventory).Len() != 3 {
		t.Fatalf("inventory should hold 3 entries")
	}
}

func TestCancellationLeavesStateAlone(t *testing.T) {
	f := newFixture(t, 5000)
	rock := world.NewItem(rockType)
	f.store(area.Center).Append(rock)
	loc := f.locate(t, area.Center, 0, rock)

	f.prompt.destErr = errors.New("escape pressed")
	_, err := f.eng.MoveItem(context.Background(), at(area.Center), loc, at(area.All), 0)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if f.store(area.Center).Len() != 1 || len(f.prompt.notes) != 0 || f.bus.Pending() != 0 {
		t.Fatalf("cancel must not move, notify or emit")
	}

	f.prompt.destErr = nil
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	asked := f.prompt.asked
	if _, err := f.eng.MoveItem(ctx, at(area.Center), loc, at(area.All), 0); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled for a dead context, got %v", err)
	}
	if f.prompt.asked != asked {
		t.Fatalf("prompted after the context ended")
	}
}

func TestAggregateDestinationPrompt(t *testing.T) {
	f := newFixture(t, 5000)
	rock := world.NewItem(rockType)
	f.store(area.Center).Append(rock)
	f.prompt.dest = at(area.North)

	out, err := f.eng.MoveItem(context.Background(), at(area.Center), f.locate(t, area.Center, 0, rock), at(area.All), 0)
	if err != nil || out.Moved != 1 {
		t.Fatalf("move: moved %d err %v", out.Moved, err)
	}
	if f.store(area.North).Len() != 1 || f.store(area.North).At(0) != rock {
		t.Fatalf("rock should be north, same instance")
	}
	if f.eng.LastDestination() != at(area.North) {
		t.Fatalf("last destination not recorded")
	}

	f.prompt.dest = at(area.All)
	loc := f.locate(t, area.North, 0, rock)
	if _, err := f.eng.MoveItem(context.Background(), at(area.North), loc, at(area.All), 0); !errors.Is(err, ErrInvalidArea) {
		t.Fatalf("aggregate is not a valid answer: %v", err)
	}
}

func TestAskQuantity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5000)
	nails := world.NewCharges(nailType, 10)
	f.store(area.Center).Append(nails)
	loc := f.locate(t, area.Center, 0, nails)

	f.prompt.qty = 4
	out, err := f.eng.MoveItem(ctx, at(area.Center), loc, at(area.Inventory), AskQuantity)
	if err != nil || out.Moved != 4 || nails.Charges != 6 {
		t.Fatalf("expected 4 moved, got %d (err %v)", out.Moved, err)
	}

	f.prompt.qty = 0
	out, err = f.eng.MoveItem(ctx, at(area.Center), loc, at(area.Inventory), AskQuantity)
	if err != nil || out.Attempted != 0 || out.Moved != 0 || nails.Charges != 6 {
		t.Fatalf("zero quantity should be a no-op: %+v err %v", out, err)
	}

	f.prompt.qtyErr = errors.New("escape pressed")
	if _, err := f.eng.MoveItem(ctx, at(area.Center), loc, at(area.Inventory), AskQuantity); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}

	// requests beyond the held charges are clamped
	out, _ = f.eng.MoveItem(ctx, at(area.Center), loc, at(area.Inventory), 99)
	if out.Attempted != 6 || out.Moved != 6 || f.store(area.Center).Len() != 0 {
		t.Fatalf("expected the remaining 6 to move, got %+v", out)
	}
	if inv := f.store(area.Inventory); inv.Len() != 1 || inv.At(0).Charges != 10 {
		t.Fatalf("inventory should hold one stack of 10")
	}
}

func TestEquivalentAreasAreNotARelocation(t *testing.T) {
	f := newFixture(t, 5000)
	cart := &world.Vehicle{Name: "cart", Pos: world.Point{X: 0, Y: 1}, Parts: []*world.CargoPart{
		{Name: "bed", Cargo: world.NewPile(3000, 0)},
	}}
	f.st.AddVehicle(cart)
	f.st.Actor.StartDrag(world.Point{X: 0, Y: 1})
	f.set.Refresh()

	rock := world.NewItem(rockType)
	cart.Cargo(0).Append(rock)
	loc, err := world.Locate(f.set.Registry(), cart.Cargo(0), 0, rock)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	_, err = f.eng.MoveItem(context.Background(), at(area.Dragged), loc, area.Target{ID: area.South, InVehicle: true}, 0)
	if !errors.Is(err, ErrSameStorage) {
		t.Fatalf("expected ErrSameStorage, got %v", err)
	}
	if cart.Cargo(0).Len() != 1 {
		t.Fatalf("cargo changed")
	}
	// the ground under the cart is different storage
	if _, err := f.eng.MoveItem(context.Background(), at(area.Dragged), loc, at(area.South), 0); err != nil {
		t.Fatalf("cargo to ground: %v", err)
	}
}

func TestRemoveFromAggregatePanics(t *testing.T) {
	f := newFixture(t, 5000)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic")
		}
	}()
	f.eng.MoveItem(context.Background(), at(area.All), world.Locator{}, at(area.Inventory), 0)
}

func TestMoveContents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5000)
	bottle := world.NewContainer(bottleType, world.NewCharges(waterType, 5))
	bag := world.NewContainer(bagType, world.NewItem(rockType), world.NewItem(rockType))
	f.store(area.Center).Append(bottle)
	f.store(area.Center).Append(bag)
	jar := world.NewItem(jarType)
	f.store(area.West).Append(jar)

	poured := 0
	event.Subscribe(f.bus, func(e event.ContentsPoured) { poured += e.Units })

	if err := f.set.Get(area.Container).FocusContainer(at(area.West), f.locate(t, area.West, 0, jar)); err != nil {
		t.Fatalf("focus: %v", err)
	}
	out, err := f.eng.MoveContents(ctx, at(area.Center), f.locate(t, area.Center, 0, bottle), at(area.Container), 0)
	if err != nil || out.Moved != 5 {
		t.Fatalf("pour: moved %d err %v", out.Moved, err)
	}
	if len(bottle.Contents) != 0 || jar.Contents[0].Charges != 5 {
		t.Fatalf("pour did not move the water")
	}

	out, err = f.eng.MoveContents(ctx, at(area.Center), f.locate(t, area.Center, 1, bag), at(area.Inventory), 0)
	if err != nil || out.Moved != 2 || len(bag.Contents) != 0 || f.store(area.Inventory).Len() != 2 {
		t.Fatalf("empty bag: moved %d err %v", out.Moved, err)
	}

	f.bus.Flush()
	if poured != 5 {
		t.Fatalf("expected one pour event of 5 units, got %d", poured)
	}
}

func TestBottleIntoFocusedContainerPours(t *testing.T) {
	f := newFixture(t, 5000)
	bottle := world.NewContainer(bottleType, world.NewCharges(waterType, 4))
	jar := world.NewItem(jarType)
	f.store(area.Center).Append(bottle)
	f.store(area.Inventory).Append(jar)
	if err := f.set.Get(area.Container).FocusContainer(at(area.Inventory), f.locate(t, area.Inventory, 0, jar)); err != nil {
		t.Fatalf("focus: %v", err)
	}
	out, err := f.eng.MoveItem(context.Background(), at(area.Center), f.locate(t, area.Center, 0, bottle), at(area.Container), 0)
	if err != nil || out.Moved != 4 {
		t.Fatalf("pour: %+v err %v", out, err)
	}
	if f.store(area.Center).At(0) != bottle || len(bottle.Contents) != 0 {
		t.Fatalf("the bottle stays, its water goes")
	}
}

func TestNoContainerInsideItself(t *testing.T) {
	f := newFixture(t, 5000)
	bag := world.NewItem(bagType)
	box := world.NewContainer(boxType, bag)
	f.store(area.Center).Append(box)
	bagLoc := f.locate(t, area.Center, 0, bag)
	if err := f.set.Get(area.Container).FocusContainer(at(area.Center), bagLoc); err != nil {
		t.Fatalf("focus: %v", err)
	}
	boxLoc := f.locate(t, area.Center, 0, box)
	if _, err := f.eng.MoveItem(context.Background(), at(area.Center), boxLoc, at(area.Container), 0); !errors.Is(err, world.ErrIncompatible) {
		t.Fatalf("box went into its own bag: %v", err)
	}
	// taking the bag out of the box onto the same ground is a real move
	if _, err := f.eng.MoveItem(context.Background(), at(area.Center), bagLoc, at(area.Center), 0); err != nil {
		t.Fatalf("unpack bag: %v", err)
	}
	if len(box.Contents) != 0 || f.store(area.Center).Len() != 2 {
		t.Fatalf("bag should now lie next to the box")
	}
}

func TestMoveIntoHoldingContainerIsRefused(t *testing.T) {
	f := newFixture(t, 5000)
	nails := world.NewCharges(nailType, 3)
	rock := world.NewItem(rockType)
	bag := world.NewContainer(bagType, nails, rock)
	f.store(area.Center).Append(bag)
	if err := f.set.Get(area.Container).FocusContainer(at(area.Center), f.locate(t, area.Center, 0, bag)); err != nil {
		t.Fatalf("focus: %v", err)
	}
	moves := 0
	event.Subscribe(f.bus, func(event.ItemsMoved) { moves++ })

	for _, it := range []*world.Item{rock, nails} {
		out, err := f.eng.MoveItem(context.Background(), at(area.Center), f.locate(t, area.Center, 0, it), at(area.Container), 0)
		if !errors.Is(err, ErrSameStorage) {
			t.Fatalf("%s back into its bag: expected ErrSameStorage, got %v", it.Name(), err)
		}
		if out.Moved != 0 {
			t.Fatalf("%s: reported %d moved", it.Name(), out.Moved)
		}
	}
	if len(bag.Contents) != 2 || bag.Contents[0] != nails || bag.Contents[1] != rock || nails.Charges != 3 {
		t.Fatalf("bag contents changed: %v", bag.Contents)
	}
	f.bus.Flush()
	if moves != 0 {
		t.Fatalf("expected no move events, got %d", moves)
	}
}

func TestMoveSelectedGroupedRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5000)
	for i := 0; i < 3; i++ {
		f.store(area.Center).Append(world.NewItem(rockType))
	}
	cache, err := filter.NewCache(4, nil)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	src := pane.New("left", area.Center, cache, 0)
	dst := pane.New("right", area.Inventory, cache, 0)
	src.Rebuild(f.set, false)
	dst.Rebuild(f.set, false)

	out, err := f.eng.MoveSelected(ctx, src, dst, 2)
	if err != nil || out.Attempted != 2 || out.Moved != 2 {
		t.Fatalf("grouped move: %+v err %v", out, err)
	}
	if f.store(area.Center).Len() != 1 || f.store(area.Inventory).Len() != 2 {
		t.Fatalf("expected 1 rock left on the ground")
	}
	if !src.Recalc || !dst.Recalc {
		t.Fatalf("both panes should be flagged for recalculation")
	}
}

func TestMoveAllVisibleHonoursFilter(t *testing.T) {
	f := newFixture(t, 5000)
	f.store(area.Center).Append(world.NewItem(rockType))
	f.store(area.Center).Append(world.NewCharges(nailType, 3))
	cache, _ := filter.NewCache(4, nil)
	src := pane.New("left", area.Center, cache, 0)
	dst := pane.New("right", area.Inventory, cache, 0)
	if err := src.SetFilter("nail"); err != nil {
		t.Fatalf("filter: %v", err)
	}
	res, err := f.eng.MoveAllVisible(context.Background(), src, dst)
	if err != nil || res.Moved != 1 {
		t.Fatalf("expected only the nails to move: %+v err %v", res, err)
	}
	if f.store(area.Center).Len() != 1 || f.store(area.Center).At(0).Name() != "rock" {
		t.Fatalf("rock should stay")
	}
}

func TestEventsEmitted(t *testing.T) {
	f := newFixture(t, 5000)
	rock := world.NewItem(rockType)
	f.store(area.Center).Append(rock)
	var moved, rejected int
	event.Subscribe(f.bus, func(event.ItemsMoved) { moved++ })
	event.Subscribe(f.bus, func(event.TransferRejected) { rejected++ })

	loc := f.locate(t, area.Center, 0, rock)
	f.eng.MoveItem(context.Background(), at(area.Center), loc, at(area.Center), 0)
	f.eng.MoveItem(context.Background(), at(area.Center), loc, at(area.East), 0)
	f.bus.Flush()
	if moved != 1 || rejected != 1 {
		t.Fatalf("expected 1 moved and 1 rejected event, got %d and %d", moved, rejected)
	}
}
