package transfer

import (
	"context"
	"fmt"

	"github.com/l1jgo/advinv/internal/area"
	"github.com/l1jgo/advinv/internal/core/event"
	"github.com/l1jgo/advinv/internal/world"
)

// source is an item resolved for removal: the sequence directly holding it
// and its position there. parent is the holding container when the item is
// not a root of its area.
type source struct {
	target area.Target
	item   *world.Item
	store  world.Store
	index  int
	parent *world.Item
}

func (s source) take(qty int) int {
	return world.Take(s.store, s.index, qty)
}

// locate resolves loc inside src. Removing from the aggregate area, or from
// an area with no storage in that mode, is a caller bug.
func (e *Engine) locate(src area.Target, loc world.Locator) (source, error) {
	if src.ID == area.All {
		panic("transfer: remove from the aggregate area")
	}
	root := e.set.Store(src)
	if root == nil {
		panic(fmt.Sprintf("transfer: %s has no storage to remove from", src))
	}
	loc, err := world.Reanchor(root, loc)
	if err != nil {
		return source{}, err
	}
	// leaf-to-root: chain[0] is the item, chain[1] the container holding it
	chain := world.FindAncestors(root.At(loc.Root), loc.ID)
	if len(chain) == 0 {
		return source{}, fmt.Errorf("item %d: %w", loc.ID, world.ErrNoSuchLocator)
	}
	s := source{target: src, item: chain[0], store: root, index: loc.Root}
	if len(chain) > 1 {
		s.parent = chain[1]
		s.store = world.StackOf(chain[1])
		s.index = world.IndexOf(s.store, chain[0])
	}
	return s, nil
}

// MoveItem moves qty units of the item at loc in src to dst. dst may be the
// aggregate area, in which case the user picks a concrete one. A partial
// move is not an error; when nothing moved the error says why and nothing
// changed.
func (e *Engine) MoveItem(ctx context.Context, src area.Target, loc world.Locator, dst area.Target, qty int) (Outcome, error) {
	out := Outcome{From: src, To: dst}
	to, err := e.resolveDestination(ctx, src, dst)
	out.To = to
	if err != nil {
		return e.reject(ctx, out, err)
	}
	s, err := e.locate(src, loc)
	if err != nil {
		return e.reject(ctx, out, err)
	}
	out.Item, out.ItemID = s.item.Name(), s.item.UID()
	return e.move(ctx, s, to, qty, out)
}

func (e *Engine) move(ctx context.Context, s source, dst area.Target, qty int, out Outcome) (Outcome, error) {
	it := s.item
	if s.parent == nil && e.set.Same(s.target, dst) {
		return e.reject(ctx, out, fmt.Errorf("%s to %s: %w", s.target, dst, ErrSameStorage))
	}
	ds := e.set.Store(dst)
	if ds == nil {
		return e.reject(ctx, out, fmt.Errorf("%s: %w", dst, ErrInvalidArea))
	}
	// a nested item moved into the container already holding it
	if st, ok := ds.(*world.Stack); ok && s.parent != nil && st.Container() == s.parent {
		return e.reject(ctx, out, fmt.Errorf("%s already in %s: %w", it.Name(), s.parent.Name(), ErrSameStorage))
	}
	if err := checkCycle(it, ds); err != nil {
		return e.reject(ctx, out, err)
	}

	if it.IsLiquid() {
		return e.moveLiquid(ctx, s, ds, qty, out)
	}
	// a bottle of water dropped into a focused container is poured into it
	if front := it.Front(); front != nil && front.IsLiquid() {
		if into, ok := ds.(*world.Stack); ok {
			return e.pour(ctx, it, into.Container(), qty, out)
		}
	}

	qty, err := e.quantity(ctx, it, ds, qty)
	if err != nil {
		return e.reject(ctx, out, err)
	}
	out.Attempted = qty
	if qty == 0 {
		return out, nil
	}
	rem, err := world.Place(ds, it, qty)
	moved := qty - rem
	if moved == 0 {
		return e.reject(ctx, out, err)
	}
	s.take(moved)
	out.Moved = moved
	e.moved(out)
	return out, nil
}

// checkCycle refuses to put an item into a container nested inside it.
func checkCycle(it *world.Item, ds world.Store) error {
	st, ok := ds.(*world.Stack)
	if !ok {
		return nil
	}
	c := st.Container()
	if c == it || (c.UID().Valid() && world.Find(it, c.UID()) != nil) {
		return fmt.Errorf("%s into %s: %w", it.Name(), c.Name(), world.ErrIncompatible)
	}
	return nil
}

// quantity resolves the requested amount: whole units for non-stackable
// items, the prompt for AskQuantity, clamped to what is held.
func (e *Engine) quantity(ctx context.Context, it *world.Item, ds world.Store, qty int) (int, error) {
	count := it.Count()
	if !it.Stackable() {
		return 1, nil
	}
	if qty == AskQuantity {
		most := count
		if fit, err := world.Fit(ds, it, count); err == nil {
			most = fit
		}
		n, err := e.ask(ctx, it, most)
		if err != nil {
			return 0, err
		}
		return n, nil
	}
	if qty <= 0 || qty > count {
		qty = count
	}
	return qty, nil
}

func (e *Engine) ask(ctx context.Context, it *world.Item, most int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, cancelled(err)
	}
	n, err := e.prompt.ChooseQuantity(ctx, it, most)
	if err != nil {
		return 0, cancelled(err)
	}
	if n < 0 {
		n = 0
	}
	if n > it.Count() {
		n = it.Count()
	}
	return n, nil
}

// moveLiquid sends a loose liquid to a container: the focused one when ds
// is a container view, otherwise a compatible container lying in ds. It
// never lands loose and never splits across two places.
func (e *Engine) moveLiquid(ctx context.Context, s source, ds world.Store, qty int, out Outcome) (Outcome, error) {
	it := s.item
	if qty == AskQuantity {
		n, err := e.ask(ctx, it, it.Count())
		if err != nil {
			return e.reject(ctx, out, err)
		}
		qty = n
		if qty == 0 {
			return out, nil
		}
	} else if qty <= 0 || qty > it.Count() {
		qty = it.Count()
	}
	out.Attempted = qty

	into := liquidTarget(it, s.parent, ds, qty)
	if into == nil {
		return e.reject(ctx, out, fmt.Errorf("%s: %w: %w", it.Name(), ErrNoContainer, world.ErrLooseLiquid))
	}
	return e.pourUnits(ctx, s, into, qty, out)
}

// liquidTarget picks the container a liquid goes to. Containers already
// holding the same liquid win over empty ones.
func liquidTarget(it, own *world.Item, ds world.Store, qty int) *world.Item {
	if st, ok := ds.(*world.Stack); ok {
		if st.Container() == own {
			return nil
		}
		return st.Container()
	}
	var empty *world.Item
	for i := 0; i < ds.Len(); i++ {
		c := ds.At(i)
		if c == own || !c.IsContainer() {
			continue
		}
		fit, err := world.Fit(world.StackOf(c), it, qty)
		if err != nil || fit < qty {
			continue
		}
		if c.Front() != nil {
			return c
		}
		if empty == nil {
			empty = c
		}
	}
	return empty
}

// pourUnits moves exactly qty units of the liquid s.item into into, or
// nothing at all.
func (e *Engine) pourUnits(ctx context.Context, s source, into *world.Item, qty int, out Outcome) (Outcome, error) {
	it := s.item
	st := world.StackOf(into)
	fit, err := world.Fit(st, it, qty)
	if err != nil {
		return e.reject(ctx, out, err)
	}
	if fit < qty {
		return e.reject(ctx, out, fmt.Errorf("only %d of %d %s fit in %s: %w", fit, qty, it.Name(), into.Name(), world.ErrNoRoom))
	}
	if _, err := world.Place(st, it, qty); err != nil {
		return e.reject(ctx, out, err)
	}
	s.take(qty)
	out.Moved = qty
	e.moved(out)
	fromID := it.UID()
	if s.parent != nil {
		fromID = s.parent.UID()
	}
	event.Emit(e.bus, event.ContentsPoured{FromID: fromID, ToID: into.UID(), Name: it.Name(), Units: qty})
	return out, nil
}
