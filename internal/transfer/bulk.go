package transfer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/advinv/internal/area"
	"github.com/l1jgo/advinv/internal/world"
)

// MoveContents empties the container at loc in src toward dst. Liquid goes
// whole into the focused container (dst is the Container area) or into a
// compatible container lying in dst; limit > 0 bounds the units poured.
// Solid contents are moved entry by entry into the focused container or
// straight into dst's storage, and may move partially.
func (e *Engine) MoveContents(ctx context.Context, src area.Target, loc world.Locator, dst area.Target, limit int) (Outcome, error) {
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
	from := s.item
	out.Item, out.ItemID = from.Name(), from.UID()
	if !from.IsContainer() {
		return e.reject(ctx, out, fmt.Errorf("%s: %w", from.Name(), ErrNoContainer))
	}
	if from.Front() == nil {
		return out, nil
	}
	ds := e.set.Store(to)
	if ds == nil {
		return e.reject(ctx, out, fmt.Errorf("%s: %w", to, ErrInvalidArea))
	}
	if into, ok := ds.(*world.Stack); ok {
		return e.pour(ctx, from, into.Container(), limit, out)
	}
	if front := from.Front(); front.IsLiquid() {
		qty := front.Count()
		if limit > 0 && limit < qty {
			qty = limit
		}
		out.Item = front.Name()
		out.Attempted = qty
		into := liquidTarget(front, from, ds, qty)
		if into == nil {
			return e.reject(ctx, out, fmt.Errorf("%s: %w: %w", front.Name(), ErrNoContainer, world.ErrLooseLiquid))
		}
		return e.pour(ctx, from, into, qty, out)
	}
	return e.empty(ctx, from, ds, out)
}

// pour moves from's contents into the container into. A liquid front moves
// whole (or limit units) or not at all.
func (e *Engine) pour(ctx context.Context, from, into *world.Item, limit int, out Outcome) (Outcome, error) {
	if from == into {
		return e.reject(ctx, out, fmt.Errorf("%s into itself: %w", from.Name(), ErrSameStorage))
	}
	st := world.StackOf(into)
	if err := checkCycle(from, st); err != nil {
		return e.reject(ctx, out, err)
	}
	front := from.Front()
	if front == nil {
		return out, nil
	}
	if !front.IsLiquid() {
		return e.empty(ctx, from, st, out)
	}
	qty := front.Count()
	if limit > 0 && limit < qty {
		qty = limit
	}
	out.Item, out.ItemID = front.Name(), front.UID()
	out.Attempted = qty
	s := source{item: front, store: world.StackOf(from), index: 0, parent: from, target: out.From}
	return e.pourUnits(ctx, s, into, qty, out)
}

// empty moves every solid content of from into ds, as much of each as fits.
func (e *Engine) empty(ctx context.Context, from *world.Item, ds world.Store, out Outcome) (Outcome, error) {
	held := world.StackOf(from)
	items := append([]*world.Item(nil), from.Contents...)
	var lastErr error
	for _, c := range items {
		idx := world.IndexOf(held, c)
		if idx < 0 {
			continue
		}
		n := c.Count()
		out.Attempted += n
		rem, err := world.Place(ds, c, n)
		if err != nil {
			lastErr = err
		}
		if moved := n - rem; moved > 0 {
			world.Take(held, idx, moved)
			out.Moved += moved
		}
	}
	if out.Moved == 0 && lastErr != nil {
		return e.reject(ctx, out, lastErr)
	}
	e.moved(out)
	return out, nil
}

// MoveAll moves every entry of src that keep accepts (all when keep is nil)
// to dst. The aggregate source fans out to every concrete area. One entry
// failing does not stop the batch; the error is only for a destination
// that could not be resolved.
func (e *Engine) MoveAll(ctx context.Context, src, dst area.Target, keep func(*world.Item) bool) (BatchResult, error) {
	var res BatchResult
	to, err := e.resolveDestination(ctx, src, dst)
	if err != nil {
		_, err = e.reject(ctx, Outcome{From: src, To: to}, err)
		return res, err
	}
	sources := []area.Target{src}
	if src.ID == area.All {
		sources = e.set.Concrete()
	} else if e.set.Same(src, to) {
		_, err = e.reject(ctx, Outcome{From: src, To: to}, fmt.Errorf("%s to %s: %w", src, to, ErrSameStorage))
		return res, err
	}

	e.batch++
	for _, t := range sources {
		if e.set.Same(t, to) {
			continue
		}
		e.moveAllFrom(ctx, t, to, keep, &res)
	}
	e.batch--

	e.log.Debug("move all done",
		zap.Stringer("from", src),
		zap.Stringer("to", to),
		zap.Int("attempted", res.Attempted),
		zap.Int("moved", res.Moved),
		zap.Int("failed", res.Failed))
	if res.Failed > 0 {
		e.prompt.Notify(ctx, fmt.Sprintf("%d of %d items could not be moved.", res.Failed, res.Attempted))
	}
	return res, nil
}

func (e *Engine) moveAllFrom(ctx context.Context, src, dst area.Target, keep func(*world.Item) bool, res *BatchResult) {
	store := e.set.Store(src)
	if store == nil {
		return
	}
	items := make([]*world.Item, 0, store.Len())
	for i := 0; i < store.Len(); i++ {
		items = append(items, store.At(i))
	}
	for _, it := range items {
		if keep != nil && !keep(it) {
			continue
		}
		// earlier moves shift positions
		idx := world.IndexOf(store, it)
		if idx < 0 {
			continue
		}
		s := source{target: src, item: it, store: store, index: idx}
		out := Outcome{From: src, To: dst, Item: it.Name(), ItemID: it.UID()}
		out, _ = e.move(ctx, s, dst, 0, out)
		res.add(out)
	}
}
