package transfer

import (
	"context"

	"github.com/l1jgo/advinv/internal/area"
	"github.com/l1jgo/advinv/internal/pane"
)

// MoveSelected moves the row under src's cursor toward dst. For a row of
// grouped identical items qty counts items; otherwise it is passed on to
// MoveItem. Both panes are flagged for recalculation.
func (e *Engine) MoveSelected(ctx context.Context, src, dst *pane.Pane, qty int) (Outcome, error) {
	entry, ok := src.Selected()
	if !ok {
		return Outcome{From: src.Target(), To: dst.Target()}, nil
	}
	defer func() {
		src.Recalc = true
		dst.Recalc = true
	}()
	if len(entry.Items) == 1 {
		return e.MoveItem(ctx, entry.Source, entry.Locs[0], dst.Target(), qty)
	}

	first := entry.Item()
	out := Outcome{From: entry.Source, To: dst.Target(), Item: first.Name(), ItemID: first.UID()}
	to, err := e.resolveDestination(ctx, entry.Source, dst.Target())
	out.To = to
	if err != nil {
		return e.reject(ctx, out, err)
	}
	n := len(entry.Items)
	switch {
	case qty == AskQuantity:
		if n, err = e.ask(ctx, first, n); err != nil {
			return e.reject(ctx, out, err)
		}
	case qty > 0 && qty < n:
		n = qty
	}
	out.Attempted = n

	for i := 0; i < n; i++ {
		s, err := e.locate(entry.Source, entry.Locs[i])
		if err != nil {
			out.Err = err
			break
		}
		one := Outcome{From: entry.Source, To: to, Item: s.item.Name(), ItemID: s.item.UID()}
		one, err = e.move(ctx, s, to, 1, one)
		if err != nil {
			// the rest are identical and would fail the same way
			out.Err = err
			break
		}
		out.Moved += one.Moved
	}
	if out.Moved == 0 && out.Err != nil {
		return out, out.Err
	}
	return out, nil
}

// MoveAllVisible moves every row src currently shows toward dst.
func (e *Engine) MoveAllVisible(ctx context.Context, src, dst *pane.Pane) (BatchResult, error) {
	defer func() {
		src.Recalc = true
		dst.Recalc = true
	}()
	dest := dst.Target()
	if dst.Area == area.All {
		dest = area.Target{ID: area.All}
	}
	return e.MoveAll(ctx, src.Target(), dest, src.Matches)
}
