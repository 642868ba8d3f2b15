package scenario

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/advinv/internal/area"
	"github.com/l1jgo/advinv/internal/pane"
	"github.com/l1jgo/advinv/internal/settings"
	"github.com/l1jgo/advinv/internal/transfer"
	"github.com/l1jgo/advinv/internal/world"
)

// Commands understood besides the area selection actions.
const (
	CmdMoveItem      = "MOVE_ITEM"
	CmdMoveAll       = "MOVE_ALL_ITEMS"
	CmdMoveContents  = "MOVE_CONTENTS"
	CmdToggleTab     = "TOGGLE_TAB"
	CmdToggleVehicle = "TOGGLE_VEHICLE"
	CmdScroll        = "SCROLL"
	CmdNextCategory  = "NEXT_CATEGORY"
	CmdPrevCategory  = "PREV_CATEGORY"
	CmdFilter        = "FILTER"
	CmdSort          = "SORT"
	CmdOpen          = "OPEN"
	CmdBack          = "BACK"
	CmdDrag          = "DRAG"
	CmdRelease       = "RELEASE"
)

var ErrUnknownAction = errors.New("unknown action")

// Runner replays actions against two panes and a transfer engine, the way
// the interactive screen would.
type Runner struct {
	set    *area.Set
	engine *transfer.Engine
	panes  [2]*pane.Pane
	active int
	log    *zap.Logger

	// VehicleOverride forces cargo mode on squares that have a vehicle.
	VehicleOverride bool
}

// NewRunner wires a runner; left starts active.
func NewRunner(set *area.Set, engine *transfer.Engine, left, right *pane.Pane, log *zap.Logger) *Runner {
	return &Runner{set: set, engine: engine, panes: [2]*pane.Pane{left, right}, log: log}
}

// Active is the pane the cursor is in.
func (r *Runner) Active() *pane.Pane { return r.panes[r.active] }

// Other is the pane items are moved toward.
func (r *Runner) Other() *pane.Pane { return r.panes[1-r.active] }

// Panes returns both panes, left first.
func (r *Runner) Panes() [2]*pane.Pane { return r.panes }

// Refresh re-reads the world and rebuilds every pane flagged for it.
func (r *Runner) Refresh() {
	r.set.Refresh()
	for _, p := range r.panes {
		if p.Recalc {
			p.Rebuild(r.set, r.VehicleOverride)
		}
	}
}

// Run replays actions in order, stopping at the first action that cannot
// be interpreted. Failed transfers are reported by the engine and do not
// stop the run.
func (r *Runner) Run(ctx context.Context, actions []Action) error {
	for i, a := range actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.Refresh()
		if err := r.Do(ctx, a); err != nil {
			if errors.Is(err, ErrUnknownAction) {
				return fmt.Errorf("action #%d %s: %w", i, a.Do, err)
			}
			r.log.Info("action failed", zap.Int("step", i), zap.String("do", a.Do), zap.Error(err))
		}
		r.engine.Bus().Flush()
	}
	r.Refresh()
	return nil
}

// Do performs a single action.
func (r *Runner) Do(ctx context.Context, a Action) error {
	p := r.Active()
	if id, ok := area.LocationFor(a.Do); ok {
		p.Show(id)
		return nil
	}

	switch a.Do {
	case CmdMoveItem:
		out, err := r.engine.MoveSelected(ctx, p, r.Other(), a.Qty)
		if err == nil && out.Attempted > 0 {
			r.log.Info("moved", zap.Stringer("outcome", out))
		}
		return err
	case CmdMoveAll:
		res, err := r.engine.MoveAllVisible(ctx, p, r.Other())
		r.log.Info("moved all",
			zap.Int("attempted", res.Attempted),
			zap.Int("moved", res.Moved),
			zap.Int("failed", res.Failed))
		return err
	case CmdMoveContents:
		e, ok := p.Selected()
		if !ok {
			return area.ErrNoFocus
		}
		defer func() {
			p.Recalc = true
			r.Other().Recalc = true
		}()
		_, err := r.engine.MoveContents(ctx, e.Source, e.Locs[0], r.Other().Target(), a.Qty)
		return err
	case CmdToggleTab:
		r.active = 1 - r.active
	case CmdToggleVehicle:
		p.InVehicle = !p.InVehicle
		p.Recalc = true
	case CmdScroll:
		n := a.Count
		if n == 0 {
			n = 1
		}
		p.Scroll(n)
	case CmdNextCategory:
		p.ScrollCategory(1)
	case CmdPrevCategory:
		p.ScrollCategory(-1)
	case CmdFilter:
		return p.SetFilter(a.Text)
	case CmdSort:
		p.SetSort(pane.SortFromString(a.Text))
	case CmdOpen:
		return p.Open(r.set)
	case CmdBack:
		if !p.Leave() {
			return errors.New("nothing to go back to")
		}
		if r.panes[0].Area != area.Container && r.panes[1].Area != area.Container {
			r.set.Get(area.Container).ClearFocus()
		}
	case CmdDrag:
		if a.At == nil {
			return errors.New("drag needs at")
		}
		r.set.State().Actor.StartDrag(world.Point{X: a.At.X, Y: a.At.Y})
		r.markAll()
	case CmdRelease:
		r.set.State().Actor.StopDrag()
		r.markAll()
	default:
		return ErrUnknownAction
	}
	return nil
}

func (r *Runner) markAll() {
	for _, p := range r.panes {
		p.Recalc = true
	}
}

// Configure applies a scenario's pane layout.
func (r *Runner) Configure(left, right PaneSpec) error {
	for i, spec := range [2]PaneSpec{left, right} {
		p := r.panes[i]
		if spec.Area != "" {
			t, err := ParseTarget(spec.Area)
			if err != nil {
				return fmt.Errorf("pane %s: %w", p.Name, err)
			}
			p.Show(t.ID)
			p.InVehicle = t.InVehicle
		}
		if spec.InVehicle {
			p.InVehicle = true
		}
		if spec.Sort != "" {
			p.SetSort(pane.SortFromString(spec.Sort))
		}
		if err := p.SetFilter(spec.Filter); err != nil {
			return fmt.Errorf("pane %s: %w", p.Name, err)
		}
	}
	return nil
}

// Save writes both panes into b.
func (r *Runner) Save(b *settings.Blob) {
	for _, p := range r.panes {
		p.Save(b)
	}
}

// Load restores both panes from b, keeping going past a pane that fails.
func (r *Runner) Load(b *settings.Blob) error {
	var errs []error
	for _, p := range r.panes {
		if err := p.Load(b); err != nil {
			errs = append(errs, fmt.Errorf("pane %s: %w", p.Name, err))
		}
	}
	return errors.Join(errs...)
}
