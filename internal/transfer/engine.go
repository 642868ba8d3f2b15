package transfer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/advinv/internal/area"
	"github.com/l1jgo/advinv/internal/core/event"
	"github.com/l1jgo/advinv/internal/core/ident"
	"github.com/l1jgo/advinv/internal/world"
)

var (
	ErrCancelled   = errors.New("transfer cancelled")
	ErrSameStorage = errors.New("source and destination are the same storage")
	ErrInvalidArea = errors.New("destination cannot hold items")
	ErrNoContainer = errors.New("no container can take it")
)

// AskQuantity as a requested quantity makes the engine ask the Prompter.
// Any other value <= 0 means the whole entry.
const AskQuantity = -1

// Prompter is the user. Every call may block; returning an error (or the
// context ending) cancels the operation with nothing changed.
type Prompter interface {
	// ChooseDestination picks one of candidates. suggested is the last
	// destination picked, or the zero Target.
	ChooseDestination(ctx context.Context, candidates []area.Target, suggested area.Target) (area.Target, error)
	// ChooseQuantity asks for 0..most units of it.
	ChooseQuantity(ctx context.Context, it *world.Item, most int) (int, error)
	// Notify shows a message.
	Notify(ctx context.Context, msg string)
}

// Outcome is what happened to one entry.
type Outcome struct {
	Item      string
	ItemID    ident.ID
	From      area.Target
	To        area.Target
	Attempted int
	Moved     int
	Err       error
}

// Full reports whether every attempted unit arrived.
func (o Outcome) Full() bool {
	return o.Err == nil && o.Moved >= o.Attempted
}

func (o Outcome) String() string {
	s := fmt.Sprintf("%s: %d/%d %s -> %s", o.Item, o.Moved, o.Attempted, o.From, o.To)
	if o.Err != nil {
		s += " (" + o.Err.Error() + ")"
	}
	return s
}

// BatchResult aggregates a bulk move. Attempted counts entries, Moved the
// entries that arrived in full and Failed the rest.
type BatchResult struct {
	Attempted int
	Moved     int
	Failed    int
	Outcomes  []Outcome
}

func (r *BatchResult) add(o Outcome) {
	r.Attempted++
	if o.Full() {
		r.Moved++
	} else {
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// Engine moves items between areas. Single-goroutine access only; one
// operation runs at a time.
type Engine struct {
	set    *area.Set
	prompt Prompter
	bus    *event.Bus
	log    *zap.Logger

	last  area.Target
	batch int // >0 while a bulk move runs; per-entry rejections stay quiet
}

// NewEngine creates an engine over set. bus may be nil.
func NewEngine(set *area.Set, prompt Prompter, bus *event.Bus, log *zap.Logger) *Engine {
	if bus == nil {
		bus = event.NewBus()
	}
	return &Engine{set: set, prompt: prompt, bus: bus, log: log}
}

// LastDestination is the concrete area last picked for the aggregate area.
func (e *Engine) LastDestination() area.Target { return e.last }

// Bus returns the bus transfer events go to.
func (e *Engine) Bus() *event.Bus { return e.bus }

// normalize fixes the vehicle flag for areas where it has only one meaning.
func normalize(t area.Target) area.Target {
	switch {
	case t.ID == area.Dragged:
		t.InVehicle = true
	case !t.ID.Compass():
		t.InVehicle = false
	}
	return t
}

func cancelled(err error) error {
	if errors.Is(err, ErrCancelled) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}

// resolveDestination turns dst into a concrete, placeable target, asking
// the user when dst is the aggregate area.
func (e *Engine) resolveDestination(ctx context.Context, src, dst area.Target) (area.Target, error) {
	if dst.ID != area.All {
		dst = normalize(dst)
		if !e.set.Get(dst.ID).CanPlace(dst.InVehicle) {
			return dst, fmt.Errorf("%s: %w", dst, ErrInvalidArea)
		}
		return dst, nil
	}

	var candidates []area.Target
	for _, t := range e.set.Concrete() {
		if e.set.Get(t.ID).CanPlace(t.InVehicle) && !e.set.Same(t, src) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return dst, fmt.Errorf("nothing around: %w", ErrInvalidArea)
	}
	if err := ctx.Err(); err != nil {
		return dst, cancelled(err)
	}
	chosen, err := e.prompt.ChooseDestination(ctx, candidates, e.last)
	if err != nil {
		return dst, cancelled(err)
	}
	chosen = normalize(chosen)
	if chosen.ID == area.All || !e.set.Get(chosen.ID).CanPlace(chosen.InVehicle) {
		return chosen, fmt.Errorf("%s: %w", chosen, ErrInvalidArea)
	}
	e.last = chosen
	return chosen, nil
}

// reject records a failed entry. Everything but a cancellation is reported
// to the user, unless a bulk move is collecting failures.
func (e *Engine) reject(ctx context.Context, out Outcome, err error) (Outcome, error) {
	out.Err = err
	e.log.Debug("transfer rejected",
		zap.String("item", out.Item),
		zap.Stringer("from", out.From),
		zap.Stringer("to", out.To),
		zap.Error(err))
	if errors.Is(err, ErrCancelled) {
		return out, err
	}
	event.Emit(e.bus, event.TransferRejected{
		ItemID: out.ItemID,
		Name:   out.Item,
		From:   out.From.String(),
		To:     out.To.String(),
		Reason: err.Error(),
	})
	if e.batch == 0 {
		e.prompt.Notify(ctx, userMessage(out, err))
	}
	return out, err
}

func userMessage(out Outcome, err error) string {
	name := out.Item
	if name == "" {
		name = "That"
	}
	switch {
	case errors.Is(err, world.ErrLooseLiquid):
		return fmt.Sprintf("%s would spill; put it in a container instead.", name)
	case errors.Is(err, world.ErrNoRoom):
		return fmt.Sprintf("There is no room for %s.", name)
	case errors.Is(err, ErrSameStorage):
		return fmt.Sprintf("%s is already there.", name)
	case errors.Is(err, ErrInvalidArea):
		return fmt.Sprintf("%s cannot hold items.", out.To)
	}
	return fmt.Sprintf("Cannot move %s: %v.", name, err)
}

func (e *Engine) moved(out Outcome) {
	e.log.Debug("items moved",
		zap.String("item", out.Item),
		zap.Stringer("from", out.From),
		zap.Stringer("to", out.To),
		zap.Int("requested", out.Attempted),
		zap.Int("moved", out.Moved))
	event.Emit(e.bus, event.ItemsMoved{
		ItemID:    out.ItemID,
		Name:      out.Item,
		From:      out.From.String(),
		To:        out.To.String(),
		Requested: out.Attempted,
		Moved:     out.Moved,
	})
}
