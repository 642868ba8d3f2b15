package scenario

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/advinv/internal/area"
	"github.com/l1jgo/advinv/internal/world"
)

// ErrNoAnswer is what the scripted user says when it runs out of answers.
// The engine treats it like the user backing out of the prompt.
var ErrNoAnswer = errors.New("no scripted answer left")

// Prompter answers engine prompts from a fixed script and records every
// message shown to the user.
type Prompter struct {
	destinations []area.Target
	quantities   []int
	log          *zap.Logger

	Notes []string
}

// NewPrompter parses the scenario answers.
func NewPrompter(a Answers, log *zap.Logger) (*Prompter, error) {
	p := &Prompter{quantities: append([]int(nil), a.Quantities...), log: log}
	for _, s := range a.Destinations {
		t, err := ParseTarget(s)
		if err != nil {
			return nil, fmt.Errorf("destination answer: %w", err)
		}
		p.destinations = append(p.destinations, t)
	}
	return p, nil
}

func (p *Prompter) ChooseDestination(ctx context.Context, candidates []area.Target, suggested area.Target) (area.Target, error) {
	if len(p.destinations) == 0 {
		return area.Target{}, ErrNoAnswer
	}
	t := p.destinations[0]
	p.destinations = p.destinations[1:]
	p.log.Debug("destination chosen",
		zap.Stringer("chosen", t),
		zap.Stringer("suggested", suggested),
		zap.Int("candidates", len(candidates)))
	return t, nil
}

func (p *Prompter) ChooseQuantity(ctx context.Context, it *world.Item, most int) (int, error) {
	if len(p.quantities) == 0 {
		return 0, ErrNoAnswer
	}
	n := p.quantities[0]
	p.quantities = p.quantities[1:]
	p.log.Debug("quantity chosen", zap.String("item", it.Name()), zap.Int("qty", n), zap.Int("most", most))
	return n, nil
}

func (p *Prompter) Notify(ctx context.Context, msg string) {
	p.Notes = append(p.Notes, msg)
	p.log.Info(msg)
}

// Remaining reports unused answers, which usually means the script and the
// actions disagree.
func (p *Prompter) Remaining() (destinations, quantities int) {
	return len(p.destinations), len(p.quantities)
}
