package world

import (
	"errors"
	"fmt"
)

var (
	ErrNoRoom       = errors.New("not enough room")
	ErrLooseLiquid  = errors.New("liquid must be kept in a container")
	ErrIncompatible = errors.New("cannot hold that item")
	ErrTooLarge     = errors.New("item too large for container")
)

// MaterialPowder items ignore a container's per-item size limit.
const MaterialPowder = "powder"

// Store is an ordered sequence of items with a capacity. Every structural
// edit of item sequences goes through a Store so capacity has one path.
type Store interface {
	Owner
	Len() int
	At(i int) *Item
	Append(it *Item)
	InsertBefore(pos int, it *Item)
	Erase(pos int) *Item
	MaxVolume() int // 0 = unlimited
	UsedVolume() int
	MaxCount() int // 0 = unlimited
	Accepts(it *Item) error
}

// FreeVolume is the remaining room of s, or -1 when unlimited.
func FreeVolume(s Store) int {
	max := s.MaxVolume()
	if max <= 0 {
		return -1
	}
	free := max - s.UsedVolume()
	if free < 0 {
		return 0
	}
	return free
}

// IndexOf returns the position of it in s, or -1.
func IndexOf(s Store, it *Item) int {
	for i := 0; i < s.Len(); i++ {
		if s.At(i) == it {
			return i
		}
	}
	return -1
}

func sumVolume(items []*Item) int {
	v := 0
	for _, it := range items {
		v += it.Volume()
	}
	return v
}

// Stack is the mutable view over one container's contents. It holds no
// state of its own: capacity is read from the container type and usage is
// derived from the contents on every call.
type Stack struct {
	c *Item
}

// StackOf binds a view to container. It panics if c cannot hold items.
func StackOf(c *Item) *Stack {
	if c == nil || !c.IsContainer() {
		panic("world: stack view over a non-container")
	}
	return &Stack{c: c}
}

// Container returns the bound item.
func (s *Stack) Container() *Item { return s.c }

func (s *Stack) Len() int           { return len(s.c.Contents) }
func (s *Stack) At(i int) *Item     { return s.c.Contents[i] }
func (s *Stack) Append(it *Item)    { s.c.Contents = append(s.c.Contents, it) }
func (s *Stack) MaxVolume() int     { return s.c.Type.Container.MaxVolume }
func (s *Stack) MaxItemVolume() int { return s.c.Type.Container.MaxItemVolume }
func (s *Stack) UsedVolume() int    { return sumVolume(s.c.Contents) }
func (s *Stack) MaxCount() int      { return 0 }

// ReadOnly returns an inspection view over the same container.
func (s *Stack) ReadOnly() ReadOnlyStack { return ReadOnlyStack{c: s.c} }

func (s *Stack) RootAt(pos int) *Item {
	if pos < 0 || pos >= len(s.c.Contents) {
		return nil
	}
	return s.c.Contents[pos]
}

func (s *Stack) InsertBefore(pos int, it *Item) {
	s.c.Contents = insertAt(s.c.Contents, pos, it)
}

func (s *Stack) Erase(pos int) *Item {
	var it *Item
	s.c.Contents, it = eraseAt(s.c.Contents, pos)
	return it
}

// Accepts checks the structural rules: no self containment, the size limit
// (powders pour through any opening), and that liquids sit alone in
// watertight containers.
func (s *Stack) Accepts(it *Item) error {
	if it == s.c {
		return fmt.Errorf("%s into itself: %w", it.Name(), ErrIncompatible)
	}
	spec := s.c.Type.Container
	if spec.MaxItemVolume > 0 && it.Type.Material != MaterialPowder && it.UnitVolume() > spec.MaxItemVolume {
		return fmt.Errorf("%s into %s: %w", it.Name(), s.c.Name(), ErrTooLarge)
	}
	front := s.c.Front()
	if it.IsLiquid() {
		if !spec.Watertight {
			return fmt.Errorf("%s is not watertight: %w", s.c.Name(), ErrIncompatible)
		}
		if front != nil && (!front.IsLiquid() || front.Type != it.Type) {
			return fmt.Errorf("%s already holds %s: %w", s.c.Name(), front.Name(), ErrIncompatible)
		}
		return nil
	}
	if front != nil && front.IsLiquid() {
		return fmt.Errorf("%s holds %s: %w", s.c.Name(), front.Name(), ErrIncompatible)
	}
	return nil
}

// ReadOnlyStack inspects a container's contents without mutation rights.
type ReadOnlyStack struct {
	c *Item
}

func (r ReadOnlyStack) Len() int        { return len(r.c.Contents) }
func (r ReadOnlyStack) At(i int) *Item  { return r.c.Contents[i] }
func (r ReadOnlyStack) MaxVolume() int  { return r.c.Type.Container.MaxVolume }
func (r ReadOnlyStack) UsedVolume() int { return sumVolume(r.c.Contents) }

// Each calls fn for every content in order until fn returns false.
func (r ReadOnlyStack) Each(fn func(i int, it *Item) bool) {
	for i, it := range r.c.Contents {
		if !fn(i, it) {
			return
		}
	}
}

// Pile is a top-level item sequence: a ground tile, a vehicle cargo part,
// the actor's inventory or worn set.
type Pile struct {
	Items    []*Item
	Capacity int  // max volume, 0 = unlimited
	Limit    int  // max entries, 0 = unlimited
	WornOnly bool // only wearable items
}

// NewPile creates an empty pile.
func NewPile(capacity, limit int) *Pile {
	return &Pile{Items: make([]*Item, 0, 8), Capacity: capacity, Limit: limit}
}

func (p *Pile) Len() int        { return len(p.Items) }
func (p *Pile) At(i int) *Item  { return p.Items[i] }
func (p *Pile) Append(it *Item) { p.Items = append(p.Items, it) }
func (p *Pile) MaxVolume() int  { return p.Capacity }
func (p *Pile) UsedVolume() int { return sumVolume(p.Items) }
func (p *Pile) MaxCount() int   { return p.Limit }

func (p *Pile) RootAt(pos int) *Item {
	if pos < 0 || pos >= len(p.Items) {
		return nil
	}
	return p.Items[pos]
}

func (p *Pile) InsertBefore(pos int, it *Item) {
	p.Items = insertAt(p.Items, pos, it)
}

func (p *Pile) Erase(pos int) *Item {
	var it *Item
	p.Items, it = eraseAt(p.Items, pos)
	return it
}

// Weight is the total carried weight of the pile.
func (p *Pile) Weight() int {
	w := 0
	for _, it := range p.Items {
		w += it.Weight()
	}
	return w
}

func (p *Pile) Accepts(it *Item) error {
	if it.IsLiquid() {
		return fmt.Errorf("%s: %w", it.Name(), ErrLooseLiquid)
	}
	if p.WornOnly && (it.Type == nil || !it.Type.Wearable) {
		return fmt.Errorf("%s cannot be worn: %w", it.Name(), ErrIncompatible)
	}
	return nil
}

func insertAt(items []*Item, pos int, it *Item) []*Item {
	if pos < 0 || pos > len(items) {
		panic(fmt.Sprintf("world: insert at %d of %d", pos, len(items)))
	}
	items = append(items, nil)
	copy(items[pos+1:], items[pos:])
	items[pos] = it
	return items
}

func eraseAt(items []*Item, pos int) ([]*Item, *Item) {
	if pos < 0 || pos >= len(items) {
		panic(fmt.Sprintf("world: erase at %d of %d", pos, len(items)))
	}
	it := items[pos]
	copy(items[pos:], items[pos+1:])
	items[len(items)-1] = nil
	return items[:len(items)-1], it
}

// Fit returns how many of qty units of it s can take right now, merging into
// an identical stack where possible. It never mutates s.
func Fit(s Store, it *Item, qty int) (int, error) {
	if qty > it.Count() {
		qty = it.Count()
	}
	if qty <= 0 {
		return 0, nil
	}
	if err := s.Accepts(it); err != nil {
		return 0, err
	}
	fit := qty
	if free := FreeVolume(s); free >= 0 {
		if unit := it.UnitVolume(); unit > 0 && free/unit < fit {
			fit = free / unit
		}
	}
	if fit > 0 && mergeTarget(s, it) == nil {
		if limit := s.MaxCount(); limit > 0 && s.Len() >= limit {
			fit = 0
		}
	}
	if fit == 0 {
		return 0, fmt.Errorf("%s: %w", it.Name(), ErrNoRoom)
	}
	return fit, nil
}

func mergeTarget(s Store, it *Item) *Item {
	if !it.Stackable() {
		return nil
	}
	for i := 0; i < s.Len(); i++ {
		if cand := s.At(i); cand.StacksWith(it) {
			return cand
		}
	}
	return nil
}

// Place puts up to qty units of it into s and returns the units that did not
// fit. Charges merge into an identical stack already in s; otherwise a new
// entry is appended (it itself when every unit fits, a split copy if not).
// Place never touches the store it came from. err explains a zero fit.
func Place(s Store, it *Item, qty int) (remainder int, err error) {
	if qty > it.Count() {
		qty = it.Count()
	}
	if qty <= 0 {
		return 0, nil
	}
	fit, err := Fit(s, it, qty)
	if err != nil {
		return qty, err
	}
	switch target := mergeTarget(s, it); {
	case target != nil:
		target.Charges += fit
	case fit == it.Count():
		s.Append(it)
	default:
		s.Append(it.withCharges(fit))
	}
	return qty - fit, nil
}

// Take removes qty units of the entry at index: charges are decremented
// when fewer than held, otherwise the entry is erased. It returns the units
// removed.
func Take(s Store, index, qty int) int {
	it := s.At(index)
	if qty <= 0 {
		return 0
	}
	if it.Stackable() && qty < it.Charges {
		it.Charges -= qty
		return qty
	}
	s.Erase(index)
	return it.Count()
}
