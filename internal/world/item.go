package world

import (
	"fmt"

	"github.com/l1jgo/advinv/internal/core/ident"
	"github.com/l1jgo/advinv/internal/data"
)

// Item is one item instance. Items form a tree through Contents; an item
// never knows its parent, so anything that needs the chain walks from a root.
type Item struct {
	uid      ident.ID
	Type     *data.ItemType
	Charges  int // stack count for stackable types, ignored otherwise
	Contents []*Item
}

// NewItem creates a single unit of t.
func NewItem(t *data.ItemType) *Item {
	return &Item{Type: t, Charges: 1}
}

// NewCharges creates a stackable item holding n charges.
func NewCharges(t *data.ItemType, n int) *Item {
	return &Item{Type: t, Charges: n}
}

// NewContainer creates a container item already holding contents.
func NewContainer(t *data.ItemType, contents ...*Item) *Item {
	it := NewItem(t)
	it.Contents = append(it.Contents, contents...)
	return it
}

func (it *Item) UID() ident.ID      { return it.uid }
func (it *Item) SetUID(id ident.ID) { it.uid = id }

// Name returns the type name.
func (it *Item) Name() string {
	if it.Type == nil {
		return "null item"
	}
	return it.Type.Name
}

// DisplayName is the name shown in a pane row.
func (it *Item) DisplayName() string {
	name := it.Name()
	if it.Stackable() && it.Charges != 1 {
		name = fmt.Sprintf("%s (%d)", name, it.Charges)
	}
	if front := it.Front(); front != nil {
		if len(it.Contents) == 1 {
			return fmt.Sprintf("%s of %s", name, front.DisplayName())
		}
		return fmt.Sprintf("%s (%d items)", name, len(it.Contents))
	}
	return name
}

// Stackable reports whether the item is counted by charges.
func (it *Item) Stackable() bool {
	return it.Type != nil && it.Type.Stackable
}

// Count is the number of units a move can act on: charges for stackable
// items, 1 otherwise.
func (it *Item) Count() int {
	if it.Stackable() {
		return it.Charges
	}
	return 1
}

// IsLiquid reports liquid phase.
func (it *Item) IsLiquid() bool {
	return it.Type != nil && it.Type.Phase == data.PhaseLiquid
}

// IsContainer reports whether the item can hold other items.
func (it *Item) IsContainer() bool {
	return it.Type.IsContainer()
}

// Front returns the first content or nil.
func (it *Item) Front() *Item {
	if len(it.Contents) == 0 {
		return nil
	}
	return it.Contents[0]
}

// UnitVolume is the volume of one unit (one charge for stackable items).
func (it *Item) UnitVolume() int {
	if it.Type == nil {
		return 0
	}
	return it.Type.Volume
}

// Volume is the space the item takes in its parent. Containers are rigid:
// contents never change the outer volume.
func (it *Item) Volume() int {
	return it.UnitVolume() * it.Count()
}

// Weight is the item's own weight plus everything inside it.
func (it *Item) Weight() int {
	if it.Type == nil {
		return 0
	}
	w := it.Type.Weight * it.Count()
	for _, c := range it.Contents {
		w += c.Weight()
	}
	return w
}

// StacksWith reports whether charges of o can be merged into it.
func (it *Item) StacksWith(o *Item) bool {
	return it != o && it.Stackable() && it.Type == o.Type &&
		len(it.Contents) == 0 && len(o.Contents) == 0
}

// Identical reports whether two non-stackable items are interchangeable for
// display grouping.
func (it *Item) Identical(o *Item) bool {
	return it != o && !it.Stackable() && it.Type == o.Type &&
		len(it.Contents) == 0 && len(o.Contents) == 0
}

// SplitOff removes n charges from a stackable item and returns them as a new,
// unaddressed item. n must be less than the held charges.
func (it *Item) SplitOff(n int) *Item {
	if !it.Stackable() || n <= 0 || n >= it.Charges {
		panic(fmt.Sprintf("world: split %d charges off %q holding %d", n, it.Name(), it.Charges))
	}
	it.Charges -= n
	return &Item{Type: it.Type, Charges: n}
}

// withCharges is a fresh copy of a stackable item holding n charges.
func (it *Item) withCharges(n int) *Item {
	return &Item{Type: it.Type, Charges: n}
}
