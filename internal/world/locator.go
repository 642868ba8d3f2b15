package world

import (
	"errors"
	"fmt"

	"github.com/l1jgo/advinv/internal/core/ident"
)

var ErrNoSuchLocator = errors.New("no such locator")

// Owner gives positional access to a set of root items.
type Owner interface {
	RootAt(pos int) *Item
}

// Locator addresses an item nested under one root of an Owner without
// holding a pointer to it. Build it, resolve it, drop it: it does not survive
// a structural edit of the owner on purpose.
type Locator struct {
	Root int
	ID   ident.ID
}

func (l Locator) String() string {
	return fmt.Sprintf("%d/%d", l.Root, l.ID)
}

// Locate assigns it an id if needed and returns a locator for it under the
// root at pos. It fails if it is not actually under that root.
func Locate(reg *ident.Registry, owner Owner, pos int, it *Item) (Locator, error) {
	root := owner.RootAt(pos)
	if root == nil {
		return Locator{}, fmt.Errorf("root %d: %w", pos, ErrNoSuchLocator)
	}
	id := reg.Assign(it)
	if Find(root, id) != it {
		return Locator{}, fmt.Errorf("item %d not under root %d: %w", id, pos, ErrNoSuchLocator)
	}
	return Locator{Root: pos, ID: id}, nil
}

// Resolve returns the item l points at.
func Resolve(owner Owner, l Locator) (*Item, error) {
	if !l.ID.Valid() {
		return nil, ErrNoSuchLocator
	}
	root := owner.RootAt(l.Root)
	if root == nil {
		return nil, fmt.Errorf("root %d: %w", l.Root, ErrNoSuchLocator)
	}
	it := Find(root, l.ID)
	if it == nil {
		return nil, fmt.Errorf("item %d under root %d: %w", l.ID, l.Root, ErrNoSuchLocator)
	}
	return it, nil
}

// Reanchor finds the root that now holds l.ID when earlier roots were erased
// and shifted positions. It returns l unchanged if it still resolves.
func Reanchor(s Store, l Locator) (Locator, error) {
	if _, err := Resolve(s, l); err == nil {
		return l, nil
	}
	if !l.ID.Valid() {
		return l, ErrNoSuchLocator
	}
	for i := 0; i < s.Len(); i++ {
		if Find(s.At(i), l.ID) != nil {
			return Locator{Root: i, ID: l.ID}, nil
		}
	}
	return l, fmt.Errorf("item %d: %w", l.ID, ErrNoSuchLocator)
}
