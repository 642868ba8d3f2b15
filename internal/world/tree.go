package world

import (
	"errors"

	"github.com/l1jgo/advinv/internal/core/ident"
)

// MaxDepth bounds every walk of the containment tree. The tree is assumed
// acyclic; the bound keeps a malformed fixture from recursing forever.
const MaxDepth = 32

var ErrTooDeep = errors.New("containment deeper than max depth")

// Find returns the first item under root (root included, depth first,
// children in order) carrying id, or nil.
func Find(root *Item, id ident.ID) *Item {
	if !id.Valid() || root == nil {
		return nil
	}
	return find(root, id, 0)
}

func find(it *Item, id ident.ID, depth int) *Item {
	if it.uid == id {
		return it
	}
	if depth >= MaxDepth {
		return nil
	}
	for _, c := range it.Contents {
		if f := find(c, id, depth+1); f != nil {
			return f
		}
	}
	return nil
}

// FindAncestors returns the chain from the item carrying id up to root,
// leaf first: for root A holding B holding C, searching C yields [C, B, A].
// The result is empty when nothing under root matches.
func FindAncestors(root *Item, id ident.ID) []*Item {
	if !id.Valid() || root == nil {
		return nil
	}
	var chain []*Item
	if ancestors(root, id, 0, &chain) {
		return chain
	}
	return nil
}

func ancestors(it *Item, id ident.ID, depth int, chain *[]*Item) bool {
	if it.uid == id {
		*chain = append(*chain, it)
		return true
	}
	if depth >= MaxDepth {
		return false
	}
	for _, c := range it.Contents {
		if ancestors(c, id, depth+1, chain) {
			*chain = append(*chain, it)
			return true
		}
	}
	return false
}

// Parent returns the direct container of the item carrying id under root.
func Parent(root *Item, id ident.ID) *Item {
	chain := FindAncestors(root, id)
	if len(chain) < 2 {
		return nil
	}
	return chain[1]
}

// CheckDepth reports ErrTooDeep if root nests past MaxDepth.
func CheckDepth(root *Item) error {
	var walk func(it *Item, depth int) error
	walk = func(it *Item, depth int) error {
		if depth > MaxDepth {
			return ErrTooDeep
		}
		for _, c := range it.Contents {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root, 0)
}
