package event

import "github.com/l1jgo/advinv/internal/core/ident"

// Transfer notifications. Areas are carried by name so subscribers need not
// import the area package.

// ItemsMoved is emitted after units of one item reached a destination.
type ItemsMoved struct {
	ItemID    ident.ID
	Name      string
	From      string
	To        string
	Requested int
	Moved     int
}

// TransferRejected is emitted when nothing moved and the user should be
// told why.
type TransferRejected struct {
	ItemID ident.ID
	Name   string
	From   string
	To     string
	Reason string
}

// ContentsPoured is emitted when a container's contents went into another
// container in one piece.
type ContentsPoured struct {
	FromID ident.ID
	ToID   ident.ID
	Name   string
	Units  int
}
