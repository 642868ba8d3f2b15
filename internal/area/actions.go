package area

var actionLocations = map[string]ID{
	"ITEMS_SW":                SouthWest,
	"ITEMS_S":                 South,
	"ITEMS_SE":                SouthEast,
	"ITEMS_W":                 West,
	"ITEMS_CE":                Center,
	"ITEMS_E":                 East,
	"ITEMS_NW":                NorthWest,
	"ITEMS_N":                 North,
	"ITEMS_NE":                NorthEast,
	"ITEMS_AROUND":            All,
	"ITEMS_DRAGGED_CONTAINER": Dragged,
	"ITEMS_CONTAINER":         Container,
	"ITEMS_INVENTORY":         Inventory,
	"ITEMS_WORN":              Worn,
}

// LocationFor maps an input action name to the area it selects.
// Actions that are not area selections report false.
func LocationFor(action string) (ID, bool) {
	id, ok := actionLocations[action]
	return id, ok
}
