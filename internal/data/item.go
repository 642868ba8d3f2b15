package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Phase is the physical state of an item type.
type Phase byte

const (
	PhaseSolid  Phase = 0
	PhaseLiquid Phase = 1
	PhaseGas    Phase = 2
)

var phaseMap = map[string]Phase{
	"":       PhaseSolid,
	"solid":  PhaseSolid,
	"liquid": PhaseLiquid,
	"gas":    PhaseGas,
}

// PhaseFromString converts a YAML phase string. Unknown strings are solid.
func PhaseFromString(s string) Phase {
	if p, ok := phaseMap[s]; ok {
		return p
	}
	return PhaseSolid
}

func (p Phase) String() string {
	switch p {
	case PhaseLiquid:
		return "liquid"
	case PhaseGas:
		return "gas"
	default:
		return "solid"
	}
}

// ContainerSpec describes what an item type can hold.
// MaxItemVolume 0 means no per-item size limit.
type ContainerSpec struct {
	MaxVolume     int
	MaxItemVolume int
	Watertight    bool
}

// ItemType holds template data shared by every instance of an item.
// Volume is in milliliters and Weight in grams, per unit (per charge for
// stackable types).
type ItemType struct {
	ID        string
	Name      string
	Category  string
	Material  string
	Phase     Phase
	Volume    int
	Weight    int
	Stackable bool // counted by charges
	Wearable  bool
	Container *ContainerSpec
}

// IsContainer reports whether instances can hold other items.
func (t *ItemType) IsContainer() bool {
	return t != nil && t.Container != nil && t.Container.MaxVolume > 0
}

// Catalog holds all item types indexed by ID.
type Catalog struct {
	types map[string]*ItemType
}

// NewCatalog builds a catalog from already constructed types.
func NewCatalog(types ...*ItemType) *Catalog {
	c := &Catalog{types: make(map[string]*ItemType, len(types))}
	for _, t := range types {
		c.types[t.ID] = t
	}
	return c
}

// Get returns a type by ID, or nil if not found.
func (c *Catalog) Get(id string) *ItemType {
	return c.types[id]
}

// Count returns total loaded types.
func (c *Catalog) Count() int {
	return len(c.types)
}

// IDs returns every type ID in sorted order.
func (c *Catalog) IDs() []string {
	out := make([]string, 0, len(c.types))
	for id := range c.types {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

type containerEntry struct {
	MaxVolume     int  `yaml:"max_volume"`
	MaxItemVolume int  `yaml:"max_item_volume"`
	Watertight    bool `yaml:"watertight"`
}

type itemEntry struct {
	ID        string          `yaml:"id"`
	Name      string          `yaml:"name"`
	Category  string          `yaml:"category"`
	Material  string          `yaml:"material"`
	Phase     string          `yaml:"phase"`
	Volume    int             `yaml:"volume"`
	Weight    int             `yaml:"weight"`
	Stackable bool            `yaml:"stackable"`
	Wearable  bool            `yaml:"wearable"`
	Container *containerEntry `yaml:"container"`
}

type itemListFile struct {
	Items []itemEntry `yaml:"items"`
}

// LoadCatalog reads an item type list from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item types: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes an item type list from YAML bytes.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item types: %w", err)
	}
	c := &Catalog{types: make(map[string]*ItemType, len(f.Items))}
	for i := range f.Items {
		e := &f.Items[i]
		if e.ID == "" {
			return nil, fmt.Errorf("item type #%d: missing id", i)
		}
		if _, dup := c.types[e.ID]; dup {
			return nil, fmt.Errorf("item type %q: duplicate id", e.ID)
		}
		name := e.Name
		if name == "" {
			name = e.ID
		}
		t := &ItemType{
			ID:        e.ID,
			Name:      name,
			Category:  e.Category,
			Material:  e.Material,
			Phase:     PhaseFromString(e.Phase),
			Volume:    e.Volume,
			Weight:    e.Weight,
			Stackable: e.Stackable || e.Phase == "liquid",
			Wearable:  e.Wearable,
		}
		if e.Container != nil {
			t.Container = &ContainerSpec{
				MaxVolume:     e.Container.MaxVolume,
				MaxItemVolume: e.Container.MaxItemVolume,
				Watertight:    e.Container.Watertight,
			}
		}
		c.types[e.ID] = t
	}
	return c, nil
}
