package pane

import (
	"fmt"

	"github.com/l1jgo/advinv/internal/area"
	"github.com/l1jgo/advinv/internal/filter"
	"github.com/l1jgo/advinv/internal/settings"
	"github.com/l1jgo/advinv/internal/world"
)

// Entry is one row of a pane. A header row only carries a category label.
// Identical non-stackable roots are grouped into one row; Items and Locs
// are parallel and every locator names a root of Source's storage.
type Entry struct {
	Header   bool
	Category string
	Text     string
	Source   area.Target
	Items    []*world.Item
	Locs     []world.Locator
}

// Item is the representative item of the row.
func (e *Entry) Item() *world.Item {
	if len(e.Items) == 0 {
		return nil
	}
	return e.Items[0]
}

// Count is the number of units the row stands for.
func (e *Entry) Count() int {
	if len(e.Items) == 0 {
		return 0
	}
	if e.Items[0].Stackable() {
		return e.Items[0].Charges
	}
	return len(e.Items)
}

func (e *Entry) Volume() int {
	v := 0
	for _, it := range e.Items {
		v += it.Volume()
	}
	return v
}

func (e *Entry) Weight() int {
	w := 0
	for _, it := range e.Items {
		w += it.Weight()
	}
	return w
}

// Pane is a filtered, sorted projection of one area plus selection state.
// Redraw and Recalc are flags for the renderer and the orchestrator; the
// pane sets Redraw on every rebuild and clears Recalc.
type Pane struct {
	Name      string
	Area      area.ID
	InVehicle bool
	Index     int
	Sort      SortBy
	PageSize  int

	Redraw bool
	Recalc bool

	prev       *area.Target
	entries    []Entry
	filterText string
	filter     *filter.Filter
	cache      *filter.Cache
	remain     string
}

// New creates a pane showing id. cache compiles filter text.
func New(name string, id area.ID, cache *filter.Cache, pageSize int) *Pane {
	return &Pane{Name: name, Area: id, cache: cache, PageSize: pageSize, Recalc: true}
}

// Target is the pane's own (area, vehicle mode) pair.
func (p *Pane) Target() area.Target {
	return area.Target{ID: p.Area, InVehicle: p.InVehicle}
}

// Entries is the current display list.
func (p *Pane) Entries() []Entry { return p.entries }

// FilterText is the active filter source, empty when unfiltered.
func (p *Pane) FilterText() string { return p.filterText }

// RemainText describes the free room of the pane's storage.
func (p *Pane) RemainText() string { return p.remain }

// SetFilter replaces the filter. Empty text disables filtering. On a compile
// error the previous filter stays active.
func (p *Pane) SetFilter(text string) error {
	f, err := p.cache.Get(text)
	if err != nil {
		return fmt.Errorf("filter %q: %w", text, err)
	}
	p.filterText = text
	p.filter = f
	p.Recalc = true
	return nil
}

// Matches reports whether it passes the pane's filter.
func (p *Pane) Matches(it *world.Item) bool { return p.filter.Match(it) }

// SetSort changes the order and asks for a rebuild.
func (p *Pane) SetSort(by SortBy) {
	p.Sort = by
	p.Recalc = true
}

// effectiveMode decides between ground and cargo for the area: the dragged
// area is always cargo, a compass square without a vehicle is always
// ground, and a square that only has cargo shows cargo.
func effectiveMode(a *area.Area, inVehicle bool) bool {
	switch {
	case a.ID == area.Dragged:
		return true
	case !a.ID.Compass():
		return false
	case !a.VehicleEligible():
		return false
	case !a.CanHoldItems:
		return true
	}
	return inVehicle
}

// Rebuild repopulates the display list from the pane's area, or from every
// concrete area when it shows the aggregate. vehicleOverride forces cargo
// mode where a vehicle is present.
func (p *Pane) Rebuild(set *area.Set, vehicleOverride bool) {
	a := set.Get(p.Area)
	targets := set.Concrete()
	if p.Area != area.All {
		p.InVehicle = effectiveMode(a, p.InVehicle || vehicleOverride)
		targets = []area.Target{p.Target()}
	}

	var entries []Entry
	for _, t := range targets {
		s := set.Store(t)
		if s == nil {
			continue
		}
		entries = appendEntries(entries, set, s, t, p.filter)
	}
	sortEntries(entries, p.Sort)
	if p.Sort == SortCategory {
		entries = withHeaders(entries)
	}
	for i := range entries {
		if !entries[i].Header {
			entries[i].Text = rowText(&entries[i], p.Area == area.All)
		}
	}
	p.entries = entries

	if p.Area == area.All {
		p.remain = remainText(set.TotalFreeVolume(targets...))
	} else if a.Store(p.InVehicle) == nil {
		p.remain = ""
	} else {
		p.remain = remainText(a.FreeVolume(p.InVehicle))
	}

	p.clampIndex()
	p.Redraw = true
	p.Recalc = false
}

func appendEntries(entries []Entry, set *area.Set, s world.Store, t area.Target, f *filter.Filter) []Entry {
	reg := set.Registry()
	first := len(entries)
	for i := 0; i < s.Len(); i++ {
		it := s.At(i)
		if !f.Match(it) {
			continue
		}
		loc, err := world.Locate(reg, s, i, it)
		if err != nil {
			continue
		}
		grouped := false
		for j := first; j < len(entries); j++ {
			if entries[j].Items[0].Identical(it) {
				entries[j].Items = append(entries[j].Items, it)
				entries[j].Locs = append(entries[j].Locs, loc)
				grouped = true
				break
			}
		}
		if grouped {
			continue
		}
		category := ""
		if it.Type != nil {
			category = it.Type.Category
		}
		entries = append(entries, Entry{
			Category: category,
			Source:   t,
			Items:    []*world.Item{it},
			Locs:     []world.Locator{loc},
		})
	}
	return entries
}

func rowText(e *Entry, showSource bool) string {
	name := e.Item().DisplayName()
	if !e.Item().Stackable() && len(e.Items) > 1 {
		name = fmt.Sprintf("%d %s", len(e.Items), name)
	}
	if showSource {
		short := e.Source.ID.Short()
		if e.Source.InVehicle {
			short += "*"
		}
		return fmt.Sprintf("%-3s %s", short, name)
	}
	return name
}

func remainText(free int) string {
	if free < 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d ml free", free)
}

// Selected returns the row under the cursor.
func (p *Pane) Selected() (*Entry, bool) {
	if p.Index < 0 || p.Index >= len(p.entries) || p.entries[p.Index].Header {
		return nil, false
	}
	return &p.entries[p.Index], true
}

func (p *Pane) selectable() bool {
	for i := range p.entries {
		if !p.entries[i].Header {
			return true
		}
	}
	return false
}

func (p *Pane) clampIndex() {
	if len(p.entries) == 0 {
		p.Index = 0
		return
	}
	if p.Index >= len(p.entries) {
		p.Index = len(p.entries) - 1
	}
	if p.Index < 0 {
		p.Index = 0
	}
	if p.entries[p.Index].Header && p.selectable() {
		p.Index = p.step(p.Index, 1)
	}
}

// step moves one selectable row in dir, wrapping and skipping headers.
func (p *Pane) step(from, dir int) int {
	n := len(p.entries)
	i := from
	for k := 0; k < n; k++ {
		i = ((i+dir)%n + n) % n
		if !p.entries[i].Header {
			return i
		}
	}
	return from
}

// Scroll moves the selection by offset rows, wrapping at both ends.
func (p *Pane) Scroll(offset int) {
	if !p.selectable() || offset == 0 {
		return
	}
	dir := 1
	if offset < 0 {
		dir, offset = -1, -offset
	}
	for ; offset > 0; offset-- {
		p.Index = p.step(p.Index, dir)
	}
	p.Redraw = true
}

// ScrollCategory jumps to the first row of the next (dir > 0) or previous
// category, wrapping.
func (p *Pane) ScrollCategory(dir int) {
	if !p.selectable() || dir == 0 {
		return
	}
	if dir > 0 {
		dir = 1
	} else {
		dir = -1
	}
	cur := p.entries[p.Index].Category
	i := p.Index
	found := false
	for k := 0; k < len(p.entries); k++ {
		i = p.step(i, dir)
		if p.entries[i].Category != cur {
			found = true
			break
		}
	}
	if !found {
		return
	}
	if dir < 0 {
		// walk back to the start of that category
		target := p.entries[i].Category
		for {
			prev := p.step(i, -1)
			if p.entries[prev].Category != target || prev == i {
				break
			}
			i = prev
		}
	}
	p.Index = i
	p.Redraw = true
}

// Page is the zero-based page holding the selection.
func (p *Pane) Page() int {
	if p.PageSize <= 0 {
		return 0
	}
	return p.Index / p.PageSize
}

// PageCount is the number of pages, at least 1.
func (p *Pane) PageCount() int {
	if p.PageSize <= 0 || len(p.entries) == 0 {
		return 1
	}
	return (len(p.entries) + p.PageSize - 1) / p.PageSize
}

// PageEntries is the slice of rows on the selection's page.
func (p *Pane) PageEntries() []Entry {
	if p.PageSize <= 0 {
		return p.entries
	}
	start := p.Page() * p.PageSize
	end := start + p.PageSize
	if end > len(p.entries) {
		end = len(p.entries)
	}
	return p.entries[start:end]
}

// Show switches the pane to id and forgets any remembered place.
func (p *Pane) Show(id area.ID) {
	p.Area = id
	p.prev = nil
	p.Index = 0
	p.Recalc = true
}

// Enter switches the pane to id, remembering exactly one previous place.
func (p *Pane) Enter(id area.ID, inVehicle bool) {
	prev := p.Target()
	p.prev = &prev
	p.Area = id
	p.InVehicle = inVehicle
	p.Index = 0
	p.Recalc = true
}

// Leave returns to the place remembered by Enter. It reports false when
// there is nothing to go back to.
func (p *Pane) Leave() bool {
	if p.prev == nil {
		return false
	}
	p.Area = p.prev.ID
	p.InVehicle = p.prev.InVehicle
	p.prev = nil
	p.Index = 0
	p.Recalc = true
	return true
}

// Open focuses the selected container and enters the Container area.
func (p *Pane) Open(set *area.Set) error {
	e, ok := p.Selected()
	if !ok {
		return area.ErrNoFocus
	}
	if p.Area == area.Container {
		return fmt.Errorf("nested container view: %w", area.ErrNoFocus)
	}
	if err := set.Get(area.Container).FocusContainer(e.Source, e.Locs[0]); err != nil {
		return err
	}
	p.Enter(area.Container, false)
	return nil
}

// ResolvedDestination is where items moved toward this pane land: the
// pane's own place, or last when the pane shows the aggregate area.
func (p *Pane) ResolvedDestination(last area.Target) area.Target {
	if p.Area == area.All {
		return last
	}
	return p.Target()
}

// Save writes the pane's state into b under the pane name.
func (p *Pane) Save(b *settings.Blob) {
	b.SetArea(p.Name, int(p.Area))
	b.SetInVehicle(p.Name, p.InVehicle)
	b.SetIndex(p.Name, p.Index)
	b.SetFilter(p.Name, p.filterText)
	b.SetSort(p.Name, p.Sort.String())
}

// Load restores state saved by Save. A filter that no longer compiles is
// dropped and reported.
func (p *Pane) Load(b *settings.Blob) error {
	id := area.ID(b.Area(p.Name, int(p.Area)))
	if id >= 0 && id < area.NumAreas && id != area.Container {
		p.Area = id
	}
	p.InVehicle = b.InVehicle(p.Name)
	p.Index = b.Index(p.Name)
	p.Sort = SortFromString(b.Sort(p.Name))
	p.Recalc = true
	if err := p.SetFilter(b.Filter(p.Name)); err != nil {
		p.filterText, p.filter = "", nil
		return err
	}
	return nil
}
