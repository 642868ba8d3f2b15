package pane

import (
	"sort"
	"strings"
)

// SortBy is the order of pane entries.
type SortBy int

const (
	SortNone SortBy = iota
	SortName
	SortWeight
	SortVolume
	SortCharges
	SortCategory
)

var sortNames = map[SortBy]string{
	SortNone:     "none",
	SortName:     "name",
	SortWeight:   "weight",
	SortVolume:   "volume",
	SortCharges:  "charges",
	SortCategory: "category",
}

func (s SortBy) String() string {
	if n, ok := sortNames[s]; ok {
		return n
	}
	return "none"
}

// SortFromString parses a sort name. Unknown names are SortNone.
func SortFromString(s string) SortBy {
	for k, v := range sortNames {
		if v == s {
			return k
		}
	}
	return SortNone
}

// sortEntries orders entries in place. Weight, volume and charges sort
// heaviest first; ties fall back to the name.
func sortEntries(entries []Entry, by SortBy) {
	if by == SortNone {
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		switch by {
		case SortWeight:
			if a.Weight() != b.Weight() {
				return a.Weight() > b.Weight()
			}
		case SortVolume:
			if a.Volume() != b.Volume() {
				return a.Volume() > b.Volume()
			}
		case SortCharges:
			if a.Count() != b.Count() {
				return a.Count() > b.Count()
			}
		case SortCategory:
			if a.Category != b.Category {
				return a.Category < b.Category
			}
		}
		return strings.ToLower(a.Item().Name()) < strings.ToLower(b.Item().Name())
	})
}

// withHeaders inserts a header pseudo-entry in front of every category run.
func withHeaders(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries)+4)
	last := "\x00"
	for _, e := range entries {
		if e.Category != last {
			out = append(out, Entry{Header: true, Category: e.Category, Text: headerText(e.Category)})
			last = e.Category
		}
		out = append(out, e)
	}
	return out
}

func headerText(category string) string {
	if category == "" {
		return "OTHER"
	}
	return strings.ToUpper(category)
}
