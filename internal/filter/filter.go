package filter

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/l1jgo/advinv/internal/scripting"
	"github.com/l1jgo/advinv/internal/world"
)

var ErrNoScripting = errors.New("lua terms need a scripting engine")

// maxFuzzyDistance is the edit distance a ~term tolerates.
const maxFuzzyDistance = 2

const luaPrefix = "lua:"

// Filter is a compiled filter text. Positive terms are ORed; any matching
// exclusion (a term starting with '-') rejects the item.
//
//	rope, c:tools, -m:plastic, ~hamer, p:liquid, lua:item.weight > 500
//
// A lua: term runs to the end of the text so the expression may contain
// commas.
type Filter struct {
	text    string
	include []term
	exclude []term
}

type term interface {
	match(it *world.Item) bool
}

// Compile parses text. eng may be nil when no lua: term is used.
func Compile(text string, eng *scripting.Engine) (*Filter, error) {
	f := &Filter{text: text}
	rest := text
	for rest != "" {
		var raw string
		if i := strings.IndexByte(rest, ','); i >= 0 && luaMarker(rest[:i]) < 0 {
			raw, rest = rest[:i], rest[i+1:]
		} else {
			raw, rest = rest, ""
		}
		raw = strings.TrimSpace(raw)
		negate := strings.HasPrefix(raw, "-")
		if negate {
			raw = strings.TrimSpace(raw[1:])
		}
		if raw == "" {
			continue
		}
		t, err := parseTerm(raw, eng)
		if err != nil {
			return nil, err
		}
		if negate {
			f.exclude = append(f.exclude, t)
		} else {
			f.include = append(f.include, t)
		}
	}
	return f, nil
}

// hasLuaPrefix reports whether s starts with the lua: marker, in any case.
func hasLuaPrefix(s string) bool {
	return len(s) >= len(luaPrefix) && strings.EqualFold(s[:len(luaPrefix)], luaPrefix)
}

// luaMarker returns the offset of the lua: marker in seg when seg is a
// (possibly negated) lua term, or -1. It reads a term exactly as Compile
// does.
func luaMarker(seg string) int {
	rest := strings.TrimLeftFunc(seg, unicode.IsSpace)
	if strings.HasPrefix(rest, "-") {
		rest = strings.TrimLeftFunc(rest[1:], unicode.IsSpace)
	}
	if !hasLuaPrefix(rest) {
		return -1
	}
	return len(seg) - len(rest)
}

// luaStart returns the offset in text of the marker of the first lua term,
// or -1. That term runs to the end of the text.
func luaStart(text string) int {
	off := 0
	for {
		seg := text[off:]
		end := strings.IndexByte(seg, ',')
		if end >= 0 {
			seg = seg[:end]
		}
		if m := luaMarker(seg); m >= 0 {
			return off + m
		}
		if end < 0 {
			return -1
		}
		off += end + 1
	}
}

func parseTerm(raw string, eng *scripting.Engine) (term, error) {
	if hasLuaPrefix(raw) {
		if eng == nil {
			return nil, ErrNoScripting
		}
		x, err := eng.Compile(strings.TrimSpace(raw[len(luaPrefix):]))
		if err != nil {
			return nil, err
		}
		return luaTerm{x}, nil
	}
	norm := Normalize(raw)
	switch {
	case strings.HasPrefix(norm, "c:"):
		return categoryTerm(strings.TrimSpace(norm[2:])), nil
	case strings.HasPrefix(norm, "m:"):
		return materialTerm(strings.TrimSpace(norm[2:])), nil
	case strings.HasPrefix(norm, "p:"):
		switch p := strings.TrimSpace(norm[2:]); p {
		case "liquid", "solid", "gas":
			return phaseTerm(p), nil
		default:
			return nil, fmt.Errorf("unknown phase %q", p)
		}
	case strings.HasPrefix(norm, "~"):
		return fuzzyTerm(strings.TrimSpace(norm[1:])), nil
	}
	return nameTerm(norm), nil
}

// Text returns the source text.
func (f *Filter) Text() string { return f.text }

// Match reports whether it passes the filter. A nil filter passes all.
func (f *Filter) Match(it *world.Item) bool {
	if f == nil {
		return true
	}
	for _, t := range f.exclude {
		if t.match(it) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, t := range f.include {
		if t.match(it) {
			return true
		}
	}
	return false
}

type nameTerm string

func (t nameTerm) match(it *world.Item) bool {
	return strings.Contains(Normalize(it.Name()), string(t))
}

type categoryTerm string

func (t categoryTerm) match(it *world.Item) bool {
	return it.Type != nil && strings.HasPrefix(Normalize(it.Type.Category), string(t))
}

type materialTerm string

func (t materialTerm) match(it *world.Item) bool {
	return it.Type != nil && strings.HasPrefix(Normalize(it.Type.Material), string(t))
}

type phaseTerm string

func (t phaseTerm) match(it *world.Item) bool {
	return it.Type != nil && it.Type.Phase.String() == string(t)
}

type fuzzyTerm string

func (t fuzzyTerm) match(it *world.Item) bool {
	if t == "" {
		return true
	}
	limit := maxFuzzyDistance
	if n := len([]rune(string(t))) - 1; n < limit {
		limit = n
	}
	name := Normalize(it.Name())
	if levenshtein.ComputeDistance(string(t), name) <= limit {
		return true
	}
	for _, w := range strings.Fields(name) {
		if levenshtein.ComputeDistance(string(t), w) <= limit {
			return true
		}
	}
	return false
}

type luaTerm struct {
	x *scripting.Expr
}

func (t luaTerm) match(it *world.Item) bool {
	ok, err := t.x.Match(Facts(it))
	return err == nil && ok
}

// Facts is the scripted view of an item.
func Facts(it *world.Item) scripting.ItemFacts {
	f := scripting.ItemFacts{
		Name:    it.Name(),
		Volume:  it.Volume(),
		Weight:  it.Weight(),
		Charges: it.Count(),
		Liquid:  it.IsLiquid(),
	}
	if it.Type != nil {
		f.Category = it.Type.Category
		f.Material = it.Type.Material
	}
	for _, c := range it.Contents {
		f.Contents = append(f.Contents, c.Name())
	}
	return f
}
