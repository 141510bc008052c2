// Package referential accumulates codings into referential groups keyed by
// code system and resolved path.
//
// An Accumulator is created once per run, passed through Merge for every
// document and consumed once by the emitter. Groups only ever grow, and both
// groups and their codes keep first-seen order so output is reproducible.
package referential

import (
	"github.com/gofhir/valuesets/pkg/walker"
)

// Key identifies a referential group.
type Key struct {
	System string
	Path   string
}

// String renders the key as "system|path".
func (k Key) String() string {
	return k.System + "|" + k.Path
}

// Concept is a distinct code of a group.
type Concept struct {
	Code    string
	Display *string
}

// Group is the set of distinct codes sharing a Key.
type Group struct {
	Key

	concepts []Concept
	index    map[string]int
}

func newGroup(key Key) *Group {
	return &Group{
		Key:   key,
		index: make(map[string]int),
	}
}

// add appends c unless its code is already present.
func (g *Group) add(c Concept) bool {
	if _, ok := g.index[c.Code]; ok {
		return false
	}
	g.index[c.Code] = len(g.concepts)
	g.concepts = append(g.concepts, c)
	return true
}

// Concepts returns the group's codes in first-seen order.
// The slice must not be modified.
func (g *Group) Concepts() []Concept {
	return g.concepts
}

// Lookup returns the concept stored for code.
func (g *Group) Lookup(code string) (Concept, bool) {
	i, ok := g.index[code]
	if !ok {
		return Concept{}, false
	}
	return g.concepts[i], true
}

// Len returns the number of distinct codes.
func (g *Group) Len() int {
	return len(g.concepts)
}

// Accumulator holds every group of a run.
type Accumulator struct {
	groups []*Group
	index  map[Key]*Group
}

// New creates an empty Accumulator.
func New() *Accumulator {
	return &Accumulator{index: make(map[Key]*Group)}
}

// Add records concept c under key. It reports whether c was new; a code
// already present in the group keeps its first display.
func (a *Accumulator) Add(key Key, c Concept) bool {
	g, ok := a.index[key]
	if !ok {
		g = newGroup(key)
		a.index[key] = g
		a.groups = append(a.groups, g)
	}
	return g.add(c)
}

// Group returns the group stored under key.
func (a *Accumulator) Group(key Key) (*Group, bool) {
	g, ok := a.index[key]
	return g, ok
}

// Groups returns all groups in first-seen order.
// The slice must not be modified.
func (a *Accumulator) Groups() []*Group {
	return a.groups
}

// Len returns the number of groups.
func (a *Accumulator) Len() int {
	return len(a.groups)
}

// Codes returns the number of distinct codes across all groups.
func (a *Accumulator) Codes() int {
	n := 0
	for _, g := range a.groups {
		n += g.Len()
	}
	return n
}

// Merge folds matches into acc and returns it. A nil acc starts a new one.
func Merge(acc *Accumulator, matches []walker.Match) *Accumulator {
	if acc == nil {
		acc = New()
	}

	for _, m := range matches {
		acc.Add(Key{System: m.System, Path: m.Path}, Concept{
			Code:    m.Code,
			Display: m.Display,
		})
	}

	return acc
}
