package referential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/valuesets/pkg/coding"
	"github.com/gofhir/valuesets/pkg/walker"
)

func strPtr(s string) *string {
	return &s
}

func match(system, path, code string, display *string) walker.Match {
	return walker.Match{
		Coding: coding.Coding{System: system, Code: code, Display: display},
		Path:   path,
	}
}

func codes(g *Group) []string {
	out := make([]string, 0, g.Len())
	for _, c := range g.Concepts() {
		out = append(out, c.Code)
	}
	return out
}

func TestMergeGroupsBySystemAndPath(t *testing.T) {
	acc := Merge(nil, []walker.Match{
		match("http://loinc.org", "Observation.code.coding", "1", nil),
		match("http://loinc.org", "Observation.code.coding", "2", nil),
		match("http://loinc.org", "Observation.category.coding", "1", nil),
		match("http://snomed.info/sct", "Observation.code.coding", "1", nil),
	})

	require.Equal(t, 3, acc.Len())
	assert.Equal(t, 4, acc.Codes())

	keys := make([]Key, 0, acc.Len())
	for _, g := range acc.Groups() {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []Key{
		{System: "http://loinc.org", Path: "Observation.code.coding"},
		{System: "http://loinc.org", Path: "Observation.category.coding"},
		{System: "http://snomed.info/sct", Path: "Observation.code.coding"},
	}, keys)

	g, ok := acc.Group(Key{System: "http://loinc.org", Path: "Observation.code.coding"})
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2"}, codes(g))
}

func TestFirstDisplayWins(t *testing.T) {
	acc := New()
	key := Key{System: "s", Path: "P"}

	assert.True(t, acc.Add(key, Concept{Code: "1", Display: strPtr("one")}))
	assert.False(t, acc.Add(key, Concept{Code: "1", Display: strPtr("uno")}))
	assert.False(t, acc.Add(key, Concept{Code: "1"}))

	g, _ := acc.Group(key)
	c, ok := g.Lookup("1")
	require.True(t, ok)
	require.NotNil(t, c.Display)
	assert.Equal(t, "one", *c.Display)
	assert.Equal(t, 1, g.Len())
}

func TestMergeAcrossDocumentsIsOrderSensitiveForDisplay(t *testing.T) {
	withDisplay := []walker.Match{match("a", "P", "1", strPtr("one"))}
	without := []walker.Match{match("a", "P", "1", nil)}
	key := Key{System: "a", Path: "P"}

	acc := Merge(Merge(New(), withDisplay), without)
	g, _ := acc.Group(key)
	c, _ := g.Lookup("1")
	require.NotNil(t, c.Display)
	assert.Equal(t, "one", *c.Display)

	acc = Merge(Merge(New(), without), withDisplay)
	g, _ = acc.Group(key)
	c, _ = g.Lookup("1")
	assert.Nil(t, c.Display)
}

func TestMergeDeduplicatesAcrossDocuments(t *testing.T) {
	doc := []walker.Match{
		match("a", "Patient.identifier.type.coding", "X", strPtr("Dee")),
		match("a", "Patient.identifier.type.coding", "Y", nil),
	}

	acc := New()
	for i := 0; i < 3; i++ {
		acc = Merge(acc, doc)
	}

	require.Equal(t, 1, acc.Len())
	assert.Equal(t, []string{"X", "Y"}, codes(acc.Groups()[0]))
}

func TestMergeIsMonotonic(t *testing.T) {
	acc := Merge(nil, []walker.Match{match("a", "P", "1", nil)})
	before := acc.Codes()

	acc = Merge(acc, nil)
	assert.Equal(t, before, acc.Codes())

	acc = Merge(acc, []walker.Match{match("a", "P", "2", nil), match("b", "", "1", nil)})
	assert.Equal(t, 3, acc.Codes())
	assert.Equal(t, 2, acc.Len())
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "http://loinc.org|Observation.code.coding",
		Key{System: "http://loinc.org", Path: "Observation.code.coding"}.String())
}

func TestLookupMissing(t *testing.T) {
	acc := New()
	acc.Add(Key{System: "s"}, Concept{Code: "1"})

	_, ok := acc.Group(Key{System: "other"})
	assert.False(t, ok)

	g, _ := acc.Group(Key{System: "s"})
	_, ok = g.Lookup("2")
	assert.False(t, ok)
}
