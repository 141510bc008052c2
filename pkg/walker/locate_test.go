package walker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/valuesets/pkg/coding"
)

func strPtr(s string) *string {
	return &s
}

func TestExpression(t *testing.T) {
	m := Match{
		Coding:   coding.Coding{System: "sys-a", Code: "X", Display: strPtr("Dee")},
		Segments: []string{"identifier", "type", "coding"},
	}
	assert.Equal(t,
		"`identifier`.`type`.`coding`.where(system = 'sys-a' and code = 'X' and display = 'Dee')",
		Expression(m))

	m.Display = nil
	m.Code = `it's`
	assert.Equal(t,
		"`identifier`.`type`.`coding`.where(system = 'sys-a' and code = 'it\\'s' and display.empty())",
		Expression(m))
}

func TestLocatorFindsEveryMatch(t *testing.T) {
	loc, err := NewLocator(0)
	require.NoError(t, err)

	for _, src := range []string{patientJSON, bundleJSON} {
		doc := []byte(src)
		for _, m := range Walk(parse(t, src)) {
			found, err := loc.Locate(doc, m)
			require.NoError(t, err, "match at %s", m.Path)
			assert.True(t, found, "match at %s not located", m.Path)
		}
	}
}

func TestLocatorRejectsAlteredMatch(t *testing.T) {
	loc, err := NewLocator(8)
	require.NoError(t, err)

	doc := []byte(patientJSON)
	matches := Walk(parse(t, patientJSON))
	require.Len(t, matches, 1)

	wrongCode := matches[0]
	wrongCode.Code = "Y"
	found, err := loc.Locate(doc, wrongCode)
	require.NoError(t, err)
	assert.False(t, found)

	noDisplay := matches[0]
	noDisplay.Display = nil
	found, err = loc.Locate(doc, noDisplay)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLocatorCachesExpressions(t *testing.T) {
	loc, err := NewLocator(4)
	require.NoError(t, err)

	doc := []byte(patientJSON)
	m := Walk(parse(t, patientJSON))[0]

	for i := 0; i < 3; i++ {
		_, err := loc.Locate(doc, m)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, loc.CacheLen())
}

func TestLocatorRootCoding(t *testing.T) {
	loc, err := NewLocator(0)
	require.NoError(t, err)

	doc := []byte(`{"system": "a", "code": "1"}`)
	matches := Walk(parse(t, string(doc)))
	require.Len(t, matches, 1)

	found, err := loc.Locate(doc, matches[0])
	require.NoError(t, err)
	assert.True(t, found)

	other := matches[0]
	other.System = "b"
	found, err = loc.Locate(doc, other)
	require.NoError(t, err)
	assert.False(t, found)
}
