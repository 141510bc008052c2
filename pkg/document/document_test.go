package document

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsMemberOrder(t *testing.T) {
	doc, err := Parse([]byte(`{"zeta": 1, "alpha": {"b": true, "a": null}, "mid": ["x", 2.5]}`))
	require.NoError(t, err)

	root, ok := doc.(*Object)
	require.True(t, ok, "root should be an *Object, got %T", doc)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, root.Keys())

	zeta, _ := root.Get("zeta")
	assert.Equal(t, json.Number("1"), zeta)

	alpha, _ := root.Get("alpha")
	nested, ok := alpha.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, nested.Keys())
	b, _ := nested.Get("b")
	assert.Equal(t, true, b)
	a, present := nested.Get("a")
	assert.True(t, present)
	assert.Nil(t, a)

	mid, _ := root.Get("mid")
	assert.Equal(t, []any{"x", json.Number("2.5")}, mid)
}

func TestParseUnescapesStrings(t *testing.T) {
	doc, err := Parse([]byte(`{"system": "http://a\/b", "display": "café \"au lait\""}`))
	require.NoError(t, err)

	root := doc.(*Object)
	assert.Equal(t, []string{"system", "display"}, root.Keys())

	system, _ := root.Get("system")
	assert.Equal(t, "http://a/b", system)
	display, _ := root.Get("display")
	assert.Equal(t, `café "au lait"`, display)
}

func TestParseEscapedKeys(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "escaped backslash before u", input: `{"a\\u0041": 1}`, want: `a\u0041`},
		{name: "escaped backslash before b", input: `{"a\\b": 1}`, want: `a\b`},
		{name: "escaped backslash before q", input: `{"C:\\q": 1}`, want: `C:\q`},
		{name: "unicode escape", input: `{"caf\u00e9": 1}`, want: "café"},
		{name: "escaped quote", input: `{"say \"hi\"": 1}`, want: `say "hi"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.input))
			require.NoError(t, err)

			root := doc.(*Object)
			assert.Equal(t, []string{tt.want}, root.Keys())
			_, ok := root.Get(tt.want)
			assert.True(t, ok)
		})
	}
}

func TestParseScalarsAndArraysAtRoot(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{"string", `"hello"`, "hello"},
		{"number", `42`, json.Number("42")},
		{"bool", `false`, false},
		{"null", `null`, nil},
		{"empty array", `[]`, []any{}},
		{"array", ` [1, "two"] `, []any{json.Number("1"), "two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDuplicateKeyKeepsFirstPosition(t *testing.T) {
	doc, err := Parse([]byte(`{"a": 1, "b": 2, "a": 3}`))
	require.NoError(t, err)

	root := doc.(*Object)
	assert.Equal(t, []string{"a", "b"}, root.Keys())
	a, _ := root.Get("a")
	assert.Equal(t, json.Number("3"), a)
}

func TestParseInvalid(t *testing.T) {
	inputs := []string{
		``,
		`{`,
		`{"a": }`,
		`{"a": 1,}`,
		`not json`,
	}

	for _, input := range inputs {
		_, err := Parse([]byte(input))
		require.Error(t, err, "input %q", input)
		assert.True(t, errors.Is(err, ErrInvalidJSON), "input %q: %v", input, err)
	}
}

func TestObjectHelpers(t *testing.T) {
	obj := NewObject().Set("b", 1).Set("a", 2).Set("b", 3)

	assert.Equal(t, 2, obj.Len())
	assert.Equal(t, []string{"b", "a"}, obj.Keys())
	assert.Equal(t, map[string]any{"a": 2, "b": 3}, obj.Map())

	var nilObj *Object
	assert.Equal(t, 0, nilObj.Len())
	assert.Nil(t, nilObj.Keys())
	_, ok := nilObj.Get("x")
	assert.False(t, ok)
}
