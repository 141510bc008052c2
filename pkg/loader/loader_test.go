package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `{"resourceType":"Patient"}`)
	writeFile(t, dir, "a.json", `{"resourceType":"Observation"}`)
	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, "upper.JSON", "{}")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))
	writeFile(t, filepath.Join(dir, "nested.json"), "c.json", "{}")

	l := New(nil, "")
	sources, err := l.List(context.Background(), dir)
	require.NoError(t, err)

	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, src.Name)
	}
	assert.Equal(t, []string{"a.json", "b.json"}, names)
	assert.Equal(t, ".json", l.Extension())
}

func TestListCustomExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", "{}")
	writeFile(t, dir, "b.fhir.json", "{}")

	sources, err := New(nil, ".fhir.json").List(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "b.fhir.json", sources[0].Name)
}

func TestListMissingDirectory(t *testing.T) {
	_, err := New(nil, "").List(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceNotFound))
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"resourceType":"Patient"}`)

	l := New(nil, "")
	sources, err := l.List(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, sources, 1)

	data, err := l.Read(context.Background(), sources[0])
	require.NoError(t, err)
	assert.Equal(t, `{"resourceType":"Patient"}`, string(data))
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint([]byte(`{"a":1}`))
	require.NoError(t, err)
	b, err := Fingerprint([]byte(`{"a":1}`))
	require.NoError(t, err)
	c, err := Fingerprint([]byte(`{"a": 1}`))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
