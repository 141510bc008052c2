// Package loader lists and reads the source documents of an extraction run.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/minio/highwayhash"
	"github.com/viant/afs"
)

// DefaultExtension is the file name suffix of source documents.
const DefaultExtension = ".json"

// ErrSourceNotFound is returned when the source directory does not exist.
var ErrSourceNotFound = errors.New("source directory not found")

// fingerprintKey is the fixed HighwayHash key; fingerprints only need to be
// stable within a run.
var fingerprintKey = []byte("gofhir-valuesets-fingerprint-key")

// Source is a candidate document found in the source directory.
type Source struct {
	Name string
	URL  string
	Size int64
}

// Loader loads source documents through an afs.Service.
type Loader struct {
	fs  afs.Service
	ext string
}

// New creates a Loader. A nil fs uses afs.New() and an empty ext uses
// DefaultExtension.
func New(fs afs.Service, ext string) *Loader {
	if fs == nil {
		fs = afs.New()
	}
	if ext == "" {
		ext = DefaultExtension
	}
	return &Loader{fs: fs, ext: ext}
}

// Extension returns the file name suffix this loader accepts.
func (l *Loader) Extension() string {
	return l.ext
}

// List returns the regular files directly under dir whose name ends with the
// loader extension, sorted by name. Subdirectories are not descended into.
func (l *Loader) List(ctx context.Context, dir string) ([]Source, error) {
	exists, err := l.fs.Exists(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to check source directory %s: %w", dir, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, dir)
	}

	objects, err := l.fs.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list source directory %s: %w", dir, err)
	}

	sources := make([]Source, 0, len(objects))
	for _, obj := range objects {
		if obj.IsDir() || !strings.HasSuffix(obj.Name(), l.ext) {
			continue
		}
		sources = append(sources, Source{
			Name: obj.Name(),
			URL:  obj.URL(),
			Size: obj.Size(),
		})
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Name < sources[j].Name
	})
	return sources, nil
}

// Read downloads the content of src.
func (l *Loader) Read(ctx context.Context, src Source) ([]byte, error) {
	data, err := l.fs.DownloadWithURL(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.URL, err)
	}
	return data, nil
}

// Fingerprint returns the HighwayHash-64 of data. Byte-identical documents
// share a fingerprint.
func Fingerprint(data []byte) (uint64, error) {
	hash, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return 0, err
	}
	_, err = hash.Write(data)
	return hash.Sum64(), err
}
