// Package emitter writes one CodeSystem and one ValueSet JSON resource per
// referential group.
package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/gofhir/valuesets/pkg/logger"
	"github.com/gofhir/valuesets/pkg/referential"
)

// ArtifactVersion is the business version stamped on every emitted resource.
const ArtifactVersion = "1.0.0"

// dateLayout renders the date element as YYYY-MM-DD.
const dateLayout = "2006-01-02"

// Info summarizes an emitted CodeSystem/ValueSet pair.
type Info struct {
	Resource string
	Path     string
	System   string
	// URL is the ValueSet url.
	URL string
	// Filename is the ValueSet file name.
	Filename string

	CodeSystemURL  string
	CodeSystemFile string
	Codes          int
}

// Config holds the emitter settings.
type Config struct {
	Now           func() time.Time
	MaxNameLength int
	Logger        *logger.Logger
	FileSystem    afs.Service
}

// Option is a functional option for configuring the emitter.
type Option func(*Config)

// WithDate sets the clock used for the date element.
func WithDate(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// WithMaxNameLength overrides the rune limit of the name element.
func WithMaxNameLength(n int) Option {
	return func(c *Config) {
		c.MaxNameLength = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithFileSystem sets the storage the resources are written to.
func WithFileSystem(fs afs.Service) Option {
	return func(c *Config) {
		c.FileSystem = fs
	}
}

// Emitter writes resources under a destination directory.
type Emitter struct {
	dest string
	cfg  Config
}

// New creates an Emitter writing to dest.
func New(dest string, opts ...Option) *Emitter {
	cfg := Config{
		Now:           time.Now,
		MaxNameLength: MaxNameLength,
		Logger:        logger.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.FileSystem == nil {
		cfg.FileSystem = afs.New()
	}
	return &Emitter{dest: dest, cfg: cfg}
}

// Emit writes a resource pair for every non-empty group of acc, in group
// order, creating the destination directory when missing. The first failure
// aborts the run; files already written are left in place.
func (e *Emitter) Emit(ctx context.Context, acc *referential.Accumulator) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.ensureDest(ctx); err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, nil
	}

	date := e.cfg.Now().Format(dateLayout)
	infos := make([]Info, 0, acc.Len())
	slugs := make(map[string]referential.Key, acc.Len())

	for _, g := range acc.Groups() {
		if err := ctx.Err(); err != nil {
			return infos, err
		}
		if g.Len() == 0 {
			continue
		}

		slug := Slug(g.System, g.Path)
		if previous, ok := slugs[slug]; ok {
			e.cfg.Logger.Warn("Group %s overwrites the files of group %s (shared name %s)", g.Key, previous, slug)
		}
		slugs[slug] = g.Key

		info, err := e.emitGroup(ctx, g, date)
		if err != nil {
			return infos, err
		}
		infos = append(infos, info)
	}

	return infos, nil
}

func (e *Emitter) ensureDest(ctx context.Context) error {
	exists, err := e.cfg.FileSystem.Exists(ctx, e.dest)
	if err != nil {
		return fmt.Errorf("failed to check output directory %s: %w", e.dest, err)
	}
	if exists {
		return nil
	}
	if err := e.cfg.FileSystem.Create(ctx, e.dest, 0o755, true); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", e.dest, err)
	}
	return nil
}

func (e *Emitter) emitGroup(ctx context.Context, g *referential.Group, date string) (Info, error) {
	system, path := g.System, g.Path
	slug := Slug(system, path)
	resource := Resource(path)
	csURL := CodeSystemURL(system, path)

	concepts := make([]Concept, 0, g.Len())
	for _, c := range g.Concepts() {
		concepts = append(concepts, Concept{Code: c.Code, Display: c.Display})
	}

	cs := CodeSystem{
		ResourceType:  "CodeSystem",
		ID:            slug + "-cs",
		URL:           csURL,
		Version:       ArtifactVersion,
		Name:          e.name(resource, slug, "CS"),
		Title:         fmt.Sprintf("CodeSystem for %s with original system %s", path, system),
		Status:        "active",
		Date:          date,
		Description:   fmt.Sprintf("CodeSystem containing codes from %s used in %s", system, path),
		Content:       "complete",
		CaseSensitive: true,
		Concept:       concepts,
	}

	vs := ValueSet{
		ResourceType: "ValueSet",
		ID:           slug + "-vs",
		URL:          ValueSetURL(system, path),
		Version:      ArtifactVersion,
		Name:         e.name(resource, slug, "VS"),
		Title:        fmt.Sprintf("ValueSet for %s with system %s", path, system),
		Status:       "active",
		Date:         date,
		Description:  fmt.Sprintf("ValueSet containing codes from %s used in %s", system, path),
		Compose: Compose{
			Include: []Include{{System: csURL}},
		},
	}

	csFile := slug + "-codesystem.json"
	vsFile := slug + "-valueset.json"

	if err := e.write(ctx, csFile, cs); err != nil {
		return Info{}, err
	}
	if err := e.write(ctx, vsFile, vs); err != nil {
		return Info{}, err
	}

	e.cfg.Logger.Info("Generated %s and %s (%d codes)", csFile, vsFile, g.Len())

	return Info{
		Resource:       resource,
		Path:           path,
		System:         system,
		URL:            vs.URL,
		Filename:       vsFile,
		CodeSystemURL:  csURL,
		CodeSystemFile: csFile,
		Codes:          g.Len(),
	}, nil
}

func (e *Emitter) name(resource, slug, suffix string) string {
	return Truncate(resource+"_"+slug+"_"+suffix, e.cfg.MaxNameLength)
}

func (e *Emitter) write(ctx context.Context, filename string, resource any) error {
	data, err := Marshal(resource)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}

	location := url.Join(e.dest, filename)
	if err := e.cfg.FileSystem.Upload(ctx, location, 0o644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	return nil
}

// Marshal encodes v as two-space indented JSON without HTML escaping.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
