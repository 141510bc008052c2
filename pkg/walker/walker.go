// Package walker provides a generic document walker that finds coding
// triples anywhere in a parsed FHIR document and attributes each one to its
// enclosing resource type and dotted field path.
package walker

import (
	"maps"
	"sort"
	"strings"

	"github.com/gofhir/valuesets/pkg/coding"
)

// Match is a coding found during a walk.
type Match struct {
	coding.Coding

	// Path is the resolved path: the resource type joined with the field path
	// (e.g., "Patient.identifier.type.coding").
	Path string

	// FieldPath is the dotted field path from the document root, without the
	// resource type. Array indices never appear.
	FieldPath string

	// Segments are the field names making up FieldPath.
	Segments []string

	// ResourceType is the nearest enclosing resource type, or "" if none.
	ResourceType string

	// Fields is a shallow copy of the matched object's members.
	Fields map[string]any
}

// Option configures a Walker.
type Option func(*Walker)

// WithMaxDepth bounds how deep the walker descends (0 = unlimited).
// Nodes below the limit are skipped.
func WithMaxDepth(depth int) Option {
	return func(w *Walker) {
		w.maxDepth = depth
	}
}

// Walker traverses JSON-like values looking for codings.
// A Walker holds no per-walk state and may be reused.
type Walker struct {
	maxDepth int
}

// New creates a new Walker.
func New(opts ...Option) *Walker {
	w := &Walker{}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk is a convenience for New().Walk(root).
func Walk(root any) []Match {
	return New().Walk(root)
}

// frame is the traversal state visible to one branch of the walk.
// It is passed by value so sibling branches never see each other's state.
type frame struct {
	segments     []string
	resourceType string
	depth        int
}

// child returns the frame for the member stored under key.
func (f frame) child(key string) frame {
	n := len(f.segments)
	return frame{
		segments:     append(f.segments[:n:n], key),
		resourceType: f.resourceType,
		depth:        f.depth + 1,
	}
}

// item returns the frame for an array element; the path does not change.
func (f frame) item() frame {
	f.depth++
	return f
}

// Walk returns every coding found in root, in traversal order.
// Members of *document.Object values are visited in document order,
// members of plain maps in sorted key order.
func (w *Walker) Walk(root any) []Match {
	var matches []Match
	w.walk(root, frame{}, &matches)
	return matches
}

func (w *Walker) walk(node any, f frame, matches *[]Match) {
	if w.maxDepth > 0 && f.depth > w.maxDepth {
		return
	}

	if items, ok := node.([]any); ok {
		for _, item := range items {
			w.walk(item, f.item(), matches)
		}
		return
	}

	fields, ok := coding.Fields(node)
	if !ok {
		return
	}

	f.resourceType = resolveResourceType(fields, f.resourceType)

	if c, ok := coding.Match(node); ok {
		*matches = append(*matches, f.match(c, copyFields(node)))
	}

	for _, key := range memberKeys(node) {
		value, _ := fields.Get(key)
		w.walk(value, f.child(key), matches)
	}
}

func (f frame) match(c coding.Coding, fields map[string]any) Match {
	fieldPath := strings.Join(f.segments, ".")
	return Match{
		Coding:       c,
		Path:         ResolvePath(f.resourceType, fieldPath),
		FieldPath:    fieldPath,
		Segments:     f.segments,
		ResourceType: f.resourceType,
		Fields:       fields,
	}
}

// ResolvePath joins a resource type and a dotted field path.
// Either part may be empty; no leading or trailing dot is produced.
func ResolvePath(resourceType, fieldPath string) string {
	switch {
	case resourceType != "" && fieldPath != "":
		return resourceType + "." + fieldPath
	case resourceType != "":
		return resourceType
	default:
		return fieldPath
	}
}

// resolveResourceType returns the resource type visible at an object.
// The object's own resourceType wins, then a resourceType carried by a
// "resource" wrapper member (Bundle entries, Parameters), then the inherited one.
func resolveResourceType(fields coding.Getter, inherited string) string {
	if rt := stringMember(fields, "resourceType"); rt != "" {
		return rt
	}

	if wrapped, ok := fields.Get("resource"); ok {
		if inner, ok := coding.Fields(wrapped); ok {
			if rt := stringMember(inner, "resourceType"); rt != "" {
				return rt
			}
		}
	}

	return inherited
}

func stringMember(fields coding.Getter, key string) string {
	raw, ok := fields.Get(key)
	if !ok {
		return ""
	}
	s, _ := raw.(string)
	return s
}

// orderedKeys is implemented by objects that remember member order.
type orderedKeys interface {
	Keys() []string
}

func memberKeys(node any) []string {
	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	case orderedKeys:
		return v.Keys()
	default:
		return nil
	}
}

// mapper is implemented by objects that can copy their members out.
type mapper interface {
	Map() map[string]any
}

func copyFields(node any) map[string]any {
	switch v := node.(type) {
	case map[string]any:
		return maps.Clone(v)
	case mapper:
		return v.Map()
	default:
		return nil
	}
}
