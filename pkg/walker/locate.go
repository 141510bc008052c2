package walker

import (
	"fmt"
	"strings"

	"github.com/gofhir/fhirpath"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gofhir/valuesets/pkg/coding"
	"github.com/gofhir/valuesets/pkg/document"
)

// DefaultLocatorCacheSize is the number of compiled expressions a Locator keeps.
const DefaultLocatorCacheSize = 256

// Locator finds a Match again in its source document using FHIRPath.
type Locator struct {
	cache *lru.Cache[string, *fhirpath.Expression]
}

// NewLocator creates a Locator caching up to size compiled expressions.
func NewLocator(size int) (*Locator, error) {
	if size <= 0 {
		size = DefaultLocatorCacheSize
	}

	cache, err := lru.New[string, *fhirpath.Expression](size)
	if err != nil {
		return nil, err
	}

	return &Locator{cache: cache}, nil
}

// Locate reports whether doc holds a coding equal to m at m's field path.
func (l *Locator) Locate(doc []byte, m Match) (bool, error) {
	if len(m.Segments) == 0 {
		return locateRoot(doc, m)
	}

	expr := Expression(m)

	compiled, err := l.compile(expr)
	if err != nil {
		return false, fmt.Errorf("failed to compile FHIRPath expression '%s': %w", expr, err)
	}

	result, err := compiled.Evaluate(doc)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate FHIRPath expression '%s': %w", expr, err)
	}

	return !result.Empty(), nil
}

// CacheLen returns the number of cached expressions.
func (l *Locator) CacheLen() int {
	return l.cache.Len()
}

func (l *Locator) compile(expr string) (*fhirpath.Expression, error) {
	if compiled, ok := l.cache.Get(expr); ok {
		return compiled, nil
	}

	compiled, err := fhirpath.Compile(expr)
	if err != nil {
		return nil, err
	}

	l.cache.Add(expr, compiled)
	return compiled, nil
}

// locateRoot handles codings sitting on the document root, which FHIRPath
// cannot address by member navigation.
func locateRoot(doc []byte, m Match) (bool, error) {
	root, err := document.Parse(doc)
	if err != nil {
		return false, err
	}

	c, ok := coding.Match(root)
	if !ok {
		return false, nil
	}

	return sameCoding(c, m.Coding), nil
}

func sameCoding(a, b coding.Coding) bool {
	if a.System != b.System || a.Code != b.Code || a.HasDisplay() != b.HasDisplay() {
		return false
	}
	return a.DisplayValue() == b.DisplayValue()
}

// Expression builds the FHIRPath expression selecting m in its document, e.g.
//
//	`identifier`.`type`.`coding`.where(system = 'sys-a' and code = 'X' and display = 'Dee')
//
// Every segment is a delimited identifier so keys that collide with FHIRPath
// keywords or contain punctuation still navigate.
func Expression(m Match) string {
	var b strings.Builder

	for i, seg := range m.Segments {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteByte('`')
		b.WriteString(strings.ReplaceAll(seg, "`", "\\`"))
		b.WriteByte('`')
	}

	b.WriteString(".where(system = ")
	b.WriteString(quote(m.System))
	b.WriteString(" and code = ")
	b.WriteString(quote(m.Code))
	if m.HasDisplay() {
		b.WriteString(" and display = ")
		b.WriteString(quote(m.DisplayValue()))
	} else {
		b.WriteString(" and display.empty()")
	}
	b.WriteByte(')')

	return b.String()
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// quote renders s as a FHIRPath string literal.
func quote(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}
