// Package coding recognizes embedded coding triples: objects carrying a code
// system, a code and an optional human-readable display.
package coding

// Coding is a system/code pair with an optional display.
// Display is nil when the source object had no display member.
type Coding struct {
	System  string
	Code    string
	Display *string
}

// HasDisplay reports whether the source object carried a display.
func (c Coding) HasDisplay() bool {
	return c.Display != nil
}

// DisplayValue returns the display, or "" when absent.
func (c Coding) DisplayValue() string {
	if c.Display == nil {
		return ""
	}
	return *c.Display
}

// Getter is a keyed mapping the matcher can inspect.
// *document.Object satisfies it.
type Getter interface {
	Get(key string) (any, bool)
}

// mapGetter adapts a plain decoded map.
type mapGetter map[string]any

func (m mapGetter) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Fields returns a Getter for v if v is a keyed mapping.
func Fields(v any) (Getter, bool) {
	switch node := v.(type) {
	case map[string]any:
		return mapGetter(node), true
	case Getter:
		return node, true
	default:
		return nil, false
	}
}

// Match returns the coding carried by v.
// It succeeds iff v is a keyed mapping with string "system" and "code"
// members, and a string "display" member if one is present.
func Match(v any) (Coding, bool) {
	fields, ok := Fields(v)
	if !ok {
		return Coding{}, false
	}

	system, ok := stringField(fields, "system")
	if !ok {
		return Coding{}, false
	}
	code, ok := stringField(fields, "code")
	if !ok {
		return Coding{}, false
	}

	c := Coding{System: system, Code: code}

	if raw, present := fields.Get("display"); present {
		display, ok := raw.(string)
		if !ok {
			return Coding{}, false
		}
		c.Display = &display
	}

	return c, true
}

// IsCoding reports whether v is a coding triple.
func IsCoding(v any) bool {
	_, ok := Match(v)
	return ok
}

func stringField(fields Getter, key string) (string, bool) {
	raw, ok := fields.Get(key)
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}
