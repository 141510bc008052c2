package emitter

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxNameLength is the rune limit for the name element of emitted resources.
const MaxNameLength = 64

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	dashRun         = regexp.MustCompile(`-+`)
)

// Slug builds the identifier shared by the ids and filenames of a group.
func Slug(system, path string) string {
	s := nonAlphanumeric.ReplaceAllString(path+"-"+system, "-")
	s = strings.ToLower(s)
	s = dashRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Resource returns the leading segment of a resolved path.
func Resource(path string) string {
	resource, _, _ := strings.Cut(path, ".")
	return resource
}

// Truncate keeps at most n runes of s.
func Truncate(s string, n int) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Name builds "<resource>_<slug>_<suffix>" capped at MaxNameLength runes.
func Name(resource, slug, suffix string) string {
	return Truncate(resource+"_"+slug+"_"+suffix, MaxNameLength)
}

// CodeSystemURL derives the CodeSystem canonical url: a name-based UUID
// (version 5, URL namespace) of "system|path|CS".
func CodeSystemURL(system, path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(system+"|"+path+"|CS")).String()
}

// ValueSetURL derives the ValueSet canonical url. Unlike CodeSystemURL it is
// the raw "system/path" concatenation, which downstream consumers rely on.
func ValueSetURL(system, path string) string {
	return system + "/" + path
}
