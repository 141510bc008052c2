package emitter

// CodeSystem is the emitted definition artifact. Field order is the
// serialization order.
type CodeSystem struct {
	ResourceType  string    `json:"resourceType"`
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	Version       string    `json:"version"`
	Name          string    `json:"name"`
	Title         string    `json:"title"`
	Status        string    `json:"status"`
	Date          string    `json:"date"`
	Description   string    `json:"description"`
	Content       string    `json:"content"`
	CaseSensitive bool      `json:"caseSensitive"`
	Concept       []Concept `json:"concept"`
}

// Concept is a code of an emitted CodeSystem.
type Concept struct {
	Code    string  `json:"code"`
	Display *string `json:"display,omitempty"`
}

// ValueSet is the emitted membership artifact.
type ValueSet struct {
	ResourceType string  `json:"resourceType"`
	ID           string  `json:"id"`
	URL          string  `json:"url"`
	Version      string  `json:"version"`
	Name         string  `json:"name"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	Date         string  `json:"date"`
	Description  string  `json:"description"`
	Compose      Compose `json:"compose"`
}

// Compose lists the CodeSystems a ValueSet includes.
type Compose struct {
	Include []Include `json:"include"`
}

// Include selects every code of System.
type Include struct {
	System string `json:"system"`
}
