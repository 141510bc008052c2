// Package terminology holds emitted CodeSystems and ValueSets in memory and
// checks aggregated codes against them.
package terminology

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gofhir/fhir/r4"
)

// Sentinel errors returned when a canonical url is unknown.
var (
	ErrValueSetNotFound   = errors.New("valueset not found")
	ErrCodeSystemNotFound = errors.New("codesystem not found")
)

// ValidateCodeResult is the outcome of a code validation.
type ValidateCodeResult struct {
	Valid   bool
	Display string
	Code    string
	System  string
	Message string
}

// Expansion lists the codes of a ValueSet.
type Expansion struct {
	URL      string
	Total    int
	Contains []Contains
}

// Contains is a code of an Expansion.
type Contains struct {
	System  string
	Code    string
	Display string
}

// Service is an in-memory terminology store.
type Service struct {
	mu          sync.RWMutex
	valueSets   map[string]*valueSetData
	codeSystems map[string]*codeSystemData
}

// valueSetData holds a ValueSet and its expanded codes for fast lookup.
type valueSetData struct {
	url      string
	includes []string
	explicit map[string]map[string]codeEntry // system -> code -> entry
	codes    map[string]map[string]codeEntry // explicit plus include-all codes
	// includeAll lists systems whose every code is a member
	includeAll []string
	expanded   bool
}

// codeSystemData holds a CodeSystem for code lookup.
type codeSystemData struct {
	url   string
	codes map[string]codeEntry
}

type codeEntry struct {
	code    string
	display string
	system  string
}

// NewService creates an empty Service.
func NewService() *Service {
	return &Service{
		valueSets:   make(map[string]*valueSetData),
		codeSystems: make(map[string]*codeSystemData),
	}
}

// LoadCodeSystem registers cs under its url, replacing any previous one.
func (s *Service) LoadCodeSystem(cs *r4.CodeSystem) error {
	if cs == nil || cs.Url == nil {
		return fmt.Errorf("codesystem has no url")
	}

	csData := &codeSystemData{
		url:   *cs.Url,
		codes: make(map[string]codeEntry),
	}
	collectConcepts(cs.Concept, csData)

	s.mu.Lock()
	s.codeSystems[*cs.Url] = csData
	// CodeSystems may arrive after the ValueSets that include them.
	for _, vs := range s.valueSets {
		vs.expanded = false
	}
	s.mu.Unlock()

	return nil
}

func collectConcepts(concepts []r4.CodeSystemConcept, csData *codeSystemData) {
	for i := range concepts {
		concept := &concepts[i]
		if concept.Code != nil {
			display := ""
			if concept.Display != nil {
				display = *concept.Display
			}
			csData.codes[*concept.Code] = codeEntry{
				code:    *concept.Code,
				display: display,
				system:  csData.url,
			}
		}
		if len(concept.Concept) > 0 {
			collectConcepts(concept.Concept, csData)
		}
	}
}

// LoadValueSet registers vs under its url. Explicit include concepts and
// expansion contains are members; an include with a bare system takes every
// code of that CodeSystem.
func (s *Service) LoadValueSet(vs *r4.ValueSet) error {
	if vs == nil || vs.Url == nil {
		return fmt.Errorf("valueset has no url")
	}

	vsData := &valueSetData{
		url:      *vs.Url,
		explicit: make(map[string]map[string]codeEntry),
	}

	if vs.Expansion != nil {
		for i := range vs.Expansion.Contains {
			vsData.addContains(&vs.Expansion.Contains[i])
		}
	}
	if vs.Compose != nil {
		vsData.addCompose(vs.Compose)
	}

	vsData.codes = vsData.explicit

	s.mu.Lock()
	s.valueSets[*vs.Url] = vsData
	s.mu.Unlock()

	return nil
}

func (vs *valueSetData) add(system, code, display string) {
	addEntry(vs.explicit, system, codeEntry{code: code, display: display, system: system})
}

func addEntry(codes map[string]map[string]codeEntry, system string, entry codeEntry) {
	if codes[system] == nil {
		codes[system] = make(map[string]codeEntry)
	}
	codes[system][entry.code] = entry
}

func (vs *valueSetData) addContains(contains *r4.ValueSetExpansionContains) {
	if contains.Code != nil && contains.System != nil {
		display := ""
		if contains.Display != nil {
			display = *contains.Display
		}
		vs.add(*contains.System, *contains.Code, display)
	}
	for i := range contains.Contains {
		vs.addContains(&contains.Contains[i])
	}
}

func (vs *valueSetData) addCompose(compose *r4.ValueSetCompose) {
	for i := range compose.Include {
		include := &compose.Include[i]
		if include.System == nil {
			continue
		}
		system := *include.System
		vs.includes = append(vs.includes, system)

		for j := range include.Concept {
			concept := &include.Concept[j]
			if concept.Code == nil {
				continue
			}
			display := ""
			if concept.Display != nil {
				display = *concept.Display
			}
			vs.add(system, *concept.Code, display)
		}

		if len(include.Concept) == 0 && len(include.Filter) == 0 {
			vs.includeAll = append(vs.includeAll, system)
		}
	}
}

// ensureExpanded rebuilds the member codes from the explicit codes and the
// current content of include-all systems. Uses double-checked locking.
func (s *Service) ensureExpanded(valueSetURL string) error {
	s.mu.RLock()
	vs, ok := s.valueSets[valueSetURL]
	if !ok {
		s.mu.RUnlock()
		return fmt.Errorf("%w: %s", ErrValueSetNotFound, valueSetURL)
	}
	if vs.expanded || len(vs.includeAll) == 0 {
		s.mu.RUnlock()
		return nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	vs, ok = s.valueSets[valueSetURL]
	if !ok {
		return fmt.Errorf("%w: %s", ErrValueSetNotFound, valueSetURL)
	}
	if vs.expanded {
		return nil
	}

	codes := make(map[string]map[string]codeEntry, len(vs.explicit)+len(vs.includeAll))
	for system, entries := range vs.explicit {
		for _, entry := range entries {
			addEntry(codes, system, entry)
		}
	}
	for _, system := range vs.includeAll {
		cs, ok := s.codeSystems[system]
		if !ok {
			continue
		}
		for _, entry := range cs.codes {
			addEntry(codes, system, codeEntry{code: entry.code, display: entry.display, system: system})
		}
	}
	vs.codes = codes
	vs.expanded = true
	return nil
}

// Includes returns the systems a ValueSet's compose includes, in order.
func (s *Service) Includes(valueSetURL string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vs, ok := s.valueSets[valueSetURL]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrValueSetNotFound, valueSetURL)
	}
	return append([]string(nil), vs.includes...), nil
}

// ValidateCode checks code against the ValueSet at valueSetURL, or against the
// CodeSystem at system when valueSetURL is empty.
func (s *Service) ValidateCode(ctx context.Context, system, code, valueSetURL string) (*ValidateCodeResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if code == "" {
		return &ValidateCodeResult{Valid: false, Message: "code is empty"}, nil
	}

	if valueSetURL != "" {
		if err := s.ensureExpanded(valueSetURL); err != nil {
			return nil, err
		}

		s.mu.RLock()
		defer s.mu.RUnlock()

		vs, ok := s.valueSets[valueSetURL]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrValueSetNotFound, valueSetURL)
		}

		if system != "" {
			if entry, ok := vs.codes[system][code]; ok {
				return valid(entry), nil
			}
		} else {
			for _, systemCodes := range vs.codes {
				if entry, ok := systemCodes[code]; ok {
					return valid(entry), nil
				}
			}
		}

		return &ValidateCodeResult{
			Valid:   false,
			Message: fmt.Sprintf("code '%s' not found in ValueSet '%s'", code, valueSetURL),
			Code:    code,
			System:  system,
		}, nil
	}

	if system == "" {
		return &ValidateCodeResult{
			Valid:   false,
			Message: "no system or valueSet specified for code validation",
			Code:    code,
		}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cs, ok := s.codeSystems[system]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCodeSystemNotFound, system)
	}
	if entry, ok := cs.codes[code]; ok {
		return valid(entry), nil
	}
	return &ValidateCodeResult{
		Valid:   false,
		Message: fmt.Sprintf("code '%s' not found in CodeSystem '%s'", code, system),
		Code:    code,
		System:  system,
	}, nil
}

func valid(entry codeEntry) *ValidateCodeResult {
	return &ValidateCodeResult{
		Valid:   true,
		Display: entry.display,
		Code:    entry.code,
		System:  entry.system,
	}
}

// ExpandValueSet lists the members of a ValueSet sorted by system and code.
func (s *Service) ExpandValueSet(ctx context.Context, url string) (*Expansion, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := s.ensureExpanded(url); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	vs, ok := s.valueSets[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrValueSetNotFound, url)
	}

	expansion := &Expansion{
		URL:      url,
		Contains: make([]Contains, 0),
	}
	for system, codes := range vs.codes {
		for _, entry := range codes {
			expansion.Contains = append(expansion.Contains, Contains{
				System:  system,
				Code:    entry.code,
				Display: entry.display,
			})
		}
	}
	sort.Slice(expansion.Contains, func(i, j int) bool {
		a, b := expansion.Contains[i], expansion.Contains[j]
		if a.System != b.System {
			return a.System < b.System
		}
		return a.Code < b.Code
	})

	expansion.Total = len(expansion.Contains)
	return expansion, nil
}

// Stats reports how many resources are loaded.
func (s *Service) Stats() (codeSystems, valueSets int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.codeSystems), len(s.valueSets)
}
