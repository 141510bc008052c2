package terminology

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/gofhir/fhir/r4"
	"github.com/viant/afs"
)

// LoadData registers a CodeSystem or ValueSet JSON resource, detected from
// its resourceType. It returns the detected resourceType.
func (s *Service) LoadData(data []byte) (string, error) {
	resourceType, err := jsonparser.GetString(data, "resourceType")
	if err != nil {
		return "", fmt.Errorf("failed to read resourceType: %w", err)
	}

	switch resourceType {
	case "CodeSystem":
		var cs r4.CodeSystem
		if err := json.Unmarshal(data, &cs); err != nil {
			return resourceType, fmt.Errorf("failed to parse CodeSystem: %w", err)
		}
		return resourceType, s.LoadCodeSystem(&cs)

	case "ValueSet":
		var vs r4.ValueSet
		if err := json.Unmarshal(data, &vs); err != nil {
			return resourceType, fmt.Errorf("failed to parse ValueSet: %w", err)
		}
		return resourceType, s.LoadValueSet(&vs)

	default:
		return resourceType, fmt.Errorf("unsupported resourceType: %s", resourceType)
	}
}

// LoadFile downloads the resource at url through fs and registers it.
func (s *Service) LoadFile(ctx context.Context, fs afs.Service, url string) (string, error) {
	if fs == nil {
		fs = afs.New()
	}
	data, err := fs.DownloadWithURL(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	resourceType, err := s.LoadData(data)
	if err != nil {
		return resourceType, fmt.Errorf("failed to load %s: %w", url, err)
	}
	return resourceType, nil
}
