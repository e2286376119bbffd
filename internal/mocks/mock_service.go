package mocks

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"path"

	"solarguardian/internal/config"
	"solarguardian/internal/fetchers"
)

//go:embed data/*.json
var fixtures embed.FS

// fixtureFiles maps endpoint names to their recorded NOAA documents
var fixtureFiles = map[string]string{
	config.EndpointSolarFlare:  "xrays-6-hour.json",
	config.EndpointGeomagnetic: "noaa-planetary-k-index.json",
}

// MockService serves recorded NOAA documents instead of calling upstream
type MockService struct {
	docs map[string]json.RawMessage
}

// NewMockService loads the embedded fixtures
func NewMockService() (*MockService, error) {
	docs := make(map[string]json.RawMessage, len(fixtureFiles))
	for name, file := range fixtureFiles {
		content, err := fixtures.ReadFile(path.Join("data", file))
		if err != nil {
			return nil, fmt.Errorf("failed to read mock file %s: %w", file, err)
		}
		if !json.Valid(content) {
			return nil, fmt.Errorf("mock file %s is not valid JSON", file)
		}
		docs[name] = json.RawMessage(content)
	}
	return &MockService{docs: docs}, nil
}

// Fetch returns the fixture for the endpoint name; the URL is ignored.
// Unknown endpoints are absent.
func (m *MockService) Fetch(ctx context.Context, ep fetchers.Endpoint) fetchers.Result {
	if ctx.Err() != nil {
		return fetchers.Absent()
	}
	doc, ok := m.docs[ep.Name]
	if !ok {
		return fetchers.Absent()
	}
	return fetchers.Present(doc)
}

// Document returns the raw fixture for an endpoint name
func (m *MockService) Document(name string) (json.RawMessage, bool) {
	doc, ok := m.docs[name]
	return doc, ok
}
