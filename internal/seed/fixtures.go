package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed documents.yaml
var documentFixturesYAML []byte

// DocumentFixture is one catalog entry from the embedded fixture file.
type DocumentFixture struct {
	Title       string `yaml:"title"`
	Reference   string `yaml:"reference"`
	Description string `yaml:"description"`
	FilePath    string `yaml:"file_path"`
	ContentType string `yaml:"content_type"`
}

type fixtureFile struct {
	Documents []DocumentFixture `yaml:"documents"`
}

// LoadDocumentFixtures parses the embedded demo document catalog.
func LoadDocumentFixtures() ([]DocumentFixture, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(documentFixturesYAML, &file); err != nil {
		return nil, fmt.Errorf("parse document fixtures: %w", err)
	}
	if len(file.Documents) == 0 {
		return nil, fmt.Errorf("document fixtures are empty")
	}
	return file.Documents, nil
}
