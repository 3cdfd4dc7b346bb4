package load

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a set of entity mappings:
//
//	entities:
//	  - name: Product
//	    table: Products
//	    fields:
//	      - {name: Id, type: int64, key: generated}
//	      - {name: Name, type: string}
//	      - {name: CategoryId, type: int64, column: category_id}
type Document struct {
	Entities []*Entity `yaml:"entities"`
}

// LoadDocument reads and validates a YAML document.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read document: %w", err)
	}
	return ParseDocument(bytes.NewReader(data))
}

// ParseDocument decodes and validates a YAML document. Unknown fields are
// rejected.
func ParseDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("load: empty document")
		}
		return nil, fmt.Errorf("load: parse document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks every entity and rejects duplicate entity names.
func (d *Document) Validate() error {
	if len(d.Entities) == 0 {
		return fmt.Errorf("load: document has no entities")
	}
	seen := make(map[string]bool, len(d.Entities))
	for _, e := range d.Entities {
		if e == nil {
			return fmt.Errorf("load: empty entity")
		}
		if err := e.Validate(); err != nil {
			return err
		}
		if seen[e.Name] {
			return fmt.Errorf("load: duplicate entity %s", e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}
