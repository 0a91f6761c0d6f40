package graph

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/chazu/vellum/pkg/logging"
)

//go:embed schema/document.schema.json
var documentSchema []byte

// ErrInvalidDocument is returned when a document fails schema validation.
var ErrInvalidDocument = errors.New("invalid document")

// Document is the persisted unit: a node network with an identity.
type Document struct {
	ID      uuid.UUID    `json:"id"`
	Name    string       `json:"name,omitempty"`
	Network *NodeNetwork `json:"network"`
}

// NewDocument returns an empty document with a fresh random ID.
func NewDocument(name string) *Document {
	return &Document{ID: uuid.New(), Name: name, Network: NewNetwork()}
}

// DecodeDocument reads a document from JSON or YAML. The input is checked
// against the document schema before it is decoded.
func DecodeDocument(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("converting yaml: %w", err)
		}
		data = converted
	}
	if err := validateSchema(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	if doc.Network == nil {
		doc.Network = NewNetwork()
	}
	return &doc, nil
}

func validateSchema(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(documentSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
	}
	return nil
}

// EncodeJSON writes the document as indented JSON.
func (d *Document) EncodeJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// EncodeYAML writes the document as YAML.
func (d *Document) EncodeYAML() ([]byte, error) {
	js, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return yaml.JSONToYAML(js)
}

// LoadDocument reads and decodes a document file.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.Logger().Info("document loaded", "path", path, "id", doc.ID, "nodes", doc.Network.NodeCount())
	return doc, nil
}

// Save writes the document to path, as YAML for .yaml/.yml and JSON
// otherwise.
func (d *Document) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = d.EncodeYAML()
	default:
		data, err = d.EncodeJSON()
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}
